// Package gateway serves the relay endpoints the zkLogin client calls: proof
// requests forwarded to the proving API and gas sponsorship signed locally.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"zkpass/internal/domain"
	"zkpass/internal/metrics"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// Config tunes the server.
type Config struct {
	Addr           string
	Network        domain.Network
	RequestTimeout time.Duration
}

// Server is the gateway HTTP server.
type Server struct {
	Echo *echo.Echo

	cfg      Config
	proofs   domain.ProofClient
	sponsor  domain.SponsorClient
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// New builds the server and registers its routes. gatherer may be nil, in
// which case /metrics is not served.
func New(
	cfg Config,
	proofs domain.ProofClient,
	sponsor domain.SponsorClient,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{Echo: e, cfg: cfg, proofs: proofs, sponsor: sponsor, metrics: m, gatherer: gatherer}
	e.Use(s.accessLog)

	PostProofRoute(s)
	PostSponsorRoute(s)
	GetHealthRoute(s)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("gateway listening")
	err := s.Echo.Start(s.cfg.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// accessLog records method, path, status and duration of every request.
func (s *Server) accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		code := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		} else if err != nil {
			code = http.StatusInternalServerError
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(route, code)

		ev := log.Info()
		if code >= 500 {
			ev = log.Warn().Err(err)
		}
		ev.Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Str("remote", c.RealIP()).
			Int("status", code).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}
