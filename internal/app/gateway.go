package app

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/enoki"
	"zkpass/internal/gateway"
	"zkpass/internal/ledger"
	"zkpass/internal/metrics"
	"zkpass/internal/services/sponsor"
	"zkpass/internal/wallet"
)

// NewGateway constructs the gateway server from cfg. Metrics are registered
// on reg and served from the same registry.
func NewGateway(cfg GatewayConfig, reg *prometheus.Registry) (*gateway.Server, error) {
	seed, err := sponsorKey(cfg.Sponsor)
	if err != nil {
		return nil, err
	}

	rpc := ledger.NewClient(cfg.RPCURL)
	prover := enoki.NewClient(cfg.Enoki.URL, cfg.Enoki.APIKey, cfg.RequestTimeout)

	allowed := make([]domain.ObjectID, len(cfg.Sponsor.AllowedPackages))
	for i, p := range cfg.Sponsor.AllowedPackages {
		allowed[i] = domain.ObjectID(p)
	}
	sponsorSvc := sponsor.New(seed, rpc, sponsor.Config{
		Budget:          cfg.Sponsor.Budget,
		AllowedPackages: allowed,
		TotalBudget:     cfg.Sponsor.TotalBudget,
		CoinLease:       cfg.Sponsor.CoinLease,
	})

	var (
		registerer prometheus.Registerer
		gatherer   prometheus.Gatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	return gateway.New(gateway.Config{
		Addr:           cfg.Listen,
		Network:        domain.Network(cfg.Network),
		RequestTimeout: cfg.RequestTimeout,
	}, prover, sponsorSvc, metrics.New(registerer), gatherer), nil
}

func sponsorKey(cfg SponsorConfig) (domain.Ed25519Seed, error) {
	if cfg.Secret != "" {
		seed, err := crypto.DecodeSecret(cfg.Secret)
		if err != nil {
			return domain.Ed25519Seed{}, errors.Wrap(err, "sponsor.secret")
		}
		return seed, nil
	}
	ks, err := wallet.LoadKeystore(cfg.Keystore)
	if err != nil {
		return domain.Ed25519Seed{}, errors.Wrap(err, "sponsor keystore")
	}
	return ks.Key(cfg.Key)
}
