package app

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"zkpass/internal/domain"
	"zkpass/internal/ledger"
	"zkpass/internal/metrics"
	"zkpass/internal/protocol/txn"
	"zkpass/internal/relay"
	"zkpass/internal/services/executor"
	"zkpass/internal/services/login"
	"zkpass/internal/services/session"
	"zkpass/internal/services/vehicle"
	"zkpass/internal/store"
	"zkpass/internal/wallet"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Config   Config
	Ledger   *ledger.Client
	Relay    *relay.HTTP
	Builder  *txn.Builder
	Sessions *session.Manager
	Login    *login.Service
	Executor *executor.Executor
	Vehicles *vehicle.Reader
	Registry vehicle.Registry
	Metrics  *metrics.Metrics

	closers []func() error
}

// NewWire constructs the dependency graph from cfg. Metrics are registered on reg when it is not nil.
func NewWire(cfg Config, reg prometheus.Registerer) (*Wire, error) {
	w := &Wire{Config: cfg, Metrics: metrics.New(reg)}

	sessionStore, err := w.sessionStore()
	if err != nil {
		return nil, err
	}

	// Network clients
	w.Ledger = ledger.NewClient(cfg.RPCURL)
	w.Relay = relay.NewHTTP(cfg.RelayURL, cfg.HTTPTimeout)
	w.Builder = txn.NewBuilder(w.Ledger)

	// High-level services
	w.Sessions = session.New(sessionStore)
	w.Login = login.New(w.Sessions, w.Relay, w.Ledger, login.Config{
		ClientID:     cfg.OAuth.ClientID,
		RedirectURL:  cfg.OAuth.RedirectURL,
		AuthEndpoint: cfg.OAuth.AuthEndpoint,
		EpochWindow:  cfg.Login.EpochWindow,
		Network:      domain.Network(cfg.Network),
		Permissive:   cfg.Login.PermissiveAddress,
	})
	w.Executor = executor.New(executor.Deps{
		Sessions:  w.Sessions,
		Proofs:    w.Relay,
		Sponsor:   w.Relay,
		Builder:   w.Builder,
		Submitter: w.Ledger,
		Metrics:   w.Metrics,
	}, executor.Config{Network: domain.Network(cfg.Network), CallTimeout: cfg.CallTimeout})

	w.Registry = vehicle.Registry{
		Package:      domain.ObjectID(cfg.Registry.Package),
		CarRegistry:  domain.ObjectID(cfg.Registry.CarRegistry),
		AuthRegistry: domain.ObjectID(cfg.Registry.AuthRegistry),
		AdminCap:     domain.ObjectID(cfg.Registry.AdminCap),
	}
	w.Vehicles = vehicle.NewReader(w.Ledger, w.Registry)
	return w, nil
}

func (w *Wire) sessionStore() (domain.SessionStore, error) {
	cfg := w.Config.Session
	switch cfg.Backend {
	case "redis":
		client, err := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, client.Close)
		return store.NewRedisSessionStore(client, cfg.Redis.Key, cfg.Redis.TTL), nil
	case "file", "":
		var opts []store.FileOption
		if cfg.Passphrase != "" {
			opts = append(opts, store.WithPassphrase(cfg.Passphrase))
		}
		return store.NewSessionFileStore(w.Config.Home, opts...), nil
	default:
		return nil, errors.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// Wallet loads the configured keystore key as a wallet paying its own gas.
func (w *Wire) Wallet() (*wallet.Wallet, error) {
	ks, err := wallet.LoadKeystore(w.Config.Wallet.Keystore)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrWallet, "%v", err)
	}
	seed, err := ks.Key(w.Config.Wallet.Key)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrWallet, "%v", err)
	}
	return wallet.New(seed, w.Builder, w.Ledger, w.Config.Wallet.GasBudget), nil
}

// Close releases connections opened by NewWire.
func (w *Wire) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
