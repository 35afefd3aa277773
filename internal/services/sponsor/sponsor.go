// Package sponsor funds and co-signs transaction kinds on behalf of users.
// It runs behind the gateway's sponsorship endpoint.
package sponsor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/protocol/txn"
)

// DefaultBudget is the gas budget set on sponsored transactions.
const DefaultBudget = 50_000_000

// DefaultCoinLease is how long a gas coin handed out in one sponsorship is
// withheld from the next.
const DefaultCoinLease = time.Minute

var (
	ErrTargetNotAllowed = errors.New("move call target is not sponsored")
	ErrBudgetExhausted  = errors.New("sponsor budget exhausted")
)

// Config limits what the sponsor pays for.
type Config struct {
	// Budget is the per-transaction gas budget.
	Budget uint64
	// AllowedPackages restricts sponsorship to calls into these packages. Empty allows all.
	AllowedPackages []domain.ObjectID
	// TotalBudget caps the sum of budgets signed by this process. Zero is unlimited.
	TotalBudget uint64
	// CoinLease is how long gas coins stay reserved after being signed over.
	CoinLease time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used to expire coin leases.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// Service signs gas for user transactions with the sponsor key.
type Service struct {
	seed    domain.Ed25519Seed
	address domain.Address
	gas     domain.GasSource
	cfg     Config
	allowed map[domain.ObjectID]bool

	mu    sync.Mutex
	spent uint64

	coinMu sync.Mutex
	leases map[domain.ObjectID]time.Time
	now    func() time.Time
}

// New returns a sponsor Service paying from the account of seed.
func New(seed domain.Ed25519Seed, gas domain.GasSource, cfg Config, opts ...Option) *Service {
	if cfg.Budget == 0 {
		cfg.Budget = DefaultBudget
	}
	if cfg.CoinLease <= 0 {
		cfg.CoinLease = DefaultCoinLease
	}
	allowed := make(map[domain.ObjectID]bool, len(cfg.AllowedPackages))
	for _, p := range cfg.AllowedPackages {
		allowed[domain.ObjectID(domain.NormalizeAddress(p.String()))] = true
	}
	s := &Service{
		seed:    seed,
		address: crypto.AddressFromPublicKey(crypto.PublicFromSeed(seed)),
		gas:     gas,
		cfg:     cfg,
		allowed: allowed,
		leases:  make(map[domain.ObjectID]time.Time),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Address is the sponsor account paying for gas.
func (s *Service) Address() domain.Address { return s.address }

// RequestSponsorship wraps kind into transaction data for sender with the
// sponsor's gas and returns it together with the sponsor's signature.
func (s *Service) RequestSponsorship(
	ctx context.Context,
	kind []byte,
	sender domain.Address,
) (domain.SponsoredTransaction, error) {
	sum, err := txn.InspectKind(kind)
	if err != nil {
		return domain.SponsoredTransaction{}, errors.Wrapf(domain.ErrSponsorService, "decode transaction kind: %v", err)
	}
	if err := s.checkTargets(sum.Calls); err != nil {
		return domain.SponsoredTransaction{}, err
	}
	if err := s.reserve(); err != nil {
		return domain.SponsoredTransaction{}, err
	}

	gas, err := s.leaseGas(ctx)
	if err != nil {
		s.refund()
		return domain.SponsoredTransaction{}, errors.Wrapf(domain.ErrSponsorService, "plan gas: %v", err)
	}
	tx, err := txn.BuildTransactionData(kind, sender, gas)
	if err != nil {
		s.refund()
		s.release(gas.Payment)
		return domain.SponsoredTransaction{}, errors.Wrapf(domain.ErrSponsorService, "assemble transaction: %v", err)
	}

	log.Info().
		Str("sender", sender.String()).
		Str("digest", txn.TransactionDigest(tx).String()).
		Uint64("budget", gas.Budget).
		Int("gas_coins", len(gas.Payment)).
		Msg("transaction sponsored")
	return domain.SponsoredTransaction{Bytes: tx, Signature: crypto.SignAndSerialize(s.seed, tx)}, nil
}

func (s *Service) checkTargets(calls []domain.MoveTarget) error {
	if len(calls) == 0 {
		return errors.Wrap(ErrTargetNotAllowed, "transaction makes no move call")
	}
	if len(s.allowed) == 0 {
		return nil
	}
	for _, c := range calls {
		if !s.allowed[c.Package] {
			return errors.Wrapf(ErrTargetNotAllowed, "%s", c)
		}
	}
	return nil
}

func (s *Service) reserve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.TotalBudget > 0 && s.spent+s.cfg.Budget > s.cfg.TotalBudget {
		return ErrBudgetExhausted
	}
	s.spent += s.cfg.Budget
	return nil
}

func (s *Service) refund() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spent -= s.cfg.Budget
}

// leaseGas plans gas from coins not leased to another sponsorship and leases
// the chosen ones until CoinLease elapses. Planning and leasing share one
// critical section so concurrent requests never pay with the same coin.
func (s *Service) leaseGas(ctx context.Context) (domain.GasData, error) {
	s.coinMu.Lock()
	defer s.coinMu.Unlock()

	now := s.now()
	for id, until := range s.leases {
		if !now.Before(until) {
			delete(s.leases, id)
		}
	}
	gas, err := txn.PlanGasExcept(ctx, s.gas, s.address, s.cfg.Budget, func(id domain.ObjectID) bool {
		_, leased := s.leases[coinKey(id)]
		return leased
	})
	if err != nil {
		return domain.GasData{}, err
	}
	for _, ref := range gas.Payment {
		s.leases[coinKey(ref.ObjectID)] = now.Add(s.cfg.CoinLease)
	}
	return gas, nil
}

func (s *Service) release(coins []domain.ObjectRef) {
	s.coinMu.Lock()
	defer s.coinMu.Unlock()
	for _, ref := range coins {
		delete(s.leases, coinKey(ref.ObjectID))
	}
}

func coinKey(id domain.ObjectID) domain.ObjectID {
	return domain.ObjectID(domain.NormalizeAddress(id.String()))
}

var _ domain.SponsorClient = (*Service)(nil)
