package service

import (
	"context"
	"errors"
	"strings"

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UserFinder resolves users by username; *UserDirectory satisfies it.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// WalletCache holds wallet snapshots keyed by owner. Failures are never fatal
// to callers.
type WalletCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	// Set must not overwrite a snapshot fenced by a newer mutation.
	Set(ctx context.Context, wallet *domain.Wallet) error
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
	// Fence drops snapshots of committed wallets and blocks older write-backs.
	Fence(ctx context.Context, wallets ...*domain.Wallet) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID) (*domain.Wallet, error) { return nil, nil }
func (noopCache) Set(context.Context, *domain.Wallet) error              { return nil }
func (noopCache) Invalidate(context.Context, ...uuid.UUID) error         { return nil }
func (noopCache) Fence(context.Context, ...*domain.Wallet) error         { return nil }

// WalletService creates and reads wallets. Balance changes go through Ledger.
type WalletService struct {
	users   UserFinder
	wallets repository.WalletRepository
	cache   WalletCache
	log     logrus.FieldLogger
}

// NewWalletService wires the service; a nil cache disables caching.
func NewWalletService(users UserFinder, wallets repository.WalletRepository, cache WalletCache, log logrus.FieldLogger) *WalletService {
	if cache == nil {
		cache = noopCache{}
	}
	return &WalletService{
		users:   users,
		wallets: wallets,
		cache:   cache,
		log:     log.WithField("component", "wallet_service"),
	}
}

// ParseCurrency defaults to USD and accepts any letter case.
func ParseCurrency(s string) (domain.Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return domain.DefaultCurrency, nil
	}
	c := domain.Currency(s)
	if !c.Valid() {
		return "", domain.Newf(domain.CodeValidation, "currency must be one of USD, USDT, USDC, NGN")
	}
	return c, nil
}

// CreateWallet opens a zero-balance wallet for username.
func (s *WalletService) CreateWallet(ctx context.Context, username, currency string) (*domain.Wallet, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return nil, domain.Newf(domain.CodeValidation, "username is required")
	}
	cur, err := ParseCurrency(currency)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.Newf(domain.CodeUserNotFound, "user not found... please create an account")
	}

	existing, err := s.wallets.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, s.createFailed(username, err)
	}
	if existing != nil {
		return nil, domain.ErrWalletAlreadyExists // One wallet per user
	}

	wallet, err := s.wallets.Create(ctx, user.ID, cur)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrWalletAlreadyExists // Lost a concurrent create
		}
		return nil, s.createFailed(username, err)
	}

	s.invalidate(ctx, user.ID) // Drop any cached miss
	s.log.WithFields(logrus.Fields{
		"wallet_id": wallet.ID,
		"username":  username,
		"currency":  wallet.Currency,
	}).Info("wallet created")
	return wallet, nil
}

// GetWallet returns the wallet of username, served from cache when possible.
func (s *WalletService) GetWallet(ctx context.Context, username string) (*domain.Wallet, error) {
	username = domain.NormalizeUsername(username)
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.Newf(domain.CodeUserNotFound, "user not found... please create an account")
	}

	cached, err := s.cache.Get(ctx, user.ID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("wallet cache read failed")
	} else if cached != nil {
		return cached, nil // Cache hit
	}

	wallet, err := s.wallets.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, infraFailure(s.log, domain.CodeStorage, "failed to fetch wallet. please try again later",
			"get_wallet", logrus.Fields{"username": username}, err)
	}
	if wallet == nil {
		return nil, domain.Newf(domain.CodeWalletNotFound, "user wallet not found... please create a wallet")
	}

	if err := s.cache.Set(ctx, wallet); err != nil { // Skipped when a newer commit is fenced
		s.log.WithError(err).WithField("user_id", user.ID).Warn("wallet cache write failed")
	}
	return wallet, nil
}

func (s *WalletService) invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.log.WithError(err).WithField("user_ids", userIDs).Warn("wallet cache invalidation failed")
	}
}

func (s *WalletService) createFailed(username string, err error) error {
	return infraFailure(s.log, domain.CodeStorage, "failed to create wallet. please try again later",
		"create_wallet", logrus.Fields{"username": username}, err)
}
