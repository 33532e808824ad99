package repository

import (
	"context" // Request scoped queries
	"errors"  // Error comparison
	"fmt"     // Error wrapping
	"time"    // Update timestamps

	"wallet_ledger/internal/domain" // Importing domain models

	"github.com/google/uuid"        // Wallet identifiers
	"github.com/shopspring/decimal" // Exact balances
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking clause
)

// ErrWalletMissing is returned by UpdateBalance when no row matches.
var ErrWalletMissing = errors.New("wallet row missing")

// WalletRepository is the only writer of wallet balances. It enforces no
// business rules; the ledger does.
type WalletRepository interface {
	Create(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Wallet, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	// FindByIDForUpdate reads a wallet and holds a row lock until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) (*domain.Wallet, error)
	// ExecuteInTransaction runs fn against a repository bound to one database
	// transaction. Any error or panic from fn rolls the transaction back.
	ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Wallet, error) {
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: currency,
		Balance:  decimal.Zero, // New wallets start empty
	}
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create wallet: %w", ErrDuplicate) // One wallet per user
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return r.findOne(r.db.WithContext(ctx), "user_id = ?", userID)
}

func (r *walletRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	return r.findOne(r.db.WithContext(ctx), "id = ?", id)
}

func (r *walletRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	locked := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}) // SELECT ... FOR UPDATE
	return r.findOne(locked, "id = ?", id)
}

func (r *walletRepository) UpdateBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) (*domain.Wallet, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance":    balance,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("failed to update wallet balance: %w", ErrWalletMissing)
	}
	wallet, err := r.FindByID(ctx, walletID) // Reload the committed row
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, fmt.Errorf("failed to reload wallet: %w", ErrWalletMissing)
	}
	return wallet, nil
}

func (r *walletRepository) ExecuteInTransaction(ctx context.Context, fn func(WalletRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx}) // Repository bound to tx
	})
}

func (r *walletRepository) findOne(db *gorm.DB, query string, arg any) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := db.Where(query, arg).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Absence is not an error
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}
