package domain

import (
	"time" // For timestamps

	"github.com/google/uuid"        // For opaque identifiers
	"github.com/shopspring/decimal" // Fixed-point balances
)

// Currency is the single currency a wallet is denominated in
type Currency string

// Supported currencies
const (
	CurrencyUSD  Currency = "USD"
	CurrencyUSDT Currency = "USDT"
	CurrencyUSDC Currency = "USDC"
	CurrencyNGN  Currency = "NGN"
)

// DefaultCurrency is assigned when a wallet is created without one
const DefaultCurrency = CurrencyUSD

// Valid reports whether c is one of the supported currencies
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyUSDT, CurrencyUSDC, CurrencyNGN:
		return true
	}
	return false
}

// Wallet Model
type Wallet struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`               // Primary key
	UserID    uuid.UUID       `gorm:"type:char(36);uniqueIndex;not null" json:"userId"` // Foreign key to User, one wallet per user
	Currency  Currency        `gorm:"type:varchar(8);not null" json:"currency"`         // Immutable after creation
	Balance   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"balance"`       // Never negative
	CreatedAt time.Time       `json:"createdAt"`                                        // Creation timestamp
	UpdatedAt time.Time       `json:"updatedAt"`                                        // Last update timestamp
}
