package api

import (
	"context"  // Request scoped context
	"net/http" // HTTP status codes

	"wallet_ledger/internal/domain"   // Importing domain models
	"wallet_ledger/internal/response" // Response envelope
	"wallet_ledger/internal/service"  // Ledger results

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// WalletService creates and reads wallets
type WalletService interface {
	CreateWallet(ctx context.Context, username, currency string) (*domain.Wallet, error)
	GetWallet(ctx context.Context, username string) (*domain.Wallet, error)
}

// Ledger applies balance mutations
type Ledger interface {
	Fund(ctx context.Context, username, amount string) (*service.FundResult, error)
	Transfer(ctx context.Context, sender, receiver, amount string) (*service.TransferResult, error)
}

// CreateWalletRequest represents a wallet creation request
type CreateWalletRequest struct {
	Username string `json:"username" binding:"required"` // Wallet owner
	Currency string `json:"currency"`                    // Optional, defaults to USD
}

// FundWalletRequest represents a funding request. Amounts are decimal strings.
type FundWalletRequest struct {
	Username string `json:"username" binding:"required"` // Wallet owner
	Amount   string `json:"amount" binding:"required"`   // Positive decimal, at most 8 places
}

// TransferRequest represents a transfer between two users
type TransferRequest struct {
	SenderUsername   string `json:"senderUsername" binding:"required"`   // Debited user
	ReceiverUsername string `json:"receiverUsername" binding:"required"` // Credited user
	Amount           string `json:"amount" binding:"required"`           // Positive decimal, at most 8 places
}

// CreateWalletHandler opens a wallet for an existing user
func CreateWalletHandler(wallets WalletService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateWalletRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		wallet, err := wallets.CreateWallet(c.Request.Context(), req.Username, req.Currency)
		if err != nil {
			writeError(c, log, err) // Unknown user, duplicate wallet or storage failure
			return
		}
		response.WriteSuccess(c, http.StatusCreated, "wallet created successfully", gin.H{"wallet": wallet})
	}
}

// GetWalletHandler returns the wallet of a user
func GetWalletHandler(wallets WalletService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, err := wallets.GetWallet(c.Request.Context(), c.Param("username"))
		if err != nil {
			writeError(c, log, err)
			return
		}
		response.WriteSuccess(c, http.StatusOK, "wallet retrieved successfully", gin.H{"wallet": wallet})
	}
}

// FundWalletHandler credits a user's wallet
func FundWalletHandler(ledger Ledger, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FundWalletRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		res, err := ledger.Fund(c.Request.Context(), req.Username, req.Amount)
		if err != nil {
			writeError(c, log, err) // Invalid amount, unknown user or wallet, storage failure
			return
		}
		response.WriteSuccess(c, http.StatusOK, res.Message, gin.H{"wallet": res.Wallet})
	}
}

// TransferHandler moves funds between two users' wallets
func TransferHandler(ledger Ledger, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err)
			return
		}
		res, err := ledger.Transfer(c.Request.Context(), req.SenderUsername, req.ReceiverUsername, req.Amount)
		if err != nil {
			writeError(c, log, err) // Business rule or transaction failure
			return
		}
		response.WriteSuccess(c, http.StatusOK, res.Message, gin.H{"senderWallet": res.SenderWallet})
	}
}
