package service

import (
	"bytes"   // Lock ordering by raw id bytes
	"context" // Transaction deadlines
	"fmt"     // Message formatting
	"slices"  // Sorting lock order
	"time"    // Transaction timeout

	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultTxTimeout bounds one balance-changing transaction.
const DefaultTxTimeout = 5 * time.Second

// FundResult is the outcome of a successful Fund.
type FundResult struct {
	Message string
	Wallet  *domain.Wallet
}

// TransferResult is the outcome of a successful Transfer. SenderWallet is the
// post-commit snapshot of the sender's wallet.
type TransferResult struct {
	Message      string
	SenderWallet *domain.Wallet
}

// Ledger performs every balance mutation. Each operation runs in one database
// transaction that row-locks the touched wallets in ascending id order and
// re-reads balances under the lock, so concurrent mutations never lose
// updates and never deadlock against each other.
type Ledger struct {
	users     UserFinder
	wallets   repository.WalletRepository
	cache     WalletCache
	log       logrus.FieldLogger
	txTimeout time.Duration
}

// NewLedger wires the ledger. A nil cache disables invalidation and a
// non-positive timeout falls back to DefaultTxTimeout.
func NewLedger(users UserFinder, wallets repository.WalletRepository, cache WalletCache, log logrus.FieldLogger, txTimeout time.Duration) *Ledger {
	if cache == nil {
		cache = noopCache{}
	}
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}
	return &Ledger{
		users:     users,
		wallets:   wallets,
		cache:     cache,
		log:       log.WithField("component", "ledger"),
		txTimeout: txTimeout,
	}
}

// Fund credits amount to the wallet of username.
func (l *Ledger) Fund(ctx context.Context, username, amount string) (*FundResult, error) {
	value, err := domain.ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	user, err := l.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.Newf(domain.CodeUserNotFound, "user not found. please create an account first")
	}
	wallet, err := l.wallets.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, l.fundFailed(user.Username, err)
	}
	if wallet == nil {
		return nil, domain.Newf(domain.CodeWalletNotFound, "user wallet not found. please create a wallet first")
	}

	var previous, updated *domain.Wallet
	err = l.inTx(ctx, func(ctx context.Context, tx repository.WalletRepository) error {
		locked, err := tx.FindByIDForUpdate(ctx, wallet.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.Newf(domain.CodeWalletNotFound, "user wallet not found. please create a wallet first")
		}
		previous = locked
		next := domain.RoundBalance(locked.Balance.Add(value)) // Balance read under the lock
		if err := domain.CheckBalance(next); err != nil {
			return err // Would overflow the balance column
		}
		updated, err = tx.UpdateBalance(ctx, locked.ID, next)
		return err
	})
	if err != nil {
		if isClassified(err) {
			return nil, err
		}
		return nil, l.fundFailed(user.Username, err)
	}

	l.fence(ctx, updated) // After commit only
	l.log.WithFields(logrus.Fields{
		"wallet_id":        updated.ID,
		"username":         user.Username,
		"amount":           value.String(),
		"previous_balance": previous.Balance.String(),
		"new_balance":      updated.Balance.String(),
	}).Info("wallet funded")

	return &FundResult{Message: "wallet funded successfully", Wallet: updated}, nil
}

// Transfer moves amount from sender's wallet to receiver's wallet.
func (l *Ledger) Transfer(ctx context.Context, sender, receiver, amount string) (*TransferResult, error) {
	value, err := domain.ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	if domain.NormalizeUsername(sender) == domain.NormalizeUsername(receiver) { // Checked before any lookup
		return nil, domain.ErrSelfTransfer
	}

	from, err := l.resolveUser(ctx, "sender", sender)
	if err != nil {
		return nil, err
	}
	to, err := l.resolveUser(ctx, "receiver", receiver)
	if err != nil {
		return nil, err
	}
	fromWallet, err := l.resolveWallet(ctx, "sender", from)
	if err != nil {
		return nil, err
	}
	toWallet, err := l.resolveWallet(ctx, "receiver", to)
	if err != nil {
		return nil, err
	}

	var debited, credited *domain.Wallet
	err = l.inTx(ctx, func(ctx context.Context, tx repository.WalletRepository) error {
		locked, err := lockInOrder(ctx, tx, fromWallet.ID, toWallet.ID)
		if err != nil {
			return err
		}
		src, dst := locked[fromWallet.ID], locked[toWallet.ID]

		if src.Balance.LessThan(value) {
			return domain.Newf(domain.CodeInsufficientBalance,
				"insufficient balance. current balance: %s, required: %s", src.Balance.String(), value.String())
		}

		credit := domain.RoundBalance(dst.Balance.Add(value)) // Receiver balance after the credit
		if err := domain.CheckBalance(credit); err != nil {
			return err // Would overflow the receiver's balance column
		}

		debited, err = tx.UpdateBalance(ctx, src.ID, domain.RoundBalance(src.Balance.Sub(value)))
		if err != nil {
			return err // Rolls back, nothing applied
		}
		credited, err = tx.UpdateBalance(ctx, dst.ID, credit)
		return err // Rolls back the debit on failure
	})
	if err != nil {
		if isClassified(err) {
			return nil, err
		}
		return nil, infraFailure(l.log, domain.CodeTransferFailed, domain.ErrTransferFailed.Message, "transfer",
			logrus.Fields{"sender": from.Username, "receiver": to.Username, "amount": value.String()}, err)
	}

	l.fence(ctx, debited, credited)
	l.log.WithFields(logrus.Fields{
		"sender":           from.Username,
		"receiver":         to.Username,
		"amount":           value.String(),
		"sender_balance":   debited.Balance.String(),
		"receiver_balance": credited.Balance.String(),
	}).Info("funds transferred")

	return &TransferResult{
		Message:      fmt.Sprintf("%s successfully transferred from %s to %s", value.String(), from.Username, to.Username),
		SenderWallet: debited,
	}, nil
}

// inTx runs fn in one transaction bounded by the ledger timeout. fn must issue
// every statement through tx and ctx.
func (l *Ledger) inTx(ctx context.Context, fn func(context.Context, repository.WalletRepository) error) error {
	ctx, cancel := context.WithTimeout(ctx, l.txTimeout)
	defer cancel()
	return l.wallets.ExecuteInTransaction(ctx, func(tx repository.WalletRepository) error {
		return fn(ctx, tx)
	})
}

func (l *Ledger) resolveUser(ctx context.Context, party, username string) (*domain.User, error) {
	user, err := l.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.Newf(domain.CodeUserNotFound, "%s '%s' not found. please create an account first",
			party, domain.NormalizeUsername(username))
	}
	return user, nil
}

func (l *Ledger) resolveWallet(ctx context.Context, party string, user *domain.User) (*domain.Wallet, error) {
	wallet, err := l.wallets.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, infraFailure(l.log, domain.CodeTransferFailed, domain.ErrTransferFailed.Message, "resolve_wallet",
			logrus.Fields{"party": party, "username": user.Username}, err)
	}
	if wallet == nil {
		return nil, domain.Newf(domain.CodeWalletNotFound, "%s '%s' wallet not found. please create a wallet first",
			party, user.Username)
	}
	return wallet, nil
}

// lockInOrder row-locks the given wallets in ascending id order and returns
// their balances as read under the lock.
func lockInOrder(ctx context.Context, tx repository.WalletRepository, ids ...uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	ordered := slices.Clone(ids)
	slices.SortFunc(ordered, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	locked := make(map[uuid.UUID]*domain.Wallet, len(ordered))
	for _, id := range ordered {
		w, err := tx.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, domain.Newf(domain.CodeWalletNotFound, "wallet %s not found", id)
		}
		locked[id] = w
	}
	return locked, nil
}

func (l *Ledger) fence(ctx context.Context, wallets ...*domain.Wallet) {
	if err := l.cache.Fence(ctx, wallets...); err != nil {
		l.log.WithError(err).WithField("wallets", len(wallets)).Warn("wallet cache invalidation failed")
	}
}

func (l *Ledger) fundFailed(username string, err error) error {
	return infraFailure(l.log, domain.CodeStorage, "failed to fund wallet. please try again later",
		"fund_wallet", logrus.Fields{"username": username}, err)
}
