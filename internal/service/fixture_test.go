package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wallet_ledger/internal/db/dbtest"
	"wallet_ledger/internal/domain"
	"wallet_ledger/internal/repository"
	"wallet_ledger/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	mr         *miniredis.Miniredis
	hook       *test.Hook
	walletRepo repository.WalletRepository
	cache      *utils.WalletCache
	users      *UserDirectory
	wallets    *WalletService
	ledger     *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	walletRepo := repository.NewWalletRepository(gdb)
	cache := utils.NewWalletCache(rdb, time.Minute)
	users := NewUserDirectory(repository.NewUserRepository(gdb), log)

	return &fixture{
		db:         gdb,
		mr:         mr,
		hook:       hook,
		walletRepo: walletRepo,
		cache:      cache,
		users:      users,
		wallets:    NewWalletService(users, walletRepo, cache, log),
		ledger:     NewLedger(users, walletRepo, cache, log, 5*time.Second),
	}
}

// account registers username with a wallet holding balance.
func (f *fixture) account(t *testing.T, username, balance string) *domain.User {
	t.Helper()
	ctx := context.Background()
	user, err := f.users.Create(ctx, fmt.Sprintf("%s@example.com", username), username)
	require.NoError(t, err)
	_, err = f.wallets.CreateWallet(ctx, username, "")
	require.NoError(t, err)
	if balance != "0" {
		_, err = f.ledger.Fund(ctx, username, balance)
		require.NoError(t, err)
	}
	return user
}

func (f *fixture) balance(t *testing.T, user *domain.User) string {
	t.Helper()
	w, err := f.walletRepo.FindByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, w)
	return w.Balance.String()
}

func (f *fixture) closeDB(t *testing.T) {
	t.Helper()
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}
