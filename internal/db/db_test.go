package db

import (
	"io"
	"testing"

	"wallet_ledger/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBName: ":memory:"}

	gdb, err := Open(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(gdb))
	assert.True(t, gdb.Migrator().HasTable("users"))
	assert.True(t, gdb.Migrator().HasTable("wallets"))
	assert.True(t, gdb.Migrator().HasIndex("wallets", "idx_wallets_user_id"))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"}, logrus.New())
	assert.ErrorContains(t, err, "unsupported database driver")
}
