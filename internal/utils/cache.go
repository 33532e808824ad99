package utils

import (
	"context"       // Context for Redis operations
	_ "embed"       // Lua scripts
	"encoding/json" // JSON encoding/decoding
	"errors"        // Sentinel comparison
	"strconv"       // Fence values
	"time"          // Time durations

	"wallet_ledger/internal/domain" // Importing domain models

	"github.com/google/uuid"       // Wallet owner identifiers
	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb redis.Cmdable, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb redis.Cmdable, keys ...string) error {
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

//go:embed lua/set_if_fresh.lua
var luaSetIfFresh string

// WalletCacheKey is the cache key of the wallet owned by userID
func WalletCacheKey(userID uuid.UUID) string {
	return "wallet:user:" + userID.String()
}

// walletFenceKey holds the updated_at of the newest committed mutation
func walletFenceKey(userID uuid.UUID) string {
	return WalletCacheKey(userID) + ":fence"
}

// WalletCache is a read-through cache of wallet snapshots keyed by owner. A
// snapshot older than the last fenced mutation is never written back.
type WalletCache struct {
	rdb        redis.Cmdable // Redis client
	ttl        time.Duration // Entry lifetime
	scrSetIfOk *redis.Script // Fence-checked SET
}

// NewWalletCache creates a wallet cache backed by rdb
func NewWalletCache(rdb redis.Cmdable, ttl time.Duration) *WalletCache {
	if ttl < time.Millisecond {
		ttl = time.Minute // PX needs a positive lifetime
	}
	return &WalletCache{rdb: rdb, ttl: ttl, scrSetIfOk: redis.NewScript(luaSetIfFresh)}
}

// Get returns the cached wallet of userID, or nil when absent
func (c *WalletCache) Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var wallet domain.Wallet
	found, err := GetCache(ctx, c.rdb, WalletCacheKey(userID), &wallet)
	if err != nil || !found {
		return nil, err
	}
	return &wallet, nil
}

// Set stores a wallet snapshot unless a newer mutation has been fenced
func (c *WalletCache) Set(ctx context.Context, wallet *domain.Wallet) error {
	b, err := json.Marshal(wallet) // Marshal snapshot to JSON
	if err != nil {
		return err
	}
	keys := []string{WalletCacheKey(wallet.UserID), walletFenceKey(wallet.UserID)}
	return c.scrSetIfOk.Run(ctx, c.rdb, keys,
		b,                            // Snapshot
		wallet.UpdatedAt.UnixMicro(), // Snapshot version
		c.ttl.Milliseconds(),         // Entry lifetime
	).Err()
}

// Invalidate drops the cached wallets of the given owners
func (c *WalletCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = WalletCacheKey(id)
	}
	return DeleteCache(ctx, c.rdb, keys...)
}

// Fence drops the cached snapshots of committed wallets and records their
// updated_at, so a reader that loaded an older row cannot write it back.
func (c *WalletCache) Fence(ctx context.Context, wallets ...*domain.Wallet) error {
	if len(wallets) == 0 {
		return nil
	}
	pipe := c.rdb.TxPipeline()
	for _, w := range wallets {
		pipe.Del(ctx, WalletCacheKey(w.UserID))
		pipe.Set(ctx, walletFenceKey(w.UserID), strconv.FormatInt(w.UpdatedAt.UnixMicro(), 10), c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
