package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet_ledger/internal/db/dbtest"
	"wallet_ledger/internal/middleware"
	"wallet_ledger/internal/repository"
	"wallet_ledger/internal/service"
	"wallet_ledger/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, limit middleware.RateLimitConfig) *testServer {
	t.Helper()
	gdb := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	log, _ := test.NewNullLogger()

	walletRepo := repository.NewWalletRepository(gdb)
	cache := utils.NewWalletCache(rdb, time.Minute)
	users := service.NewUserDirectory(repository.NewUserRepository(gdb), log)

	router, err := NewRouter(Dependencies{
		Users:     users,
		Wallets:   service.NewWalletService(users, walletRepo, cache, log),
		Ledger:    service.NewLedger(users, walletRepo, cache, log, 5*time.Second),
		DB:        gdb,
		Redis:     rdb,
		Log:       log,
		RateLimit: limit,
	})
	require.NoError(t, err)
	return &testServer{router: router, db: gdb, mr: mr}
}

func unlimited() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{Limit: 1000, Window: time.Minute, Block: time.Second}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t, unlimited())

	code, env := s.do(t, http.MethodPost, "/api/v1/user", gin.H{"email": "John.Doe@Example.com", "username": "JohnDoe"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.True(t, env.Success)
	user := decode(t, env.Data)
	assert.Equal(t, "johndoe", user["username"])
	assert.Equal(t, "john.doe@example.com", user["email"])
	id := user["id"].(string)

	code, env = s.do(t, http.MethodGet, "/api/v1/user/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "johndoe", decode(t, env.Data)["username"])

	code, env = s.do(t, http.MethodGet, "/api/v1/user/by-username/JOHNDOE", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, decode(t, env.Data)["id"])

	code, env = s.do(t, http.MethodGet, "/api/v1/user/by-email?email=JOHN.DOE@example.com", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, decode(t, env.Data)["id"])

	code, env = s.do(t, http.MethodGet, "/api/v1/user/by-email?email=ghost@example.com", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null", string(env.Data))

	code, env = s.do(t, http.MethodGet, "/api/v1/user/by-email", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email is required", env.Message)

	code, env = s.do(t, http.MethodGet, "/api/v1/user", nil)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	code, env = s.do(t, http.MethodGet, "/api/v1/user/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error)
}

func TestCreateUserRejections(t *testing.T) {
	s := newTestServer(t, unlimited())
	code, _ := s.do(t, http.MethodPost, "/api/v1/user", gin.H{"email": "alice@example.com", "username": "alice"})
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name    string
		body    any
		status  int
		errCode string
		message string
	}{
		{name: "malformed json", body: "{", status: http.StatusBadRequest, errCode: "VALIDATION_ERROR", message: "invalid request body"},
		{name: "missing fields", body: gin.H{}, status: http.StatusBadRequest, errCode: "VALIDATION_ERROR", message: "email is required, username is required"},
		{name: "bad email", body: gin.H{"email": "nope", "username": "bob"}, status: http.StatusBadRequest, errCode: "VALIDATION_ERROR", message: "email must be a valid email"},
		{name: "spam", body: gin.H{"email": "aaa123@x.com", "username": "bob"}, status: http.StatusBadRequest, errCode: "SPAM_REJECTED"},
		{name: "duplicate email", body: gin.H{"email": "ALICE@example.com", "username": "bob"}, status: http.StatusBadRequest, errCode: "CONFLICT"},
		{name: "duplicate username", body: gin.H{"email": "carol@example.com", "username": "Alice"}, status: http.StatusBadRequest, errCode: "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, "/api/v1/user", tt.body)
			assert.Equal(t, tt.status, code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.errCode, env.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestWalletEndpoints(t *testing.T) {
	s := newTestServer(t, unlimited())
	for _, name := range []string{"alice", "bob"} {
		code, _ := s.do(t, http.MethodPost, "/api/v1/user", gin.H{"email": name + "@example.com", "username": name})
		require.Equal(t, http.StatusCreated, code)
		code, env := s.do(t, http.MethodPost, "/api/v1/wallet", gin.H{"username": name})
		require.Equal(t, http.StatusCreated, code, env.Message)
		wallet := decode(t, env.Data)["wallet"].(map[string]any)
		assert.Equal(t, "USD", wallet["currency"])
		assert.Equal(t, "0", wallet["balance"])
	}

	code, env := s.do(t, http.MethodPost, "/api/v1/wallet", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "WALLET_ALREADY_EXISTS", env.Error)

	code, env = s.do(t, http.MethodPost, "/api/v1/wallet/fund", gin.H{"username": "alice", "amount": "100.50"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "wallet funded successfully", env.Message)
	assert.Equal(t, "100.5", decode(t, env.Data)["wallet"].(map[string]any)["balance"])

	code, env = s.do(t, http.MethodPost, "/api/v1/wallet/transfer",
		gin.H{"senderUsername": "Alice", "receiverUsername": "bob", "amount": "40.25"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "40.25 successfully transferred from alice to bob", env.Message)
	assert.Equal(t, "60.25", decode(t, env.Data)["senderWallet"].(map[string]any)["balance"])

	code, env = s.do(t, http.MethodGet, "/api/v1/wallet/bob", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "40.25", decode(t, env.Data)["wallet"].(map[string]any)["balance"])
}

func TestWalletEndpointRejections(t *testing.T) {
	s := newTestServer(t, unlimited())
	for _, name := range []string{"alice", "bob"} {
		code, _ := s.do(t, http.MethodPost, "/api/v1/user", gin.H{"email": name + "@example.com", "username": name})
		require.Equal(t, http.StatusCreated, code)
	}
	code, _ := s.do(t, http.MethodPost, "/api/v1/wallet", gin.H{"username": "alice"})
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name    string
		path    string
		body    any
		status  int
		errCode string
	}{
		{name: "fund zero", path: "/api/v1/wallet/fund", body: gin.H{"username": "alice", "amount": "0"}, status: http.StatusBadRequest, errCode: "INVALID_AMOUNT"},
		{name: "fund non numeric", path: "/api/v1/wallet/fund", body: gin.H{"username": "alice", "amount": "ten"}, status: http.StatusBadRequest, errCode: "INVALID_AMOUNT"},
		{name: "fund exponent", path: "/api/v1/wallet/fund", body: gin.H{"username": "alice", "amount": "1e3"}, status: http.StatusBadRequest, errCode: "INVALID_AMOUNT"},
		{name: "fund huge exponent", path: "/api/v1/wallet/fund", body: gin.H{"username": "alice", "amount": "1e100000000"}, status: http.StatusBadRequest, errCode: "INVALID_AMOUNT"},
		{name: "fund signed", path: "/api/v1/wallet/fund", body: gin.H{"username": "alice", "amount": "+5"}, status: http.StatusBadRequest, errCode: "INVALID_AMOUNT"},
		{name: "fund too wide", path: "/api/v1/wallet/fund", body: gin.H{"username": "alice", "amount": "1000000000000"}, status: http.StatusBadRequest, errCode: "INVALID_AMOUNT"},
		{name: "transfer exponent", path: "/api/v1/wallet/transfer", body: gin.H{"senderUsername": "alice", "receiverUsername": "bob", "amount": "1e3"}, status: http.StatusBadRequest, errCode: "INVALID_AMOUNT"},
		{name: "fund missing amount", path: "/api/v1/wallet/fund", body: gin.H{"username": "alice"}, status: http.StatusBadRequest, errCode: "VALIDATION_ERROR"},
		{name: "fund unknown user", path: "/api/v1/wallet/fund", body: gin.H{"username": "ghost", "amount": "1"}, status: http.StatusNotFound, errCode: "USER_NOT_FOUND"},
		{name: "fund missing wallet", path: "/api/v1/wallet/fund", body: gin.H{"username": "bob", "amount": "1"}, status: http.StatusNotFound, errCode: "WALLET_NOT_FOUND"},
		{name: "self transfer", path: "/api/v1/wallet/transfer", body: gin.H{"senderUsername": "bob", "receiverUsername": "BOB", "amount": "5"}, status: http.StatusBadRequest, errCode: "SELF_TRANSFER"},
		{name: "receiver without wallet", path: "/api/v1/wallet/transfer", body: gin.H{"senderUsername": "alice", "receiverUsername": "bob", "amount": "5"}, status: http.StatusNotFound, errCode: "WALLET_NOT_FOUND"},
		{name: "wallet bad currency", path: "/api/v1/wallet", body: gin.H{"username": "bob", "currency": "EUR"}, status: http.StatusBadRequest, errCode: "VALIDATION_ERROR"},
		{name: "wallet unknown user", path: "/api/v1/wallet", body: gin.H{"username": "ghost"}, status: http.StatusNotFound, errCode: "USER_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, code, env.Message)
			assert.Equal(t, tt.errCode, env.Error)
		})
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/wallet", gin.H{"username": "bob", "currency": "ngn"})
	require.Equal(t, http.StatusCreated, code)
	code, env := s.do(t, http.MethodPost, "/api/v1/wallet/transfer",
		gin.H{"senderUsername": "alice", "receiverUsername": "bob", "amount": "5"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", env.Error)
	assert.Equal(t, "insufficient balance. current balance: 0, required: 5", env.Message)
}

func TestStorageFailureIsGeneric(t *testing.T) {
	s := newTestServer(t, unlimited())
	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	code, env := s.do(t, http.MethodPost, "/api/v1/user", gin.H{"email": "alice@example.com", "username": "alice"})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "STORAGE_ERROR", env.Error)
	assert.NotContains(t, env.Message, "sql")
}

func TestRateLimitedRoutes(t *testing.T) {
	s := newTestServer(t, middleware.RateLimitConfig{Limit: 2, Window: 10 * time.Second, Block: 3 * time.Second})

	for i := 0; i < 2; i++ {
		code, _ := s.do(t, http.MethodGet, "/api/v1/user", nil)
		assert.Equal(t, http.StatusOK, code)
	}
	code, env := s.do(t, http.MethodGet, "/api/v1/user", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "too many requests... slow down", env.Message)

	// health checks are not rate limited
	code, _ = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, unlimited())

	code, env := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "up", decode(t, env.Data)["redis"])

	s.mr.Close()
	code, env = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "down", decode(t, env.Data)["redis"])
	assert.Equal(t, "up", decode(t, env.Data)["database"])
}
