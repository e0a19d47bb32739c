package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

func memoryConfig() *config.Config {
	return &config.Config{
		StoreDriver:         config.StoreDriverMemory,
		HTTPPort:            "0",
		HTTPShutdownTimeout: time.Second,
		RateLimitRPS:        1000,
		RateLimitBurst:      1000,
		IdempotencyTTL:      time.Minute,
		IBANPrefix:          "CI",
	}
}

func testMetrics() *metrics.Metrics {
	return metrics.NewWithRegisterer(prometheus.NewRegistry())
}

func TestNewApp_MemoryStore(t *testing.T) {
	a, err := newApp(context.Background(), memoryConfig(), zerolog.Nop(), testMetrics())
	require.NoError(t, err)
	defer a.close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(`{"name":"Main","currency":"EURO","bic":"BICCI001"}`))
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"iban":"CI`)
}

func TestNewApp_AuthEnabledRequiresToken(t *testing.T) {
	cfg := memoryConfig()
	cfg.AuthEnabled = true
	cfg.JWTSecret = "secret"
	cfg.JWTExpiration = time.Hour

	a, err := newApp(context.Background(), cfg, zerolog.Nop(), testMetrics())
	require.NoError(t, err)
	defer a.close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewApp_AuthRoutesAndAdminBootstrap(t *testing.T) {
	cfg := memoryConfig()
	cfg.AuthEnabled = true
	cfg.JWTSecret = "secret"
	cfg.JWTExpiration = time.Hour
	cfg.PasswordCost = 4
	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPassword = "AdminPass1"

	a, err := newApp(context.Background(), cfg, zerolog.Nop(), testMetrics())
	require.NoError(t, err)
	defer a.close()

	post := func(path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post("/api/v1/auth/signup", `{"name":"Alice","email":"alice@example.com","password":"StrongPass1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = post("/api/v1/auth/login", `{"email":"admin@example.com","password":"AdminPass1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = post("/api/v1/accounts/", `{"name":"Main","currency":"EURO","bic":"BICCI001"}`, login.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"ownerId"`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalRecords":2`)
}

func TestNewApp_WithRedis(t *testing.T) {
	s := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.RedisEnabled = true
	cfg.RedisURL = fmt.Sprintf("redis://%s", s.Addr())

	a, err := newApp(context.Background(), cfg, zerolog.Nop(), testMetrics())
	require.NoError(t, err)
	defer a.close()

	body := `{"name":"Main","currency":"EURO","bic":"BICCI001"}`
	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "k1")
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil))
	assert.Contains(t, rec.Body.String(), `"totalRecords":1`)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisEnabled = true
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := newApp(context.Background(), cfg, zerolog.Nop(), testMetrics())
	assert.Error(t, err)
}

func TestNewApp_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreDriver = "sqlite"

	_, err := newApp(context.Background(), cfg, zerolog.Nop(), testMetrics())
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := memoryConfig()
	cfg.HTTPPort = fmt.Sprint(port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, zerolog.Nop(), testMetrics()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
