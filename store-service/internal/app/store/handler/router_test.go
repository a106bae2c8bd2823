package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/store-service/internal/app/store/config"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// dirResolver отдаёт файлы из временной директории
type dirResolver string

func (d dirResolver) Exists(name string) (string, bool) {
	path := filepath.Join(string(d), name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

type routerDeps struct {
	product *MockProductService
	catalog *MockCatalogService
	order   *MockOrderService
	wallet  *MockWalletService
	stats   *MockStatsService
	router  *gin.Engine
}

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Development: false},
		JWT:    config.JWTConfig{Secret: testJWTSecret, AdminRole: "admin"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000", "https://shop.example.com"}},
		Upload: config.UploadConfig{MaxMultipartMemory: 1 << 20},
	}
}

func newRouterDeps(t *testing.T, cfg *config.Config, mediaDir string) routerDeps {
	t.Helper()
	deps := routerDeps{
		product: new(MockProductService),
		catalog: new(MockCatalogService),
		order:   new(MockOrderService),
		wallet:  new(MockWalletService),
		stats:   new(MockStatsService),
	}
	handlers := Handlers{
		Product: NewProductHandler(deps.product, new(MockMediaSaver)),
		Catalog: NewCatalogHandler(deps.catalog),
		Order:   NewOrderHandler(deps.order),
		Wallet:  NewWalletHandler(deps.wallet),
		Admin:   NewAdminHandler(deps.stats),
	}
	limiter := ratelimit.NewLimiter(nil, time.Minute, false)
	deps.router = SetupRoutes(cfg, handlers, NewAuthMiddleware(cfg.JWT.Secret), limiter, dirResolver(mediaDir))
	return deps
}

func TestRouter_Health(t *testing.T) {
	deps := newRouterDeps(t, newTestConfig(), t.TempDir())

	rec := performRequest(deps.router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body["requestId"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	deps := newRouterDeps(t, newTestConfig(), t.TempDir())

	rec := performRequest(deps.router, http.MethodGet, "/api/unknown", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body entity.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Route not found", body.Error)
	assert.NotEmpty(t, body.RequestID)
}

func TestRouter_ServesUploadedMedia(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1700000000000-photo.png"), []byte("png-bytes"), 0o644))
	deps := newRouterDeps(t, newTestConfig(), dir)

	rec := performRequest(deps.router, http.MethodGet, "/1700000000000-photo.png", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouter_PublicCatalogReads(t *testing.T) {
	deps := newRouterDeps(t, newTestConfig(), t.TempDir())
	deps.catalog.On("GetAllCategories", mock.Anything).Return([]entity.Category{{ID: uuid.New(), Name: "Phones"}}, nil)

	rec := performRequest(deps.router, http.MethodGet, "/api/categories", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Phones")
}

func TestRouter_WritesRequireAdmin(t *testing.T) {
	deps := newRouterDeps(t, newTestConfig(), t.TempDir())
	id := uuid.New().String()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"create product anonymous", http.MethodPost, "/api/products", "", http.StatusUnauthorized},
		{"delete product as user", http.MethodDelete, "/api/products/" + id, signToken(t, testJWTSecret, uuid.New(), "user", time.Hour), http.StatusForbidden},
		{"delete category anonymous", http.MethodDelete, "/api/categories/" + id, "", http.StatusUnauthorized},
		{"delete merchant as user", http.MethodDelete, "/api/merchants/" + id, signToken(t, testJWTSecret, uuid.New(), "user", time.Hour), http.StatusForbidden},
		{"admin stats anonymous", http.MethodGet, "/api/admin/stats", "", http.StatusUnauthorized},
		{"wallet stats as user", http.MethodGet, "/api/wallet/stats", signToken(t, testJWTSecret, uuid.New(), "user", time.Hour), http.StatusForbidden},
		{"list orders anonymous", http.MethodGet, "/api/orders", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := performRequest(deps.router, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	deps.product.AssertNotCalled(t, "DeleteProduct", mock.Anything, mock.Anything)
	deps.catalog.AssertNotCalled(t, "DeleteMerchant", mock.Anything, mock.Anything)
}

func TestRouter_AdminDeletesProduct(t *testing.T) {
	deps := newRouterDeps(t, newTestConfig(), t.TempDir())
	id := uuid.New()
	deps.product.On("DeleteProduct", mock.Anything, id).Return(nil)

	rec := performRequest(deps.router, http.MethodDelete, "/api/products/"+id.String(),
		signToken(t, testJWTSecret, uuid.New(), "admin", time.Hour))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	deps.product.AssertExpectations(t)
}

func TestRouter_WalletBalanceOwnerOnly(t *testing.T) {
	deps := newRouterDeps(t, newTestConfig(), t.TempDir())
	owner := uuid.New()
	deps.wallet.On("GetBalance", mock.Anything, owner).
		Return(&entity.WalletBalanceResponse{Balance: 100, Currency: "INR"}, nil)

	rec := performRequest(deps.router, http.MethodGet, "/api/wallet/balance/"+owner.String(),
		signToken(t, testJWTSecret, owner, "user", time.Hour))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(deps.router, http.MethodGet, "/api/wallet/balance/"+owner.String(),
		signToken(t, testJWTSecret, uuid.New(), "user", time.Hour))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	deps.wallet.AssertNumberOfCalls(t, "GetBalance", 1)
}

func TestRouter_CORS(t *testing.T) {
	tests := []struct {
		name        string
		development bool
		origin      string
		allowed     bool
	}{
		{"allow-listed frontend", false, "https://shop.example.com", true},
		{"foreign origin", false, "https://evil.example.com", false},
		{"any localhost in development", true, "http://localhost:5173", true},
		{"localhost port outside development", false, "http://localhost:5173", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.Server.Development = tt.development
			deps := newRouterDeps(t, cfg, t.TempDir())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			deps.router.ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Equal(t, http.StatusForbidden, rec.Code)
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func newLimitedRouter(t *testing.T, trustedProxies []string) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := newTestConfig()
	cfg.Server.TrustedProxies = trustedProxies
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Window: time.Minute, General: 1}

	handlers := Handlers{
		Product: NewProductHandler(new(MockProductService), new(MockMediaSaver)),
		Catalog: NewCatalogHandler(new(MockCatalogService)),
		Order:   NewOrderHandler(new(MockOrderService)),
		Wallet:  NewWalletHandler(new(MockWalletService)),
		Admin:   NewAdminHandler(new(MockStatsService)),
	}
	limiter := ratelimit.NewLimiter(client, cfg.RateLimit.Window, true)
	return SetupRoutes(cfg, handlers, NewAuthMiddleware(cfg.JWT.Secret), limiter, dirResolver(t.TempDir()))
}

func sendFrom(router *gin.Engine, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/products/bad", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouter_RateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	router := newLimitedRouter(t, nil)

	codes := make([]int, 0, 4)
	for i := 1; i <= 4; i++ {
		codes = append(codes, sendFrom(router, "10.0.0.1:40000", fmt.Sprintf("203.0.113.%d", i)))
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRouter_RateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	router := newLimitedRouter(t, []string{"10.0.0.1"})

	assert.Equal(t, http.StatusBadRequest, sendFrom(router, "10.0.0.1:40000", "203.0.113.1"))
	assert.Equal(t, http.StatusBadRequest, sendFrom(router, "10.0.0.1:40000", "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(router, "10.0.0.1:40000", "203.0.113.1"))
}
