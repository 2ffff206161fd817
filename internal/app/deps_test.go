package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/diasporalink/backend/internal/config"
	"github.com/diasporalink/backend/internal/logging"
	"github.com/diasporalink/backend/internal/metrics"
	"github.com/diasporalink/backend/internal/ratelimit"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		AppPort: 8080,
		Store:   config.StorePostgres,
		RateLimit: config.RateLimitConfig{
			Backend:                 config.LimiterMemory,
			RedisURL:                "redis://localhost:6379/0",
			MaxRequests:             10,
			Window:                  15 * time.Minute,
			RegistrationMaxRequests: 5,
			RegistrationWindow:      15 * time.Minute,
			ThrottleRPS:             50,
			ThrottleBurst:           100,
		},
		Admin:   config.AdminConfig{AccessTTL: time.Minute, RefreshTTL: time.Hour},
		Content: config.ContentConfig{CacheTTL: time.Minute},
	}
}

func TestBuildDependencies(t *testing.T) {
	deps, err := buildDependencies(context.Background(), backends{pool: fakePool{}}, testConfig(), metrics.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Registrations == nil || deps.RegistrationAdmin == nil {
		t.Fatal("expected registration service and store to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Blog == nil || deps.Events == nil || deps.Partners == nil {
		t.Fatal("expected content services to be configured")
	}
	if _, ok := deps.GeneralLimiter.(*ratelimit.FixedWindow); !ok {
		t.Fatalf("expected in-memory limiter got %T", deps.GeneralLimiter)
	}
	if deps.Media != nil {
		t.Fatal("expected media uploads disabled without a bucket")
	}
	if _, ok := deps.Health["postgres"]; !ok || len(deps.Health) != 1 {
		t.Fatalf("unexpected health checks %v", deps.Health)
	}
	if deps.Metrics == nil {
		t.Fatal("expected metrics handler")
	}
}

func TestBuildDependenciesRedisAndMedia(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Backend = config.LimiterRedis
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "media", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	client, err := newRedisClient(cfg.RateLimit.RedisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	b := backends{pool: fakePool{}, redis: client}
	defer b.close()

	deps, err := buildDependencies(context.Background(), b, cfg, metrics.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := deps.GeneralLimiter.(*ratelimit.RedisFixedWindow); !ok {
		t.Fatalf("expected redis limiter got %T", deps.GeneralLimiter)
	}
	if deps.Media == nil {
		t.Fatal("expected media storage to be configured")
	}
	if _, ok := deps.Health["redis"]; !ok {
		t.Fatalf("expected redis health check got %v", deps.Health)
	}
}

func TestBuildDependenciesMongo(t *testing.T) {
	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://localhost:27017"))
	if err != nil {
		t.Fatalf("mongo client: %v", err)
	}
	b := backends{mongo: client.Database("diaspora_test")}
	defer b.close()

	deps, err := buildDependencies(context.Background(), b, testConfig(), metrics.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps.RegistrationAdmin == nil || deps.Partners == nil {
		t.Fatal("expected mongo-backed stores to be configured")
	}
	if _, ok := deps.Health["mongo"]; !ok || len(deps.Health) != 1 {
		t.Fatalf("unexpected health checks %v", deps.Health)
	}
}

func TestBuildDependenciesRequiresStore(t *testing.T) {
	if _, err := buildDependencies(context.Background(), backends{}, testConfig(), metrics.New()); err == nil {
		t.Fatal("expected error without a store")
	}
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	if _, err := newRedisClient("http://not-redis"); err == nil {
		t.Fatal("expected error for non-redis url")
	}
}

func TestNewHandlerStack(t *testing.T) {
	m := metrics.New()
	cfg := testConfig()
	deps, err := buildDependencies(context.Background(), backends{pool: fakePool{}}, cfg, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handler := newHandler(logging.New(io.Discard, "error"), m, cfg, deps)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected degraded health with unreachable database got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/registrations", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected admin route to require a token got %d", rec.Code)
	}
}
