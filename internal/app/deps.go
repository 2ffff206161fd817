package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/diasporalink/backend/internal/auth"
	"github.com/diasporalink/backend/internal/config"
	"github.com/diasporalink/backend/internal/content"
	"github.com/diasporalink/backend/internal/db"
	"github.com/diasporalink/backend/internal/handlers"
	"github.com/diasporalink/backend/internal/metrics"
	"github.com/diasporalink/backend/internal/models"
	"github.com/diasporalink/backend/internal/ratelimit"
	"github.com/diasporalink/backend/internal/registration"
	"github.com/diasporalink/backend/internal/repositories"
	"github.com/diasporalink/backend/internal/storage"
)

// backends holds the external connections the service was configured with.
// Exactly one of pool and mongo is set; redis is nil for the memory limiter.
type backends struct {
	pool  db.Pool
	mongo *mongo.Database
	redis *redis.Client
}

// openBackends connects to the configured store and limiter backends.
func openBackends(ctx context.Context, cfg config.Config) (backends, func(), error) {
	var b backends

	switch cfg.Store {
	case config.StoreMongo:
		database, err := db.ConnectMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return backends{}, nil, err
		}
		b.mongo = database
	default:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return backends{}, nil, err
		}
		b.pool = pool
	}

	if cfg.RateLimit.Backend == config.LimiterRedis {
		client, err := newRedisClient(cfg.RateLimit.RedisURL)
		if err != nil {
			b.close()
			return backends{}, nil, err
		}
		b.redis = client
	}

	return b, b.close, nil
}

func (b backends) close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.mongo.Client().Disconnect(ctx)
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

func newRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, b backends, cfg config.Config, m *metrics.Metrics) (handlers.Dependencies, error) {
	if b.pool == nil && b.mongo == nil {
		return handlers.Dependencies{}, errors.New("no document store configured")
	}

	general, signup := buildLimiters(b, cfg)

	var (
		registrations repositories.RegistrationRepository
		sessionStore  auth.SessionStore
	)
	if b.pool != nil {
		registrations = repositories.NewPostgresRegistrationRepository(b.pool)
		sessionStore = repositories.NewPostgresSessionStore(b.pool)
	} else {
		registrations = repositories.NewMongoRegistrationRepository(b.mongo)
		sessionStore = auth.NewInMemorySessionStore()
	}

	deps := handlers.Dependencies{
		Registrations:     registration.NewService(signup, registrations, registration.WithRecorder(m)),
		RegistrationAdmin: registrations,
		Sessions:          auth.NewManager(cfg.Admin.PasswordHash, cfg.Admin.AccessTTL, cfg.Admin.RefreshTTL, sessionStore),
		Blog:              newContentService[models.BlogPost]("blog", "blog_posts", b, cfg.Content.CacheTTL),
		Events:            newContentService[models.Event]("events", "events", b, cfg.Content.CacheTTL),
		Partners:          newContentService[models.Partner]("partners", "partners", b, cfg.Content.CacheTTL),
		GeneralLimiter:    general,
		Rejections:        m,
		Health:            healthChecks(b),
		Metrics:           m.Handler(),
	}

	if cfg.ObjectStore.Bucket != "" {
		media, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, err
		}
		deps.Media = media
	}

	return deps, nil
}

func buildLimiters(b backends, cfg config.Config) (general, signup ratelimit.Limiter) {
	generalPolicy := ratelimit.Policy{MaxRequests: cfg.RateLimit.MaxRequests, Window: cfg.RateLimit.Window}
	registrationPolicy := ratelimit.Policy{MaxRequests: cfg.RateLimit.RegistrationMaxRequests, Window: cfg.RateLimit.RegistrationWindow}

	if b.redis != nil {
		return ratelimit.NewRedisFixedWindow(b.redis, "general", generalPolicy),
			ratelimit.NewRedisFixedWindow(b.redis, "registration", registrationPolicy)
	}
	return ratelimit.NewFixedWindow(generalPolicy), ratelimit.NewFixedWindow(registrationPolicy)
}

func newContentService[T any, P content.Doc[T]](kind, collection string, b backends, ttl time.Duration) *content.Service[T, P] {
	var store content.Store[T]
	if b.pool != nil {
		store = repositories.NewPostgresDocumentRepository[T, P](b.pool, collection)
	} else {
		store = repositories.NewMongoDocumentRepository[T, P](b.mongo, collection)
	}
	return content.NewService[T, P](kind, store, ttl)
}

func healthChecks(b backends) map[string]handlers.HealthCheck {
	checks := make(map[string]handlers.HealthCheck)
	if b.pool != nil {
		checks["postgres"] = func(ctx context.Context) error {
			conn, err := b.pool.Acquire(ctx)
			if err != nil {
				return err
			}
			defer conn.Release()
			return conn.Ping(ctx)
		}
	}
	if b.mongo != nil {
		checks["mongo"] = func(ctx context.Context) error {
			return b.mongo.Client().Ping(ctx, readpref.Primary())
		}
	}
	if b.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return b.redis.Ping(ctx).Err()
		}
	}
	return checks
}
