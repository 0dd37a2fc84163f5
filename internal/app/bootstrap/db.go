// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/validators"
	"github.com/dalemusser/clubhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB (and Redis when configured) and builds the
// process-wide realtime hub.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	cctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Hub:           realtime.NewHub(logger),
	}

	if appCfg.RedisURL != "" {
		rdb, err := realtime.NewRedisClient(cctx, realtime.RedisConfig{
			URL:      appCfg.RedisURL,
			PoolSize: appCfg.RedisPoolSize,
		})
		if err != nil {
			_ = client.Disconnect(context.Background())
			deps.Hub.Close()
			logger.Error("Redis connect failed", zap.Error(err))
			return DBDeps{}, err
		}
		deps.Redis = rdb
		deps.Relay = realtime.NewRedisRelay(rdb, appCfg.RedisChannel, deps.Hub, logger)
		logger.Info("connected to Redis")
	}

	deps.StateCleanup = workers.NewStateCleanup(oauthstate.New(deps.MongoDatabase), logger, appCfg.OAuthStateCleanupInterval)
	if appCfg.RateLimitLogin > 0 {
		deps.LoginLimiter = ratelimit.New(appCfg.RateLimitLogin, time.Minute)
	}
	if appCfg.RateLimitComms > 0 {
		deps.CommsLimiter = ratelimit.New(appCfg.RateLimitComms, time.Minute)
	}
	return deps, nil
}

// EnsureSchema applies the collection validators and indexes. Both are
// idempotent and run on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}
