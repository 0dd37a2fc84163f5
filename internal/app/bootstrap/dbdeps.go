// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when redis_url is blank.
	Redis *redis.Client

	// Hub fans change events out to stream subscribers in this process.
	// Relay, when Redis is configured, carries them between processes.
	Hub   *realtime.Hub
	Relay *realtime.RedisRelay

	StateCleanup *workers.StateCleanup

	// Request limiters; nil when disabled.
	LoginLimiter *ratelimit.Limiter
	CommsLimiter *ratelimit.Limiter
}

// Publisher returns where handlers send change events.
func (d DBDeps) Publisher() realtime.Publisher {
	if d.Relay != nil {
		return d.Relay
	}
	if d.Hub != nil {
		return d.Hub
	}
	return realtime.Nop{}
}
