// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/store/oauthstate"
	"github.com/goalpeer/goalpeer/internal/app/system/cache"
	"github.com/goalpeer/goalpeer/internal/app/system/contentgen"
	"github.com/goalpeer/goalpeer/internal/app/system/indexes"
	"github.com/goalpeer/goalpeer/internal/app/system/timeouts"
)

// ConnectDB dials MongoDB and builds the remaining backends: the Redis
// cache, the Gemini content generator, and the proof image store. Cache
// and generator are optional; their config being blank leaves them nil
// and the features degrade gracefully.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	dialCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.RedisURL != "" {
		c, err := cache.New(ctx, appCfg.RedisURL, logger)
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			deps.Cache = c
		}
	}

	if appCfg.GeminiAPIKey != "" {
		gen, err := contentgen.New(ctx, appCfg.GeminiAPIKey, logger)
		if err != nil {
			logger.Warn("content generator unavailable, AI assistance disabled", zap.Error(err))
		} else {
			deps.Gen = gen
		}
	}

	store, err := storage.NewLocal(storage.LocalConfig{
		BasePath: appCfg.StorageLocalPath,
		BaseURL:  appCfg.StorageLocalURL,
	})
	if err != nil {
		return DBDeps{}, fmt.Errorf("local storage: %w", err)
	}
	deps.Storage = store

	return deps, nil
}

// EnsureSchema creates the unique and query indexes every collection
// relies on, plus the TTL index on OAuth state handshake records.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := oauthstate.New(deps.MongoDatabase).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure oauth state indexes: %w", err)
	}
	logger.Info("database indexes ensured")
	return nil
}
