// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/goalpeer/goalpeer/internal/app/system/cache"
	"github.com/goalpeer/goalpeer/internal/app/system/contentgen"
)

// DBDeps holds database and backend dependencies for the app. Everything
// here is created in ConnectDB and torn down in Shutdown.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Cache is nil-safe: a disabled cache misses on every read.
	Cache *cache.Cache

	// Gen is nil when no Gemini API key is configured; activity creation
	// then skips description drafts and interest suggestions.
	Gen *contentgen.Generator

	// Storage holds proof images.
	Storage storage.Store
}
