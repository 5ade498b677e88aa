// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/system/seed"
)

// Startup runs one-time initialization after DB connections and schema
// setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SeedInterests {
		if err := seed.EnsureInterests(ctx, deps.MongoDatabase, logger); err != nil {
			return err
		}
	}
	return nil
}
