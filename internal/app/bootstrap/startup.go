// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/oauthstate"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

const stateCleanupInterval = 5 * time.Minute

// stateCleanup is started in Startup and stopped in Shutdown.
var stateCleanup *workers.StateCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:    appCfg.TimeoutShort,
		Medium:   appCfg.TimeoutMedium,
		Long:     appCfg.TimeoutLong,
		Upstream: appCfg.TimeoutUpstream,
	})
	cur := timeouts.Current()
	logger.Info("timeouts configured",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long),
		zap.Duration("upstream", cur.Upstream))

	// Clear states left over from before a restart, then keep clearing.
	stateCleanup = workers.NewStateCleanup(oauthstate.New(deps.MongoDatabase), logger, stateCleanupInterval)
	stateCleanup.RunOnce(ctx)
	stateCleanup.Start()
	return nil
}
