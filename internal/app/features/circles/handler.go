// internal/app/features/circles/handler.go
package circles

import (
	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/app/system/activecircle"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves circle management and the circle-scoped event list.
type Handler struct {
	Coord   *core.Coordinator
	Circles *core.CircleLoader
	Events  *core.EventLoader
	Active  *activecircle.Store
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, active *activecircle.Store, logger *zap.Logger) *Handler {
	st := core.NewStores(db)
	return &Handler{
		Coord:   core.NewCoordinator(st, logger),
		Circles: core.NewCircleLoader(st, logger),
		Events:  core.NewEventLoader(st, logger),
		Active:  active,
		Log:     logger,
	}
}
