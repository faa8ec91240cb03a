package core_test

import (
	"testing"

	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type services struct {
	db       *mongo.Database
	fx       *testutil.Fixtures
	resolver *core.MembershipResolver
	circles  *core.CircleLoader
	events   *core.EventLoader
	coord    *core.Coordinator
}

func newServices(t *testing.T) services {
	t.Helper()
	db := testutil.SetupTestDB(t)
	st := core.NewStores(db)
	log := zap.NewNop()
	return services{
		db:       db,
		fx:       testutil.NewFixtures(t, db),
		resolver: core.NewMembershipResolver(st, log),
		circles:  core.NewCircleLoader(st, log),
		events:   core.NewEventLoader(st, log),
		coord:    core.NewCoordinator(st, log),
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind: got %v, want %v (%v)", got, kind, err)
	}
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if got := apperr.CodeOf(err); got != code {
		t.Fatalf("error code: got %q, want %q (%v)", got, code, err)
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
