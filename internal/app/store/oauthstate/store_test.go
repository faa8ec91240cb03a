package oauthstate_test

import (
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/oauthstate"
	"github.com/dalemusser/circlehub/internal/testutil"
)

func TestStore_SaveConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Save(ctx, oauthstate.State{
		State:     "state-123",
		Verifier:  "verifier-abc",
		ReturnURL: "/home",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	st, ok, err := store.Consume(ctx, "state-123")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !ok {
		t.Fatal("expected state to be valid")
	}
	if st.Verifier != "verifier-abc" || st.ReturnURL != "/home" {
		t.Errorf("unexpected state: %+v", st)
	}
}

func TestStore_Consume_OneTimeUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Save(ctx, oauthstate.State{State: "once", ExpiresAt: time.Now().Add(time.Minute)})

	if _, ok, _ := store.Consume(ctx, "once"); !ok {
		t.Fatal("first Consume should succeed")
	}
	if _, ok, _ := store.Consume(ctx, "once"); ok {
		t.Error("second Consume should fail")
	}
}

func TestStore_Consume_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Save(ctx, oauthstate.State{State: "old", ExpiresAt: time.Now().Add(-time.Minute)})

	if _, ok, err := store.Consume(ctx, "old"); ok || err != nil {
		t.Errorf("Consume expired: got (%v, %v), want (false, nil)", ok, err)
	}

	n, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned: got %d, want 1", n)
	}
}

func TestStore_Consume_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, ok, err := store.Consume(ctx, "nope"); ok || err != nil {
		t.Errorf("Consume unknown: got (%v, %v), want (false, nil)", ok, err)
	}
}
