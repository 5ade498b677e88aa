package oauthstate_test

import (
	"testing"
	"time"

	"github.com/goalpeer/goalpeer/internal/app/store/oauthstate"
	"github.com/goalpeer/goalpeer/internal/testutil"
)

func TestValidate_OneTimeUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := oauthstate.New(db)
	if err := s.Save(ctx, "state-token", "/radar", time.Now().UTC().Add(10*time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	returnURL, valid, err := s.Validate(ctx, "state-token")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid || returnURL != "/radar" {
		t.Errorf("Validate = (%q, %v), want (/radar, true)", returnURL, valid)
	}

	// Consumed on first use.
	_, valid, err = s.Validate(ctx, "state-token")
	if err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if valid {
		t.Error("state token was reusable")
	}
}

func TestValidate_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := oauthstate.New(db)
	if err := s.Save(ctx, "stale-token", "", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, valid, err := s.Validate(ctx, "stale-token")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid {
		t.Error("expired state validated")
	}
}
