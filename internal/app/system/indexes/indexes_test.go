package indexes_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/goalpeer/goalpeer/internal/app/system/indexes"
	"github.com/goalpeer/goalpeer/internal/testutil"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesUniquenessIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":                {"uniq_users_email", "idx_users_interests"},
		"interests":            {"uniq_interests_nameci"},
		"activity_memberships": {"uniq_membership_user_activity", "idx_membership_activity_role", "idx_membership_user"},
		"join_requests":        {"uniq_joinreq_pending", "idx_joinreq_activity_status"},
		"invitations":          {"uniq_invitation_pending", "idx_invitation_receiver_status"},
		"goals":                {"idx_goals_activity_enddate"},
		"proofs":               {"uniq_proof_user_goal", "idx_proofs_goal"},
		"proof_likes":          {"uniq_like_user_proof", "idx_likes_proof"},
		"progress":             {"uniq_progress_user_goal", "idx_progress_user_completedat"},
		"session_records":      {"idx_sessions_user", "ttl_sessions_expiresat"},
	}

	for coll, names := range expected {
		have := indexNames(t, db, coll)
		for _, name := range names {
			if !have[name] {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestPendingJoinRequestIndex_AllowsResolvedDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("join_requests")
	doc := bson.M{"user_id": "u1", "activity_id": "a1", "status": "PENDING"}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		t.Fatalf("first pending insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"user_id": "u1", "activity_id": "a1", "status": "PENDING"}); err == nil {
		t.Error("second pending request for the same (user, activity) should be rejected")
	}
	// Resolved rows are history and may repeat.
	if _, err := coll.InsertOne(ctx, bson.M{"user_id": "u1", "activity_id": "a1", "status": "REJECTED"}); err != nil {
		t.Errorf("resolved duplicate should be allowed: %v", err)
	}
}
