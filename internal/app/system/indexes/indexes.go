// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The unique indexes here are load-bearing: membership uniqueness, one
pending request or invitation per (user, activity), one proof per
(user, goal) and one like per (user, proof) are all enforced at the
database rather than by read-then-write races in handlers.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureInterests(ctx, db); err != nil {
		problems = append(problems, "interests: "+err.Error())
	}
	if err := ensureActivities(ctx, db); err != nil {
		problems = append(problems, "activities: "+err.Error())
	}
	if err := ensureMemberships(ctx, db); err != nil {
		problems = append(problems, "activity_memberships: "+err.Error())
	}
	if err := ensureJoinRequests(ctx, db); err != nil {
		problems = append(problems, "join_requests: "+err.Error())
	}
	if err := ensureInvitations(ctx, db); err != nil {
		problems = append(problems, "invitations: "+err.Error())
	}
	if err := ensureGoals(ctx, db); err != nil {
		problems = append(problems, "goals: "+err.Error())
	}
	if err := ensureProofs(ctx, db); err != nil {
		problems = append(problems, "proofs: "+err.Error())
	}
	if err := ensureProofLikes(ctx, db); err != nil {
		problems = append(problems, "proof_likes: "+err.Error())
	}
	if err := ensureProgress(ctx, db); err != nil {
		problems = append(problems, "progress: "+err.Error())
	}
	if err := ensureSessionRecords(ctx, db); err != nil {
		problems = append(problems, "session_records: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameUnique(a *bool, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	existing, err := listIndexes(ctx, coll)
	if err != nil {
		zap.L().Warn("listing indexes failed; will attempt blind creates",
			zap.String("collection", coll.Name()),
			zap.Error(err))
	}

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameUnique(desiredUnique, ex.Unique) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Radar lookups: find users sharing any interest.
		{
			Keys:    bson.D{{Key: "interest_ids", Value: 1}},
			Options: options.Index().SetName("idx_users_interests"),
		},
	})
}

func ensureInterests(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("interests")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_interests_nameci"),
		},
	})
}

func ensureActivities(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("activities")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Radar lookups: activities by interest tag.
		{
			Keys:    bson.D{{Key: "interest_ids", Value: 1}},
			Options: options.Index().SetName("idx_activities_interests"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_activities_nameci_id"),
		},
	})
}

func ensureMemberships(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("activity_memberships")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One membership per (user, activity): joins, invites and
		// approvals all race against this.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "activity_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_membership_user_activity"),
		},
		// Member lists and participant counts.
		{
			Keys:    bson.D{{Key: "activity_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_membership_activity_role"),
		},
		// "My activities" lists.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_membership_user"),
		},
	})
}

func ensureJoinRequests(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("join_requests")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// At most one open request per (user, activity); resolved rows
		// stay behind as history.
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "activity_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_joinreq_pending").
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "PENDING"}}),
		},
		{
			Keys:    bson.D{{Key: "activity_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_joinreq_activity_status"),
		},
	})
}

func ensureInvitations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("invitations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "activity_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_invitation_pending").
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "PENDING"}}),
		},
		{
			Keys:    bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_invitation_receiver_status"),
		},
		{
			Keys:    bson.D{{Key: "activity_id", Value: 1}},
			Options: options.Index().SetName("idx_invitation_activity"),
		},
	})
}

func ensureGoals(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("goals")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "activity_id", Value: 1}, {Key: "end_date", Value: 1}},
			Options: options.Index().SetName("idx_goals_activity_enddate"),
		},
	})
}

func ensureProofs(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("proofs")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One proof per participant per goal; resubmission replaces.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "goal_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_proof_user_goal"),
		},
		{
			Keys:    bson.D{{Key: "goal_id", Value: 1}},
			Options: options.Index().SetName("idx_proofs_goal"),
		},
	})
}

func ensureProofLikes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("proof_likes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One like per (user, proof); the toggle deletes and re-inserts.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "proof_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_like_user_proof"),
		},
		{
			Keys:    bson.D{{Key: "proof_id", Value: 1}},
			Options: options.Index().SetName("idx_likes_proof"),
		},
	})
}

func ensureProgress(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("progress")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "goal_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_progress_user_goal"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "completed_at", Value: -1}},
			Options: options.Index().SetName("idx_progress_user_completedat"),
		},
	})
}

func ensureSessionRecords(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("session_records")
	if err := ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_sessions_user"),
		},
	}); err != nil {
		return err
	}
	// TTL cleanup: stale presence rows disappear on their own, which is
	// what makes the radar "online" flag trustworthy.
	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("ttl_sessions_expiresat").SetExpireAfterSeconds(0),
	})
	if err != nil && !strings.Contains(err.Error(), "IndexOptionsConflict") {
		return err
	}
	return nil
}
