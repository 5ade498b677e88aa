package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/goalpeer/goalpeer/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a test user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Email:      email,
		AuthMethod: "password",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateInterest inserts one interest catalog entry.
func (f *Fixtures) CreateInterest(ctx context.Context, name, icon string) models.Interest {
	f.t.Helper()

	interest := models.Interest{
		ID:     primitive.NewObjectID(),
		Name:   name,
		NameCI: text.Fold(name),
		Icon:   icon,
	}
	if _, err := f.db.Collection("interests").InsertOne(ctx, interest); err != nil {
		f.t.Fatalf("failed to create test interest: %v", err)
	}
	return interest
}

// CreateActivity inserts an activity and an OWNER membership for ownerID.
func (f *Fixtures) CreateActivity(ctx context.Context, name string, ownerID primitive.ObjectID) models.Activity {
	f.t.Helper()

	now := time.Now().UTC()
	activity := models.Activity{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("activities").InsertOne(ctx, activity); err != nil {
		f.t.Fatalf("failed to create test activity: %v", err)
	}
	f.CreateMembership(ctx, ownerID, activity.ID, models.RoleOwner)
	return activity
}

// CreateMembership inserts one membership row.
func (f *Fixtures) CreateMembership(ctx context.Context, userID, activityID primitive.ObjectID, role models.Role) models.Membership {
	f.t.Helper()

	m := models.Membership{
		ID:         primitive.NewObjectID(),
		ActivityID: activityID,
		UserID:     userID,
		Role:       role,
		JoinedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("activity_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateGoal inserts a goal with the given window.
func (f *Fixtures) CreateGoal(ctx context.Context, activityID primitive.ObjectID, title string, start, end time.Time) models.Goal {
	f.t.Helper()

	now := time.Now().UTC()
	goal := models.Goal{
		ID:         primitive.NewObjectID(),
		ActivityID: activityID,
		Title:      title,
		StartDate:  start,
		EndDate:    end,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("goals").InsertOne(ctx, goal); err != nil {
		f.t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateActiveGoal inserts a goal whose window spans today.
func (f *Fixtures) CreateActiveGoal(ctx context.Context, activityID primitive.ObjectID, title string) models.Goal {
	f.t.Helper()
	now := time.Now().UTC()
	return f.CreateGoal(ctx, activityID, title, now.Add(-24*time.Hour), now.Add(7*24*time.Hour))
}

// CreateJoinRequest inserts a join request in the given status.
func (f *Fixtures) CreateJoinRequest(ctx context.Context, userID, activityID primitive.ObjectID, status string) models.JoinRequest {
	f.t.Helper()

	now := time.Now().UTC()
	req := models.JoinRequest{
		ID:         primitive.NewObjectID(),
		ActivityID: activityID,
		UserID:     userID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("join_requests").InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create test join request: %v", err)
	}
	return req
}

// CreateInvitation inserts an invitation in the given status.
func (f *Fixtures) CreateInvitation(ctx context.Context, senderID, receiverID, activityID primitive.ObjectID, status string) models.Invitation {
	f.t.Helper()

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:         primitive.NewObjectID(),
		ActivityID: activityID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("invitations").InsertOne(ctx, inv); err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}
	return inv
}

// CreateProof inserts a proof document (no backing image file).
func (f *Fixtures) CreateProof(ctx context.Context, userID, goalID primitive.ObjectID) models.Proof {
	f.t.Helper()

	proof := models.Proof{
		ID:          primitive.NewObjectID(),
		GoalID:      goalID,
		UserID:      userID,
		ImagePath:   "proofs/" + primitive.NewObjectID().Hex() + ".jpg",
		ContentType: "image/jpeg",
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("proofs").InsertOne(ctx, proof); err != nil {
		f.t.Fatalf("failed to create test proof: %v", err)
	}
	return proof
}

// CreateLike inserts one like on a proof.
func (f *Fixtures) CreateLike(ctx context.Context, userID, proofID primitive.ObjectID) models.Like {
	f.t.Helper()

	like := models.Like{
		ID:        primitive.NewObjectID(),
		ProofID:   proofID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("proof_likes").InsertOne(ctx, like); err != nil {
		f.t.Fatalf("failed to create test like: %v", err)
	}
	return like
}

// CreateProgress inserts a progress row for (user, goal).
func (f *Fixtures) CreateProgress(ctx context.Context, userID, goalID primitive.ObjectID, completed bool) models.Progress {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Progress{
		ID:          primitive.NewObjectID(),
		GoalID:      goalID,
		UserID:      userID,
		IsCompleted: completed,
		UpdatedAt:   now,
	}
	if completed {
		p.CompletedAt = &now
	}
	if _, err := f.db.Collection("progress").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test progress: %v", err)
	}
	return p
}
