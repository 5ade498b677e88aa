// internal/app/store/joinrequests/joinrequeststore.go
package joinrequeststore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/goalpeer/goalpeer/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("join_requests")}
}

var (
	ErrNotFound         = errors.New("join request not found")
	ErrDuplicatePending = errors.New("a pending join request for this activity already exists")
	ErrNotPending       = errors.New("join request is already resolved")
)

// CreatePending inserts a new PENDING request. The partial unique index
// turns a concurrent duplicate into ErrDuplicatePending.
func (s *Store) CreatePending(ctx context.Context, userID, activityID primitive.ObjectID) (models.JoinRequest, error) {
	now := time.Now().UTC()
	req := models.JoinRequest{
		ID:         primitive.NewObjectID(),
		ActivityID: activityID,
		UserID:     userID,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, req); err != nil {
		if wafflemongo.IsDup(err) {
			return models.JoinRequest{}, ErrDuplicatePending
		}
		return models.JoinRequest{}, err
	}
	return req, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.JoinRequest, error) {
	var req models.JoinRequest
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.JoinRequest{}, ErrNotFound
	}
	return req, err
}

// FindPending returns the user's open request for one activity, if any.
func (s *Store) FindPending(ctx context.Context, userID, activityID primitive.ObjectID) (models.JoinRequest, error) {
	var req models.JoinRequest
	err := s.c.FindOne(ctx, bson.M{
		"user_id":     userID,
		"activity_id": activityID,
		"status":      models.StatusPending,
	}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.JoinRequest{}, ErrNotFound
	}
	return req, err
}

// ListPendingByActivity returns the open requests an admin reviews.
func (s *Store) ListPendingByActivity(ctx context.Context, activityID primitive.ObjectID) ([]models.JoinRequest, error) {
	cur, err := s.c.Find(ctx, bson.M{"activity_id": activityID, "status": models.StatusPending})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.JoinRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve moves a PENDING request into a terminal status. The filter
// includes the PENDING condition, so two concurrent resolutions cannot
// both succeed: the loser gets ErrNotPending.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, status string) error {
	if status != models.StatusApproved && status != models.StatusRejected {
		return errors.New("join request status must be APPROVED or REJECTED")
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish missing from already-resolved for the 404/409 split.
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrNotPending
	}
	return nil
}

// CancelPending deletes the user's own open request.
func (s *Store) CancelPending(ctx context.Context, userID, activityID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{
		"user_id":     userID,
		"activity_id": activityID,
		"status":      models.StatusPending,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByActivity removes all requests of an activity. Part of the
// activity-deletion cascade.
func (s *Store) DeleteByActivity(ctx context.Context, activityID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"activity_id": activityID})
	return err
}
