// internal/app/store/invitations/invitationstore.go
package invitationstore

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
	return &Store{c: db.Collection("invitations")}
}

var (
	ErrNotFound         = errors.New("invitation not found")
	ErrDuplicatePending = errors.New("a pending invitation for this user already exists")
	ErrNotPending       = errors.New("invitation is already resolved")
)

// CreatePending inserts a new PENDING invitation. The partial unique
// index turns a concurrent duplicate into ErrDuplicatePending.
func (s *Store) CreatePending(ctx context.Context, senderID, receiverID, activityID primitive.ObjectID) (models.Invitation, error) {
	now := time.Now().UTC()
	inv := models.Invitation{
		ID:         primitive.NewObjectID(),
		ActivityID: activityID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Invitation{}, ErrDuplicatePending
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Invitation{}, ErrNotFound
	}
	return inv, err
}

// ListPendingByReceiver returns the invitations awaiting the user's
// answer.
func (s *Store) ListPendingByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]models.Invitation, error) {
	cur, err := s.c.Find(ctx, bson.M{"receiver_id": receiverID, "status": models.StatusPending})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Invitation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPendingByActivity returns the activity's outstanding invitations.
func (s *Store) ListPendingByActivity(ctx context.Context, activityID primitive.ObjectID) ([]models.Invitation, error) {
	cur, err := s.c.Find(ctx, bson.M{"activity_id": activityID, "status": models.StatusPending})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Invitation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve moves a PENDING invitation into ACCEPTED or REJECTED. Same
// conditional-update race discipline as join requests.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, status string) error {
	if status != models.StatusAccepted && status != models.StatusRejected {
		return errors.New("invitation status must be ACCEPTED or REJECTED")
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
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

// CancelPending deletes an open invitation; used by the sending side.
func (s *Store) CancelPending(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "status": models.StatusPending})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByActivity removes all invitations of an activity. Part of the
// activity-deletion cascade.
func (s *Store) DeleteByActivity(ctx context.Context, activityID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"activity_id": activityID})
	return err
}
