// internal/app/store/memberships/membershipstore.go
package membershipstore

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
	return &Store{c: db.Collection("activity_memberships")}
}

var (
	ErrNotFound            = errors.New("membership not found")
	ErrDuplicateMembership = errors.New("user is already a participant of this activity")
	errBadRole             = errors.New("unknown membership role")
)

// Add creates a membership. The (user, activity) pair is unique; a
// concurrent duplicate insert surfaces as ErrDuplicateMembership.
func (s *Store) Add(ctx context.Context, userID, activityID primitive.ObjectID, role models.Role) error {
	if !role.Valid() {
		return errBadRole
	}

	doc := bson.M{
		"user_id":     userID,
		"activity_id": activityID,
		"role":        role,
		"joined_at":   time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, doc)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Get returns the membership for (userID, activityID).
func (s *Store) Get(ctx context.Context, userID, activityID primitive.ObjectID) (models.Membership, error) {
	var m models.Membership
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "activity_id": activityID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Membership{}, ErrNotFound
	}
	return m, err
}

// Remove deletes the membership document for (userID, activityID).
func (s *Store) Remove(ctx context.Context, userID, activityID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "activity_id": activityID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole changes the member's role in place.
func (s *Store) SetRole(ctx context.Context, userID, activityID primitive.ObjectID, role models.Role) error {
	if !role.Valid() {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "activity_id": activityID},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByActivity returns every membership of one activity.
func (s *Store) ListByActivity(ctx context.Context, activityID primitive.ObjectID) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{"activity_id": activityID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns every membership of one user.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByActivity is the live participant count that the verification
// threshold reads.
func (s *Store) CountByActivity(ctx context.Context, activityID primitive.ObjectID) (int, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"activity_id": activityID})
	return int(n), err
}

// DeleteByActivity removes all memberships of an activity. Part of the
// activity-deletion cascade.
func (s *Store) DeleteByActivity(ctx context.Context, activityID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"activity_id": activityID})
	return err
}
