// internal/app/store/activities/activitystore.go
package activitystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/goalpeer/goalpeer/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activities")}
}

var ErrNotFound = errors.New("activity not found")

// Create inserts the activity document. Membership creation belongs to
// the caller's transaction, not here.
func (s *Store) Create(ctx context.Context, a *models.Activity) error {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	doc := bson.M{
		"_id":          a.ID,
		"name":         a.Name,
		"name_ci":      text.Fold(a.Name),
		"description":  a.Description,
		"interest_ids": a.InterestIDs,
		"created_at":   a.CreatedAt,
		"updated_at":   a.UpdatedAt,
	}
	_, err := s.c.InsertOne(ctx, doc)
	return err
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Activity, error) {
	var a models.Activity
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Activity{}, ErrNotFound
	}
	return a, err
}

// Update rewrites name, description and interest tags.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description string, interestIDs []primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":         name,
			"name_ci":      text.Fold(name),
			"description":  description,
			"interest_ids": interestIDs,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the activity document only. Cascading deletes of
// memberships, goals, proofs and requests run in the caller's
// transaction.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByIDs loads activities keyed by ID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Activity, error) {
	out := make(map[primitive.ObjectID]models.Activity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var a models.Activity
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, cur.Err()
}

// FindByInterests returns activities tagged with any of the given
// interests, excluding the given IDs (activities the user is already in).
func (s *Store) FindByInterests(ctx context.Context, interestIDs, excludeIDs []primitive.ObjectID) ([]models.Activity, error) {
	if len(interestIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{"interest_ids": bson.M{"$in": interestIDs}}
	if len(excludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": excludeIDs}
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var activities []models.Activity
	if err := cur.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}
