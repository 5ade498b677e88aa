// internal/app/store/goals/goalstore.go
package goalstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goalpeer/goalpeer/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("goals")}
}

var ErrNotFound = errors.New("goal not found")

func (s *Store) Create(ctx context.Context, g *models.Goal) error {
	now := time.Now().UTC()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := s.c.InsertOne(ctx, g)
	return err
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Goal, error) {
	var g models.Goal
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Goal{}, ErrNotFound
	}
	return g, err
}

// ListByActivity returns the activity's goals ordered by start date.
func (s *Store) ListByActivity(ctx context.Context, activityID primitive.ObjectID) ([]models.Goal, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"activity_id": activityID},
		options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Goal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the editable fields. Dates may move as long as the
// caller has validated the window.
func (s *Store) Update(ctx context.Context, g models.Goal) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": g.ID},
		bson.M{"$set": bson.M{
			"title":       g.Title,
			"description": g.Description,
			"start_date":  g.StartDate,
			"end_date":    g.EndDate,
			"category_id": g.CategoryID,
			"updated_at":  time.Now().UTC(),
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

// DeleteByActivity removes all goals of an activity. Part of the
// activity-deletion cascade.
func (s *Store) DeleteByActivity(ctx context.Context, activityID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"activity_id": activityID})
	return err
}

// IDsByActivity returns the goal IDs of one activity; the proof cascade
// needs them before the goals themselves are deleted.
func (s *Store) IDsByActivity(ctx context.Context, activityID primitive.ObjectID) ([]primitive.ObjectID, error) {
	goals, err := s.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ID)
	}
	return ids, nil
}
