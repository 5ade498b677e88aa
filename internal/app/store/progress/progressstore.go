// internal/app/store/progress/progressstore.go
package progressstore

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
	return &Store{c: db.Collection("progress")}
}

var ErrNotFound = errors.New("progress not found")

// SetCompleted upserts the (user, goal) progress row with the given
// completion flag. Marking complete stamps completed_at; unmarking
// clears it.
func (s *Store) SetCompleted(ctx context.Context, userID, goalID primitive.ObjectID, completed bool) (models.Progress, error) {
	now := time.Now().UTC()
	set := bson.M{
		"is_completed": completed,
		"updated_at":   now,
	}
	unset := bson.M{}
	if completed {
		set["completed_at"] = now
	} else {
		unset["completed_at"] = ""
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"user_id": userID, "goal_id": goalID},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var p models.Progress
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "goal_id": goalID},
		update, opts,
	).Decode(&p)
	return p, err
}

// Get returns the (user, goal) progress row.
func (s *Store) Get(ctx context.Context, userID, goalID primitive.ObjectID) (models.Progress, error) {
	var p models.Progress
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "goal_id": goalID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Progress{}, ErrNotFound
	}
	return p, err
}

// GetByUserGoals loads the user's progress rows for many goals at once.
func (s *Store) GetByUserGoals(ctx context.Context, userID primitive.ObjectID, goalIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Progress, error) {
	out := make(map[primitive.ObjectID]models.Progress, len(goalIDs))
	if len(goalIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "goal_id": bson.M{"$in": goalIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var p models.Progress
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.GoalID] = p
	}
	return out, cur.Err()
}

// CompletionDates returns the distinct UTC days on which the user
// completed any goal, newest first. Streak arithmetic runs on these.
func (s *Store) CompletionDates(ctx context.Context, userID primitive.ObjectID) ([]time.Time, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"user_id": userID, "is_completed": true, "completed_at": bson.M{"$ne": nil}},
		options.Find().SetSort(bson.D{{Key: "completed_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var dates []time.Time
	seen := make(map[time.Time]struct{})
	for cur.Next(ctx) {
		var p models.Progress
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		if p.CompletedAt == nil {
			continue
		}
		day := p.CompletedAt.UTC().Truncate(24 * time.Hour)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}
	return dates, cur.Err()
}

// CountCompleted returns how many goals the user has marked complete.
func (s *Store) CountCompleted(ctx context.Context, userID primitive.ObjectID) (int, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": userID, "is_completed": true})
	return int(n), err
}

// DeleteByGoals removes progress rows for the given goals. Part of the
// activity-deletion cascade.
func (s *Store) DeleteByGoals(ctx context.Context, goalIDs []primitive.ObjectID) error {
	if len(goalIDs) == 0 {
		return nil
	}
	_, err := s.c.DeleteMany(ctx, bson.M{"goal_id": bson.M{"$in": goalIDs}})
	return err
}
