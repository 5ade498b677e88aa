// internal/app/store/sessions/sessionstore.go
package sessionstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Presence TTL. A user with a record younger than this counts as online
// on the radar; the TTL index reaps anything older.
const presenceWindow = 15 * time.Minute

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("session_records")}
}

// Touch refreshes the user's presence record. Called from the session
// middleware path on authenticated requests; failures are the caller's
// to ignore, presence is advisory.
func (s *Store) Touch(ctx context.Context, userID primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{
			"user_id":    userID,
			"seen_at":    now,
			"expires_at": now.Add(presenceWindow),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Remove drops the user's presence record; called on sign-out.
func (s *Store) Remove(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

// OnlineSet reports which of the given users are currently online.
func (s *Store) OnlineSet(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{
		"user_id":    bson.M{"$in": userIDs},
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			UserID primitive.ObjectID `bson:"user_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.UserID] = true
	}
	return out, cur.Err()
}
