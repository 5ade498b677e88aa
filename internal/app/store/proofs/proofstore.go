// internal/app/store/proofs/proofstore.go
package proofstore

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
	c     *mongo.Collection
	likes *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("proofs"),
		likes: db.Collection("proof_likes"),
	}
}

var (
	ErrNotFound       = errors.New("proof not found")
	ErrDuplicateProof = errors.New("a proof for this goal already exists")
)

// Create inserts a proof. One per (user, goal); a duplicate submission
// surfaces as ErrDuplicateProof.
func (s *Store) Create(ctx context.Context, p *models.Proof) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.c.InsertOne(ctx, p)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateProof
		}
		return err
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Proof, error) {
	var p models.Proof
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Proof{}, ErrNotFound
	}
	return p, err
}

// GetByUserGoal returns the user's proof for one goal, if submitted.
func (s *Store) GetByUserGoal(ctx context.Context, userID, goalID primitive.ObjectID) (models.Proof, error) {
	var p models.Proof
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "goal_id": goalID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Proof{}, ErrNotFound
	}
	return p, err
}

// ListByGoal returns every proof submitted for one goal.
func (s *Store) ListByGoal(ctx context.Context, goalID primitive.ObjectID) ([]models.Proof, error) {
	cur, err := s.c.Find(ctx, bson.M{"goal_id": goalID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Proof
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByGoals removes proofs and their likes for the given goals.
// Part of the activity-deletion cascade.
func (s *Store) DeleteByGoals(ctx context.Context, goalIDs []primitive.ObjectID) error {
	if len(goalIDs) == 0 {
		return nil
	}
	proofIDs, err := s.idsByGoals(ctx, goalIDs)
	if err != nil {
		return err
	}
	if len(proofIDs) > 0 {
		if _, err := s.likes.DeleteMany(ctx, bson.M{"proof_id": bson.M{"$in": proofIDs}}); err != nil {
			return err
		}
	}
	_, err = s.c.DeleteMany(ctx, bson.M{"goal_id": bson.M{"$in": goalIDs}})
	return err
}

func (s *Store) idsByGoals(ctx context.Context, goalIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"goal_id": bson.M{"$in": goalIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var p models.Proof
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	return ids, cur.Err()
}

/* ------------------------------- likes ---------------------------------- */

// ToggleLike adds the user's like if absent, removes it if present, and
// reports whether the proof is now liked by the user. The unique index
// on (user_id, proof_id) resolves the insert race: a concurrent
// duplicate insert collapses into "already liked".
func (s *Store) ToggleLike(ctx context.Context, userID, proofID primitive.ObjectID) (liked bool, err error) {
	res, err := s.likes.DeleteOne(ctx, bson.M{"user_id": userID, "proof_id": proofID})
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	_, err = s.likes.InsertOne(ctx, models.Like{
		ID:        primitive.NewObjectID(),
		ProofID:   proofID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// CountLikes returns the like count for one proof.
func (s *Store) CountLikes(ctx context.Context, proofID primitive.ObjectID) (int, error) {
	n, err := s.likes.CountDocuments(ctx, bson.M{"proof_id": proofID})
	return int(n), err
}

// CountLikesByProofs returns like counts for many proofs in one pass.
func (s *Store) CountLikesByProofs(ctx context.Context, proofIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := make(map[primitive.ObjectID]int, len(proofIDs))
	if len(proofIDs) == 0 {
		return out, nil
	}
	cur, err := s.likes.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"proof_id": bson.M{"$in": proofIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$proof_id", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// HasLiked reports whether the user already liked the proof.
func (s *Store) HasLiked(ctx context.Context, userID, proofID primitive.ObjectID) (bool, error) {
	n, err := s.likes.CountDocuments(ctx, bson.M{"user_id": userID, "proof_id": proofID})
	return n > 0, err
}
