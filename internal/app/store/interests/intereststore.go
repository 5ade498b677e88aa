// internal/app/store/interests/intereststore.go
package intereststore

import (
	"context"
	"errors"

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
	return &Store{c: db.Collection("interests")}
}

var ErrUnknownInterest = errors.New("interest is not in the catalog")

// List returns the whole catalog in name order.
func (s *Store) List(ctx context.Context) ([]models.Interest, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var interests []models.Interest
	if err := cur.All(ctx, &interests); err != nil {
		return nil, err
	}
	return interests, nil
}

// GetByIDs loads catalog entries keyed by ID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Interest, error) {
	out := make(map[primitive.ObjectID]models.Interest, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var in models.Interest
		if err := cur.Decode(&in); err != nil {
			return nil, err
		}
		out[in.ID] = in
	}
	return out, cur.Err()
}

// ValidateIDs confirms every ID exists in the catalog. Returns
// ErrUnknownInterest if any does not.
func (s *Store) ValidateIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	if int(n) != len(dedupe(ids)) {
		return ErrUnknownInterest
	}
	return nil
}

// IDsByNames resolves catalog names (exact match) to IDs; unknown names
// are skipped. Used when mapping generated tag suggestions back onto the
// catalog.
func (s *Store) IDsByNames(ctx context.Context, names []string) ([]primitive.ObjectID, error) {
	if len(names) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"name": bson.M{"$in": names}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var in models.Interest
		if err := cur.Decode(&in); err != nil {
			return nil, err
		}
		ids = append(ids, in.ID)
	}
	return ids, cur.Err()
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
