// Package seed installs the fixed interest catalog at startup. The
// catalog is the only data the service pre-populates; everything else is
// user-created.
package seed

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type catalogEntry struct {
	Name string
	Icon string
}

// catalog is the full interest list. Names are surfaced to clients
// verbatim, so they stay in the product's language.
var catalog = []catalogEntry{
	{"Joga", "🧘"},
	{"Siłownia", "💪"},
	{"Muzyka", "🎸"},
	{"Literatura", "📚"},
	{"Podróże", "✈️"},
	{"Rywalizacja", "🏆"},
	{"Inwestowanie", "💰"},
	{"Łamigłówki", "🧩"},
	{"Technologia", "💻"},
	{"Gotowanie", "🍳"},
	{"Kawa", "☕"},
	{"Ogrodnictwo", "🌱"},
	{"Produktywność", "⏱️"},
	{"Podcasty", "🎧"},
	{"Finanse", "📈"},
	{"Sztuki walki", "🥊"},
}

// CatalogNames returns the catalog names in seed order.
func CatalogNames() []string {
	names := make([]string, 0, len(catalog))
	for _, e := range catalog {
		names = append(names, e.Name)
	}
	return names
}

// EnsureInterests upserts the catalog by folded name. Re-running is a
// no-op apart from icon refreshes, so it is safe on every startup.
func EnsureInterests(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	coll := db.Collection("interests")

	for _, e := range catalog {
		folded := text.Fold(e.Name)
		update := bson.M{
			"$set": bson.M{
				"name": e.Name,
				"icon": e.Icon,
			},
			"$setOnInsert": bson.M{"name_ci": folded},
		}
		res, err := coll.UpdateOne(ctx,
			bson.M{"name_ci": folded},
			update,
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed interest %q: %w", e.Name, err)
		}
		if res.UpsertedCount > 0 {
			logger.Info("seeded interest", zap.String("name", e.Name))
		}
	}
	return nil
}
