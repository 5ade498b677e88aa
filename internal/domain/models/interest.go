// internal/domain/models/interest.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Interest is an immutable catalog entry. The catalog is seeded once at
// startup and never mutated through the API.
type Interest struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
	// NameCI is the case/diacritics-folded form of Name, used for the
	// uniqueness index and forbidden-name checks.
	NameCI string `bson:"name_ci" json:"-"`
	Icon   string `bson:"icon" json:"icon"`
}
