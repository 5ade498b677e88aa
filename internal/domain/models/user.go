// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can own memberships, submit proofs, and vote.
//
// NOTE:
//   - Activity membership is not embedded on User.
//     Use the activity_memberships collection to discover a user's activities.
//   - InterestIDs is the user's selected interest set (capped at
//     MaxUserInterests, validated against the interests catalog).
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string               `bson:"auth_method,omitempty" json:"-"` // "password" | "google"
	Image        string               `bson:"image,omitempty" json:"image,omitempty"`
	InterestIDs  []primitive.ObjectID `bson:"interest_ids,omitempty" json:"interest_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MaxUserInterests caps how many interests a user may select.
const MaxUserInterests = 4
