// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership is the authoritative join between users and activities.
// Exactly one document per (user_id, activity_id); role is a scalar.
// Every authorization decision in the API reads this collection.
type Membership struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActivityID primitive.ObjectID `bson:"activity_id" json:"activity_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role       Role               `bson:"role" json:"role"`
	JoinedAt   time.Time          `bson:"joined_at" json:"joined_at"`
}
