// internal/domain/models/goal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Goal is a time-boxed target within an activity. Windows are inclusive
// on both ends: active when StartDate <= now <= EndDate.
//
// A goal whose EndDate has passed can still have its title/description
// edited but can no longer be removed from the activity's goal set.
type Goal struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ActivityID  primitive.ObjectID  `bson:"activity_id" json:"activity_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	StartDate   time.Time           `bson:"start_date" json:"start_date"`
	EndDate     time.Time           `bson:"end_date" json:"end_date"`
	CategoryID  *primitive.ObjectID `bson:"category_id,omitempty" json:"category_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Ended reports whether the goal's window has closed.
func (g Goal) Ended(now time.Time) bool {
	return g.EndDate.Before(now)
}
