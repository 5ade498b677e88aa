// internal/domain/models/progress.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress is a lightweight per-user completion flag on a goal,
// independent of the proof/like verification pipeline. It feeds streak
// and profile statistics only.
type Progress struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoalID      primitive.ObjectID `bson:"goal_id" json:"goal_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	IsCompleted bool               `bson:"is_completed" json:"is_completed"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
