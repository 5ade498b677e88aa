// internal/domain/models/proof.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Proof is a member's photographic evidence for a goal. At most one per
// (user_id, goal_id). The image itself lives in the object store; the
// document only carries the storage path. Proofs are never mutated and
// are deleted only by cascading goal/activity deletion.
type Proof struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GoalID      primitive.ObjectID `bson:"goal_id" json:"goal_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	ImagePath   string             `bson:"image_path" json:"-"`
	ContentType string             `bson:"content_type,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Like is one peer endorsement of a proof. At most one per
// (user_id, proof_id); the proof owner may not like their own proof.
type Like struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProofID   primitive.ObjectID `bson:"proof_id" json:"proof_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
