// internal/domain/models/joinrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Join request / invitation statuses. PENDING is the only non-terminal
// state; APPROVED/REJECTED (and ACCEPTED for invitations) are terminal.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// JoinRequest is a user-initiated request to join an activity.
// At most one PENDING request per (user_id, activity_id), enforced by a
// partial unique index.
type JoinRequest struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActivityID primitive.ObjectID `bson:"activity_id" json:"activity_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
