// Package activitypolicy centralizes authorization for per-activity
// operations.
//
// Authorization rules:
//   - The OWNER is the single founding member; they cannot leave and
//     cannot be removed.
//   - ADMINs manage join requests, invitations and ordinary members,
//     but cannot touch other ADMINs or the OWNER.
//   - Role assignment is OWNER-only and limited to ADMIN and MEMBER.
//   - Any participant may read the activity, its goals and its proofs.
package activitypolicy

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	"github.com/goalpeer/goalpeer/internal/domain/models"
)

// Policy answers authorization questions from the membership ledger.
type Policy struct {
	memberships *membershipstore.Store
}

func New(memberships *membershipstore.Store) *Policy {
	return &Policy{memberships: memberships}
}

// RoleOf returns the user's role in the activity, or ok=false for
// non-participants.
func (p *Policy) RoleOf(ctx context.Context, userID, activityID primitive.ObjectID) (models.Role, bool, error) {
	m, err := p.memberships.Get(ctx, userID, activityID)
	if errors.Is(err, membershipstore.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Role, true, nil
}

// IsParticipant reports whether the user belongs to the activity.
func (p *Policy) IsParticipant(ctx context.Context, userID, activityID primitive.ObjectID) (bool, error) {
	_, ok, err := p.RoleOf(ctx, userID, activityID)
	return ok, err
}

// CanManage reports whether the user may act on join requests,
// invitations and membership (ADMIN or OWNER).
func (p *Policy) CanManage(ctx context.Context, userID, activityID primitive.ObjectID) (bool, error) {
	role, ok, err := p.RoleOf(ctx, userID, activityID)
	if err != nil || !ok {
		return false, err
	}
	return role.AtLeast(models.RoleAdmin), nil
}

// IsOwner reports whether the user holds the OWNER role.
func (p *Policy) IsOwner(ctx context.Context, userID, activityID primitive.ObjectID) (bool, error) {
	role, ok, err := p.RoleOf(ctx, userID, activityID)
	if err != nil || !ok {
		return false, err
	}
	return role == models.RoleOwner, nil
}

// CanKick reports whether actorRole may remove targetRole from the
// activity. The OWNER can remove anyone but themselves; ADMINs remove
// only plain MEMBERs.
func CanKick(actorRole, targetRole models.Role) bool {
	if targetRole == models.RoleOwner {
		return false
	}
	switch actorRole {
	case models.RoleOwner:
		return true
	case models.RoleAdmin:
		return targetRole == models.RoleMember
	default:
		return false
	}
}

// CanLeave reports whether a participant with the given role may leave
// on their own. The OWNER must delete the activity instead.
func CanLeave(role models.Role) bool {
	return role != models.RoleOwner
}

// CanAssignRole reports whether actorRole may set targetRole. Only the
// OWNER assigns roles, and OWNER itself is never assignable.
func CanAssignRole(actorRole, newRole models.Role) bool {
	if actorRole != models.RoleOwner {
		return false
	}
	return newRole == models.RoleAdmin || newRole == models.RoleMember
}
