package membershipstore_test

import (
	"errors"
	"testing"

	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	"github.com/goalpeer/goalpeer/internal/app/system/indexes"
	"github.com/goalpeer/goalpeer/internal/domain/models"
	"github.com/goalpeer/goalpeer/internal/testutil"
)

func TestAdd_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	member := fx.CreateUser(ctx, "Member", "member@example.com")
	activity := fx.CreateActivity(ctx, "Book Club", owner.ID)

	s := membershipstore.New(db)
	if err := s.Add(ctx, member.ID, activity.ID, models.RoleMember); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, member.ID, activity.ID, models.RoleAdmin); !errors.Is(err, membershipstore.ErrDuplicateMembership) {
		t.Fatalf("second Add = %v, want ErrDuplicateMembership", err)
	}
}

func TestAdd_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "U", "u@example.com")
	a := fx.CreateActivity(ctx, "A", u.ID)

	s := membershipstore.New(db)
	if err := s.Add(ctx, u.ID, a.ID, models.Role("SUPERUSER")); err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}

func TestSetRole_AndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	member := fx.CreateUser(ctx, "Member", "member@example.com")
	activity := fx.CreateActivity(ctx, "Gym Crew", owner.ID)
	fx.CreateMembership(ctx, member.ID, activity.ID, models.RoleMember)

	s := membershipstore.New(db)
	if err := s.SetRole(ctx, member.ID, activity.ID, models.RoleAdmin); err != nil {
		t.Fatalf("SetRole: %v", err)
	}

	m, err := s.Get(ctx, member.ID, activity.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Role != models.RoleAdmin {
		t.Errorf("role = %s, want ADMIN", m.Role)
	}
}

func TestRemove_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	outsider := fx.CreateUser(ctx, "Outsider", "out@example.com")
	activity := fx.CreateActivity(ctx, "Gym Crew", owner.ID)

	s := membershipstore.New(db)
	if err := s.Remove(ctx, outsider.ID, activity.ID); !errors.Is(err, membershipstore.ErrNotFound) {
		t.Fatalf("Remove of non-member = %v, want ErrNotFound", err)
	}
}

func TestCountByActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	activity := fx.CreateActivity(ctx, "Runners", owner.ID)
	for i := 0; i < 3; i++ {
		u := fx.CreateUser(ctx, "M", string(rune('a'+i))+"@example.com")
		fx.CreateMembership(ctx, u.ID, activity.ID, models.RoleMember)
	}

	s := membershipstore.New(db)
	n, err := s.CountByActivity(ctx, activity.ID)
	if err != nil {
		t.Fatalf("CountByActivity: %v", err)
	}
	if n != 4 { // owner + 3 members
		t.Errorf("count = %d, want 4", n)
	}
}

func TestDeleteByActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	activity := fx.CreateActivity(ctx, "Runners", owner.ID)
	other := fx.CreateActivity(ctx, "Readers", owner.ID)

	s := membershipstore.New(db)
	if err := s.DeleteByActivity(ctx, activity.ID); err != nil {
		t.Fatalf("DeleteByActivity: %v", err)
	}

	if _, err := s.Get(ctx, owner.ID, activity.ID); !errors.Is(err, membershipstore.ErrNotFound) {
		t.Error("membership of deleted activity survived")
	}
	if _, err := s.Get(ctx, owner.ID, other.ID); err != nil {
		t.Errorf("unrelated membership was removed: %v", err)
	}
}
