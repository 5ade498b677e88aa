package proofstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	proofstore "github.com/goalpeer/goalpeer/internal/app/store/proofs"
	"github.com/goalpeer/goalpeer/internal/app/system/indexes"
	"github.com/goalpeer/goalpeer/internal/domain/models"
	"github.com/goalpeer/goalpeer/internal/testutil"
)

func TestCreate_OneProofPerGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	activity := fx.CreateActivity(ctx, "Runners", owner.ID)
	goal := fx.CreateActiveGoal(ctx, activity.ID, "Run 5k")

	s := proofstore.New(db)
	p1 := models.Proof{UserID: owner.ID, GoalID: goal.ID, ImagePath: "proofs/a.jpg"}
	if err := s.Create(ctx, &p1); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	p2 := models.Proof{UserID: owner.ID, GoalID: goal.ID, ImagePath: "proofs/b.jpg"}
	if err := s.Create(ctx, &p2); !errors.Is(err, proofstore.ErrDuplicateProof) {
		t.Fatalf("second Create = %v, want ErrDuplicateProof", err)
	}
}

func TestToggleLike(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	voter := fx.CreateUser(ctx, "Voter", "voter@example.com")
	activity := fx.CreateActivity(ctx, "Runners", owner.ID)
	goal := fx.CreateActiveGoal(ctx, activity.ID, "Run 5k")
	proof := fx.CreateProof(ctx, owner.ID, goal.ID)

	s := proofstore.New(db)

	liked, err := s.ToggleLike(ctx, voter.ID, proof.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !liked {
		t.Error("first toggle should like")
	}
	if n, _ := s.CountLikes(ctx, proof.ID); n != 1 {
		t.Errorf("like count = %d, want 1", n)
	}

	liked, err = s.ToggleLike(ctx, voter.ID, proof.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if liked {
		t.Error("second toggle should unlike")
	}
	if n, _ := s.CountLikes(ctx, proof.ID); n != 0 {
		t.Errorf("like count after unlike = %d, want 0", n)
	}
}

func TestCountLikesByProofs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	v1 := fx.CreateUser(ctx, "V1", "v1@example.com")
	v2 := fx.CreateUser(ctx, "V2", "v2@example.com")
	activity := fx.CreateActivity(ctx, "Runners", owner.ID)
	goal := fx.CreateActiveGoal(ctx, activity.ID, "Run 5k")

	pA := fx.CreateProof(ctx, owner.ID, goal.ID)
	pB := fx.CreateProof(ctx, v1.ID, goal.ID)
	fx.CreateLike(ctx, v1.ID, pA.ID)
	fx.CreateLike(ctx, v2.ID, pA.ID)

	s := proofstore.New(db)
	counts, err := s.CountLikesByProofs(ctx, []primitive.ObjectID{pA.ID, pB.ID})
	if err != nil {
		t.Fatalf("CountLikesByProofs: %v", err)
	}
	if counts[pA.ID] != 2 {
		t.Errorf("likes for pA = %d, want 2", counts[pA.ID])
	}
	if counts[pB.ID] != 0 {
		t.Errorf("likes for pB = %d, want 0", counts[pB.ID])
	}
}

func TestGetByUserGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	activity := fx.CreateActivity(ctx, "Runners", owner.ID)
	goal := fx.CreateActiveGoal(ctx, activity.ID, "Run 5k")
	proof := fx.CreateProof(ctx, owner.ID, goal.ID)

	s := proofstore.New(db)
	got, err := s.GetByUserGoal(ctx, owner.ID, goal.ID)
	if err != nil {
		t.Fatalf("GetByUserGoal: %v", err)
	}
	if got.ID != proof.ID {
		t.Errorf("got proof %s, want %s", got.ID.Hex(), proof.ID.Hex())
	}

	if _, err := s.GetByUserGoal(ctx, primitive.NewObjectID(), goal.ID); !errors.Is(err, proofstore.ErrNotFound) {
		t.Errorf("missing proof = %v, want ErrNotFound", err)
	}
}

func TestDeleteByGoals_CascadesLikes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	owner := fx.CreateUser(ctx, "Owner", "owner@example.com")
	voter := fx.CreateUser(ctx, "Voter", "voter@example.com")
	activity := fx.CreateActivity(ctx, "Runners", owner.ID)
	goal := fx.CreateActiveGoal(ctx, activity.ID, "Run 5k")
	proof := fx.CreateProof(ctx, owner.ID, goal.ID)
	fx.CreateLike(ctx, voter.ID, proof.ID)

	s := proofstore.New(db)
	if err := s.DeleteByGoals(ctx, []primitive.ObjectID{goal.ID}); err != nil {
		t.Fatalf("DeleteByGoals: %v", err)
	}

	if _, err := s.GetByID(ctx, proof.ID); !errors.Is(err, proofstore.ErrNotFound) {
		t.Error("proof survived the cascade")
	}
	if n, _ := s.CountLikes(ctx, proof.ID); n != 0 {
		t.Errorf("likes survived the cascade: %d", n)
	}
}
