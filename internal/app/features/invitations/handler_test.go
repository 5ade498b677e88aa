// internal/app/features/invitations/handler_test.go
package invitations

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/domain/models"
	"github.com/goalpeer/goalpeer/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), db, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func invite(h *Handler, actor models.User, activityHex, email string) *testutil.ResponseRecorder {
	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost,
		"/activities/"+activityHex+"/invite", inviteRequest{Email: email}), testutil.AsTestUser(actor))
	req = testutil.WithChiURLParam(req, "activityID", activityHex)
	rec := testutil.NewRecorder()
	h.HandleInvite(rec, req)
	return rec
}

func TestInvite(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Ivy Owner", "ivy@test.com")
	target := f.CreateUser(ctx, "Tia Target", "tia@test.com")
	activity := f.CreateActivity(ctx, "Inviters", owner.ID)

	invite(h, owner, activity.ID.Hex(), "tia@test.com").AssertStatus(t, http.StatusCreated)

	// A second pending invitation to the same person conflicts.
	invite(h, owner, activity.ID.Hex(), "tia@test.com").AssertStatus(t, http.StatusConflict)

	// Unknown email is a 404.
	invite(h, owner, activity.ID.Hex(), "ghost@test.com").AssertStatus(t, http.StatusNotFound)

	// Non-participants may not invite.
	invite(h, target, activity.ID.Hex(), "ivy@test.com").AssertStatus(t, http.StatusForbidden)
}

func TestInviteExistingMemberConflicts(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Mem Owner", "memowner@test.com")
	member := f.CreateUser(ctx, "Al Ready", "already@test.com")
	activity := f.CreateActivity(ctx, "Full House", owner.ID)
	f.CreateMembership(ctx, member.ID, activity.ID, models.RoleMember)

	invite(h, owner, activity.ID.Hex(), "already@test.com").AssertStatus(t, http.StatusConflict)
}

func TestAcceptCreatesMembershipIdempotently(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Acc Owner", "acc@test.com")
	receiver := f.CreateUser(ctx, "Rec Eiver", "rec@test.com")
	activity := f.CreateActivity(ctx, "Acceptance", owner.ID)
	inv := f.CreateInvitation(ctx, owner.ID, receiver.ID, activity.ID, models.StatusPending)

	respond := func(actor models.User, decision string) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost,
			"/invitations/"+inv.ID.Hex()+"/respond", respondRequest{Decision: decision}), testutil.AsTestUser(actor))
		req = testutil.WithChiURLParam(req, "invitationID", inv.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleRespond(rec, req)
		return rec
	}

	// Only the receiver may answer.
	respond(owner, "ACCEPT").AssertStatus(t, http.StatusForbidden)

	// The receiver joined through a join request in the meantime;
	// acceptance must still succeed.
	f.CreateMembership(ctx, receiver.ID, activity.ID, models.RoleMember)
	respond(receiver, "ACCEPT").AssertStatus(t, http.StatusOK)

	got, err := h.Invitations.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusAccepted {
		t.Errorf("status: got %q", got.Status)
	}

	// Terminal states cannot be re-resolved.
	respond(receiver, "REJECT").AssertStatus(t, http.StatusConflict)
}

func TestListMine(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Lim Owner", "lim@test.com")
	receiver := f.CreateUser(ctx, "Mine Lister", "mine@test.com")
	activityA := f.CreateActivity(ctx, "First", owner.ID)
	activityB := f.CreateActivity(ctx, "Second", owner.ID)
	f.CreateInvitation(ctx, owner.ID, receiver.ID, activityA.ID, models.StatusPending)
	f.CreateInvitation(ctx, owner.ID, receiver.ID, activityB.ID, models.StatusRejected)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/invitations", testutil.AsTestUser(receiver))
	rec := testutil.NewRecorder()
	h.HandleListMine(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var list []invitationResponse
	rec.DecodeJSON(t, &list)
	if len(list) != 1 {
		t.Fatalf("list length: got %d, want 1", len(list))
	}
	if list[0].ActivityName != "First" {
		t.Errorf("activity name: got %q", list[0].ActivityName)
	}
	if list[0].SenderName != "Lim Owner" {
		t.Errorf("sender name: got %q", list[0].SenderName)
	}
}

func TestCancelBySenderAndByAdmin(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Own Er", "own@test.com")
	sender := f.CreateUser(ctx, "Sen Der", "sen@test.com")
	receiver := f.CreateUser(ctx, "Rec Two", "rec2@test.com")
	stranger := f.CreateUser(ctx, "Str Anger", "str@test.com")
	activity := f.CreateActivity(ctx, "Withdrawals", owner.ID)
	f.CreateMembership(ctx, sender.ID, activity.ID, models.RoleMember)

	cancelInv := func(actor models.User, invHex string) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/invitations/"+invHex, testutil.AsTestUser(actor))
		req = testutil.WithChiURLParam(req, "invitationID", invHex)
		rec := testutil.NewRecorder()
		h.HandleCancel(rec, req)
		return rec
	}

	inv := f.CreateInvitation(ctx, sender.ID, receiver.ID, activity.ID, models.StatusPending)
	cancelInv(stranger, inv.ID.Hex()).AssertStatus(t, http.StatusForbidden)
	cancelInv(sender, inv.ID.Hex()).AssertStatus(t, http.StatusNoContent)

	inv = f.CreateInvitation(ctx, sender.ID, receiver.ID, activity.ID, models.StatusPending)
	cancelInv(owner, inv.ID.Hex()).AssertStatus(t, http.StatusNoContent)
}
