// internal/app/features/joinrequests/handler_test.go
package joinrequests

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

func joinReq(user models.User, activityHex string) *http.Request {
	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/activities/"+activityHex+"/join", testutil.AsTestUser(user))
	return testutil.WithChiURLParam(req, "activityID", activityHex)
}

func TestJoinThenDuplicateConflicts(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Olta Owner", "olta@test.com")
	joiner := f.CreateUser(ctx, "Jo Joiner", "jo@test.com")
	activity := f.CreateActivity(ctx, "Runners", owner.ID)

	rec := testutil.NewRecorder()
	h.HandleJoin(rec, joinReq(joiner, activity.ID.Hex()))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.HandleJoin(rec, joinReq(joiner, activity.ID.Hex()))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestJoinRejectedForExistingMember(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Mo Owner", "mo@test.com")
	activity := f.CreateActivity(ctx, "Already In", owner.ID)

	rec := testutil.NewRecorder()
	h.HandleJoin(rec, joinReq(owner, activity.ID.Hex()))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestApproveCreatesMembershipAndResolvesOnce(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "App Rover", "app@test.com")
	joiner := f.CreateUser(ctx, "Jin Joiner", "jin@test.com")
	activity := f.CreateActivity(ctx, "Approvals", owner.ID)
	request := f.CreateJoinRequest(ctx, joiner.ID, activity.ID, models.StatusPending)

	respond := func(actor models.User, decision string) *testutil.ResponseRecorder {
		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost,
			"/activities/"+activity.ID.Hex()+"/requests/"+request.ID.Hex()+"/respond",
			respondRequest{Decision: decision}), testutil.AsTestUser(actor))
		req = testutil.WithChiURLParam(req, "activityID", activity.ID.Hex())
		req = testutil.WithChiURLParam(req, "requestID", request.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleRespond(rec, req)
		return rec
	}

	// Non-admins may not review.
	respond(joiner, "APPROVE").AssertStatus(t, http.StatusForbidden)

	respond(owner, "APPROVE").AssertStatus(t, http.StatusOK)

	m, err := h.Memberships.Get(ctx, joiner.ID, activity.ID)
	if err != nil {
		t.Fatalf("membership after approval: %v", err)
	}
	if m.Role != models.RoleMember {
		t.Errorf("approved role: got %q, want MEMBER", m.Role)
	}
	got, err := h.Requests.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("request status: got %q", got.Status)
	}

	// A second resolution of the same request conflicts.
	respond(owner, "REJECT").AssertStatus(t, http.StatusConflict)
}

func TestRespondValidatesDecision(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Dec Ider", "dec@test.com")
	joiner := f.CreateUser(ctx, "Ask Er", "ask@test.com")
	activity := f.CreateActivity(ctx, "Decisions", owner.ID)
	request := f.CreateJoinRequest(ctx, joiner.ID, activity.ID, models.StatusPending)

	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost,
		"/activities/"+activity.ID.Hex()+"/requests/"+request.ID.Hex()+"/respond",
		respondRequest{Decision: "MAYBE"}), testutil.AsTestUser(owner))
	req = testutil.WithChiURLParam(req, "activityID", activity.ID.Hex())
	req = testutil.WithChiURLParam(req, "requestID", request.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleRespond(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestCancelPending(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Can Owner", "can@test.com")
	joiner := f.CreateUser(ctx, "Quit Er", "quit@test.com")
	activity := f.CreateActivity(ctx, "Cancels", owner.ID)
	f.CreateJoinRequest(ctx, joiner.ID, activity.ID, models.StatusPending)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/activities/"+activity.ID.Hex()+"/join", testutil.AsTestUser(joiner))
	req = testutil.WithChiURLParam(req, "activityID", activity.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleCancel(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	// A second cancel finds nothing.
	rec = testutil.NewRecorder()
	h.HandleCancel(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestJoinStatusTransitions(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Stat Owner", "stat@test.com")
	joiner := f.CreateUser(ctx, "Wat Cher", "wat@test.com")
	activity := f.CreateActivity(ctx, "Status", owner.ID)

	status := func(u models.User) string {
		req := testutil.NewAuthenticatedRequest(http.MethodGet,
			"/activities/"+activity.ID.Hex()+"/join/status", testutil.AsTestUser(u))
		req = testutil.WithChiURLParam(req, "activityID", activity.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleStatus(rec, req)
		rec.AssertStatus(t, http.StatusOK)
		var body map[string]string
		rec.DecodeJSON(t, &body)
		return body["status"]
	}

	if got := status(joiner); got != "NONE" {
		t.Errorf("before request: got %q, want NONE", got)
	}
	f.CreateJoinRequest(ctx, joiner.ID, activity.ID, models.StatusPending)
	if got := status(joiner); got != models.StatusPending {
		t.Errorf("with open request: got %q, want PENDING", got)
	}
	f.CreateMembership(ctx, joiner.ID, activity.ID, models.RoleMember)
	if got := status(joiner); got != "MEMBER" {
		t.Errorf("as member: got %q, want MEMBER", got)
	}
}

func TestListPendingSkipsResolved(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "List Owner", "list@test.com")
	a := f.CreateUser(ctx, "Open Req", "open@test.com")
	b := f.CreateUser(ctx, "Done Req", "done@test.com")
	activity := f.CreateActivity(ctx, "Queue", owner.ID)
	f.CreateJoinRequest(ctx, a.ID, activity.ID, models.StatusPending)
	f.CreateJoinRequest(ctx, b.ID, activity.ID, models.StatusRejected)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/activities/"+activity.ID.Hex()+"/requests", testutil.AsTestUser(owner))
	req = testutil.WithChiURLParam(req, "activityID", activity.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleListPending(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var queue []requestResponse
	rec.DecodeJSON(t, &queue)
	if len(queue) != 1 {
		t.Fatalf("queue length: got %d, want 1", len(queue))
	}
	if queue[0].UserName != "Open Req" {
		t.Errorf("queue entry: got %q", queue[0].UserName)
	}
}
