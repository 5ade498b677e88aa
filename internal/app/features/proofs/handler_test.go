// internal/app/features/proofs/handler_test.go
package proofs

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"

	goalstore "github.com/goalpeer/goalpeer/internal/app/store/goals"
	membershipstore "github.com/goalpeer/goalpeer/internal/app/store/memberships"
	proofstore "github.com/goalpeer/goalpeer/internal/app/store/proofs"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/metrics"
	"github.com/goalpeer/goalpeer/internal/domain/models"
	"github.com/goalpeer/goalpeer/internal/testutil"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	store, err := storage.NewLocal(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "/files",
	})
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	h := NewHandler(
		proofstore.New(db),
		goalstore.New(db),
		membershipstore.New(db),
		userstore.New(db),
		store,
		metrics.New(),
		zap.NewNop(),
	)
	return h, testutil.NewFixtures(t, db)
}

// multipartProof builds a multipart body with a goal_id field and a
// one-pixel fake JPEG part.
func multipartProof(t *testing.T, goalHex string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("goal_id", goalHex); err != nil {
		t.Fatal(err)
	}
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="proof.jpg"`)
	hdr.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte{0xFF, 0xD8, 0xFF, 0xD9}); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func submit(h *Handler, t *testing.T, user models.User, goalHex string) *testutil.ResponseRecorder {
	body, contentType := multipartProof(t, goalHex)
	req, err := http.NewRequest(http.MethodPost, "/proofs", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	req = testutil.WithUser(req, testutil.AsTestUser(user))
	rec := testutil.NewRecorder()
	h.HandleSubmit(rec, req)
	return rec
}

func TestSubmitProof(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Sub Owner", "sub@test.com")
	activity := f.CreateActivity(ctx, "Provers", owner.ID)
	goal := f.CreateActiveGoal(ctx, activity.ID, "Prove it")

	rec := submit(h, t, owner, goal.ID.Hex())
	rec.AssertStatus(t, http.StatusCreated)

	var resp proofResponse
	rec.DecodeJSON(t, &resp)
	if resp.GoalID != goal.ID.Hex() {
		t.Errorf("goal id: got %q", resp.GoalID)
	}

	stored, err := h.Proofs.GetByUserGoal(ctx, owner.ID, goal.ID)
	if err != nil {
		t.Fatalf("stored proof: %v", err)
	}
	if stored.ContentType != "image/jpeg" {
		t.Errorf("content type: got %q", stored.ContentType)
	}

	// A second submission for the same goal conflicts.
	submit(h, t, owner, goal.ID.Hex()).AssertStatus(t, http.StatusConflict)
}

func TestSubmitRequiresMembership(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "In Sider", "in@test.com")
	outsider := f.CreateUser(ctx, "Out Sider", "out@test.com")
	activity := f.CreateActivity(ctx, "Closed", owner.ID)
	goal := f.CreateActiveGoal(ctx, activity.ID, "Private goal")

	submit(h, t, outsider, goal.ID.Hex()).AssertStatus(t, http.StatusForbidden)
}

func TestToggleLike(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Lia Owner", "lia@test.com")
	voter := f.CreateUser(ctx, "Vic Voter", "vic@test.com")
	activity := f.CreateActivity(ctx, "Likers", owner.ID)
	f.CreateMembership(ctx, voter.ID, activity.ID, models.RoleMember)
	goal := f.CreateActiveGoal(ctx, activity.ID, "Goal")
	proof := f.CreateProof(ctx, owner.ID, goal.ID)

	toggle := func(u models.User) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(http.MethodPost, "/proofs/"+proof.ID.Hex()+"/like", testutil.AsTestUser(u))
		req = testutil.WithChiURLParam(req, "proofID", proof.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleToggleLike(rec, req)
		return rec
	}

	// Self-like is refused.
	toggle(owner).AssertStatus(t, http.StatusBadRequest)

	rec := toggle(voter)
	rec.AssertStatus(t, http.StatusOK)
	var state struct {
		Liked    bool `json:"liked"`
		Likes    int  `json:"likes"`
		Verified bool `json:"verified"`
	}
	rec.DecodeJSON(t, &state)
	if !state.Liked || state.Likes != 1 {
		t.Errorf("after like: %+v", state)
	}
	// Two participants need one like; one like verifies.
	if !state.Verified {
		t.Errorf("expected verified with 1/2 participants liking")
	}

	rec = toggle(voter)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &state)
	if state.Liked || state.Likes != 0 {
		t.Errorf("after unlike: %+v", state)
	}
	if state.Verified {
		t.Errorf("expected unverified after unlike")
	}
}

func TestVerificationThresholdTracksMembership(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Quo Owner", "quo@test.com")
	submitter := f.CreateUser(ctx, "Sue Submitter", "sue@test.com")
	voterC := f.CreateUser(ctx, "Cal Voter", "cal@test.com")
	voterD := f.CreateUser(ctx, "Dot Voter", "dot@test.com")
	activity := f.CreateActivity(ctx, "Quorum", owner.ID)
	for _, u := range []models.User{submitter, voterC, voterD} {
		f.CreateMembership(ctx, u.ID, activity.ID, models.RoleMember)
	}
	goal := f.CreateActiveGoal(ctx, activity.ID, "Quorum goal")
	proof := f.CreateProof(ctx, submitter.ID, goal.ID)
	f.CreateLike(ctx, voterC.ID, proof.ID)
	f.CreateLike(ctx, voterD.ID, proof.ID)

	// 4 participants, threshold 2, 2 likes: verified.
	list := func(u models.User) []proofResponse {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/proofs?goal_id="+goal.ID.Hex(), testutil.AsTestUser(u))
		rec := testutil.NewRecorder()
		h.HandleListByGoal(rec, req)
		rec.AssertStatus(t, http.StatusOK)
		var out []proofResponse
		rec.DecodeJSON(t, &out)
		return out
	}

	got := list(owner)
	if len(got) != 1 {
		t.Fatalf("proof list: got %d entries", len(got))
	}
	if got[0].RequiredLikes != 2 || !got[0].Verified {
		t.Errorf("4 participants, 2 likes: %+v", got[0])
	}

	// Membership grows to 6; threshold rises to 3 and the same proof is
	// no longer verified.
	e := f.CreateUser(ctx, "Ext Ra", "extra1@test.com")
	g := f.CreateUser(ctx, "Ext Rb", "extra2@test.com")
	f.CreateMembership(ctx, e.ID, activity.ID, models.RoleMember)
	f.CreateMembership(ctx, g.ID, activity.ID, models.RoleMember)

	got = list(owner)
	if got[0].RequiredLikes != 3 || got[0].Verified {
		t.Errorf("6 participants, 2 likes: %+v", got[0])
	}
}

func TestListRequiresParticipation(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := f.CreateUser(ctx, "Pri Owner", "pri@test.com")
	outsider := f.CreateUser(ctx, "Nos Ey", "nosey@test.com")
	activity := f.CreateActivity(ctx, "Secret", owner.ID)
	goal := f.CreateActiveGoal(ctx, activity.ID, "Hidden goal")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/proofs?goal_id="+goal.ID.Hex(), testutil.AsTestUser(outsider))
	rec := testutil.NewRecorder()
	h.HandleListByGoal(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}
