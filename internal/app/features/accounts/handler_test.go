package accounts_test

import (
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/accounts"
	sessionstore "github.com/goalpeer/goalpeer/internal/app/store/sessions"
	userstore "github.com/goalpeer/goalpeer/internal/app/store/users"
	"github.com/goalpeer/goalpeer/internal/app/system/auth"
	"github.com/goalpeer/goalpeer/internal/app/system/indexes"
	"github.com/goalpeer/goalpeer/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newHandler(t *testing.T, db *mongo.Database) *accounts.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return accounts.NewHandler(userstore.New(db), sessionstore.New(db), sm, zap.NewNop())
}

func TestRegister_CreatesAndSignsIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	h := newHandler(t, db)
	req := testutil.NewJSONRequest(http.MethodPost, "/auth/register", map[string]string{
		"name":     "Jan Kowalski",
		"email":    "Jan@Example.com",
		"password": "correct horse",
	})
	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusCreated)
	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	rec.DecodeJSON(t, &body)
	if body.Email != "jan@example.com" {
		t.Errorf("email = %q, want lowercased", body.Email)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("register did not start a session")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	h := newHandler(t, db)
	payload := map[string]string{"name": "Jan", "email": "jan@example.com", "password": "correct horse"}

	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, testutil.NewJSONRequest(http.MethodPost, "/auth/register", payload))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, testutil.NewJSONRequest(http.MethodPost, "/auth/register", payload))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestRegister_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	cases := []struct {
		name    string
		payload map[string]string
	}{
		{"missing name", map[string]string{"email": "a@b.com", "password": "longenough"}},
		{"bad email", map[string]string{"name": "A", "email": "not-an-email", "password": "longenough"}},
		{"short password", map[string]string{"name": "A", "email": "a@b.com", "password": "short"}},
	}
	for _, c := range cases {
		rec := testutil.NewRecorder()
		h.HandleRegister(rec.ResponseRecorder, testutil.NewJSONRequest(http.MethodPost, "/auth/register", c.payload))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", c.name, rec.Code)
		}
	}
}

func TestLogin_RightAndWrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	h := newHandler(t, db)
	rec := testutil.NewRecorder()
	h.HandleRegister(rec.ResponseRecorder, testutil.NewJSONRequest(http.MethodPost, "/auth/register", map[string]string{
		"name": "Jan", "email": "jan@example.com", "password": "correct horse",
	}))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.HandleLogin(rec.ResponseRecorder, testutil.NewJSONRequest(http.MethodPost, "/auth/login", map[string]string{
		"email": "jan@example.com", "password": "correct horse",
	}))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.HandleLogin(rec.ResponseRecorder, testutil.NewJSONRequest(http.MethodPost, "/auth/login", map[string]string{
		"email": "jan@example.com", "password": "wrong",
	}))
	rec.AssertStatus(t, http.StatusUnauthorized)

	// Unknown email answers identically to a wrong password.
	rec = testutil.NewRecorder()
	h.HandleLogin(rec.ResponseRecorder, testutil.NewJSONRequest(http.MethodPost, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "whatever",
	}))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "invalid email or password")
}

func TestMe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	user := fx.CreateUser(ctx, "Anna Nowak", "anna@example.com")

	h := newHandler(t, db)
	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/auth/me", testutil.AsTestUser(user))
	rec := testutil.NewRecorder()
	h.HandleMe(rec.ResponseRecorder, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "anna@example.com")
}
