package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/goalpeer/goalpeer/internal/app/features/health"
	"github.com/goalpeer/goalpeer/internal/testutil"
)

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), zap.NewNop())

	rec := testutil.NewRecorder()
	h.Serve(rec.ResponseRecorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec.AssertStatus(t, http.StatusOK)
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	rec.DecodeJSON(t, &body)
	if body.Status != "ok" || body.Database != "connected" {
		t.Errorf("body = %+v, want status ok and database connected", body)
	}
}
