package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpovs/crewtally/internal/logging"
	"github.com/mkarpovs/crewtally/internal/server/areas"
	"github.com/mkarpovs/crewtally/internal/server/backup"
	"github.com/mkarpovs/crewtally/internal/server/designations"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/ledger"
	"github.com/mkarpovs/crewtally/internal/server/models"
	"github.com/mkarpovs/crewtally/internal/server/session"
	"github.com/mkarpovs/crewtally/internal/server/users"
)

// newTestRouter wires a full server over an in-memory store with an admin
// ("anna"), a scoped user ("bob", Hall A only) and two areas.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := docstore.NewMemoryStore()
	us := users.NewService(store)
	sm := session.NewManager(store, us, 0, 0)
	idx := designations.NewIndex(store)
	ls := ledger.NewService(store, sm, idx)
	as := areas.NewService(store, us, ls, idx)
	bs := backup.NewService(store)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv := NewServer(":0", logger, store, sm, us, as, ls, idx, bs,
		backup.S3Options{}, "test-secret", time.Hour)

	ctx := context.Background()
	_, err := us.CreateFirstAdmin(ctx, "anna", "secret123")
	require.NoError(t, err)
	_, err = us.Create(ctx, "bob", "hunter22", models.RoleUser, []string{"Hall A"})
	require.NoError(t, err)
	require.NoError(t, as.Add(ctx, "Hall A"))
	require.NoError(t, as.Add(ctx, "Hall B"))

	return srv.Router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{"username": "anna", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// unknown user is indistinguishable from a wrong password
	w = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{"username": "ghost", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_LockoutAfterFiveFailures(t *testing.T) {
	r := newTestRouter(t)

	for i := 0; i < 5; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{"username": "anna", "password": "wrong"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// correct credentials are refused while the cooldown is armed
	w := doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{"username": "anna", "password": "secret123"})
	require.Equal(t, http.StatusLocked, w.Code)

	var resp struct {
		RemainingMinutes int `json:"remainingMinutes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.RemainingMinutes)
}

func TestMe_RequiresToken(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, r, "anna", "secret123")
	w = doJSON(t, r, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me userView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "anna", me.UserName)
	assert.Equal(t, models.RoleAdmin, me.Role)
}

func TestAuth_TokenRejectedAfterLogout(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	w := doJSON(t, r, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// token is still cryptographically valid, but the session is gone
	w = doJSON(t, r, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAreas_ScopedToAssignment(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "bob", "hunter22")

	w := doJSON(t, r, http.MethodGet, "/api/areas", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var visible []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &visible))
	assert.Equal(t, []string{"Hall A"}, visible)

	// area administration is admin only
	w = doJSON(t, r, http.MethodPost, "/api/areas", token, gin.H{"name": "Hall C"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAreas_DuplicateConflict(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	w := doJSON(t, r, http.MethodPost, "/api/areas", token, gin.H{"name": "Hall A"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRows_Lifecycle(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	w := doJSON(t, r, http.MethodPost, "/api/attendance/2026-08-28/areas/Hall%20A/rows", token, gin.H{"label": "Stage  Crew"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var row models.AttendanceRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, "stage crew", row.DesignationKey)
	assert.Equal(t, "Stage  Crew", row.DesignationLabel)
	assert.Nil(t, row.Present)

	w = doJSON(t, r, http.MethodPatch, "/api/attendance/2026-08-28/areas/Hall%20A/rows/stage%20crew", token,
		gin.H{"present": gin.H{"value": 7}, "confirmed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/attendance/2026-08-28/areas/Hall%20A/totals", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var totals ledger.Totals
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totals))
	assert.Equal(t, 7, totals.Total)
	assert.Equal(t, 1, totals.ConfirmedCount)
	assert.Equal(t, 1, totals.RowCount)

	w = doJSON(t, r, http.MethodGet, "/api/attendance/2026-08-28/audit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var audit []models.AuditEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &audit))
	require.Len(t, audit, 2)
	assert.Equal(t, models.FieldConfirmed, audit[0].Field)
	assert.Equal(t, models.FieldPresent, audit[1].Field)

	w = doJSON(t, r, http.MethodDelete, "/api/attendance/2026-08-28/areas/Hall%20A/rows/stage%20crew", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/attendance/2026-08-28/areas/Hall%20A/rows", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []*models.AttendanceRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Empty(t, rows)
}

func TestRows_RejectsBadPresentValues(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	w := doJSON(t, r, http.MethodPost, "/api/attendance/2026-08-28/areas/Hall%20A/rows", token, gin.H{"label": "Ushers"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/attendance/2026-08-28/areas/Hall%20A/rows/ushers", token,
		gin.H{"present": gin.H{"value": -1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/attendance/2026-08-28/areas/Hall%20A/rows/ushers", token,
		gin.H{"present": gin.H{"value": 2.5}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRows_AreaAccessDenied(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "bob", "hunter22")

	w := doJSON(t, r, http.MethodGet, "/api/attendance/2026-08-28/areas/Hall%20B/rows", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/attendance/2026-08-28/areas/Hall%20B/rows", token, gin.H{"label": "Ushers"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGrandTotal_UsesVisibleAreasOnly(t *testing.T) {
	r := newTestRouter(t)
	admin := login(t, r, "anna", "secret123")

	for area, n := range map[string]int{"Hall A": 4, "Hall B": 6} {
		w := doJSON(t, r, http.MethodPost, "/api/attendance/2026-08-28/areas/"+url.PathEscape(area)+"/rows", admin, gin.H{"label": "Ushers"})
		require.Equal(t, http.StatusCreated, w.Code)
		w = doJSON(t, r, http.MethodPatch, "/api/attendance/2026-08-28/areas/"+url.PathEscape(area)+"/rows/ushers", admin,
			gin.H{"present": gin.H{"value": n}})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/attendance/2026-08-28/total", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Total)

	// bob only sees Hall A
	scoped := login(t, r, "bob", "hunter22")
	w = doJSON(t, r, http.MethodGet, "/api/attendance/2026-08-28/total", scoped, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total)
}

func TestConfirmAll(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	w := doJSON(t, r, http.MethodPost, "/api/attendance/2026-08-28/areas/Hall%20A/rows", token, gin.H{"label": "Ushers"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPatch, "/api/attendance/2026-08-28/areas/Hall%20A/rows/ushers", token,
		gin.H{"present": gin.H{"value": 3}})
	require.Equal(t, http.StatusOK, w.Code)

	// no count yet, must be skipped
	w = doJSON(t, r, http.MethodPost, "/api/attendance/2026-08-28/areas/Hall%20A/rows", token, gin.H{"label": "Security"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/attendance/2026-08-28/confirm-all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Confirmed int `json:"confirmed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Confirmed)
}

func TestSuggest_ReturnsRecordedLabels(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	w := doJSON(t, r, http.MethodPost, "/api/attendance/2026-08-28/areas/Hall%20A/rows", token, gin.H{"label": "Stage Crew"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/designations/suggest?q=stage", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var suggestions []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestions))
	assert.Equal(t, []string{"Stage Crew"}, suggestions)
}

func TestUsers_AdminCRUD(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	// create without password returns a one-time temporary one
	w := doJSON(t, r, http.MethodPost, "/api/users", token, gin.H{"username": "carol", "areas": []string{"Hall B"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		User              userView `json:"user"`
		TemporaryPassword string   `json:"temporaryPassword"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "carol", created.User.UserName)
	assert.Equal(t, models.RoleUser, created.User.Role)
	assert.Len(t, created.TemporaryPassword, users.TempPasswordLength)

	w = doJSON(t, r, http.MethodPost, "/api/users", token, gin.H{"username": "carol"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/users/carol", token, gin.H{"disabled": true})
	require.Equal(t, http.StatusOK, w.Code)

	var updated userView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.True(t, updated.Disabled)

	// disabled accounts cannot log in
	w = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{"username": "carol", "password": created.TemporaryPassword})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/users/carol/reset-password", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []userView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 3)
}

func TestUsers_ForbiddenForNonAdmin(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "bob", "hunter22")

	w := doJSON(t, r, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBackup_ExportImportRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	w := doJSON(t, r, http.MethodGet, "/api/backup", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.Bytes()

	// drift the state, then restore
	w = doJSON(t, r, http.MethodPost, "/api/areas", token, gin.H{"name": "Hall C"})
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/backup", bytes.NewReader(exported))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/areas", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var visible []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &visible))
	assert.Equal(t, []string{"Hall A", "Hall B"}, visible)
}

func TestBackup_RejectsGarbage(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r, "anna", "secret123")

	req := httptest.NewRequest(http.MethodPost, "/api/backup", bytes.NewReader([]byte("not json")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
