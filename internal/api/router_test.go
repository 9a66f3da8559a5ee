package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salon-scheduler/backend/internal/api/handlers"
	"github.com/salon-scheduler/backend/internal/feed"
	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/storage/models"
	"github.com/salon-scheduler/backend/internal/token"
)

type apiFixture struct {
	db      *storage.DB
	router  http.Handler
	limiter *token.MemoryLimiter

	staffID string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))

	manager, err := token.NewManager([]byte("test-hash-key"), []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	limiter := token.NewMemoryLimiter(100, time.Minute)

	f := &apiFixture{
		db:      db,
		limiter: limiter,
		router: NewRouter(Config{
			DB:           db,
			Hub:          nil,
			StaticDir:    t.TempDir(),
			TokenManager: manager,
			FeedLimiter:  limiter,
		}),
	}

	staff := &models.Staff{Name: "Alex Kim", Email: "alex@example.com", Role: models.RoleStylist, Active: true}
	require.NoError(t, storage.NewStaffRepository(db).Create(context.Background(), staff))
	f.staffID = staff.ID

	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:51234"
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) mintToken(t *testing.T) handlers.MintTokenResponse {
	t.Helper()

	w := f.do(t, "POST", "/api/staff/"+f.staffID+"/feed-token", handlers.MintTokenRequest{})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp handlers.MintTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (f *apiFixture) bookAppointment(t *testing.T) {
	t.Helper()

	customer := &models.Customer{FirstName: "Dana", LastName: "Reeves"}
	require.NoError(t, storage.NewCustomerRepository(f.db).Create(context.Background(), customer))

	_, err := f.db.Exec(`
		INSERT INTO services (id, name, duration_min, price_cents)
		VALUES ('svc-1', 'Balayage', 90, 18000)
	`)
	require.NoError(t, err)

	starts := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	appt := &models.Appointment{
		StaffID:    f.staffID,
		CustomerID: customer.ID,
		ServiceID:  "svc-1",
		StartsAt:   starts,
		EndsAt:     starts.Add(90 * time.Minute),
		Status:     models.AppointmentConfirmed,
	}
	require.NoError(t, storage.NewAppointmentRepository(f.db).Create(context.Background(), appt))
}

func TestMintTokenReturnsSecretOnce(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.mintToken(t)
	assert.True(t, token.ValidTokenFormat(resp.Token))
	assert.Equal(t, string(models.FeedKindICalPull), resp.FeedKind)
	assert.Contains(t, resp.FeedURL, resp.Token)
	assert.False(t, resp.ExpiresAt.IsZero())

	// The listing endpoint never exposes secrets or hashes.
	w := f.do(t, "GET", "/api/staff/"+f.staffID+"/feed-tokens", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), resp.Token)
	assert.NotContains(t, w.Body.String(), "token_hash")
}

func TestFeedEndToEnd(t *testing.T) {
	f := newAPIFixture(t)
	f.bookAppointment(t)

	resp := f.mintToken(t)

	w := f.do(t, "GET", resp.FeedURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")

	document := w.Body.String()
	assert.True(t, strings.HasPrefix(document, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, document, "SUMMARY:Balayage - Dana Reeves")

	result := feed.Validate(document)
	assert.True(t, result.Valid, "feed should validate: %v", result.Errors)
}

func TestFeedRejectsMalformedToken(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, "GET", "/calendar/ical/staff-feed?token=not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, "GET", "/calendar/ical/staff-feed", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeedRejectsUnknownToken(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, "GET", "/calendar/ical/staff-feed?token="+strings.Repeat("ab", 32), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeedRejectsRevokedToken(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.mintToken(t)

	w := f.do(t, "DELETE", "/api/staff/"+f.staffID+"/feed-token", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", resp.FeedURL, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeedRejectsPushKindToken(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, "POST", "/api/staff/"+f.staffID+"/feed-token",
		handlers.MintTokenRequest{FeedKind: string(models.FeedKindProviderPush)})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp handlers.MintTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, string(models.FeedKindProviderPush), resp.FeedKind)

	// A push credential is scoped to provider sync; it never authenticates
	// the anonymous pull feed.
	w = f.do(t, "GET", "/calendar/ical/staff-feed?token="+resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeedExpiredTokenIsGone(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.mintToken(t)

	past := time.Now().UTC().Add(-time.Hour)
	_, err := f.db.Exec("UPDATE calendar_tokens SET expires_at = ? WHERE id = ?", past, resp.ID)
	require.NoError(t, err)

	w := f.do(t, "GET", resp.FeedURL, nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestFeedRemintInvalidatesOldToken(t *testing.T) {
	f := newAPIFixture(t)

	first := f.mintToken(t)
	second := f.mintToken(t)

	w := f.do(t, "GET", first.FeedURL, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, "GET", second.FeedURL, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFeedRateLimited(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.mintToken(t)

	// Replace the router with a tight limit for this test.
	manager, err := token.NewManager([]byte("test-hash-key"), []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	f.router = NewRouter(Config{
		DB:           f.db,
		StaticDir:    t.TempDir(),
		TokenManager: manager,
		FeedLimiter:  token.NewMemoryLimiter(2, time.Minute),
	})

	for i := 0; i < 2; i++ {
		w := f.do(t, "GET", resp.FeedURL, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := f.do(t, "GET", resp.FeedURL, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestMintTokenUnknownStaff(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, "POST", "/api/staff/missing/feed-token", handlers.MintTokenRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRevokeWithoutActiveToken(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, "DELETE", "/api/staff/"+f.staffID+"/feed-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaffCRUD(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, "POST", "/api/staff", handlers.StaffRequest{Name: "Sam Ode", Email: "sam@example.com", Role: models.RoleColorist})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Staff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.do(t, "GET", "/api/staff/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "PUT", "/api/staff/"+created.ID, handlers.StaffRequest{Name: "Sam Odell"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Staff
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Sam Odell", updated.Name)
	assert.Equal(t, models.RoleColorist, updated.Role)

	w = f.do(t, "DELETE", "/api/staff/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "GET", "/api/staff/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, "POST", "/api/appointments", handlers.AppointmentRequest{StaffID: f.staffID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db_connected":true`)
}
