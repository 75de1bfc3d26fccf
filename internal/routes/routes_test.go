package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/booking"
	"github.com/abic-consultancy/abic_backend/internal/config"
	"github.com/abic-consultancy/abic_backend/internal/controllers"
	"github.com/abic-consultancy/abic_backend/internal/database"
	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/notify"
	"github.com/abic-consultancy/abic_backend/internal/upload"
	"github.com/abic-consultancy/abic_backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := controllers.RegisterValidators(); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		JWTSecret:           "access-secret",
		RefreshJWTSecret:    "refresh-secret",
		AdminEmail:          "admin@abic.ph",
		AdminPassword:       "admin-pass",
		AdminFullName:       "Admin",
		MediaBaseURL:        "/media",
		UploadChunkSize:     1024,
		UploadMaxSize:       1 << 20,
		BookingTimezone:     "UTC",
		BookingOpenHour:     9,
		BookingCloseHour:    17,
		BookingSlotMinutes:  60,
		PublicRatePerSecond: 100,
		PublicRateBurst:     100,
		CORSOrigins:         "https://abic.ph",
	}
}

type testServer struct {
	db  *gorm.DB
	cfg *config.Config
	r   *gin.Engine
}

func newTestServer(t *testing.T, mutate func(*config.Config, *Deps)) *testServer {
	t.Helper()
	cfg := testConfig()
	db := database.OpenTestDB(t)
	require.NoError(t, database.SeedAdmin(db, cfg))

	hashed, err := utils.HashPassword("editor-pass")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{FullName: "Ed", Email: "editor@abic.ph", Password: hashed, Role: models.RoleEditor, Active: true}).Error)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC))
	uploads, err := upload.NewManager(upload.NewMemoryStore(clock), upload.Options{
		Dir:       t.TempDir(),
		ChunkSize: cfg.UploadChunkSize,
		MaxSize:   cfg.UploadMaxSize,
		Clock:     clock,
	})
	require.NoError(t, err)

	d := Deps{
		DB:       db,
		Cfg:      cfg,
		Uploads:  uploads,
		Planner:  booking.NewPlanner(clock, time.UTC, booking.Hours{Open: 9, Close: 17, SlotMinutes: 60}),
		Notifier: &notify.Dispatcher{Publisher: notify.NoopPublisher{}},
		Clock:    clock,
	}
	if mutate != nil {
		mutate(cfg, &d)
	}
	return &testServer{db: db, cfg: cfg, r: NewRouter(d)}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}

func (s *testServer) login(t *testing.T, email, password string) loginResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@abic.ph", "password": "wrong"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin"}).Code)

	tokens := s.login(t, " ADMIN@abic.ph ", "admin-pass")
	assert.Equal(t, models.RoleAdmin, tokens.Role)

	w := s.do(t, http.MethodGet, "/api/auth/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@abic.ph")
	assert.NotContains(t, w.Body.String(), "admin-pass")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", "garbage", nil).Code)
	// refresh tokens are signed with a different secret
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", tokens.RefreshToken, nil).Code)

	w = s.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rotated loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// the old refresh token cannot be replayed
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken}).Code)

	w = s.do(t, http.MethodPost, "/api/auth/logout", rotated.AccessToken, map[string]any{"refresh_token": rotated.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": rotated.RefreshToken}).Code)
}

func TestLogoutAll(t *testing.T) {
	s := newTestServer(t, nil)
	first := s.login(t, "editor@abic.ph", "editor-pass")
	second := s.login(t, "editor@abic.ph", "editor-pass")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/auth/logout", first.AccessToken, map[string]any{"all": true}).Code)
	for _, tok := range []string{first.RefreshToken, second.RefreshToken} {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": tok}).Code)
	}
}

func TestInactiveUserIsLockedOut(t *testing.T) {
	s := newTestServer(t, nil)
	tokens := s.login(t, "editor@abic.ph", "editor-pass")
	require.NoError(t, s.db.Model(&models.User{}).Where("email = ?", "editor@abic.ph").Update("active", false).Error)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", tokens.AccessToken, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "editor@abic.ph", "password": "editor-pass"}).Code)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, "admin@abic.ph", "admin-pass")
	editor := s.login(t, "editor@abic.ph", "editor-pass")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/admin/contact", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/admin/contact", editor.AccessToken, nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/admin/users", editor.AccessToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/api/admin/settings/site_phone", editor.AccessToken, map[string]string{"value": "x"}).Code)

	w := s.do(t, http.MethodGet, "/api/admin/users", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users.Data, 2)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, "admin@abic.ph", "admin-pass")

	w := s.do(t, http.MethodPut, "/api/admin/settings/site_phone", admin.AccessToken, map[string]any{"value": "+63 2 8123 4567", "public": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPut, "/api/admin/settings/smtp_note", admin.AccessToken, map[string]any{"value": "internal"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodPut, "/api/admin/settings/site_phone", admin.AccessToken, map[string]any{"value": "+63 2 8999 0000"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/admin/settings/Bad%20Key!", admin.AccessToken, map[string]any{"value": "x"}).Code)

	w = s.do(t, http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pub struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pub))
	assert.Equal(t, map[string]string{"site_phone": "+63 2 8999 0000"}, pub.Data)

	w = s.do(t, http.MethodGet, "/api/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"chunk_size":1024`)
}

func TestPublicSubmissionsAreRateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config, _ *Deps) {
		cfg.PublicRatePerSecond = 0.001
		cfg.PublicRateBurst = 2
	})
	body := map[string]string{"name": "Ana", "email": "ana@example.com", "message": "hello"}
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/contact", "", body).Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/contact", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/api/contact", "", body).Code)

	// reads are not limited
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/announcements", "", nil).Code)
}

func TestSubmissionVisibleToStaff(t *testing.T) {
	s := newTestServer(t, nil)
	editor := s.login(t, "editor@abic.ph", "editor-pass")

	w := s.do(t, http.MethodPost, "/api/consultations", "", map[string]string{
		"full_name":         "Jose",
		"email":             "jose@example.com",
		"phone":             "+63 917 123 4567",
		"service":           "Payroll",
		"consultation_date": "2026-06-11",
		"time_slot":         "09:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/admin/consultations?q=jose", editor.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = s.do(t, http.MethodGet, "/api/consultations/availability?date=2026-06-11", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `{"time":"09:00","available":false,"reason":"booked"}`)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "", nil).Code)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	down := newTestServer(t, func(_ *config.Config, d *Deps) {
		d.Redis = func(context.Context) error { return errors.New("connection refused") }
	})
	w = down.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://abic.ph")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://abic.ph", w.Header().Get("Access-Control-Allow-Origin"))
}
