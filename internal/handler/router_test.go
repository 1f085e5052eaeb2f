package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/repository"
	"github.com/noah-isme/lms-admin-gateway/internal/service"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	"github.com/noah-isme/lms-admin-gateway/pkg/config"
	"github.com/noah-isme/lms-admin-gateway/pkg/ratelimit"
)

const upstreamToken = "upstream-token"

// fakeUpstream plays the analytics API.
type fakeUpstream struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	reports  int
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := readAll(r)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	if r.URL.Path != "/auth/login" && !strings.HasPrefix(r.URL.Path, "/public") && !strings.HasPrefix(r.URL.Path, "/contact") {
		if r.Header.Get("Authorization") != "Bearer "+upstreamToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
			return
		}
	}

	switch r.Method + " " + r.URL.Path {
	case "POST /auth/login":
		if body != "password=secret1&username=admin" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		writeJSON(w, models.Token{AccessToken: upstreamToken, TokenType: "bearer"})
	case "GET /auth/me":
		writeJSON(w, models.UserInfo{FullName: "ada admin", Email: "ada@example.com"})
	case "GET /admin/students/stats":
		writeJSON(w, models.StudentStats{TotalStudents: 2, ActiveStudents: 2})
	case "GET /admin/students":
		writeJSON(w, models.Page[models.Student]{Total: 2, Page: 1, Size: 10, Pages: 1, Items: []models.Student{
			{ID: 1, Name: "Ama", Email: "ama@example.com", Status: "active", TotalQuizzes: 3, AvgScore: 40},
			{ID: 2, Name: "Kojo", Email: "kojo@example.com", Status: "active", TotalQuizzes: 3, AvgScore: 88},
		}})
	case "GET /admin/reports/stats":
		writeJSON(w, models.ReportStats{})
	case "GET /admin/reports":
		f.mu.Lock()
		f.reports++
		f.mu.Unlock()
		writeJSON(w, models.Page[models.QuestionReport]{Total: 0, Page: 1, Size: 10, Pages: 0, Items: []models.QuestionReport{}})
	case "PUT /admin/reports/7":
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	case "GET /admin/dashboard/stats":
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"stats offline"}`))
	case "GET /admin/dashboard/recent-activity":
		writeJSON(w, []models.RecentActivity{})
	case "GET /admin/system/status":
		writeJSON(w, models.SystemStatus{DatabaseStatus: "ok", APIStatus: "ok"})
	case "GET /logs/":
		writeJSON(w, []string{"app.log"})
	case "GET /logs/app.log":
		_, _ = w.Write([]byte("line one\nline two\n"))
	case "GET /public/stats":
		writeJSON(w, models.PublicStats{TotalStudents: 120})
	case "POST /contact/":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	case "GET /contact/success":
		writeJSON(w, models.ContactSuccess{Message: "Thanks, we will be in touch."})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
	}
}

func (f *fakeUpstream) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method && r.URL.Path == path {
			n++
		}
	}
	return n
}

func readAll(r *http.Request) (string, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r.Body)
	return buf.String(), err
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type gateway struct {
	router   *gin.Engine
	upstream *fakeUpstream
	registry *service.ControllerRegistry
}

func newGateway(t *testing.T, limits Limits) *gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &fakeUpstream{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	logr := zap.NewNop()
	metrics := service.NewMetricsService()
	client := upstream.New(upstream.Config{BaseURL: srv.URL, Logger: logr, Metrics: metrics})
	validate := service.NewValidator()
	sessions := repository.NewMemorySessionRepository(time.Now)

	auth := service.NewAuthService(client, sessions, validate, logr, service.AuthConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "test"})
	registry := service.NewControllerRegistry(client, service.ControllerOptions{
		PageSize:      10,
		RetryAttempts: 1,
		Logger:        logr,
		Observer:      metrics,
		Validator:     validate,
	}, metrics)
	auth.OnLogout(registry.Drop)

	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"}
	svc := Services{
		Auth:      auth,
		Registry:  registry,
		Dashboard: service.NewDashboardService(client, service.RetryPolicy{Attempts: 1}, logr),
		Reports:   service.NewReportService(client, registry, validate, logr),
		Logs:      service.NewLogsService(client, true),
		Settings:  service.NewSettingsService(client, logr),
		Contact:   service.NewContactService(client, logr),
		Public:    service.NewPublicService(client, service.NewCacheService(repository.NewMemoryCacheRepository(time.Now), metrics, time.Minute, logr)),
		Exports:   service.NewExportService(registry, true, logr),
		Metrics:   metrics,
	}
	return &gateway{router: NewRouter(cfg, svc, limits, logr), upstream: fake, registry: registry}
}

func (g *gateway) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)
	return w
}

func (g *gateway) login(t *testing.T) string {
	t.Helper()
	resp := g.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "secret1"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var env struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data.Token)
	assert.Equal(t, "A", env.Data.User.AvatarInitial)
	return env.Data.Token
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *envelopeError         `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func noLimits() Limits {
	return Limits{}
}

func TestHealthAndReady(t *testing.T) {
	g := newGateway(t, noLimits())
	assert.Equal(t, http.StatusOK, g.do(http.MethodGet, "/health", "", nil).Code)
	resp := g.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"ready"`)
	metrics := g.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "goroutines_total")
}

func TestLoginValidatesBeforeCallingUpstream(t *testing.T) {
	g := newGateway(t, noLimits())
	resp := g.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "ad", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env := decode(t, resp)
	require.NotNil(t, env.Meta)
	assert.Contains(t, env.Meta, "fields")
	assert.Zero(t, g.upstream.count(http.MethodPost, "/auth/login"))
}

func TestLoginWithWrongPasswordIsUnauthorized(t *testing.T) {
	g := newGateway(t, noLimits())
	resp := g.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Incorrect username or password")
}

func TestAdminRoutesRequireSession(t *testing.T) {
	g := newGateway(t, noLimits())
	for _, path := range []string{"/api/v1/auth/me", "/api/v1/admin/students", "/api/v1/admin/dashboard", "/api/v1/admin/settings"} {
		resp := g.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
	assert.Zero(t, len(g.upstream.requests), "no upstream traffic without a session")
}

func TestMeAndLogout(t *testing.T) {
	g := newGateway(t, noLimits())
	token := g.login(t)

	resp := g.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"isAuthenticated":true`)
	assert.Contains(t, resp.Body.String(), `"full_name":"ada admin"`)

	_ = g.do(http.MethodGet, "/api/v1/admin/students", token, nil)
	assert.Equal(t, 1, g.registry.Len())

	resp = g.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Zero(t, g.registry.Len(), "logout drops page state")

	resp = g.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestStudentsTableSearchesLocally(t *testing.T) {
	g := newGateway(t, noLimits())
	token := g.login(t)

	resp := g.do(http.MethodGet, "/api/v1/admin/students", token, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode(t, resp)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.TotalCount)

	var view service.View[models.StudentStats, models.Student]
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.Table.Rows, 2)
	assert.Contains(t, view.Warnings, "row 1: Ama has an average score below 50")

	resp = g.do(http.MethodGet, "/api/v1/admin/students?q=kojo&sort=avg_score", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &view))
	require.Len(t, view.Table.Rows, 1)
	assert.Equal(t, "Kojo", view.Table.Rows[0].Name)
	assert.Equal(t, "avg_score", view.Sort.Key)

	assert.Equal(t, 1, g.upstream.count(http.MethodGet, "/admin/students/stats"))
	assert.Equal(t, 2, g.upstream.count(http.MethodGet, "/admin/students"), "sort refetches, search does not")
}

func TestTableRejectsBadQuery(t *testing.T) {
	g := newGateway(t, noLimits())
	token := g.login(t)

	resp := g.do(http.MethodGet, "/api/v1/admin/students?page=two&sort_dir=up&size=1000", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env := decode(t, resp)
	fields, ok := env.Meta["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "page")
	assert.Contains(t, fields, "sort_dir")
	assert.Contains(t, fields, "size")

	resp = g.do(http.MethodGet, "/api/v1/admin/students?q="+url.QueryEscape(strings.Repeat("a", 1001)), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestReportsEmptyStateAndStatusUpdate(t *testing.T) {
	g := newGateway(t, noLimits())
	token := g.login(t)

	resp := g.do(http.MethodGet, "/api/v1/admin/reports?status=open", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"state":"no_data"`)
	assert.Contains(t, resp.Body.String(), `"status":"open"`)

	resp = g.do(http.MethodPut, "/api/v1/admin/reports/7", token, map[string]string{"status": "open"})
	assert.Equal(t, http.StatusBadRequest, resp.Code, "open is not a resolution")

	resp = g.do(http.MethodPut, "/api/v1/admin/reports/abc", token, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = g.do(http.MethodPut, "/api/v1/admin/reports/7", token, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	_ = g.do(http.MethodGet, "/api/v1/admin/reports", token, nil)
	assert.Equal(t, 2, g.upstream.reports, "status change invalidates the list")
}

func TestDashboardReportsPanelFailuresInline(t *testing.T) {
	g := newGateway(t, noLimits())
	token := g.login(t)

	resp := g.do(http.MethodGet, "/api/v1/admin/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var view service.DashboardView
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &view))
	assert.Equal(t, "Failed to load dashboard stats: stats offline", view.StatsError)
	assert.Empty(t, view.ActivityError)
}

func TestExportStudentsCSV(t *testing.T) {
	g := newGateway(t, noLimits())
	token := g.login(t)

	resp := g.do(http.MethodGet, "/api/v1/admin/students/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Body.String(), "Ama")

	resp = g.do(http.MethodGet, "/api/v1/admin/students/export?format=xlsx", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogsRoutes(t *testing.T) {
	g := newGateway(t, noLimits())
	token := g.login(t)

	resp := g.do(http.MethodGet, "/api/v1/admin/logs", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "app.log")

	resp = g.do(http.MethodGet, "/api/v1/admin/logs/app.log?format=text", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "line one\nline two\n", resp.Body.String())

	resp = g.do(http.MethodGet, "/api/v1/admin/logs/..app.log", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, g.upstream.count(http.MethodGet, "/logs/..app.log"))
}

func TestSettingsRoundTrip(t *testing.T) {
	g := newGateway(t, noLimits())
	token := g.login(t)

	resp := g.do(http.MethodGet, "/api/v1/admin/settings", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"system_status"`)
	assert.Contains(t, resp.Body.String(), `"siteName":"UMaT Adaptive Learning Platform"`)

	next := models.DefaultSettings()
	next.SessionTimeout = 5
	resp = g.do(http.MethodPut, "/api/v1/admin/settings", token, next)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var res service.SettingsResult
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &res))
	assert.Equal(t, 5, res.Settings.SessionTimeout)
	assert.NotEmpty(t, res.Warnings)

	next.SiteName = ""
	resp = g.do(http.MethodPut, "/api/v1/admin/settings", token, next)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPublicAndContact(t *testing.T) {
	g := newGateway(t, noLimits())

	resp := g.do(http.MethodGet, "/api/v1/public/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total_students":120`)
	assert.Contains(t, resp.Body.String(), `"cache_hit":false`)

	resp = g.do(http.MethodGet, "/api/v1/public/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"cache_hit":true`)
	assert.Equal(t, 1, g.upstream.count(http.MethodGet, "/public/stats"))

	bad := "12345"
	resp = g.do(http.MethodPost, "/api/v1/contact", "", models.ContactMessage{
		Name: "Ama", Email: "ama@example.com", Subject: "Access", Message: "Please reset my access.", WhatsappNumber: &bad,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid WhatsApp number format")
	assert.Zero(t, g.upstream.count(http.MethodPost, "/contact/"))

	good := "050 123 4567"
	resp = g.do(http.MethodPost, "/api/v1/contact", "", models.ContactMessage{
		Name: "Ama", Email: "ama@example.com", Subject: "Access", Message: "Please reset my access.", WhatsappNumber: &good,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "Thanks, we will be in touch.")
}

func TestLoginRateLimit(t *testing.T) {
	g := newGateway(t, Limits{Login: ratelimit.New(2, time.Minute)})
	body := map[string]string{"username": "admin", "password": "wrong-pass"}

	for i := 0; i < 2; i++ {
		resp := g.do(http.MethodPost, "/api/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	resp := g.do(http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
	assert.Equal(t, 2, g.upstream.count(http.MethodPost, "/auth/login"))
}
