package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
	"github.com/noah-isme/lms-admin-gateway/pkg/export"
)

func TestDashboardLoadsPanelsIndependently(t *testing.T) {
	api := newFakeAPI().
		on("GET", "/admin/dashboard/stats", reply([]models.DashboardStat{{Title: "Students", Value: "120", Trend: "up"}})).
		on("GET", "/admin/dashboard/recent-activity", fail(errors.New("feed offline")))
	svc := NewDashboardService(api, RetryPolicy{Attempts: 2, Sleep: noSleep}, nil)

	view, err := svc.Load(authed("tok"))
	require.NoError(t, err)
	require.Len(t, view.Stats, 1)
	assert.Equal(t, "120", view.Stats[0].Value)
	assert.Empty(t, view.StatsError)
	assert.Empty(t, view.RecentActivity)
	assert.Equal(t, "Failed to load recent activity: feed offline", view.ActivityError)
	assert.Len(t, api.callsTo("GET", "/admin/dashboard/recent-activity"), 2, "failed panel is retried")
}

func TestReportUpdateStatus(t *testing.T) {
	api := newFakeAPI().
		on("PUT", "/admin/reports/7", reply(map[string]string{"status": "resolved"})).
		on("GET", "/admin/reports/stats", reply(models.ReportStats{})).
		on("GET", "/admin/reports", reply(models.Page[models.QuestionReport]{Page: 1, Pages: 1}))
	reg := NewControllerRegistry(api, testControllerOptions(), nil)
	svc := NewReportService(api, reg, nil, nil)

	_, err := reg.For("s1").Reports.Load(authed("tok"), false)
	require.NoError(t, err)

	err = svc.UpdateStatus(authed("tok"), "s1", 7, "open")
	require.Error(t, err)
	fields, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields["status"], "resolved dismissed")
	assert.Empty(t, api.callsTo("PUT", "/admin/reports/7"))

	require.NoError(t, svc.UpdateStatus(authed("tok"), "s1", 7, "resolved"))
	puts := api.callsTo("PUT", "/admin/reports/7")
	require.Len(t, puts, 1)
	assert.Equal(t, models.UpdateReportStatusRequest{Status: "resolved"}, puts[0].Body)

	_, err = reg.For("s1").Reports.Load(authed("tok"), false)
	require.NoError(t, err)
	assert.Len(t, api.callsTo("GET", "/admin/reports"), 2, "update invalidates the list")

	assert.ErrorIs(t, svc.UpdateStatus(authed("tok"), "s1", 0, "resolved"), appErrors.ErrValidation)
}

func TestLogsService(t *testing.T) {
	api := newFakeAPI().
		on("GET", "/logs/", reply([]string{"app.log", "error.log"})).
		on("GET", "/logs/app.log", fakeResponse{text: "INFO started\n"})
	svc := NewLogsService(api, true)

	files, err := svc.List(authed("tok"))
	require.NoError(t, err)
	assert.Equal(t, []string{"app.log", "error.log"}, files)

	file, err := svc.Read(authed("tok"), "app.log")
	require.NoError(t, err)
	assert.Equal(t, "INFO started\n", file.Content)

	_, err = svc.Read(authed("tok"), "../etc/passwd")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Len(t, api.callsTo("GET", "/logs/app.log"), 1)

	_, err = NewLogsService(api, false).List(authed("tok"))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestContactSubmit(t *testing.T) {
	api := newFakeAPI().
		on("POST", "/contact/", reply(map[string]int{"id": 1})).
		on("GET", "/contact/success", reply(models.ContactSuccess{Message: "Thanks, we will be in touch."}))
	svc := NewContactService(api, nil)

	bad := "12345"
	_, err := svc.Submit(authed(""), models.ContactMessage{Name: "A", Email: "nope", Subject: "Hi", Message: "short", WhatsappNumber: &bad})
	require.Error(t, err)
	fields, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid WhatsApp number format (e.g., 0501234567)", fields["whatsapp_number"])
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "subject")
	assert.Contains(t, fields, "message")
	assert.Zero(t, api.total())

	number := "050 123 4567"
	ok2, err := svc.Submit(authed(""), models.ContactMessage{
		Name:           "Ama Owusu",
		Email:          "ama@example.com",
		Subject:        "Course access",
		Message:        "I cannot open the <b>quiz</b> page.",
		WhatsappNumber: &number,
	})
	require.NoError(t, err)
	assert.Equal(t, "Thanks, we will be in touch.", ok2.Message)

	posts := api.callsTo("POST", "/contact/")
	require.Len(t, posts, 1)
	payload := posts[0].Body.(models.ContactMessage)
	assert.Equal(t, "I cannot open the &lt;b&gt;quiz&lt;&#x2F;b&gt; page.", payload.Message)
	assert.Nil(t, payload.TelegramUsername)
	require.NotNil(t, payload.WhatsappNumber)
	assert.Empty(t, posts[0].Token, "contact is public")
}

func TestSettingsSave(t *testing.T) {
	api := newFakeAPI().on("GET", "/admin/system/status", reply(models.SystemStatus{DatabaseStatus: "ok", APIStatus: "ok"}))
	svc := NewSettingsService(api, nil)
	assert.Equal(t, models.DefaultSettings(), svc.Get())

	bad := models.DefaultSettings()
	bad.SiteName = "ab"
	bad.SessionTimeout = 1000
	_, err := svc.Save(authed("tok"), bad)
	require.Error(t, err)
	fields, ok := AsFieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "siteName")
	assert.Contains(t, fields, "sessionTimeout")
	assert.Equal(t, models.DefaultSettings(), svc.Get(), "invalid settings are not stored")

	next := models.DefaultSettings()
	next.SessionTimeout = 5
	next.PasswordMinLength = 6
	res, err := svc.Save(authed("tok"), next)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, 5, svc.Get().SessionTimeout)

	status, err := svc.Status(authed("tok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", status.APIStatus)
}

func TestPublicService(t *testing.T) {
	api := newFakeAPI().
		on("GET", "/public/stats", reply(models.PublicStats{TotalStudents: 300})).
		on("GET", "/public/recent-activity", fail(appErrors.UpstreamStatus(http.StatusServiceUnavailable, "maintenance")))
	svc := NewPublicService(api, nil)

	stats, hit, err := svc.Stats(authed(""))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 300, stats.TotalStudents)

	_, _, err = svc.RecentActivity(authed(""))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
}

type memoryCache struct {
	values map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	m.values[key] = raw
	return err
}

type cacheCounter struct{ hits, misses int }

func (c *cacheCounter) ObserveCache(hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func TestPublicServiceCachesSuccessfulReads(t *testing.T) {
	api := newFakeAPI().
		on("GET", "/public/stats", reply(models.PublicStats{TotalStudents: 300})).
		on("GET", "/public/recent-activity",
			fail(errors.New("feed offline")),
			reply([]models.PublicRecentActivity{{CourseName: "Algebra", ActiveStudents: 12}}))
	counter := &cacheCounter{}
	cache := NewCacheService(&memoryCache{values: map[string][]byte{}}, counter, time.Minute, nil)
	svc := NewPublicService(api, cache)

	_, hit, err := svc.Stats(authed(""))
	require.NoError(t, err)
	assert.False(t, hit)
	stats, hit, err := svc.Stats(authed(""))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 300, stats.TotalStudents)
	assert.Len(t, api.callsTo("GET", "/public/stats"), 1)

	_, _, err = svc.RecentActivity(authed(""))
	require.Error(t, err)
	items, hit, err := svc.RecentActivity(authed(""))
	require.NoError(t, err, "failures are not cached")
	assert.False(t, hit)
	require.Len(t, items, 1)
	assert.Equal(t, "Algebra", items[0].CourseName)

	assert.Equal(t, 1, counter.hits)
	assert.Equal(t, 3, counter.misses)
}

func TestExportRendersVisibleRows(t *testing.T) {
	api := studentsAPI()
	reg := NewControllerRegistry(api, testControllerOptions(), nil)
	svc := NewExportService(reg, true, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 5, 0, time.UTC) }

	reg.For("s1").Students.SetSearch("kojo")
	file, err := svc.Export(authed("tok"), "s1", ResourceStudents, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "students-20240501-083005.csv", file.Name)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Student,Email"))
	assert.True(t, strings.HasPrefix(lines[1], "Kojo,kojo@example.com"))

	_, err = svc.Export(authed("tok"), "s1", "teachers", export.FormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = NewExportService(reg, false, nil).Export(authed("tok"), "s1", ResourceStudents, export.FormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportFailsWhenListFails(t *testing.T) {
	api := newFakeAPI().on("GET", "/admin/courses", fail(errors.New("down")))
	reg := NewControllerRegistry(api, testControllerOptions(), nil)
	_, err := NewExportService(reg, true, nil).Export(authed("tok"), "s1", ResourceCourses, export.FormatPDF)
	require.Error(t, err)
	assert.Equal(t, "Failed to load courses: down", appErrors.Message(err))
}

func TestFormSchemasLoad(t *testing.T) {
	for _, name := range []string{"login", "contact", "settings"} {
		schema, err := FormSchema(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, schema)
	}
	_, err := FormSchema("missing")
	assert.Error(t, err)

	check := formCustoms["whatsapp_number"]
	assert.Empty(t, check(""))
	assert.Empty(t, check("0501234567"))
	assert.Empty(t, check(" 050 123 4567 "))
	assert.NotEmpty(t, check("5501234567"))
	assert.NotEmpty(t, check("050123456"))
}

func TestMetricsServiceObserves(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/api/v1/admin/students", 200, time.Millisecond)
	m.ObserveUpstreamRequest("GET", "/admin/students", 0, time.Millisecond)
	m.ObserveAttempt("students_list", 1, errors.New("x"))
	m.ObserveAttempt("students_list", 2, nil)
	m.ObserveRateLimited("login")
	m.SetActiveSessions(3)
	m.ObserveCache(true)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"http_requests_total", "upstream_requests_total", "async_operation_attempts_total",
		"async_operation_attempt_failures_total", "async_operation_retries_total", "rate_limited_requests_total", "active_page_sessions", "cache_requests_total"} {
		assert.True(t, names[want], want)
	}

	var nilMetrics *MetricsService
	nilMetrics.ObserveAttempt("x", 1, nil)
	assert.NotNil(t, nilMetrics.Handler())
}
