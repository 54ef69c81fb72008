package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/repository/gormstore"
	"github.com/spec-kit/ticket-triage/internal/service"
)

type fixedClassifier string

func (f fixedClassifier) Classify(context.Context, string, string) string {
	return string(f)
}

type testServer struct {
	app      *fiber.App
	reporter domain.User
	admin    domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	lite, err := persistence.NewSQLite(filepath.Join(t.TempDir(), "api.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(lite.Close)
	require.NoError(t, gormstore.AutoMigrate(lite.DB))

	users := gormstore.NewUserRepository(lite.DB)
	tickets := gormstore.NewTicketRepository(lite.DB)
	metrics := observability.NewMetrics()

	ticketSvc := service.NewTicketService(service.TicketDependencies{
		TicketRepo: tickets,
		UserRepo:   users,
		Classifier: fixedClassifier("Bug Report"),
	})
	querySvc := service.NewQueryService(tickets, nil, metrics, zap.NewNop())
	userSvc := service.NewUserService(users)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second, "*")
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("ticket-triage", "test", lite, nil),
		Users:   handlers.NewUsersHandler(userSvc),
		Tickets: handlers.NewTicketsHandler(ticketSvc, querySvc, userSvc),
		Stats:   handlers.NewStatsHandler(querySvc),
		Metrics: metrics,
	})

	return &testServer{
		app:      app,
		reporter: addUser(t, users, "reporter@example.com", domain.UserRoleReporter),
		admin:    addUser(t, users, "admin@example.com", domain.UserRoleAdmin),
	}
}

func addUser(t *testing.T, repo repository.UserRepository, email string, role domain.UserRole) domain.User {
	t.Helper()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.Split(email, "@")[0],
		Role:         role,
		PasswordHash: "secret-hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(context.Background(), &user))
	return user
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func (s *testServer) createTicket(t *testing.T, title, priority string) map[string]any {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/tickets", map[string]any{
		"title":       title,
		"description": title + " details",
		"priority":    priority,
		"reporter_id": s.reporter.ID,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["data"].(map[string]any)
}

func errorOf(body map[string]any) map[string]any {
	return body["error"].(map[string]any)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "healthy", data["status"])
	_, err := time.Parse(time.RFC3339Nano, data["timestamp"].(string))
	assert.NoError(t, err)

	status, body = s.do(t, http.MethodGet, "/api/health/ready", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["data"].(map[string]any)["status"])
}

func TestListUsersHidesCredentials(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/users", nil)

	require.Equal(t, http.StatusOK, status)
	users := body["data"].([]any)
	require.Len(t, users, 2)
	for _, u := range users {
		user := u.(map[string]any)
		assert.NotContains(t, user, "password_hash")
		assert.Contains(t, []any{"reporter", "admin"}, user["role"])
	}
}

func TestCreateTicketEndpoint(t *testing.T) {
	s := newTestServer(t)

	ticket := s.createTicket(t, "Login broken", "high")

	assert.Equal(t, "open", ticket["status"])
	assert.Equal(t, "Bug Report", ticket["category"])
	assert.Nil(t, ticket["closed_at"])
	assert.Nil(t, ticket["assigned_admin"])
	reporter := ticket["reporter"].(map[string]any)
	assert.Equal(t, s.reporter.ID, reporter["id"])
	assert.Equal(t, "reporter@example.com", reporter["email"])
}

func TestCreateTicketValidationEndpoint(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{name: "missing title", body: map[string]any{"description": "d", "priority": "low", "reporter_id": s.reporter.ID}, field: "title"},
		{name: "bad priority", body: map[string]any{"title": "t", "description": "d", "priority": "urgent", "reporter_id": s.reporter.ID}, field: "priority"},
		{name: "admin as reporter", body: map[string]any{"title": "t", "description": "d", "priority": "low", "reporter_id": s.admin.ID}, field: "reporter_id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodPost, "/api/tickets", tc.body)
			require.Equal(t, http.StatusBadRequest, status)
			apiErr := errorOf(body)
			assert.Equal(t, "VALIDATION_FAILED", apiErr["code"])
			assert.Equal(t, tc.field, apiErr["details"].(map[string]any)["field"])
		})
	}

	status, body := s.do(t, http.MethodGet, "/api/tickets", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])
}

func TestListTicketsEndpointFilters(t *testing.T) {
	s := newTestServer(t)
	first := s.createTicket(t, "first", "low")
	second := s.createTicket(t, "second", "high")

	status, _ := s.do(t, http.MethodPut, "/api/tickets/"+second["id"].(string), map[string]any{
		"assigned_admin_id": s.admin.ID,
	})
	require.Equal(t, http.StatusOK, status)

	_, body := s.do(t, http.MethodGet, "/api/tickets?priority=low", nil)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, first["id"], items[0].(map[string]any)["id"])

	_, body = s.do(t, http.MethodGet, "/api/tickets?assigned_admin="+s.admin.ID, nil)
	items = body["data"].([]any)
	require.Len(t, items, 1)
	assigned := items[0].(map[string]any)
	assert.Equal(t, second["id"], assigned["id"])
	assert.Equal(t, s.admin.ID, assigned["assigned_admin"].(map[string]any)["id"])

	_, body = s.do(t, http.MethodGet, "/api/tickets?reporter_id="+s.reporter.ID+"&status=closed", nil)
	assert.Empty(t, body["data"])
}

func TestUpdateTicketEndpoint(t *testing.T) {
	s := newTestServer(t)
	ticket := s.createTicket(t, "Printer", "medium")
	path := "/api/tickets/" + ticket["id"].(string)

	status, body := s.do(t, http.MethodPut, path, map[string]any{"status": "closed", "assigned_admin_id": s.admin.ID})
	require.Equal(t, http.StatusOK, status)
	closed := body["data"].(map[string]any)
	assert.Equal(t, "closed", closed["status"])
	assert.NotNil(t, closed["closed_at"])
	assert.Equal(t, s.admin.ID, closed["assigned_admin_id"])

	status, body = s.do(t, http.MethodPatch, path, map[string]any{"status": "open", "assigned_admin_id": nil})
	require.Equal(t, http.StatusOK, status)
	reopened := body["data"].(map[string]any)
	assert.Nil(t, reopened["closed_at"])
	assert.Nil(t, reopened["assigned_admin_id"])
	assert.Nil(t, reopened["assigned_admin"])

	status, body = s.do(t, http.MethodPut, path, map[string]any{"assigned_admin_id": s.reporter.ID})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "assigned_admin_id", errorOf(body)["details"].(map[string]any)["field"])

	status, body = s.do(t, http.MethodPut, path, map[string]any{"status": nil})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "status", errorOf(body)["details"].(map[string]any)["field"])

	status, body = s.do(t, http.MethodPut, "/api/tickets/"+uuid.NewString(), map[string]any{"priority": "bogus"})
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorOf(body)["code"])
}

func TestAnalyzeTicketEndpoint(t *testing.T) {
	s := newTestServer(t)
	ticket := s.createTicket(t, "Slow page", "low")

	status, body := s.do(t, http.MethodPost, "/api/tickets/"+ticket["id"].(string)+"/analyze", nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, ticket["id"], data["ticket_id"])
	assert.Equal(t, "Bug Report", data["new_category"])
	assert.Equal(t, "Ticket analyzed successfully", data["message"])

	status, _ = s.do(t, http.MethodPost, "/api/tickets/missing/analyze", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.createTicket(t, "a", "high")
	closed := s.createTicket(t, "b", "critical")
	status, _ := s.do(t, http.MethodPut, "/api/tickets/"+closed["id"].(string), map[string]any{"status": "closed"})
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodGet, "/api/stats", nil)

	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, 2.0, data["total_tickets"])
	assert.Equal(t, map[string]any{"open": 1.0, "in_progress": 0.0, "closed": 1.0}, data["status_breakdown"])
	assert.Equal(t, map[string]any{"critical": 1.0, "high": 1.0, "medium": 0.0, "low": 0.0}, data["priority_breakdown"])
}

func TestUnknownRouteRendersJSONError(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/nope", nil)

	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorOf(body)["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/health", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `http_requests_total{method="GET",path="/api/health",status="200"} 1`)
}

func TestMetricsSurviveFailingRequestsOnManyPaths(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/tickets/" + strings.Repeat("a", 36),
		"/api/tickets/" + strings.Repeat("b", 24),
		"/nope/" + strings.Repeat("c", 14),
		"/zz",
	} {
		status, _ := s.do(t, http.MethodPut, path, map[string]any{"status": "closed"})
		require.Equal(t, http.StatusNotFound, status, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	body := string(raw)
	assert.Contains(t, body, `http_errors_total{code="NOT_FOUND",method="PUT",path="/api/tickets/:id"} 2`)
	assert.NotContains(t, body, "aaaa")
	assert.NotContains(t, body, "/nope/")
}
