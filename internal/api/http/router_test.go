package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/api/http/handlers"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/auth"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/domain"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/events"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/repository/memory"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/service"
)

type testEnv struct {
	app    *fiber.App
	db     *memory.DB
	tokens *auth.TokenManager
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestEnv(t *testing.T, db *memory.DB, deps map[string]handlers.Pinger) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()

	assignment := service.NewAssignmentService(service.AssignmentDependencies{
		AgentRepo:              db.Agents(),
		CategoryRepo:           db.Categories(),
		SubscriptionRepo:       db.Subscriptions(),
		TicketRepo:             db.Tickets(),
		Dispatcher:             dispatcher,
		Logger:                 logger,
		RebuildFromAssignments: true,
	})
	require.NoError(t, assignment.LoadAgentQueues(context.Background()))
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   db.Tickets(),
		CategoryRepo: db.Categories(),
		Assignment:   assignment,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	tokens := auth.NewTokenManager("test-secret", 5)

	app := fiber.New()
	RegisterMiddlewares(app, logger, nil, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("feathersup", "test", deps),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Queue:          handlers.NewQueueHandler(tickets, assignment),
		Agents:         handlers.NewAgentsHandler(assignment),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, db.Agents()),
	})
	return &testEnv{app: app, db: db, tokens: tokens}
}

func seededDB() *memory.DB {
	db := memory.New()
	db.PutCategory(domain.Category{ID: 1, Name: "billing", IsActive: true})
	db.PutAgent(domain.Agent{ID: 7, Name: "Ana", Email: "ana@example.com", Status: domain.AgentStatusActive})
	db.PutAgent(domain.Agent{ID: 8, Name: "Ben", Email: "ben@example.com", Status: domain.AgentStatusActive})
	db.PutAgent(domain.Agent{ID: 99, Name: "Root", Email: "root@example.com", Status: domain.AgentStatusActive, IsSuperAgent: true})
	db.Subscribe(7, 1)
	return db
}

func (e *testEnv) token(t *testing.T, id int64, subject domain.SubjectType) string {
	t.Helper()
	token, _, err := e.tokens.GenerateToken(id, subject)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	return errBody["code"].(string)
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	out, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data envelope, got %v", body)
	return out
}

func ticketBody() map[string]any {
	return map[string]any{
		"title":       "Refund not received",
		"description": "I was charged twice last week.",
		"priority":    "urgent",
		"category_id": 1,
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, seededDB(), map[string]handlers.Pinger{"redis": nil})

	status, body := env.do(t, nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = env.do(t, nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "disabled", body["dependencies"].(map[string]any)["redis"])
}

func TestHealth_NotReady(t *testing.T) {
	env := newTestEnv(t, seededDB(), map[string]handlers.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	status, body := env.do(t, nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(t, body))
}

func TestCreateTicket_CustomerIsAssigned(t *testing.T) {
	env := newTestEnv(t, seededDB(), nil)

	status, body := env.do(t, nethttp.MethodPost, "/api/tickets", env.token(t, 3, domain.SubjectTypeCustomer), ticketBody())
	require.Equal(t, fiber.StatusCreated, status)

	payload := data(t, body)
	agent := payload["assigned_agent"].(map[string]any)
	assert.EqualValues(t, 7, agent["id"])
	ticket := payload["ticket"].(map[string]any)
	assert.EqualValues(t, 3, ticket["customer_id"])
	assert.Equal(t, "in_progress", ticket["status"])
	queueStatus := payload["queue_status"].(map[string]any)
	assert.EqualValues(t, 1, queueStatus["urgent"])
	assert.EqualValues(t, 1, queueStatus["total"])
}

func TestCreateTicket_NoAgentAvailable(t *testing.T) {
	db := memory.New()
	env := newTestEnv(t, db, nil)

	req := ticketBody()
	delete(req, "category_id")
	status, body := env.do(t, nethttp.MethodPost, "/api/tickets", env.token(t, 3, domain.SubjectTypeCustomer), req)
	require.Equal(t, fiber.StatusCreated, status)

	payload := data(t, body)
	assert.Nil(t, payload["assigned_agent"])
	assert.Nil(t, payload["queue_status"])
	assert.Equal(t, "open", payload["ticket"].(map[string]any)["status"])
}

func TestCreateTicket_AgentMustNameCustomer(t *testing.T) {
	env := newTestEnv(t, seededDB(), nil)
	token := env.token(t, 8, domain.SubjectTypeAgent)

	status, body := env.do(t, nethttp.MethodPost, "/api/tickets", token, ticketBody())
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))

	req := ticketBody()
	req["customer_id"] = 12
	status, body = env.do(t, nethttp.MethodPost, "/api/tickets", token, req)
	require.Equal(t, fiber.StatusCreated, status)
	assert.EqualValues(t, 12, data(t, body)["ticket"].(map[string]any)["customer_id"])
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t, seededDB(), nil)

	status, body := env.do(t, nethttp.MethodGet, "/api/tickets/queue/next", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))

	status, body = env.do(t, nethttp.MethodGet, "/api/tickets/queue/next", env.token(t, 3, domain.SubjectTypeCustomer), nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, _ = env.do(t, nethttp.MethodGet, "/api/tickets/queue/next", env.token(t, 404, domain.SubjectTypeAgent), nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestNextTicket_PopsOnce(t *testing.T) {
	env := newTestEnv(t, seededDB(), nil)
	customer := env.token(t, 3, domain.SubjectTypeCustomer)
	agent := env.token(t, 7, domain.SubjectTypeAgent)

	status, _ := env.do(t, nethttp.MethodPost, "/api/tickets", customer, ticketBody())
	require.Equal(t, fiber.StatusCreated, status)

	status, body := env.do(t, nethttp.MethodGet, "/api/tickets/queue/next", agent, nil)
	require.Equal(t, fiber.StatusOK, status)
	payload := data(t, body)
	assert.Equal(t, "Refund not received", payload["ticket"].(map[string]any)["title"])
	assert.Equal(t, "urgent", payload["queue_info"].(map[string]any)["priority"])

	status, body = env.do(t, nethttp.MethodGet, "/api/tickets/queue/next", agent, nil)
	require.Equal(t, fiber.StatusOK, status)
	payload = data(t, body)
	assert.Nil(t, payload["ticket"])
	assert.Nil(t, payload["queue_info"])
}

func TestAgentQueue_Access(t *testing.T) {
	env := newTestEnv(t, seededDB(), nil)
	ana := env.token(t, 7, domain.SubjectTypeAgent)
	root := env.token(t, 99, domain.SubjectTypeAgent)

	status, body := env.do(t, nethttp.MethodGet, "/api/tickets/queue/agent", ana, nil)
	require.Equal(t, fiber.StatusOK, status)
	payload := data(t, body)
	assert.EqualValues(t, 7, payload["agent_id"])
	assert.EqualValues(t, 0, payload["queue_status"].(map[string]any)["total"])

	status, _ = env.do(t, nethttp.MethodGet, "/api/tickets/queue/agent/8", ana, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = env.do(t, nethttp.MethodGet, "/api/tickets/queue/agent/8", root, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotNil(t, data(t, body)["queue_status"])

	status, body = env.do(t, nethttp.MethodGet, "/api/tickets/queue/agent/4242", root, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, data(t, body)["queue_status"])

	status, body = env.do(t, nethttp.MethodGet, "/api/tickets/queue/agent/abc", root, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestSystemStats_SuperAgentOnly(t *testing.T) {
	env := newTestEnv(t, seededDB(), nil)

	status, _ := env.do(t, nethttp.MethodGet, "/api/tickets/queue/system/stats", env.token(t, 7, domain.SubjectTypeAgent), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := env.do(t, nethttp.MethodGet, "/api/tickets/queue/system/stats", env.token(t, 99, domain.SubjectTypeAgent), nil)
	require.Equal(t, fiber.StatusOK, status)
	payload := data(t, body)
	assert.EqualValues(t, 3, payload["total_agents"])
	assert.EqualValues(t, 1, payload["category_subscriptions"])
}

func TestSubscriptions(t *testing.T) {
	db := seededDB()
	db.PutCategory(domain.Category{ID: 2, Name: "shipping", IsActive: true})
	env := newTestEnv(t, db, nil)
	ben := env.token(t, 8, domain.SubjectTypeAgent)

	status, body := env.do(t, nethttp.MethodPost, "/api/agents/8/categories", ben, map[string]any{"category_ids": []int64{1, 2}})
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 8, data(t, body)["agent_id"])
	assert.ElementsMatch(t, []int64{1, 2}, db.SubscribedCategories(8))

	status, body = env.do(t, nethttp.MethodPost, "/api/agents/8/categories", ben, map[string]any{"category_ids": []int64{}})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))

	status, _ = env.do(t, nethttp.MethodPost, "/api/agents/7/categories", ben, map[string]any{"category_ids": []int64{2}})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = env.do(t, nethttp.MethodDelete, "/api/agents/8/categories/2", ben, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []int64{1}, db.SubscribedCategories(8))
}

func TestCompleteTicket(t *testing.T) {
	env := newTestEnv(t, seededDB(), nil)
	customer := env.token(t, 3, domain.SubjectTypeCustomer)

	status, body := env.do(t, nethttp.MethodPost, "/api/tickets", customer, ticketBody())
	require.Equal(t, fiber.StatusCreated, status)
	ticketID := int64(data(t, body)["ticket"].(map[string]any)["id"].(float64))
	path := "/api/tickets/" + jsonNumber(ticketID) + "/complete"

	status, _ = env.do(t, nethttp.MethodPatch, path, env.token(t, 8, domain.SubjectTypeAgent), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = env.do(t, nethttp.MethodPatch, path, env.token(t, 7, domain.SubjectTypeAgent), map[string]any{"status": "closed"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "closed", data(t, body)["status"])

	status, body = env.do(t, nethttp.MethodGet, "/api/tickets/queue/agent", env.token(t, 7, domain.SubjectTypeAgent), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, data(t, body)["queue_status"].(map[string]any)["total"])
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, seededDB(), nil)

	status, body := env.do(t, nethttp.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
