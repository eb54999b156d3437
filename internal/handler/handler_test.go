package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitormoschetta/anyflix-support/internal/handler"
	"github.com/vitormoschetta/anyflix-support/internal/mock"
	"github.com/vitormoschetta/anyflix-support/internal/model"
	"github.com/vitormoschetta/anyflix-support/internal/service"
	"github.com/vitormoschetta/anyflix-support/internal/worker"
)

func newHandler(t *testing.T, a *mock.Assistant, tools *mock.ToolCatalog) *handler.Handler {
	t.Helper()
	pool := worker.NewPool(2)
	t.Cleanup(func() { _ = pool.Close(context.Background()) })
	svc := service.NewChatService(a, pool, zerolog.Nop())
	if tools == nil {
		return handler.NewHandler(svc, nil, handler.Info{AgentName: "anyflix_support_agent"}, zerolog.Nop())
	}
	return handler.NewHandler(svc, tools, handler.Info{AgentName: "anyflix_support_agent"}, zerolog.Nop())
}

func postChat(h *handler.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)
	return rec
}

func decodeChat(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandleChat_NewConversation(t *testing.T) {
	t.Parallel()
	a := &mock.Assistant{ChatFn: func(context.Context, string, string) (string, error) {
		return "Welcome to Anyflix!", nil
	}}
	h := newHandler(t, a, nil)

	rec := postChat(h, `{"message":"Hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeChat(t, rec)
	assert.Equal(t, "Welcome to Anyflix!", body["message"])
	assert.NotEmpty(t, body["sessionId"])

	ts, ok := body["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339Nano, ts)
	assert.NoError(t, err)
}

func TestHandleChat_ExistingSession(t *testing.T) {
	t.Parallel()
	a := &mock.Assistant{ChatFn: func(_ context.Context, sessionID, _ string) (string, error) {
		if sessionID != "abc-123" {
			return "", errors.New("wrong session")
		}
		return "You are on the Basic plan.", nil
	}}
	h := newHandler(t, a, nil)

	rec := postChat(h, `{"message":"What plan am I on?","sessionId":"abc-123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "You are on the Basic plan.", resp.Message)
	assert.Equal(t, "abc-123", resp.SessionID)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestHandleChat_GatewayTimeout(t *testing.T) {
	t.Parallel()
	a := &mock.Assistant{ChatFn: func(context.Context, string, string) (string, error) {
		return "", context.DeadlineExceeded
	}}
	h := newHandler(t, a, nil)

	rec := postChat(h, `{"message":"Hi","sessionId":"xyz"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeChat(t, rec)
	assert.Equal(t, "Sorry, I encountered an error: context deadline exceeded", body["message"])
	assert.Equal(t, "xyz", body["sessionId"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHandleChat_BadRequests(t *testing.T) {
	t.Parallel()
	a := &mock.Assistant{ChatFn: func(context.Context, string, string) (string, error) {
		return "never", nil
	}}
	h := newHandler(t, a, nil)

	tests := []struct {
		name  string
		body  string
		error string
	}{
		{"malformed json", `{"message":`, "Invalid JSON format"},
		{"empty body", ``, "Invalid JSON format"},
		{"wrong type", `{"message":42}`, "Invalid JSON format"},
		{"missing message", `{"sessionId":"s"}`, "Message is required"},
		{"blank message", `{"message":"   "}`, "Message is required"},
	}
	for _, tt := range tests {
		rec := postChat(h, tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.name)
		var body model.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body), tt.name)
		assert.Equal(t, tt.error, body.Error, tt.name)
	}
	assert.Empty(t, a.Calls())
}

func TestHandleChat_PoolClosed(t *testing.T) {
	t.Parallel()
	pool := worker.NewPool(1)
	require.NoError(t, pool.Close(context.Background()))
	a := &mock.Assistant{ChatFn: func(context.Context, string, string) (string, error) { return "x", nil }}
	h := handler.NewHandler(service.NewChatService(a, pool, zerolog.Nop()), nil, handler.Info{}, zerolog.Nop())

	rec := postChat(h, `{"message":"Hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleTools(t *testing.T) {
	t.Parallel()
	tools := &mock.ToolCatalog{
		SourceValue: "http://mcp.test/mcp",
		ListToolsFn: func(context.Context) ([]model.ToolInfo, error) {
			return []model.ToolInfo{{Name: "find_customer", Description: "Find a customer"}}, nil
		},
	}
	h := newHandler(t, &mock.Assistant{}, tools)

	rec := httptest.NewRecorder()
	h.HandleTools(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body model.ToolsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "http://mcp.test/mcp", body.Source)
	assert.Equal(t, []model.ToolInfo{{Name: "find_customer", Description: "Find a customer"}}, body.Tools)
}

func TestHandleTools_Error(t *testing.T) {
	t.Parallel()
	tools := &mock.ToolCatalog{ListToolsFn: func(context.Context) ([]model.ToolInfo, error) {
		return nil, errors.New("connection refused")
	}}
	h := newHandler(t, &mock.Assistant{}, tools)

	rec := httptest.NewRecorder()
	h.HandleTools(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleTools_NoCatalog(t *testing.T) {
	t.Parallel()
	h := newHandler(t, &mock.Assistant{}, nil)

	rec := httptest.NewRecorder()
	h.HandleTools(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"source":"","tools":[]}`, rec.Body.String())
}

func TestHandleRoot(t *testing.T) {
	t.Parallel()
	h := newHandler(t, &mock.Assistant{}, nil)

	rec := httptest.NewRecorder()
	h.HandleRoot(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeChat(t, rec)
	assert.Equal(t, "Anyflix Support Chat", body["service"])
	endpoints, ok := body["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, endpoints, "chat")
	assert.Contains(t, endpoints, "tools")
}

func TestHandleRoot_BrowserRedirect(t *testing.T) {
	t.Parallel()
	h := newHandler(t, &mock.Assistant{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	h.HandleRoot(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/ui/", rec.Header().Get("Location"))
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	h := newHandler(t, &mock.Assistant{}, nil)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
