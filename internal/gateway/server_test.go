package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/maitred/internal/config"
	"github.com/soyeahso/maitred/internal/domain"
	"github.com/soyeahso/maitred/internal/handler"
	"github.com/soyeahso/maitred/internal/hooks"
	"github.com/soyeahso/maitred/internal/logging"
	"github.com/soyeahso/maitred/internal/orchestrator"
	"github.com/soyeahso/maitred/internal/router"
	"github.com/soyeahso/maitred/internal/session"
)

type echoHandler struct{ name string }

func (e *echoHandler) Name() string { return e.name }

func (e *echoHandler) Respond(ctx context.Context, text string, meta map[string]string) (string, error) {
	return e.name + ": " + text, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	log := logging.New(nil, "silent")

	registry := handler.NewRegistry(log)
	for _, name := range []string{handler.NameMenu, handler.NameReservation, handler.NameOrder, handler.NameFAQ} {
		name := name
		require.NoError(t, registry.RegisterFactory(name, func() (handler.Handler, error) {
			return &echoHandler{name: name}, nil
		}))
	}

	store := session.NewMemoryStore()
	orch := orchestrator.New(store, registry, router.NewClassifier(nil, log), log)

	cfg := config.Defaults()
	return New(cfg, orch, store, hooks.NewManager(log), log)
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestChatEndpoint(t *testing.T) {
	s := testServer(t)

	payload, _ := json.Marshal(ChatRequest{UserID: "alice", Message: "what's on the menu?"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp domain.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "menu: what's on the menu?", resp.Text)
	assert.Equal(t, domain.IntentMenu, resp.Intent)
	assert.NotEmpty(t, resp.SessionID)
}

func TestChatEndpointKeepsSession(t *testing.T) {
	s := testServer(t)
	r := s.Router()

	send := func(sessionID string) domain.Response {
		payload, _ := json.Marshal(ChatRequest{UserID: "alice", Message: "menu please", SessionID: sessionID})
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp domain.Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	first := send("")
	second := send(first.SessionID)
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestChatEndpointValidation(t *testing.T) {
	s := testServer(t)
	r := s.Router()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	payload, _ := json.Marshal(ChatRequest{Message: "no user"})
	req = httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResetEndpoint(t *testing.T) {
	s := testServer(t)
	r := s.Router()

	payload, _ := json.Marshal(ChatRequest{UserID: "alice", Message: "book a table"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	var chat domain.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chat))

	resetPayload, _ := json.Marshal(ResetRequest{UserID: "alice", SessionID: chat.SessionID})
	req = httptest.NewRequest(http.MethodPost, "/session/reset", bytes.NewReader(resetPayload))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var reset map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reset))
	assert.NotEmpty(t, reset["sessionId"])
	assert.NotEqual(t, chat.SessionID, reset["sessionId"])
}

func TestWebSocketChat(t *testing.T) {
	s := testServer(t)

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?userId=alice"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ChatRequest{Message: "je voudrais réserver une table"}))

	var resp domain.Response
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, domain.IntentReservation, resp.Intent)
	assert.Contains(t, resp.Text, "reservation:")
	require.NotEmpty(t, resp.SessionID)

	// second frame reuses the session explicitly
	require.NoError(t, conn.WriteJSON(ChatRequest{Message: "menu please", SessionID: resp.SessionID}))
	var second domain.Response
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, resp.SessionID, second.SessionID)
}

func TestWebSocketMissingUser(t *testing.T) {
	s := testServer(t)

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ChatRequest{Message: "hello there"}))

	var result map[string]string
	require.NoError(t, conn.ReadJSON(&result))
	assert.Equal(t, "userId is required", result["error"])
}
