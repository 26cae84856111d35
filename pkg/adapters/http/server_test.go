package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lodge"
	lodgehttp "github.com/aretw0/lodge/pkg/adapters/http"
	"github.com/aretw0/lodge/pkg/adapters/memory"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/lifecycle"
	"github.com/aretw0/lodge/pkg/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...lifecycle.Option) *httptest.Server {
	t.Helper()
	svc := lifecycle.NewService(lodge.New(), session.NewManager(memory.NewStore()), opts...)
	srv := httptest.NewServer(lodgehttp.NewHandler(svc,
		lodgehttp.WithAllowedOrigins("http://localhost:3000"),
		lodgehttp.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintln(w, "lodge_up 1")
		})),
	))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func initiate(t *testing.T, srv *httptest.Server) domain.Reply {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/v1/chat/initiate", domain.InitiateRequest{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Reply](t, resp)
}

func TestHealthAndInfo(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])

	resp, err = http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, lodge.Version, decode[map[string]string](t, resp)["version"])
}

func TestConversationOverHTTP(t *testing.T) {
	srv := newServer(t)
	start := initiate(t, srv)
	assert.NotEmpty(t, start.SessionID)
	assert.Equal(t, domain.StepInitial, start.Step)

	var last domain.Reply
	for _, msg := range []string{"Yes, please!", "Manchester", "Residential", "2-3", "Yes", "No", "1-3 months", "user@example.com"} {
		resp := postJSON(t, srv.URL+"/api/v1/chat/"+start.SessionID+"/messages", lodgehttp.MessageRequest{Message: msg})
		require.Equal(t, http.StatusOK, resp.StatusCode, "message %q", msg)
		last = decode[domain.Reply](t, resp)
	}
	assert.True(t, last.Completed)
	assert.Equal(t, domain.OutcomeCompleted, last.Outcome)

	resp, err := http.Get(srv.URL + "/api/v1/chat/" + start.SessionID)
	require.NoError(t, err)
	defer resp.Body.Close()
	snap := decode[lodgehttp.SessionResponse](t, resp)
	assert.False(t, snap.Active)
	assert.True(t, snap.Completed)
	assert.Equal(t, "Manchester", *snap.Filters.Location)
	assert.NotEmpty(t, snap.ClosedAt)

	resp = postJSON(t, srv.URL+"/api/v1/chat/"+start.SessionID+"/messages", lodgehttp.MessageRequest{Message: "again"})
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	srv := newServer(t, lifecycle.WithMaxInputSize(16))

	resp := postJSON(t, srv.URL+"/api/v1/chat/nope/messages", lodgehttp.MessageRequest{Message: "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/chat/initiate", domain.InitiateRequest{
		SearchCriteria: map[string]any{"location": "Leeds"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "invalid search criteria")

	start := initiate(t, srv)
	resp = postJSON(t, srv.URL+"/api/v1/chat/"+start.SessionID+"/messages", lodgehttp.MessageRequest{Message: strings.Repeat("a", 17)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	bad, err := http.Post(srv.URL+"/api/v1/chat/"+start.SessionID+"/messages", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestMessageLimitMapsTo429(t *testing.T) {
	srv := newServer(t, lifecycle.WithMaxMessages(1))
	start := initiate(t, srv)
	url := srv.URL + "/api/v1/chat/" + start.SessionID + "/messages"

	require.Equal(t, http.StatusOK, postJSON(t, url, lodgehttp.MessageRequest{Message: "Yes, please!"}).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(t, url, lodgehttp.MessageRequest{Message: "Leeds"}).StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/chat/initiate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGraphAndMetrics(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	edges := decode[[]domain.Edge](t, resp)
	assert.NotEmpty(t, edges)

	resp, err = http.Get(srv.URL + "/graph?format=mermaid")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.True(t, strings.HasPrefix(buf.String(), "graph TD"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	buf.Reset()
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "lodge_up 1")
}

func TestWebSocket(t *testing.T) {
	srv := newServer(t)
	start := initiate(t, srv)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/" + start.SessionID + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(lodgehttp.MessageRequest{Message: "Yes, please!"}))
	var reply domain.Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, domain.StepEditLocation, reply.Step)

	// Replies to plain HTTP posts reach websocket watchers too.
	resp := postJSON(t, srv.URL+"/api/v1/chat/"+start.SessionID+"/messages", lodgehttp.MessageRequest{Message: "Manchester"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, domain.StepChoosePropertyType, reply.Step)
}

func TestWebSocket_UnknownSession(t *testing.T) {
	srv := newServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/missing/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamManager_DropsForSlowClients(t *testing.T) {
	sm := lodgehttp.NewStreamManager()
	_, cancel := sm.Subscribe("s")
	defer cancel()

	for range 10 {
		assert.Equal(t, 1, sm.Broadcast("s", []byte("x")))
	}
	assert.Equal(t, 0, sm.Broadcast("s", []byte("overflow")))
	assert.Equal(t, 0, sm.Broadcast("other", []byte("x")))
}
