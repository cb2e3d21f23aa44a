package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TFMV/forcegraph/config"
	"github.com/TFMV/forcegraph/ingest"
	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/render"
	"github.com/TFMV/forcegraph/view"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const tagsPayload = `{
  "nodes": [{"id": "fiction", "group": 1}, {"id": "sci-fi", "group": 1}, {"id": "poetry", "group": 2}],
  "links": [{"source": "fiction", "target": "sci-fi", "value": 3}, {"source": "sci-fi", "target": "poetry", "value": 1}]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPayload(t *testing.T) *ingest.Payload {
	t.Helper()
	p, err := (&ingest.JSONProcessor{}).ProcessData([]byte(tagsPayload))
	require.NoError(t, err)
	return p
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Simulation.TickInterval = config.Duration{Duration: time.Millisecond}
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(cfg, testPayload(t), testLogger())
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNew_RejectsBadPayload(t *testing.T) {
	bad := &ingest.Payload{
		Nodes: []models.RawNode{{ID: "a"}},
		Links: []models.RawLink{{Source: "a", Target: "missing", Value: 1}},
	}
	_, err := New(config.Default(), bad, testLogger())
	assert.Error(t, err)

	_, err = New(config.Default(), nil, testLogger())
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h healthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 3, h.Nodes)
	assert.Equal(t, 2, h.Links)
	assert.Equal(t, uint64(1), h.Version)
}

func TestAPIGraph(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/api/graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Payload-Version"))

	var p ingest.Payload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.Equal(t, testPayload(t), &p)
}

func TestSnapshot(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/scene.svg")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `xlink:href="/tag/sci-fi"`)
	assert.Contains(t, body, "<title>poetry</title>")

	resp, body = get(t, ts.URL+"/scene.svg?format=ascii")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(body, "+-"))

	resp, _ = get(t, ts.URL+"/scene.svg?format=png")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIndexPage(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<title>forcegraph</title>")
	assert.Contains(t, body, "new WebSocket")
}

func TestMetrics(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "forcegraph_ticks_total")
	assert.Contains(t, body, "forcegraph_sessions_active")
}

type message struct {
	Type    string             `json:"type"`
	Version uint64             `json:"version"`
	SVG     string             `json:"svg"`
	Nodes   []render.NodeFrame `json:"nodes"`
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one
func readUntil(t *testing.T, conn *websocket.Conn, match func(message) bool) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for {
		var msg message
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func ofType(kind string) func(message) bool {
	return func(m message) bool { return m.Type == kind }
}

func TestSocket_SceneThenFrames(t *testing.T) {
	_, ts := newTestServer(t, testConfig())
	conn := dial(t, ts)

	scene := readUntil(t, conn, ofType("scene"))
	assert.Equal(t, uint64(1), scene.Version)
	assert.Contains(t, scene.SVG, `<g class="nodes">`)

	frame := readUntil(t, conn, ofType("frame"))
	assert.Len(t, frame.Nodes, 3)

	require.NoError(t, conn.WriteJSON(view.Event{Type: view.EventHover, Node: 2}))
	focused := readUntil(t, conn, func(m message) bool {
		return m.Type == "frame" && len(m.Nodes) == 3 && m.Nodes[0].Opacity == 0.1
	})
	assert.True(t, focused.Nodes[1].Underline)
	assert.True(t, focused.Nodes[2].Underline)
}

func TestSocket_ReloadReplacesView(t *testing.T) {
	s, ts := newTestServer(t, testConfig())
	conn := dial(t, ts)
	readUntil(t, conn, ofType("scene"))

	next := testPayload(t)
	next.Nodes = append(next.Nodes, models.RawNode{ID: "essays", Group: 3})
	next.Links = append(next.Links, models.RawLink{Source: "essays", Target: "poetry", Value: 2})
	require.NoError(t, s.Reload(next))

	reload := readUntil(t, conn, ofType("reload"))
	assert.Equal(t, uint64(2), reload.Version)
	scene := readUntil(t, conn, ofType("scene"))
	assert.Equal(t, uint64(2), scene.Version)
	assert.Contains(t, scene.SVG, "<title>essays</title>")

	frame := readUntil(t, conn, ofType("frame"))
	assert.Len(t, frame.Nodes, 4)
}

func TestReload_RejectsBadPayload(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	err := s.Reload(&ingest.Payload{Links: []models.RawLink{{Source: "x", Target: "y"}}})
	assert.Error(t, err)
	_, version := s.store.Get()
	assert.Equal(t, uint64(1), version)
}

func TestSocket_SessionLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxSessions = 1
	_, ts := newTestServer(t, cfg)

	first := dial(t, ts)
	readUntil(t, first, ofType("scene"))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReserveSession_NeverExceedsLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxSessions = 3
	s, _ := newTestServer(t, cfg)

	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.reserveSession() {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(3), granted.Load())
	assert.Equal(t, int64(3), s.sessions.Load())

	s.sessions.Add(-1)
	assert.True(t, s.reserveSession())
	assert.False(t, s.reserveSession())
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	require.NoError(t, os.WriteFile(path, []byte(tagsPayload), 0o644))

	changes := make(chan string, 8)
	w, err := newWatcher(path, 20*time.Millisecond, func(p string) { changes <- p }, testLogger())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.json"), []byte("{}"), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(tagsPayload), 0o644))
	}

	select {
	case got := <-changes:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestStore_NotifiesSubscribers(t *testing.T) {
	st := newStore(testPayload(t))
	ch := st.Subscribe()

	v := st.Set(testPayload(t))
	assert.Equal(t, uint64(2), v)
	select {
	case <-ch:
	default:
		t.Fatal("subscriber not signalled")
	}

	st.Unsubscribe(ch)
	st.Set(testPayload(t))
	select {
	case <-ch:
		t.Fatal("unsubscribed channel signalled")
	default:
	}
}
