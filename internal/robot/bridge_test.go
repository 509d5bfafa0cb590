package robot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// fakeBridge is a websocket server that records requests and answers
// through respond.
type fakeBridge struct {
	mu       sync.Mutex
	requests []Request
	conns    int
	respond  func(conn *websocket.Conn, req Request)
}

func (f *fakeBridge) handler(t *testing.T) http.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		f.mu.Lock()
		f.conns++
		f.mu.Unlock()

		for {
			var req Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			f.mu.Lock()
			f.requests = append(f.requests, req)
			respond := f.respond
			f.mu.Unlock()
			if respond != nil {
				respond(conn, req)
			} else {
				_ = conn.WriteJSON(Reply{ID: req.ID, OK: true})
			}
		}
	}
}

func (f *fakeBridge) snapshot() ([]Request, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out, f.conns
}

func startBridge(t *testing.T, f *fakeBridge) (*Bridge, func()) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	b := NewBridge(url, 500*time.Millisecond, logger.New(logger.LevelOff, nil))
	return b, func() {
		_ = b.Close()
		srv.Close()
	}
}

func TestBridgeSendsCommands(t *testing.T) {
	f := &fakeBridge{}
	b, done := startBridge(t, f)
	defer done()
	ctx := context.Background()

	require.NoError(t, b.Connect(ctx))
	require.NoError(t, b.TranslateBy(ctx, 0.01))
	require.NoError(t, b.RotateBy(ctx, -0.5))
	require.NoError(t, b.LiftMoveBy(ctx, 0.02))
	require.NoError(t, b.ArmMoveBy(ctx, -0.01))
	require.NoError(t, b.HeadPose(ctx, "tool"))
	require.NoError(t, b.PushCommand(ctx))
	require.NoError(t, b.Stop(ctx))

	reqs, conns := f.snapshot()
	assert.Equal(t, 1, conns)
	require.Len(t, reqs, 7)

	ops := make([]string, len(reqs))
	for i, r := range reqs {
		ops[i] = r.Op
		assert.Equal(t, uint64(i+1), r.ID)
	}
	assert.Equal(t, []string{
		OpTranslateBy, OpRotateBy, OpLiftMoveBy, OpArmMoveBy, OpHeadPose, OpPushCommand, OpStop,
	}, ops)

	require.NotNil(t, reqs[0].Value)
	assert.Equal(t, 0.01, *reqs[0].Value)
	assert.Equal(t, -0.5, *reqs[1].Value)
	assert.Equal(t, "tool", reqs[4].Name)
	assert.Nil(t, reqs[4].Value)
	assert.Nil(t, reqs[5].Value)
}

func TestBridgeRemoteError(t *testing.T) {
	f := &fakeBridge{respond: func(conn *websocket.Conn, req Request) {
		_ = conn.WriteJSON(Reply{ID: req.ID, OK: false, Error: "arm at limit"})
	}}
	b, done := startBridge(t, f)
	defer done()

	err := b.ArmMoveBy(context.Background(), 0.01)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, OpArmMoveBy, remote.Op)
	assert.Equal(t, "arm at limit", remote.Message)
}

func TestBridgeSkipsStaleReplies(t *testing.T) {
	f := &fakeBridge{respond: func(conn *websocket.Conn, req Request) {
		_ = conn.WriteJSON(Reply{ID: req.ID + 100, OK: false, Error: "stale"})
		_ = conn.WriteJSON(Reply{ID: req.ID, OK: true})
	}}
	b, done := startBridge(t, f)
	defer done()

	assert.NoError(t, b.PushCommand(context.Background()))
}

func TestBridgeRedialsAfterTimeout(t *testing.T) {
	var mu sync.Mutex
	silent := true
	f := &fakeBridge{}
	f.respond = func(conn *websocket.Conn, req Request) {
		mu.Lock()
		s := silent
		mu.Unlock()
		if !s {
			_ = conn.WriteJSON(Reply{ID: req.ID, OK: true})
		}
	}
	b, done := startBridge(t, f)
	defer done()
	ctx := context.Background()

	err := b.TranslateBy(ctx, 0.01)
	require.Error(t, err)

	mu.Lock()
	silent = false
	mu.Unlock()

	require.NoError(t, b.Stop(ctx))
	_, conns := f.snapshot()
	assert.Equal(t, 2, conns)
}

func TestBridgeHonoursCancellation(t *testing.T) {
	f := &fakeBridge{respond: func(*websocket.Conn, Request) {}}
	b, done := startBridge(t, f)
	defer done()
	b.timeout = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	err := b.HeadPose(ctx, "ahead")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBridgeDialFailure(t *testing.T) {
	b := NewBridge("ws://127.0.0.1:1/robot", 200*time.Millisecond, logger.New(logger.LevelOff, nil))
	err := b.Stop(context.Background())
	assert.Error(t, err)
}
