// Package robot implements the robot command surface: a websocket
// client for the robot-side bridge process, and a dry-run stand-in.
package robot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Compile-time interface check.
var _ domain.Robot = (*Bridge)(nil)

// Bridge operations.
const (
	OpTranslateBy = "translate_by"
	OpRotateBy    = "rotate_by"
	OpLiftMoveBy  = "lift_move_by"
	OpArmMoveBy   = "arm_move_by"
	OpHeadPose    = "head_pose"
	OpPushCommand = "push_command"
	OpStop        = "stop"
)

// Request is one command frame sent to the bridge.
type Request struct {
	ID    uint64   `json:"id"`
	Op    string   `json:"op"`
	Value *float64 `json:"value,omitempty"`
	Name  string   `json:"name,omitempty"`
}

// Reply acknowledges a Request with the same ID.
type Reply struct {
	ID    uint64 `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// RemoteError is a command the bridge refused or failed to run.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("robot %s: %s", e.Op, e.Message)
}

// Bridge sends commands over a websocket and waits for each reply. The
// connection is dialled lazily and re-dialled after a failure.
type Bridge struct {
	url     string
	timeout time.Duration
	dialer  websocket.Dialer
	log     *logger.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

// NewBridge creates a bridge client for url. timeout bounds the dial and
// each request/reply exchange.
func NewBridge(url string, timeout time.Duration, log *logger.Logger) *Bridge {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Bridge{
		url:     url,
		timeout: timeout,
		dialer:  websocket.Dialer{HandshakeTimeout: timeout},
		log:     log,
	}
}

// Connect dials the bridge now instead of on the first command.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.connLocked(ctx)
	return err
}

func (b *Bridge) TranslateBy(ctx context.Context, meters float64) error {
	return b.call(ctx, Request{Op: OpTranslateBy, Value: &meters})
}

func (b *Bridge) RotateBy(ctx context.Context, radians float64) error {
	return b.call(ctx, Request{Op: OpRotateBy, Value: &radians})
}

func (b *Bridge) LiftMoveBy(ctx context.Context, meters float64) error {
	return b.call(ctx, Request{Op: OpLiftMoveBy, Value: &meters})
}

func (b *Bridge) ArmMoveBy(ctx context.Context, meters float64) error {
	return b.call(ctx, Request{Op: OpArmMoveBy, Value: &meters})
}

func (b *Bridge) HeadPose(ctx context.Context, name string) error {
	return b.call(ctx, Request{Op: OpHeadPose, Name: name})
}

func (b *Bridge) PushCommand(ctx context.Context) error {
	return b.call(ctx, Request{Op: OpPushCommand})
}

func (b *Bridge) Stop(ctx context.Context) error {
	return b.call(ctx, Request{Op: OpStop})
}

// Close closes the connection, if any.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := b.conn.Close()
	b.conn = nil
	return err
}

func (b *Bridge) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if b.conn != nil {
		return b.conn, nil
	}
	conn, resp, err := b.dialer.DialContext(ctx, b.url, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("robot: dialing %s: %w (status %d)", b.url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("robot: dialing %s: %w", b.url, err)
	}
	b.log.Info("connected to robot bridge %s", b.url)
	b.conn = conn
	return conn, nil
}

// call sends req and waits for its reply. Replies to earlier requests
// that timed out are skipped.
func (b *Bridge) call(ctx context.Context, req Request) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := b.connLocked(ctx)
	if err != nil {
		return err
	}

	b.nextID++
	req.ID = b.nextID

	deadline := time.Now().Add(b.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	// Unblock the read if ctx ends first.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return b.dropLocked(req.Op, err)
	}
	if err := conn.WriteJSON(req); err != nil {
		return b.dropLocked(req.Op, err)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return b.dropLocked(req.Op, err)
	}

	for {
		var rep Reply
		if err := conn.ReadJSON(&rep); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return b.dropLocked(req.Op, err)
		}
		if rep.ID != req.ID {
			b.log.Debug("skipping stale reply id=%d (want %d)", rep.ID, req.ID)
			continue
		}
		if !rep.OK {
			return &RemoteError{Op: req.Op, Message: rep.Error}
		}
		b.log.Debug("robot %s ok (id=%d)", req.Op, req.ID)
		return nil
	}
}

// dropLocked discards a connection after an I/O failure so the next
// call re-dials.
func (b *Bridge) dropLocked(op string, err error) error {
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("robot %s: %w", op, err)
}
