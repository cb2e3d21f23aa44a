package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/TFMV/forcegraph/render"
	"github.com/TFMV/forcegraph/view"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	writeWait    = 5 * time.Second
	maxEventSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 64 * 1024,
}

// sceneMessage carries the full SVG a client mounts before frames arrive
type sceneMessage struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
	SVG     string `json:"svg"`
}

type reloadMessage struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
}

// session is one websocket client. The writer goroutine owns every write
// to the socket; the reader only applies events to the current view.
type session struct {
	id      string
	conn    *websocket.Conn
	log     *slog.Logger
	limiter *rate.Limiter
	current atomic.Pointer[view.View]
}

// reserveSession takes a session slot, failing once MaxSessions are held.
// The slot is released with s.sessions.Add(-1).
func (s *Server) reserveSession() bool {
	if s.sessions.Add(1) > int64(s.cfg.Server.MaxSessions) {
		s.sessions.Add(-1)
		return false
	}
	return true
}

func (s *Server) handleSocket(c *gin.Context) {
	if !s.reserveSession() {
		sessionsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many sessions"})
		return
	}
	defer s.sessions.Add(-1)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sessionsTotal.WithLabelValues("upgrade_failed").Inc()
		s.log.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxEventSize)

	id := uuid.New().String()
	sess := &session{
		id:      id,
		conn:    conn,
		log:     s.log.With("session", id),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.Server.EventRate), s.cfg.Server.EventBurst),
	}

	sessionsActive.Inc()
	sessionsTotal.WithLabelValues("opened").Inc()
	defer sessionsActive.Dec()
	sess.log.Info("websocket session started")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	writeDone := make(chan error, 1)
	go func() {
		writeDone <- s.writeLoop(ctx, sess)
		// Unblock the reader when the writer stops first.
		conn.Close()
	}()

	sess.readLoop()
	cancel()
	if err := <-writeDone; err != nil && !errors.Is(err, context.Canceled) {
		sess.log.Debug("websocket writer stopped", "error", err)
	}
	sess.log.Info("websocket session ended")
}

// writeLoop mounts a view, streams its frames and swaps it on every reload
func (s *Server) writeLoop(ctx context.Context, sess *session) error {
	reloads := s.store.Subscribe()
	defer s.store.Unsubscribe(reloads)

	for {
		v, version, err := s.newView()
		if err != nil {
			return err
		}
		sess.current.Store(v)

		svg, err := v.Render(&render.SVGRenderer{})
		if err != nil {
			return err
		}
		if err := sess.write(sceneMessage{Type: "scene", Version: version, SVG: string(svg)}); err != nil {
			return err
		}

		runCtx, stop := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- v.Run(runCtx, sess.writeFrame)
		}()

		select {
		case err := <-done:
			stop()
			v.Close()
			return err
		case <-ctx.Done():
			stop()
			<-done
			v.Close()
			return nil
		case <-reloads:
			stop()
			err := <-done
			v.Close()
			if err != nil {
				return err
			}
			_, version := s.store.Get()
			sess.log.Info("replacing view", "version", version)
			if err := sess.write(reloadMessage{Type: "reload", Version: version}); err != nil {
				return err
			}
		}
	}
}

// readLoop applies client events until the socket closes
func (sess *session) readLoop() {
	for {
		var ev view.Event
		if err := sess.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.log.Debug("websocket read failed", "error", err)
			}
			return
		}
		if !sess.limiter.Allow() {
			eventsDropped.WithLabelValues("rate_limited").Inc()
			continue
		}
		v := sess.current.Load()
		if v == nil {
			eventsDropped.WithLabelValues("no_view").Inc()
			continue
		}
		changed, err := v.Handle(ev)
		if err != nil {
			eventsDropped.WithLabelValues("invalid").Inc()
			sess.log.Debug("ignoring event", "error", err)
			continue
		}
		if changed {
			eventsTotal.WithLabelValues(ev.Type).Inc()
		}
	}
}

func (sess *session) write(msg any) error {
	if err := sess.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := sess.conn.WriteJSON(msg); err != nil {
		sess.log.Warn("Failed to write WebSocket JSON", "error", err)
		return err
	}
	return nil
}

func (sess *session) writeFrame(f *render.Frame) error {
	if err := sess.write(f); err != nil {
		return err
	}
	framesSent.Inc()
	return nil
}
