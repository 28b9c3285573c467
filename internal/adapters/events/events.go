// Package events streams room-state snapshots to the client over a
// websocket, so the page re-evaluates on every connection-status or UI
// change without polling the HTTP surface.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller pushes page-state frames for mounted meetings.
type Controller struct {
	Registry   *app.Registry
	PushPeriod time.Duration
	ReadLimit  int64
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleMeeting upgrades the connection and streams state for an already
// mounted page. Mount first over HTTP, then attach the stream.
func (ctl *Controller) HandleMeeting(ctx context.Context, c *gin.Context) {
	token := app.ClientToken(c.GetString("client_token"))
	id := domain.CleanMeetingID(c.Param("id"))

	entry, ok := ctl.Registry.PageOf(token, id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "meeting not mounted"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "events").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "events").Str("token", string(token)).Str("meeting", string(id)).Msg("state stream attached")

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 16),
	}
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, cancel, entry.Page, conn)
	go ctl.readPump(ctx, cancel, conn)
}

// writePump owns all writes: queued frames plus a periodic state check that
// pushes only when the snapshot actually changed.
func (ctl *Controller) writePump(ctx context.Context, cancel context.CancelFunc, page *app.Page, c *wsConn) {
	// Closing the conn here unblocks readPump's ReadMessage, so a write
	// error or a cancelled context tears both pumps down.
	defer func() {
		cancel()
		c.Close()
	}()
	period := ctl.PushPeriod
	if period <= 0 {
		period = time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "events").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := ctl.write(c, data); err != nil {
				return
			}
		case <-ticker.C:
			frame, err := stateFrame(ctx, page)
			if err != nil {
				log.Error().Err(err).Str("module", "events").Msg("state marshal")
				continue
			}
			if bytes.Equal(frame, last) {
				continue
			}
			last = frame
			if err := ctl.write(c, frame); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) write(c *wsConn, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		log.Error().Err(err).Str("module", "events").Msg("writePump set deadline")
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error().Err(err).Str("module", "events").Msg("writePump write error")
		return err
	}
	return nil
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	defer func() {
		log.Info().Str("module", "events").Msg("readPump closing")
		cancel()
		c.Close()
	}()
	if ctl.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.ReadLimit)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleMessage(c, data)
		}
	}
}

func (ctl *Controller) handleMessage(c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "events").Msg("bad json")
		return
	}
	switch env.Type {
	case "ping":
		resp, _ := json.Marshal(map[string]string{"type": "pong"})
		_ = c.TrySend(resp)
	default:
		log.Warn().Str("module", "events").Str("type", env.Type).Msg("unknown message")
	}
}

func stateFrame(ctx context.Context, page *app.Page) ([]byte, error) {
	return json.Marshal(struct {
		Type  string        `json:"type"`
		State app.PageState `json:"state"`
	}{
		Type:  "page_state",
		State: page.State(ctx),
	})
}
