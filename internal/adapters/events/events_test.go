package events

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dkeye/Huddle/internal/adapters/provider"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/domain"
)

type stubIdentity struct{}

func (stubIdentity) Identity() (*domain.User, bool) {
	return &domain.User{ID: "u1", Username: "tester"}, true
}

type stubSurface struct{}

func (stubSurface) Navigate(string)         {}
func (stubSurface) QueryParams() url.Values { return url.Values{} }
func (stubSurface) WriteText(string) error  { return nil }
func (stubSurface) Notify(string)           {}

func newStreamServer(t *testing.T, ctx context.Context) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := app.NewRegistry()
	page := app.NewPage(app.PageDeps{
		Identity: stubIdentity{},
		Provider: provider.NewMemory(),
		UI:       stubSurface{},
	}, "abc")
	reg.BindPage("tok", "abc", &app.PageEntry{Page: page, UI: stubSurface{}})

	ctl := &Controller{Registry: reg, PushPeriod: 5 * time.Millisecond, ReadLimit: 1024}
	r := gin.New()
	r.GET("/ws/:id", func(c *gin.Context) {
		c.Set("client_token", "tok")
		ctl.HandleMeeting(ctx, c)
	})
	return httptest.NewServer(r)
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/abc"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	return conn
}

func frameType(t *testing.T, data []byte) string {
	t.Helper()
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("bad frame %q: %v", data, err)
	}
	return env.Type
}

func TestStreamPushesStateAndAnswersPing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := newStreamServer(t, ctx)
	defer srv.Close()

	conn := dialStream(t, srv)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if got := frameType(t, data); got != "page_state" {
		t.Fatalf("first frame type = %q, want page_state", got)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("ping: %v", err)
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for pong: %v", err)
		}
		if frameType(t, data) == "pong" {
			return
		}
	}
}

func TestStreamClosesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := newStreamServer(t, ctx)
	defer srv.Close()

	conn := dialStream(t, srv)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("first frame: %v", err)
	}

	// Stopping the pumps must close the socket too; a client must never be
	// left blocked on a half-dead stream.
	cancel()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				t.Fatal("stream never closed after shutdown")
			}
			return
		}
	}
}
