package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AaronLay10/GameMap/internal/events"
)

const (
	// recentEventsCount is how much history a new client receives.
	recentEventsCount = 50

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second // must be less than pongWait
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Operator routes are already behind basic auth.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// eventFilter keeps events whose name starts with one of the prefixes.
// An empty filter keeps everything.
type eventFilter []string

// parseEventFilter reads ?prefix=stage.,map. from the request.
func parseEventFilter(r *http.Request) eventFilter {
	raw := r.URL.Query().Get("prefix")
	if raw == "" {
		return nil
	}
	var f eventFilter
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f = append(f, p)
		}
	}
	return f
}

func (f eventFilter) keep(e events.Event) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if strings.HasPrefix(e.Name, p) {
			return true
		}
	}
	return false
}

// wsClient is one streaming connection.
type wsClient struct {
	conn   *websocket.Conn
	sub    events.Subscriber
	filter eventFilter
}

func (c *wsClient) send(e events.Event) error {
	if !c.filter.keep(e) {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) close(unsubscribe bool) {
	if unsubscribe {
		events.Unsubscribe(c.sub)
	}
	c.conn.Close()
}

// readLoop consumes pongs and close frames; it returns when the peer goes away.
func (c *wsClient) readLoop(done chan<- struct{}) {
	defer close(done)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsEventsHandler streams map events to a WebSocket client: the recent
// history first, then every new event.
func wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger().Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		conn:   conn,
		sub:    events.Subscribe(),
		filter: parseEventFilter(r),
	}

	for _, e := range events.RecentEvents(recentEventsCount) {
		if err := c.send(e); err != nil {
			Logger().Debug("ws write recent event failed", zap.Error(err))
			c.close(true)
			return
		}
	}

	done := make(chan struct{})
	go c.readLoop(done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			c.close(true)
			return

		case e, ok := <-c.sub:
			if !ok {
				// closed by CloseAllSubscribers on shutdown
				c.close(false)
				return
			}
			if err := c.send(e); err != nil {
				Logger().Debug("ws write event failed", zap.Error(err))
				c.close(true)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close(true)
				return
			}
		}
	}
}
