package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/7ipolito/goals-vision/internal/analysis"
	"github.com/7ipolito/goals-vision/internal/catalog"
	"github.com/7ipolito/goals-vision/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message or pong from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Default maximum message size allowed from peer. A frame of 33
	// landmarks is well under 8KiB.
	defaultMaxMessageSize = 64 * 1024
)

// liveHandler upgrades /ws/analyze connections and drives one
// analysis.LiveSession per connection.
type liveHandler struct {
	cfg      ServerConfig
	upgrader websocket.Upgrader
	active   atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
}

func newLiveHandler(cfg ServerConfig) *liveHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &liveHandler{cfg: cfg, ctx: ctx, cancel: cancel}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *liveHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if originAllowed(origin, h.cfg.AllowedOrigins) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// Active returns the number of open live connections.
func (h *liveHandler) Active() int {
	return int(h.active.Load())
}

func (h *liveHandler) closeAll() {
	h.cancel()
}

func (h *liveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID != "" {
		if _, err := h.cfg.CatalogService.GetPlayer(r.Context(), playerID); err != nil {
			writeServiceError(w, h.cfg.Logger, err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.cfg.Logger.Warn("live upgrade failed", "error", err)
		return
	}

	h.active.Add(1)
	defer h.active.Add(-1)

	c := &liveConn{
		conn:     conn,
		handler:  h,
		playerID: playerID,
		session:  analysis.NewLiveSession(),
	}
	c.logger = logging.WithSessionID(logging.WithComponent(h.cfg.Logger, "live"), c.session.ID)
	if playerID != "" {
		c.logger = logging.WithPlayerID(c.logger, playerID)
	}
	c.run()
}

// liveConn is one client connection. Reads happen on the serving
// goroutine; writes are serialised by mu because pings come from another.
type liveConn struct {
	conn     *websocket.Conn
	handler  *liveHandler
	playerID string
	session  *analysis.LiveSession
	logger   *slog.Logger

	mu      sync.Mutex
	savedID string
}

func (c *liveConn) run() {
	ctx := c.handler.ctx
	var cancel context.CancelFunc
	if maxSession := c.handler.cfg.LiveMaxSession; maxSession > 0 {
		ctx, cancel = context.WithTimeout(ctx, maxSession)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	c.logger.Info("live session connected")
	done := make(chan struct{})
	go c.keepAlive(ctx, done)
	defer func() {
		close(done)
		c.conn.Close()
		counters := c.session.Counters()
		c.logger.Info("live session closed",
			"frames_seen", counters.FramesSeen,
			"frames_dropped", counters.FramesDropped,
			"records", counters.Records,
		)
	}()

	limit := c.handler.cfg.LiveMaxMessage
	if limit <= 0 {
		limit = defaultMaxMessageSize
	}
	c.conn.SetReadLimit(limit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("live read failed", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg analysis.LiveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if c.write(analysis.LiveReply{Type: analysis.MsgError, Error: "invalid message"}) != nil {
				return
			}
			continue
		}

		reply := c.handle(msg)
		if err := c.write(reply); err != nil {
			return
		}
	}
}

func (c *liveConn) handle(msg analysis.LiveMessage) analysis.LiveReply {
	reply := c.session.Handle(msg)

	switch msg.Type {
	case analysis.MsgStart, analysis.MsgReset:
		// A rejected start leaves the stopped session and its stored id intact.
		if reply.Type != analysis.MsgError {
			c.savedID = ""
		}
	case analysis.MsgStop:
		if reply.Type != analysis.MsgResult {
			break
		}
		c.logger.Info("live session stopped",
			"records", reply.Records,
			"inconclusive", reply.Inconclusive,
		)
		if c.playerID == "" || reply.Counters == nil || reply.Counters.FramesSeen == 0 {
			break
		}
		if c.savedID == "" {
			c.savedID = c.persist()
		}
		reply.AnalysisID = c.savedID
	}
	return reply
}

// persist records the stopped session for the connection's player and
// returns the analysis id, or "" if it could not be stored.
func (c *liveConn) persist() string {
	res, ok := c.session.Result()
	if !ok {
		return ""
	}
	a := catalog.NewAnalysis(c.playerID, catalog.AnalysisSourceLive, res, c.session.Counters())

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := c.handler.cfg.CatalogService.RecordAnalysis(ctx, a); err != nil {
		c.logger.Error("failed to store live analysis", "error", err)
		return ""
	}
	return a.ID
}

func (c *liveConn) write(reply analysis.LiveReply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(reply)
}

// keepAlive pings the peer and closes the connection when ctx ends.
func (c *liveConn) keepAlive(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			reason := "server shutting down"
			if ctx.Err() == context.DeadlineExceeded {
				reason = "session time limit reached"
			}
			c.mu.Lock()
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, reason),
				time.Now().Add(writeWait))
			c.mu.Unlock()
			c.conn.Close()
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
