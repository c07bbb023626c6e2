package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/odyomed/resolve"
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// searchRequest is one keystroke snapshot from the client.
type searchRequest struct {
	Query string `json:"query"`
}

// searchResponse carries the ranked result for one query. Seq increases
// per delivered response; a client holding seq N discards anything
// lower, which keeps a slow early query from clobbering a fast late one.
type searchResponse struct {
	Seq    uint64         `json:"seq"`
	Query  string         `json:"query"`
	Result resolve.Result `json:"result"`
}

// HandleSearchSocket upgrades to WebSocket and serves debounced live
// search: each incoming query restarts the debounce window, and only
// the latest query's result is ever delivered.
func (s *Server) HandleSearchSocket(w http.ResponseWriter, r *http.Request) {
	_, resolver, ok := s.resolverFor(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed",
			"remote", r.RemoteAddr,
			"error", err,
		)
		return
	}

	sock := &searchSocket{
		conn:     conn,
		resolver: resolver,
		gate:     resolve.NewGate[resolve.Result](s.cfg.Debounce),
		log:      s.logger,
		done:     make(chan struct{}),
	}

	go sock.pingLoop()
	sock.readLoop(r.Context())
}

// searchSocket is one live-search connection. Writes come from the
// debounce timer goroutine and the ping ticker, so they are serialized
// through mu.
type searchSocket struct {
	conn     *websocket.Conn
	resolver *resolve.Resolver
	gate     *resolve.Gate[resolve.Result]
	log      *zap.SugaredLogger
	done     chan struct{}

	mu  sync.Mutex
	seq atomic.Uint64
}

func (c *searchSocket) readLoop(ctx context.Context) {
	defer func() {
		c.gate.Cancel()
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var req searchRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.log.Warnw("WebSocket read failed", "error", err)
			}
			return
		}

		query := req.Query
		seq := c.seq.Add(1)
		c.gate.Do(ctx,
			func(ctx context.Context) resolve.Result {
				return c.resolver.Resolve(ctx, query)
			},
			func(result resolve.Result) {
				c.write(searchResponse{Seq: seq, Query: query, Result: result})
			},
		)
	}
}

func (c *searchSocket) write(resp searchResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(resp); err != nil {
		c.log.Debugw("WebSocket write failed",
			"query", resp.Query,
			"error", err,
		)
	}
}

func (c *searchSocket) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
