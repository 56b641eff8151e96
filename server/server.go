// Package server exposes the engine over a WebSocket: one engine session per
// connection, turn records in, moves out.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brensch/lightcycle/bot"
	"github.com/brensch/lightcycle/logging"
	"github.com/brensch/lightcycle/protocol"
	"github.com/brensch/lightcycle/search"
	"github.com/brensch/lightcycle/store"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 20 * time.Second
	maxFrameSize = 1 << 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Config struct {
	Width  int
	Height int
	Budget search.Budget
	Search search.Config
	// TraceDir, when set, receives one decisions parquet file per connection.
	TraceDir string
	Logger   *slog.Logger
}

type Server struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}

	served atomic.Int64
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Server{cfg: cfg, log: cfg.Logger, clients: make(map[*client]struct{})}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/health", s.serveHealth)
	return mux
}

// Active is the number of open connections.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"active": s.Active(),
		"served": s.served.Load(),
		"budget": s.cfg.Budget.String(),
	})
}

type client struct {
	srv    *Server
	conn   *websocket.Conn
	sendCh chan ServerFrame
	log    *slog.Logger

	width, height int
	session       *bot.Session
	trace         *store.DecisionWriter
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade", "err", err)
		return
	}
	c := &client{
		srv:    s,
		conn:   conn,
		sendCh: make(chan ServerFrame, 16),
		width:  s.cfg.Width,
		height: s.cfg.Height,
	}
	c.log = s.log.With("remote", r.RemoteAddr)

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.served.Add(1)

	c.newSession()
	go c.writer()
	c.reader()
}

func (c *client) newSession() {
	c.closeTrace()
	id := uuid.NewString()
	opts := bot.Options{
		ID:     id,
		Width:  c.width,
		Height: c.height,
		Config: c.srv.cfg.Search,
		Budget: c.srv.cfg.Budget,
		Logger: c.log,
	}
	if dir := c.srv.cfg.TraceDir; dir != "" {
		tw, err := store.NewDecisionWriter(dir, id)
		if err != nil {
			c.log.Error("open trace", "err", err)
		} else {
			c.trace = tw
			opts.Recorder = tw
		}
	}
	c.session = bot.NewSession(opts)
	c.send(ServerFrame{Type: TypeWelcome, Session: id, Width: c.width, Height: c.height})
}

func (c *client) closeTrace() {
	if c.trace == nil {
		return
	}
	path, rows, err := c.trace.Finalize()
	if err != nil {
		c.log.Error("finalize trace", "err", err)
	} else if path != "" {
		c.log.Info("trace written", "path", path, "rows", rows)
	}
	c.trace = nil
}

func (c *client) send(f ServerFrame) {
	select {
	case c.sendCh <- f:
	default:
		// connection is not draining, drop rather than block the search
		c.log.Warn("send buffer full", "type", f.Type)
	}
}

func (c *client) writer() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case f, ok := <-c.sendCh:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.log.Warn("write", "err", err)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				c.log.Warn("ping", "err", err)
				return
			}
		}
	}
}

func (c *client) reader() {
	defer func() {
		c.closeTrace()
		c.srv.mu.Lock()
		delete(c.srv.clients, c)
		c.srv.mu.Unlock()
		close(c.sendCh)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f ClientFrame
		if err := c.conn.ReadJSON(&f); err != nil {
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				c.send(ServerFrame{Type: TypeError, Error: err.Error()})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("read", "err", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handle(f)
	}
}

func (c *client) handle(f ClientFrame) {
	switch f.Type {
	case TypeNewGame:
		if f.Width > 0 && f.Height > 0 {
			c.width, c.height = f.Width, f.Height
		}
		c.newSession()
	case TypeTurn:
		in, err := f.TurnInput()
		if err != nil {
			c.send(ServerFrame{Type: TypeError, Error: err.Error()})
			return
		}
		dec, err := c.session.Decide(in)
		if err != nil {
			c.log.Warn("turn rejected", "err", err)
			c.send(ServerFrame{Type: TypeError, Move: protocol.NoMove, Error: err.Error()})
			return
		}
		move := protocol.NoMove
		if dec.Found {
			move = dec.Dir.String()
		}
		c.send(ServerFrame{
			Type:       TypeMove,
			Session:    c.session.ID,
			Turn:       dec.Stats.Turn,
			Move:       move,
			Depth:      dec.Stats.MaxDepth,
			Results:    dec.Stats.ResultCount,
			Iterations: dec.Stats.Iterations,
			ElapsedMs:  float64(dec.Stats.Elapsed) / float64(time.Millisecond),
		})
	default:
		c.send(ServerFrame{Type: TypeError, Error: "unknown frame type " + f.Type})
	}
}
