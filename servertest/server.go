// Package servertest runs an in-process game server endpoint for tests. It
// speaks the same transports as the real backend (a websocket at /ws and
// WebRTC signaling at /webrtc/offer) but has no simulation: tests push
// messages with Broadcast and observe what clients sent on Received.
package servertest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"

	"snake-client/auth"
	"snake-client/protocol"
)

// Options configures a Server. The zero value is an open server.
type Options struct {
	// Secret, when set, requires a bearer token signed with it on every route.
	Secret []byte
	// API builds peer connections for the WebRTC endpoint.
	API    *webrtc.API
	Logger *zap.Logger
}

// Received is one text message a client sent.
type Received struct {
	PeerID string
	Data   []byte
}

type Server struct {
	*httptest.Server

	opts      Options
	log       *zap.Logger
	received  chan Received
	connected chan string

	mu    sync.RWMutex
	peers map[string]*peer
	order []string
}

func NewServer(opts Options) *Server {
	s := &Server{
		opts:      opts,
		log:       opts.Logger,
		received:  make(chan Received, 256),
		connected: make(chan string, 16),
		peers:     make(map[string]*peer),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		if opts.Secret != nil {
			r.Use(auth.Middleware(opts.Secret))
		}
		r.Get("/ws", s.handleWebSocket)
		r.Post("/webrtc/offer", s.handleOffer)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// WSURL is the websocket endpoint, ws://127.0.0.1:port/ws.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

// SignalURL is the WebRTC offer endpoint.
func (s *Server) SignalURL() string {
	return s.URL + "/webrtc/offer"
}

// Received yields client messages in arrival order.
func (s *Server) Received() <-chan Received { return s.received }

// Connected yields the id of every peer as it connects.
func (s *Server) Connected() <-chan string { return s.connected }

// Broadcast sends a raw text frame to every connected peer.
func (s *Server) Broadcast(data []byte) {
	for _, p := range s.snapshot() {
		p.enqueue(frame{data: data})
	}
}

// BroadcastMessage encodes m and sends it to every connected peer.
func (s *Server) BroadcastMessage(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	s.Broadcast(data)
	return nil
}

// BroadcastBinary sends a binary frame, which clients must not treat as a message.
func (s *Server) BroadcastBinary(data []byte) {
	for _, p := range s.snapshot() {
		p.enqueue(frame{data: data, binary: true})
	}
}

// Disconnect closes every peer with the given close code and reason.
func (s *Server) Disconnect(code int, reason string) {
	for _, p := range s.snapshot() {
		p.enqueue(frame{close: true, code: code, data: []byte(reason)})
	}
}

// Peer reports the username of a connected peer.
func (s *Server) Peer(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[id]
	if !ok {
		return "", false
	}
	return p.username, true
}

func (s *Server) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

func (s *Server) Close() {
	for _, p := range s.snapshot() {
		p.stop()
	}
	s.Server.Close()
}

func (s *Server) addPeer(r *http.Request) *peer {
	id := uuid.New().String()
	username := r.URL.Query().Get("username")
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		username = claims.Username
	}
	if username == "" {
		username = "Player_" + id[:8]
	}

	p := newPeer(id, username)
	s.mu.Lock()
	s.peers[id] = p
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.log.Info("peer connected", zap.String("peer", id), zap.String("username", username))
	select {
	case s.connected <- id:
	default:
	}
	return p
}

func (s *Server) removePeer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.peers, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.log.Info("peer removed", zap.String("peer", id))
}

func (s *Server) snapshot() []*peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*peer, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.peers[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) deliver(p *peer, data []byte) {
	select {
	case s.received <- Received{PeerID: p.id, Data: data}:
	case <-p.done:
	}
}

type frame struct {
	data   []byte
	binary bool
	close  bool
	code   int
}

type peer struct {
	id       string
	username string
	frames   chan frame
	done     chan struct{}
	once     sync.Once
}

func newPeer(id, username string) *peer {
	return &peer{
		id:       id,
		username: username,
		frames:   make(chan frame, 256),
		done:     make(chan struct{}),
	}
}

func (p *peer) enqueue(f frame) {
	select {
	case p.frames <- f:
	case <-p.done:
	}
}

func (p *peer) stop() {
	p.once.Do(func() { close(p.done) })
}
