// Package server accepts WebSocket clients, queues their printer requests
// and broadcasts scanner events to them.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fieldlink/internal/zebra"
)

// Request kinds handled by the worker
const (
	KindPrint       = "print"
	KindBattery     = "battery"
	KindEnableRadio = "enable_radio"
)

// ScannerControl is the scanner surface exposed to clients
type ScannerControl interface {
	Resume()
	Pause()
	IsConnected() bool
	ConnectionDetails() string
}

// Config holds server configuration
type Config struct {
	QueueSize        int
	AllowedOrigins   []string
	MaxJobsPerMinute int
	WriteTimeout     time.Duration
}

// Job is a queued printer request
type Job struct {
	ID         string
	Kind       string
	Document   []byte
	ClientConn *websocket.Conn
	ReceivedAt time.Time
}

// Message is an inbound client message
type Message struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Document string `json:"document,omitempty"`
	Action   string `json:"action,omitempty"`
}

// ScannerStatus describes the scanner connection
type ScannerStatus struct {
	Available bool   `json:"available"`
	Connected bool   `json:"connected"`
	Details   string `json:"details,omitempty"`
}

// ScannerEvent is one scanner callback forwarded to clients
type ScannerEvent struct {
	Kind       string `json:"kind"`
	Connected  bool   `json:"connected"`
	Details    string `json:"details,omitempty"`
	Message    string `json:"message,omitempty"`
	IsLeft     bool   `json:"is_left"`
	IsPressed  bool   `json:"is_pressed"`
	IsScanning bool   `json:"is_scanning"`
	Payload    string `json:"payload,omitempty"`
	Symbology  string `json:"symbology,omitempty"`
}

// Response is an outbound message
type Response struct {
	Type     string         `json:"type"`
	ID       string         `json:"id,omitempty"`
	Status   string         `json:"status,omitempty"`
	Message  string         `json:"message,omitempty"`
	Code     string         `json:"code,omitempty"`
	Battery  *int           `json:"battery,omitempty"`
	Current  int            `json:"current,omitempty"`
	Capacity int            `json:"capacity,omitempty"`
	Scanner  *ScannerStatus `json:"scanner,omitempty"`
	Event    *ScannerEvent  `json:"event,omitempty"`
}

// Server manages WebSocket clients and the printer request queue
type Server struct {
	cfg          Config
	clients      *ClientRegistry
	jobQueue     chan *Job
	limiter      *JobRateLimiter
	log          zerolog.Logger
	shutdownOnce sync.Once
	shutdownChan chan struct{}

	mu      sync.RWMutex
	scanner ScannerControl
}

// NewServer creates a WebSocket server
func NewServer(cfg Config, log zerolog.Logger) *Server {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 50
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	return &Server{
		cfg:          cfg,
		clients:      NewClientRegistry(),
		jobQueue:     make(chan *Job, cfg.QueueSize),
		limiter:      NewJobRateLimiter(cfg.MaxJobsPerMinute),
		log:          log,
		shutdownChan: make(chan struct{}),
	}
}

// SetScanner attaches the scanner once it exists. The scanner delivers its
// events back to this server, so it cannot be passed to NewServer.
func (s *Server) SetScanner(sc ScannerControl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanner = sc
}

func (s *Server) scannerControl() ScannerControl {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanner
}

// QueueStatus returns current and max queue size
func (s *Server) QueueStatus() (current, capacity int) {
	return len(s.jobQueue), cap(s.jobQueue)
}

// JobQueue returns the queue for worker consumption
func (s *Server) JobQueue() <-chan *Job {
	return s.jobQueue
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	return s.clients.Count()
}

// HandleWebSocket handles a WebSocket connection until it closes
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Error accepting client")
		return
	}

	client := clientKey(r.RemoteAddr)
	s.clients.Add(conn)
	s.log.Info().Str("remote", r.RemoteAddr).Int("clients", s.clients.Count()).Msg("Client connected")

	ctx := r.Context()
	_ = wsjson.Write(ctx, conn, Response{
		Type:    "info",
		Status:  "connected",
		Message: "fieldlink ready",
		Scanner: s.scannerStatus(),
	})

	s.handleMessages(ctx, conn, client)

	s.clients.Remove(conn)
	_ = conn.Close(websocket.StatusNormalClosure, "disconnected")
	s.log.Info().Int("clients", s.clients.Count()).Msg("Client disconnected")
}

func (s *Server) handleMessages(ctx context.Context, conn *websocket.Conn, client string) {
	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}

		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway ||
				ctx.Err() != nil {
				return
			}
			s.log.Warn().Err(err).Msg("Error reading message")
			return
		}

		s.routeMessage(ctx, conn, client, &msg)
	}
}

func (s *Server) routeMessage(ctx context.Context, conn *websocket.Conn, client string, msg *Message) {
	switch msg.Type {
	case KindPrint, KindBattery, KindEnableRadio:
		s.handleJob(ctx, conn, client, msg)
	case "scanner":
		s.handleScanner(ctx, conn, msg)
	case "status":
		s.handleStatus(ctx, conn, msg)
	case "ping":
		_ = wsjson.Write(ctx, conn, Response{Type: "pong", ID: msg.ID, Status: "ok"})
	default:
		s.log.Warn().Str("type", msg.Type).Msg("Unknown message type")
		s.sendError(ctx, conn, msg.ID, "Unknown message type: "+msg.Type)
	}
}

func (s *Server) handleJob(ctx context.Context, conn *websocket.Conn, client string, msg *Message) {
	jobID := msg.ID
	if jobID == "" {
		jobID = uuid.NewString()
	}

	if msg.Type == KindPrint && msg.Document == "" {
		s.sendError(ctx, conn, jobID, "Field 'document' is required for type 'print'")
		return
	}
	if !s.limiter.Allow(client) {
		s.log.Warn().Str("client", client).Str("job", jobID).Msg("Rate limit exceeded")
		s.sendError(ctx, conn, jobID, "Too many requests, please retry in a minute")
		return
	}

	job := &Job{
		ID:         jobID,
		Kind:       msg.Type,
		ClientConn: conn,
		ReceivedAt: time.Now(),
	}
	if msg.Type == KindPrint {
		job.Document = zebra.ASCII(msg.Document)
	}

	select {
	case s.jobQueue <- job:
		current, capacity := s.QueueStatus()
		s.log.Debug().Str("job", jobID).Str("kind", job.Kind).Int("queued", current).Msg("Job queued")
		_ = wsjson.Write(ctx, conn, Response{
			Type:     "ack",
			ID:       jobID,
			Status:   "queued",
			Current:  current,
			Capacity: capacity,
		})
	default:
		current, capacity := s.QueueStatus()
		s.log.Warn().Str("job", jobID).Int("queued", current).Int("capacity", capacity).Msg("Queue full, rejecting job")
		s.sendError(ctx, conn, jobID, "Queue full, please retry in a few seconds")
	}
}

func (s *Server) handleScanner(ctx context.Context, conn *websocket.Conn, msg *Message) {
	sc := s.scannerControl()
	if sc == nil {
		s.sendError(ctx, conn, msg.ID, "No scanner configured")
		return
	}

	switch msg.Action {
	case "resume":
		sc.Resume()
	case "pause":
		sc.Pause()
	case "":
	default:
		s.sendError(ctx, conn, msg.ID, "Unknown scanner action: "+msg.Action)
		return
	}

	_ = wsjson.Write(ctx, conn, Response{
		Type:    "scanner",
		ID:      msg.ID,
		Status:  "ok",
		Scanner: s.scannerStatus(),
	})
}

func (s *Server) handleStatus(ctx context.Context, conn *websocket.Conn, msg *Message) {
	current, capacity := s.QueueStatus()
	_ = wsjson.Write(ctx, conn, Response{
		Type:     "status",
		ID:       msg.ID,
		Status:   "ok",
		Current:  current,
		Capacity: capacity,
		Message:  "Queue: " + strconv.Itoa(current) + "/" + strconv.Itoa(capacity),
		Scanner:  s.scannerStatus(),
	})
}

func (s *Server) scannerStatus() *ScannerStatus {
	sc := s.scannerControl()
	if sc == nil {
		return &ScannerStatus{}
	}
	return &ScannerStatus{
		Available: true,
		Connected: sc.IsConnected(),
		Details:   sc.ConnectionDetails(),
	}
}

func (s *Server) sendError(ctx context.Context, conn *websocket.Conn, id, message string) {
	_ = wsjson.Write(ctx, conn, Response{
		Type:    "error",
		ID:      id,
		Status:  "error",
		Message: message,
	})
}

// NotifyClient sends a result to one client
func (s *Server) NotifyClient(conn *websocket.Conn, response Response) error {
	if conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	return wsjson.Write(ctx, conn, response)
}

// Broadcast sends response to every connected client. Failed writes are
// logged and skipped.
func (s *Server) Broadcast(response Response) {
	for _, conn := range s.clients.Snapshot() {
		if err := s.NotifyClient(conn, response); err != nil {
			s.log.Debug().Err(err).Str("type", response.Type).Msg("Broadcast to client failed")
		}
	}
}

// Shutdown disconnects every client
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)

		clients := s.clients.Snapshot()
		s.log.Info().Int("clients", len(clients)).Msg("Shutting down, disconnecting clients")

		for _, conn := range clients {
			_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		}
	})
}

func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
