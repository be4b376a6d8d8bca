// Package web serves the assistant dashboard: live state, conversation
// log, and camera preview.
package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/buddybotics/go-buddy/pkg/camera"
	"github.com/buddybotics/go-buddy/pkg/hub"
)

const (
	maxLogEntries          = 500
	maxConversationEntries = 100
)

// State is the assistant state snapshot pushed to dashboard clients.
type State struct {
	Phase           string `json:"phase"` // idle, listening, thinking, speaking
	Waked           bool   `json:"waked"`
	ImageEnabled    bool   `json:"image_enabled"`
	CameraActive    bool   `json:"camera_active"`
	LastUserMessage string `json:"last_user_message"`
	LastReply       string `json:"last_reply"`
	Turns           int    `json:"turns"`
}

// LogEntry is one log line for the dashboard.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ConversationEntry is one message in the conversation view.
type ConversationEntry struct {
	Time    string `json:"time"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Server is the dashboard HTTP server.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	state   State
	stateMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	conversation   []ConversationEntry
	conversationMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub

	cam camera.Camera
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithCamera attaches a camera for the preview endpoints.
func WithCamera(cam camera.Camera) ServerOption {
	return func(s *Server) { s.cam = cam }
}

// WithServerLogger sets the logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates the dashboard server listening on addr.
func NewServer(addr string, opts ...ServerOption) *Server {
	s := &Server{
		addr:         addr,
		logs:         make([]LogEntry, 0, maxLogEntries),
		conversation: make([]ConversationEntry, 0, maxConversationEntries),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "web")
	s.statusHub = hub.New("status", s.logger)
	s.logHub = hub.New("logs", s.logger)
	s.cameraHub = hub.New("camera", s.logger)

	app := fiber.New(fiber.Config{
		AppName:               "Buddy Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/conversation", s.handleGetConversation)
	api.Get("/camera/config", s.handleCameraConfig)
	api.Get("/camera/presets", s.handleCameraPresets)
	api.Get("/camera/frame", s.handleCameraFrame)

	app.Get("/camera/stream", s.handleCameraStream)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start runs the server. It blocks until Shutdown.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.logHub.Run()
	go s.cameraHub.Run()
	if s.cam != nil {
		go s.pumpCameraFrames()
	}
	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server failed", "error", err)
		}
	}()
}

// Shutdown stops the server and disconnects websocket clients.
func (s *Server) Shutdown() error {
	s.statusHub.Stop()
	s.logHub.Stop()
	s.cameraHub.Stop()
	return s.app.Shutdown()
}

// UpdateState applies a mutation to the state and broadcasts the
// result.
func (s *Server) UpdateState(update func(*State)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// AddLog records a log line and broadcasts it.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// AddConversation records a conversation message.
func (s *Server) AddConversation(role, message string) {
	entry := ConversationEntry{
		Time:    time.Now().Format("15:04:05"),
		Role:    role,
		Message: message,
	}

	s.conversationMu.Lock()
	s.conversation = append(s.conversation, entry)
	if len(s.conversation) > maxConversationEntries {
		s.conversation = s.conversation[1:]
	}
	s.conversationMu.Unlock()
}

// pumpCameraFrames broadcasts fresh frames to websocket subscribers.
// It idles while nobody is connected.
func (s *Server) pumpCameraFrames() {
	interval := time.Second / time.Duration(s.cam.Config().Framerate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSeq uint64
	for range ticker.C {
		if s.cameraHub.ClientCount() == 0 {
			continue
		}
		frame, err := s.cam.Frame()
		if err != nil || frame.Seq == lastSeq {
			continue
		}
		lastSeq = frame.Seq
		s.cameraHub.BroadcastBinary(frame.JPEG)
	}
}

func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}

func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	hub.NewClient(s.statusHub, c).Run()
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
