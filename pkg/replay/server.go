// Package replay serves a recorded assistant stream over HTTP so the chat
// client can be exercised without the real backend.
package replay

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultChatPath = "/api/assistant/chat"

// Config is the replay server configuration.
type Config struct {
	// ChatPath is the route the transcript is served on.
	ChatPath string

	Transcript Transcript

	// Delay is the pause before every chunk after the first.
	Delay time.Duration

	// Token, when set, must be presented as a bearer token.
	Token string
}

// Server replays a transcript to every chat request.
type Server struct {
	config Config
	chunks [][]byte
	logger *zap.Logger
	app    *fiber.App
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a replay server.
func NewServer(config Config, logger *zap.Logger) (*Server, error) {
	if len(config.Transcript) == 0 {
		return nil, errors.New("replay server requires a transcript")
	}
	if config.ChatPath == "" {
		config.ChatPath = defaultChatPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		chunks: config.Transcript.Chunks(),
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post(config.ChatPath, s.handleChat)

	return s, nil
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the replay server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	if s.config.Token != "" {
		if c.Get(fiber.HeaderAuthorization) != "Bearer "+s.config.Token {
			return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "invalid token"})
		}
	}

	var req chatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	s.logger.Debug("replaying transcript",
		zap.String("message", req.Message),
		zap.String("conversation_id", req.ConversationID),
		zap.String("request_id", c.Get("X-Request-ID")),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// pw.Write blocks until fasthttp consumes the chunk, so every chunk is
	// flushed on its own.
	pr, pw := io.Pipe()
	go s.writeChunks(pw)

	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) writeChunks(pw *io.PipeWriter) {
	defer pw.Close()

	for i, chunk := range s.chunks {
		if i > 0 && s.config.Delay > 0 {
			time.Sleep(s.config.Delay)
		}
		if _, err := pw.Write(chunk); err != nil {
			s.logger.Debug("replay client went away", zap.Int("chunk", i), zap.Error(err))
			return
		}
	}
}
