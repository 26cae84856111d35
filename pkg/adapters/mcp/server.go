package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lodge"
	"github.com/aretw0/lodge/internal/logging"
	"github.com/aretw0/lodge/internal/presentation/graph"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const graphURI = "lodge://graph"

// Service is the conversation lifecycle exposed as tools.
type Service interface {
	Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.Reply, error)
	Submit(ctx context.Context, sessionID, text string) (*domain.Reply, error)
	Edges() []domain.Edge
}

// StartArgs are the arguments of start_conversation.
type StartArgs struct {
	UserID         string `json:"user_id,omitempty"`
	SearchCriteria string `json:"search_criteria,omitempty"`
}

// SubmitArgs are the arguments of submit_input.
type SubmitArgs struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
}

// Server exposes the conversation as an MCP server.
type Server struct {
	svc       Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("lodge-mcp", strings.TrimSpace(lodge.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_conversation",
		mcp.WithDescription("Start a property preference conversation. Returns the session id and the first prompts."),
		mcp.WithString("user_id", mcp.Description("Caller identity (optional)")),
		mcp.WithString("search_criteria", mcp.Description("JSON object with location, propertyType, bedrooms{min,max} and price{min,max} from a prior search (optional)")),
		mcp.WithOutputSchema[domain.Reply](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	submitTool := mcp.NewTool("submit_input",
		mcp.WithDescription("Answer the current prompt of a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by start_conversation")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The user's answer, usually one of the offered options")),
		mcp.WithOutputSchema[domain.Reply](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the conversation flow as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateMermaid(s.svc.Edges(), nil)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args StartArgs) (domain.Reply, error) {
	req := domain.InitiateRequest{UserID: args.UserID}
	if raw := strings.TrimSpace(args.SearchCriteria); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.SearchCriteria); err != nil {
			return domain.Reply{}, fmt.Errorf("%w: search_criteria is not a JSON object", domain.ErrInvalidSeed)
		}
	}

	reply, err := s.svc.Initiate(ctx, req)
	if err != nil {
		s.logger.Warn("mcp start rejected", "err", err)
		return domain.Reply{}, fmt.Errorf("start failed: %w", err)
	}
	return *reply, nil
}

func (s *Server) handleSubmit(ctx context.Context, _ mcp.CallToolRequest, args SubmitArgs) (domain.Reply, error) {
	reply, err := s.svc.Submit(ctx, args.SessionID, args.Input)
	if err != nil {
		s.logger.Warn("mcp submit rejected", "session_id", args.SessionID, "err", err)
		return domain.Reply{}, fmt.Errorf("submit failed: %w", err)
	}
	return *reply, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Conversation Transition Table",
		mcp.WithMIMEType("application/json"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw, err := json.Marshal(s.svc.Edges())
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      graphURI,
			MIMEType: "application/json",
			Text:     string(raw),
		},
	}, nil
}
