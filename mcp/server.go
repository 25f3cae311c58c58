// Package mcp serves the router's tools over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sweetpotato0/ai-desk/router"
	"github.com/sweetpotato0/ai-desk/tool"
)

// ErrNoDispatcher is returned when the server has nothing to route calls to.
var ErrNoDispatcher = errors.New("mcp: dispatcher is nil")

// Dispatcher routes one raw {tool, payload} request.
type Dispatcher interface {
	Dispatch(ctx context.Context, body []byte) router.Response
}

// Option configures optional MCP server behaviour.
type Option func(*serverConfig)

type serverConfig struct {
	implementation sdkmcp.Implementation
	logger         *slog.Logger
}

// WithServerInfo sets the implementation metadata advertised to clients.
func WithServerInfo(name, version string) Option {
	return func(cfg *serverConfig) {
		if name != "" {
			cfg.implementation.Name = name
		}
		if version != "" {
			cfg.implementation.Version = version
		}
	}
}

// WithLogger configures logging for the MCP server.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serverConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Server exposes write, ideas and focus as MCP tools.
type Server struct {
	dispatcher Dispatcher
	server     *sdkmcp.Server
	logger     *slog.Logger
}

// NewServer creates an MCP server whose tool calls go through dispatcher.
func NewServer(dispatcher Dispatcher, opts ...Option) (*Server, error) {
	if dispatcher == nil {
		return nil, ErrNoDispatcher
	}

	cfg := serverConfig{
		implementation: sdkmcp.Implementation{Name: "ai-desk", Version: "dev"},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		dispatcher: dispatcher,
		server:     sdkmcp.NewServer(&cfg.implementation, nil),
		logger:     cfg.logger,
	}
	for _, t := range tool.List() {
		s.server.AddTool(&sdkmcp.Tool{
			Name:        string(t.Name),
			Description: t.Description,
			InputSchema: inputSchema(t),
		}, s.handler(t.Name))
	}
	return s, nil
}

// Run serves on the given transport until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	if err := s.server.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp: serve: %w", err)
	}
	return nil
}

// RunStdio serves over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &sdkmcp.StdioTransport{})
}

// Connect attaches the server to a single transport, mainly for in-process use.
func (s *Server) Connect(ctx context.Context, transport sdkmcp.Transport) (*sdkmcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) handler(name tool.Name) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		args := json.RawMessage(`{}`)
		if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
			args = req.Params.Arguments
		}

		body, err := json.Marshal(tool.Request{Tool: name, Payload: args})
		if err != nil {
			return nil, fmt.Errorf("mcp: encode %s request: %w", name, err)
		}

		resp := s.dispatcher.Dispatch(ctx, body)
		s.logger.DebugContext(ctx, "mcp tool call", "tool", string(name), "status", resp.Status)
		return toResult(resp)
	}
}

// toResult turns an envelope into tool output: text for write, JSON for the
// item lists, and an error result carrying the envelope message on failure.
func toResult(resp router.Response) (*sdkmcp.CallToolResult, error) {
	env := resp.Envelope
	if !env.OK {
		msg := "tool call failed"
		if env.Error != nil {
			msg = fmt.Sprintf("%s: %s", env.Error.Code, env.Error.Message)
		}
		return &sdkmcp.CallToolResult{
			IsError: true,
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: msg}},
		}, nil
	}

	if text, ok := env.Data.(string); ok {
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
		}, nil
	}

	data, err := json.Marshal(env.Data)
	if err != nil {
		return nil, fmt.Errorf("mcp: encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content:           []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		StructuredContent: env.Data,
	}, nil
}
