package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	mcplocal "github.com/felixgeelhaar/todolist/adapter/mcp"
)

// ServerConfig configures the MCP listener.
type ServerConfig struct {
	Addr      string
	AuthToken string
	Version   string
}

// NewServer builds the MCP server with every todo tool, resource and prompt.
func NewServer(cfg ServerConfig, deps mcplocal.ToolDependencies, logger *slog.Logger) (*mcpgo.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    "todolist-mcp",
		Version: version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})

	if err := mcplocal.RegisterTools(srv, deps); err != nil {
		return nil, err
	}
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("failed to register MCP resources", "error", err)
	}
	if err := mcplocal.RegisterPrompts(srv); err != nil {
		logger.Warn("failed to register MCP prompts", "error", err)
	}
	return srv, nil
}

// Serve starts the MCP server over HTTP and blocks until the context is canceled.
func Serve(ctx context.Context, cfg ServerConfig, deps mcplocal.ToolDependencies, logger *slog.Logger) error {
	if cfg.Addr == "" {
		return errors.New("mcp address is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(cfg, deps, logger)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.Addr)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.Addr, nil, mcpgo.WithMiddleware(middlewareStack(cfg, logger)...))
}

// middlewareStack is mcp-go's default stack, behind bearer-token auth when
// a token is configured.
func middlewareStack(cfg ServerConfig, logger *slog.Logger) []middleware.Middleware {
	adapter := mcpLogger{logger: logger}
	stack := middleware.DefaultStack(adapter)
	if cfg.AuthToken == "" {
		logger.Warn("MCP auth token not set; requests will be unauthenticated")
		return stack
	}
	authenticator := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
		cfg.AuthToken: {ID: "mcp", Name: "mcp"},
	}))
	return append([]middleware.Middleware{middleware.Auth(authenticator, middleware.WithAuthLogger(adapter))}, stack...)
}

// mcpLogger forwards mcp-go middleware logging to slog.
type mcpLogger struct {
	logger *slog.Logger
}

func (l mcpLogger) log(level slog.Level, msg string, fields []middleware.Field) {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func (l mcpLogger) Debug(msg string, fields ...middleware.Field) { l.log(slog.LevelDebug, msg, fields) }
func (l mcpLogger) Info(msg string, fields ...middleware.Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l mcpLogger) Warn(msg string, fields ...middleware.Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l mcpLogger) Error(msg string, fields ...middleware.Field) { l.log(slog.LevelError, msg, fields) }
