// Package httpd exposes the MCP tooling over HTTP: health probe, tool
// listing, tool execution (plain, streamed, batched), direct LLM access
// and a host information endpoint.
package httpd

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/pkg/log"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/tool"

	"github.com/rs/zerolog"
)

const serverName = "talk-to-your-pc-mcp"

// ToolService is what the serving layer needs from the tool runtime.
// The manager swaps implementations on config reload.
type ToolService interface {
	Descriptors() []tool.Descriptor
	Names() []string
	Call(ctx context.Context, name, input string) (string, error)
	Stream(ctx context.Context, name, input string, emit func(tool.Event))
	Query(ctx context.Context, system, user string) (string, error)
}

type Config struct {
	Listen         string
	Version        string
	RequestTimeout time.Duration
}

type Server struct {
	cfg   Config
	tools atomic.Value // ToolService
	log   zerolog.Logger
}

func New(cfg Config) *Server {
	if cfg.Listen == "" {
		cfg.Listen = ":8081"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = time.Second * 120
	}
	return &Server{
		cfg: cfg,
		log: log.New("httpd"),
	}
}

// SetTools installs the tool runtime. Safe to call while serving,
// in-flight requests keep the runtime they started with.
func (s *Server) SetTools(ts ToolService) {
	s.tools.Store(&ts)
}

func (s *Server) toolService() (ToolService, bool) {
	v := s.tools.Load()
	if v == nil {
		return nil, false
	}
	return *v.(*ToolService), true
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/mcp/tools", s.handleListTools)
	mux.HandleFunc("/mcp/tools/call", s.handleCallTool)
	mux.HandleFunc("/mcp/tools/stream", s.handleStreamTool)
	mux.HandleFunc("/mcp/tools/batch", s.handleBatch)
	mux.HandleFunc("/llm/query", s.handleLLMQuery)
	mux.HandleFunc("/system/info", s.handleSystemInfo)

	return s.withAccessLog(withCORS(mux))
}

func (s *Server) Run(ctx context.Context) {
	// no WriteTimeout, the stream endpoint holds connections open
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Msgf("listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("shutdown failed")
		}
		s.log.Info().Msg("server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("server failed")
		}
	}
}
