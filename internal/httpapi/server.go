package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/ratelimit"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/store"
	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/tools"
)

// Server owns the HTTP facade: the plain net/http mux, the rate limiter
// instance, and the underlying http.Server. Grounded on the teacher's
// cmd-level server wiring (one http.ServeMux, handler structs registered
// via RegisterRoutes), adapted to add the rate limiter as the single
// process-wide instance the design notes call for, owned here and passed
// by reference into middleware rather than a package-level global.
type Server struct {
	httpServer *http.Server
	limiter    *ratelimit.Limiter
}

// Options configures a new Server.
type Options struct {
	Addr     string
	Registry *tools.Registry
	Repo     store.Repository
	DevMode  bool
}

// New builds a Server with all routes registered and the rate limiter
// started.
func New(opts Options) *Server {
	limiter := ratelimit.New(ratelimit.DefaultCap, ratelimit.DefaultWindow)
	limiter.StartSweeper()

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", healthHandler)

	listTools := &listToolsHandler{registry: opts.Registry}
	executeTool := &executeToolHandler{registry: opts.Registry, devMode: opts.DevMode}
	rpc := &rpcHandler{registry: opts.Registry, devMode: opts.DevMode}
	notifications := &notificationsHandler{repo: opts.Repo, devMode: opts.DevMode}

	mux.Handle("/mcp/tools", withRateLimit(limiter, listTools.ServeHTTP))
	mux.Handle("/mcp/tools/call", requireJSONContentType(withRateLimit(limiter, executeTool.ServeHTTP)))
	mux.Handle("/mcp/rpc", requireJSONContentType(withRateLimit(limiter, rpc.ServeHTTP)))
	mux.Handle("/mcp/notifications", withRateLimit(limiter, notifications.ServeHTTP))

	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		limiter: limiter,
	}
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections, waits for in-flight requests to
// drain (bounded by ctx), then halts the rate limiter's sweeper. This is the
// middle step of the documented shutdown ordering: worker stop, then HTTP
// stop-accepting, then store pool drain.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.limiter.Stop()
	return err
}
