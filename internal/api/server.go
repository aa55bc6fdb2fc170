// Package api exposes the assistant over HTTP: the public chat surface, the
// domain catalog and the store administration endpoints.
package api

import (
	"errors"
	"net/http"

	"github.com/salusdesk/salus/internal/catalog"
	"github.com/salusdesk/salus/internal/chat"
	"github.com/salusdesk/salus/internal/log"
)

// ServerConfig wires the handlers and the middleware stack.
type ServerConfig struct {
	Logger       log.Logger
	Chat         *chat.Orchestrator // Required
	Catalog      *catalog.Catalog   // Required
	Admin        StoreAdmin         // Optional: nil disables the admin API
	Ingestor     PageIngestor       // Optional: nil disables page ingestion
	AllowEnglish bool
	CORSOrigins  []string
	TrustProxy   bool
	RatePerSec   float64 // Tokens refilled per second per IP (0 = 1/s)
	RateBurst    int     // Bucket size per IP (0 = 30)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the server with all routes and middleware configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Chat == nil {
		return nil, errors.New("chat orchestrator is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{orchestrator: cfg.Chat, logger: logger}
	dh := &domainsHandler{catalog: cfg.Catalog, lister: cfg.Admin, logger: logger}
	wh := &welcomeHandler{allowEnglish: cfg.AllowEnglish, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("GET /api/v1/domains", dh.list)
	mux.HandleFunc("GET /api/v1/welcome", wh.greet)

	if cfg.Admin != nil {
		ah := &adminHandler{admin: cfg.Admin, ingestor: cfg.Ingestor, logger: logger}
		mux.HandleFunc("GET /api/v1/admin/stores", ah.listStores)
		mux.HandleFunc("POST /api/v1/admin/stores", ah.createStore)
		mux.HandleFunc("DELETE /api/v1/admin/stores/{id}", ah.deleteStore)
		mux.HandleFunc("GET /api/v1/admin/stores/{id}/documents", ah.listDocuments)
		mux.HandleFunc("DELETE /api/v1/admin/stores/{id}/documents/{doc...}", ah.deleteDocument)
		if cfg.Ingestor != nil {
			mux.HandleFunc("POST /api/v1/admin/stores/{id}/pages", ah.ingestPage)
		}
	}

	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 30
	}
	limiter := newIPLimiter(perSec, burst)

	// Middleware stack, outermost first:
	//   Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
	// RequestID precedes Logging so the id appears in request lines; CORS
	// sits before the limiter so preflight OPTIONS always carries its
	// headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(limiter, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	top := http.NewServeMux()
	top.HandleFunc("GET /health", healthHandler(logger))
	top.Handle("/", handler)

	return &Server{mux: top}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// healthHandler answers liveness probes.
func healthHandler(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
