package server

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"jobalign/internal/observability"
)

//go:embed web
var webAssets embed.FS

// setupRoutes wires the API endpoints behind the middleware chain and
// mounts the embedded web UI at the root.
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	rateLimited := s.createRateLimitMiddleware(om)
	limitBody := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimited(s.authMiddleware(limitBody(h)))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	mux.HandleFunc("/api/analyze", protected(s.createAnalyzeHandler(om)))
	mux.HandleFunc("/api/cover-letter", protected(s.createCoverLetterHandler(om)))
	mux.HandleFunc("/api/refine", protected(s.createRefineHandler(om)))
	mux.HandleFunc("/api/extract", protected(s.createExtractHandler(om)))
	mux.Handle("/", s.webUIHandler())

	return mux
}

// webUIHandler serves the embedded single-page UI.
func (s *Server) webUIHandler() http.Handler {
	staticFS, err := fs.Sub(webAssets, "web")
	if err != nil {
		// The embed directive guarantees the subdirectory exists
		panic(err)
	}
	return http.FileServer(http.FS(staticFS))
}

// authMiddleware checks the X-API-Key header, falling back to an
// Authorization Bearer token. With no keys configured, authentication
// is skipped entirely.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				apiKey = bearer
			}
		}

		switch {
		case apiKey == "":
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
		case !s.APIKeys[apiKey]:
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
		default:
			s.Logger.Debug("API authentication successful",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			next(w, r)
		}
	}
}

// maskAPIKey keeps only the first characters of a key for log output.
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
