package server

import (
	"time"

	"jobalign/internal/ai"
	"jobalign/internal/config"
	jobalignErrors "jobalign/internal/errors"
)

// AlignmentRequest is the request body shared by the analyze,
// cover-letter and refine endpoints.
type AlignmentRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
}

// AnalyzeResponse carries the raw analysis text plus a server-rendered
// HTML version for the web UI.
type AnalyzeResponse struct {
	Analysis     string `json:"analysis"`
	AnalysisHTML string `json:"analysisHtml"`
}

type CoverLetterResponse struct {
	CoverLetter string `json:"coverLetter"`
}

type RefineResponse struct {
	RefinedResume string `json:"refinedResume"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server is the HTTP API server. APIKeys is keyed by accepted key for
// constant-time membership checks; RateLimiter is nil when rate limiting
// is disabled.
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config
	Logger    *jobalignErrors.Logger

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	APIKeys     map[string]bool
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64

	// newService builds the per-operation AI service; tests swap in a
	// factory backed by a stub provider.
	newService func(cfg *config.OperationAIConfig, operation string, logger *jobalignErrors.Logger) (*ai.Service, error)
}

// ServerConfig collects the constructor arguments for NewServer.
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer builds a Server, indexing the configured API keys and
// creating the rate limiter when one is enabled.
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *jobalignErrors.Logger) *Server {
	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		Logger:         logger,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        make(map[string]bool, len(cfg.APIKeys)),
		RateLimit:      cfg.RateLimit,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		newService:     ai.NewService,
	}
	for _, key := range cfg.APIKeys {
		if key != "" {
			s.APIKeys[key] = true
		}
	}
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		s.RateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.Window, cfg.RateLimit.BurstCapacity, logger)
	}
	return s
}
