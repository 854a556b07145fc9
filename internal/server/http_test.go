package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobalign/internal/ai"
	"jobalign/internal/config"
	"jobalign/internal/errors"
	"jobalign/internal/observability"
	"jobalign/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

// stubProvider counts operation calls and returns a fixed result.
type stubProvider struct {
	calls     int
	result    string
	modelDown bool
}

func (p *stubProvider) AnalyzeAlignment(ctx context.Context, in types.AlignmentInput) (types.AnalyzeOutput, *ai.TokenUsage, error) {
	p.calls++
	return types.AnalyzeOutput{Analysis: p.result}, nil, nil
}

func (p *stubProvider) DraftCoverLetter(ctx context.Context, in types.AlignmentInput) (types.CoverLetterOutput, *ai.TokenUsage, error) {
	p.calls++
	return types.CoverLetterOutput{CoverLetter: p.result}, nil, nil
}

func (p *stubProvider) RefineResume(ctx context.Context, in types.AlignmentInput) (types.RefineOutput, *ai.TokenUsage, error) {
	p.calls++
	return types.RefineOutput{RefinedResume: p.result}, nil, nil
}

func (p *stubProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: !p.modelDown}
}

func (p *stubProvider) Close() error { return nil }

func useStubProvider(s *Server, p *stubProvider) {
	s.newService = func(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (*ai.Service, error) {
		return &ai.Service{Provider: p}, nil
	}
}

func newTestServer(t *testing.T, cfg ServerConfig) (*Server, *observability.ObservabilityManager) {
	t.Helper()

	appCfg := &config.Config{}
	server := NewServer(appCfg, cfg, newTestLogger())

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{
		ServiceName: "jobalign-test",
		Enabled:     false,
	}, appCfg)
	require.NoError(t, err)

	return server, om
}

func TestAnalyzeHandlerValidation(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})
	handler := server.createAnalyzeHandler(om)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantError   string
	}{
		{
			name:        "wrong content type",
			contentType: "text/plain",
			body:        `{"resume":"r","jobDescription":"j"}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   "Invalid request body",
		},
		{
			name:        "malformed JSON",
			contentType: "application/json",
			body:        `{"resume":`,
			wantStatus:  http.StatusBadRequest,
			wantError:   "Invalid request body",
		},
		{
			name:        "missing resume",
			contentType: "application/json",
			body:        `{"resume":"  ","jobDescription":"j"}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   "Missing resume",
		},
		{
			name:        "missing job description",
			contentType: "application/json",
			body:        `{"resume":"r","jobDescription":""}`,
			wantStatus:  http.StatusBadRequest,
			wantError:   "Missing job description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()

			handler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, tt.wantError, errResp.Error)
		})
	}
}

func TestHealthHandlerReportsModelAvailability(t *testing.T) {
	tests := []struct {
		name       string
		modelDown  bool
		wantCode   int
		wantStatus string
	}{
		{"models available", false, http.StatusOK, "healthy"},
		{"model unavailable", true, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newTestServer(t, ServerConfig{Version: "test"})
			useStubProvider(server, &stubProvider{modelDown: tt.modelDown})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()

			server.healthHandler(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp["status"])

			models, ok := resp["ai_models"].(map[string]any)
			require.True(t, ok)
			analyze, ok := models["analyze"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, !tt.modelDown, analyze["available"])
		})
	}
}

func TestAnalyzeHandlerValidationSkipsProvider(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})
	provider := &stubProvider{}
	useStubProvider(server, provider)
	handler := server.createAnalyzeHandler(om)

	body := `{"resume":"   \n\t ","jobDescription":"j"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, provider.calls)
}

func TestAnalyzeHandlerSuccess(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})
	provider := &stubProvider{result: "**Strengths**\nSolid Go background"}
	useStubProvider(server, provider)
	handler := server.createAnalyzeHandler(om)

	body, err := json.Marshal(AlignmentRequest{Resume: "resume text", JobDescription: "job text"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, provider.calls)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, provider.result, resp.Analysis)
	assert.Contains(t, resp.AnalysisHTML, "<h3>Strengths</h3>")
}

func TestCoverLetterHandlerSuccess(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})
	provider := &stubProvider{result: "Dear Hiring Manager,"}
	useStubProvider(server, provider)
	handler := server.createCoverLetterHandler(om)

	body, err := json.Marshal(AlignmentRequest{Resume: "resume text", JobDescription: "job text"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/cover-letter", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, provider.calls)

	var resp CoverLetterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, provider.result, resp.CoverLetter)
}

func TestAnalyzeHandlerRejectsOversizedDocuments(t *testing.T) {
	// MaxRequestSize/2 per document
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 20})
	handler := server.createAnalyzeHandler(om)

	body, err := json.Marshal(AlignmentRequest{
		Resume:         strings.Repeat("x", 50),
		JobDescription: "short",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "Resume too large", errResp.Error)
}

func TestCoverLetterAndRefineHandlerValidation(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})

	handlers := map[string]http.HandlerFunc{
		"/api/cover-letter": server.createCoverLetterHandler(om),
		"/api/refine":       server.createRefineHandler(om),
	}

	for path, handler := range handlers {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"resume":"","jobDescription":"j"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, "Missing resume", errResp.Error)
		})
	}
}

func newMultipartRequest(t *testing.T, fieldName, fileName, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if fieldName != "" {
		part, err := writer.CreateFormFile(fieldName, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestExtractHandlerPlainText(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})
	handler := server.createExtractHandler(om)

	req := newMultipartRequest(t, "file", "resume.txt", "Senior Gopher, 10 years of experience")
	rec := httptest.NewRecorder()

	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FileName string `json:"fileName"`
		Text     string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "resume.txt", resp.FileName)
	assert.Equal(t, "Senior Gopher, 10 years of experience", resp.Text)
}

func TestExtractHandlerMissingFile(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})
	handler := server.createExtractHandler(om)

	req := newMultipartRequest(t, "", "", "")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "Missing file", errResp.Error)
}

func TestExtractHandlerUnsupportedType(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})
	handler := server.createExtractHandler(om)

	req := newMultipartRequest(t, "file", "resume.exe", "binary junk")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Message, "UNSUPPORTED_FILE_TYPE")
}

func TestExtractHandlerMalformedDocument(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{MaxRequestSize: 1024 * 1024})
	handler := server.createExtractHandler(om)

	req := newMultipartRequest(t, "file", "resume.pdf", "%PDF-1.4 not really a pdf")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{
		APIKeys: []string{"secret-key-12345"},
	})

	protected := server.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"invalid key", "X-API-Key", "wrong-key", http.StatusUnauthorized},
		{"valid header key", "X-API-Key", "secret-key-12345", http.StatusOK},
		{"valid bearer token", "Authorization", "Bearer secret-key-12345", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			protected(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuthMiddlewareDisabledWithoutKeys(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})

	protected := server.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	rec := httptest.NewRecorder()

	protected(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterBurst(t *testing.T) {
	limiter := NewRateLimiter(60, time.Minute, 2, newTestLogger())
	defer limiter.Close()

	assert.True(t, limiter.Allow("ip:10.0.0.1"))
	assert.True(t, limiter.Allow("ip:10.0.0.1"))
	assert.False(t, limiter.Allow("ip:10.0.0.1"), "third request should exceed burst capacity")

	// Different keys get independent buckets
	assert.True(t, limiter.Allow("ip:10.0.0.2"))

	stats := limiter.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, 2, stats["burst_capacity"])
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	server, om := newTestServer(t, ServerConfig{
		RateLimit: &config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 60,
			BurstCapacity:  1,
			ByIP:           true,
		},
	})
	defer server.RateLimiter.Close()

	handler := server.createRateLimitMiddleware(om)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	req.RemoteAddr = "192.0.2.1:12345"

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for single",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.5",
		},
		{
			name:       "x-forwarded-for list takes first",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			remoteAddr: "10.0.0.1:1234",
			want:       "198.51.100.7",
		},
		{
			name:       "falls back to remote addr",
			remoteAddr: "10.0.0.9:4321",
			want:       "10.0.0.9",
		},
		{
			name:       "invalid forwarded header ignored",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			remoteAddr: "10.0.0.9:4321",
			want:       "10.0.0.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestGetRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-API-Key", "abc123")

	assert.Equal(t, "api:abc123", getRateLimitKey(req, true, true))
	assert.Equal(t, "ip:10.0.0.1", getRateLimitKey(req, false, true))
	assert.Equal(t, "", getRateLimitKey(req, false, false))

	// Bearer token works as an API key source
	req.Header.Del("X-API-Key")
	req.Header.Set("Authorization", "Bearer xyz789")
	assert.Equal(t, "api:xyz789", getRateLimitKey(req, true, false))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "****", maskAPIKey("12345678"))
	assert.Equal(t, "12345678****", maskAPIKey("123456789abcdef"))
}

func TestNewServerBuildsAPIKeyMap(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{
		Host:    "localhost",
		Port:    "8080",
		APIKeys: []string{"key-one", "", "key-two"},
	})

	assert.Len(t, server.APIKeys, 2)
	assert.True(t, server.APIKeys["key-one"])
	assert.True(t, server.APIKeys["key-two"])
	assert.Nil(t, server.RateLimiter, "rate limiter should be nil when not enabled")
}

func TestStatsHandler(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{MaxRequestSize: 2048})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()

	server.statsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "jobalign", resp["service"])

	rateLimiting, ok := resp["rate_limiting"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, rateLimiting["enabled"])
}

func TestStatsHandlerRejectsNonGet(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/stats", nil)
	rec := httptest.NewRecorder()

	server.statsHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
