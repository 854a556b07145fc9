package ai

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"jobalign/internal/config"
	appErrors "jobalign/internal/errors"
	"jobalign/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *appErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *appErrors.Logger) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeMissingAPIKey,
			"AI API key is not configured (set JOBALIGN_AI_APIKEY or GEMINI_API_KEY)", nil)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}, nil
}

// ModelInfo describes the configured model as seen by the health endpoint.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo probes the configured model through the model circuit breaker.
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)
	return modelInfo
}

// executeWithRetry retries fn with exponential backoff plus jitter, giving up
// early on non-retryable errors or context cancellation.
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(retryBackoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// retryBackoff doubles per attempt with up to 10% jitter, capped at 30s. The
// jitter keeps concurrent clients from retrying in lockstep.
func retryBackoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitterBig, _ := rand.Int(rand.Reader, big.NewInt(int64(float64(base)*0.1)))
	return min(base+time.Duration(jitterBig.Int64()), 30*time.Second)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		// Timeouts and connection failures are worth another attempt
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// isAuthError reports whether the failure was a rejected or missing credential
func isAuthError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
	}
	return false
}

// generateText runs one completion with tracing, circuit breaker, retry and
// the non-empty response requirement shared by all three operations.
func (g *GeminiProvider) generateText(
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	spanAttributes ...attribute.KeyValue,
) (string, *TokenUsage, error) {
	tracer := otel.Tracer("jobalign.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	genaiConfig := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if g.config.Timeout != nil && *g.config.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(callCtx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		if isAuthError(err) {
			return "", nil, appErrors.NewAIError(appErrors.ErrCodeAIAuthFailed,
				"AI credential was rejected; check the configured API key", err)
		}
		return "", nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+operationName+"; please try again later", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		err := appErrors.NewAIError(appErrors.ErrCodeAIEmptyResponse,
			"AI returned an empty response for "+operationName, nil)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, err
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens))
	}
	span.SetAttributes(attribute.Bool("success", true))
	return text, tokenUsage, nil
}

// AnalyzeAlignment implements AIProvider for the alignment analysis
func (g *GeminiProvider) AnalyzeAlignment(ctx context.Context, input types.AlignmentInput) (types.AnalyzeOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsFor("analyze", input.Resume, input.JobDescription)

	text, tokenUsage, err := g.generateText(
		ctx,
		"analyze_alignment",
		userPrompt,
		systemPrompt,
		attribute.Int("input.resume_length", len(input.Resume)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.AnalyzeOutput{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.analysis_length", len(text)))
	}

	return types.AnalyzeOutput{Analysis: text}, tokenUsage, nil
}

// DraftCoverLetter implements AIProvider for cover letter drafting
func (g *GeminiProvider) DraftCoverLetter(ctx context.Context, input types.AlignmentInput) (types.CoverLetterOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsFor("cover", input.Resume, input.JobDescription)

	text, tokenUsage, err := g.generateText(
		ctx,
		"draft_cover_letter",
		userPrompt,
		systemPrompt,
		attribute.Int("input.resume_length", len(input.Resume)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.CoverLetterOutput{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.letter_length", len(text)))
	}

	return types.CoverLetterOutput{CoverLetter: text}, tokenUsage, nil
}

// RefineResume implements AIProvider for the ATS-optimized rewrite
func (g *GeminiProvider) RefineResume(ctx context.Context, input types.AlignmentInput) (types.RefineOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsFor("refine", input.Resume, input.JobDescription)

	text, tokenUsage, err := g.generateText(
		ctx,
		"refine_resume",
		userPrompt,
		systemPrompt,
		attribute.Int("input.resume_length", len(input.Resume)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.RefineOutput{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.refined_length", len(text)))
	}

	return types.RefineOutput{RefinedResume: text}, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy()

	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client has no Close in single-shot usage
	return nil
}

// getPromptsFor returns system and user prompts for an operation, with the
// resume and job description substituted into the user template.
func (g *GeminiProvider) getPromptsFor(promptType, resume, jobDescription string) (string, string) {
	systemPrompt := g.getSystemPrompt(promptType)
	userPrompt := g.getUserPrompt(promptType)

	return systemPrompt, fmt.Sprintf(userPrompt, resume, jobDescription)
}

// getSystemPrompt returns the appropriate system prompt
func (g *GeminiProvider) getSystemPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	configSystemPrompts := &config.SystemPrompts{}
	if configPrompts != nil {
		configSystemPrompts = &configPrompts.SystemPrompts
	}

	switch promptType {
	case "analyze":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.Analyze,
			configSystemPrompts.Analyze,
			DefaultSystemPrompts.Analyze,
		)
	case "cover":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.CoverLetter,
			configSystemPrompts.CoverLetter,
			DefaultSystemPrompts.CoverLetter,
		)
	case "refine":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.Refine,
			configSystemPrompts.Refine,
			DefaultSystemPrompts.Refine,
		)
	default:
		return ""
	}
}

// getUserPrompt returns the appropriate user prompt template
func (g *GeminiProvider) getUserPrompt(promptType string) string {
	loadedPrompts, configPrompts := g.getPrompts(promptType)
	configUserPrompts := &config.UserPrompts{}
	if configPrompts != nil {
		configUserPrompts = &configPrompts.UserPrompts
	}

	switch promptType {
	case "analyze":
		return resolvePrompt(
			loadedPrompts.UserPrompts.Analyze,
			configUserPrompts.Analyze,
			DefaultUserPrompts.Analyze,
		)
	case "cover":
		return resolvePrompt(
			loadedPrompts.UserPrompts.CoverLetter,
			configUserPrompts.CoverLetter,
			DefaultUserPrompts.CoverLetter,
		)
	case "refine":
		return resolvePrompt(
			loadedPrompts.UserPrompts.Refine,
			configUserPrompts.Refine,
			DefaultUserPrompts.Refine,
		)
	default:
		return ""
	}
}

// TokenUsage carries the token counts reported with a Gemini response.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage pulls usage metadata out of a response, or nil when the
// API omitted it.
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	m := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(m.PromptTokenCount),
		OutputTokens: int64(m.CandidatesTokenCount),
		TotalTokens:  int64(m.TotalTokenCount),
	}
}

// getPrompts returns the loaded prompts for the operation plus any config-inline prompts
func (g *GeminiProvider) getPrompts(promptType string) (config.OperationLoadedPrompts, *config.PromptConfig) {
	loadedPrompts := config.GetPromptsForOperation(promptType)
	return loadedPrompts, &g.config.CustomPrompts
}

// resolvePrompt selects the correct prompt string based on priority:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
