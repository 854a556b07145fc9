package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jobalign/internal/ai"
	appErrors "jobalign/internal/errors"
	"jobalign/internal/extract"
	"jobalign/internal/observability"
	"jobalign/internal/render"
	"jobalign/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const apiTracerName = "jobalign.api"

// aiEndpoint describes one AI-backed endpoint. All three accept the same
// resume/jobDescription payload and differ only in the provider call and
// the response shape.
type aiEndpoint[T any] struct {
	op        string // operation key, also selects the per-operation AI config
	spanName  string
	metric    string // business metric event recorded on completion
	failTitle string
	lenAttr   string // span/metric attribute suffix for the output length
	invoke    func(ctx context.Context, provider ai.AIProvider, in types.AlignmentInput) (T, *ai.TokenUsage, error)
	outLen    func(T) int
	payload   func(T) any
}

// aiHandler runs the shared request pipeline for an AI endpoint: decode,
// validate, call the provider under metrics tracking, respond.
func aiHandler[T any](s *Server, om *observability.ObservabilityManager, ep aiEndpoint[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(apiTracerName).Start(r.Context(), ep.spanName)
		defer span.End()

		var req AlignmentRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if !s.validateAlignmentInput(w, span, req.Resume, req.JobDescription) {
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.Resume)),
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("operation", ep.op),
		)

		opCfg := s.operationConfigs()[ep.op]
		svc, err := s.newService(&opCfg, ep.op, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		input := types.AlignmentInput{Resume: req.Resume, JobDescription: req.JobDescription}
		metrics := om.GetMetrics()

		var result T
		err = metrics.TrackAIOperationWithTokens(ctx, ep.op, func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := ep.invoke(ctx, svc.Provider, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, ep.metric, false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, ep.failTitle, err.Error(), http.StatusInternalServerError)
			return
		}

		outLen := ep.outLen(result)
		metrics.RecordBusinessMetric(ctx, ep.metric, true, om,
			attribute.Int("output."+ep.lenAttr, outLen))
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response."+ep.lenAttr, outLen),
		)
		writeSpanJSON(w, span, ep.payload(result))
	}
}

// validateAlignmentInput checks the shared payload, writing the error
// response itself. Returns false when the request should not proceed.
func (s *Server) validateAlignmentInput(w http.ResponseWriter, span trace.Span, resume, jobDescription string) bool {
	// Two documents share the request budget.
	limit := int(s.MaxRequestSize / 2)

	checks := []struct {
		failed  bool
		reason  string
		title   string
		message string
	}{
		{strings.TrimSpace(resume) == "", "missing resume",
			"Missing resume", "resume field is required"},
		{strings.TrimSpace(jobDescription) == "", "missing job description",
			"Missing job description", "jobDescription field is required"},
		{len(resume) > limit, "resume too large",
			"Resume too large", fmt.Sprintf("resume exceeds recommended size limit of %d characters", limit)},
		{len(jobDescription) > limit, "job description too large",
			"Job description too large", fmt.Sprintf("jobDescription exceeds recommended size limit of %d characters", limit)},
	}
	for _, check := range checks {
		if check.failed {
			span.RecordError(errors.New(check.reason))
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, check.title, check.message, http.StatusBadRequest)
			return false
		}
	}
	return true
}

func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return aiHandler(s, om, aiEndpoint[types.AnalyzeOutput]{
		op:        "analyze",
		spanName:  "api.analyze",
		metric:    "alignment_analyzed",
		failTitle: "Failed to analyze alignment",
		lenAttr:   "analysis_length",
		invoke: func(ctx context.Context, p ai.AIProvider, in types.AlignmentInput) (types.AnalyzeOutput, *ai.TokenUsage, error) {
			return p.AnalyzeAlignment(ctx, in)
		},
		outLen: func(o types.AnalyzeOutput) int { return len(o.Analysis) },
		payload: func(o types.AnalyzeOutput) any {
			// The web UI renders the HTML variant directly.
			return AnalyzeResponse{Analysis: o.Analysis, AnalysisHTML: render.AnalysisHTML(o.Analysis)}
		},
	})
}

func (s *Server) createCoverLetterHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return aiHandler(s, om, aiEndpoint[types.CoverLetterOutput]{
		op:        "cover",
		spanName:  "api.cover_letter",
		metric:    "cover_letter_drafted",
		failTitle: "Failed to draft cover letter",
		lenAttr:   "letter_length",
		invoke: func(ctx context.Context, p ai.AIProvider, in types.AlignmentInput) (types.CoverLetterOutput, *ai.TokenUsage, error) {
			return p.DraftCoverLetter(ctx, in)
		},
		outLen:  func(o types.CoverLetterOutput) int { return len(o.CoverLetter) },
		payload: func(o types.CoverLetterOutput) any { return CoverLetterResponse{CoverLetter: o.CoverLetter} },
	})
}

func (s *Server) createRefineHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return aiHandler(s, om, aiEndpoint[types.RefineOutput]{
		op:        "refine",
		spanName:  "api.refine",
		metric:    "resume_refined",
		failTitle: "Failed to refine resume",
		lenAttr:   "refined_length",
		invoke: func(ctx context.Context, p ai.AIProvider, in types.AlignmentInput) (types.RefineOutput, *ai.TokenUsage, error) {
			return p.RefineResume(ctx, in)
		},
		outLen:  func(o types.RefineOutput) int { return len(o.RefinedResume) },
		payload: func(o types.RefineOutput) any { return RefineResponse{RefinedResume: o.RefinedResume} },
	})
}

// createExtractHandler accepts a multipart file upload and returns the
// extracted plain text. No AI call is involved.
func (s *Server) createExtractHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(apiTracerName).Start(r.Context(), "api.extract")
		defer span.End()

		if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid multipart request", err.Error(), http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing file", "multipart field 'file' is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				s.Logger.Warn("Failed to close uploaded file", "error", closeErr)
			}
		}()

		data, err := io.ReadAll(file)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Failed to read file", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.file_name", header.Filename),
			attribute.Int("request.file_size", len(data)),
			attribute.String("operation", "extract"),
		)

		metrics := om.GetMetrics()
		doc, err := extract.FromBytes(data, header.Filename)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "extraction"))
			metrics.RecordBusinessMetric(ctx, "document_extracted", false, om,
				attribute.String("error", err.Error()))
			// Unsupported types are a client mistake; anything else is a
			// document we could not parse.
			status := http.StatusUnprocessableEntity
			var appErr *appErrors.AppError
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrCodeUnsupportedFile {
				status = http.StatusBadRequest
			}
			writeErrorResponse(w, "Failed to extract text", err.Error(), status)
			return
		}

		metrics.RecordBusinessMetric(ctx, "document_extracted", true, om,
			attribute.Int("output.text_length", len(doc.Text)))
		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.text_length", len(doc.Text)),
		)
		writeSpanJSON(w, span, doc)
	}
}

// writeSpanJSON sends v as JSON, recording encode failures on the span.
func writeSpanJSON(w http.ResponseWriter, span trace.Span, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// createRateLimitMiddleware layers rate limit hit metrics over the
// limiter middleware by sniffing 429 responses.
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	limited := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		handler := limited(next)
		return func(w http.ResponseWriter, r *http.Request) {
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			handler(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				om.GetMetrics().RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		}
	}
}

// responseWrapper captures the status code written downstream.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
