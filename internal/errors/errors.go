// Package errors defines the application error model and the structured
// logger built on top of it.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrorType categorizes an error by the subsystem it originated in.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError carries a machine-readable code and optional context alongside
// the human-readable message. It wraps the underlying cause, if any.
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithContext attaches a key/value pair that LogError will emit as a
// structured attribute. Returns the receiver for chaining.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func NewValidationError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: code, Message: message, Cause: cause}
}

func NewIOError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeIO, Code: code, Message: message, Cause: cause}
}

func NewAIError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeAI, Code: code, Message: message, Cause: cause}
}

func NewNetworkError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeNetwork, Code: code, Message: message, Cause: cause}
}

func NewConfigError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeConfig, Code: code, Message: message, Cause: cause}
}

func NewInternalError(code, message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

// Logger is a thin wrapper over slog that knows how to unpack AppError
// values into structured attributes.
type Logger struct {
	logger *slog.Logger
}

// NewLogger builds a JSON logger writing to stdout at the given level.
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{logger: slog.New(handler)}
}

// New builds a logger from a textual level name. Valid levels are
// "debug", "info", "warn" and "error".
func New(level string) (*Logger, error) {
	slogLevel, ok := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}[level]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	return NewLogger(slogLevel), nil
}

// LogError logs err at error level. AppError values (anywhere in the
// chain) contribute their type, code, message and context as attributes.
func (l *Logger) LogError(err error, message string, args ...any) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		l.logger.Error(message, append([]any{"error", err.Error()}, args...)...)
		return
	}

	logArgs := []any{
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message,
	}
	for key, value := range appErr.Context {
		logArgs = append(logArgs, key, value)
	}
	l.logger.Error(message, append(logArgs, args...)...)
}

func (l *Logger) Info(message string, args ...any) { l.logger.Info(message, args...) }

func (l *Logger) Debug(message string, args ...any) { l.logger.Debug(message, args...) }

func (l *Logger) Warn(message string, args ...any) { l.logger.Warn(message, args...) }

// Error codes attached to AppError values across the application.
const (
	// File handling
	ErrCodeFileNotFound          = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable       = "FILE_NOT_READABLE"
	ErrCodeFileWriteFailed       = "FILE_WRITE_FAILED"
	ErrCodeDirectoryCreateFailed = "DIRECTORY_CREATE_FAILED"
	ErrCodeUnsupportedFile       = "UNSUPPORTED_FILE_TYPE"
	ErrCodeExtractionFailed      = "EXTRACTION_FAILED"
	ErrCodeInvalidFormat         = "INVALID_FORMAT"

	// AI provider
	ErrCodeAIServiceFailed = "AI_SERVICE_FAILED"
	ErrCodeAIEmptyResponse = "AI_EMPTY_RESPONSE"
	ErrCodeAIAuthFailed    = "AI_AUTH_FAILED"
	ErrCodeAITimeout       = "AI_TIMEOUT"
	ErrCodeMissingAPIKey   = "MISSING_API_KEY"

	// Requests and configuration
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNetworkTimeout = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig  = "INVALID_CONFIG"
)
