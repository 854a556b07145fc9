package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (JOBALIGN_AI_APIKEY, GEMINI_API_KEY)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds AI service configuration
type AIConfig struct {
	// Global/fallback configuration shared by all operations
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	// Operation-specific configurations
	Analyze OperationAIConfig `mapstructure:"analyze"`
	Cover   OperationAIConfig `mapstructure:"cover"`
	Refine  OperationAIConfig `mapstructure:"refine"`
}

// CircuitBreakerConfig tunes the breaker guarding AI calls. MinRequests and
// FailureThreshold together decide when the breaker trips; Timeout is how
// long it stays open before probing again.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold"`
}

// OperationAIConfig overrides the global AI settings for one operation.
// Pointer fields distinguish "not set" from an explicit zero so fallback
// resolution can tell the two apart.
type OperationAIConfig struct {
	Provider         string         `mapstructure:"provider"`
	Model            string         `mapstructure:"model"`
	APIKey           string         `mapstructure:"apiKey"`
	Timeout          *time.Duration `mapstructure:"timeout"`
	MaxRetries       *int           `mapstructure:"maxRetries"`
	Temperature      *float32       `mapstructure:"temperature"`
	UseSystemPrompts *bool          `mapstructure:"useSystemPrompts"`

	CustomPrompts  PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig groups the system and user prompt overrides. Each prompt can
// be given inline or as a path to a file holding its content.
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

// SystemPrompts carries the model instructions per operation.
type SystemPrompts struct {
	Analyze         string `mapstructure:"analyze"`
	AnalyzeFile     string `mapstructure:"analyzeFile"`
	CoverLetter     string `mapstructure:"coverLetter"`
	CoverLetterFile string `mapstructure:"coverLetterFile"`
	Refine          string `mapstructure:"refine"`
	RefineFile      string `mapstructure:"refineFile"`
}

// UserPrompts carries the per-operation prompt templates that the resume
// and job description are formatted into.
type UserPrompts struct {
	Analyze         string `mapstructure:"analyze"`
	AnalyzeFile     string `mapstructure:"analyzeFile"`
	CoverLetter     string `mapstructure:"coverLetter"`
	CoverLetterFile string `mapstructure:"coverLetterFile"`
	Refine          string `mapstructure:"refine"`
	RefineFile      string `mapstructure:"refineFile"`
}

// ServerConfig holds HTTP server configuration. APIKeys lists the keys
// accepted on /api endpoints; an empty list disables authentication.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration. Certificates come either from
// files (CertFile/KeyFile/CAFile) or as PEM content (CertContent/KeyContent/
// CAContent, typically injected from Vault); the two sources are mutually
// exclusive per certificate. Mode is "disabled", "server" or "mutual".
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	// MinVersion is "1.2" or "1.3"; ClientAuthPolicy is "require",
	// "request" or "verify" and only applies in mutual mode.
	MinVersion       string   `mapstructure:"minVersion"`
	CipherSuites     []string `mapstructure:"cipherSuites"`
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"`

	// InsecureSkipVerify is for development only
	InsecureSkipVerify bool   `mapstructure:"insecureSkipVerify"`
	ServerName         string `mapstructure:"serverName"`

	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig controls certificate reloading without a server restart.
type AutoReloadConfig struct {
	Enabled           bool              `mapstructure:"enabled"`
	CheckInterval     time.Duration     `mapstructure:"checkInterval"`
	PreemptiveRenewal time.Duration     `mapstructure:"preemptiveRenewal"`
	MaxRetries        int               `mapstructure:"maxRetries"`
	RetryDelay        time.Duration     `mapstructure:"retryDelay"`
	FileWatcher       FileWatcherConfig `mapstructure:"fileWatcher"`
}

// FileWatcherConfig holds configuration for file-based certificate watching
type FileWatcherConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// RateLimitConfig holds rate limiting configuration. ByAPIKey and ByIP pick
// the bucket key; when both are set the API key wins.
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig controls tracing and metrics export. Service identity
// fields end up as OpenTelemetry resource attributes on everything emitted.
type ObservabilityConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	ServiceName     string  `mapstructure:"serviceName"`
	ServiceVersion  string  `mapstructure:"serviceVersion"`
	ServiceInstance string  `mapstructure:"serviceInstance"`
	ConsoleOutput   bool    `mapstructure:"consoleOutput"`
	SampleRate      float64 `mapstructure:"sampleRate"`

	Tracing       TracingConfig       `mapstructure:"tracing"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics CustomMetricsConfig `mapstructure:"customMetrics"`
	Console       ConsoleConfig       `mapstructure:"console"`
	Prometheus    PrometheusConfig    `mapstructure:"prometheus"`
	OTLP          OTLPConfig          `mapstructure:"otlp"`
	HealthCheck   HealthCheckConfig   `mapstructure:"healthCheck"`
}

// TracingConfig toggles span export and its sampling rate.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig toggles metric export and the reader collection interval.
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig routes telemetry to stdout for local development.
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig groups the application-specific metric families.
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig selects which AI call metrics are recorded.
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
	TrackModelInfo  bool `mapstructure:"trackModelInfo"`
}

// BusinessMetricsConfig selects which artifact counters are recorded.
type BusinessMetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	TrackSuccessRates bool `mapstructure:"trackSuccessRates"`
	TrackContentSizes bool `mapstructure:"trackContentSizes"`
}

// InfrastructureMetricsConfig selects rate limit and certificate metrics.
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
	TrackCertExpiry bool `mapstructure:"trackCertExpiry"`
}

// PrometheusConfig configures the pull endpoint served for scrapers.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig configures the OTLP/HTTP exporters for traces and metrics.
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig bounds how long /health may spend probing AI models.
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// and JOBALIGN_* environment variables, then resolves fallbacks and loads
// any external prompt files.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("JOBALIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/jobalign/")
	v.AddConfigPath("$HOME/.jobalign")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}
	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
//
// A missing API key is deliberately not rejected here: commands like
// version or extract work without one, and AI operations report a
// MISSING_API_KEY error when they are actually attempted.
func (c *Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}
