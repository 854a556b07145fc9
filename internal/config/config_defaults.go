package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers the default value for every configuration key.
func setDefaults(v *viper.Viper) {
	// Per-operation AI tuning. Analysis wants balanced output, cover
	// letters get a higher temperature for natural prose, refine runs
	// cooler to preserve facts. Long-form operations get more time and
	// fewer retries.
	operations := []struct {
		name        string
		timeout     time.Duration
		maxRetries  int
		temperature float64
	}{
		{"analyze", 60 * time.Second, 3, 0.5},
		{"cover", 90 * time.Second, 2, 0.7},
		{"refine", 90 * time.Second, 2, 0.4},
	}
	for _, op := range operations {
		prefix := "ai." + op.name + "."
		v.SetDefault(prefix+"provider", "gemini")
		v.SetDefault(prefix+"model", "")
		v.SetDefault(prefix+"timeout", op.timeout)
		v.SetDefault(prefix+"apiKey", "")
		v.SetDefault(prefix+"maxRetries", op.maxRetries)
		v.SetDefault(prefix+"temperature", op.temperature)
		v.SetDefault(prefix+"useSystemPrompts", true)

		v.SetDefault(prefix+"circuitBreaker.enabled", true)
		v.SetDefault(prefix+"circuitBreaker.maxRequests", 3)
		v.SetDefault(prefix+"circuitBreaker.interval", 60*time.Second)
		v.SetDefault(prefix+"circuitBreaker.timeout", 60*time.Second)
		v.SetDefault(prefix+"circuitBreaker.minRequests", 3)
		v.SetDefault(prefix+"circuitBreaker.failureThreshold", 0.6)
	}

	for key, value := range map[string]any{
		// Global AI fallbacks
		"ai.provider":         "gemini",
		"ai.model":            "gemini-2.0-flash",
		"ai.timeout":          60 * time.Second,
		"ai.apiKey":           "",
		"ai.maxRetries":       3,
		"ai.temperature":      0.5,
		"ai.useSystemPrompts": true,

		// HTTP server
		"server.host":         "localhost",
		"server.port":         "8080",
		"server.readTimeout":  30 * time.Second,
		"server.writeTimeout": 30 * time.Second,
		"server.idleTimeout":  120 * time.Second,
		"server.apiKeys":      []string{},

		// TLS: mode is "disabled", "server" or "mutual"
		"server.tls.mode":               "disabled",
		"server.tls.certFile":           "",
		"server.tls.keyFile":            "",
		"server.tls.caFile":             "",
		"server.tls.minVersion":         "1.2",
		"server.tls.cipherSuites":       []string{},
		"server.tls.clientAuthPolicy":   "require",
		"server.tls.insecureSkipVerify": false,
		"server.tls.serverName":         "",

		// Certificate auto-reload; renewal kicks in 72h before expiry
		"server.tls.autoReload.enabled":                   true,
		"server.tls.autoReload.checkInterval":             30 * time.Second,
		"server.tls.autoReload.preemptiveRenewal":         72 * time.Hour,
		"server.tls.autoReload.maxRetries":                3,
		"server.tls.autoReload.retryDelay":                10 * time.Second,
		"server.tls.autoReload.fileWatcher.enabled":       true,
		"server.tls.autoReload.fileWatcher.debounceDelay": time.Second,

		// Rate limiting
		"server.rateLimit.enabled":        false,
		"server.rateLimit.requestsPerMin": 60,
		"server.rateLimit.burstCapacity":  10,
		"server.rateLimit.byIP":           true,
		"server.rateLimit.byAPIKey":       false,
		"server.rateLimit.window":         time.Minute,

		// Application; max file size covers PDF uploads
		"app.logLevel":         "info",
		"app.defaultFormat":    "text",
		"app.supportedFormats": []string{"json", "text", "markdown"},
		"app.maxFileSize":      5 * 1024 * 1024,

		// Vault
		"vault.enabled":           false,
		"vault.address":           "",
		"vault.token":             "",
		"vault.tokenFile":         "",
		"vault.namespace":         "",
		"vault.secrets.apiKeys":   "",
		"vault.secrets.geminiKey": "",
		"vault.secrets.tlsCerts":  "",

		// Observability; service version and instance are derived at
		// startup when left empty
		"observability.enabled":         true,
		"observability.serviceName":     "jobalign",
		"observability.serviceVersion":  "",
		"observability.serviceInstance": "",
		"observability.consoleOutput":   false,
		"observability.sampleRate":      1.0,

		"observability.tracing.enabled":            true,
		"observability.tracing.sampleRate":         1.0,
		"observability.metrics.enabled":            true,
		"observability.metrics.collectionInterval": 15 * time.Second,

		"observability.customMetrics.aiOperations.enabled":              true,
		"observability.customMetrics.aiOperations.trackDuration":        true,
		"observability.customMetrics.aiOperations.trackTokenUsage":      true,
		"observability.customMetrics.aiOperations.trackModelInfo":       true,
		"observability.customMetrics.businessMetrics.enabled":           true,
		"observability.customMetrics.businessMetrics.trackSuccessRates": true,
		"observability.customMetrics.businessMetrics.trackContentSizes": true,
		"observability.customMetrics.infrastructure.enabled":            true,
		"observability.customMetrics.infrastructure.trackRateLimits":    true,
		"observability.customMetrics.infrastructure.trackCertExpiry":    true,

		"observability.console.enabled":     false,
		"observability.console.prettyPrint": true,

		"observability.prometheus.enabled":  true,
		"observability.prometheus.endpoint": "/metrics",
		"observability.prometheus.port":     "9090",

		"observability.otlp.enabled":  false,
		"observability.otlp.endpoint": "http://localhost:4318",
		"observability.otlp.insecure": true,
		"observability.otlp.headers":  map[string]string{},

		"observability.healthCheck.timeout":             15 * time.Second,
		"observability.healthCheck.aiModelCheckTimeout": 10 * time.Second,
	} {
		v.SetDefault(key, value)
	}
}
