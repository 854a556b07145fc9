package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks resolves the values viper cannot express as plain
// defaults: legacy environment variables, mode-dependent TLS settings and
// derived observability identity.
func (c *Config) applyFallbacks() {
	// GEMINI_API_KEY is honored when neither config nor JOBALIGN_AI_APIKEY
	// provided a key.
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if len(c.Server.APIKeys) == 0 {
		if raw := os.Getenv("JOBALIGN_SERVER_APIKEYS"); raw != "" {
			for key := range strings.SplitSeq(raw, ",") {
				c.Server.APIKeys = append(c.Server.APIKeys, strings.TrimSpace(key))
			}
		}
	}

	tls := &c.Server.TLS
	if tls.Mode == "mutual" && tls.ClientAuthPolicy == "" {
		tls.ClientAuthPolicy = "require"
	}
	if tls.MinVersion == "" && tls.Mode != "disabled" {
		tls.MinVersion = "1.2"
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = serviceInstanceID(c.Observability.ServiceName)
	}
	// Debug log level implies console trace output.
	if c.App.LogLevel == "debug" {
		c.Observability.ConsoleOutput = true
	}
}

func serviceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return serviceName + "-1"
}

// logConfigurationSources summarizes where the effective configuration
// came from. Key material is masked.
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed == "" {
		configFileUsed = "None (using defaults)"
	}
	log.Printf("[CONFIG] Config file: %s", configFileUsed)

	inspected := []string{
		"JOBALIGN_AI_APIKEY",
		"JOBALIGN_AI_PROVIDER",
		"JOBALIGN_AI_MODEL",
		"JOBALIGN_SERVER_PORT",
		"JOBALIGN_SERVER_HOST",
		"JOBALIGN_APP_LOGLEVEL",
		"JOBALIGN_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}
	for _, name := range inspected {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(name), "key") {
			value = "***MASKED***"
		}
		log.Printf("[CONFIG]   %s=%s", name, value)
	}

	apiKey := "***NOT SET***"
	if c.AI.APIKey != "" {
		apiKey = "***CONFIGURED***"
	}
	log.Printf("[CONFIG] AI: provider=%s model=%s apiKey=%s", c.AI.Provider, c.AI.Model, apiKey)
	log.Printf("[CONFIG] Server: host=%s port=%s tlsMode=%s", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] App: logLevel=%s vault=%t observability=%t", c.App.LogLevel, c.Vault.Enabled, c.Observability.Enabled)
	log.Printf("[CONFIG] Analyze: provider=%s model=%s", c.AI.Analyze.Provider, c.AI.Analyze.Model)
	log.Printf("[CONFIG] Cover: provider=%s model=%s", c.AI.Cover.Provider, c.AI.Cover.Model)
	log.Printf("[CONFIG] Refine: provider=%s model=%s", c.AI.Refine.Provider, c.AI.Refine.Model)
}
