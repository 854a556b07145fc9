package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"jobalign/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig describes how to reach Vault and which paths hold our secrets.
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault.
//
// APIKeys points at a secret whose "keys" field holds a comma-separated
// list of server API keys. GeminiKey points at a secret whose "api_key"
// field holds the Gemini key shared by all operations. TLSCerts points at
// a secret with "cert", "key" and optional "ca" PEM content.
type VaultSecrets struct {
	APIKeys   string `mapstructure:"apiKeys"`
	GeminiKey string `mapstructure:"geminiKey"`
	TLSCerts  string `mapstructure:"tlsCerts"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// VaultSecret is a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// NewVaultClient creates a new Vault client from configuration. It returns
// (nil, nil) when Vault integration is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled")
		}
		return nil, nil
	}

	apiConfig := api.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to connect to Vault", "address", cfg.Address)
		}
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}

	if logger != nil {
		logger.Info("Connected to Vault",
			"address", cfg.Address,
			"namespace", cfg.Namespace,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, config: cfg, logger: logger}, nil
}

// resolveVaultToken picks the token from config, falling back to tokenFile.
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		raw, err := os.ReadFile(config.TokenFile)
		if err != nil {
			if logger != nil {
				logger.LogError(err, "Failed to read Vault token file", "file", config.TokenFile)
			}
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		if vc.logger != nil {
			vc.logger.LogError(err, "Failed to read secret from Vault", "path", path)
		}
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	return decodeKVv2(secret, path)
}

// decodeKVv2 unwraps the data/metadata envelope of a KVv2 read.
func decodeKVv2(secret *api.Secret, path string) (*VaultSecret, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := coerceSecretVersion(versionRaw, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// coerceSecretVersion normalizes the version field, which Vault may return
// as a number or a string depending on transport.
func coerceSecretVersion(raw any, path string) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
}

// GetStringSecret reads one key of a secret and requires it to be a string.
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	raw, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}

	if vc.logger != nil {
		vc.logger.Debug("String secret retrieved from Vault",
			"path", path,
			"key", key,
			"masked_value", maskSecretValue(value))
	}
	return value, nil
}

func maskSecretValue(value string) string {
	if len(value) > 8 {
		return value[:4] + "****" + value[len(value)-4:]
	}
	if len(value) > 0 {
		return "****"
	}
	return ""
}

// GetStringSliceSecret reads a comma-separated secret value as a slice, with
// each element trimmed.
func (vc *VaultClient) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := vc.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	result := []string{}
	if value == "" {
		return result, nil
	}
	for part := range strings.SplitSeq(value, ",") {
		result = append(result, strings.TrimSpace(part))
	}
	return result, nil
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config.
// It runs once at startup, before the serve command or any CLI operation
// touches the AI provider.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	if client == nil {
		return nil
	}

	if err := client.applyServerAPIKeys(config); err != nil {
		return err
	}
	if err := client.applyGeminiKey(config); err != nil {
		return err
	}
	if err := client.applyTLSCertificates(config); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("Secrets applied from Vault")
	}
	return nil
}

// applyServerAPIKeys replaces the configured server API keys with the
// comma-separated list stored in Vault.
func (vc *VaultClient) applyServerAPIKeys(config *Config) error {
	path := vc.config.Secrets.APIKeys
	if path == "" {
		return nil
	}

	apiKeys, err := vc.GetStringSliceSecret(path, "keys")
	if err != nil {
		return fmt.Errorf("failed to load API keys from vault: %w", err)
	}
	if len(apiKeys) == 0 {
		if vc.logger != nil {
			vc.logger.Warn("No API keys found in Vault", "path", path)
		}
		return nil
	}

	config.Server.APIKeys = apiKeys
	if vc.logger != nil {
		vc.logger.Info("API keys loaded from Vault", "count", len(apiKeys))
	}
	return nil
}

// applyGeminiKey loads the shared Gemini API key and propagates it to every
// operation config that does not carry its own key.
func (vc *VaultClient) applyGeminiKey(config *Config) error {
	path := vc.config.Secrets.GeminiKey
	if path == "" {
		return nil
	}

	geminiKey, err := vc.GetStringSecret(path, "api_key")
	if err != nil {
		return fmt.Errorf("failed to load Gemini API key from vault: %w", err)
	}
	if geminiKey == "" {
		if vc.logger != nil {
			vc.logger.Warn("Empty Gemini API key found in Vault", "path", path)
		}
		return nil
	}

	propagateGeminiKey(config, geminiKey)
	if vc.logger != nil {
		vc.logger.Info("Gemini API key loaded from Vault")
	}
	return nil
}

// propagateGeminiKey applies the key globally without clobbering
// per-operation overrides.
func propagateGeminiKey(config *Config, geminiKey string) {
	config.AI.APIKey = geminiKey
	if config.AI.Analyze.APIKey == "" {
		config.AI.Analyze.APIKey = geminiKey
	}
	if config.AI.Cover.APIKey == "" {
		config.AI.Cover.APIKey = geminiKey
	}
	if config.AI.Refine.APIKey == "" {
		config.AI.Refine.APIKey = geminiKey
	}
}

// applyTLSCertificates loads PEM content for the server certificate, key
// and optional CA into the TLS config.
func (vc *VaultClient) applyTLSCertificates(config *Config) error {
	path := vc.config.Secrets.TLSCerts
	if path == "" {
		return nil
	}

	tlsData, err := vc.GetSecretV2(path)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
	}

	loaded := 0
	loaded += copyCertField(tlsData, "cert", &config.Server.TLS.CertContent)
	loaded += copyCertField(tlsData, "key", &config.Server.TLS.KeyContent)
	loaded += copyCertField(tlsData, "ca", &config.Server.TLS.CAContent)

	if err := rejectFilePathFields(tlsData); err != nil {
		return err
	}

	if vc.logger != nil {
		vc.logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}
	return nil
}

// copyCertField copies one PEM field into the target if present and
// non-empty, returning 1 when it did.
func copyCertField(tlsData *VaultSecret, key string, target *string) int {
	if content, ok := tlsData.Data[key].(string); ok && content != "" {
		*target = content
		return 1
	}
	return 0
}

// rejectFilePathFields errors on the old file-path style of TLS secrets.
// Certificates must be stored as PEM content so the server never needs
// filesystem access to Vault-managed material.
func rejectFilePathFields(tlsData *VaultSecret) error {
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		if _, hasField := tlsData.Data[field]; hasField {
			return fmt.Errorf("vault TLS configuration error: '%s' field is no longer supported. Store certificate content in '%s' field instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}
	return nil
}
