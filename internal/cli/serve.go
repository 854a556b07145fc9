package cli

import (
	"fmt"

	"jobalign/internal/config"
	"jobalign/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server with the web UI and alignment API",
	Long: `Start an HTTP server that serves the JobAlign web UI and REST API endpoints.

Available endpoints:
- GET  /: Web UI
- POST /api/analyze: Analyze resume/job description alignment
- POST /api/cover-letter: Draft a tailored cover letter
- POST /api/refine: Rewrite a resume for applicant tracking systems
- POST /api/extract: Extract plain text from an uploaded PDF or DOCX
- GET  /health: Health check endpoint
- GET  /stats: Server statistics and rate limiting info

TLS:
- --tls-mode selects disabled, server or mutual TLS
- --cert-file/--key-file supply the server certificate pair
- --ca-file supplies the CA used to verify client certificates in mutual mode`,
	RunE: runServe,
}

// serveFlags maps each serve flag to the viper key it overrides.
var serveFlags = map[string]string{
	"port":      "server.port",
	"host":      "server.host",
	"tls-mode":  "server.tls.mode",
	"cert-file": "server.tls.certfile",
	"key-file":  "server.tls.keyfile",
	"ca-file":   "server.tls.cafile",
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	for flagName, key := range serveFlags {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Re-check TLS settings since flags may have overridden file values
	check := &config.Config{Server: cfg.Server}
	if err := check.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	srv := server.NewServer(cfg, server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		RateLimit:      &cfg.Server.RateLimit,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: int64(cfg.App.MaxFileSize),
	}, logger)
	return srv.Start()
}
