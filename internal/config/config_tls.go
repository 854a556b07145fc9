package config

import "fmt"

// ValidateTLSConfig checks the TLS section for mode, certificate source
// and protocol version consistency. Certificates may come from files or
// from inline PEM content, but never both at once.
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled":
		// Nothing beyond the version check applies.
	case "server":
		if err := tls.validateCertificateSources(false); err != nil {
			return err
		}
	case "mutual":
		if err := tls.validateCertificateSources(true); err != nil {
			return err
		}
		switch tls.ClientAuthPolicy {
		case "", "require", "request", "verify":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

// validateCertificateSources checks that the server certificate pair is
// present and that no certificate mixes file and content sources. With
// mutualMode set, the same rules apply to the client CA as well.
func (tls TLSConfig) validateCertificateSources(mutualMode bool) error {
	mode := "server mode"
	if mutualMode {
		mode = "mutual mode"
	}

	if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
		return fmt.Errorf("TLS certificate and key are required for %s (provide either files or content)", mode)
	}
	if tls.CertFile != "" && tls.CertContent != "" {
		return fmt.Errorf("cannot specify both certFile and certContent - choose one")
	}
	if tls.KeyFile != "" && tls.KeyContent != "" {
		return fmt.Errorf("cannot specify both keyFile and keyContent - choose one")
	}

	if !mutualMode {
		return nil
	}
	if tls.CAFile == "" && tls.CAContent == "" {
		return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}
	if tls.CAFile != "" && tls.CAContent != "" {
		return fmt.Errorf("cannot specify both caFile and caContent - choose one")
	}
	return nil
}
