package server

import (
	"fmt"
	"strings"
)

// displayServerInfo prints a startup summary: routes, auth, size and rate
// limit settings. Intended for the operator's terminal, not structured logs.
func (s *Server) displayServerInfo() {
	var b strings.Builder

	b.WriteString("Available endpoints:\n")
	for _, ep := range []struct{ method, path, desc string }{
		{"GET", "/", "Web UI"},
		{"GET", "/health", "Health check"},
		{"GET", "/stats", "Server statistics"},
		{"POST", "/api/analyze", "Analyze resume/job alignment (requires API key)"},
		{"POST", "/api/cover-letter", "Draft a cover letter (requires API key)"},
		{"POST", "/api/refine", "Refine resume for ATS (requires API key)"},
		{"POST", "/api/extract", "Extract text from PDF/DOCX (requires API key)"},
	} {
		fmt.Fprintf(&b, "  %-4s %-18s - %s\n", ep.method, ep.path, ep.desc)
	}

	if n := len(s.APIKeys); n > 0 {
		fmt.Fprintf(&b, "API authentication: ENABLED (%d keys configured)\n", n)
		b.WriteString("Include 'X-API-Key: <your-key>' header in requests to the /api endpoints\n")
	} else {
		b.WriteString("API authentication: DISABLED (no API keys configured)\n")
		b.WriteString("WARNING: API endpoints are publicly accessible!\n")
	}

	if s.MaxRequestSize > 0 {
		fmt.Fprintf(&b, "Request size limit: %d bytes (%.1f MB)\n",
			s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		b.WriteString("Request size limit: DISABLED\n")
		b.WriteString("WARNING: No request size limits configured!\n")
	}

	if rl := s.RateLimit; rl != nil && rl.Enabled {
		fmt.Fprintf(&b, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			rl.RequestsPerMin, rl.BurstCapacity)
		if rl.ByAPIKey {
			b.WriteString("  - Per API key rate limiting enabled\n")
		}
		if rl.ByIP {
			b.WriteString("  - Per IP address rate limiting enabled\n")
		}
	} else {
		b.WriteString("Rate limiting: DISABLED\n")
		b.WriteString("WARNING: No rate limiting configured!\n")
	}

	fmt.Print(b.String())
}
