package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"jobalign/internal/config"
)

func breakerConfig(bc config.CircuitBreakerConfig) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider:       "gemini",
		Model:          "gemini-2.0-flash",
		CircuitBreaker: bc,
	}
}

func TestCircuitBreakerPerOperation(t *testing.T) {
	analyzeCB := NewAICircuitBreaker("Analyze", breakerConfig(config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}), nil)
	coverCB := NewAICircuitBreaker("Cover", breakerConfig(config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          45 * time.Second,
		MinRequests:      2,
		FailureThreshold: 0.7,
	}), nil)
	refineCB := NewAICircuitBreaker("Refine", breakerConfig(config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      4,
		Interval:         90 * time.Second,
		Timeout:          75 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.5,
	}), nil)

	breakers := map[string]*AICircuitBreaker{
		"AI-Analyze": analyzeCB,
		"AI-Cover":   coverCB,
		"AI-Refine":  refineCB,
	}

	for expectedName, cb := range breakers {
		require.NotNil(t, cb)

		stats := cb.GetStats()
		assert.Equal(t, expectedName, stats["name"])
		assert.Equal(t, "closed", stats["state"])
		assert.Equal(t, true, stats["enabled"])
		assert.True(t, cb.IsHealthy())
	}

	// Each operation owns its breaker; tripping one must not affect the others.
	assert.NotSame(t, analyzeCB, coverCB)
	assert.NotSame(t, analyzeCB, refineCB)
	assert.NotSame(t, coverCB, refineCB)
}

func TestCircuitBreakerNaming(t *testing.T) {
	cb := NewAICircuitBreaker("Test", breakerConfig(config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      10,
		Interval:         120 * time.Second,
		Timeout:          90 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.8,
	}), nil)
	require.NotNil(t, cb)
	assert.Equal(t, "AI-Test", cb.GetStats()["name"])

	mcb := NewModelCircuitBreaker("Test", breakerConfig(config.CircuitBreakerConfig{Enabled: true}), nil)
	require.NotNil(t, mcb)
	assert.Equal(t, "AI-Model-Test", mcb.GetModelStats()["name"])
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cfg := breakerConfig(config.CircuitBreakerConfig{Enabled: false})

	cb := NewAICircuitBreaker("Disabled", cfg, nil)
	assert.Nil(t, cb)

	// Nil breakers still answer stats calls and pass execution through.
	assert.Equal(t, map[string]any{"enabled": false}, cb.GetStats())
	assert.True(t, cb.IsHealthy())

	called := false
	_, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	mcb := NewModelCircuitBreaker("Disabled", cfg, nil)
	assert.Nil(t, mcb)
	assert.Equal(t, map[string]any{"enabled": false}, mcb.GetModelStats())
	assert.True(t, mcb.IsModelHealthy())
}
