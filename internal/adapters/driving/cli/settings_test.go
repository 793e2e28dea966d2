package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestReadPassword_NonTerminal(t *testing.T) {
	assert.Equal(t, "sk-secret", readPassword(strings.NewReader("sk-secret\n")))
	assert.Equal(t, "", readPassword(strings.NewReader("")))
}

func TestSettingsShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.providers[roleLLM] = domain.ProviderSettings{
		Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-1234567890abcdef",
	}

	out, err := execute("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "File: /tmp/sercha-rag/config.toml")
	assert.Contains(t, out, "Chunk size: 1000 (overlap 150)")
	assert.Contains(t, out, "Provider: OpenAI (cloud)")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Backend: memory")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsSet(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "pipeline.chunk_size", "800")

	require.NoError(t, err)
	assert.Equal(t, "800", ts.settings.set["pipeline.chunk_size"])
	assert.Contains(t, out, "Set pipeline.chunk_size = 800")
}

func TestSettingsSet_MasksKeys(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "vector.api_key", "qdrant-secret-key")

	require.NoError(t, err)
	assert.Contains(t, out, "qdra...-key")
	assert.NotContains(t, out, "qdrant-secret-key")
}

func TestSettingsSet_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.setErr = domain.ErrInvalidInput

	_, err := execute("settings", "set", "nope", "1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsReset(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "reset", "pipeline.chunk_size")

	require.NoError(t, err)
	assert.Equal(t, []string{"pipeline.chunk_size"}, ts.settings.reset)
	assert.Contains(t, out, "Reset pipeline.chunk_size to default")
}

func TestSettingsReset_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.setErr = domain.ErrConfiguration

	_, err := execute("settings", "reset", "pipeline.chunk_size")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSettingsKeys(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, "llm.model\npipeline.chunk_size\n", out)
}

func TestSettingsProvider_Local(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	validator := &mockValidator{}
	providerValidator = validator

	out, err := execute("settings", "provider", "embedding", "ollama", "--model", "nomic-embed-text")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.providers[roleEmbedding].Provider)
	assert.Equal(t, "nomic-embed-text", ts.settings.providers[roleEmbedding].Model)
	assert.Equal(t, []string{roleEmbedding}, validator.roles)
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestSettingsProvider_ReadsAPIKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeWithInput(strings.NewReader("co-key-123456\n"), "settings", "provider", "rerank", "cohere")

	require.NoError(t, err)
	assert.Equal(t, "co-key-123456", ts.settings.providers[roleRerank].APIKey)
}

func TestSettingsProvider_MissingAPIKey(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeWithInput(strings.NewReader("\n"), "settings", "provider", "llm", "anthropic")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestSettingsProvider_UnknownProvider(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("settings", "provider", "llm", "mistral")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestSettingsProvider_ValidationFails(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	providerValidator = &mockValidator{err: errors.New("connection refused")}

	out, err := execute("settings", "provider", "llm", "ollama")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm configuration validation failed")
	assert.Contains(t, out, "FAILED: connection refused")
}

func TestSettingsWizard(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	// embedding: ollama, default model; llm: openai with key; rerank: skip
	input := "1\n\n2\ngpt-4o\nsk-test-key\nn\n"
	out, err := executeWithInput(strings.NewReader(input), "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.providers[roleEmbedding].Provider)
	assert.Equal(t, "nomic-embed-text", ts.settings.providers[roleEmbedding].Model)
	assert.Equal(t, domain.AIProviderOpenAI, ts.settings.providers[roleLLM].Provider)
	assert.Equal(t, "gpt-4o", ts.settings.providers[roleLLM].Model)
	assert.Equal(t, "sk-test-key", ts.settings.providers[roleLLM].APIKey)
	_, hasRerank := ts.settings.providers[roleRerank]
	assert.False(t, hasRerank)
	assert.Contains(t, out, "Configuration Complete!")
}

func TestProviderForRole(t *testing.T) {
	s := domain.DefaultAppSettings()

	got, err := providerForRole(&s, roleRerank)
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderCohere, got.Provider)

	_, err = providerForRole(&s, "vision")
	assert.Error(t, err)
}
