package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DedupParameters_Defaults(t *testing.T) {
	envVars := []string{
		"DEDUP_RETRIEVE_K",
		"DEDUP_RERANK_N",
		"DEDUP_RERANK_TIMEOUT",
		"DEDUP_SUMMARY_TIMEOUT",
	}
	for _, key := range envVars {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, 10, cfg.Dedup.RetrieveK, "retrieveK should default to 10")
	assert.Equal(t, 3, cfg.Dedup.RerankN, "rerankN should default to 3")
	assert.Equal(t, 30, cfg.Dedup.RerankTimeout)
	assert.Equal(t, 30, cfg.Dedup.SummaryTimeout)
}

func TestLoad_DedupParameters_FromEnv(t *testing.T) {
	t.Setenv("DEDUP_RETRIEVE_K", "25")
	t.Setenv("DEDUP_RERANK_N", "5")
	t.Setenv("DEDUP_INDEX_NAMESPACE", "jira-prod")

	cfg := Load()

	assert.Equal(t, 25, cfg.Dedup.RetrieveK)
	assert.Equal(t, 5, cfg.Dedup.RerankN)
	assert.Equal(t, "jira-prod", cfg.Dedup.Namespace)
}

func TestLoad_FallbackParameters_Defaults(t *testing.T) {
	_ = os.Unsetenv("FALLBACK_CACHE_SIZE")
	_ = os.Unsetenv("FALLBACK_CACHE_TTL_MIN")

	cfg := Load()

	assert.Equal(t, 512, cfg.Fallback.Size)
	assert.Equal(t, 30, cfg.Fallback.TTLMin)
}

func TestLoad_DBPassword_NoDefaultCredential(t *testing.T) {
	_ = os.Unsetenv("DB_PASSWORD")
	_ = os.Unsetenv("DB_PASSWORD_FILE")

	cfg := Load()

	assert.Empty(t, cfg.DB.Password, "unset password must stay empty so a misconfigured deployment fails to connect")
}

func TestLoad_LLMProvider(t *testing.T) {
	t.Setenv("DEDUP_LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.AnthropicAPIKey)
}

func TestGetSecret_FileIndirection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db_password")
	assert.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))

	_ = os.Unsetenv("TEST_SECRET")
	t.Setenv("TEST_SECRET_FILE", path)

	assert.Equal(t, "s3cret", getSecret("TEST_SECRET", "TEST_SECRET_FILE", "fallback"))
}

func TestGetSecret_EnvWinsOverFile(t *testing.T) {
	t.Setenv("TEST_SECRET", "from-env")
	t.Setenv("TEST_SECRET_FILE", "/nonexistent")

	assert.Equal(t, "from-env", getSecret("TEST_SECRET", "TEST_SECRET_FILE", "fallback"))
}

func TestGetEnvFloat64(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback float64
		expected float64
	}{
		{
			name:     "valid value",
			envValue: "3.5",
			fallback: 2.0,
			expected: 3.5,
		},
		{
			name:     "invalid value uses fallback",
			envValue: "not-a-number",
			fallback: 2.0,
			expected: 2.0,
		},
		{
			name:     "empty uses fallback",
			envValue: "",
			fallback: 2.0,
			expected: 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_FLOAT", tt.envValue)
			} else {
				_ = os.Unsetenv("TEST_FLOAT")
			}

			result := getEnvFloat64("TEST_FLOAT", tt.fallback)
			assert.Equal(t, tt.expected, result)
		})
	}
}
