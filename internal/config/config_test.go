package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `http:
  port: 8080
  read_timeout: 30
  write_timeout: 300
  shutdown_timeout: 10
  max_upload_mb: 25

audio:
  temp_dir: /tmp

policies:
  dir: data/policies
  index_path: data/clause_index.db

embedding:
  endpoint: https://embed.example.com/v1
  api_key: embed-key
  model: embedder-1
  timeout: 30

transcription:
  endpoint: https://transcribe.example.com/v1
  api_key: transcribe-key
  model: transcriber-1
  timeout: 120
  max_retries: 2

reasoning:
  endpoint: https://reason.example.com/v1
  api_key: reason-key
  models:
    - auditor-1
    - auditor-2
  timeout: 120

logging:
  level: info
  format: json
  output: stdout
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 25, cfg.HTTP.MaxUploadMB)
	assert.Equal(t, "data/policies", cfg.Policies.Dir)
	assert.Equal(t, []string{"auditor-1", "auditor-2"}, cfg.Reasoning.Models)
	assert.True(t, cfg.HasAPIKeys())

	assert.Equal(t, 30*time.Second, cfg.HTTP.GetReadTimeout())
	assert.Equal(t, 300*time.Second, cfg.HTTP.GetWriteTimeout())
	assert.Equal(t, 10*time.Second, cfg.HTTP.GetShutdownTimeout())
	assert.Equal(t, 120*time.Second, cfg.Transcription.GetTimeoutDuration())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "http: [not a mapping"))
	assert.Error(t, err)
}

func TestLoadEnvFallbackForAPIKeys(t *testing.T) {
	noKeys := validYAML
	for _, key := range []string{"embed-key", "transcribe-key", "reason-key"} {
		noKeys = strings.Replace(noKeys, "api_key: "+key, `api_key: ""`, 1)
	}

	t.Setenv("EMBEDDING_API_KEY", "env-embed")
	t.Setenv("TRANSCRIPTION_API_KEY", "env-transcribe")
	t.Setenv("REASONING_API_KEY", "env-reason")

	cfg, err := Load(writeConfig(t, noKeys))

	require.NoError(t, err)
	assert.Equal(t, "env-embed", cfg.Embedding.APIKey)
	assert.Equal(t, "env-transcribe", cfg.Transcription.APIKey)
	assert.Equal(t, "env-reason", cfg.Reasoning.APIKey)
	assert.True(t, cfg.HasAPIKeys())
}

func TestLoadMissingAPIKeysStillValid(t *testing.T) {
	noKeys := validYAML
	for _, key := range []string{"embed-key", "transcribe-key", "reason-key"} {
		noKeys = strings.Replace(noKeys, "api_key: "+key, `api_key: ""`, 1)
	}

	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("TRANSCRIPTION_API_KEY", "")
	t.Setenv("REASONING_API_KEY", "")

	cfg, err := Load(writeConfig(t, noKeys))

	require.NoError(t, err, "missing keys mean degraded start, not a load failure")
	assert.False(t, cfg.HasAPIKeys())
}

func TestHTTPConfigValidate(t *testing.T) {
	valid := HTTPConfig{Port: 8080, ReadTimeout: 30, WriteTimeout: 300, ShutdownTimeout: 10, MaxUploadMB: 25}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Port = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Port = 70000
	assert.Error(t, bad.Validate())

	bad = valid
	bad.MaxUploadMB = 0
	assert.Error(t, bad.Validate())
}

func TestPoliciesConfigValidate(t *testing.T) {
	assert.Error(t, (&PoliciesConfig{IndexPath: "x"}).Validate())
	assert.Error(t, (&PoliciesConfig{Dir: "x"}).Validate())
	assert.NoError(t, (&PoliciesConfig{Dir: "x", IndexPath: "y"}).Validate())
}

func TestReasoningConfigValidate(t *testing.T) {
	valid := ReasoningConfig{Endpoint: "https://x", Models: []string{"m1"}, Timeout: 60}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Models = nil
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Models = []string{"m1", ""}
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Timeout = 0
	assert.Error(t, bad.Validate())
}

func TestLoggingConfigValidate(t *testing.T) {
	assert.NoError(t, (&LoggingConfig{Level: "debug", Format: "text"}).Validate())
	assert.Error(t, (&LoggingConfig{Level: "verbose", Format: "json"}).Validate())
	assert.Error(t, (&LoggingConfig{Level: "info", Format: "xml"}).Validate())
}
