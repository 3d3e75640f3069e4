package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, "/photos", cfg.PhotoPublicBase)
	assert.Empty(t, cfg.VisionBackend)
	assert.Equal(t, 10, cfg.SubmitRatePerMinute)
}

func TestLoadCustomValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("VISION_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("SUBMIT_RATE_PER_MINUTE", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "claude", cfg.VisionBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, 3, cfg.SubmitRatePerMinute)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "lostfound.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SENDGRID_FROM_NAME=Front Desk\nLISTEN_ADDR=:7000\n"), 0600))
	// Variables already in the environment win over the file.
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("SENDGRID_FROM_NAME", "")
	require.NoError(t, os.Unsetenv("SENDGRID_FROM_NAME"))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "Front Desk", cfg.SendGridFromName)
	assert.Equal(t, ":9000", cfg.ListenAddr)
}

func TestLoadInvalidRate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SUBMIT_RATE_PER_MINUTE", "lots")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "ok", cfg: Config{JWTSecret: testSecret}},
		{name: "missing secret", cfg: Config{}, wantErr: true},
		{name: "short secret", cfg: Config{JWTSecret: "short"}, wantErr: true},
		{name: "ollama", cfg: Config{JWTSecret: testSecret, VisionBackend: "ollama"}},
		{name: "claude without key", cfg: Config{JWTSecret: testSecret, VisionBackend: "claude"}, wantErr: true},
		{name: "claude", cfg: Config{JWTSecret: testSecret, VisionBackend: "claude", ClaudeAPIKey: "sk"}},
		{name: "unknown backend", cfg: Config{JWTSecret: testSecret, VisionBackend: "gpt"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
