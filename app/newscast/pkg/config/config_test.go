package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:1234", cfg.Server.HTTP.Addr)
	assert.Equal(t, 20*time.Minute, cfg.Server.HTTP.Timeout)

	assert.Equal(t, 5, cfg.News.Limit.MaxTokens)
	assert.Equal(t, time.Second, cfg.News.Limit.Period)
	assert.Equal(t, RetryConfig{Attempts: 3, Multiplier: time.Second, MinWait: 2 * time.Second, MaxWait: 10 * time.Second}, cfg.News.Retry)
	assert.Equal(t, time.Second, cfg.News.Pause)

	assert.Equal(t, 1, cfg.Social.Limit.MaxTokens)
	assert.Equal(t, 15*time.Second, cfg.Social.Limit.Period)
	assert.Equal(t, 15*time.Second, cfg.Social.Retry.MinWait)
	assert.Equal(t, 60*time.Second, cfg.Social.Retry.MaxWait)
	assert.Equal(t, 5*time.Second, cfg.Social.Pause)
	assert.Equal(t, 14, cfg.Social.RecencyDays)
	assert.Equal(t, "npx", cfg.Social.MCP.Command)
	assert.Equal(t, []string{"@brightdata/mcp"}, cfg.Social.MCP.Args)

	assert.Equal(t, "JBFqnCBsd6RMkjVDRZzb", cfg.TTS.VoiceID)
	assert.Equal(t, "eleven_multilingual_v2", cfg.TTS.ModelID)
	assert.Equal(t, "mp3_44100_128", cfg.TTS.OutputFormat)
	assert.Equal(t, "audio", cfg.TTS.OutputDir)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.RequestTimeout)
	assert.Equal(t, cfg.LLM.Model, cfg.LLM.AgentModel)
}

func TestLoadConfig_FileValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  http:
    addr: 127.0.0.1:9000
    timeout: 30s
news:
  resolver:
    provider: searxng
    searxng:
      base_url: http://searx.local
  limit:
    max_tokens: 2
    period: 500ms
social:
  mcp:
    command: node
    args: ["server.js"]
    env:
      API_TOKEN: from-file
tts:
  keep_files: true
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.HTTP.Timeout)
	assert.Equal(t, "searxng", cfg.News.Resolver.Provider)
	assert.Equal(t, "http://searx.local", cfg.News.Resolver.SearXNG.BaseURL)
	assert.Equal(t, 2, cfg.News.Limit.MaxTokens)
	assert.Equal(t, 500*time.Millisecond, cfg.News.Limit.Period)
	assert.Equal(t, "node", cfg.Social.MCP.Command)
	assert.Equal(t, []string{"server.js"}, cfg.Social.MCP.Args)
	assert.True(t, cfg.TTS.KeepFiles)
}

func TestLoadConfig_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("BRIGHTDATA_API_TOKEN", "bd-token")
	t.Setenv("WEB_UNLOCKER_ZONE", "unlocker")
	t.Setenv("ELEVENLABS_API_KEY", "el-key")

	cfg, err := LoadConfig(writeConfig(t, "llm:\n  api_key: from-file\nsocial:\n  mcp:\n    env:\n      API_TOKEN: explicit\n"))
	require.NoError(t, err)

	assert.Equal(t, "or-key", cfg.LLM.APIKey)
	assert.Equal(t, "bd-token", cfg.News.Fetcher.BrightData.APIToken)
	assert.Equal(t, "unlocker", cfg.News.Fetcher.BrightData.Zone)
	assert.Equal(t, "el-key", cfg.TTS.APIKey)

	assert.Equal(t, "explicit", cfg.Social.MCP.Env["API_TOKEN"], "explicit MCP env wins")
	assert.Equal(t, "unlocker", cfg.Social.MCP.Env["WEB_UNLOCKER_ZONE"])
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "server: [not, a, map"))
	assert.Error(t, err)
}
