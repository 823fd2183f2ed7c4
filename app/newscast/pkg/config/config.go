package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	News        NewsConfig        `yaml:"news"`
	Social      SocialConfig      `yaml:"social"`
	TTS         TTSConfig         `yaml:"tts"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig HTTP 监听配置
type HTTPConfig struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig LLM 相关配置（OpenAI 兼容协议，默认 OpenRouter）
type LLMConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	AgentModel  string   `yaml:"agent_model"`
	Temperature *float32 `yaml:"temperature"`
}

// LimitConfig 令牌窗口配置
type LimitConfig struct {
	MaxTokens int           `yaml:"max_tokens"`
	Period    time.Duration `yaml:"period"`
}

// RetryConfig 重试策略配置
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Multiplier time.Duration `yaml:"multiplier"`
	MinWait    time.Duration `yaml:"min_wait"`
	MaxWait    time.Duration `yaml:"max_wait"`
}

// NewsConfig 新闻聚合配置
type NewsConfig struct {
	Resolver     ResolverConfig `yaml:"resolver"`
	Fetcher      FetcherConfig  `yaml:"fetcher"`
	Cleaner      string         `yaml:"cleaner"` // markup or readability
	MaxHeadlines int            `yaml:"max_headlines"`
	Limit        LimitConfig    `yaml:"limit"`
	Retry        RetryConfig    `yaml:"retry"`
	Pause        time.Duration  `yaml:"pause"`
}

// ResolverConfig 主题 -> 搜索 URL 的解析方式
type ResolverConfig struct {
	Provider string        `yaml:"provider"` // google_news, google or searxng
	Language string        `yaml:"language"`
	Country  string        `yaml:"country"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FetcherConfig 页面抓取配置
type FetcherConfig struct {
	Provider   string           `yaml:"provider"` // brightdata or direct
	Timeout    time.Duration    `yaml:"timeout"`
	BrightData BrightDataConfig `yaml:"brightdata"`
}

// BrightDataConfig Bright Data Web Unlocker 配置
type BrightDataConfig struct {
	APIToken string `yaml:"api_token"`
	Zone     string `yaml:"zone"`
	Endpoint string `yaml:"endpoint"`
}

// SocialConfig 社交（Reddit）聚合配置
type SocialConfig struct {
	MCP          MCPConfig     `yaml:"mcp"`
	RecencyDays  int           `yaml:"recency_days"`
	MaxAgentStep int           `yaml:"max_agent_step"`
	Limit        LimitConfig   `yaml:"limit"`
	Retry        RetryConfig   `yaml:"retry"`
	Pause        time.Duration `yaml:"pause"`
}

// MCPConfig 工具服务子进程配置
type MCPConfig struct {
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
}

// TTSConfig ElevenLabs 配置
type TTSConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	VoiceID      string        `yaml:"voice_id"`
	ModelID      string        `yaml:"model_id"`
	OutputFormat string        `yaml:"output_format"`
	OutputDir    string        `yaml:"output_dir"`
	Timeout      time.Duration `yaml:"timeout"`
	KeepFiles    bool          `yaml:"keep_files"`
}

// PipelineConfig 单次请求的整体约束
type PipelineConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig LLM 调用的并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// LoadConfig 从指定路径加载配置，并叠加 .env 与环境变量中的密钥
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	return &cfg, nil
}

// applyEnv 环境变量优先于配置文件中的密钥
func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"OPENROUTER_API_KEY", &c.LLM.APIKey},
		{"BRIGHTDATA_API_TOKEN", &c.News.Fetcher.BrightData.APIToken},
		{"WEB_UNLOCKER_ZONE", &c.News.Fetcher.BrightData.Zone},
		{"ELEVENLABS_API_KEY", &c.TTS.APIKey},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}

	// MCP 子进程沿用 Bright Data 的凭证
	if c.Social.MCP.Env == nil {
		c.Social.MCP.Env = map[string]string{}
	}
	if _, ok := c.Social.MCP.Env["API_TOKEN"]; !ok && c.News.Fetcher.BrightData.APIToken != "" {
		c.Social.MCP.Env["API_TOKEN"] = c.News.Fetcher.BrightData.APIToken
	}
	if _, ok := c.Social.MCP.Env["WEB_UNLOCKER_ZONE"]; !ok && c.News.Fetcher.BrightData.Zone != "" {
		c.Social.MCP.Env["WEB_UNLOCKER_ZONE"] = c.News.Fetcher.BrightData.Zone
	}
}

// ApplyDefaults 为未配置的项填充默认值
func (c *Config) ApplyDefaults() {
	setString(&c.Server.HTTP.Addr, "0.0.0.0:1234")
	setDuration(&c.Server.HTTP.Timeout, 20*time.Minute)

	setString(&c.LLM.BaseURL, "https://openrouter.ai/api/v1")
	setString(&c.LLM.Model, "google/gemini-2.0-flash-exp:free")
	setString(&c.LLM.AgentModel, c.LLM.Model)

	setString(&c.News.Resolver.Provider, "google_news")
	setString(&c.News.Resolver.Language, "en-US")
	setString(&c.News.Resolver.Country, "US")
	setString(&c.News.Fetcher.Provider, "brightdata")
	setDuration(&c.News.Fetcher.Timeout, 60*time.Second)
	setString(&c.News.Fetcher.BrightData.Endpoint, "https://api.brightdata.com/request")
	setString(&c.News.Cleaner, "markup")
	setInt(&c.News.MaxHeadlines, 10)
	setInt(&c.News.Limit.MaxTokens, 5)
	setDuration(&c.News.Limit.Period, time.Second)
	setRetry(&c.News.Retry, 2*time.Second, 10*time.Second)
	setDuration(&c.News.Pause, time.Second)

	setString(&c.Social.MCP.Command, "npx")
	if len(c.Social.MCP.Args) == 0 {
		c.Social.MCP.Args = []string{"@brightdata/mcp"}
	}
	setInt(&c.Social.RecencyDays, 14)
	setInt(&c.Social.MaxAgentStep, 12)
	setInt(&c.Social.Limit.MaxTokens, 1)
	setDuration(&c.Social.Limit.Period, 15*time.Second)
	setRetry(&c.Social.Retry, 15*time.Second, 60*time.Second)
	setDuration(&c.Social.Pause, 5*time.Second)

	setString(&c.TTS.BaseURL, "https://api.elevenlabs.io")
	setString(&c.TTS.VoiceID, "JBFqnCBsd6RMkjVDRZzb")
	setString(&c.TTS.ModelID, "eleven_multilingual_v2")
	setString(&c.TTS.OutputFormat, "mp3_44100_128")
	setString(&c.TTS.OutputDir, "audio")
	setDuration(&c.TTS.Timeout, 3*time.Minute)

	setDuration(&c.Pipeline.RequestTimeout, 15*time.Minute)

	setString(&c.Log.Level, "info")
	setInt(&c.Concurrency.QPS, 2)
	setInt(&c.Concurrency.RPM, 60)
}

func setRetry(r *RetryConfig, minWait, maxWait time.Duration) {
	setInt(&r.Attempts, 3)
	setDuration(&r.Multiplier, time.Second)
	setDuration(&r.MinWait, minWait)
	setDuration(&r.MaxWait, maxWait)
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst <= 0 {
		*dst = def
	}
}
