package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
)

// 单个页面最多读取 8MB
const maxBodyBytes = 8 << 20

// Fetcher 抓取 URL 对应的原始页面
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Direct 直接发起 GET 请求
type Direct struct {
	client *http.Client
}

// NewDirect 创建直连抓取器
func NewDirect(timeout time.Duration) *Direct {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Direct{client: &http.Client{Timeout: timeout}}
}

// Ensure Direct implements Fetcher
var _ Fetcher = (*Direct)(nil)

// Fetch implements Fetcher
func (d *Direct) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	// 添加 User-Agent 避免被简单的反爬虫策略拦截
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/xml;q=0.9,*/*;q=0.8")

	res, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s failed (status %d): %s", pageURL, res.StatusCode, truncate(string(body), 300))
	}
	return string(body), nil
}

// NewFetcher 根据配置创建抓取器
func NewFetcher(cfg config.FetcherConfig) (Fetcher, error) {
	switch cfg.Provider {
	case "", "brightdata":
		if cfg.BrightData.APIToken == "" || cfg.BrightData.Zone == "" {
			logger.Log.Warn("未配置 Bright Data 凭证，新闻抓取降级为直连")
			return NewDirect(cfg.Timeout), nil
		}
		return NewBrightData(cfg.BrightData.Endpoint, cfg.BrightData.APIToken, cfg.BrightData.Zone, cfg.Timeout), nil

	case "direct":
		return NewDirect(cfg.Timeout), nil

	default:
		return nil, fmt.Errorf("unknown fetcher provider: %s", cfg.Provider)
	}
}

// truncate 截断到不超过 n 字节，且不拆开多字节字符
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
