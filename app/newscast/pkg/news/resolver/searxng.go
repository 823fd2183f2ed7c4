package resolver

import (
	"context"
	"net/url"
	"strings"
)

// SearXNG 解析为 SearXNG 的新闻分类搜索页
type SearXNG struct {
	baseURL string
}

// NewSearXNG 创建一个新的 SearXNG 解析器
func NewSearXNG(baseURL string) *SearXNG {
	return &SearXNG{baseURL: baseURL}
}

// Ensure SearXNG implements Resolver
var _ Resolver = (*SearXNG)(nil)

// Resolve implements Resolver
func (s *SearXNG) Resolve(ctx context.Context, topic string) (string, bool) {
	q := strings.TrimSpace(topic)
	if q == "" {
		return "", false
	}
	u, err := url.Parse(s.baseURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/search"
	u.RawPath = ""

	v := u.Query()
	v.Set("q", q)
	v.Set("categories", "news")
	v.Set("time_range", "week")
	u.RawQuery = v.Encode()

	return u.String(), true
}
