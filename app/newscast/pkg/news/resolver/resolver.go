package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Resolver 将主题解析为待抓取的搜索页 URL；无法解析时返回 false
type Resolver interface {
	Resolve(ctx context.Context, topic string) (string, bool)
}

// GoogleNews 使用 Google News RSS 搜索
type GoogleNews struct {
	HL   string // e.g. "en-US"
	GL   string // e.g. "US"
	CEID string // e.g. "US:en"
}

// NewGoogleNews 根据语言与地区创建解析器
func NewGoogleNews(language, country string) *GoogleNews {
	lang := language
	if i := strings.IndexByte(lang, '-'); i > 0 {
		lang = lang[:i]
	}
	return &GoogleNews{
		HL:   language,
		GL:   country,
		CEID: fmt.Sprintf("%s:%s", country, lang),
	}
}

// Ensure GoogleNews implements Resolver
var _ Resolver = (*GoogleNews)(nil)

// Resolve implements Resolver
func (g *GoogleNews) Resolve(ctx context.Context, topic string) (string, bool) {
	q := strings.TrimSpace(topic)
	if q == "" {
		return "", false
	}
	return fmt.Sprintf(
		"https://news.google.com/rss/search?q=%s&hl=%s&gl=%s&ceid=%s",
		url.QueryEscape(q),
		url.QueryEscape(g.HL),
		url.QueryEscape(g.GL),
		url.QueryEscape(g.CEID),
	), true
}

// GoogleSearch 使用 Google 网页搜索的新闻分类，需要配合 Web Unlocker 抓取
type GoogleSearch struct {
	HL string
}

// Ensure GoogleSearch implements Resolver
var _ Resolver = (*GoogleSearch)(nil)

// Resolve implements Resolver
func (g *GoogleSearch) Resolve(ctx context.Context, topic string) (string, bool) {
	q := strings.TrimSpace(topic)
	if q == "" {
		return "", false
	}
	v := url.Values{}
	v.Set("q", q)
	v.Set("tbm", "nws")
	if g.HL != "" {
		v.Set("hl", g.HL)
	}
	return "https://www.google.com/search?" + v.Encode(), true
}
