package resolver

import (
	"fmt"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
)

// NewResolver 根据配置创建解析器
func NewResolver(cfg config.ResolverConfig) (Resolver, error) {
	switch cfg.Provider {
	case "", "google_news":
		return NewGoogleNews(cfg.Language, cfg.Country), nil

	case "google":
		return &GoogleSearch{HL: cfg.Language}, nil

	case "searxng":
		if cfg.SearXNG.BaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		return NewSearXNG(cfg.SearXNG.BaseURL), nil

	default:
		return nil, fmt.Errorf("unknown resolver provider: %s", cfg.Provider)
	}
}
