package server

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/newscast/app/newscast/pkg/broadcast"
	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/engine"
	"github.com/iWorld-y/newscast/app/newscast/pkg/llm"
	"github.com/iWorld-y/newscast/app/newscast/pkg/metrics"
	"github.com/iWorld-y/newscast/app/newscast/pkg/news"
	"github.com/iWorld-y/newscast/app/newscast/pkg/news/fetcher"
	"github.com/iWorld-y/newscast/app/newscast/pkg/news/resolver"
	"github.com/iWorld-y/newscast/app/newscast/pkg/retry"
	"github.com/iWorld-y/newscast/app/newscast/pkg/social"
	"github.com/iWorld-y/newscast/app/newscast/pkg/tts"
)

// ChatModels 摘要与 Agent 使用的对话模型，共享同一个调用限流器
type ChatModels struct {
	Summary model.ToolCallingChatModel
	Agent   model.ToolCallingChatModel
}

// NewChatModels 初始化对话模型
func NewChatModels(c *config.Config) (*ChatModels, error) {
	ctx := context.Background()
	limiter := llm.NewLimiter(c.Concurrency)

	summary, err := llm.NewChatModel(ctx, c.LLM, c.LLM.Model, limiter)
	if err != nil {
		return nil, err
	}
	agent := summary
	if c.LLM.AgentModel != c.LLM.Model {
		if agent, err = llm.NewChatModel(ctx, c.LLM, c.LLM.AgentModel, limiter); err != nil {
			return nil, err
		}
	}
	return &ChatModels{Summary: summary, Agent: agent}, nil
}

// NewNewsAggregator 组装新闻聚合器
func NewNewsAggregator(c *config.Config, l *engine.Limiters, cms *ChatModels, m *metrics.Metrics) (*news.Aggregator, error) {
	res, err := resolver.NewResolver(c.News.Resolver)
	if err != nil {
		return nil, err
	}
	fetch, err := fetcher.NewFetcher(c.News.Fetcher)
	if err != nil {
		return nil, err
	}
	cleaner, err := news.NewCleaner(c.News.Cleaner)
	if err != nil {
		return nil, err
	}
	deps := news.Deps{
		Resolver:   res,
		Fetcher:    fetch,
		Cleaner:    cleaner,
		Extractor:  news.NewLineExtractor(c.News.MaxHeadlines),
		Summarizer: news.NewLLMSummarizer(cms.Summary),
	}
	policy := retry.FromConfig("news", c.News.Retry, nil)
	return news.NewAggregator(deps, l.News, policy, c.News.Pause, m), nil
}

// NewSocialAggregator 组装 Reddit 聚合器
func NewSocialAggregator(c *config.Config, l *engine.Limiters, cms *ChatModels, m *metrics.Metrics) *social.Aggregator {
	provider := social.NewMCPProvider(c.Social.MCP)
	factory := social.NewReactAgentFactory(cms.Agent, c.Social.MaxAgentStep)
	policy := retry.FromConfig("social", c.Social.Retry, social.IsOverload)
	return social.NewAggregator(provider, factory, l.Social, policy, c.Social.Pause, c.Social.RecencyDays, m)
}

// NewSynthesizer 组装播报稿合成器
func NewSynthesizer(cms *ChatModels) *broadcast.Synthesizer {
	return broadcast.NewSynthesizer(cms.Summary)
}

// NewRenderer 组装 TTS 客户端
func NewRenderer(c *config.Config) *tts.ElevenLabs {
	return tts.NewElevenLabs(c.TTS)
}

// NewEngine 组装编排引擎
func NewEngine(c *config.Config, n *news.Aggregator, s *social.Aggregator, syn *broadcast.Synthesizer, r *tts.ElevenLabs, m *metrics.Metrics, logger log.Logger) (*engine.Engine, func()) {
	eng := engine.NewEngine(n, s, syn, r, engine.VoiceFromConfig(c.TTS), c.Pipeline.RequestTimeout, m)
	cleanup := func() {
		log.NewHelper(logger).Info("newscast engine stopped")
	}
	return eng, cleanup
}
