package news

import (
	"context"
	"fmt"
	"time"

	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
	"github.com/iWorld-y/newscast/app/newscast/pkg/metrics"
	"github.com/iWorld-y/newscast/app/newscast/pkg/model"
	"github.com/iWorld-y/newscast/app/newscast/pkg/news/fetcher"
	"github.com/iWorld-y/newscast/app/newscast/pkg/news/resolver"
	"github.com/iWorld-y/newscast/app/newscast/pkg/ratelimit"
	"github.com/iWorld-y/newscast/app/newscast/pkg/retry"
)

const source = "news"

// Deps 新闻聚合依赖的外部协作者
type Deps struct {
	Resolver   resolver.Resolver
	Fetcher    fetcher.Fetcher
	Cleaner    Cleaner
	Extractor  HeadlineExtractor
	Summarizer Summarizer
}

// Aggregator 逐个主题抓取新闻并生成分析
type Aggregator struct {
	deps    Deps
	limiter *ratelimit.Limiter
	policy  retry.Policy
	pause   time.Duration
	metrics *metrics.Metrics
}

// NewAggregator 创建新闻聚合器；limiter 为进程内共享实例
func NewAggregator(deps Deps, limiter *ratelimit.Limiter, policy retry.Policy, pause time.Duration, m *metrics.Metrics) *Aggregator {
	policy.OnRetry = func(err error, attempt int, wait time.Duration) {
		logger.Log.Warnf("新闻批次第 %d 次失败，%s 后重试: %v", attempt, wait, err)
		m.RecordRetry(policy.Name)
	}
	return &Aggregator{
		deps:    deps,
		limiter: limiter,
		policy:  policy,
		pause:   pause,
		metrics: m,
	}
}

// ScrapeNews 处理整批主题，每个主题都会得到一条结果。
// 单个主题的失败记录为占位文本；逃出单主题保护的异常触发整批重试。
func (a *Aggregator) ScrapeNews(ctx context.Context, topics []model.Topic) (*model.AggregateReport, error) {
	return retry.Do(ctx, a.policy, func(ctx context.Context) (*model.AggregateReport, error) {
		return a.scrapeBatch(ctx, topics)
	})
}

func (a *Aggregator) scrapeBatch(ctx context.Context, topics []model.Topic) (report *model.AggregateReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = nil, fmt.Errorf("news batch panic: %v", r)
		}
	}()

	report = model.NewAggregateReport(model.NewsAnalysisKey)
	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value, err := a.processTopic(ctx, topic)
		if err != nil {
			return nil, err
		}
		report.Results.Set(topic, value)

		if err := sleep(ctx, a.pause); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// processTopic 只有等待限流被取消时返回 error，其余失败都转成占位文本
func (a *Aggregator) processTopic(ctx context.Context, topic model.Topic) (string, error) {
	waitStart := time.Now()
	release, err := a.limiter.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	a.metrics.ObserveLimiterWait(a.limiter.Name(), time.Since(waitStart))

	logger.Log.Infof("正在处理新闻主题: %s", topic)

	pageURL, ok := a.deps.Resolver.Resolve(ctx, topic)
	if !ok {
		logger.Log.Warnf("新闻主题 [%s] 未找到可用 URL", topic)
		a.metrics.RecordTopic(source, "no_url")
		return model.NoURLPlaceholder, nil
	}

	headlines, err := a.headlines(ctx, pageURL)
	if err != nil {
		logger.Log.Errorf("抓取新闻失败 [%s]: %v", topic, err)
		a.metrics.RecordTopic(source, "error")
		return model.ErrorPlaceholder(err), nil
	}
	if len(headlines) == 0 {
		logger.Log.Warnf("新闻主题 [%s] 未提取到标题", topic)
		a.metrics.RecordTopic(source, "no_headlines")
		return model.NoHeadlinesPlaceholder, nil
	}

	logger.Log.Debugf("新闻主题 [%s] 提取到 %d 条标题", topic, len(headlines))
	summary, err := a.deps.Summarizer.Summarize(ctx, headlines)
	if err != nil {
		logger.Log.Errorf("生成新闻总结失败 [%s]: %v", topic, err)
		a.metrics.RecordTopic(source, "error")
		return model.ErrorPlaceholder(err), nil
	}

	a.metrics.RecordTopic(source, "ok")
	return summary, nil
}

func (a *Aggregator) headlines(ctx context.Context, pageURL string) ([]string, error) {
	markup, err := a.deps.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	text, err := a.deps.Cleaner.Clean(pageURL, markup)
	if err != nil {
		return nil, err
	}
	return a.deps.Extractor.Extract(text), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
