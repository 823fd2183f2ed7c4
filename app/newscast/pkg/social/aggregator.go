// Package social 基于工具调用 Agent 的 Reddit 讨论聚合
package social

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
	"github.com/iWorld-y/newscast/app/newscast/pkg/metrics"
	"github.com/iWorld-y/newscast/app/newscast/pkg/model"
	"github.com/iWorld-y/newscast/app/newscast/pkg/ratelimit"
	"github.com/iWorld-y/newscast/app/newscast/pkg/retry"
)

const source = "reddit"

// Aggregator 在一次工具会话内逐个主题分析 Reddit 讨论
type Aggregator struct {
	provider    SessionProvider
	newAgent    AgentFactory
	limiter     *ratelimit.Limiter
	policy      retry.Policy
	pause       time.Duration
	recencyDays int
	metrics     *metrics.Metrics

	now func() time.Time
}

// NewAggregator 创建社交聚合器；重试只针对过载错误
func NewAggregator(provider SessionProvider, newAgent AgentFactory, limiter *ratelimit.Limiter, policy retry.Policy, pause time.Duration, recencyDays int, m *metrics.Metrics) *Aggregator {
	if recencyDays <= 0 {
		recencyDays = 14
	}
	policy.Retryable = IsOverload
	policy.OnRetry = func(err error, attempt int, wait time.Duration) {
		logger.Log.Warnf("工具服务过载，第 %d 次失败，%s 后重试: %v", attempt, wait, err)
		m.RecordRetry(policy.Name)
	}
	return &Aggregator{
		provider:    provider,
		newAgent:    newAgent,
		limiter:     limiter,
		policy:      policy,
		pause:       pause,
		recencyDays: recencyDays,
		metrics:     m,
		now:         time.Now,
	}
}

// ScrapeRedditTopics 每个主题都会得到一条结果；只有会话或 Agent 建立失败时返回 error
func (a *Aggregator) ScrapeRedditTopics(ctx context.Context, topics []model.Topic) (*model.AggregateReport, error) {
	report := model.NewAggregateReport(model.RedditAnalysisKey)
	since := a.now().AddDate(0, 0, -a.recencyDays).Format("2006-01-02")

	err := WithSession(ctx, a.provider, func(ctx context.Context, tools Toolset) error {
		agent, err := a.newAgent(ctx, tools)
		if err != nil {
			return fmt.Errorf("build agent: %w", err)
		}

		for _, topic := range topics {
			if err := ctx.Err(); err != nil {
				return err
			}
			logger.Log.Infof("正在分析 Reddit 主题: %s", topic)

			summary, err := a.runTopic(ctx, agent, topic, since)
			if err != nil {
				logger.Log.Errorf("处理 Reddit 主题失败 [%s]: %v", topic, err)
				a.metrics.RecordTopic(source, outcomeOf(err))
				summary = model.RedditErrorPlaceholder
			} else {
				a.metrics.RecordTopic(source, "ok")
			}
			report.Results.Set(topic, summary)

			if err := sleep(ctx, a.pause); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// runTopic 单个主题内的 panic 转为 error，不影响后续主题
func (a *Aggregator) runTopic(ctx context.Context, agent Agent, topic model.Topic, since string) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary, err = "", fmt.Errorf("reddit topic panic: %v", r)
		}
	}()
	return a.processTopic(ctx, agent, topic, since)
}

// processTopic 每次尝试都重新占用限流槽位
func (a *Aggregator) processTopic(ctx context.Context, agent Agent, topic model.Topic, since string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt(since)),
		schema.UserMessage(userPrompt(topic)),
	}
	return retry.Do(ctx, a.policy, func(ctx context.Context) (string, error) {
		var out string
		waitStart := time.Now()
		err := a.limiter.Do(ctx, func(ctx context.Context) error {
			a.metrics.ObserveLimiterWait(a.limiter.Name(), time.Since(waitStart))
			var err error
			out, err = agent.Run(ctx, messages)
			return err
		})
		return out, err
	})
}

func outcomeOf(err error) string {
	if IsOverload(err) {
		return "overload"
	}
	return "error"
}

func systemPrompt(since string) string {
	return fmt.Sprintf(`You are a Reddit analysis expert. Use available tools to:
1. Find top 2 posts about the given topic BUT only after %s, NOTHING before this date strictly!
2. Analyze their content and sentiment
3. Create a summary of discussions and overall sentiment`, since)
}

func userPrompt(topic model.Topic) string {
	return fmt.Sprintf(`Analyze Reddit posts about '%s'.
Provide a comprehensive summary including:
- Main discussion points
- Key opinions expressed
- Any notable trends or patterns
- Summarize the overall narrative, discussion points and also quote interesting comments without mentioning names
- Overall sentiment (positive/neutral/negative)`, topic)
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
