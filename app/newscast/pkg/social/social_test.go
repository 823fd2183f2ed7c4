package social

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/newscast/app/newscast/pkg/metrics"
	"github.com/iWorld-y/newscast/app/newscast/pkg/model"
	"github.com/iWorld-y/newscast/app/newscast/pkg/ratelimit"
	"github.com/iWorld-y/newscast/app/newscast/pkg/retry"
)

type fakeSession struct {
	catalog
	invoke func(name, args string) (string, error)

	mu     sync.Mutex
	closed int
}

func (s *fakeSession) Tools() []ToolDescriptor { return s.list() }

func (s *fakeSession) Invoke(ctx context.Context, name, args string) (string, error) {
	if s.invoke == nil {
		return "", nil
	}
	return s.invoke(name, args)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeProvider struct {
	session *fakeSession
	err     error
}

func (p *fakeProvider) Open(ctx context.Context) (Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.session, nil
}

type agentFunc func(ctx context.Context, messages []*schema.Message) (string, error)

func (f agentFunc) Run(ctx context.Context, messages []*schema.Message) (string, error) {
	return f(ctx, messages)
}

func factoryOf(a Agent) AgentFactory {
	return func(ctx context.Context, tools Toolset) (Agent, error) { return a, nil }
}

func topicOf(messages []*schema.Message) string {
	content := messages[len(messages)-1].Content
	start := strings.Index(content, "'")
	end := strings.Index(content[start+1:], "'")
	return content[start+1 : start+1+end]
}

func newTestAggregator(p SessionProvider, a Agent) *Aggregator {
	policy := retry.Policy{Name: "social", Attempts: 3, Multiplier: time.Millisecond, MinWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
	agg := NewAggregator(p, factoryOf(a), ratelimit.New("social", 1, time.Millisecond), policy, 0, 14, metrics.New())
	agg.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return agg
}

func TestWithSession_ClosesOnError(t *testing.T) {
	s := &fakeSession{}
	boom := errors.New("boom")

	err := WithSession(context.Background(), &fakeProvider{session: s}, func(ctx context.Context, tools Toolset) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.closeCount())
}

func TestWithSession_ClosesOnPanic(t *testing.T) {
	s := &fakeSession{}
	assert.Panics(t, func() {
		_ = WithSession(context.Background(), &fakeProvider{session: s}, func(ctx context.Context, tools Toolset) error {
			panic("agent blew up")
		})
	})
	assert.Equal(t, 1, s.closeCount())
}

func TestWithSession_OpenError(t *testing.T) {
	called := false
	err := WithSession(context.Background(), &fakeProvider{err: errors.New("npx not found")}, func(ctx context.Context, tools Toolset) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "npx not found")
	assert.False(t, called)
}

func TestScrapeRedditTopics_CoverageAndIsolation(t *testing.T) {
	s := &fakeSession{}
	var mu sync.Mutex
	calls := map[string]int{}
	agent := agentFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		topic := topicOf(messages)
		mu.Lock()
		calls[topic]++
		mu.Unlock()
		if topic == "broken" {
			return "", errors.New("model refused")
		}
		return "discussion about " + topic, nil
	})

	topics := []string{"golang", "broken", "rust"}
	report, err := newTestAggregator(&fakeProvider{session: s}, agent).ScrapeRedditTopics(context.Background(), topics)
	require.NoError(t, err)

	assert.Equal(t, model.RedditAnalysisKey, report.Key)
	assert.Equal(t, topics, report.Results.Topics())
	v, _ := report.Results.Get("golang")
	assert.Equal(t, "discussion about golang", v)
	v, _ = report.Results.Get("broken")
	assert.Equal(t, model.RedditErrorPlaceholder, v)
	v, _ = report.Results.Get("rust")
	assert.Equal(t, "discussion about rust", v)

	assert.Equal(t, 1, calls["broken"], "non-overload errors are not retried")
	assert.Equal(t, 1, s.closeCount())
}

func TestScrapeRedditTopics_PanicIsIsolated(t *testing.T) {
	s := &fakeSession{}
	agent := agentFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		topic := topicOf(messages)
		if topic == "boom" {
			var m map[string]int
			m[topic]++
		}
		return "discussion about " + topic, nil
	})

	topics := []string{"boom", "after"}
	var report *model.AggregateReport
	var err error
	require.NotPanics(t, func() {
		report, err = newTestAggregator(&fakeProvider{session: s}, agent).ScrapeRedditTopics(context.Background(), topics)
	})
	require.NoError(t, err)

	assert.Equal(t, topics, report.Results.Topics())
	v, _ := report.Results.Get("boom")
	assert.Equal(t, model.RedditErrorPlaceholder, v)
	v, _ = report.Results.Get("after")
	assert.Equal(t, "discussion about after", v)
	assert.Equal(t, 1, s.closeCount())
}

func TestScrapeRedditTopics_PausesAfterEveryTopic(t *testing.T) {
	agent := agentFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		if topicOf(messages) == "broken" {
			return "", errors.New("model refused")
		}
		return "ok", nil
	})
	const pause = 20 * time.Millisecond
	policy := retry.Policy{Name: "social", Attempts: 1, Multiplier: time.Millisecond, MinWait: time.Millisecond, MaxWait: time.Millisecond}
	agg := NewAggregator(&fakeProvider{session: &fakeSession{}}, factoryOf(agent), ratelimit.New("social", 1, time.Millisecond), policy, pause, 14, metrics.New())

	topics := []string{"golang", "broken", "rust"}
	start := time.Now()
	report, err := agg.ScrapeRedditTopics(context.Background(), topics)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Results.Len())
	assert.GreaterOrEqual(t, elapsed, time.Duration(len(topics))*pause)
}

func TestScrapeRedditTopics_RetriesOverload(t *testing.T) {
	attempts := 0
	agent := agentFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &ToolError{Tool: "search_engine", Kind: KindOverload, Err: errors.New("Overloaded")}
		}
		return "finally", nil
	})

	report, err := newTestAggregator(&fakeProvider{session: &fakeSession{}}, agent).ScrapeRedditTopics(context.Background(), []string{"ai"})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	v, _ := report.Results.Get("ai")
	assert.Equal(t, "finally", v)
}

func TestScrapeRedditTopics_OverloadExhaustedBecomesPlaceholder(t *testing.T) {
	attempts := 0
	agent := agentFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		attempts++
		return "", &ToolError{Kind: KindOverload, Err: errors.New("Overloaded")}
	})

	report, err := newTestAggregator(&fakeProvider{session: &fakeSession{}}, agent).ScrapeRedditTopics(context.Background(), []string{"ai"})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	v, _ := report.Results.Get("ai")
	assert.Equal(t, model.RedditErrorPlaceholder, v)
}

func TestScrapeRedditTopics_SessionSetupFails(t *testing.T) {
	agent := agentFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		t.Fatal("agent must not run")
		return "", nil
	})

	_, err := newTestAggregator(&fakeProvider{err: errors.New("spawn failed")}, agent).ScrapeRedditTopics(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spawn failed")
}

func TestScrapeRedditTopics_Prompts(t *testing.T) {
	var got []*schema.Message
	agent := agentFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		got = messages
		return "ok", nil
	})

	_, err := newTestAggregator(&fakeProvider{session: &fakeSession{}}, agent).ScrapeRedditTopics(context.Background(), []string{"Bitcoin"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, schema.System, got[0].Role)
	assert.Contains(t, got[0].Content, "only after 2026-03-01")
	assert.Contains(t, got[0].Content, "top 2 posts")
	assert.Equal(t, schema.User, got[1].Role)
	assert.Contains(t, got[1].Content, "Analyze Reddit posts about 'Bitcoin'")
	assert.Contains(t, got[1].Content, "Overall sentiment")
}

func TestClassify(t *testing.T) {
	te := classify("scrape_as_markdown", errors.New("Server Overloaded, try later"))
	assert.Equal(t, KindOverload, te.Kind)
	assert.True(t, IsOverload(te))

	te = classify("scrape_as_markdown", errors.New("403 forbidden"))
	assert.Equal(t, KindOther, te.Kind)
	assert.False(t, IsOverload(te))

	wrapped := classify("x", &ToolError{Tool: "y", Kind: KindOverload, Err: errors.New("busy")})
	assert.Equal(t, "y", wrapped.Tool)

	assert.Nil(t, classify("x", nil))
}
