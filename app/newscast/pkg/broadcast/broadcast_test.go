package broadcast

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/newscast/app/newscast/pkg/llm/llmtest"
	"github.com/iWorld-y/newscast/app/newscast/pkg/model"
)

func TestGenerateBroadcastNews_EmptyReportsFallback(t *testing.T) {
	cm := llmtest.Fail(errors.New("must not be called"))
	s := NewSynthesizer(cm)

	cases := []struct {
		name         string
		news, reddit *model.AggregateReport
	}{
		{"both nil", nil, nil},
		{"both empty", model.NewAggregateReport(model.NewsAnalysisKey), model.NewAggregateReport(model.RedditAnalysisKey)},
		{"one nil one empty", nil, model.NewAggregateReport(model.RedditAnalysisKey)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			script, err := s.GenerateBroadcastNews(context.Background(), tc.news, tc.reddit, []string{"Bitcoin", "AI"})
			require.NoError(t, err)
			assert.NotEmpty(t, script)
			assert.Contains(t, script, "Bitcoin and AI")
		})
	}
	assert.Empty(t, cm.Calls())
}

func TestFallback(t *testing.T) {
	assert.Contains(t, Fallback([]string{"a", "b", "c"}), "a, b and c")
	assert.NotEmpty(t, Fallback(nil))
	assert.NotEmpty(t, Fallback([]string{" "}))
}

func TestGenerateBroadcastNews_UsesBothReports(t *testing.T) {
	cm := llmtest.Reply("## Evening Update\n\n**Bitcoin** rose today.\n- Traders cheered.")
	s := NewSynthesizer(cm)

	news := model.NewAggregateReport(model.NewsAnalysisKey)
	news.Results.Set("Bitcoin", "Bitcoin hit a new high.")
	reddit := model.NewAggregateReport(model.RedditAnalysisKey)
	reddit.Results.Set("Bitcoin", model.RedditErrorPlaceholder)

	script, err := s.GenerateBroadcastNews(context.Background(), news, reddit, []string{"Bitcoin"})
	require.NoError(t, err)
	assert.Equal(t, "Evening Update\n\nBitcoin rose today.\nTraders cheered.", script)

	calls := cm.Calls()
	require.Len(t, calls, 1)
	prompt := calls[0][1].Content
	assert.Contains(t, prompt, `"news_analysis"`)
	assert.Contains(t, prompt, "Bitcoin hit a new high.")
	assert.Contains(t, prompt, `"reddit_analysis"`)
}

func TestGenerateBroadcastNews_SkipsEmptyReport(t *testing.T) {
	cm := llmtest.Reply("Reddit is excited.")
	reddit := model.NewAggregateReport(model.RedditAnalysisKey)
	reddit.Results.Set("AI", "Users are excited.")

	_, err := NewSynthesizer(cm).GenerateBroadcastNews(context.Background(), nil, reddit, []string{"AI"})
	require.NoError(t, err)
	prompt := cm.Calls()[0][1].Content
	assert.NotContains(t, prompt, "news_analysis")
	assert.Contains(t, prompt, "reddit_analysis")
}

func TestGenerateBroadcastNews_ModelFailureIsFatal(t *testing.T) {
	news := model.NewAggregateReport(model.NewsAnalysisKey)
	news.Results.Set("AI", "something")
	boom := errors.New("upstream 503")

	_, err := NewSynthesizer(llmtest.Fail(boom)).GenerateBroadcastNews(context.Background(), news, nil, []string{"AI"})
	assert.ErrorIs(t, err, boom)

	_, err = NewSynthesizer(llmtest.Reply("**")).GenerateBroadcastNews(context.Background(), news, nil, []string{"AI"})
	assert.Error(t, err)
}

func TestStripMarkdown(t *testing.T) {
	in := "# Title\n1. First [link](http://x)\n* `code` __bold__\n\n\n\nEnd"
	assert.Equal(t, "Title\nFirst link\ncode bold\n\nEnd", StripMarkdown(in))
}
