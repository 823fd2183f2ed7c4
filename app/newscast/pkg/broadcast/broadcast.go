// Package broadcast 将新闻与 Reddit 分析合成为口播稿
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/newscast/app/newscast/pkg/llm"
	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
	nmodel "github.com/iWorld-y/newscast/app/newscast/pkg/model"
)

// Synthesizer 基于对话模型的播报稿合成
type Synthesizer struct {
	chatModel model.BaseChatModel
}

// NewSynthesizer 创建合成器
func NewSynthesizer(cm model.BaseChatModel) *Synthesizer {
	return &Synthesizer{chatModel: cm}
}

const systemPrompt = `You are a professional news presenter writing a script for an audio broadcast.
The script is read aloud by a text-to-speech voice, so write plain spoken English only:
no markdown, no headings, no bullet points, no emojis, no stage directions, no URLs.`

// GenerateBroadcastNews 合成播报稿。两份报告都为空时返回固定的兜底稿件，不调用模型；
// 模型失败或返回空内容时整体失败。
func (s *Synthesizer) GenerateBroadcastNews(ctx context.Context, news, reddit *nmodel.AggregateReport, topics []nmodel.Topic) (nmodel.BroadcastScript, error) {
	if news.Empty() && reddit.Empty() {
		logger.Log.Warn("新闻与 Reddit 数据均为空，使用兜底播报稿")
		return Fallback(topics), nil
	}

	prompt, err := userPrompt(news, reddit, topics)
	if err != nil {
		return "", err
	}
	script, err := llm.Complete(ctx, s.chatModel, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generate broadcast: %w", err)
	}
	script = StripMarkdown(script)
	if script == "" {
		return "", fmt.Errorf("generate broadcast: script is empty after cleanup")
	}
	return script, nil
}

func userPrompt(news, reddit *nmodel.AggregateReport, topics []nmodel.Topic) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a news broadcast script covering these topics: %s.\n\n", strings.Join(topics, ", "))
	sb.WriteString("Use the news analysis as the primary source of facts and the Reddit analysis as the public reaction. ")
	sb.WriteString("Skip any entry that is an error message or says nothing was found, without mentioning the failure. ")
	sb.WriteString("Open with a short greeting, give each topic its own segment with a natural transition, ")
	sb.WriteString("and close with a brief sign-off. Keep it under 600 words.\n")

	for _, report := range []*nmodel.AggregateReport{news, reddit} {
		if report.Empty() {
			continue
		}
		raw, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", report.Key, err)
		}
		fmt.Fprintf(&sb, "\n%s:\n%s\n", report.Key, raw)
	}
	return sb.String(), nil
}

// Fallback 无任何数据时的兜底稿件
func Fallback(topics []nmodel.Topic) nmodel.BroadcastScript {
	var named []string
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			named = append(named, t)
		}
	}
	if len(named) == 0 {
		return "Welcome to your news update. We could not gather any stories for this broadcast. Please check back again soon."
	}
	return fmt.Sprintf("Welcome to your news update on %s. "+
		"We were not able to gather fresh news or community discussion on these topics right now. "+
		"Please check back again soon for the latest developments. Thanks for listening.",
		joinSpoken(named))
}

// joinSpoken 以 "a, b and c" 的口语形式连接
func joinSpoken(items []string) string {
	switch len(items) {
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

var (
	headingRe  = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]*`)
	bulletRe   = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+•]|\d+[.)])[ \t]+`)
	emphasisRe = regexp.MustCompile("\\*{1,3}|_{2,3}|`+")
	linkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	blankRe    = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown 去掉不适合朗读的 Markdown 标记
func StripMarkdown(text string) string {
	text = linkRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "")
	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
