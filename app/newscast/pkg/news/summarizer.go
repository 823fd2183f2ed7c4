package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/newscast/app/newscast/pkg/llm"
)

// Summarizer 将标题列表总结为一段适合播报的文字
type Summarizer interface {
	Summarize(ctx context.Context, headlines []string) (string, error)
}

// LLMSummarizer 基于对话模型的总结器
type LLMSummarizer struct {
	chatModel model.BaseChatModel
}

// NewLLMSummarizer 创建总结器
func NewLLMSummarizer(cm model.BaseChatModel) *LLMSummarizer {
	return &LLMSummarizer{chatModel: cm}
}

const newsSystemPrompt = `You are a professional news editor writing for a radio bulletin.
Write in plain spoken English. Do not use markdown, bullet points, headings, emojis or special characters.`

// Summarize implements Summarizer
func (s *LLMSummarizer) Summarize(ctx context.Context, headlines []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Turn the following news headlines into one coherent news segment of about 150 words.\n")
	sb.WriteString("Group related stories, keep facts as stated, mention sources only when they matter, ")
	sb.WriteString("and do not invent details that the headlines do not support.\n\nHeadlines:\n")
	for i, h := range headlines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, h)
	}
	return llm.Complete(ctx, s.chatModel, newsSystemPrompt, sb.String())
}
