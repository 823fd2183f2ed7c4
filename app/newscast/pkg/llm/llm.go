package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
)

// NewLimiter 按 RPM/QPS 构造 LLM 调用限流器
func NewLimiter(c config.ConcurrencyConfig) *rate.Limiter {
	limit := rate.Limit(float64(c.RPM) / 60.0)
	return rate.NewLimiter(limit, c.QPS)
}

// NewChatModel 初始化 OpenAI 兼容的对话模型，并套上调用限流
func NewChatModel(ctx context.Context, c config.LLMConfig, modelName string, limiter *rate.Limiter) (model.ToolCallingChatModel, error) {
	if modelName == "" {
		modelName = c.Model
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       modelName,
		Temperature: c.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return Throttle(cm, limiter), nil
}

// Throttle 在每次 Generate/Stream 前等待限流器
func Throttle(cm model.ToolCallingChatModel, limiter *rate.Limiter) model.ToolCallingChatModel {
	if limiter == nil {
		return cm
	}
	return &throttled{inner: cm, limiter: limiter}
}

type throttled struct {
	inner   model.ToolCallingChatModel
	limiter *rate.Limiter
}

func (t *throttled) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Generate(ctx, input, opts...)
}

func (t *throttled) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Stream(ctx, input, opts...)
}

func (t *throttled) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	inner, err := t.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &throttled{inner: inner, limiter: t.limiter}, nil
}

// Complete 发送 system + user 两条消息并返回清理后的文本
func Complete(ctx context.Context, cm model.BaseChatModel, system, user string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	resp, err := cm.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return content, nil
}
