// Package llmtest 提供测试用的对话模型替身
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel 按 Handler 返回结果并记录每次调用的输入
type ChatModel struct {
	Handler func(ctx context.Context, input []*schema.Message) (*schema.Message, error)

	mu    sync.Mutex
	calls [][]*schema.Message
	tools []*schema.ToolInfo
}

// Reply 返回固定文本的模型
func Reply(content string) *ChatModel {
	return &ChatModel{Handler: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}}
}

// Fail 始终返回 err 的模型
func Fail(err error) *ChatModel {
	return &ChatModel{Handler: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
		return nil, err
	}}
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

// Generate 实现 model.BaseChatModel
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()
	if m.Handler == nil {
		return nil, errors.New("llmtest: no handler")
	}
	return m.Handler(ctx, input)
}

// Stream 测试中不使用流式输出
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("llmtest: stream not supported")
}

// WithTools 记录绑定的工具并返回自身
func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	m.tools = tools
	m.mu.Unlock()
	return m, nil
}

// Calls 返回全部调用记录
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// Tools 返回最近一次绑定的工具
func (m *ChatModel) Tools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}
