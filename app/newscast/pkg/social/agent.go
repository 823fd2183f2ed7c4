package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
)

// Agent 推理 Agent：输入消息，返回最后一条消息的内容
type Agent interface {
	Run(ctx context.Context, messages []*schema.Message) (string, error)
}

// AgentFactory 基于会话工具构造 Agent，每个批次调用一次
type AgentFactory func(ctx context.Context, tools Toolset) (Agent, error)

// ReactAgent 基于 eino ReAct 图的工具调用 Agent
type ReactAgent struct {
	agent *react.Agent
}

// NewReactAgentFactory 返回使用给定对话模型的 AgentFactory
func NewReactAgentFactory(cm model.ToolCallingChatModel, maxStep int) AgentFactory {
	return func(ctx context.Context, tools Toolset) (Agent, error) {
		return NewReactAgent(ctx, cm, tools, maxStep)
	}
}

// NewReactAgent 将会话工具绑定到 ReAct Agent
func NewReactAgent(ctx context.Context, cm model.ToolCallingChatModel, tools Toolset, maxStep int) (*ReactAgent, error) {
	if cm == nil {
		return nil, errors.New("chat model is nil")
	}
	if maxStep <= 0 {
		maxStep = 12
	}
	ag, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: cm,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: EinoTools(tools),
		},
		MaxStep: maxStep,
	})
	if err != nil {
		return nil, fmt.Errorf("build react agent: %w", err)
	}
	return &ReactAgent{agent: ag}, nil
}

// Run implements Agent。运行期间工具报告过的过载会以 ErrOverload 返回
func (a *ReactAgent) Run(ctx context.Context, messages []*schema.Message) (string, error) {
	ctx, overloaded := withOverloadTrap(ctx)
	msg, err := a.agent.Generate(ctx, messages)
	if err != nil {
		if overloaded.Load() && !IsOverload(err) {
			return "", &ToolError{Kind: KindOverload, Err: err}
		}
		return "", err
	}
	if msg == nil {
		return "", errors.New("agent returned no message")
	}
	return strings.TrimSpace(msg.Content), nil
}
