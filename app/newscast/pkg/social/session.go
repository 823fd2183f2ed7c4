package social

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
)

// ToolDescriptor 会话发现的单个工具
type ToolDescriptor struct {
	Name        string
	Description string
	// InputSchema 工具参数的 JSON Schema，可能为空
	InputSchema json.RawMessage
}

// Toolset 动态发现的工具集合；Agent 只依赖这个接口
type Toolset interface {
	// Tools 按名称排序返回全部工具
	Tools() []ToolDescriptor
	// Invoke 以 JSON 参数调用工具，失败时返回 *ToolError
	Invoke(ctx context.Context, name, argsJSON string) (string, error)
}

// Session 一次批处理期间持有的工具会话
type Session interface {
	Toolset
	Close() error
}

// SessionProvider 建立工具会话
type SessionProvider interface {
	Open(ctx context.Context) (Session, error)
}

// WithSession 打开会话并在 fn 返回（包括 panic）后关闭
func WithSession(ctx context.Context, p SessionProvider, fn func(ctx context.Context, tools Toolset) error) error {
	session, err := p.Open(ctx)
	if err != nil {
		return fmt.Errorf("open tool session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Log.Warnf("关闭工具会话失败: %v", cerr)
		}
	}()
	return fn(ctx, session)
}

// catalog 工具名 -> 描述
type catalog map[string]ToolDescriptor

func newCatalog(descs []ToolDescriptor) catalog {
	c := make(catalog, len(descs))
	for _, d := range descs {
		c[d.Name] = d
	}
	return c
}

func (c catalog) list() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(c))
	for _, d := range c {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
