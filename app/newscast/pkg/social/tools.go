package social

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"

	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
)

// sessionTool 把 Toolset 中的单个工具适配为 eino 工具
type sessionTool struct {
	desc    ToolDescriptor
	toolset Toolset
}

var _ tool.InvokableTool = (*sessionTool)(nil)

// EinoTools 为会话中的每个工具生成 eino 工具
func EinoTools(ts Toolset) []tool.BaseTool {
	descs := ts.Tools()
	out := make([]tool.BaseTool, 0, len(descs))
	for _, d := range descs {
		out = append(out, &sessionTool{desc: d, toolset: ts})
	}
	return out
}

func (t *sessionTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        t.desc.Name,
		Desc:        t.desc.Description,
		ParamsOneOf: paramsOf(t.desc),
	}, nil
}

func (t *sessionTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	out, err := t.toolset.Invoke(ctx, t.desc.Name, argumentsInJSON)
	if err != nil {
		if IsOverload(err) {
			markOverload(ctx)
		}
		logger.Log.Warnf("工具 %s 调用失败: %v", t.desc.Name, err)
		return "", err
	}
	return out, nil
}

// paramsOf 解析工具的 JSON Schema，无法解析时退化为无参数
func paramsOf(d ToolDescriptor) *schema.ParamsOneOf {
	if len(d.InputSchema) > 0 {
		var s jsonschema.Schema
		if err := json.Unmarshal(d.InputSchema, &s); err == nil {
			return schema.NewParamsOneOfByJSONSchema(&s)
		}
		logger.Log.Debugf("工具 %s 的参数 schema 无法解析，按无参数处理", d.Name)
	}
	return schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{})
}

// 一次 Agent 运行内的过载标记，错误被编排图包装后仍能识别
type overloadTrapKey struct{}

func withOverloadTrap(ctx context.Context) (context.Context, *atomic.Bool) {
	flag := new(atomic.Bool)
	return context.WithValue(ctx, overloadTrapKey{}, flag), flag
}

func markOverload(ctx context.Context) {
	if flag, ok := ctx.Value(overloadTrapKey{}).(*atomic.Bool); ok {
		flag.Store(true)
	}
}
