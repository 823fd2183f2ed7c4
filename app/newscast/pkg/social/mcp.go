package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
)

// MCPProvider 以 stdio 子进程方式启动 MCP 工具服务
type MCPProvider struct {
	cfg config.MCPConfig
}

// NewMCPProvider 创建 MCP 会话提供者
func NewMCPProvider(cfg config.MCPConfig) *MCPProvider {
	return &MCPProvider{cfg: cfg}
}

// Open implements SessionProvider
func (p *MCPProvider) Open(ctx context.Context) (Session, error) {
	if p.cfg.Command == "" {
		return nil, errors.New("mcp command is empty")
	}

	c, err := client.NewStdioMCPClient(p.cfg.Command, p.environ(), p.cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("start mcp server: %w", err)
	}

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: "newscast", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, init); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}

	descs := make([]ToolDescriptor, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		descs = append(descs, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: inputSchema(t),
		})
	}
	logger.Log.Infof("MCP 会话已建立，发现 %d 个工具", len(descs))

	return newMCPSession(c, descs), nil
}

// environ 继承当前进程环境并追加配置中的变量
func (p *MCPProvider) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(p.cfg.Env))
	for k := range p.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+p.cfg.Env[k])
	}
	return env
}

func inputSchema(t mcp.Tool) json.RawMessage {
	if len(t.RawInputSchema) > 0 {
		return t.RawInputSchema
	}
	raw, err := json.Marshal(t.InputSchema)
	if err != nil {
		return nil
	}
	return raw
}

// toolCaller 会话所需的 MCP 客户端能力
type toolCaller interface {
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type mcpSession struct {
	client toolCaller
	tools  catalog
}

func newMCPSession(c toolCaller, descs []ToolDescriptor) *mcpSession {
	return &mcpSession{client: c, tools: newCatalog(descs)}
}

func (s *mcpSession) Tools() []ToolDescriptor { return s.tools.list() }

func (s *mcpSession) Invoke(ctx context.Context, name, argsJSON string) (string, error) {
	if _, ok := s.tools[name]; !ok {
		return "", &ToolError{Tool: name, Kind: KindOther, Err: errors.New("unknown tool")}
	}

	var args map[string]any
	if strings.TrimSpace(argsJSON) != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", &ToolError{Tool: name, Kind: KindOther, Err: fmt.Errorf("invalid arguments: %w", err)}
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", classify(name, err)
	}
	text := resultText(res)
	if res.IsError {
		return "", classify(name, errors.New(text))
	}
	return text, nil
}

func (s *mcpSession) Close() error { return s.client.Close() }

// resultText 拼接结果中的文本内容，非文本内容以 JSON 表示
func resultText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	parts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		default:
			raw, err := json.Marshal(v)
			if err == nil {
				parts = append(parts, string(raw))
			}
		}
	}
	return strings.Join(parts, "\n")
}
