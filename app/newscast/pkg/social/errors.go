package social

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOverload 工具服务暂时过载，可重试
var ErrOverload = errors.New("tool service overloaded")

// ErrorKind 工具失败的分类
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindOverload
)

func (k ErrorKind) String() string {
	if k == KindOverload {
		return "overload"
	}
	return "other"
}

// ToolError 在会话适配层完成分类的工具错误
type ToolError struct {
	Tool string
	Kind ErrorKind
	Err  error
}

func (e *ToolError) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("tool call failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("tool %s failed (%s): %v", e.Tool, e.Kind, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is 让 errors.Is(err, ErrOverload) 命中过载类错误
func (e *ToolError) Is(target error) bool {
	return target == ErrOverload && e.Kind == KindOverload
}

// IsOverload 判断错误链中是否带有过载标记
func IsOverload(err error) bool {
	return errors.Is(err, ErrOverload)
}

// overloadMarker 工具服务在过载时返回的文本标记
const overloadMarker = "Overload"

// classify 将原始工具错误转换为带分类的 ToolError，文本匹配只发生在这里
func classify(tool string, err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	kind := KindOther
	if strings.Contains(err.Error(), overloadMarker) {
		kind = KindOverload
	}
	return &ToolError{Tool: tool, Kind: kind, Err: err}
}
