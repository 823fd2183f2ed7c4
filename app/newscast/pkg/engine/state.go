package engine

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// State 编排状态
type State string

const (
	StateReceived        State = "received"
	StateSourcesSelected State = "sources_selected"
	StateAggregating     State = "aggregating"
	StateSynthesizing    State = "synthesizing"
	StateRendering       State = "rendering"
	StateResponding      State = "responding"
	StateFailed          State = "failed"
)

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == StateResponding || s == StateFailed
}

// StageError 某个阶段的致命错误。Error() 只包含错误信息，%+v 额外输出阶段与调用栈
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Format 实现 fmt.Formatter
func (e *StageError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "stage %s: %+v", e.Stage, e.Err)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// asStageError 包装为 StageError，并确保带有调用栈
func asStageError(stage State, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	if _, ok := err.(stackTracer); !ok {
		err = errors.WithStack(err)
	}
	return &StageError{Stage: stage, Err: err}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}
