package sandbox

import "errors"

// Kind classifies why an execution failed.
type Kind string

const (
	KindCompile Kind = "CompileError"
	KindRuntime Kind = "RuntimeError"
	KindTimeout Kind = "TimeoutError"
)

var (
	ErrCompile = errors.New("compile error")
	ErrRuntime = errors.New("runtime error")
	ErrTimeout = errors.New("execution timed out")
)

// Error is returned by executors; errors.Is matches it against ErrCompile, ErrRuntime and ErrTimeout.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrCompile:
		return e.Kind == KindCompile
	case ErrRuntime:
		return e.Kind == KindRuntime
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// KindOf returns the sandbox error kind of err, or "" when err did not come from a sandbox.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
