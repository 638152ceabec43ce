package sandbox

import (
	"strings"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

const maxLineLength = 1024

// console is the only host object exposed to submitted code.
type console struct {
	log     *zap.Logger
	max     int
	mu      sync.Mutex
	buf     []string
	dropped int
}

func newConsole(log *zap.Logger, max int) *console {
	return &console{log: log, max: max}
}

func (c *console) bind(vm *goja.Runtime) error {
	obj := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		level := level
		err := obj.Set(level, func(call goja.FunctionCall) goja.Value {
			c.write(level, call.Arguments)
			return goja.Undefined()
		})
		if err != nil {
			return err
		}
	}
	return vm.Set("console", obj)
}

func (c *console) write(level string, args []goja.Value) {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.String())
	}
	line := strings.Join(parts, " ")
	if len(line) > maxLineLength {
		line = line[:maxLineLength]
	}

	c.mu.Lock()
	if len(c.buf) >= c.max {
		c.dropped++
		c.mu.Unlock()
		return
	}
	c.buf = append(c.buf, line)
	c.mu.Unlock()

	if level == "warn" || level == "error" {
		c.log.Warn("sandbox console", zap.String("level", level), zap.String("line", line))
		return
	}
	c.log.Info("sandbox console", zap.String("level", level), zap.String("line", line))
}

func (c *console) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.buf))
	copy(out, c.buf)
	return out
}
