package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Executor runs untrusted code by invoking its `solution` entry point with one argument.
type Executor interface {
	Run(ctx context.Context, code string, input any) (Output, error)
}

// Output is what one execution produced. Value is a plain JSON value.
type Output struct {
	Value any
	Logs  []string
}

// Options bound a single execution.
type Options struct {
	Timeout      time.Duration
	MaxLogLines  int
	MaxCallStack int
}

// DefaultOptions matches the platform's 5s evaluation bound.
func DefaultOptions() Options {
	return Options{
		Timeout:      5 * time.Second,
		MaxLogLines:  100,
		MaxCallStack: 1024,
	}
}

// resolveEntry is appended to submitted code so the program's completion value is the entry function.
const resolveEntry = "\n;(typeof solution === 'function') ? solution : undefined;\n"

// lockdownSource strips the constructors that compile strings into code.
const lockdownSource = `(function () {
	var samples = [function () {}, function* () {}, async function () {}];
	for (var i = 0; i < samples.length; i++) {
		Object.defineProperty(Object.getPrototypeOf(samples[i]), 'constructor', { value: undefined });
	}
})();`

var lockdownProgram = goja.MustCompile("lockdown.js", lockdownSource, false)

// describeSource renders a thrown value as text using intrinsics captured before user code runs.
// Anything that fails while rendering collapses to a fixed message.
const describeSource = `(function () {
	var S = String, E = Error, tag = Object.prototype.toString, apply = Reflect.apply;
	return function (e) {
		try {
			if (e instanceof E) {
				return S(e.name) + ": " + S(e.message);
			}
			if (e === null || (typeof e !== 'object' && typeof e !== 'function')) {
				return S(e);
			}
			return apply(tag, e, []);
		} catch (_) {
			return undefined;
		}
	};
})();`

var describeProgram = goja.MustCompile("describe.js", describeSource, false)

const unprintableException = "uncaught exception"

// removedGlobals are deleted from every runtime before user code runs.
var removedGlobals = []string{"eval", "Function"}

type deadline struct{}

var errMissingEntry = errors.New("solution is not defined or is not a function")

// JSExecutor executes JavaScript in an embedded goja VM.
// Every Run gets a fresh runtime, so no state survives between executions.
type JSExecutor struct {
	opts Options
	log  *zap.Logger
}

func NewJSExecutor(log *zap.Logger, opts Options) *JSExecutor {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.MaxLogLines <= 0 {
		opts.MaxLogLines = defaults.MaxLogLines
	}
	if opts.MaxCallStack <= 0 {
		opts.MaxCallStack = defaults.MaxCallStack
	}
	return &JSExecutor{opts: opts, log: log}
}

func (e *JSExecutor) Run(ctx context.Context, code string, input any) (out Output, err error) {
	defer func() {
		if p := recover(); p != nil {
			e.log.Error("sandbox panic recovered", zap.String("panicType", fmt.Sprintf("%T", p)))
			out, err = Output{}, &Error{Kind: KindRuntime, Message: "execution failed unexpectedly"}
		}
	}()

	program, err := goja.Compile("solution.js", code+resolveEntry, false)
	if err != nil {
		return Output{}, &Error{Kind: KindCompile, Message: err.Error()}
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(e.opts.MaxCallStack)
	cons := newConsole(e.log, e.opts.MaxLogLines)
	rt, err := e.prepare(vm, cons)
	if err != nil {
		return Output{}, fmt.Errorf("prepare sandbox: %w", err)
	}

	timer := time.AfterFunc(e.opts.Timeout, func() { vm.Interrupt(deadline{}) })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	value, err := rt.invoke(program, input)
	out = Output{Logs: cons.lines()}
	if err != nil {
		return out, e.classify(rt, err)
	}
	out.Value = value
	return out, nil
}

// vmSession keeps the JSON helpers captured before user code could replace them.
type vmSession struct {
	vm        *goja.Runtime
	parse     goja.Callable
	stringify goja.Callable
	describe  goja.Callable
}

func (e *JSExecutor) prepare(vm *goja.Runtime, cons *console) (*vmSession, error) {
	if _, err := vm.RunProgram(lockdownProgram); err != nil {
		return nil, err
	}
	global := vm.GlobalObject()
	for _, name := range removedGlobals {
		if err := global.Delete(name); err != nil {
			return nil, err
		}
	}
	if err := cons.bind(vm); err != nil {
		return nil, err
	}

	jsonObj := vm.Get("JSON").ToObject(vm)
	parse, ok := goja.AssertFunction(jsonObj.Get("parse"))
	if !ok {
		return nil, errors.New("JSON.parse unavailable")
	}
	stringify, ok := goja.AssertFunction(jsonObj.Get("stringify"))
	if !ok {
		return nil, errors.New("JSON.stringify unavailable")
	}
	describeValue, err := vm.RunProgram(describeProgram)
	if err != nil {
		return nil, err
	}
	describe, ok := goja.AssertFunction(describeValue)
	if !ok {
		return nil, errors.New("describe helper unavailable")
	}
	return &vmSession{vm: vm, parse: parse, stringify: stringify, describe: describe}, nil
}

func (r *vmSession) invoke(program *goja.Program, input any) (any, error) {
	entry, err := r.vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	solution, ok := goja.AssertFunction(entry)
	if !ok {
		return nil, errMissingEntry
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	arg, err := r.parse(goja.Undefined(), r.vm.ToValue(string(raw)))
	if err != nil {
		return nil, err
	}

	result, err := solution(goja.Undefined(), arg)
	if err != nil {
		return nil, err
	}
	return r.export(result)
}

// export converts a JS value to plain JSON data by serialising inside the VM.
func (r *vmSession) export(v goja.Value) (any, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	encoded, err := r.stringify(goja.Undefined(), v)
	if err != nil {
		return nil, err
	}
	if goja.IsUndefined(encoded) {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(encoded.String()), &out); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return out, nil
}

// message renders a thrown JS value without letting user code escape the VM.
// The second result is the error raised while rendering, e.g. an interrupt.
func (r *vmSession) message(thrown goja.Value) (string, error) {
	if thrown == nil {
		return unprintableException, nil
	}
	rendered, err := r.describe(goja.Undefined(), thrown)
	if err != nil {
		return unprintableException, err
	}
	if text, ok := rendered.Export().(string); ok {
		return text, nil
	}
	return unprintableException, nil
}

func (e *JSExecutor) classify(rt *vmSession, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return e.interruptError(interrupted)
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		msg, renderErr := rt.message(exception.Value())
		if errors.As(renderErr, &interrupted) {
			return e.interruptError(interrupted)
		}
		return &Error{Kind: KindRuntime, Message: msg}
	}
	return &Error{Kind: KindRuntime, Message: err.Error()}
}

func (e *JSExecutor) interruptError(interrupted *goja.InterruptedError) error {
	if _, ok := interrupted.Value().(deadline); ok {
		return &Error{Kind: KindTimeout, Message: fmt.Sprintf("execution exceeded %s", e.opts.Timeout)}
	}
	return &Error{Kind: KindTimeout, Message: "execution cancelled"}
}
