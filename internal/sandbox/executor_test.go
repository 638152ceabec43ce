package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestExecutor(timeout time.Duration) *JSExecutor {
	return NewJSExecutor(zap.NewNop(), Options{Timeout: timeout})
}

func TestRunReturnsSolutionValue(t *testing.T) {
	exec := newTestExecutor(time.Second)

	out, err := exec.Run(context.Background(), `function solution(n) { return n * 2; }`, 21)
	require.NoError(t, err)
	assert.Equal(t, float64(42), out.Value)

	out, err = exec.Run(context.Background(), `
		const solution = (input) => ({ sum: input.a + input.b, items: [input.a, input.b] });
	`, map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sum": float64(3), "items": []any{float64(1), float64(2)}}, out.Value)
}

func TestRunUndefinedResultIsNil(t *testing.T) {
	exec := newTestExecutor(time.Second)
	out, err := exec.Run(context.Background(), `function solution() {}`, nil)
	require.NoError(t, err)
	assert.Nil(t, out.Value)
}

func TestRunCompileError(t *testing.T) {
	exec := newTestExecutor(time.Second)
	_, err := exec.Run(context.Background(), `function solution( { return 1 }`, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompile)
	assert.Equal(t, KindCompile, KindOf(err))
}

func TestRunRuntimeErrors(t *testing.T) {
	exec := newTestExecutor(time.Second)

	_, err := exec.Run(context.Background(), `function solution() { throw new Error("boom"); }`, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuntime)
	assert.Contains(t, err.Error(), "boom")

	_, err = exec.Run(context.Background(), `function notTheEntry() { return 1; }`, nil)
	assert.ErrorIs(t, err, ErrRuntime)

	_, err = exec.Run(context.Background(), `function solution() { const o = {}; o.self = o; return o; }`, nil)
	assert.ErrorIs(t, err, ErrRuntime)

	_, err = exec.Run(context.Background(), `function solution(n) { return solution(n + 1); }`, 0)
	assert.ErrorIs(t, err, ErrRuntime)
}

func TestRunSurvivesHostileThrownValues(t *testing.T) {
	exec := newTestExecutor(time.Second)

	cases := []struct {
		name string
		code string
		want string
	}{
		{"throwing toString", `function solution() { throw { toString() { throw new Error("nested"); } }; }`, "[object Object]"},
		{"thrown string", `function solution() { throw "plain"; }`, "plain"},
		{"error with hostile message", `function solution() { const e = new Error(); e.message = { toString() { throw 1; } }; throw e; }`, unprintableException},
		{"symbol", `function solution() { throw Symbol("s"); }`, "Symbol(s)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = exec.Run(context.Background(), tc.code, nil)
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRuntime)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRunBoundsRenderingOfThrownValue(t *testing.T) {
	exec := newTestExecutor(300 * time.Millisecond)

	start := time.Now()
	var err error
	require.NotPanics(t, func() {
		_, err = exec.Run(context.Background(), `
			function solution() {
				const e = new Error("slow");
				e.message = { toString() { while (true) {} } };
				throw e;
			}`, nil)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRunTimesOutOnInfiniteLoop(t *testing.T) {
	exec := newTestExecutor(200 * time.Millisecond)

	start := time.Now()
	_, err := exec.Run(context.Background(), `function solution() { while (true) {} }`, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	_, err = exec.Run(context.Background(), `for (;;) {} function solution() { return 1; }`, nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunHonoursContextCancellation(t *testing.T) {
	exec := newTestExecutor(10 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := exec.Run(ctx, `function solution() { while (true) {} }`, nil)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestRunHasNoHostCapabilities(t *testing.T) {
	exec := newTestExecutor(time.Second)
	out, err := exec.Run(context.Background(), `
		function solution() {
			return [typeof eval, typeof Function, typeof require, typeof process,
				(function () {}).constructor === undefined];
		}`, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"undefined", "undefined", "undefined", "undefined", true}, out.Value)
}

func TestRunIsolatesExecutions(t *testing.T) {
	exec := newTestExecutor(time.Second)
	_, err := exec.Run(context.Background(), `var leaked = 1; function solution() { return leaked; }`, nil)
	require.NoError(t, err)

	out, err := exec.Run(context.Background(), `function solution() { return typeof leaked; }`, nil)
	require.NoError(t, err)
	assert.Equal(t, "undefined", out.Value)
}

func TestRunDoesNotAliasInput(t *testing.T) {
	exec := newTestExecutor(time.Second)
	input := map[string]any{"a": float64(1)}
	_, err := exec.Run(context.Background(), `function solution(x) { x.a = 99; return x.a; }`, input)
	require.NoError(t, err)
	assert.Equal(t, float64(1), input["a"])
}

func TestConsoleIsCapturedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	exec := NewJSExecutor(zap.New(core), Options{Timeout: time.Second, MaxLogLines: 2})

	out, err := exec.Run(context.Background(), `
		function solution(x) {
			console.log("got", x);
			console.error("careful");
			console.log("dropped");
			return x;
		}`, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"got 7", "careful"}, out.Logs)
	assert.Equal(t, 2, logs.FilterMessage("sandbox console").Len())
}
