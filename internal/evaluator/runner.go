package evaluator

import (
	"context"
	"time"

	"gamified-learning/internal/domain"
	"gamified-learning/internal/sandbox"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CaseResult is the outcome of one test case, aligned with the challenge's test case order.
type CaseResult struct {
	Index    int
	TestCase domain.TestCase
	Actual   any
	Logs     []string
	Err      error
	Passed   bool
}

// DefaultBudget bounds a whole evaluation run regardless of how many cases it has.
const DefaultBudget = 20 * time.Second

const budgetExhausted = "evaluation time budget exhausted"

// Runner executes a submission against each test case independently.
type Runner struct {
	parallelism int
	budget      time.Duration
	log         *zap.Logger
}

func NewRunner(log *zap.Logger, parallelism int) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{parallelism: parallelism, budget: DefaultBudget, log: log}
}

// WithBudget sets the wall-clock limit for one Run. Non-positive values keep the current budget.
func (r *Runner) WithBudget(d time.Duration) *Runner {
	if d > 0 {
		r.budget = d
	}
	return r
}

// Budget reports the wall-clock limit applied to one Run.
func (r *Runner) Budget() time.Duration {
	return r.budget
}

// Run invokes exec once per case. A failing case never stops the others; results keep input order.
// Cases still pending when the budget runs out are reported as timeouts without being executed.
func (r *Runner) Run(ctx context.Context, exec sandbox.Executor, code string, cases []domain.TestCase) []CaseResult {
	results := make([]CaseResult, len(cases))

	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for i := range cases {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = CaseResult{
					Index:    i,
					TestCase: cases[i],
					Err:      &sandbox.Error{Kind: sandbox.KindTimeout, Message: budgetExhausted},
				}
				return nil
			}
			results[i] = r.runCase(ctx, exec, code, i, cases[i])
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		r.log.Warn("evaluation stopped early",
			zap.Duration("budget", r.budget),
			zap.Int("testCases", len(cases)),
			zap.Error(ctx.Err()))
	}
	return results
}

func (r *Runner) runCase(ctx context.Context, exec sandbox.Executor, code string, index int, tc domain.TestCase) CaseResult {
	result := CaseResult{Index: index, TestCase: tc}

	out, err := exec.Run(ctx, code, tc.Input)
	result.Logs = out.Logs
	if err != nil {
		result.Err = err
		r.log.Debug("test case execution error",
			zap.Int("testNumber", index+1),
			zap.String("kind", string(sandbox.KindOf(err))),
			zap.Error(err))
		return result
	}

	result.Actual = out.Value
	result.Passed = Equal(out.Value, tc.ExpectedOutput)
	r.log.Debug("test case evaluated",
		zap.Int("testNumber", index+1),
		zap.Bool("passed", result.Passed))
	return result
}
