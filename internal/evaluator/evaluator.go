package evaluator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gamified-learning/internal/domain"
	"gamified-learning/internal/sandbox"
	"go.uber.org/zap"
)

// Report bundles the aggregate evaluation with the raw per-case results.
type Report struct {
	Evaluation domain.Evaluation
	Results    []CaseResult
}

// Evaluator dispatches a submission to the executor for its language and aggregates the outcome.
type Evaluator struct {
	executors map[string]sandbox.Executor
	runner    *Runner
	log       *zap.Logger
}

func New(log *zap.Logger, runner *Runner, executors map[string]sandbox.Executor) *Evaluator {
	return &Evaluator{executors: executors, runner: runner, log: log}
}

// NormalizeLanguage maps declared languages and their aliases to executor keys.
func NormalizeLanguage(language string) string {
	switch lang := strings.ToLower(strings.TrimSpace(language)); lang {
	case "", "js", "node", domain.LanguageJavaScript:
		return domain.LanguageJavaScript
	default:
		return lang
	}
}

// Supports reports whether a language has a registered executor.
func (e *Evaluator) Supports(language string) bool {
	_, ok := e.executors[NormalizeLanguage(language)]
	return ok
}

func (e *Evaluator) Evaluate(ctx context.Context, challenge domain.Challenge, code, language string) (Report, error) {
	if len(challenge.TestCases) == 0 {
		return Report{}, domain.ErrInvalidChallenge
	}
	lang := NormalizeLanguage(language)
	exec, ok := e.executors[lang]
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, lang)
	}

	start := time.Now()
	results := e.runner.Run(ctx, exec, code, challenge.TestCases)
	eval := Aggregate(results, time.Since(start))

	e.log.Info("code evaluation completed",
		zap.String("challengeId", challenge.ID),
		zap.String("status", string(eval.Status)),
		zap.Int("score", eval.Score),
		zap.Int("passedTests", eval.PassedTests),
		zap.Int("totalTests", eval.TotalTests),
		zap.Duration("executionTime", eval.ExecutionTime))
	return Report{Evaluation: eval, Results: results}, nil
}
