package evaluator

import (
	"fmt"
	"math"
	"time"

	"gamified-learning/internal/domain"
	"gamified-learning/internal/sandbox"
)

const successFeedback = "Great job! All test cases passed."

// Score is the rounded percentage of passed cases.
func Score(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(passed) / float64(total) * 100))
}

// Feedback renders the summary sentence shown to the submitter.
func Feedback(passed, total int) string {
	if total > 0 && passed == total {
		return successFeedback
	}
	return fmt.Sprintf("You've passed %d out of %d test cases. Keep trying!", passed, total)
}

// Aggregate folds per-case results into an Evaluation. Callers guarantee at least one result.
func Aggregate(results []CaseResult, elapsed time.Duration) domain.Evaluation {
	eval := domain.Evaluation{
		Status:        domain.EvaluationFail,
		TotalTests:    len(results),
		FailedTests:   []domain.FailedTest{},
		ExecutionTime: elapsed,
	}

	for _, r := range results {
		if r.Passed {
			eval.PassedTests++
			continue
		}
		eval.FailedTests = append(eval.FailedTests, failedTest(r))
		if eval.Error == "" && sandbox.KindOf(r.Err) == sandbox.KindCompile {
			eval.Error = r.Err.Error()
		}
	}

	eval.Score = Score(eval.PassedTests, eval.TotalTests)
	if eval.Score == 100 {
		eval.Status = domain.EvaluationPass
	}
	eval.Feedback = Feedback(eval.PassedTests, eval.TotalTests)
	return eval
}

func failedTest(r CaseResult) domain.FailedTest {
	ft := domain.FailedTest{TestNumber: r.Index + 1}
	if r.Err != nil {
		ft.Error = r.Err.Error()
	}
	if r.TestCase.Hidden {
		ft.Hidden = true
		return ft
	}
	ft.Input = r.TestCase.Input
	ft.ExpectedOutput = r.TestCase.ExpectedOutput
	ft.ActualOutput = r.Actual
	return ft
}

// TestResults converts case results into the records persisted with a submission.
func TestResults(challengeID string, results []CaseResult) []domain.TestResult {
	out := make([]domain.TestResult, 0, len(results))
	for _, r := range results {
		tr := domain.TestResult{
			TestCaseID: fmt.Sprintf("%s_test_%d", challengeID, r.Index),
			Passed:     r.Passed,
			Output:     r.Actual,
		}
		if r.Err != nil {
			tr.Error = r.Err.Error()
		}
		out = append(out, tr)
	}
	return out
}
