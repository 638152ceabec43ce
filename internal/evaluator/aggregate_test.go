package evaluator

import (
	"errors"
	"testing"
	"time"

	"gamified-learning/internal/domain"
	"gamified-learning/internal/sandbox"
	"github.com/stretchr/testify/assert"
)

func results(passed ...bool) []CaseResult {
	out := make([]CaseResult, len(passed))
	for i, p := range passed {
		out[i] = CaseResult{Index: i, Passed: p, TestCase: domain.TestCase{Input: float64(i), ExpectedOutput: float64(i)}}
	}
	return out
}

func TestAggregateScoresAndStatus(t *testing.T) {
	eval := Aggregate(results(true, true, true, false), time.Second)
	assert.Equal(t, 75, eval.Score)
	assert.Equal(t, domain.EvaluationFail, eval.Status)
	assert.Equal(t, 3, eval.PassedTests)
	assert.Equal(t, 4, eval.TotalTests)
	assert.Len(t, eval.FailedTests, 1)
	assert.Equal(t, 4, eval.FailedTests[0].TestNumber)
	assert.Equal(t, "You've passed 3 out of 4 test cases. Keep trying!", eval.Feedback)

	eval = Aggregate(results(true, true, true, true), time.Second)
	assert.Equal(t, 100, eval.Score)
	assert.Equal(t, domain.EvaluationPass, eval.Status)
	assert.Empty(t, eval.FailedTests)
	assert.Equal(t, successFeedback, eval.Feedback)
}

func TestScoreRounds(t *testing.T) {
	assert.Equal(t, 67, Score(2, 3))
	assert.Equal(t, 33, Score(1, 3))
	assert.Equal(t, 0, Score(0, 0))
}

func TestAggregateHidesHiddenCases(t *testing.T) {
	rs := []CaseResult{{
		Index:    0,
		TestCase: domain.TestCase{Input: "secret", ExpectedOutput: "answer", Hidden: true},
		Actual:   "wrong",
	}}
	eval := Aggregate(rs, time.Millisecond)
	ft := eval.FailedTests[0]
	assert.True(t, ft.Hidden)
	assert.Nil(t, ft.Input)
	assert.Nil(t, ft.ExpectedOutput)
	assert.Nil(t, ft.ActualOutput)
}

func TestAggregateSurfacesCompileError(t *testing.T) {
	compileErr := &sandbox.Error{Kind: sandbox.KindCompile, Message: "Unexpected token"}
	rs := []CaseResult{
		{Index: 0, Err: compileErr},
		{Index: 1, Err: errors.New("other")},
	}
	eval := Aggregate(rs, time.Millisecond)
	assert.Equal(t, compileErr.Error(), eval.Error)
}

func TestTestResultsIdentifiers(t *testing.T) {
	rs := results(true, false)
	rs[1].Err = errors.New("boom")
	out := TestResults("c1", rs)
	assert.Equal(t, "c1_test_0", out[0].TestCaseID)
	assert.Equal(t, "c1_test_1", out[1].TestCaseID)
	assert.Equal(t, "boom", out[1].Error)
}
