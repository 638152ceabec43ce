package domain

import (
	"encoding/json"
	"time"
)

// SubmissionStatus is the lifecycle state of a Submission.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionPassed  SubmissionStatus = "passed"
	SubmissionFailed  SubmissionStatus = "failed"
)

// TestResult is the per-test-case outcome stored with a submission.
type TestResult struct {
	TestCaseID string `json:"testCaseId"`
	Passed     bool   `json:"passed"`
	Output     any    `json:"output"`
	Error      string `json:"error,omitempty"`
}

// Submission is one attempt at a challenge. It is created pending and finalized exactly once.
type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	ChallengeID     string           `json:"challengeId"`
	Code            string           `json:"code"`
	Language        string           `json:"language"`
	Status          SubmissionStatus `json:"status"`
	Score           int              `json:"score"`
	TestResults     []TestResult     `json:"testResults"`
	ExecutionTimeMs int64            `json:"executionTime"`
	Feedback        string           `json:"feedback"`
	SubmittedAt     time.Time        `json:"submittedAt"`
}

// EvaluationStatus is the aggregate verdict of one evaluation.
type EvaluationStatus string

const (
	EvaluationPass EvaluationStatus = "pass"
	EvaluationFail EvaluationStatus = "fail"
)

// FailedTest describes one failing case. Hidden cases omit their input and expectations.
type FailedTest struct {
	TestNumber     int    `json:"testNumber"`
	Input          any    `json:"input,omitempty"`
	ExpectedOutput any    `json:"expectedOutput,omitempty"`
	ActualOutput   any    `json:"actualOutput,omitempty"`
	Error          string `json:"error,omitempty"`
	Hidden         bool   `json:"hidden,omitempty"`
}

// Evaluation is the aggregated result of running a submission against its test cases.
type Evaluation struct {
	Status        EvaluationStatus `json:"status"`
	Score         int              `json:"score"`
	TotalTests    int              `json:"totalTests"`
	PassedTests   int              `json:"passedTests"`
	FailedTests   []FailedTest     `json:"failedTests"`
	ExecutionTime time.Duration    `json:"-"`
	Feedback      string           `json:"feedback"`
	Error         string           `json:"error,omitempty"`
}

// MarshalJSON reports executionTime in seconds.
func (e Evaluation) MarshalJSON() ([]byte, error) {
	type alias Evaluation
	return json.Marshal(struct {
		alias
		ExecutionTime float64 `json:"executionTime"`
	}{
		alias:         alias(e),
		ExecutionTime: e.ExecutionTime.Seconds(),
	})
}

// Passed reports whether every test case passed.
func (e Evaluation) Passed() bool {
	return e.Status == EvaluationPass
}

// Finalize records the evaluation outcome on a pending submission.
func (s Submission) Finalize(eval Evaluation, results []TestResult) (Submission, error) {
	if s.Status != SubmissionPending {
		return s, ErrSubmissionFinalized
	}
	s.Status = SubmissionFailed
	if eval.Passed() {
		s.Status = SubmissionPassed
	}
	s.Score = eval.Score
	s.TestResults = results
	s.ExecutionTimeMs = eval.ExecutionTime.Milliseconds()
	s.Feedback = eval.Feedback
	return s, nil
}
