package model

import "time"

// ConversationRef identifies a conversation opened for a pair (a Slack channel ID)
type ConversationRef string

func (x ConversationRef) String() string {
	return string(x)
}

// RunID identifies one batch execution in logs and reports
type RunID string

// PairOutcome records what happened to one valid pair during execution
type PairOutcome struct {
	LineNumber      int
	PairLabel       string
	Success         bool
	ConversationRef ConversationRef // empty unless a conversation was opened
	ErrorMessage    string          // empty on success
}

// ExecutionReport aggregates the outcomes of a batch run in input order
type ExecutionReport struct {
	RunID        RunID
	SuccessCount int
	FailureCount int
	Outcomes     []PairOutcome
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Add appends an outcome and updates the counters
func (r *ExecutionReport) Add(outcome PairOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	if outcome.Success {
		r.SuccessCount++
	} else {
		r.FailureCount++
	}
}

// Total returns the number of attempted pairs
func (r *ExecutionReport) Total() int {
	return r.SuccessCount + r.FailureCount
}
