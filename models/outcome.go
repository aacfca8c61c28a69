package models

import "time"

// OutcomeKind tags the variant held by a TerminalOutcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeFailure
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// TerminalOutcome ends a job's poll loop. Exactly one is produced per booking attempt.
// Only the fields of the tagged variant are meaningful.
type TerminalOutcome struct {
	Kind    OutcomeKind
	Result  *BookingResult // OutcomeSuccess
	Reason  string         // OutcomeFailure
	Elapsed time.Duration  // OutcomeTimeout
}

func Succeeded(result BookingResult) TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeSuccess, Result: &result}
}

func Failed(reason string) TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeFailure, Reason: reason}
}

func TimedOut(elapsed time.Duration) TerminalOutcome {
	return TerminalOutcome{Kind: OutcomeTimeout, Elapsed: elapsed}
}

// ElapsedMs is the timeout duration in milliseconds.
func (o TerminalOutcome) ElapsedMs() int64 {
	return o.Elapsed.Milliseconds()
}
