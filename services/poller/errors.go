package poller

import "fmt"

// Error codes carried by PollerError.
const (
	CodeSubmissionFailed = "submissionFailed"
	CodePollTransport    = "pollTransport"
)

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrSubmissionFailed = &PollerError{Code: CodeSubmissionFailed, Message: "upstream submission failed"}
	ErrPollTransport    = &PollerError{Code: CodePollTransport, Message: "job status read failed"}
)

type PollerError struct {
	Code    string
	Message string
	Err     error
}

func (e *PollerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PollerError) Unwrap() error {
	return e.Err
}

func (e *PollerError) Is(target error) bool {
	t, ok := target.(*PollerError)
	return ok && t.Code == e.Code
}

func newSubmissionError(msg string, err error) error {
	return &PollerError{Code: CodeSubmissionFailed, Message: msg, Err: err}
}

func newTransportError(msg string, err error) error {
	return &PollerError{Code: CodePollTransport, Message: msg, Err: err}
}
