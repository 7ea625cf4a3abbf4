package booking

import "fmt"

// CommitError reports a failed attempt to write the appointment. The
// session keeps its selected slot, so the same commit can be retried.
type CommitError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *CommitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

func NewCommitError(msg string, err error) error {
	return &CommitError{
		Code:      "commitError",
		Message:   msg,
		Retryable: true,
		Err:       err,
	}
}
