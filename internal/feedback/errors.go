package feedback

import (
	"errors"
	"fmt"
)

// Kind is a machine-checkable error category carried by every caller-visible
// failure of the feedback pipeline.
type Kind string

const (
	KindTimerNotFound        Kind = "timer_not_found"
	KindGoalNotFound         Kind = "goal_not_found"
	KindStudyTimeTooShort    Kind = "study_time_too_short"
	KindRateLimitExceeded    Kind = "rate_limit_exceeded"
	KindAIServiceUnavailable Kind = "ai_service_unavailable"
	KindFeedbackNotGenerated Kind = "feedback_not_generated"
)

// Error is a recoverable, caller-visible failure with a human message and a
// stable kind. Internal causes stay wrapped and are never shown to callers.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind from err, or "" for non-pipeline errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func errTimerNotFound(id string) *Error {
	return newError(KindTimerNotFound, fmt.Sprintf("timer record %s not found", id), nil)
}

func errStudyTimeTooShort(actual, minimum int) *Error {
	return newError(KindStudyTimeTooShort,
		fmt.Sprintf("study time too short for feedback: %ds (minimum %ds)", actual, minimum), nil)
}

func errRateLimitExceeded(current, max int) *Error {
	return newError(KindRateLimitExceeded,
		fmt.Sprintf("AI request rate limit exceeded: %d/%d in the last minute, retry later", current, max), nil)
}

func errFeedbackNotGenerated(id string) *Error {
	return newError(KindFeedbackNotGenerated,
		fmt.Sprintf("no AI feedback has been generated for timer record %s", id), nil)
}
