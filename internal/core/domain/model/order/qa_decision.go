package order

import (
	"fmt"

	"orderflow/internal/pkg/errs"
)

// QADecision is the outcome of the quality check screen.
type QADecision string

const (
	QAPending QADecision = ""
	QAPassed  QADecision = "passed"
	QAFailed  QADecision = "failed"
)

// ParseQADecision converts user input into a QADecision. The empty string maps to QAPending.
func ParseQADecision(s string) (QADecision, error) {
	switch d := QADecision(s); d {
	case QAPending, QAPassed, QAFailed:
		return d, nil
	default:
		return QAPending, errs.NewValueIsInvalidErrorWithCause("qaDecision", fmt.Errorf("%q is not one of passed, failed", s))
	}
}

// IsRecorded reports whether a decision was made.
func (d QADecision) IsRecorded() bool {
	return d != QAPending
}

func (d QADecision) String() string {
	return string(d)
}
