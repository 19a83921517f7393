package workflow

import (
	"fmt"
	"regexp"

	"orderflow/internal/pkg/errs"
)

// StatusCode is an order's position in a workflow graph. Codes are defined by
// templates; the constants below are the codes used by DefaultTemplate and the
// built-in screens.
type StatusCode string

// Phase groups statuses into the coarse stage shown on dashboards.
type Phase string

const (
	StatusReceived       StatusCode = "RECEIVED"
	StatusPreparing      StatusCode = "PREPARING"
	StatusInProcess      StatusCode = "IN_PROCESS"
	StatusAssembly       StatusCode = "ASSEMBLY"
	StatusQAPending      StatusCode = "QA_PENDING"
	StatusPacking        StatusCode = "PACKING"
	StatusReady          StatusCode = "READY"
	StatusOutForDelivery StatusCode = "OUT_FOR_DELIVERY"
	StatusDelivered      StatusCode = "DELIVERED"
	StatusCancelled      StatusCode = "CANCELLED"
)

const (
	PhaseIntake      Phase = "intake"
	PhasePreparation Phase = "preparation"
	PhaseProcessing  Phase = "processing"
	PhaseAssembly    Phase = "assembly"
	PhaseQA          Phase = "qa"
	PhasePacking     Phase = "packing"
	PhaseRelease     Phase = "release"
	PhaseDelivery    Phase = "delivery"
	PhaseClosed      Phase = "closed"
)

var codePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{0,63}$`)

// Validate checks the code is upper snake case, as stored by templates.
func (s StatusCode) Validate() error {
	if s == "" {
		return errs.NewValueIsRequiredError("status")
	}
	if !codePattern.MatchString(string(s)) {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not an upper snake case code", string(s)))
	}
	return nil
}

func (s StatusCode) String() string {
	return string(s)
}

func (p Phase) String() string {
	return string(p)
}
