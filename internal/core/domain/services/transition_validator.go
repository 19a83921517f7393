package services

import (
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
)

// ArtifactSet lists the evidence kinds attached to an order.
type ArtifactSet map[artifact.Kind]bool

// NewArtifactSet builds a set from stored artifacts.
func NewArtifactSet(artifacts []artifact.Artifact) ArtifactSet {
	set := make(ArtifactSet, len(artifacts))
	for _, a := range artifacts {
		set[a.Kind] = true
	}
	return set
}

// ValidationInput is everything the validator looks at.
type ValidationInput struct {
	Template workflow.Template
	Contract screen.Contract
	Order    *order.Order
	// FromStatus is the status the caller believes the order is in. Empty
	// means "whatever it is now".
	FromStatus workflow.StatusCode
	ToStatus   workflow.StatusCode
	Actor      kernel.Actor
	Input      screen.Input
	Artifacts  ArtifactSet
}

// ValidationResult describes an accepted transition.
type ValidationResult struct {
	Transition    workflow.Transition
	Stage         workflow.Stage
	Facts         screen.Facts
	PreConditions []string
}

// TransitionValidator is a pure domain service. It runs its checks in a fixed
// order and returns the first failure:
//
//  1. StaleState when FromStatus differs from the order's status
//  2. UnknownStage / IllegalTransition when the edge is not in the template,
//     a single-destination screen is asked for another status, the order is
//     inactive, or a human requests a system-only edge
//  3. PreConditionNotMet for the first failing predicate, screen contract
//     predicates first, then the edge's own, each code evaluated once
//  4. MissingArtifact for scan_ok, pod and invoice, in that order
//
// Example usage:
//
//	v := services.NewTransitionValidator(screen.NewRegistry())
//	res, err := v.Validate(services.ValidationInput{...})
//	var unmet *errs.PreConditionNotMetError
//	if errors.As(err, &unmet) {
//	    // show unmet.Reason to the operator
//	}
type TransitionValidator struct {
	registry *screen.Registry
}

// NewTransitionValidator creates a validator backed by the predicate registry.
func NewTransitionValidator(registry *screen.Registry) TransitionValidator {
	return TransitionValidator{registry: registry}
}

// Validate checks in against the rules above.
func (v TransitionValidator) Validate(in ValidationInput) (ValidationResult, error) {
	if err := errors.Join(in.Template.Validate(), in.Order.Validate()); err != nil {
		return ValidationResult{}, err
	}

	current := in.Order.Status()
	if in.FromStatus != "" && in.FromStatus != current {
		return ValidationResult{}, errs.NewStaleStateError(in.FromStatus.String(), current.String())
	}

	allowed, err := in.Template.IsTransitionAllowed(current, in.ToStatus)
	if err != nil {
		return ValidationResult{}, err
	}
	if !allowed {
		return ValidationResult{}, errs.NewIllegalTransitionError(current.String(), in.ToStatus.String())
	}
	if !in.Contract.IsMultiDestination() && in.ToStatus != in.Contract.FixedTarget {
		return ValidationResult{}, errs.NewIllegalTransitionErrorWithReason(current.String(), in.ToStatus.String(),
			fmt.Sprintf("screen %s only moves orders to %s", in.Contract.Key, in.Contract.FixedTarget))
	}
	edge, _ := in.Template.Transition(current, in.ToStatus)
	stage, _ := in.Template.Stage(in.ToStatus)

	if !in.Order.IsActive() {
		return ValidationResult{}, errs.NewIllegalTransitionErrorWithReason(current.String(), in.ToStatus.String(), "order is inactive")
	}
	if !edge.AllowManual && !in.Actor.IsSystem() {
		return ValidationResult{}, errs.NewIllegalTransitionErrorWithReason(current.String(), in.ToStatus.String(), "manual transition not allowed")
	}

	facts, err := screen.FactsFor(in.Order, in.ToStatus, in.Input)
	if err != nil {
		return ValidationResult{}, err
	}

	codes := mergePreConditions(in.Contract.PreConditionsFor(in.ToStatus), edge.PreConditions)
	for _, code := range codes {
		ok, reason, evalErr := v.registry.Evaluate(code, facts)
		if evalErr != nil {
			return ValidationResult{}, evalErr
		}
		if !ok {
			return ValidationResult{}, errs.NewPreConditionNotMetError(code, reason)
		}
	}

	if err := checkArtifacts(edge, in.Artifacts); err != nil {
		return ValidationResult{}, err
	}

	return ValidationResult{
		Transition:    edge,
		Stage:         stage,
		Facts:         facts,
		PreConditions: codes,
	}, nil
}

func mergePreConditions(screenCodes, edgeCodes []string) []string {
	seen := make(map[string]struct{}, len(screenCodes)+len(edgeCodes))
	out := make([]string, 0, len(screenCodes)+len(edgeCodes))
	for _, list := range [][]string{screenCodes, edgeCodes} {
		for _, c := range list {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func checkArtifacts(edge workflow.Transition, have ArtifactSet) error {
	required := []struct {
		needed bool
		kind   artifact.Kind
	}{
		{edge.RequiresScanOK, artifact.ScanOK},
		{edge.RequiresPOD, artifact.POD},
		{edge.RequiresInvoice, artifact.Invoice},
	}
	for _, r := range required {
		if r.needed && !have[r.kind] {
			return errs.NewMissingArtifactError(r.kind.String())
		}
	}
	return nil
}
