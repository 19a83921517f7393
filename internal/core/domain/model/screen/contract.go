package screen

import (
	"errors"
	"fmt"
	"slices"

	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
)

// Key identifies a screen.
type Key string

const (
	Intake         Key = "intake"
	Preparation    Key = "preparation"
	Processing     Key = "processing"
	Assembly       Key = "assembly"
	QA             Key = "qa"
	Packing        Key = "packing"
	ReadyRelease   Key = "ready_release"
	DriverDelivery Key = "driver_delivery"
	Cancellation   Key = "cancellation"

	// Auto is used by the auto-advance job. Its permission is not granted to
	// any role by default.
	Auto Key = "auto"
)

// Keys lists the built-in screens.
func Keys() []Key {
	return []Key{Intake, Preparation, Processing, Assembly, QA, Packing, ReadyRelease, DriverDelivery, Cancellation, Auto}
}

func (k Key) String() string {
	return string(k)
}

// Rule is a pre-condition a screen enforces, optionally limited to some targets.
type Rule struct {
	Code      string
	AppliesTo []workflow.StatusCode
}

func (r Rule) appliesTo(target workflow.StatusCode) bool {
	return len(r.AppliesTo) == 0 || slices.Contains(r.AppliesTo, target)
}

// Contract is the static description of what a screen requires before it may
// move an order.
type Contract struct {
	Key                 Key
	RequiredPermissions []string
	PreConditions       []Rule
	// FixedTarget is set for single-destination screens. Screens without it
	// take the target status from the caller.
	FixedTarget workflow.StatusCode
}

// Validate checks the contract against a predicate registry.
func (c Contract) Validate(registry *Registry) error {
	if c.Key == "" {
		return errs.NewValueIsRequiredError("screen key")
	}
	if c.FixedTarget != "" {
		if err := c.FixedTarget.Validate(); err != nil {
			return err
		}
	}

	var problems []error
	for _, p := range c.RequiredPermissions {
		if p == "" {
			problems = append(problems, errs.NewValueIsRequiredError("permission"))
		}
	}
	for _, r := range c.PreConditions {
		if !registry.Has(r.Code) {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("pre-condition",
				fmt.Errorf("screen %s references unknown pre-condition %s", c.Key, r.Code)))
		}
	}
	return errors.Join(problems...)
}

// PreConditionsFor returns the codes that apply when moving to target, in declaration order.
func (c Contract) PreConditionsFor(target workflow.StatusCode) []string {
	var out []string
	for _, r := range c.PreConditions {
		if r.appliesTo(target) {
			out = append(out, r.Code)
		}
	}
	return out
}

// IsMultiDestination reports whether the caller chooses the target.
func (c Contract) IsMultiDestination() bool {
	return c.FixedTarget == ""
}

// DefaultContracts returns the contracts of the built-in screens.
func DefaultContracts() []Contract {
	return []Contract{
		{
			Key:                 Intake,
			RequiredPermissions: []string{"orders.intake"},
			PreConditions:       []Rule{{Code: ItemsPresent}},
			FixedTarget:         workflow.StatusPreparing,
		},
		{
			Key:                 Preparation,
			RequiredPermissions: []string{"orders.prepare"},
			PreConditions:       []Rule{{Code: ItemsPresent}},
			FixedTarget:         workflow.StatusInProcess,
		},
		{
			Key:                 Processing,
			RequiredPermissions: []string{"orders.process"},
			PreConditions: []Rule{
				{Code: NoUnresolvedExceptions, AppliesTo: []workflow.StatusCode{workflow.StatusAssembly, workflow.StatusQAPending}},
			},
		},
		{
			Key:                 Assembly,
			RequiredPermissions: []string{"orders.assemble"},
			PreConditions:       []Rule{{Code: NoUnresolvedExceptions}},
			FixedTarget:         workflow.StatusQAPending,
		},
		{
			Key:                 QA,
			RequiredPermissions: []string{"orders.qa"},
			PreConditions:       []Rule{{Code: QADecisionRecorded}},
		},
		{
			Key:                 Packing,
			RequiredPermissions: []string{"orders.pack"},
			PreConditions:       []Rule{{Code: NoUnresolvedExceptions}},
			FixedTarget:         workflow.StatusReady,
		},
		{
			Key:                 ReadyRelease,
			RequiredPermissions: []string{"orders.release"},
			PreConditions:       []Rule{{Code: NoUnresolvedExceptions}},
			FixedTarget:         workflow.StatusOutForDelivery,
		},
		{
			Key:                 DriverDelivery,
			RequiredPermissions: []string{"orders.deliver"},
			FixedTarget:         workflow.StatusDelivered,
		},
		{
			Key:                 Cancellation,
			RequiredPermissions: []string{"orders.cancel"},
			FixedTarget:         workflow.StatusCancelled,
		},
		{
			Key:                 Auto,
			RequiredPermissions: []string{"orders.automate"},
		},
	}
}
