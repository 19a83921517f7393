package services_test

import (
	"errors"
	"testing"
	"time"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	tpl       workflow.Template
	contracts map[screen.Key]screen.Contract
	validator services.TransitionValidator
	operator  kernel.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	tpl, err := workflow.DefaultTemplate(kernel.NewUUID(), kernel.NewUUID(), time.Now())
	require.NoError(t, err)

	contracts := make(map[screen.Key]screen.Contract)
	for _, c := range screen.DefaultContracts() {
		contracts[c.Key] = c
	}

	operator, err := kernel.NewHumanActor("operator-1")
	require.NoError(t, err)

	return fixture{
		tpl:       tpl,
		contracts: contracts,
		validator: services.NewTransitionValidator(screen.NewRegistry()),
		operator:  operator,
	}
}

func (f fixture) orderAt(t *testing.T, status workflow.StatusCode, total int) *order.Order {
	t.Helper()
	stage, ok := f.tpl.Stage(status)
	require.True(t, ok)
	o, err := order.NewOrder(kernel.NewUUID(), f.tpl.TenantID(), f.tpl.Ref(), stage, total, nil, time.Now())
	require.NoError(t, err)
	return o
}

func (f fixture) input(o *order.Order, key screen.Key, to workflow.StatusCode) services.ValidationInput {
	return services.ValidationInput{
		Template:  f.tpl,
		Contract:  f.contracts[key],
		Order:     o,
		ToStatus:  to,
		Actor:     f.operator,
		Artifacts: services.ArtifactSet{},
	}
}

func TestValidate_StaleStateComesFirst(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusReceived, 3)
	in := f.input(o, screen.Processing, workflow.StatusDelivered)
	in.FromStatus = workflow.StatusPreparing

	_, err := f.validator.Validate(in)

	var stale *errs.StaleStateError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "PREPARING", stale.Expected)
	assert.Equal(t, "RECEIVED", stale.Actual)
}

func TestValidate_IllegalAndUnknown(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusReceived, 3)

	_, err := f.validator.Validate(f.input(o, screen.Processing, workflow.StatusDelivered))
	require.ErrorIs(t, err, errs.ErrIllegalTransition)

	_, err = f.validator.Validate(f.input(o, screen.Processing, "ARCHIVED"))
	require.ErrorIs(t, err, errs.ErrUnknownStage)
}

func TestValidate_SingleDestinationScreenOnlyReachesItsTarget(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusPacking, 1)
	require.NoError(t, o.RaiseExceptions(1, time.Now()))

	_, err := f.validator.Validate(f.input(o, screen.DriverDelivery, workflow.StatusReady))

	var illegal *errs.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "screen driver_delivery only moves orders to DELIVERED", illegal.Reason)

	_, err = f.validator.Validate(f.input(o, screen.Packing, workflow.StatusReady))
	require.ErrorIs(t, err, errs.ErrPreConditionNotMet)
}

func TestValidate_CancellationScreen(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusReceived, 1)

	res, err := f.validator.Validate(f.input(o, screen.Cancellation, workflow.StatusCancelled))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCancelled, res.Stage.Code)

	_, err = f.validator.Validate(f.input(o, screen.Intake, workflow.StatusCancelled))
	require.ErrorIs(t, err, errs.ErrIllegalTransition)
}

func TestValidate_ManualEdgeCheck(t *testing.T) {
	f := newFixture(t)
	stages := []workflow.Stage{{Code: "A", Sequence: 1}, {Code: "B", Sequence: 2}}
	tpl, err := workflow.NewTemplate(kernel.NewUUID(), kernel.NewUUID(), "auto-only", 1, stages,
		[]workflow.Transition{{From: "A", To: "B", AutoWhenDone: true}}, time.Now())
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), tpl.TenantID(), tpl.Ref(), stages[0], 1, nil, time.Now())
	require.NoError(t, err)

	in := services.ValidationInput{Template: tpl, Contract: screen.Contract{Key: "custom"}, Order: o, ToStatus: "B", Actor: f.operator}

	_, err = f.validator.Validate(in)
	var illegal *errs.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "manual transition not allowed", illegal.Reason)

	in.Actor = kernel.SystemActor()
	_, err = f.validator.Validate(in)
	require.NoError(t, err)
}

func TestValidate_InactiveOrder(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusReceived, 1)
	o.Deactivate(time.Now())

	_, err := f.validator.Validate(f.input(o, screen.Intake, workflow.StatusPreparing))

	var illegal *errs.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "order is inactive", illegal.Reason)
}

func TestValidate_PreConditionGating(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusReceived, 3)
	require.NoError(t, o.RecordScan(time.Now()))
	require.NoError(t, o.RecordScan(time.Now()))

	_, err := f.validator.Validate(f.input(o, screen.Processing, workflow.StatusInProcess))

	var unmet *errs.PreConditionNotMetError
	require.ErrorAs(t, err, &unmet)
	assert.Equal(t, screen.AllItemsScanned, unmet.PreCondition)
	assert.Equal(t, "scanned_items != total_items", unmet.Reason)

	require.NoError(t, o.RecordScan(time.Now()))
	res, err := f.validator.Validate(f.input(o, screen.Processing, workflow.StatusInProcess))
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProcess, res.Stage.Code)
	assert.Equal(t, []workflow.Effect{workflow.EffectDeductStock}, res.Transition.Effects)
}

func TestValidate_ScreenPreConditionsBeforeEdgeAndDeduplicated(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusInProcess, 2)
	require.NoError(t, o.RaiseExceptions(1, time.Now()))

	contract := screen.Contract{
		Key: screen.Processing,
		PreConditions: []screen.Rule{
			{Code: screen.AllItemsScanned},
			{Code: screen.NoUnresolvedExceptions},
		},
	}
	in := f.input(o, screen.Processing, workflow.StatusAssembly)
	in.Contract = contract

	_, err := f.validator.Validate(in)
	var unmet *errs.PreConditionNotMetError
	require.ErrorAs(t, err, &unmet)
	assert.Equal(t, screen.AllItemsScanned, unmet.PreCondition)

	require.NoError(t, o.RecordScan(time.Now()))
	require.NoError(t, o.RecordScan(time.Now()))
	in.Input = screen.Input{screen.InputExceptionsResolved: 1}

	res, err := f.validator.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, []string{screen.AllItemsScanned, screen.NoUnresolvedExceptions}, res.PreConditions)
}

func TestValidate_QADecisionFromInput(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusQAPending, 1)

	_, err := f.validator.Validate(f.input(o, screen.QA, workflow.StatusPacking))
	require.ErrorIs(t, err, errs.ErrPreConditionNotMet)

	in := f.input(o, screen.QA, workflow.StatusPacking)
	in.Input = screen.Input{screen.InputQADecision: "failed"}
	_, err = f.validator.Validate(in)
	var unmet *errs.PreConditionNotMetError
	require.ErrorAs(t, err, &unmet)
	assert.Equal(t, screen.QAPassed, unmet.PreCondition)

	in.Input = screen.Input{screen.InputQADecision: "passed"}
	_, err = f.validator.Validate(in)
	require.NoError(t, err)
}

func TestValidate_ArtifactsInOrder(t *testing.T) {
	f := newFixture(t)
	stages := []workflow.Stage{{Code: "A", Sequence: 1}, {Code: "B", Sequence: 2}}
	tpl, err := workflow.NewTemplate(kernel.NewUUID(), kernel.NewUUID(), "evidence", 1, stages,
		[]workflow.Transition{{From: "A", To: "B", AllowManual: true, RequiresScanOK: true, RequiresPOD: true, RequiresInvoice: true}},
		time.Now())
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), tpl.TenantID(), tpl.Ref(), stages[0], 1, nil, time.Now())
	require.NoError(t, err)

	in := services.ValidationInput{Template: tpl, Contract: screen.Contract{Key: "custom"}, Order: o, ToStatus: "B", Actor: f.operator,
		Artifacts: services.ArtifactSet{}}

	for _, want := range []artifact.Kind{artifact.ScanOK, artifact.POD, artifact.Invoice} {
		_, err = f.validator.Validate(in)
		var missing *errs.MissingArtifactError
		require.True(t, errors.As(err, &missing), "expected missing %s, got %v", want, err)
		assert.Equal(t, want.String(), missing.Kind)
		in.Artifacts[want] = true
	}

	_, err = f.validator.Validate(in)
	require.NoError(t, err)
}

func TestValidate_UnknownPreConditionIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	o := f.orderAt(t, workflow.StatusReceived, 1)
	in := f.input(o, screen.Intake, workflow.StatusPreparing)
	in.Contract.PreConditions = []screen.Rule{{Code: "unregistered"}}

	_, err := f.validator.Validate(in)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.NotErrorIs(t, err, errs.ErrPreConditionNotMet)
}

func TestNewArtifactSet(t *testing.T) {
	a, err := artifact.NewArtifact(kernel.NewUUID(), kernel.NewUUID(), artifact.POD, "sig.png", time.Now())
	require.NoError(t, err)

	set := services.NewArtifactSet([]artifact.Artifact{a})

	assert.True(t, set[artifact.POD])
	assert.False(t, set[artifact.Invoice])
}
