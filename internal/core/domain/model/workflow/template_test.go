package workflow_test

import (
	"testing"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultTemplate(t *testing.T) workflow.Template {
	t.Helper()
	tpl, err := workflow.DefaultTemplate(kernel.NewUUID(), kernel.NewUUID(), time.Now())
	require.NoError(t, err)
	return tpl
}

func TestDefaultTemplate_IsValid(t *testing.T) {
	tpl := newDefaultTemplate(t)

	require.NoError(t, tpl.Validate())
	assert.Equal(t, 1, tpl.Version())
	assert.Equal(t, workflow.StatusReceived, tpl.InitialStage().Code)
	assert.Equal(t, workflow.DefaultTemplateCode, tpl.Code())
}

func TestTemplate_IsTransitionAllowed(t *testing.T) {
	tpl := newDefaultTemplate(t)

	t.Run("registered edge", func(t *testing.T) {
		ok, err := tpl.IsTransitionAllowed(workflow.StatusReceived, workflow.StatusInProcess)

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unregistered edge", func(t *testing.T) {
		ok, err := tpl.IsTransitionAllowed(workflow.StatusReceived, workflow.StatusDelivered)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown from stage", func(t *testing.T) {
		_, err := tpl.IsTransitionAllowed("ARCHIVED", workflow.StatusDelivered)

		require.ErrorIs(t, err, errs.ErrUnknownStage)
	})

	t.Run("unknown to stage", func(t *testing.T) {
		_, err := tpl.IsTransitionAllowed(workflow.StatusReceived, "ARCHIVED")

		require.ErrorIs(t, err, errs.ErrUnknownStage)
	})
}

func TestTemplate_EveryUnregisteredPairIsRejected(t *testing.T) {
	tpl := newDefaultTemplate(t)
	registered := map[[2]workflow.StatusCode]bool{}
	for _, tr := range tpl.Transitions() {
		registered[[2]workflow.StatusCode{tr.From, tr.To}] = true
	}

	for _, from := range tpl.Stages() {
		for _, to := range tpl.Stages() {
			ok, err := tpl.IsTransitionAllowed(from.Code, to.Code)
			require.NoError(t, err)
			assert.Equal(t, registered[[2]workflow.StatusCode{from.Code, to.Code}], ok, "%s -> %s", from.Code, to.Code)
		}
	}
}

func TestTemplate_TransitionsAreCopies(t *testing.T) {
	tpl := newDefaultTemplate(t)

	edge, ok := tpl.Transition(workflow.StatusReceived, workflow.StatusInProcess)
	require.True(t, ok)
	edge.PreConditions[0] = "mutated"
	edge.Effects[0] = workflow.EffectDispatchWebhook

	again, _ := tpl.Transition(workflow.StatusReceived, workflow.StatusInProcess)
	assert.Equal(t, []string{"all_items_scanned"}, again.PreConditions)
	assert.Equal(t, []workflow.Effect{workflow.EffectDeductStock}, again.Effects)
}

func TestTemplate_OutgoingAndAuto(t *testing.T) {
	tpl := newDefaultTemplate(t)

	outgoing := tpl.Outgoing(workflow.StatusQAPending)
	require.Len(t, outgoing, 2)
	assert.Equal(t, workflow.StatusPacking, outgoing[0].To)
	assert.Equal(t, workflow.StatusInProcess, outgoing[1].To)

	auto := tpl.AutoTransitions()
	require.Len(t, auto, 1)
	assert.Equal(t, workflow.StatusAssembly, auto[0].From)
}

func TestNewTemplate_Rejects(t *testing.T) {
	id, tenant := kernel.NewUUID(), kernel.NewUUID()
	stages := []workflow.Stage{
		{Code: "A", Sequence: 1},
		{Code: "B", Sequence: 2, Terminal: true},
	}

	testCases := []struct {
		name        string
		version     int
		stages      []workflow.Stage
		transitions []workflow.Transition
		target      error
	}{
		{"zero version", 0, stages, nil, errs.ErrVersionIsInvalid},
		{"no stages", 1, nil, nil, errs.ErrValueIsRequired},
		{"duplicate stage", 1, []workflow.Stage{{Code: "A", Sequence: 1}, {Code: "A", Sequence: 2}}, nil, errs.ErrValueIsInvalid},
		{"duplicate sequence", 1, []workflow.Stage{{Code: "A", Sequence: 1}, {Code: "B", Sequence: 1}}, nil, errs.ErrValueIsInvalid},
		{"lower case code", 1, []workflow.Stage{{Code: "a", Sequence: 1}}, nil, errs.ErrValueIsInvalid},
		{"edge to unknown stage", 1, stages, []workflow.Transition{{From: "A", To: "C"}}, errs.ErrUnknownStage},
		{"edge out of terminal", 1, stages, []workflow.Transition{{From: "B", To: "A"}}, errs.ErrValueIsInvalid},
		{"duplicate edge", 1, stages, []workflow.Transition{{From: "A", To: "B"}, {From: "A", To: "B"}}, errs.ErrValueIsInvalid},
		{"unknown effect", 1, stages, []workflow.Transition{{From: "A", To: "B", Effects: []workflow.Effect{"fax"}}}, errs.ErrValueIsInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := workflow.NewTemplate(id, tenant, "custom", tc.version, tc.stages, tc.transitions, time.Now())

			require.ErrorIs(t, err, tc.target)
		})
	}
}

func TestTemplate_ZeroValueIsNotConstructed(t *testing.T) {
	var tpl workflow.Template

	require.ErrorIs(t, tpl.Validate(), workflow.ErrTemplateIsNotConstructed)
}

func TestEffect_Outboxed(t *testing.T) {
	assert.True(t, workflow.EffectNotifyCustomer.Outboxed())
	assert.True(t, workflow.EffectDispatchWebhook.Outboxed())
	assert.False(t, workflow.EffectDeductStock.Outboxed())
	assert.False(t, workflow.EffectCreatePackingList.Outboxed())
}
