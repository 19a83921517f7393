package cmd

import (
	"testing"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expressWorkflow = `
code: garment-express
stages:
  - {code: RECEIVED, phase: intake, sequence: 10}
  - {code: READY, phase: release, sequence: 20}
  - {code: DELIVERED, phase: closed, sequence: 30, terminal: true}
transitions:
  - from: RECEIVED
    to: READY
    allowManual: true
    requiresScanOk: true
    preConditions: [all_items_scanned]
  - from: READY
    to: DELIVERED
    allowManual: true
    requiresPod: true
    effects: [notify_customer]
`

func TestParseTemplateFile(t *testing.T) {
	tf, err := ParseTemplateFile([]byte(expressWorkflow))
	require.NoError(t, err)

	stages, transitions := tf.Definition()
	tpl, err := workflow.NewTemplate(kernel.NewUUID(), kernel.NewUUID(), tf.Code, 1, stages, transitions, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "garment-express", tpl.Code())
	assert.Equal(t, workflow.StatusReceived, tpl.InitialStage().Code)

	edge, ok := tpl.Transition(workflow.StatusReady, workflow.StatusDelivered)
	require.True(t, ok)
	assert.True(t, edge.RequiresPOD)
	assert.Equal(t, []workflow.Effect{workflow.EffectNotifyCustomer}, edge.Effects)

	edge, ok = tpl.Transition(workflow.StatusReceived, workflow.StatusReady)
	require.True(t, ok)
	assert.True(t, edge.RequiresScanOK)
	assert.Equal(t, []string{"all_items_scanned"}, edge.PreConditions)
}

func TestParseTemplateFile_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseTemplateFile([]byte("code: x\nstatuses: []\n"))

	assert.ErrorContains(t, err, "decode template file")
}

func TestDefaultTemplateFile_BuildsDefaultWorkflow(t *testing.T) {
	tf := DefaultTemplateFile()
	stages, transitions := tf.Definition()

	tpl, err := workflow.NewTemplate(kernel.NewUUID(), kernel.NewUUID(), tf.Code, 1, stages, transitions, time.Now())
	require.NoError(t, err)

	defaultStages, defaultTransitions := workflow.DefaultDefinition()
	assert.Equal(t, workflow.DefaultTemplateCode, tpl.Code())
	assert.Len(t, tpl.Stages(), len(defaultStages))
	assert.Len(t, tpl.Transitions(), len(defaultTransitions))

	edge, ok := tpl.Transition(workflow.StatusReceived, workflow.StatusPreparing)
	require.True(t, ok)
	assert.Contains(t, edge.Effects, workflow.EffectDeductStock)
}
