package workflow

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
)

// DefaultTemplateCode names the garment processing workflow installed for new tenants.
const DefaultTemplateCode = "garment-standard"

// DefaultDefinition returns the stages and transitions of the standard garment
// workflow: intake, preparation, processing, assembly, quality check, packing,
// release and delivery, with cancellation allowed before processing starts.
func DefaultDefinition() ([]Stage, []Transition) {
	stages := []Stage{
		{Code: StatusReceived, Phase: PhaseIntake, Sequence: 10},
		{Code: StatusPreparing, Phase: PhasePreparation, Sequence: 20},
		{Code: StatusInProcess, Phase: PhaseProcessing, Sequence: 30},
		{Code: StatusAssembly, Phase: PhaseAssembly, Sequence: 40},
		{Code: StatusQAPending, Phase: PhaseQA, Sequence: 50},
		{Code: StatusPacking, Phase: PhasePacking, Sequence: 60},
		{Code: StatusReady, Phase: PhaseRelease, Sequence: 70},
		{Code: StatusOutForDelivery, Phase: PhaseDelivery, Sequence: 80},
		{Code: StatusDelivered, Phase: PhaseClosed, Sequence: 90, Terminal: true},
		{Code: StatusCancelled, Phase: PhaseClosed, Sequence: 100, Terminal: true},
	}

	transitions := []Transition{
		{
			From: StatusReceived, To: StatusPreparing, AllowManual: true,
			PreConditions: []string{"items_present"},
			Effects:       []Effect{EffectDeductStock},
		},
		{
			From: StatusReceived, To: StatusInProcess, AllowManual: true,
			PreConditions: []string{"all_items_scanned"},
			Effects:       []Effect{EffectDeductStock},
		},
		{
			From: StatusPreparing, To: StatusInProcess, AllowManual: true,
			RequiresScanOK: true,
			PreConditions:  []string{"all_items_scanned"},
		},
		{
			From: StatusInProcess, To: StatusAssembly, AllowManual: true,
			PreConditions: []string{"no_unresolved_exceptions"},
		},
		{
			From: StatusInProcess, To: StatusQAPending, AllowManual: true,
			PreConditions: []string{"no_unresolved_exceptions"},
		},
		{
			From: StatusAssembly, To: StatusQAPending, AllowManual: true, AutoWhenDone: true,
			PreConditions: []string{"no_unresolved_exceptions"},
		},
		{
			From: StatusQAPending, To: StatusPacking, AllowManual: true,
			PreConditions: []string{"qa_passed"},
		},
		{
			From: StatusQAPending, To: StatusInProcess, AllowManual: true,
		},
		{
			From: StatusPacking, To: StatusReady, AllowManual: true,
			RequiresScanOK: true,
			Effects:        []Effect{EffectCreatePackingList},
		},
		{
			From: StatusReady, To: StatusOutForDelivery, AllowManual: true,
			RequiresInvoice: true,
			Effects:         []Effect{EffectCreateDeliveryVoucher, EffectNotifyCustomer},
		},
		{
			From: StatusOutForDelivery, To: StatusDelivered, AllowManual: true,
			RequiresPOD: true,
			Effects:     []Effect{EffectNotifyCustomer, EffectDispatchWebhook},
		},
		{
			From: StatusReceived, To: StatusCancelled, AllowManual: true,
			Effects: []Effect{EffectNotifyCustomer},
		},
		{
			From: StatusPreparing, To: StatusCancelled, AllowManual: true,
			Effects: []Effect{EffectNotifyCustomer},
		},
	}

	return stages, transitions
}

// DefaultTemplate builds version 1 of the standard garment workflow for a tenant.
func DefaultTemplate(id, tenantID kernel.UUID, createdAt time.Time) (Template, error) {
	stages, transitions := DefaultDefinition()
	return NewTemplate(id, tenantID, DefaultTemplateCode, 1, stages, transitions, createdAt)
}
