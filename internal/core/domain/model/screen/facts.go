package screen

import (
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/workflow"
)

// Facts is the read-only view predicates evaluate: the order's counters and
// QA state merged with what the request is about to record.
type Facts struct {
	Status         workflow.StatusCode
	Target         workflow.StatusCode
	TotalItems     int
	ScannedItems   int
	ExceptionItems int
	QADecision     order.QADecision
	Input          Input
}

// FactsFor derives facts for moving o to target with the given input.
// A QA decision or exception deltas carried by the input are taken into
// account, so the QA screen can record and pass its decision in one call.
func FactsFor(o *order.Order, target workflow.StatusCode, input Input) (Facts, error) {
	c := o.Counters()
	f := Facts{
		Status:         o.Status(),
		Target:         target,
		TotalItems:     c.TotalItems,
		ScannedItems:   c.ScannedItems,
		ExceptionItems: c.ExceptionItems,
		QADecision:     o.QADecision(),
		Input:          input,
	}

	if raw, ok, err := input.String(InputQADecision); err != nil {
		return Facts{}, err
	} else if ok {
		d, err := order.ParseQADecision(raw)
		if err != nil {
			return Facts{}, err
		}
		f.QADecision = d
	}

	raised, _, err := input.Int(InputExceptionsRaised)
	if err != nil {
		return Facts{}, err
	}
	resolved, _, err := input.Int(InputExceptionsResolved)
	if err != nil {
		return Facts{}, err
	}
	f.ExceptionItems = max(0, f.ExceptionItems+raised-resolved)

	return f, nil
}
