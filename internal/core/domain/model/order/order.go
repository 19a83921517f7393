package order

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/workflow"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrOrderIsInactive is returned when a deactivated order is asked to move.
	ErrOrderIsInactive = errors.New("order is inactive")
)

// Counters hold the item progress facts that screen pre-conditions read.
type Counters struct {
	TotalItems     int
	ScannedItems   int
	ExceptionItems int
}

// RetailLine is a stock keeping unit sold with the order. Retail lines are
// deducted from tenant stock by the deduct_stock effect.
type RetailLine struct {
	SKU      string
	Quantity int
}

// Order is the aggregate root moved through a tenant's workflow graph.
//
// Order follows these invariants:
//   - Belongs to exactly one tenant and one template version
//   - Version starts at 1 and grows by one per accepted transition
//   - 0 <= scanned items <= total items, 0 <= exception items <= total items
//   - Can only be created through NewOrder or RestoreOrder
type Order struct {
	id       kernel.UUID
	tenantID kernel.UUID
	template workflow.Ref

	status  workflow.StatusCode
	phase   workflow.Phase
	version int64

	counters    Counters
	qaDecision  QADecision
	retailLines []RetailLine

	active    bool
	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewOrder registers an order at the given initial stage of its template.
//
// Parameters:
//   - id, tenantID: valid identifiers
//   - template: the template version the order is pinned to
//   - initial: the template's initial stage
//   - totalItems: number of garments to process, at least 1
//   - retailLines: optional retail items with positive quantities
//
// Example:
//
//	o, err := order.NewOrder(id, tenantID, tpl.Ref(), tpl.InitialStage(), 3, nil, time.Now())
func NewOrder(
	id, tenantID kernel.UUID,
	template workflow.Ref,
	initial workflow.Stage,
	totalItems int,
	retailLines []RetailLine,
	now time.Time,
) (*Order, error) {
	o := &Order{
		template:      template,
		status:        initial.Code,
		phase:         initial.Phase,
		version:       1,
		active:        true,
		createdAt:     now.UTC(),
		updatedAt:     now.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setIDs(id, tenantID),
		o.setTemplate(template),
		initial.Code.Validate(),
		o.setTotalItems(totalItems),
		o.setRetailLines(retailLines),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Snapshot is the full persisted state of an order.
type Snapshot struct {
	ID          kernel.UUID
	TenantID    kernel.UUID
	Template    workflow.Ref
	Status      workflow.StatusCode
	Phase       workflow.Phase
	Version     int64
	Counters    Counters
	QADecision  QADecision
	RetailLines []RetailLine
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RestoreOrder rebuilds an order from persistence. The counter invariants are
// checked again so a corrupted row cannot enter the engine.
func RestoreOrder(s Snapshot) (*Order, error) {
	if s.Version < 1 {
		return nil, errs.NewVersionIsInvalidError("order version", fmt.Errorf("%d is less than 1", s.Version))
	}

	o := &Order{
		status:        s.Status,
		phase:         s.Phase,
		version:       s.Version,
		qaDecision:    s.QADecision,
		active:        s.Active,
		createdAt:     s.CreatedAt.UTC(),
		updatedAt:     s.UpdatedAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setIDs(s.ID, s.TenantID),
		o.setTemplate(s.Template),
		s.Status.Validate(),
		o.setTotalItems(s.Counters.TotalItems),
		o.setRetailLines(s.RetailLines),
	); err != nil {
		return nil, err
	}
	if err := o.setProgress(s.Counters.ScannedItems, s.Counters.ExceptionItems); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// Snapshot exports the current state.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:          o.id,
		TenantID:    o.tenantID,
		Template:    o.template,
		Status:      o.status,
		Phase:       o.phase,
		Version:     o.version,
		Counters:    o.counters,
		QADecision:  o.qaDecision,
		RetailLines: o.RetailLines(),
		Active:      o.active,
		CreatedAt:   o.createdAt,
		UpdatedAt:   o.updatedAt,
	}
}

// Clone returns an independent copy of the order.
func (o *Order) Clone() *Order {
	c := *o
	c.retailLines = o.RetailLines()
	return &c
}

func (o *Order) ID() kernel.UUID             { return o.id }
func (o *Order) TenantID() kernel.UUID       { return o.tenantID }
func (o *Order) Template() workflow.Ref      { return o.template }
func (o *Order) Status() workflow.StatusCode { return o.status }
func (o *Order) Phase() workflow.Phase       { return o.phase }
func (o *Order) Version() int64              { return o.version }
func (o *Order) Counters() Counters          { return o.counters }
func (o *Order) QADecision() QADecision      { return o.qaDecision }
func (o *Order) IsActive() bool              { return o.active }
func (o *Order) CreatedAt() time.Time        { return o.createdAt }
func (o *Order) UpdatedAt() time.Time        { return o.updatedAt }

// RetailLines returns a copy of the retail lines.
func (o *Order) RetailLines() []RetailLine {
	return append([]RetailLine(nil), o.retailLines...)
}

// AllItemsScanned reports whether every item of the order has been scanned.
func (o *Order) AllItemsScanned() bool {
	return o.counters.ScannedItems == o.counters.TotalItems
}

// ApplyTransition moves the order to the target stage and bumps its version.
// Graph legality is the validator's concern; this method only guards the
// aggregate's own state.
func (o *Order) ApplyTransition(to workflow.Stage, now time.Time) error {
	if !o.active {
		return errs.NewValueIsInvalidErrorWithCause("order", ErrOrderIsInactive)
	}
	if err := to.Code.Validate(); err != nil {
		return err
	}

	o.status = to.Code
	o.phase = to.Phase
	o.version++
	o.updatedAt = now.UTC()
	return nil
}

// RecordScan counts one more scanned item.
func (o *Order) RecordScan(now time.Time) error {
	if o.counters.ScannedItems >= o.counters.TotalItems {
		return errs.NewValueIsOutOfRangeError("scannedItems", o.counters.ScannedItems+1, 0, o.counters.TotalItems)
	}
	o.counters.ScannedItems++
	o.updatedAt = now.UTC()
	return nil
}

// RaiseExceptions flags n items as having an unresolved exception.
func (o *Order) RaiseExceptions(n int, now time.Time) error {
	if n < 0 {
		return errs.NewValueIsInvalidErrorWithCause("exceptionsRaised", fmt.Errorf("%d is negative", n))
	}
	next := o.counters.ExceptionItems + n
	if next > o.counters.TotalItems {
		return errs.NewValueIsOutOfRangeError("exceptionItems", next, 0, o.counters.TotalItems)
	}
	o.counters.ExceptionItems = next
	o.updatedAt = now.UTC()
	return nil
}

// ResolveExceptions clears n unresolved exceptions.
func (o *Order) ResolveExceptions(n int, now time.Time) error {
	if n < 0 {
		return errs.NewValueIsInvalidErrorWithCause("exceptionsResolved", fmt.Errorf("%d is negative", n))
	}
	next := o.counters.ExceptionItems - n
	if next < 0 {
		return errs.NewValueIsOutOfRangeError("exceptionItems", next, 0, o.counters.TotalItems)
	}
	o.counters.ExceptionItems = next
	o.updatedAt = now.UTC()
	return nil
}

// RecordQADecision stores the quality check outcome. A new decision replaces
// the previous one so rework loops can be checked again.
func (o *Order) RecordQADecision(d QADecision, now time.Time) {
	o.qaDecision = d
	o.updatedAt = now.UTC()
}

// Deactivate takes the order out of circulation. It is idempotent.
func (o *Order) Deactivate(now time.Time) {
	if !o.active {
		return
	}
	o.active = false
	o.updatedAt = now.UTC()
}

func (o *Order) setIDs(id, tenantID kernel.UUID) error {
	if err := errors.Join(id.Validate(), tenantID.Validate()); err != nil {
		return err
	}
	o.id = id
	o.tenantID = tenantID
	return nil
}

func (o *Order) setTemplate(ref workflow.Ref) error {
	if err := ref.TemplateID.Validate(); err != nil {
		return err
	}
	if ref.Version < 1 {
		return errs.NewVersionIsInvalidError("template version", fmt.Errorf("%d is less than 1", ref.Version))
	}
	o.template = ref
	return nil
}

func (o *Order) setTotalItems(total int) error {
	if total <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("totalItems", fmt.Errorf("%d is not greater than 0", total))
	}
	o.counters.TotalItems = total
	return nil
}

func (o *Order) setProgress(scanned, exceptions int) error {
	total := o.counters.TotalItems
	if scanned < 0 || scanned > total {
		return errs.NewValueIsOutOfRangeError("scannedItems", scanned, 0, total)
	}
	if exceptions < 0 || exceptions > total {
		return errs.NewValueIsOutOfRangeError("exceptionItems", exceptions, 0, total)
	}
	o.counters.ScannedItems = scanned
	o.counters.ExceptionItems = exceptions
	return nil
}

func (o *Order) setRetailLines(lines []RetailLine) error {
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.SKU == "" {
			return errs.NewValueIsRequiredError("retail line sku")
		}
		if l.Quantity <= 0 {
			return errs.NewValueIsInvalidErrorWithCause("retail line quantity",
				fmt.Errorf("%s: %d is not greater than 0", l.SKU, l.Quantity))
		}
		if _, dup := seen[l.SKU]; dup {
			return errs.NewValueIsInvalidErrorWithCause("retail lines", fmt.Errorf("duplicate sku %s", l.SKU))
		}
		seen[l.SKU] = struct{}{}
	}
	o.retailLines = append([]RetailLine(nil), lines...)
	return nil
}
