package workflow

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

// ErrTemplateIsNotConstructed is returned when a Template was not built by NewTemplate.
var ErrTemplateIsNotConstructed = errors.New("Template must be created via NewTemplate constructor")

// Ref points an order at one immutable template version.
type Ref struct {
	TemplateID kernel.UUID
	Version    int
}

func (r Ref) String() string {
	return fmt.Sprintf("%s@v%d", r.TemplateID, r.Version)
}

// Stage is a node of the workflow graph.
type Stage struct {
	Code     StatusCode
	Phase    Phase
	Sequence int
	Terminal bool
}

// Transition is a directed edge of the workflow graph together with its gating
// flags and the side effects it couples to the status change.
type Transition struct {
	From StatusCode
	To   StatusCode

	// AllowManual permits a human actor to request the edge. Edges without it
	// can only be taken by system actors (auto-advance).
	AllowManual bool
	// AutoWhenDone makes the edge eligible for the auto-advance job once its
	// pre-conditions hold.
	AutoWhenDone bool

	RequiresScanOK  bool
	RequiresPOD     bool
	RequiresInvoice bool

	// PreConditions are evaluated after the screen contract's own pre-conditions.
	PreConditions []string
	Effects       []Effect
}

type edgeKey struct {
	from StatusCode
	to   StatusCode
}

// Template is an immutable, versioned workflow definition owned by a tenant.
type Template struct {
	id          kernel.UUID
	tenantID    kernel.UUID
	code        string
	version     int
	stages      []Stage
	transitions []Transition
	createdAt   time.Time

	stageIndex map[StatusCode]int
	edgeIndex  map[edgeKey]int

	guard guard.ConstructorGuard
}

// NewTemplate validates and freezes a workflow definition.
//
// Rules:
//   - version starts at 1
//   - at least one stage; stage codes and sequence numbers are unique
//   - every transition connects two declared stages, at most once
//   - terminal stages have no outgoing transitions
//   - effects are known
//
// Example:
//
//	tpl, err := workflow.NewTemplate(id, tenantID, "garment", 1, stages, transitions, time.Now())
func NewTemplate(
	id, tenantID kernel.UUID,
	code string,
	version int,
	stages []Stage,
	transitions []Transition,
	createdAt time.Time,
) (Template, error) {
	if err := errors.Join(id.Validate(), tenantID.Validate()); err != nil {
		return Template{}, err
	}
	if code == "" {
		return Template{}, errs.NewValueIsRequiredError("template code")
	}
	if version < 1 {
		return Template{}, errs.NewVersionIsInvalidError("template version", fmt.Errorf("%d is less than 1", version))
	}
	if len(stages) == 0 {
		return Template{}, errs.NewValueIsRequiredError("template stages")
	}

	t := Template{
		id:         id,
		tenantID:   tenantID,
		code:       code,
		version:    version,
		createdAt:  createdAt.UTC(),
		stageIndex: make(map[StatusCode]int, len(stages)),
		edgeIndex:  make(map[edgeKey]int, len(transitions)),
		guard:      guard.NewConstructorGuard(),
	}

	t.stages = append([]Stage(nil), stages...)
	sort.SliceStable(t.stages, func(i, j int) bool { return t.stages[i].Sequence < t.stages[j].Sequence })

	sequences := make(map[int]StatusCode, len(stages))
	for i, s := range t.stages {
		if err := s.Code.Validate(); err != nil {
			return Template{}, err
		}
		if _, dup := t.stageIndex[s.Code]; dup {
			return Template{}, errs.NewValueIsInvalidErrorWithCause("template stages", fmt.Errorf("duplicate stage %s", s.Code))
		}
		if other, dup := sequences[s.Sequence]; dup {
			return Template{}, errs.NewValueIsInvalidErrorWithCause("template stages",
				fmt.Errorf("stages %s and %s share sequence %d", other, s.Code, s.Sequence))
		}
		sequences[s.Sequence] = s.Code
		t.stageIndex[s.Code] = i
	}

	for _, tr := range transitions {
		if err := t.addTransition(tr); err != nil {
			return Template{}, err
		}
	}

	return t, nil
}

func (t *Template) addTransition(tr Transition) error {
	from, ok := t.Stage(tr.From)
	if !ok {
		return errs.NewUnknownStageError(tr.From.String())
	}
	if _, ok = t.Stage(tr.To); !ok {
		return errs.NewUnknownStageError(tr.To.String())
	}
	if from.Terminal {
		return errs.NewValueIsInvalidErrorWithCause("template transitions",
			fmt.Errorf("terminal stage %s cannot have outgoing transitions", tr.From))
	}
	key := edgeKey{from: tr.From, to: tr.To}
	if _, dup := t.edgeIndex[key]; dup {
		return errs.NewValueIsInvalidErrorWithCause("template transitions",
			fmt.Errorf("duplicate transition %s -> %s", tr.From, tr.To))
	}
	for _, e := range tr.Effects {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	tr.PreConditions = append([]string(nil), tr.PreConditions...)
	tr.Effects = append([]Effect(nil), tr.Effects...)
	t.edgeIndex[key] = len(t.transitions)
	t.transitions = append(t.transitions, tr)
	return nil
}

// Validate ensures the template was built by NewTemplate.
func (t Template) Validate() error {
	return t.guard.Validate(ErrTemplateIsNotConstructed)
}

func (t Template) ID() kernel.UUID       { return t.id }
func (t Template) TenantID() kernel.UUID { return t.tenantID }
func (t Template) Code() string          { return t.code }
func (t Template) Version() int          { return t.version }
func (t Template) CreatedAt() time.Time  { return t.createdAt }

// Ref returns the pinned reference to this exact version.
func (t Template) Ref() Ref {
	return Ref{TemplateID: t.id, Version: t.version}
}

// Stages returns a copy of the stages ordered by sequence.
func (t Template) Stages() []Stage {
	return append([]Stage(nil), t.stages...)
}

// Transitions returns a copy of the edges in declaration order.
func (t Template) Transitions() []Transition {
	out := make([]Transition, len(t.transitions))
	for i, tr := range t.transitions {
		out[i] = tr.clone()
	}
	return out
}

// Stage looks a stage up by code.
func (t Template) Stage(code StatusCode) (Stage, bool) {
	i, ok := t.stageIndex[code]
	if !ok {
		return Stage{}, false
	}
	return t.stages[i], true
}

// InitialStage is the stage with the lowest sequence number.
func (t Template) InitialStage() Stage {
	return t.stages[0]
}

// IsTransitionAllowed reports whether from -> to is a registered edge.
// It fails with UnknownStageError when either code is not part of the template.
func (t Template) IsTransitionAllowed(from, to StatusCode) (bool, error) {
	if _, ok := t.Stage(from); !ok {
		return false, errs.NewUnknownStageError(from.String())
	}
	if _, ok := t.Stage(to); !ok {
		return false, errs.NewUnknownStageError(to.String())
	}
	_, ok := t.edgeIndex[edgeKey{from: from, to: to}]
	return ok, nil
}

// Transition returns the edge from -> to if it exists.
func (t Template) Transition(from, to StatusCode) (Transition, bool) {
	i, ok := t.edgeIndex[edgeKey{from: from, to: to}]
	if !ok {
		return Transition{}, false
	}
	return t.transitions[i].clone(), true
}

// Outgoing lists the edges leaving from, in declaration order.
func (t Template) Outgoing(from StatusCode) []Transition {
	var out []Transition
	for _, tr := range t.transitions {
		if tr.From == from {
			out = append(out, tr.clone())
		}
	}
	return out
}

// AutoTransitions lists every edge flagged AutoWhenDone.
func (t Template) AutoTransitions() []Transition {
	var out []Transition
	for _, tr := range t.transitions {
		if tr.AutoWhenDone {
			out = append(out, tr.clone())
		}
	}
	return out
}

func (tr Transition) clone() Transition {
	tr.PreConditions = append([]string(nil), tr.PreConditions...)
	tr.Effects = append([]Effect(nil), tr.Effects...)
	return tr
}
