package screen

import (
	"fmt"
	"sort"
	"sync"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
)

// Built-in pre-condition codes.
const (
	ItemsPresent           = "items_present"
	AllItemsScanned        = "all_items_scanned"
	NoUnresolvedExceptions = "no_unresolved_exceptions"
	QADecisionRecorded     = "qa_decision_recorded"
	QAPassed               = "qa_passed"
)

// Predicate is a pure check over facts. When it fails it returns a short
// human readable reason.
type Predicate func(f Facts) (ok bool, reason string)

// Registry maps pre-condition codes to predicates.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
}

// NewRegistry returns a registry loaded with the built-in predicates.
func NewRegistry() *Registry {
	r := &Registry{predicates: make(map[string]Predicate)}
	r.predicates[ItemsPresent] = func(f Facts) (bool, string) {
		if f.TotalItems <= 0 {
			return false, "order has no items"
		}
		return true, ""
	}
	r.predicates[AllItemsScanned] = func(f Facts) (bool, string) {
		if f.ScannedItems != f.TotalItems {
			return false, "scanned_items != total_items"
		}
		return true, ""
	}
	r.predicates[NoUnresolvedExceptions] = func(f Facts) (bool, string) {
		if f.ExceptionItems > 0 {
			return false, "exception_items > 0"
		}
		return true, ""
	}
	r.predicates[QADecisionRecorded] = func(f Facts) (bool, string) {
		if !f.QADecision.IsRecorded() {
			return false, "qa decision not recorded"
		}
		return true, ""
	}
	r.predicates[QAPassed] = func(f Facts) (bool, string) {
		if f.QADecision != order.QAPassed {
			return false, fmt.Sprintf("qa decision is %q", f.QADecision)
		}
		return true, ""
	}
	return r
}

// Register adds a tenant specific predicate. Codes cannot be redefined.
func (r *Registry) Register(code string, p Predicate) error {
	if code == "" {
		return errs.NewValueIsRequiredError("pre-condition code")
	}
	if p == nil {
		return errs.NewValueIsRequiredError("predicate")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.predicates[code]; exists {
		return errs.NewValueIsInvalidErrorWithCause("pre-condition code", fmt.Errorf("%s is already registered", code))
	}
	r.predicates[code] = p
	return nil
}

// Has reports whether code is registered.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.predicates[code]
	return ok
}

// Codes lists registered codes in lexical order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.predicates))
	for c := range r.predicates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Evaluate runs the predicate registered under code.
// Unknown codes are a configuration error, not an unmet pre-condition.
func (r *Registry) Evaluate(code string, f Facts) (bool, string, error) {
	r.mu.RLock()
	p, ok := r.predicates[code]
	r.mu.RUnlock()
	if !ok {
		return false, "", errs.NewValueIsInvalidErrorWithCause("pre-condition", fmt.Errorf("%s is not registered", code))
	}

	passed, reason := p(f)
	return passed, reason, nil
}
