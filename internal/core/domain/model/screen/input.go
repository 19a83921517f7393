package screen

import (
	"encoding/json"
	"fmt"
	"math"

	"orderflow/internal/pkg/errs"
)

// Well known input fields read by the engine.
const (
	InputQADecision         = "qaDecision"
	InputExceptionsRaised   = "exceptionsRaised"
	InputExceptionsResolved = "exceptionsResolved"
)

// Input is the free-form payload a screen submits with a transition. It is
// stored verbatim in history.
type Input map[string]any

// Int reads a non-negative integer field. Missing fields return ok=false.
func (in Input) Int(key string) (value int, ok bool, err error) {
	raw, ok := in[key]
	if !ok || raw == nil {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case int:
		value = v
	case int64:
		value = int(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, true, errs.NewValueIsInvalidErrorWithCause(key, fmt.Errorf("%v is not an integer", v))
		}
		value = int(v)
	case json.Number:
		n, convErr := v.Int64()
		if convErr != nil {
			return 0, true, errs.NewValueIsInvalidErrorWithCause(key, convErr)
		}
		value = int(n)
	default:
		return 0, true, errs.NewValueIsInvalidErrorWithCause(key, fmt.Errorf("%T is not a number", raw))
	}

	if value < 0 {
		return 0, true, errs.NewValueIsInvalidErrorWithCause(key, fmt.Errorf("%d is negative", value))
	}
	return value, true, nil
}

// String reads a string field. Missing fields return ok=false.
func (in Input) String(key string) (string, bool, error) {
	raw, ok := in[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, isString := raw.(string)
	if !isString {
		return "", true, errs.NewValueIsInvalidErrorWithCause(key, fmt.Errorf("%T is not a string", raw))
	}
	return s, true, nil
}

// Clone returns a shallow copy safe to store.
func (in Input) Clone() Input {
	if in == nil {
		return Input{}
	}
	out := make(Input, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
