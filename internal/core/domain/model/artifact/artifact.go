// Package artifact holds the evidence an order accumulates (scan
// confirmation, proof of delivery, invoice) and the documents generated by
// transition side effects.
package artifact

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// Kind of evidence an edge may require.
type Kind string

const (
	ScanOK  Kind = "scan_ok"
	POD     Kind = "pod"
	Invoice Kind = "invoice"
)

// ParseKind validates a kind supplied by a caller.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case ScanOK, POD, Invoice:
		return k, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("artifact kind", fmt.Errorf("%q is not one of scan_ok, pod, invoice", s))
	}
}

func (k Kind) String() string {
	return string(k)
}

// Artifact is one piece of evidence attached to an order.
type Artifact struct {
	ID        kernel.UUID
	TenantID  kernel.UUID
	OrderID   kernel.UUID
	Kind      Kind
	Reference string
	CreatedAt time.Time
}

// NewArtifact builds an artifact. Reference is an external pointer such as a
// signature image key or an invoice number.
func NewArtifact(tenantID, orderID kernel.UUID, kind Kind, reference string, now time.Time) (Artifact, error) {
	if err := errors.Join(tenantID.Validate(), orderID.Validate()); err != nil {
		return Artifact{}, err
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return Artifact{}, err
	}
	return Artifact{
		ID:        kernel.NewUUID(),
		TenantID:  tenantID,
		OrderID:   orderID,
		Kind:      kind,
		Reference: reference,
		CreatedAt: now.UTC(),
	}, nil
}
