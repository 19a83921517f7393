package artifact

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// DocumentKind is a document generated by a side effect.
type DocumentKind string

const (
	PackingList     DocumentKind = "packing_list"
	DeliveryVoucher DocumentKind = "delivery_voucher"
)

// Document is a generated paper trail entry. Number is unique per tenant and kind.
type Document struct {
	ID        kernel.UUID
	TenantID  kernel.UUID
	OrderID   kernel.UUID
	Kind      DocumentKind
	Number    string
	Content   map[string]any
	CreatedAt time.Time
}

// NewDocument builds a document numbered after the order and the version that produced it.
func NewDocument(tenantID, orderID kernel.UUID, kind DocumentKind, version int64, content map[string]any, now time.Time) (Document, error) {
	if err := errors.Join(tenantID.Validate(), orderID.Validate()); err != nil {
		return Document{}, err
	}
	if kind != PackingList && kind != DeliveryVoucher {
		return Document{}, errs.NewValueIsInvalidErrorWithCause("document kind", fmt.Errorf("%q is unknown", string(kind)))
	}
	if content == nil {
		content = map[string]any{}
	}
	return Document{
		ID:        kernel.NewUUID(),
		TenantID:  tenantID,
		OrderID:   orderID,
		Kind:      kind,
		Number:    fmt.Sprintf("%s-%s-%d", prefix(kind), orderID.String()[:8], version),
		Content:   content,
		CreatedAt: now.UTC(),
	}, nil
}

func prefix(kind DocumentKind) string {
	if kind == PackingList {
		return "PL"
	}
	return "DV"
}
