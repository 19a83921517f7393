// Package outbox models side effects that leave the process (customer
// notifications, tenant webhooks). Entries are written in the transition's
// unit of work and delivered later by the relay job.
package outbox

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// Status of an entry.
type Status string

const (
	Pending   Status = "pending"
	Published Status = "published"
	Dead      Status = "dead"
)

// Entry is a durable message waiting for delivery.
type Entry struct {
	ID          kernel.UUID
	TenantID    kernel.UUID
	OrderID     kernel.UUID
	Topic       string
	Payload     map[string]any
	Status      Status
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// NewEntry builds a pending entry.
func NewEntry(tenantID, orderID kernel.UUID, topic string, payload map[string]any, now time.Time) (Entry, error) {
	if err := errors.Join(tenantID.Validate(), orderID.Validate()); err != nil {
		return Entry{}, err
	}
	if topic == "" {
		return Entry{}, errs.NewValueIsRequiredError("topic")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return Entry{
		ID:        kernel.NewUUID(),
		TenantID:  tenantID,
		OrderID:   orderID,
		Topic:     topic,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: now.UTC(),
	}, nil
}

// MarkPublished records a successful delivery.
func (e *Entry) MarkPublished(now time.Time) error {
	if e.Status != Pending {
		return errs.NewValueIsInvalidErrorWithCause("outbox entry", fmt.Errorf("%s is %s", e.ID, e.Status))
	}
	at := now.UTC()
	e.Attempts++
	e.Status = Published
	e.PublishedAt = &at
	e.LastError = ""
	return nil
}

// MarkFailed records a failed delivery. After maxAttempts the entry is dead
// and the relay stops picking it up.
func (e *Entry) MarkFailed(cause error, maxAttempts int) error {
	if e.Status != Pending {
		return errs.NewValueIsInvalidErrorWithCause("outbox entry", fmt.Errorf("%s is %s", e.ID, e.Status))
	}
	e.Attempts++
	if cause != nil {
		e.LastError = cause.Error()
	}
	if e.Attempts >= maxAttempts {
		e.Status = Dead
	}
	return nil
}
