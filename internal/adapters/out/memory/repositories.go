package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/inventory"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/outbox"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

type orderRepository struct{ access }

func (r *orderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.write(ctx, func(st *state) error {
		if _, exists := st.orders[aggregate.ID()]; exists {
			return errs.NewValueIsInvalidErrorWithCause("order", fmt.Errorf("%s already exists", aggregate.ID()))
		}
		st.orders[aggregate.ID()] = aggregate.Snapshot()
		return nil
	})
}

func (r *orderRepository) Get(_ context.Context, tenantID, id kernel.UUID) (*order.Order, error) {
	var snap order.Snapshot
	err := r.read(func(st *state) error {
		s, ok := st.orders[id]
		if !ok || !s.TenantID.IsEqual(tenantID) {
			return errs.NewObjectNotFoundError("order", id.String())
		}
		snap = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order.RestoreOrder(snap)
}

// GetForUpdate needs no row lock: transactions are already serialized.
func (r *orderRepository) GetForUpdate(ctx context.Context, tenantID, id kernel.UUID) (*order.Order, error) {
	return r.Get(ctx, tenantID, id)
}

func (r *orderRepository) Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.write(ctx, func(st *state) error {
		stored, ok := st.orders[aggregate.ID()]
		if !ok || !stored.TenantID.IsEqual(aggregate.TenantID()) {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		if stored.Version != expectedVersion {
			return errs.NewConcurrentModificationError(expectedVersion, stored.Version)
		}
		st.orders[aggregate.ID()] = aggregate.Snapshot()
		return nil
	})
}

func (r *orderRepository) ListActiveInStatus(_ context.Context, q ports.ActiveOrderQuery) ([]*order.Order, error) {
	var snaps []order.Snapshot
	_ = r.read(func(st *state) error {
		for _, s := range st.orders {
			if s.Active && s.Status == q.Status && s.TenantID.IsEqual(q.TenantID) &&
				s.Template.TemplateID.IsEqual(q.Template.TemplateID) && s.Template.Version == q.Template.Version &&
				(q.After == nil || compareCursor(s.UpdatedAt, s.ID, *q.After) > 0) {
				snaps = append(snaps, s)
			}
		}
		return nil
	})
	sort.Slice(snaps, func(i, j int) bool {
		return compareCursor(snaps[i].UpdatedAt, snaps[i].ID, ports.OrderCursor{UpdatedAt: snaps[j].UpdatedAt, ID: snaps[j].ID}) < 0
	})
	if q.Limit > 0 && len(snaps) > q.Limit {
		snaps = snaps[:q.Limit]
	}

	out := make([]*order.Order, 0, len(snaps))
	for _, s := range snaps {
		o, err := order.RestoreOrder(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func compareCursor(updatedAt time.Time, id kernel.UUID, c ports.OrderCursor) int {
	if n := updatedAt.Compare(c.UpdatedAt); n != 0 {
		return n
	}
	a, b := id.Bytes(), c.ID.Bytes()
	return bytes.Compare(a[:], b[:])
}

type historyRepository struct{ access }

func (r *historyRepository) Add(ctx context.Context, record history.Record) error {
	return r.write(ctx, func(st *state) error {
		for _, h := range st.history {
			if h.TenantID.IsEqual(record.TenantID) && h.IdempotencyKey == record.IdempotencyKey {
				return errs.NewIdempotencyKeyConflictError(record.IdempotencyKey)
			}
		}
		st.history = append(st.history, record)
		return nil
	})
}

func (r *historyRepository) ListByOrder(_ context.Context, tenantID, orderID kernel.UUID) ([]history.Record, error) {
	var out []history.Record
	_ = r.read(func(st *state) error {
		for _, h := range st.history {
			if h.TenantID.IsEqual(tenantID) && h.OrderID.IsEqual(orderID) {
				out = append(out, h)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ResultingVersion < out[j].ResultingVersion })
	return out, nil
}

type idempotencyRepository struct{ access }

func (r *idempotencyRepository) Get(_ context.Context, tenantID kernel.UUID, key string) (idempotency.Record, error) {
	var rec idempotency.Record
	err := r.read(func(st *state) error {
		found, ok := st.idempotency[tenantKey{tenantID: tenantID, key: key}]
		if !ok {
			return errs.NewObjectNotFoundError("idempotency key", key)
		}
		rec = found
		return nil
	})
	return rec, err
}

func (r *idempotencyRepository) Add(ctx context.Context, record idempotency.Record) error {
	return r.write(ctx, func(st *state) error {
		k := tenantKey{tenantID: record.TenantID, key: record.Key}
		if _, exists := st.idempotency[k]; exists {
			return errs.NewIdempotencyKeyConflictError(record.Key)
		}
		st.idempotency[k] = record
		return nil
	})
}

func (r *idempotencyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.write(ctx, func(st *state) error {
		for k, rec := range st.idempotency {
			if rec.CreatedAt.Before(cutoff) {
				delete(st.idempotency, k)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

type outboxRepository struct{ access }

func (r *outboxRepository) Add(ctx context.Context, entry outbox.Entry) error {
	return r.write(ctx, func(st *state) error {
		st.outbox = append(st.outbox, entry)
		return nil
	})
}

func (r *outboxRepository) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	_ = r.read(func(st *state) error {
		for _, e := range st.outbox {
			if e.Status == outbox.Pending {
				out = append(out, e)
			}
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, nil
}

func (r *outboxRepository) Update(ctx context.Context, entry outbox.Entry) error {
	return r.write(ctx, func(st *state) error {
		i := slices.IndexFunc(st.outbox, func(e outbox.Entry) bool { return e.ID.IsEqual(entry.ID) })
		if i < 0 {
			return errs.NewObjectNotFoundError("outbox entry", entry.ID.String())
		}
		st.outbox[i] = entry
		return nil
	})
}

type artifactRepository struct{ access }

func (r *artifactRepository) Add(ctx context.Context, a artifact.Artifact) error {
	return r.write(ctx, func(st *state) error {
		st.artifacts = append(st.artifacts, a)
		return nil
	})
}

func (r *artifactRepository) ListByOrder(_ context.Context, tenantID, orderID kernel.UUID) ([]artifact.Artifact, error) {
	var out []artifact.Artifact
	_ = r.read(func(st *state) error {
		for _, a := range st.artifacts {
			if a.TenantID.IsEqual(tenantID) && a.OrderID.IsEqual(orderID) {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, nil
}

type documentRepository struct{ access }

func (r *documentRepository) Add(ctx context.Context, d artifact.Document) error {
	return r.write(ctx, func(st *state) error {
		for _, existing := range st.documents {
			if existing.TenantID.IsEqual(d.TenantID) && existing.Kind == d.Kind && existing.Number == d.Number {
				return errs.NewValueIsInvalidErrorWithCause("document", fmt.Errorf("number %s already issued", d.Number))
			}
		}
		st.documents = append(st.documents, d)
		return nil
	})
}

func (r *documentRepository) ListByOrder(_ context.Context, tenantID, orderID kernel.UUID) ([]artifact.Document, error) {
	var out []artifact.Document
	_ = r.read(func(st *state) error {
		for _, d := range st.documents {
			if d.TenantID.IsEqual(tenantID) && d.OrderID.IsEqual(orderID) {
				out = append(out, d)
			}
		}
		return nil
	})
	return out, nil
}

type inventoryRepository struct{ access }

func (r *inventoryRepository) GetForUpdate(_ context.Context, tenantID kernel.UUID, sku string) (inventory.StockItem, error) {
	var item inventory.StockItem
	err := r.read(func(st *state) error {
		found, ok := st.stock[tenantKey{tenantID: tenantID, key: sku}]
		if !ok {
			return errs.NewObjectNotFoundError("stock item", sku)
		}
		item = found
		return nil
	})
	return item, err
}

func (r *inventoryRepository) Save(ctx context.Context, item inventory.StockItem) error {
	return r.write(ctx, func(st *state) error {
		st.stock[tenantKey{tenantID: item.TenantID, key: item.SKU}] = item
		return nil
	})
}
