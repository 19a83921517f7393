// Package memory is an in-process implementation of the persistence ports.
// Transactions are serialized by a single lock and work on a copy of the
// committed state that replaces it on commit. It backs STORE_DRIVER=memory and
// the engine tests.
//
// It is meant for demos and tests. A unit of work holds the lock until it
// ends, so an outbox relay pass that is retrying a slow publisher stalls
// every transition for that time.
package memory

import (
	"maps"
	"slices"

	"orderflow/internal/core/domain/model/artifact"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/idempotency"
	"orderflow/internal/core/domain/model/inventory"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/outbox"
)

type tenantKey struct {
	tenantID kernel.UUID
	key      string
}

type state struct {
	orders      map[kernel.UUID]order.Snapshot
	history     []history.Record
	idempotency map[tenantKey]idempotency.Record
	outbox      []outbox.Entry
	artifacts   []artifact.Artifact
	documents   []artifact.Document
	stock       map[tenantKey]inventory.StockItem
}

func newState() *state {
	return &state{
		orders:      make(map[kernel.UUID]order.Snapshot),
		idempotency: make(map[tenantKey]idempotency.Record),
		stock:       make(map[tenantKey]inventory.StockItem),
	}
}

// clone copies the containers. Stored values are treated as immutable.
func (s *state) clone() *state {
	return &state{
		orders:      maps.Clone(s.orders),
		history:     slices.Clone(s.history),
		idempotency: maps.Clone(s.idempotency),
		outbox:      slices.Clone(s.outbox),
		artifacts:   slices.Clone(s.artifacts),
		documents:   slices.Clone(s.documents),
		stock:       maps.Clone(s.stock),
	}
}
