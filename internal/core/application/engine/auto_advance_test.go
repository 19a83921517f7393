package engine_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderUoWs struct{ factory *memory.UnitOfWorkFactory }

func (f orderUoWs) Create() commands.OrderUoW { return f.factory.Create() }

func TestAutoAdvance_PagesPastOrdersThatAreNotReady(t *testing.T) {
	h := newHarness(t, time.Second)
	for range 3 {
		blocked := h.orderAt(t, workflow.StatusAssembly, 1, 1)
		h.raiseExceptions(t, blocked, 1)
	}
	ready := h.orderAt(t, workflow.StatusAssembly, 1, 1)

	cmd, err := commands.NewAutoAdvanceCommand(1)
	require.NoError(t, err)
	handler := commands.NewAutoAdvanceCommandHandler(h.templates, orderUoWs{h.factory}, h.engine, nil, discardLogger())

	for pass := 0; pass < 2; pass++ {
		advanced, err := handler.Handle(context.Background(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 1-pass, advanced)
	}
	assert.Equal(t, workflow.StatusQAPending, h.reload(t, ready).Status())
	assert.Equal(t, 1, h.historyLen(t, ready))
}
