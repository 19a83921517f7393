package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompositionRoot_MemoryStoreWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	root, err := NewCompositionRoot(context.Background(), Config{
		StoreDriver:       StoreMemory,
		TransitionTimeout: time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, root.Close()) })

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "demos and tests only")
	assert.NotNil(t, root.Engine())
}
