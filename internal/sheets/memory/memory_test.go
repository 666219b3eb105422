package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/core"
)

func TestExporterKeepsLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	e := New(nil)

	may := core.NewLedger("2024-05")
	require.NoError(t, e.ExportLedger(ctx, may, nil))
	require.NoError(t, e.ExportLedger(ctx, core.NewLedger("2024-04"), nil))

	may.Income = core.Money{Cents: 1000}
	require.NoError(t, e.ExportLedger(ctx, may, nil))

	assert.Equal(t, []string{"2024-04", "2024-05"}, e.Tabs())
	assert.Equal(t, 3, e.Exports())

	rows, ok := e.Rows("2024-05")
	require.True(t, ok)
	assert.Equal(t, []any{"Ingreso", 10.0}, rows[1])

	_, ok = e.Rows("2023-01")
	assert.False(t, ok)
}

func TestExporterFailWith(t *testing.T) {
	e := New(nil)
	boom := errors.New("boom")
	e.FailWith(boom)

	err := e.ExportLedger(context.Background(), core.NewLedger("2024-05"), nil)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, e.Tabs())

	e.FailWith(nil)
	assert.NoError(t, e.ExportLedger(context.Background(), core.NewLedger("2024-05"), nil))
}
