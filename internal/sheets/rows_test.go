package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/core"
)

func TestLedgerRows(t *testing.T) {
	l := core.NewLedger("2024-05")
	l.Income = core.Money{Cents: 200000}
	l.Budgets["food"] = core.Money{Cents: 10000}
	l.Expenses = []core.Expense{
		{ID: "e1", Amount: core.Money{Cents: 8550}, Description: "Super", CategoryID: "food", Type: core.TypeNeed, Date: core.NewDate(2024, 5, 3)},
		{ID: "e2", Amount: core.Money{Cents: 100}, Description: "Misterio", CategoryID: "gone", Type: "custom", Date: core.NewDate(2024, 5, 4)},
	}
	l.Maturities = []core.Maturity{
		{ID: "m1", Service: "Luz", Amount: core.Money{Cents: 4000}, Type: core.TypeNeed, Date: core.NewDate(2024, 5, 10), Status: core.MaturityPending},
	}
	cats := []core.Category{{ID: "food", Name: "Comida"}}

	rows := LedgerRows(l, cats)

	assert.Equal(t, []any{"Mes", "2024-05"}, rows[0])
	assert.Equal(t, []any{"Ingreso", 2000.0}, rows[1])
	assert.Equal(t, []any{"Presupuestado", 100.0}, rows[2])
	assert.Equal(t, []any{"Gastado", 86.5}, rows[3])
	assert.Equal(t, []any{"Restante", 1900.0}, rows[4])
	assert.Equal(t, []any{"Filtro", "all"}, rows[5])
	assert.Contains(t, rows, []any{"Comida", 100.0, 85.5, 85.5, "Cerca del límite"})
	assert.Contains(t, rows, []any{"2024-05-03", "Super", "Comida", "Necesidad", 85.5})
	// Unknown category and type fall back to their ids.
	assert.Contains(t, rows, []any{"2024-05-04", "Misterio", "gone", "custom", 1.0})
	assert.Equal(t, []any{"2024-05-10", "Luz", "Necesidad", 40.0, "pending"}, rows[len(rows)-1])
}

func TestLedgerRowsEmpty(t *testing.T) {
	rows := LedgerRows(core.NewLedger("2024-05"), nil)
	require.NotEmpty(t, rows)
	assert.Equal(t, []any{"Vencimiento", "Servicio", "Tipo", "Monto", "Estado"}, rows[len(rows)-1])
}

func TestTabName(t *testing.T) {
	assert.Equal(t, "2024-05", TabName("2024-05"))
}
