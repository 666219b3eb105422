package sheets

import (
	"planner/internal/core"
)

// LedgerRows renders a ledger as a values matrix: a header block, the
// category breakdown, then expenses and maturities. Amounts are plain
// numbers in currency units so the sheet can sum them.
func LedgerRows(l core.Ledger, categories []core.Category) [][]any {
	s := core.Summarize(l, categories, core.ExpenseTypes())
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	rows := [][]any{
		{"Mes", string(l.Month)},
		{"Ingreso", l.Income.Float64()},
		{"Presupuestado", s.Totals.TotalBudgeted.Float64()},
		{"Gastado", s.Totals.TotalSpentFiltered.Float64()},
		{"Restante", s.Remaining.Float64()},
		{"Filtro", string(s.FilterType)},
		{},
		{"Categoría", "Planificado", "Real", "%", "Estado"},
	}
	for _, st := range s.Categories {
		rows = append(rows, []any{
			st.Category.Name,
			st.Planned.Float64(),
			st.Real.Float64(),
			round1(st.Percentage),
			st.Status.Label(),
		})
	}

	rows = append(rows, []any{}, []any{"Fecha", "Descripción", "Categoría", "Tipo", "Monto"})
	for _, e := range l.Expenses {
		cat := names[e.CategoryID]
		if cat == "" {
			cat = e.CategoryID
		}
		rows = append(rows, []any{e.Date.String(), e.Description, cat, typeLabel(e.Type), e.Amount.Float64()})
	}

	rows = append(rows, []any{}, []any{"Vencimiento", "Servicio", "Tipo", "Monto", "Estado"})
	for _, m := range l.Maturities {
		rows = append(rows, []any{m.Date.String(), m.Service, typeLabel(m.Type), m.Amount.Float64(), string(m.Status)})
	}
	return rows
}

func typeLabel(id core.ExpenseTypeID) string {
	if t, ok := core.LookupExpenseType(id); ok {
		return t.Label
	}
	return string(id)
}

func round1(f float64) float64 {
	return float64(int64(f*10+0.5)) / 10
}
