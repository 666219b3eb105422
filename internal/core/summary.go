package core

const (
	StatusNeutral CategoryStatus = "neutral"
	StatusSuccess CategoryStatus = "success"
	StatusWarning CategoryStatus = "warning"
	StatusDanger  CategoryStatus = "danger"
)

// Spending thresholds, as a percentage of the planned amount.
const (
	WarningThreshold = 80.0
	DangerThreshold  = 100.0
)

type CategoryStatus string

// CategoryStat compares planned against real spending for one category.
type CategoryStat struct {
	Category   Category       `json:"category"`
	Planned    Money          `json:"planned"`
	Real       Money          `json:"real"`
	Percentage float64        `json:"percentage"`
	Status     CategoryStatus `json:"status"`
}

type Totals struct {
	TotalBudgeted      Money `json:"totalBudgeted"`
	TotalSpentFiltered Money `json:"totalSpentFiltered"`
	Difference         Money `json:"difference"`
}

// TypeShare is the portion of all spending attributed to one expense type.
type TypeShare struct {
	Type       ExpenseType `json:"type"`
	Amount     Money       `json:"amount"`
	Percentage float64     `json:"percentage"`
}

// DayInfo marks a calendar day that has maturities due.
type DayInfo struct {
	HasAny     bool `json:"hasAny"`
	HasPending bool `json:"hasPending"`
}

type MaturityTotals struct {
	Pending Money `json:"pending"`
	Paid    Money `json:"paid"`
}

// Summary bundles every derived figure for a ledger. It is never stored.
type Summary struct {
	Month            MonthKey        `json:"month"`
	FilterType       FilterType      `json:"filterType"`
	Income           Money           `json:"income"`
	Remaining        Money           `json:"remaining"`
	Totals           Totals          `json:"totals"`
	Categories       []CategoryStat  `json:"categories"`
	TypeDistribution []TypeShare     `json:"typeDistribution"`
	Maturities       MaturityTotals  `json:"maturities"`
	MaturityDays     map[int]DayInfo `json:"maturityDays"`
}

var statusLabels = map[CategoryStatus]string{
	StatusNeutral: "Sin plan",
	StatusSuccess: "En control",
	StatusWarning: "Cerca del límite",
	StatusDanger:  "Excedido",
}

// Label returns the display text for the status.
func (s CategoryStatus) Label() string {
	return statusLabels[s]
}

// StatusFor classifies spending against a plan.
func StatusFor(planned Money, percentage float64) CategoryStatus {
	switch {
	case planned.Cents <= 0:
		return StatusNeutral
	case percentage >= DangerThreshold:
		return StatusDanger
	case percentage >= WarningThreshold:
		return StatusWarning
	default:
		return StatusSuccess
	}
}

func percentOf(part, whole Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	return float64(part.Cents) * 100 / float64(whole.Cents)
}

// filteredSpend sums the expenses that pass the ledger's active filter,
// optionally restricted to one category.
func filteredSpend(l Ledger, categoryID string) Money {
	var total Money
	for _, e := range l.Expenses {
		if !l.FilterType.Matches(e.Type) {
			continue
		}
		if categoryID != "" && e.CategoryID != categoryID {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// CategoryStats computes planned versus filtered real spending per category,
// in catalog order.
func CategoryStats(l Ledger, categories []Category) []CategoryStat {
	stats := make([]CategoryStat, 0, len(categories))
	for _, c := range categories {
		planned := l.Budget(c.ID)
		var spent Money
		if c.ID != "" {
			spent = filteredSpend(l, c.ID)
		}
		pct := percentOf(spent, planned)
		stats = append(stats, CategoryStat{
			Category:   c,
			Planned:    planned,
			Real:       spent,
			Percentage: pct,
			Status:     StatusFor(planned, pct),
		})
	}
	return stats
}

// TotalBudgeted sums every budget value, including categories not in the catalog.
func TotalBudgeted(l Ledger) Money {
	var total Money
	for _, v := range l.Budgets {
		total = total.Add(v)
	}
	return total
}

func ComputeTotals(l Ledger) Totals {
	budgeted := TotalBudgeted(l)
	spent := filteredSpend(l, "")
	return Totals{
		TotalBudgeted:      budgeted,
		TotalSpentFiltered: spent,
		Difference:         budgeted.Sub(spent),
	}
}

// TypeDistribution splits all expenses, ignoring the filter, by type.
// Percentages are relative to the grand total and are all zero when there
// is no spending.
func TypeDistribution(l Ledger, types []ExpenseType) []TypeShare {
	byType := make(map[ExpenseTypeID]Money, len(types))
	var grand Money
	for _, e := range l.Expenses {
		byType[e.Type] = byType[e.Type].Add(e.Amount)
		grand = grand.Add(e.Amount)
	}
	shares := make([]TypeShare, 0, len(types))
	for _, t := range types {
		amount := byType[t.ID]
		shares = append(shares, TypeShare{
			Type:       t,
			Amount:     amount,
			Percentage: percentOf(amount, grand),
		})
	}
	return shares
}

// Remaining is the income not yet allocated to any budget. It may be negative.
func Remaining(l Ledger) Money {
	return l.Income.Sub(TotalBudgeted(l))
}

// MaturitiesOn returns the maturities due on a given day, in ledger order.
func MaturitiesOn(l Ledger, d Date) []Maturity {
	var out []Maturity
	for _, m := range l.Maturities {
		if !m.Date.IsZero() && m.Date.Time.Equal(d.Time) {
			out = append(out, m)
		}
	}
	return out
}

// MaturityDays maps each day of the ledger's month that has maturities due
// to its markers. Maturities dated outside the month are ignored.
func MaturityDays(l Ledger) map[int]DayInfo {
	days := make(map[int]DayInfo)
	for _, m := range l.Maturities {
		if !l.Month.Contains(m.Date) {
			continue
		}
		info := days[m.Date.Day()]
		info.HasAny = true
		if m.Status == MaturityPending {
			info.HasPending = true
		}
		days[m.Date.Day()] = info
	}
	return days
}

func SumMaturities(l Ledger) MaturityTotals {
	var totals MaturityTotals
	for _, m := range l.Maturities {
		if m.Status == MaturityPaid {
			totals.Paid = totals.Paid.Add(m.Amount)
		} else {
			totals.Pending = totals.Pending.Add(m.Amount)
		}
	}
	return totals
}

// Summarize recomputes every derived figure from current state.
func Summarize(l Ledger, categories []Category, types []ExpenseType) Summary {
	filter := l.FilterType
	if filter == "" {
		filter = FilterAll
	}
	return Summary{
		Month:            l.Month,
		FilterType:       filter,
		Income:           l.Income,
		Remaining:        Remaining(l),
		Totals:           ComputeTotals(l),
		Categories:       CategoryStats(l, categories),
		TypeDistribution: TypeDistribution(l, types),
		Maturities:       SumMaturities(l),
		MaturityDays:     MaturityDays(l),
	}
}
