package core

import (
	"errors"
	"strings"
)

const (
	TypeNeed    ExpenseTypeID = "need"
	TypeWant    ExpenseTypeID = "want"
	TypeSavings ExpenseTypeID = "savings"
	TypeDebt    ExpenseTypeID = "debt"
)

const (
	MaturityPending MaturityStatus = "pending"
	MaturityPaid    MaturityStatus = "paid"
)

// FilterAll disables type filtering in aggregations.
const FilterAll FilterType = "all"

// OtherCategoryID is the catch-all category assigned to converted maturities.
const OtherCategoryID = "other"

type (
	ExpenseTypeID  string
	MaturityStatus string

	// FilterType is either FilterAll or an ExpenseTypeID.
	FilterType string

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	ExpenseType struct {
		ID    ExpenseTypeID
		Label string
		Color string
	}

	Expense struct {
		ID          string        `json:"id"`
		Amount      Money         `json:"amount"`
		Description string        `json:"description"`
		CategoryID  string        `json:"categoryId"`
		Type        ExpenseTypeID `json:"type"`
		Date        Date          `json:"date"`
	}

	// Maturity is a bill with a due date, tracked separately from realized expenses.
	Maturity struct {
		ID      string         `json:"id"`
		Service string         `json:"service"`
		Amount  Money          `json:"amount"`
		Type    ExpenseTypeID  `json:"type"`
		Date    Date           `json:"date"`
		Status  MaturityStatus `json:"status"`
	}

	// Ledger is the budget, expense and maturity record for one calendar month.
	// Month is the storage identity and is not part of the serialized form.
	Ledger struct {
		Month      MonthKey         `json:"-"`
		Income     Money            `json:"income"`
		Budgets    map[string]Money `json:"budgets"`
		Expenses   []Expense        `json:"expenses"`
		Maturities []Maturity       `json:"maturities"`
		FilterType FilterType       `json:"filterType"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyService     = errors.New("empty service")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonthKey  = errors.New("invalid month key")
	ErrInvalidType      = errors.New("invalid expense type")
)

var expenseTypes = []ExpenseType{
	{ID: TypeNeed, Label: "Necesidad", Color: "type-need"},
	{ID: TypeWant, Label: "Deseo", Color: "type-want"},
	{ID: TypeSavings, Label: "Ahorro", Color: "type-savings"},
	{ID: TypeDebt, Label: "Deuda", Color: "type-debt"},
}

var defaultCategories = []Category{
	{ID: "food", Name: "Comida", Color: "category-food"},
	{ID: "transport", Name: "Transporte", Color: "category-transport"},
	{ID: "utilities", Name: "Servicios", Color: "category-utilities"},
	{ID: "entertainment", Name: "Entretenimiento", Color: "category-entertainment"},
	{ID: "health", Name: "Salud", Color: "category-health"},
	{ID: "home", Name: "Hogar", Color: "category-home"},
	{ID: "education", Name: "Educación", Color: "category-education"},
	{ID: "debt", Name: "Deudas", Color: "category-debt"},
	{ID: "savings", Name: "Ahorro", Color: "category-savings"},
	{ID: OtherCategoryID, Name: "Otros", Color: "category-other"},
}

// ExpenseTypes returns the fixed classification used for budgeting, in display order.
func ExpenseTypes() []ExpenseType {
	return append([]ExpenseType(nil), expenseTypes...)
}

// LookupExpenseType returns the expense type with the given id.
func LookupExpenseType(id ExpenseTypeID) (ExpenseType, bool) {
	for _, t := range expenseTypes {
		if t.ID == id {
			return t, true
		}
	}
	return ExpenseType{}, false
}

// ParseExpenseType accepts a known type id, case-insensitively.
func ParseExpenseType(s string) (ExpenseTypeID, error) {
	id := ExpenseTypeID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := LookupExpenseType(id); !ok {
		return "", ErrInvalidType
	}
	return id, nil
}

// ParseFilterType accepts "all" or a known type id. Empty means all.
func ParseFilterType(s string) (FilterType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(FilterAll) {
		return FilterAll, nil
	}
	id, err := ParseExpenseType(s)
	if err != nil {
		return "", err
	}
	return FilterType(id), nil
}

// DefaultCategories returns the seed catalog used on first run.
func DefaultCategories() []Category {
	return append([]Category(nil), defaultCategories...)
}

// Matches reports whether an expense of type t passes the filter.
func (f FilterType) Matches(t ExpenseTypeID) bool {
	return f == FilterAll || f == "" || ExpenseTypeID(f) == t
}

// Toggle flips between pending and paid. Unknown values become paid.
func (s MaturityStatus) Toggle() MaturityStatus {
	if s == MaturityPending {
		return MaturityPaid
	}
	return MaturityPending
}

// NewLedger returns the default ledger for a month.
func NewLedger(month MonthKey) Ledger {
	return Ledger{
		Month:      month,
		Budgets:    map[string]Money{},
		Expenses:   []Expense{},
		Maturities: []Maturity{},
		FilterType: FilterAll,
	}
}

// Clone returns a deep copy so that mutations never leak into shared state.
func (l Ledger) Clone() Ledger {
	out := l
	out.Budgets = make(map[string]Money, len(l.Budgets))
	for k, v := range l.Budgets {
		out.Budgets[k] = v
	}
	out.Expenses = append(make([]Expense, 0, len(l.Expenses)), l.Expenses...)
	out.Maturities = append(make([]Maturity, 0, len(l.Maturities)), l.Maturities...)
	return out
}

// Budget returns the planned amount for a category, zero when unbudgeted.
func (l Ledger) Budget(categoryID string) Money {
	return l.Budgets[categoryID]
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (m Maturity) Validate() error {
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(m.Service)) == 0 {
		return ErrEmptyService
	}
	if len(m.Service) > 200 {
		return errors.New("service too long (max 200 characters)")
	}
	if err := m.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// ToExpense builds the realized expense for a paid maturity.
func (m Maturity) ToExpense(id string) Expense {
	return Expense{
		ID:          id,
		Amount:      m.Amount,
		Description: m.Service,
		CategoryID:  OtherCategoryID,
		Type:        m.Type,
		Date:        m.Date,
	}
}
