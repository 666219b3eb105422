package services

import (
	"errors"
	"fmt"
	"strings"

	"planner/internal/core"
)

// ErrInvalidInput wraps every rejection from the input parsers below.
var ErrInvalidInput = errors.New("invalid input")

// ExpenseInput is an expense as typed by a user, before validation.
type ExpenseInput struct {
	Amount      string
	Description string
	CategoryID  string
	Type        string
	Date        string
}

// Fields validates the input. An empty category falls back to "other", an
// empty type to "need" and an empty date to today.
func (in ExpenseInput) Fields(today core.Date) (ExpenseFields, error) {
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return ExpenseFields{}, invalid("amount", err)
	}
	typ, err := parseTypeOrDefault(in.Type)
	if err != nil {
		return ExpenseFields{}, invalid("type", err)
	}
	date, err := parseDateOrDefault(in.Date, today)
	if err != nil {
		return ExpenseFields{}, invalid("date", err)
	}
	categoryID := strings.TrimSpace(in.CategoryID)
	if categoryID == "" {
		categoryID = core.OtherCategoryID
	}

	f := ExpenseFields{
		Amount:      core.Money{Cents: cents},
		Description: strings.TrimSpace(in.Description),
		CategoryID:  categoryID,
		Type:        typ,
		Date:        date,
	}
	if err := f.expense("").Validate(); err != nil {
		return ExpenseFields{}, invalid("expense", err)
	}
	return f, nil
}

// MaturityInput is a maturity as typed by a user, before validation.
type MaturityInput struct {
	Service string
	Amount  string
	Type    string
	Date    string
}

func (in MaturityInput) Fields(today core.Date) (MaturityFields, error) {
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return MaturityFields{}, invalid("amount", err)
	}
	typ, err := parseTypeOrDefault(in.Type)
	if err != nil {
		return MaturityFields{}, invalid("type", err)
	}
	date, err := parseDateOrDefault(in.Date, today)
	if err != nil {
		return MaturityFields{}, invalid("date", err)
	}

	f := MaturityFields{
		Service: strings.TrimSpace(in.Service),
		Amount:  core.Money{Cents: cents},
		Type:    typ,
		Date:    date,
	}
	m := core.Maturity{Service: f.Service, Amount: f.Amount, Type: f.Type, Date: f.Date}
	if err := m.Validate(); err != nil {
		return MaturityFields{}, invalid("maturity", err)
	}
	return f, nil
}

// ParseFilter validates a filter selection for SetFilterType.
func ParseFilter(s string) (core.FilterType, error) {
	f, err := core.ParseFilterType(s)
	if err != nil {
		return "", invalid("filter", err)
	}
	return f, nil
}

// CategoryInput validates a new category name. Color is optional.
func CategoryInput(name, color string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", invalid("name", errors.New("empty category name"))
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = "category-other"
	}
	return name, color, nil
}

func parseTypeOrDefault(s string) (core.ExpenseTypeID, error) {
	if strings.TrimSpace(s) == "" {
		return core.TypeNeed, nil
	}
	return core.ParseExpenseType(s)
}

func parseDateOrDefault(s string, today core.Date) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return today, nil
	}
	return core.ParseDate(s)
}

func invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidInput, field, err)
}
