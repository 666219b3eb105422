package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/core"
)

func TestExpenseInputFields(t *testing.T) {
	today := core.NewDate(2024, 5, 20)

	f, err := ExpenseInput{Amount: "12,50", Description: "  Pan  "}.Fields(today)
	require.NoError(t, err)
	assert.Equal(t, ExpenseFields{
		Amount:      core.Money{Cents: 1250},
		Description: "Pan",
		CategoryID:  core.OtherCategoryID,
		Type:        core.TypeNeed,
		Date:        today,
	}, f)

	f, err = ExpenseInput{Amount: "3", Description: "Cine", CategoryID: "entertainment", Type: "WANT", Date: "2024-05-02"}.Fields(today)
	require.NoError(t, err)
	assert.Equal(t, core.TypeWant, f.Type)
	assert.Equal(t, core.NewDate(2024, 5, 2), f.Date)
	assert.Equal(t, "entertainment", f.CategoryID)
}

func TestExpenseInputRejects(t *testing.T) {
	today := core.NewDate(2024, 5, 20)
	tests := []struct {
		name string
		in   ExpenseInput
		want error
	}{
		{"zero amount", ExpenseInput{Amount: "0", Description: "x"}, core.ErrInvalidAmount},
		{"negative amount", ExpenseInput{Amount: "-4", Description: "x"}, core.ErrInvalidAmount},
		{"text amount", ExpenseInput{Amount: "abc", Description: "x"}, core.ErrInvalidAmount},
		{"blank description", ExpenseInput{Amount: "4", Description: "   "}, core.ErrEmptyDescription},
		{"unknown type", ExpenseInput{Amount: "4", Description: "x", Type: "luxury"}, core.ErrInvalidType},
		{"bad date", ExpenseInput{Amount: "4", Description: "x", Date: "20/05/2024"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Fields(today)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMaturityInputFields(t *testing.T) {
	today := core.NewDate(2024, 5, 20)

	f, err := MaturityInput{Service: " Luz ", Amount: "40", Date: "2024-05-10", Type: "need"}.Fields(today)
	require.NoError(t, err)
	assert.Equal(t, MaturityFields{
		Service: "Luz",
		Amount:  core.Money{Cents: 4000},
		Type:    core.TypeNeed,
		Date:    core.NewDate(2024, 5, 10),
	}, f)

	_, err = MaturityInput{Service: "", Amount: "40"}.Fields(today)
	assert.ErrorIs(t, err, core.ErrEmptyService)

	_, err = MaturityInput{Service: "Gas", Amount: ""}.Fields(today)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("savings")
	require.NoError(t, err)
	assert.Equal(t, core.FilterType(core.TypeSavings), f)

	_, err = ParseFilter("nope")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCategoryInput(t *testing.T) {
	name, color, err := CategoryInput(" Mascotas ", "")
	require.NoError(t, err)
	assert.Equal(t, "Mascotas", name)
	assert.Equal(t, "category-other", color)

	_, _, err = CategoryInput("  ", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
