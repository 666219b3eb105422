package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/core"
)

func TestNew(t *testing.T) {
	f, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "es-AR", f.Locale())

	_, err = New("not a locale!")
	assert.Error(t, err)
}

func TestCurrency(t *testing.T) {
	es, err := New("es-AR")
	require.NoError(t, err)
	en, err := New("en-US")
	require.NoError(t, err)

	assert.Equal(t, "$ 15.000", es.Currency(core.Money{Cents: 1_500_000}))
	assert.Equal(t, "$ 1.234.567", es.Currency(core.Money{Cents: 123_456_700}))
	assert.Equal(t, "-$ 25.000", es.Currency(core.Money{Cents: -2_500_000}))
	assert.Equal(t, "$ 0", es.Currency(core.Money{}))
	assert.Equal(t, "$ 1,234,567", en.Currency(core.Money{Cents: 123_456_700}))
}

func TestAmountAndPercent(t *testing.T) {
	es, err := New("es-AR")
	require.NoError(t, err)
	en, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "12,50", es.Amount(core.Money{Cents: 1250}))
	assert.Equal(t, "12.50", en.Amount(core.Money{Cents: 1250}))
	assert.Equal(t, "82,3%", es.Percent(82.3))
	assert.Equal(t, "100%", en.Percent(100))
}

func TestDateAndMonth(t *testing.T) {
	es, err := New("es-AR")
	require.NoError(t, err)
	en, err := New("en-GB")
	require.NoError(t, err)
	fr, err := New("fr")
	require.NoError(t, err)

	d := core.NewDate(2024, 5, 5)
	assert.Equal(t, "5 may", es.Date(d))
	assert.Equal(t, "5 May", en.Date(d))
	assert.Equal(t, "", es.Date(core.Date{}))
	assert.Equal(t, "12 sep", es.Date(core.NewDate(2024, 9, 12)))

	assert.Equal(t, "mayo de 2024", es.Month("2024-05"))
	assert.Equal(t, "May 2024", en.Month("2024-05"))
	assert.Equal(t, "diciembre de 2023", fr.Month("2023-12"), "unknown languages use Spanish names")
	assert.Equal(t, "bogus", es.Month("bogus"))
}
