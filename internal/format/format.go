// Package format renders amounts, dates and months for people, following
// the configured locale.
package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"planner/internal/core"
)

const DefaultLocale = "es-AR"

var monthNames = map[language.Base][12]string{
	mustBase("es"): {"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
	mustBase("en"): {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
}

func mustBase(s string) language.Base {
	b, err := language.ParseBase(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Formatter is safe for concurrent use.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
	months  [12]string
}

// New returns a formatter for locale, a BCP 47 tag such as "es-AR".
// Month names fall back to Spanish for languages without a table.
func New(locale string) (*Formatter, error) {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	base, _ := tag.Base()
	months, ok := monthNames[base]
	if !ok {
		months = monthNames[mustBase("es")]
	}
	return &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
		months:  months,
	}, nil
}

func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Currency formats m as whole currency units with locale grouping,
// e.g. "$ 15.000" for es-AR.
func (f *Formatter) Currency(m core.Money) string {
	units := m.Float64()
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return sign + "$ " + f.printer.Sprint(number.Decimal(units, number.MaxFractionDigits(0)))
}

// Amount formats m with two decimals, for tables where cents matter.
func (f *Formatter) Amount(m core.Money) string {
	return f.printer.Sprint(number.Decimal(m.Float64(),
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Percent formats a 0-100 percentage with at most one decimal.
func (f *Formatter) Percent(p float64) string {
	return f.printer.Sprint(number.Decimal(p, number.MaxFractionDigits(1))) + "%"
}

// Date renders a day and abbreviated month, e.g. "5 may". Zero dates render
// empty.
func (f *Formatter) Date(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	name := f.months[d.Month()-1]
	short := []rune(name)
	if len(short) > 3 {
		short = short[:3]
	}
	return fmt.Sprintf("%d %s", d.Day(), string(short))
}

// Month renders a month key as "mayo de 2024" (or "May 2024").
func (f *Formatter) Month(k core.MonthKey) string {
	if !k.Valid() {
		return k.String()
	}
	start := k.Start()
	name := f.months[start.Month()-1]
	if base, _ := f.tag.Base(); base == mustBase("en") {
		return fmt.Sprintf("%s %d", name, start.Year())
	}
	return fmt.Sprintf("%s de %d", name, start.Year())
}
