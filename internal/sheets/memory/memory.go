package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"planner/internal/core"
	"planner/internal/log"
	ports "planner/internal/sheets"
)

// Exporter keeps the latest snapshot of each month in memory. It backs the
// worker when no spreadsheet is configured and doubles as a test fake.
type Exporter struct {
	mu      sync.Mutex
	tabs    map[string][][]any
	exports int
	err     error
	logger  *slog.Logger
}

var _ ports.LedgerExporter = (*Exporter)(nil)

func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		tabs:   map[string][][]any{},
		logger: logger.With(log.FieldComponent, log.ComponentSheets),
	}
}

func (e *Exporter) ExportLedger(ctx context.Context, l core.Ledger, categories []core.Category) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	rows := ports.LedgerRows(l, categories)
	e.tabs[ports.TabName(l.Month)] = rows
	e.exports++
	e.logger.DebugContext(ctx, "Exported ledger to memory", log.FieldMonth, l.Month, log.FieldCount, len(rows))
	return nil
}

// FailWith makes subsequent exports return err. Pass nil to recover.
func (e *Exporter) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Tabs returns the exported tab names in order.
func (e *Exporter) Tabs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.tabs))
	for k := range e.tabs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e *Exporter) Rows(tab string) ([][]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.tabs[tab]
	return rows, ok
}

// Exports counts successful exports, including repeats of the same month.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
