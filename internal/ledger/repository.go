// Package ledger persists monthly ledgers and the category catalog on top
// of a storage.Store.
//
// Loading never fails: a missing, unreadable or undecodable entry yields
// defaults and a logged warning. Saving reports its outcome through
// SaveStatus instead of an error so callers decide whether to surface it.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/storage"
)

const (
	// KeyPrefix is shared by every persisted entry.
	KeyPrefix = "planner-"
	// CatalogKey holds the JSON array of categories.
	CatalogKey = KeyPrefix + "categories"
)

// LedgerKey is the storage key for a month's ledger.
func LedgerKey(month core.MonthKey) string {
	return KeyPrefix + string(month)
}

// SaveStatus is the outcome of a persist attempt. The in-memory state a
// caller holds stays authoritative whatever the status says.
type SaveStatus struct {
	Key string `json:"key,omitempty"`
	// Skipped is set when a mutation changed nothing and no write was issued.
	Skipped bool  `json:"skipped,omitempty"`
	Err     error `json:"-"`
}

// Persisted reports whether a write actually reached the store.
func (s SaveStatus) Persisted() bool { return s.Err == nil && !s.Skipped }

type Repository struct {
	store  storage.Store
	logger *slog.Logger
}

func NewRepository(store storage.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:  store,
		logger: logger.With(log.FieldComponent, log.ComponentLedger),
	}
}

// ledgerPatch is the persisted shape with every field optional. Absent or
// null fields keep the default.
type ledgerPatch struct {
	Income     *core.Money           `json:"income"`
	Budgets    map[string]core.Money `json:"budgets"`
	Expenses   []core.Expense        `json:"expenses"`
	Maturities []core.Maturity       `json:"maturities"`
	FilterType *core.FilterType      `json:"filterType"`
}

func (p ledgerPatch) apply(l core.Ledger) core.Ledger {
	if p.Income != nil {
		l.Income = *p.Income
	}
	if p.Budgets != nil {
		l.Budgets = p.Budgets
	}
	if p.Expenses != nil {
		l.Expenses = p.Expenses
	}
	if p.Maturities != nil {
		l.Maturities = p.Maturities
	}
	if p.FilterType != nil && *p.FilterType != "" {
		l.FilterType = *p.FilterType
	}
	return l
}

// Load returns the ledger stored for month merged over defaults.
func (r *Repository) Load(ctx context.Context, month core.MonthKey) core.Ledger {
	defaults := core.NewLedger(month)
	key := LedgerKey(month)

	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.DebugContext(ctx, "No stored ledger, using defaults", log.FieldMonth, month)
		return defaults
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Ledger read failed, using defaults",
			log.FieldMonth, month, log.FieldKey, key, log.FieldError, err)
		return defaults
	}

	var patch ledgerPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		r.logger.WarnContext(ctx, "Stored ledger is corrupt, using defaults",
			log.FieldMonth, month, log.FieldKey, key, log.FieldError, err)
		return defaults
	}
	return patch.apply(defaults)
}

// Save writes the whole ledger under its month key.
func (r *Repository) Save(ctx context.Context, l core.Ledger) SaveStatus {
	if !l.Month.Valid() {
		return SaveStatus{Err: fmt.Errorf("save ledger %q: %w", l.Month, core.ErrInvalidMonthKey)}
	}
	key := LedgerKey(l.Month)

	data, err := json.Marshal(l)
	if err != nil {
		r.logger.ErrorContext(ctx, "Ledger encode failed", log.FieldMonth, l.Month, log.FieldError, err)
		return SaveStatus{Key: key, Err: fmt.Errorf("encode ledger: %w", err)}
	}
	if err := r.store.Put(ctx, key, data); err != nil {
		r.logger.ErrorContext(ctx, "Ledger persist failed",
			log.FieldMonth, l.Month, log.FieldKey, key, log.FieldError, err)
		return SaveStatus{Key: key, Err: fmt.Errorf("persist ledger: %w", err)}
	}
	r.logger.DebugContext(ctx, "Ledger saved", log.FieldMonth, l.Month, "bytes", len(data))
	return SaveStatus{Key: key}
}

// Months lists every month with a stored ledger, oldest first.
func (r *Repository) Months(ctx context.Context) ([]core.MonthKey, error) {
	keys, err := r.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list ledger keys: %w", err)
	}
	months := make([]core.MonthKey, 0, len(keys))
	for _, k := range keys {
		m, err := core.ParseMonthKey(strings.TrimPrefix(k, KeyPrefix))
		if err != nil {
			continue
		}
		months = append(months, m)
	}
	return months, nil
}
