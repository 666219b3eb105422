package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"planner/internal/core"
	"planner/internal/ledger"
	"planner/internal/log"
)

// Operation names a ledger mutation. It travels with change notifications.
type Operation string

const (
	OpUpdateIncome    Operation = "update_income"
	OpUpdateBudget    Operation = "update_budget"
	OpAddExpense      Operation = "add_expense"
	OpDeleteExpense   Operation = "delete_expense"
	OpEditExpense     Operation = "edit_expense"
	OpSetFilter       Operation = "set_filter"
	OpAddMaturity     Operation = "add_maturity"
	OpToggleMaturity  Operation = "toggle_maturity"
	OpDeleteMaturity  Operation = "delete_maturity"
	OpConvertMaturity Operation = "convert_maturity"
	OpAddCategory     Operation = "add_category"
)

// LedgerRepository loads and saves monthly ledgers.
type LedgerRepository interface {
	Load(ctx context.Context, month core.MonthKey) core.Ledger
	Save(ctx context.Context, l core.Ledger) ledger.SaveStatus
}

// Catalog is the category list shared by every month.
type Catalog interface {
	Categories() []core.Category
	Add(ctx context.Context, name, color string) (core.Category, ledger.SaveStatus)
}

// EventPublisher is told about every persisted ledger change.
type EventPublisher interface {
	PublishLedgerChanged(ctx context.Context, month core.MonthKey, op string) error
}

// ExpenseFields is the caller-supplied part of an expense.
type ExpenseFields struct {
	Amount      core.Money
	Description string
	CategoryID  string
	Type        core.ExpenseTypeID
	Date        core.Date
}

func (f ExpenseFields) expense(id string) core.Expense {
	return core.Expense{
		ID:          id,
		Amount:      f.Amount,
		Description: f.Description,
		CategoryID:  f.CategoryID,
		Type:        f.Type,
		Date:        f.Date,
	}
}

// MaturityFields is the caller-supplied part of a maturity. New maturities
// always start pending.
type MaturityFields struct {
	Service string
	Amount  core.Money
	Type    core.ExpenseTypeID
	Date    core.Date
}

// Planner owns the active month's ledger. Every mutation builds the next
// ledger on a copy, swaps it in and persists it before the lock is released,
// so readers never see a partially applied change and writes reach the store
// in mutation order.
type Planner struct {
	mu        sync.Mutex
	repo      LedgerRepository
	catalog   Catalog
	active    core.Ledger
	newID     func() string
	publisher EventPublisher
	logger    *slog.Logger
}

type Option func(*Planner)

func WithIDGenerator(f func() string) Option {
	return func(p *Planner) { p.newID = f }
}

func WithPublisher(pub EventPublisher) Option {
	return func(p *Planner) { p.publisher = pub }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// NewPlanner performs the single startup load for month. Later month changes
// go through SwitchMonth.
func NewPlanner(ctx context.Context, repo LedgerRepository, catalog Catalog, month core.MonthKey, opts ...Option) (*Planner, error) {
	if !month.Valid() {
		return nil, fmt.Errorf("new planner: %w", core.ErrInvalidMonthKey)
	}
	p := &Planner{
		repo:    repo,
		catalog: catalog,
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(log.FieldComponent, log.ComponentPlanner)
	p.active = repo.Load(ctx, month)
	return p, nil
}

// Month returns the active month key.
func (p *Planner) Month() core.MonthKey {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active.Month
}

// Ledger returns a deep copy of the active ledger.
func (p *Planner) Ledger() core.Ledger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active.Clone()
}

func (p *Planner) Categories() []core.Category {
	return p.catalog.Categories()
}

// Summary recomputes every aggregate over the active ledger.
func (p *Planner) Summary() core.Summary {
	l := p.Ledger()
	return core.Summarize(l, p.catalog.Categories(), core.ExpenseTypes())
}

// MaturitiesOn lists the active ledger's maturities due on d.
func (p *Planner) MaturitiesOn(d core.Date) []core.Maturity {
	return core.MaturitiesOn(p.Ledger(), d)
}

// SwitchMonth makes month the active ledger. Switching to the month that is
// already active does nothing.
func (p *Planner) SwitchMonth(ctx context.Context, month core.MonthKey) error {
	if !month.Valid() {
		return fmt.Errorf("switch month: %w", core.ErrInvalidMonthKey)
	}
	p.switchTo(ctx, func(core.MonthKey) core.MonthKey { return month })
	return nil
}

func (p *Planner) NextMonth(ctx context.Context) core.MonthKey {
	return p.switchTo(ctx, core.MonthKey.Next)
}

func (p *Planner) PrevMonth(ctx context.Context) core.MonthKey {
	return p.switchTo(ctx, core.MonthKey.Prev)
}

func (p *Planner) switchTo(ctx context.Context, target func(core.MonthKey) core.MonthKey) core.MonthKey {
	p.mu.Lock()
	defer p.mu.Unlock()

	month := target(p.active.Month)
	if month == p.active.Month {
		return month
	}
	// The outgoing ledger needs no flush: every mutation has already persisted it.
	p.active = p.repo.Load(ctx, month)
	p.logger.DebugContext(ctx, "Active month changed", log.FieldMonth, month)
	return month
}

// UpdateIncome sets income from raw user input. Anything that is not a
// positive decimal becomes zero.
func (p *Planner) UpdateIncome(ctx context.Context, raw string) ledger.SaveStatus {
	return p.apply(ctx, OpUpdateIncome, func(l *core.Ledger) bool {
		l.Income = core.CoerceAmount(raw)
		return true
	})
}

// UpdateBudget sets the planned amount for a category, coercing like UpdateIncome.
func (p *Planner) UpdateBudget(ctx context.Context, categoryID, raw string) ledger.SaveStatus {
	return p.apply(ctx, OpUpdateBudget, func(l *core.Ledger) bool {
		l.Budgets[categoryID] = core.CoerceAmount(raw)
		return true
	})
}

// AddExpense prepends a new expense. Callers validate the fields first.
func (p *Planner) AddExpense(ctx context.Context, f ExpenseFields) (core.Expense, ledger.SaveStatus) {
	e := f.expense(p.newID())
	status := p.apply(ctx, OpAddExpense, func(l *core.Ledger) bool {
		l.Expenses = append([]core.Expense{e}, l.Expenses...)
		return true
	})
	return e, status
}

func (p *Planner) DeleteExpense(ctx context.Context, id string) ledger.SaveStatus {
	return p.apply(ctx, OpDeleteExpense, func(l *core.Ledger) bool {
		i := indexOfExpense(l.Expenses, id)
		if i < 0 {
			return false
		}
		l.Expenses = append(l.Expenses[:i], l.Expenses[i+1:]...)
		return true
	})
}

// EditExpense replaces the expense with the given id, keeping the id and
// its position. An unknown id changes nothing.
func (p *Planner) EditExpense(ctx context.Context, id string, f ExpenseFields) ledger.SaveStatus {
	return p.apply(ctx, OpEditExpense, func(l *core.Ledger) bool {
		i := indexOfExpense(l.Expenses, id)
		if i < 0 {
			return false
		}
		l.Expenses[i] = f.expense(id)
		return true
	})
}

// SetFilterType stores the aggregation filter. The value is not checked
// against the known expense types.
func (p *Planner) SetFilterType(ctx context.Context, t core.FilterType) ledger.SaveStatus {
	return p.apply(ctx, OpSetFilter, func(l *core.Ledger) bool {
		l.FilterType = t
		return true
	})
}

// AddMaturity appends a new pending maturity.
func (p *Planner) AddMaturity(ctx context.Context, f MaturityFields) (core.Maturity, ledger.SaveStatus) {
	m := core.Maturity{
		ID:      p.newID(),
		Service: f.Service,
		Amount:  f.Amount,
		Type:    f.Type,
		Date:    f.Date,
		Status:  core.MaturityPending,
	}
	status := p.apply(ctx, OpAddMaturity, func(l *core.Ledger) bool {
		l.Maturities = append(l.Maturities, m)
		return true
	})
	return m, status
}

func (p *Planner) ToggleMaturityStatus(ctx context.Context, id string) ledger.SaveStatus {
	return p.apply(ctx, OpToggleMaturity, func(l *core.Ledger) bool {
		i := indexOfMaturity(l.Maturities, id)
		if i < 0 {
			return false
		}
		l.Maturities[i].Status = l.Maturities[i].Status.Toggle()
		return true
	})
}

func (p *Planner) DeleteMaturity(ctx context.Context, id string) ledger.SaveStatus {
	return p.apply(ctx, OpDeleteMaturity, func(l *core.Ledger) bool {
		i := indexOfMaturity(l.Maturities, id)
		if i < 0 {
			return false
		}
		l.Maturities = append(l.Maturities[:i], l.Maturities[i+1:]...)
		return true
	})
}

// ConvertMaturityToExpense records m as a realized expense in the "other"
// category and marks the matching maturity paid, in one write. The maturity
// stays in the ledger. Callers must not convert an already paid maturity.
func (p *Planner) ConvertMaturityToExpense(ctx context.Context, m core.Maturity) (core.Expense, ledger.SaveStatus) {
	e := m.ToExpense(p.newID())
	status := p.apply(ctx, OpConvertMaturity, func(l *core.Ledger) bool {
		convert(l, m.ID, e)
		return true
	})
	return e, status
}

// Errors returned by PayMaturity.
var (
	ErrMaturityNotFound = errors.New("maturity not found")
	ErrMaturityPaid     = errors.New("maturity already paid")
)

// PayMaturity converts the active ledger's pending maturity with the given
// id. The lookup and the paid check run under the same lock as the write, so
// two concurrent calls for one maturity record a single expense.
func (p *Planner) PayMaturity(ctx context.Context, id string) (core.Expense, ledger.SaveStatus, error) {
	var (
		e      core.Expense
		reject error
	)
	status := p.apply(ctx, OpConvertMaturity, func(l *core.Ledger) bool {
		i := indexOfMaturity(l.Maturities, id)
		switch {
		case i < 0:
			reject = ErrMaturityNotFound
			return false
		case l.Maturities[i].Status == core.MaturityPaid:
			reject = ErrMaturityPaid
			return false
		}
		e = l.Maturities[i].ToExpense(p.newID())
		convert(l, id, e)
		return true
	})
	if reject != nil {
		return core.Expense{}, status, fmt.Errorf("%w: %s", reject, id)
	}
	return e, status, nil
}

func convert(l *core.Ledger, maturityID string, e core.Expense) {
	l.Expenses = append([]core.Expense{e}, l.Expenses...)
	for i := range l.Maturities {
		if l.Maturities[i].ID == maturityID {
			l.Maturities[i].Status = core.MaturityPaid
		}
	}
}

// AddCategory adds a category to the shared catalog.
func (p *Planner) AddCategory(ctx context.Context, name, color string) (core.Category, ledger.SaveStatus) {
	cat, status := p.catalog.Add(ctx, name, color)
	if status.Persisted() {
		p.publish(ctx, p.Month(), OpAddCategory)
	}
	return cat, status
}

// apply runs fn against a copy of the active ledger. When fn reports no
// change the copy is dropped and nothing is written.
func (p *Planner) apply(ctx context.Context, op Operation, fn func(l *core.Ledger) bool) ledger.SaveStatus {
	p.mu.Lock()
	next := p.active.Clone()
	if !fn(&next) {
		month := p.active.Month
		p.mu.Unlock()
		p.logger.DebugContext(ctx, "Mutation matched nothing", log.FieldOperation, op, log.FieldMonth, month)
		return ledger.SaveStatus{Key: ledger.LedgerKey(month), Skipped: true}
	}
	p.active = next
	status := p.repo.Save(ctx, next)
	p.mu.Unlock()

	if status.Err != nil {
		p.logger.WarnContext(ctx, "Ledger change kept in memory only",
			log.FieldOperation, op, log.FieldMonth, next.Month, log.FieldError, status.Err)
		return status
	}
	p.publish(ctx, next.Month, op)
	return status
}

func (p *Planner) publish(ctx context.Context, month core.MonthKey, op Operation) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishLedgerChanged(ctx, month, string(op)); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, op, log.FieldMonth, month, log.FieldError, err)
	}
}

func indexOfExpense(es []core.Expense, id string) int {
	for i := range es {
		if es[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfMaturity(ms []core.Maturity, id string) int {
	for i := range ms {
		if ms[i].ID == id {
			return i
		}
	}
	return -1
}
