package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"planner/internal/core"
	"planner/internal/ledger"
	"planner/internal/storage"
	"planner/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore counts calls and can be told to fail writes.
type recordingStore struct {
	storage.Store
	mu     sync.Mutex
	gets   int
	puts   []string
	putErr error
}

func (s *recordingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.Store.Get(ctx, key)
}

func (s *recordingStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.puts = append(s.puts, key)
	err := s.putErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.Put(ctx, key, value)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakePublisher) PublishLedgerChanged(_ context.Context, month core.MonthKey, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, string(month)+":"+op)
	return f.err
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type fixture struct {
	store   *recordingStore
	repo    *ledger.Repository
	pub     *fakePublisher
	planner *Planner
}

func newFixture(t *testing.T, seed map[string]string) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &recordingStore{Store: memory.NewWithData(seed)}
	repo := ledger.NewRepository(store, logger)
	catalog := ledger.OpenCatalog(ctx, store, logger)
	pub := &fakePublisher{}

	p, err := NewPlanner(ctx, repo, catalog, "2024-05",
		WithIDGenerator(sequentialIDs()),
		WithPublisher(pub),
		WithLogger(logger))
	require.NoError(t, err)
	return &fixture{store: store, repo: repo, pub: pub, planner: p}
}

func luz() MaturityFields {
	return MaturityFields{Service: "Luz", Amount: core.Money{Cents: 10000}, Type: core.TypeNeed, Date: core.NewDate(2024, 5, 10)}
}

func TestNewPlannerLoadsOnce(t *testing.T) {
	f := newFixture(t, map[string]string{ledger.LedgerKey("2024-05"): `{"income":500}`})

	// one read for the catalog, one for the ledger
	assert.Equal(t, 2, f.store.gets)
	assert.Equal(t, core.MonthKey("2024-05"), f.planner.Month())
	assert.Equal(t, core.Money{Cents: 50000}, f.planner.Ledger().Income)
	assert.Empty(t, f.store.puts)
}

func TestNewPlannerRejectsBadMonth(t *testing.T) {
	repo := ledger.NewRepository(memory.New(), nil)
	_, err := NewPlanner(context.Background(), repo, ledger.OpenCatalog(context.Background(), memory.New(), nil), "2024-13")
	assert.ErrorIs(t, err, core.ErrInvalidMonthKey)
}

func TestUpdateIncomeCoercion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	tests := []struct {
		raw  string
		want core.Money
	}{
		{"abc", core.Money{}},
		{"-50", core.Money{}},
		{"1500", core.Money{Cents: 150000}},
	}
	for _, tt := range tests {
		status := f.planner.UpdateIncome(ctx, tt.raw)
		require.True(t, status.Persisted(), tt.raw)
		assert.Equal(t, tt.want, f.planner.Ledger().Income, tt.raw)
		assert.Equal(t, tt.want, f.repo.Load(ctx, "2024-05").Income, tt.raw)
	}
	assert.Len(t, f.store.puts, 3)
}

func TestUpdateBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.planner.UpdateBudget(ctx, "food", "1000")
	f.planner.UpdateBudget(ctx, "brand-new", "oops")

	l := f.planner.Ledger()
	assert.Equal(t, core.Money{Cents: 100000}, l.Budgets["food"])
	v, ok := l.Budgets["brand-new"]
	assert.True(t, ok)
	assert.True(t, v.IsZero())
}

func TestAddExpensePrepends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	first, _ := f.planner.AddExpense(ctx, ExpenseFields{Amount: core.Money{Cents: 100}, Description: "a", CategoryID: "food", Type: core.TypeNeed, Date: core.NewDate(2024, 5, 1)})
	second, status := f.planner.AddExpense(ctx, ExpenseFields{Amount: core.Money{Cents: 200}, Description: "b", CategoryID: "home", Type: core.TypeWant, Date: core.NewDate(2024, 5, 2)})
	require.True(t, status.Persisted())

	assert.Equal(t, "id-1", first.ID)
	assert.Equal(t, "id-2", second.ID)

	l := f.planner.Ledger()
	require.Len(t, l.Expenses, 2)
	assert.Equal(t, second, l.Expenses[0])
	assert.Equal(t, first, l.Expenses[1])
}

func TestDeleteExpenseIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	e, _ := f.planner.AddExpense(ctx, ExpenseFields{Amount: core.Money{Cents: 100}, Description: "a", Date: core.NewDate(2024, 5, 1)})
	before := f.planner.Ledger()
	writes := len(f.store.puts)

	status := f.planner.DeleteExpense(ctx, "missing")
	assert.True(t, status.Skipped)
	assert.NoError(t, status.Err)
	assert.Equal(t, before, f.planner.Ledger())
	assert.Len(t, f.store.puts, writes)

	status = f.planner.DeleteExpense(ctx, e.ID)
	assert.True(t, status.Persisted())
	assert.Empty(t, f.planner.Ledger().Expenses)
}

func TestEditExpense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, _ = f.planner.AddExpense(ctx, ExpenseFields{Amount: core.Money{Cents: 100}, Description: "old", Date: core.NewDate(2024, 5, 1)})
	target, _ := f.planner.AddExpense(ctx, ExpenseFields{Amount: core.Money{Cents: 300}, Description: "edit me", Date: core.NewDate(2024, 5, 2)})

	// A date outside the ledger's month is accepted as-is.
	edited := ExpenseFields{Amount: core.Money{Cents: 999}, Description: "edited", CategoryID: "home", Type: core.TypeDebt, Date: core.NewDate(2024, 7, 9)}
	status := f.planner.EditExpense(ctx, target.ID, edited)
	require.True(t, status.Persisted())

	l := f.planner.Ledger()
	require.Len(t, l.Expenses, 2)
	assert.Equal(t, target.ID, l.Expenses[0].ID)
	assert.Equal(t, "edited", l.Expenses[0].Description)
	assert.Equal(t, core.NewDate(2024, 7, 9), l.Expenses[0].Date)

	t.Run("unknown id creates nothing", func(t *testing.T) {
		before := f.planner.Ledger()
		status := f.planner.EditExpense(ctx, "ghost", edited)
		assert.True(t, status.Skipped)
		assert.Equal(t, before, f.planner.Ledger())
	})
}

func TestSetFilterTypeUnchecked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.planner.SetFilterType(ctx, "luxury")
	assert.Equal(t, core.FilterType("luxury"), f.planner.Ledger().FilterType)
	assert.Equal(t, core.FilterType("luxury"), f.repo.Load(ctx, "2024-05").FilterType)
}

func TestMaturityLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	m, status := f.planner.AddMaturity(ctx, luz())
	require.True(t, status.Persisted())
	assert.Equal(t, core.MaturityPending, m.Status)

	other, _ := f.planner.AddMaturity(ctx, MaturityFields{Service: "Gas", Amount: core.Money{Cents: 500}, Date: core.NewDate(2024, 5, 20)})
	l := f.planner.Ledger()
	require.Len(t, l.Maturities, 2)
	assert.Equal(t, m.ID, l.Maturities[0].ID, "maturities are appended")

	f.planner.ToggleMaturityStatus(ctx, m.ID)
	assert.Equal(t, core.MaturityPaid, f.planner.Ledger().Maturities[0].Status)
	f.planner.ToggleMaturityStatus(ctx, m.ID)
	assert.Equal(t, core.MaturityPending, f.planner.Ledger().Maturities[0].Status)

	assert.True(t, f.planner.ToggleMaturityStatus(ctx, "ghost").Skipped)
	assert.True(t, f.planner.DeleteMaturity(ctx, "ghost").Skipped)

	f.planner.DeleteMaturity(ctx, m.ID)
	l = f.planner.Ledger()
	require.Len(t, l.Maturities, 1)
	assert.Equal(t, other.ID, l.Maturities[0].ID)
}

func TestConvertMaturityToExpenseAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{
		ledger.LedgerKey("2024-05"): `{"maturities":[{"id":"m1","service":"Luz","amount":100,"type":"need","date":"2024-05-10","status":"pending"}]}`,
	})
	m := f.planner.Ledger().Maturities[0]
	writes := len(f.store.puts)

	e, status := f.planner.ConvertMaturityToExpense(ctx, m)
	require.True(t, status.Persisted())
	assert.Len(t, f.store.puts, writes+1, "convert is a single write")

	assert.Equal(t, core.Money{Cents: 10000}, e.Amount)
	assert.Equal(t, "Luz", e.Description)
	assert.Equal(t, core.TypeNeed, e.Type)
	assert.Equal(t, core.NewDate(2024, 5, 10), e.Date)
	assert.Equal(t, core.OtherCategoryID, e.CategoryID)

	for _, l := range []core.Ledger{f.planner.Ledger(), f.repo.Load(ctx, "2024-05")} {
		require.Len(t, l.Expenses, 1)
		assert.Equal(t, e, l.Expenses[0])
		require.Len(t, l.Maturities, 1)
		assert.Equal(t, core.MaturityPaid, l.Maturities[0].Status)
	}
}

func TestPayMaturity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	m, _ := f.planner.AddMaturity(ctx, luz())

	e, status, err := f.planner.PayMaturity(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, status.Persisted())
	assert.Equal(t, "Luz", e.Description)
	assert.Equal(t, core.MaturityPaid, f.planner.Ledger().Maturities[0].Status)

	_, status, err = f.planner.PayMaturity(ctx, "ghost")
	assert.ErrorIs(t, err, ErrMaturityNotFound)
	assert.True(t, status.Skipped)
}

func TestPayMaturityRefusesPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	m, _ := f.planner.AddMaturity(ctx, luz())
	_, _, err := f.planner.PayMaturity(ctx, m.ID)
	require.NoError(t, err)
	writes := len(f.store.puts)

	_, status, err := f.planner.PayMaturity(ctx, m.ID)
	assert.ErrorIs(t, err, ErrMaturityPaid)
	assert.True(t, status.Skipped)
	assert.Len(t, f.store.puts, writes, "refused payment writes nothing")
	assert.Len(t, f.planner.Ledger().Expenses, 1)
}

func TestPayMaturityConcurrentCallsRecordOneExpense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	m, _ := f.planner.AddMaturity(ctx, luz())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		paid int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.planner.PayMaturity(ctx, m.ID)
			if err == nil {
				mu.Lock()
				paid++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrMaturityPaid)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, paid)
	assert.Len(t, f.planner.Ledger().Expenses, 1)
}

func TestConvertNeverObservedHalfApplied(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	var ids []string
	for i := 0; i < 20; i++ {
		m, _ := f.planner.AddMaturity(ctx, luz())
		ids = append(ids, m.ID)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			_, _, _ = f.planner.PayMaturity(ctx, id)
		}
	}()
	for i := 0; i < 200; i++ {
		l := f.planner.Ledger()
		paid := 0
		for _, m := range l.Maturities {
			if m.Status == core.MaturityPaid {
				paid++
			}
		}
		require.Equal(t, paid, len(l.Expenses))
	}
	wg.Wait()
}

func TestSwitchMonth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{ledger.LedgerKey("2024-06"): `{"income":42}`})
	f.planner.UpdateIncome(ctx, "10")
	gets := f.store.gets

	require.NoError(t, f.planner.SwitchMonth(ctx, "2024-05"))
	assert.Equal(t, gets, f.store.gets, "same month does not reload")

	require.NoError(t, f.planner.SwitchMonth(ctx, "2024-06"))
	assert.Equal(t, core.Money{Cents: 4200}, f.planner.Ledger().Income)

	assert.ErrorIs(t, f.planner.SwitchMonth(ctx, "junk"), core.ErrInvalidMonthKey)
	assert.Equal(t, core.MonthKey("2024-06"), f.planner.Month())

	assert.Equal(t, core.MonthKey("2024-05"), f.planner.PrevMonth(ctx))
	assert.Equal(t, core.Money{Cents: 1000}, f.planner.Ledger().Income)
}

func TestNextMonthRollsOverYear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	require.NoError(t, f.planner.SwitchMonth(ctx, "2024-12"))
	assert.Equal(t, core.MonthKey("2025-01"), f.planner.NextMonth(ctx))
	assert.Equal(t, core.MonthKey("2024-12"), f.planner.PrevMonth(ctx))
}

func TestMonthIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{ledger.LedgerKey("2024-06"): `{"income":42}`})
	before, err := f.store.Store.Get(ctx, ledger.LedgerKey("2024-06"))
	require.NoError(t, err)

	f.planner.UpdateIncome(ctx, "1")
	f.planner.AddExpense(ctx, ExpenseFields{Amount: core.Money{Cents: 1}, Description: "x", Date: core.NewDate(2024, 5, 1)})

	after, err := f.store.Store.Get(ctx, ledger.LedgerKey("2024-06"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.store.putErr = errors.New("quota exceeded")

	status := f.planner.UpdateIncome(ctx, "1500")
	require.Error(t, status.Err)
	assert.False(t, status.Persisted())
	assert.Equal(t, core.Money{Cents: 150000}, f.planner.Ledger().Income)
	assert.Empty(t, f.pub.events)
}

func TestPublishesChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.pub.err = errors.New("broker down")

	status := f.planner.UpdateIncome(ctx, "1")
	assert.True(t, status.Persisted(), "publish failures do not affect the mutation")
	f.planner.DeleteExpense(ctx, "ghost")
	_, _ = f.planner.AddCategory(ctx, "Mascotas", "category-pets")

	assert.Equal(t, []string{"2024-05:update_income", "2024-05:add_category"}, f.pub.events)
}

func TestAddCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	cat, status := f.planner.AddCategory(ctx, "Mascotas", "category-pets")
	require.True(t, status.Persisted())
	cats := f.planner.Categories()
	assert.Equal(t, cat, cats[len(cats)-1])
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.planner.UpdateIncome(ctx, "2000")
	f.planner.UpdateBudget(ctx, "food", "1000")
	f.planner.AddExpense(ctx, ExpenseFields{Amount: core.Money{Cents: 80000}, Description: "super", CategoryID: "food", Type: core.TypeNeed, Date: core.NewDate(2024, 5, 3)})
	f.planner.AddMaturity(ctx, luz())

	s := f.planner.Summary()
	assert.Equal(t, core.MonthKey("2024-05"), s.Month)
	assert.Equal(t, core.Money{Cents: 100000}, s.Remaining)
	assert.Equal(t, core.StatusWarning, s.Categories[0].Status)
	assert.InDelta(t, 100, s.TypeDistribution[0].Percentage, 1e-9)
	assert.Equal(t, core.DayInfo{HasAny: true, HasPending: true}, s.MaturityDays[10])

	assert.Len(t, f.planner.MaturitiesOn(core.NewDate(2024, 5, 10)), 1)
}

func TestLedgerReturnsCopy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.planner.UpdateBudget(ctx, "food", "10")

	l := f.planner.Ledger()
	l.Budgets["food"] = core.Money{Cents: 1}
	assert.Equal(t, core.Money{Cents: 1000}, f.planner.Ledger().Budgets["food"])
}
