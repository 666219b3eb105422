package http

import (
	"errors"
	"net/http"
	"time"

	"planner/internal/core"
	"planner/internal/ledger"
	"planner/internal/log"
	"planner/internal/services"
)

// ledgerView is a ledger with its month, which the stored form omits.
type ledgerView struct {
	Month core.MonthKey `json:"month"`
	core.Ledger
}

func viewOf(l core.Ledger) ledgerView {
	return ledgerView{Month: l.Month, Ledger: l}
}

// mutationResponse reports the state after a mutation and whether it
// reached storage. The in-memory state is returned even when it did not.
type mutationResponse struct {
	Ledger    ledgerView `json:"ledger"`
	Item      any        `json:"item,omitempty"`
	Persisted bool       `json:"persisted"`
	Skipped   bool       `json:"skipped,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func (s *Server) writeMutation(w http.ResponseWriter, r *http.Request, code int, item any, status ledger.SaveStatus) {
	resp := mutationResponse{
		Ledger:    viewOf(s.planner.Ledger()),
		Item:      item,
		Persisted: status.Persisted(),
		Skipped:   status.Skipped,
	}
	if status.Err != nil {
		resp.Error = status.Err.Error()
		log.FromContext(r.Context()).WarnContext(r.Context(), "Mutation not persisted",
			log.FieldKey, status.Key, log.FieldError, status.Err)
	}
	NewResponse().Status(code).JSON(resp).Write(w)
}

// requireField writes a 422 when key is absent from the body. A present but
// malformed value is left to the amount coercion.
func requireField(w http.ResponseWriter, p *RequestBodyParser, key string) bool {
	if p.Has(key) {
		return true
	}
	UnprocessableEntityError(key + " is required").Write(w)
	return false
}

// invalidInput writes a 422 for validation failures.
func invalidInput(w http.ResponseWriter, err error) {
	UnprocessableEntityError(err.Error()).Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"month":     s.planner.Month(),
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"security":  s.metrics.snapshot(),
	}).Write(w)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(viewOf(s.planner.Ledger())).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.planner.Summary()).Write(w)
}

// calendarResponse lays out a month grid. FirstWeekday is 0 for Sunday.
type calendarResponse struct {
	Month        core.MonthKey        `json:"month"`
	DaysInMonth  int                  `json:"daysInMonth"`
	FirstWeekday int                  `json:"firstWeekday"`
	Days         map[int]core.DayInfo `json:"days"`
	Date         string               `json:"date,omitempty"`
	Maturities   []core.Maturity      `json:"maturities,omitempty"`
}

// handleCalendar returns the day markers of the active month. With
// ?date=YYYY-MM-DD it also lists the maturities due that day.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	l := s.planner.Ledger()
	resp := calendarResponse{
		Month:        l.Month,
		DaysInMonth:  l.Month.DaysIn(),
		FirstWeekday: int(l.Month.Start().Weekday()),
		Days:         core.MaturityDays(l),
	}
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			invalidInput(w, err)
			return
		}
		resp.Date = d.String()
		resp.Maturities = core.MaturitiesOn(l, d)
		if resp.Maturities == nil {
			resp.Maturities = []core.Maturity{}
		}
	}
	NewResponse().JSON(resp).Write(w)
}

func (s *Server) handleSwitchMonth(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	month, err := core.ParseMonthKey(p.Get("month"))
	if err != nil {
		invalidInput(w, err)
		return
	}
	if err := s.planner.SwitchMonth(r.Context(), month); err != nil {
		invalidInput(w, err)
		return
	}
	NewResponse().JSON(viewOf(s.planner.Ledger())).Write(w)
}

func (s *Server) handleNextMonth(w http.ResponseWriter, r *http.Request) {
	s.planner.NextMonth(r.Context())
	NewResponse().JSON(viewOf(s.planner.Ledger())).Write(w)
}

func (s *Server) handlePrevMonth(w http.ResponseWriter, r *http.Request) {
	s.planner.PrevMonth(r.Context())
	NewResponse().JSON(viewOf(s.planner.Ledger())).Write(w)
}

// handleUpdateIncome accepts any value; unparseable input becomes zero.
func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if !requireField(w, p, "income") {
		return
	}
	status := s.planner.UpdateIncome(r.Context(), p.Get("income"))
	s.writeMutation(w, r, http.StatusOK, nil, status)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if !requireField(w, p, "amount") {
		return
	}
	status := s.planner.UpdateBudget(r.Context(), r.PathValue("id"), p.Get("amount"))
	s.writeMutation(w, r, http.StatusOK, nil, status)
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	filter, err := services.ParseFilter(p.Get("filterType"))
	if err != nil {
		invalidInput(w, err)
		return
	}
	status := s.planner.SetFilterType(r.Context(), filter)
	s.writeMutation(w, r, http.StatusOK, nil, status)
}

func expenseInput(p *RequestBodyParser) services.ExpenseInput {
	return services.ExpenseInput{
		Amount:      p.Get("amount"),
		Description: p.Get("description"),
		CategoryID:  p.Get("categoryId"),
		Type:        p.Get("type"),
		Date:        p.Get("date"),
	}
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	fields, err := expenseInput(p).Fields(s.today())
	if err != nil {
		invalidInput(w, err)
		return
	}
	e, status := s.planner.AddExpense(r.Context(), fields)
	s.writeMutation(w, r, http.StatusCreated, e, status)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	fields, err := expenseInput(p).Fields(s.today())
	if err != nil {
		invalidInput(w, err)
		return
	}
	status := s.planner.EditExpense(r.Context(), r.PathValue("id"), fields)
	s.writeMutation(w, r, http.StatusOK, nil, status)
}

// handleDeleteExpense is idempotent: unknown ids answer 200 with skipped set.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	status := s.planner.DeleteExpense(r.Context(), r.PathValue("id"))
	s.writeMutation(w, r, http.StatusOK, nil, status)
}

func (s *Server) handleAddMaturity(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	fields, err := services.MaturityInput{
		Service: p.Get("service"),
		Amount:  p.Get("amount"),
		Type:    p.Get("type"),
		Date:    p.Get("date"),
	}.Fields(s.today())
	if err != nil {
		invalidInput(w, err)
		return
	}
	m, status := s.planner.AddMaturity(r.Context(), fields)
	s.writeMutation(w, r, http.StatusCreated, m, status)
}

func (s *Server) handleToggleMaturity(w http.ResponseWriter, r *http.Request) {
	status := s.planner.ToggleMaturityStatus(r.Context(), r.PathValue("id"))
	s.writeMutation(w, r, http.StatusOK, nil, status)
}

// handleConvertMaturity records a pending maturity as an expense. Paid
// maturities are refused so the same bill is never counted twice.
func (s *Server) handleConvertMaturity(w http.ResponseWriter, r *http.Request) {
	e, status, err := s.planner.PayMaturity(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, services.ErrMaturityNotFound):
		NotFoundError("maturity not found").Write(w)
		return
	case errors.Is(err, services.ErrMaturityPaid):
		ConflictError("maturity already paid").Write(w)
		return
	}
	s.writeMutation(w, r, http.StatusCreated, e, status)
}

func (s *Server) handleDeleteMaturity(w http.ResponseWriter, r *http.Request) {
	status := s.planner.DeleteMaturity(r.Context(), r.PathValue("id"))
	s.writeMutation(w, r, http.StatusOK, nil, status)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.planner.Categories()).Write(w)
}

type categoryResponse struct {
	Category  core.Category `json:"category"`
	Persisted bool          `json:"persisted"`
	Error     string        `json:"error,omitempty"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	name, color, err := services.CategoryInput(p.Get("name"), p.Get("color"))
	if err != nil {
		invalidInput(w, err)
		return
	}
	cat, status := s.planner.AddCategory(r.Context(), name, color)
	resp := categoryResponse{Category: cat, Persisted: status.Persisted()}
	if status.Err != nil {
		resp.Error = status.Err.Error()
	}
	NewResponse().Status(http.StatusCreated).JSON(resp).Write(w)
}
