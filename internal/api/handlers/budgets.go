package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/nett/internal/api/middleware"
	"github.com/dvloznov/nett/internal/budget"
	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

// BudgetsHandler handles budget and budget period endpoints.
type BudgetsHandler struct {
	budgets store.BudgetRepository
	txns    store.TransactionRepository
	log     zerolog.Logger
	now     func() time.Time
}

// NewBudgetsHandler creates a new budgets handler.
func NewBudgetsHandler(budgets store.BudgetRepository, txns store.TransactionRepository, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{
		budgets: budgets,
		txns:    txns,
		log:     log,
		now:     time.Now,
	}
}

// ListBudgets handles GET /api/budget
func (h *BudgetsHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.budgets.ListBudgets(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list budgets")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list budgets")
		return
	}
	if budgets == nil {
		budgets = []domain.Budget{}
	}
	middleware.WriteJSON(w, http.StatusOK, budgets)
}

// CreateBudget handles POST /api/budget. Any id in the body is ignored.
func (h *BudgetsHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBudget(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	b.ID = ""

	if err := h.budgets.CreateBudget(r.Context(), &b); err != nil {
		h.log.Error().Err(err).Msg("Failed to create budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create budget")
		return
	}

	h.log.Info().Str("budget_id", b.ID).Str("category_id", b.CategoryID).Msg("Budget created")
	middleware.WriteJSON(w, http.StatusCreated, b)
}

// UpdateBudget handles PUT /api/budget with the full budget, id included.
func (h *BudgetsHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	b, err := decodeBudget(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if b.ID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Budget id is required")
		return
	}

	if err := h.budgets.UpdateBudget(r.Context(), b); err != nil {
		h.writeStoreError(w, err, b.ID, "Failed to update budget")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, b)
}

// DeleteBudget handles DELETE /api/budget/{id}
func (h *BudgetsHandler) DeleteBudget(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.budgets.DeleteBudget(r.Context(), id); err != nil {
		h.writeStoreError(w, err, id, "Failed to delete budget")
		return
	}
	h.log.Info().Str("budget_id", id).Msg("Budget deleted")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Budget %s deleted successfully.", id),
	})
}

// BudgetPeriods handles GET /api/budget/{id}/periods. Periods run from the one
// containing start_date, or the oldest transaction when absent, up to today.
func (h *BudgetsHandler) BudgetPeriods(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	b, err := h.budgets.GetBudget(ctx, id)
	if err != nil {
		h.writeStoreError(w, err, id, "Failed to load budget")
		return
	}

	catalog, txns, ok := h.load(w, r)
	if !ok {
		return
	}

	var start time.Time
	if s := r.URL.Query().Get("start_date"); s != "" {
		start, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	} else if start, ok = budget.OldestDate(txns); !ok {
		middleware.WriteJSON(w, http.StatusOK, []domain.BudgetPeriod{})
		return
	}

	periods, err := budget.Periods(*b, catalog, txns, start, h.now())
	if err != nil {
		h.writePeriodError(w, err)
		return
	}
	if periods == nil {
		periods = []domain.BudgetPeriod{}
	}
	middleware.WriteJSON(w, http.StatusOK, periods)
}

// PeriodsByFrequency handles GET /api/budget_period?frequency=. It returns the
// periods of every budget with that frequency, from the oldest transaction on.
func (h *BudgetsHandler) PeriodsByFrequency(w http.ResponseWriter, r *http.Request) {
	freq, err := frequencyParam(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	catalog, txns, ok := h.load(w, r)
	if !ok {
		return
	}

	all := []domain.BudgetPeriod{}
	oldest, ok := budget.OldestDate(txns)
	if !ok {
		middleware.WriteJSON(w, http.StatusOK, all)
		return
	}

	budgets, err := h.budgets.ListBudgets(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list budgets")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list budgets")
		return
	}

	for _, b := range budgets {
		if b.Frequency != freq {
			continue
		}
		periods, err := budget.Periods(b, catalog, txns, oldest, h.now())
		if err != nil {
			h.writePeriodError(w, err)
			return
		}
		all = append(all, periods...)
	}
	middleware.WriteJSON(w, http.StatusOK, all)
}

// TotalsByFrequency handles GET /api/budget_period/total?frequency=. It returns
// total spending per period across all transactions.
func (h *BudgetsHandler) TotalsByFrequency(w http.ResponseWriter, r *http.Request) {
	freq, err := frequencyParam(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.txns.ListTransactions(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	windows, err := budget.SpendingByFrequency(freq, txns, h.now())
	if err != nil {
		h.writePeriodError(w, err)
		return
	}
	if windows == nil {
		windows = []budget.Window{}
	}
	middleware.WriteJSON(w, http.StatusOK, windows)
}

func (h *BudgetsHandler) load(w http.ResponseWriter, r *http.Request) (domain.Catalog, []domain.Transaction, bool) {
	ctx := r.Context()

	categories, err := h.txns.ListCategories(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return nil, nil, false
	}
	txns, err := h.txns.ListTransactions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return nil, nil, false
	}
	return domain.Catalog(categories), txns, true
}

func frequencyParam(r *http.Request) (domain.BudgetFrequency, error) {
	raw := strings.ToLower(r.URL.Query().Get("frequency"))
	freq, err := budget.ParseFrequency(raw)
	if err != nil {
		return "", badRequest(fmt.Sprintf("Frequency %q not supported", raw))
	}
	return freq, nil
}

func decodeBudget(r *http.Request) (domain.Budget, error) {
	var b domain.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		return b, badRequest("Invalid request body")
	}
	if b.CategoryID == "" {
		return b, badRequest("category_id is required")
	}
	if !b.Amount.IsPositive() {
		return b, badRequest("amount must be positive")
	}
	if _, err := budget.ParseFrequency(string(b.Frequency)); err != nil {
		return b, badRequest(fmt.Sprintf("Frequency %q not supported", b.Frequency))
	}
	return b, nil
}

func (h *BudgetsHandler) writePeriodError(w http.ResponseWriter, err error) {
	if errors.Is(err, budget.ErrUnsupportedFrequency) {
		middleware.WriteError(w, http.StatusBadRequest, "Budget periods are not available for this frequency")
		return
	}
	h.log.Error().Err(err).Msg("Failed to compute budget periods")
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute budget periods")
}

func (h *BudgetsHandler) writeStoreError(w http.ResponseWriter, err error, id, fallback string) {
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Budget %s not found.", id))
		return
	}
	h.log.Error().Err(err).Str("budget_id", id).Msg(fallback)
	middleware.WriteError(w, http.StatusInternalServerError, fallback)
}
