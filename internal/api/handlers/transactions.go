package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/nett/internal/api/middleware"
	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/jobs"
	"github.com/dvloznov/nett/internal/store"
)

// TransactionsHandler handles category, transaction and account endpoints.
type TransactionsHandler struct {
	repo      store.TransactionRepository
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler. publisher may be nil,
// in which case updates and deletes are not mirrored.
func NewTransactionsHandler(repo store.TransactionRepository, publisher jobs.Publisher, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// ListCategories handles GET /api/category
func (h *TransactionsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	middleware.WriteJSON(w, http.StatusOK, categories)
}

// ListTransactions handles GET /api/transaction. Optional start_date and
// end_date (YYYY-MM-DD, inclusive) narrow the result.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var startDate, endDate time.Time
	var err error

	if s := query.Get("start_date"); s != "" {
		startDate, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if s := query.Get("end_date"); s != "" {
		endDate, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	}

	transactions, err := h.repo.ListTransactions(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, inRange(transactions, startDate, endDate))
}

func inRange(txns []domain.Transaction, start, end time.Time) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if !start.IsZero() && t.Date.Before(start) {
			continue
		}
		if !end.IsZero() && !t.Date.Before(end.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// UpdateTransaction handles PUT /api/transaction and PUT /api/transaction/{id}.
// The body is {id, ...changedFields}; "subcategory": null clears the subcategory.
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, pathID string) {
	ctx := r.Context()

	id, update, err := decodeUpdate(r, pathID)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := h.repo.UpdateTransaction(ctx, id, update)
	if err != nil {
		h.writeStoreError(w, err, id, "Failed to update transaction")
		return
	}

	h.log.Info().Str("transaction_id", id).Strs("fields", update.Fields()).Msg("Transaction updated")
	h.mirror(ctx, id, jobs.MirrorUpsert)

	middleware.WriteJSON(w, http.StatusOK, txn)
}

// decodeUpdate reads the PUT body. The id comes from the path when present and
// must agree with the body's id.
func decodeUpdate(r *http.Request, pathID string) (string, domain.TransactionUpdate, error) {
	var update domain.TransactionUpdate

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", update, badRequest("Invalid request body")
	}

	var bodyID string
	if raw, ok := body["id"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &bodyID); err != nil {
			return "", update, badRequest("Invalid id")
		}
	}

	id := pathID
	switch {
	case id == "" && bodyID == "":
		return "", update, badRequest("Transaction id is required")
	case id == "":
		id = bodyID
	case bodyID != "" && bodyID != id:
		return "", update, badRequest(fmt.Sprintf("Transaction id %s does not match %s", bodyID, id))
	}

	if raw, ok := body[domain.FieldName]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return "", update, badRequest("Invalid name")
		}
		update.Name = &name
	}

	if raw, ok := body[domain.FieldCategory]; ok {
		if isNull(raw) {
			return "", update, badRequest("Category cannot be cleared")
		}
		var cat domain.Category
		if err := json.Unmarshal(raw, &cat); err != nil || cat.ID == "" {
			return "", update, badRequest("Invalid category")
		}
		update.Category = &cat
	}

	if raw, ok := body[domain.FieldSubcategory]; ok {
		if isNull(raw) {
			update.ClearSubcategory = true
		} else {
			var sub domain.Subcategory
			if err := json.Unmarshal(raw, &sub); err != nil || sub.ID == "" {
				return "", update, badRequest("Invalid subcategory")
			}
			update.Subcategory = &sub
		}
	}

	return id, update, nil
}

// badRequest is a validation failure whose text is shown to the user.
type badRequest string

func (e badRequest) Error() string { return string(e) }

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// DeleteTransaction handles DELETE /api/transaction/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	if err := h.repo.DeleteTransaction(ctx, id); err != nil {
		h.writeStoreError(w, err, id, "Failed to delete transaction")
		return
	}

	h.log.Info().Str("transaction_id", id).Msg("Transaction deleted")
	h.mirror(ctx, id, jobs.MirrorArchive)

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Transaction %s deleted successfully.", id),
	})
}

// ListAccounts handles GET /api/account
func (h *TransactionsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repo.ListAccounts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, accounts)
}

// ListAccountTransactions handles GET /api/account/{id}/transactions
func (h *TransactionsHandler) ListAccountTransactions(w http.ResponseWriter, r *http.Request, accountID string) {
	transactions, err := h.repo.ListAccountTransactions(r.Context(), accountID)
	if err != nil {
		h.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to list account transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list account transactions")
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// mirror enqueues a Notion mirror job. A failed enqueue does not fail the request.
func (h *TransactionsHandler) mirror(ctx context.Context, transactionID string, action jobs.MirrorAction) {
	if h.publisher == nil {
		return
	}
	job := &jobs.MirrorJob{TransactionID: transactionID, Action: action}
	if err := h.publisher.PublishMirror(ctx, job); err != nil {
		h.log.Warn().Err(err).Str("transaction_id", transactionID).Str("action", string(action)).Msg("Failed to enqueue mirror job")
		return
	}
	h.log.Debug().Str("job_id", job.JobID).Str("transaction_id", transactionID).Msg("Mirror job enqueued")
}

func (h *TransactionsHandler) writeStoreError(w http.ResponseWriter, err error, id, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Transaction %s not found.", id))
	case errors.Is(err, store.ErrEmptyUpdate):
		middleware.WriteError(w, http.StatusBadRequest, "No fields to update")
	case errors.Is(err, store.ErrSubcategoryMismatch):
		middleware.WriteError(w, http.StatusBadRequest, "Subcategory does not belong to the selected category")
	default:
		h.log.Error().Err(err).Str("transaction_id", id).Msg(fallback)
		middleware.WriteError(w, http.StatusInternalServerError, fallback)
	}
}
