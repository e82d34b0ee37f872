// Package handlers implements the REST endpoints of the record store.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/nett/internal/api/middleware"
)

// NewRouter registers every endpoint on a new ServeMux. budgets, cats and jobsH
// may be nil when the backend stores no budgets, cannot edit categories, or
// mirroring is off.
func NewRouter(txns *TransactionsHandler, budgets *BudgetsHandler, cats *CategoriesHandler, jobsH *JobsHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// Categories endpoints
	categories := func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			txns.ListCategories(w, r)
		} else {
			methodNotAllowed(w)
		}
	}
	mux.HandleFunc("/api/transaction/categories", categories)
	if cats != nil {
		registerCategories(mux, txns, cats)
	} else {
		mux.HandleFunc("/api/category", categories)
	}

	// Transactions endpoints
	mux.HandleFunc("/api/transaction", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			txns.ListTransactions(w, r)
		case http.MethodPut:
			txns.UpdateTransaction(w, r, "")
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/transaction/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transaction/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		switch r.Method {
		case http.MethodPut:
			txns.UpdateTransaction(w, r, id)
		case http.MethodDelete:
			txns.DeleteTransaction(w, r, id)
		default:
			methodNotAllowed(w)
		}
	})

	// Accounts endpoints
	mux.HandleFunc("/api/account", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			txns.ListAccounts(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/account/", func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/api/account/"), "/transactions")
		if !ok || accountID == "" || strings.Contains(accountID, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method == http.MethodGet {
			txns.ListAccountTransactions(w, r, accountID)
		} else {
			methodNotAllowed(w)
		}
	})

	if budgets != nil {
		registerBudgets(mux, budgets)
	}

	// Jobs endpoints
	if jobsH != nil {
		mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				jobsH.ListJobs(w, r)
			} else {
				methodNotAllowed(w)
			}
		})

		mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsH.GetJob(w, r, jobID)
		})
	}

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}

func registerBudgets(mux *http.ServeMux, budgets *BudgetsHandler) {
	mux.HandleFunc("/api/budget", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			budgets.ListBudgets(w, r)
		case http.MethodPost:
			budgets.CreateBudget(w, r)
		case http.MethodPut:
			budgets.UpdateBudget(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/budget/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/budget/")
		if id, ok := strings.CutSuffix(rest, "/periods"); ok && id != "" && !strings.Contains(id, "/") {
			if r.Method == http.MethodGet {
				budgets.BudgetPeriods(w, r, id)
			} else {
				methodNotAllowed(w)
			}
			return
		}
		if rest == "" || strings.Contains(rest, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method == http.MethodDelete {
			budgets.DeleteBudget(w, r, rest)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/budget_period", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			budgets.PeriodsByFrequency(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/budget_period/total", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			budgets.TotalsByFrequency(w, r)
		} else {
			methodNotAllowed(w)
		}
	})
}

func registerCategories(mux *http.ServeMux, txns *TransactionsHandler, cats *CategoriesHandler) {
	mux.HandleFunc("/api/category", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			txns.ListCategories(w, r)
		case http.MethodPost:
			cats.CreateCategory(w, r)
		case http.MethodPut:
			cats.UpdateCategory(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/category/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/category/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method == http.MethodDelete {
			cats.DeleteCategory(w, r, id)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/subcategory", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cats.CreateSubcategory(w, r)
		case http.MethodPut:
			cats.UpdateSubcategory(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/subcategory/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/subcategory/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			cats.GetSubcategory(w, r, id)
		case http.MethodDelete:
			cats.DeleteSubcategory(w, r, id)
		default:
			methodNotAllowed(w)
		}
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
