// Package apiclient talks to the nett REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/logger"
)

// APIError is the error body returned by the API for non-2xx responses.
type APIError struct {
	StatusCode     int    `json:"status_code"`
	DisplayMessage string `json:"display_message"`
	ErrorCode      int    `json:"error_code,omitempty"`
	ErrorType      string `json:"error_type,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.DisplayMessage)
}

// DisplayMessage returns a message fit for the user: the server's display
// message when err carries one, a generic network message otherwise.
func DisplayMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.DisplayMessage != "" {
		return "Error: " + apiErr.DisplayMessage
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled."
	}
	return "Network error occurred. Please try again."
}

// Client is a REST client for the nett API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("New: parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("New: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListCategories returns every category with its subcategories.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := c.do(ctx, http.MethodGet, "/api/category", nil, nil, &cats); err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return cats, nil
}

// ListTransactions returns every transaction.
func (c *Client) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transaction", nil, nil, &txns); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txns, nil
}

// ListAccounts returns every linked account.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := c.do(ctx, http.MethodGet, "/api/account", nil, nil, &accounts); err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

// ListAccountTransactions returns the transactions of one account.
func (c *Client) ListAccountTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	path := "/api/account/" + url.PathEscape(accountID) + "/transactions"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &txns); err != nil {
		return nil, fmt.Errorf("ListAccountTransactions: %w", err)
	}
	return txns, nil
}

// UpdateTransaction sends the changed fields of transaction id.
func (c *Client) UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) error {
	body, err := update.MarshalWithID(id)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: encoding body: %w", err)
	}
	if err := c.do(ctx, http.MethodPut, "/api/transaction/"+url.PathEscape(id), nil, body, nil); err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}
	return nil
}

// DeleteTransaction deletes transaction id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/transaction/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	return nil
}

// ListBudgets returns every budget.
func (c *Client) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	var budgets []domain.Budget
	if err := c.do(ctx, http.MethodGet, "/api/budget", nil, nil, &budgets); err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	return budgets, nil
}

// BudgetPeriods returns the periods of budget id from start to now.
func (c *Client) BudgetPeriods(ctx context.Context, id string, start time.Time) ([]domain.BudgetPeriod, error) {
	q := url.Values{}
	if !start.IsZero() {
		q.Set("start_date", start.Format("2006-01-02"))
	}
	var periods []domain.BudgetPeriod
	if err := c.do(ctx, http.MethodGet, "/api/budget/"+url.PathEscape(id)+"/periods", q, nil, &periods); err != nil {
		return nil, fmt.Errorf("BudgetPeriods: %w", err)
	}
	return periods, nil
}

// CreateCategory adds a category named name and returns it.
func (c *Client) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	var cat domain.Category
	if err := c.sendJSON(ctx, http.MethodPost, "/api/category", map[string]string{"name": name}, &cat); err != nil {
		return nil, fmt.Errorf("CreateCategory: %w", err)
	}
	return &cat, nil
}

// RenameCategory renames category id.
func (c *Client) RenameCategory(ctx context.Context, id, name string) error {
	body := map[string]string{"id": id, "name": name}
	if err := c.sendJSON(ctx, http.MethodPut, "/api/category", body, nil); err != nil {
		return fmt.Errorf("RenameCategory: %w", err)
	}
	return nil
}

// DeleteCategory deletes category id along with its subcategories.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/category/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	return nil
}

// GetSubcategory returns subcategory id.
func (c *Client) GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error) {
	var sub domain.Subcategory
	if err := c.do(ctx, http.MethodGet, "/api/subcategory/"+url.PathEscape(id), nil, nil, &sub); err != nil {
		return nil, fmt.Errorf("GetSubcategory: %w", err)
	}
	return &sub, nil
}

// CreateSubcategory adds s under s.CategoryID and returns it with its id.
func (c *Client) CreateSubcategory(ctx context.Context, s domain.Subcategory) (*domain.Subcategory, error) {
	s.ID = ""
	var sub domain.Subcategory
	if err := c.sendJSON(ctx, http.MethodPost, "/api/subcategory", s, &sub); err != nil {
		return nil, fmt.Errorf("CreateSubcategory: %w", err)
	}
	return &sub, nil
}

// UpdateSubcategory changes the name and description of subcategory s.ID.
func (c *Client) UpdateSubcategory(ctx context.Context, s domain.Subcategory) error {
	if err := c.sendJSON(ctx, http.MethodPut, "/api/subcategory", s, nil); err != nil {
		return fmt.Errorf("UpdateSubcategory: %w", err)
	}
	return nil
}

// DeleteSubcategory deletes subcategory id.
func (c *Client) DeleteSubcategory(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/subcategory/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}
	return c.do(ctx, method, path, nil, body, out)
}

// do sends one request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out interface{}) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("method", method).Str("url", u.String()).Msg("API request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.DisplayMessage == "" {
			apiErr.DisplayMessage = strings.TrimSpace(string(data))
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}
