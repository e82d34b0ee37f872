package table

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/notify"
	"github.com/shopspring/decimal"
)

type updateCall struct {
	id     string
	update domain.TransactionUpdate
}

// fakeStore is a hand-written RecordStore recording every call.
type fakeStore struct {
	mu         sync.Mutex
	categories []domain.Category
	listErr    error
	updateErr  error
	deleteErrs map[string]error
	onUpdate   func(ctx context.Context, id string) error
	updates    []updateCall
	deletes    []string
}

func (s *fakeStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.categories, nil
}

func (s *fakeStore) UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) error {
	s.mu.Lock()
	s.updates = append(s.updates, updateCall{id: id, update: update})
	hook := s.onUpdate
	err := s.updateErr
	s.mu.Unlock()

	if hook != nil {
		return hook(ctx, id)
	}
	return err
}

func (s *fakeStore) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return s.deleteErrs[id]
}

func (s *fakeStore) updateCalls() []updateCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]updateCall(nil), s.updates...)
}

func (s *fakeStore) deleteCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

type sentMessage struct {
	message  string
	severity notify.Severity
}

// recordingSink keeps every notification in order.
type recordingSink struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *recordingSink) Trigger(message string, severity notify.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{message: message, severity: severity})
}

func (s *recordingSink) Close() {}

func (s *recordingSink) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func (s *recordingSink) last() sentMessage {
	msgs := s.messages()
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

var (
	food = domain.Category{ID: "cat-food", Name: "Food", Subcategories: []domain.Subcategory{
		{ID: "sub-dining", Name: "Dining", CategoryID: "cat-food"},
		{ID: "sub-groceries", Name: "Groceries", CategoryID: "cat-food"},
	}}
	travel = domain.Category{ID: "cat-travel", Name: "Travel", Subcategories: []domain.Subcategory{
		{ID: "sub-airfare", Name: "Airfare", CategoryID: "cat-travel"},
	}}
	income = domain.Category{ID: "cat-income", Name: "Income"}
)

func catRef(c domain.Category) *domain.Category {
	cc := c.Clone()
	return &cc
}

func subRef(c domain.Category, name string) *domain.Subcategory {
	s, _ := c.Subcategory(name)
	return s
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func fixtures() []domain.Transaction {
	return []domain.Transaction{
		{
			ID: "t1", Name: "Coffee Shop", Amount: decimal.RequireFromString("4.50"),
			Category: catRef(food), Subcategory: subRef(food, "Dining"),
			Date: day(2024, 1, 5), AccountID: "acc-1", AccountName: "Checking",
			AccountType: domain.AccountTypeDepository, LogoURL: "https://logo.test/coffee.png",
		},
		{
			ID: "t2", Name: "Grocery Store", Amount: decimal.RequireFromString("82.10"),
			Category: catRef(food), Subcategory: subRef(food, "Groceries"),
			Date: day(2024, 1, 10), AccountID: "acc-1", AccountName: "Checking",
			AccountType: domain.AccountTypeDepository,
		},
		{
			ID: "t3", Name: "airline", Amount: decimal.RequireFromString("420"),
			Category: catRef(travel), Subcategory: subRef(travel, "Airfare"),
			Date: day(2023, 12, 20), AccountID: "acc-2", AccountName: "Credit Card",
			AccountType: domain.AccountTypeCredit,
		},
		{
			ID: "t4", Name: "Paycheck", Amount: decimal.RequireFromString("-2500"),
			Category: catRef(income),
			Date:     day(2024, 1, 1), AccountID: "acc-1", AccountName: "Checking",
			AccountType: domain.AccountTypeDepository,
		},
	}
}

// newTestEngine builds an engine over fixtures with a 10ms search debounce.
func newTestEngine(t *testing.T, store *fakeStore, opts Options) (*Engine, *recordingSink) {
	t.Helper()
	if store.categories == nil {
		store.categories = []domain.Category{food, travel, income}
	}
	if opts.SearchDebounce == 0 {
		opts.SearchDebounce = 10 * time.Millisecond
	}
	sink := &recordingSink{}
	e, err := New(context.Background(), store, sink, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(e.Close)
	e.SetTransactions(fixtures())
	if err := e.LoadCategories(context.Background()); err != nil {
		t.Fatalf("LoadCategories failed: %v", err)
	}
	return e, sink
}

func rowIDs(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
