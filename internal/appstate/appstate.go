// Package appstate is the small global UI state shared by the CLI commands:
// the link token, the last API error and two refresh flags.
package appstate

import "sync"

// Error is the last error reported by the aggregation link flow.
type Error struct {
	Message string `json:"error_message"`
	Code    string `json:"error_code"`
	Type    string `json:"error_type"`
}

// State is the full UI state.
type State struct {
	LinkToken           string `json:"link_token"`
	Error               Error  `json:"error"`
	AccountsNeedRefresh bool   `json:"accounts_need_refresh"`
	RedirectLoading     bool   `json:"redirect_loading"`
}

// Patch is a partial State; nil fields are left untouched.
type Patch struct {
	LinkToken           *string
	Error               *Error
	AccountsNeedRefresh *bool
	RedirectLoading     *bool
}

// Action is one state transition.
type Action interface {
	apply(State) State
}

// SetState merges a Patch into the state.
type SetState struct{ Patch Patch }

// TriggerAccountRefresh flags the account list as stale.
type TriggerAccountRefresh struct{}

// ClearAccountRefresh clears the stale flag.
type ClearAccountRefresh struct{}

// SetRedirectLoading sets the redirect spinner.
type SetRedirectLoading struct{ Loading bool }

func (a SetState) apply(s State) State {
	p := a.Patch
	if p.LinkToken != nil {
		s.LinkToken = *p.LinkToken
	}
	if p.Error != nil {
		s.Error = *p.Error
	}
	if p.AccountsNeedRefresh != nil {
		s.AccountsNeedRefresh = *p.AccountsNeedRefresh
	}
	if p.RedirectLoading != nil {
		s.RedirectLoading = *p.RedirectLoading
	}
	return s
}

func (TriggerAccountRefresh) apply(s State) State {
	s.AccountsNeedRefresh = true
	return s
}

func (ClearAccountRefresh) apply(s State) State {
	s.AccountsNeedRefresh = false
	return s
}

func (a SetRedirectLoading) apply(s State) State {
	s.RedirectLoading = a.Loading
	return s
}

// Reduce returns the state after action. A nil action leaves it unchanged.
func Reduce(s State, action Action) State {
	if action == nil {
		return s
	}
	return action.apply(s)
}

// Store holds the state and notifies subscribers after every dispatch.
type Store struct {
	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

// NewStore creates a store with the initial state.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(State))}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and calls every subscriber with the new state.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	state := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
	return state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
