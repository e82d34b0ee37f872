package appstate

import "testing"

func ptr[T any](v T) *T { return &v }

func TestReduce(t *testing.T) {
	base := State{LinkToken: "link-1", RedirectLoading: true}

	tests := []struct {
		name   string
		action Action
		want   State
	}{
		{"set state merges", SetState{Patch{LinkToken: ptr("link-2")}}, State{LinkToken: "link-2", RedirectLoading: true}},
		{"set error", SetState{Patch{Error: &Error{Message: "ITEM_LOGIN_REQUIRED"}}}, State{LinkToken: "link-1", RedirectLoading: true, Error: Error{Message: "ITEM_LOGIN_REQUIRED"}}},
		{"trigger refresh", TriggerAccountRefresh{}, State{LinkToken: "link-1", RedirectLoading: true, AccountsNeedRefresh: true}},
		{"clear refresh", ClearAccountRefresh{}, State{LinkToken: "link-1", RedirectLoading: true}},
		{"redirect loading", SetRedirectLoading{Loading: false}, State{LinkToken: "link-1"}},
		{"nil action", nil, base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reduce(base, tt.action); got != tt.want {
				t.Errorf("Reduce() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStore_DispatchAndSubscribe(t *testing.T) {
	store := NewStore()

	var seen []bool
	unsubscribe := store.Subscribe(func(s State) {
		seen = append(seen, s.AccountsNeedRefresh)
	})

	store.Dispatch(TriggerAccountRefresh{})
	if !store.State().AccountsNeedRefresh {
		t.Error("AccountsNeedRefresh should be set")
	}
	store.Dispatch(ClearAccountRefresh{})

	unsubscribe()
	store.Dispatch(TriggerAccountRefresh{})

	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Errorf("subscriber saw %v, want [true false]", seen)
	}
}
