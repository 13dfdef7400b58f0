package state

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryManagerDefaultsToIdle(t *testing.T) {
	m := NewMemoryManager()
	if got := m.GetState(1); got != StateIdle {
		t.Fatalf("GetState = %q, want %q", got, StateIdle)
	}
	if m.InProgress(1) {
		t.Fatal("fresh user must not be in progress")
	}
	sess := m.Get(1)
	if sess.State != StateIdle || len(sess.Fields) != 0 {
		t.Fatalf("unexpected default session: %+v", sess)
	}
}

func TestMemoryManagerFieldsSurviveTransitions(t *testing.T) {
	const user = int64(7)
	m := NewMemoryManager()

	m.SetState(user, State("awaiting_email"))
	m.SetField(user, "plan_id", "EU-10GB")
	m.SetField(user, "amount", 12.5)

	m.SetState(user, State("ready"))
	if plan, ok := m.FieldString(user, "plan_id"); !ok || plan != "EU-10GB" {
		t.Fatalf("plan_id = %q, %v", plan, ok)
	}
	if amount, ok := m.FieldFloat64(user, "amount"); !ok || amount != 12.5 {
		t.Fatalf("amount = %v, %v", amount, ok)
	}

	m.ClearState(user)
	if got := m.GetState(user); got != StateIdle {
		t.Fatalf("GetState after ClearState = %q", got)
	}
	if _, ok := m.Field(user, "plan_id"); !ok {
		t.Fatal("ClearState must not discard fields")
	}

	m.ClearFields(user)
	if _, ok := m.Field(user, "plan_id"); ok {
		t.Fatal("ClearFields must discard fields")
	}
}

func TestMemoryManagerGetReturnsCopy(t *testing.T) {
	const user = int64(3)
	m := NewMemoryManager()
	m.SetField(user, "memo", "AB12CD34")

	sess := m.Get(user)
	sess.Fields["memo"] = "mutated"

	if memo, _ := m.FieldString(user, "memo"); memo != "AB12CD34" {
		t.Fatalf("session copy leaked mutation: memo = %q", memo)
	}
}

func TestSerializeOrdersSameUser(t *testing.T) {
	const user = int64(42)
	m := NewMemoryManager()

	var mu sync.Mutex
	var order []int
	var inFlight int

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(seq int) {
			defer wg.Done()
			_ = m.Serialize(user, func() error {
				mu.Lock()
				inFlight++
				if inFlight > 1 {
					mu.Unlock()
					t.Error("two requests processed concurrently for one user")
					return nil
				}
				order = append(order, seq)
				inFlight--
				mu.Unlock()
				return nil
			})
		}(i)
	}
	wg.Wait()

	if len(order) != 32 {
		t.Fatalf("processed %d requests, want 32", len(order))
	}
}

func TestSerializeDistinctUsersDoNotBlock(t *testing.T) {
	m := NewMemoryManager()
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = m.Serialize(1, func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	done := make(chan struct{})
	go func() {
		_ = m.Serialize(2, func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("second user blocked behind first user's session lock")
	}
	close(release)
}
