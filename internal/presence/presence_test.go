package presence

import (
	"fmt"
	"sync"
	"testing"
)

func TestJoinAndGet(t *testing.T) {
	r := NewRegistry()

	p := r.Join("c1", "alice", "lobby")
	if p.Username != "alice" || p.Room != "lobby" {
		t.Fatalf("unexpected presence: %+v", p)
	}

	got, ok := r.Get("c1")
	if !ok {
		t.Fatal("expected to find presence for c1")
	}
	if got != p {
		t.Errorf("expected %+v, got %+v", p, got)
	}
}

func TestGetNotFound(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("missing"); ok {
		t.Error("expected not-found for unknown connection")
	}
}

func TestLeaveRemovesRecord(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "alice", "lobby")

	p, ok := r.Leave("c1")
	if !ok {
		t.Fatal("expected leave to find the record")
	}
	if p.Username != "alice" {
		t.Errorf("expected alice, got %q", p.Username)
	}

	if _, ok := r.Get("c1"); ok {
		t.Error("expected record to be gone after leave")
	}
	if members := r.MembersOf("lobby"); len(members) != 0 {
		t.Errorf("expected empty room after leave, got %v", members)
	}
}

func TestLeaveNeverJoined(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Leave("ghost"); ok {
		t.Error("expected not-found leaving a never-joined connection")
	}
}

func TestMembersOfInsertionOrder(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "alice", "lobby")
	r.Join("c2", "bob", "other")
	r.Join("c3", "carol", "lobby")
	r.Join("c4", "dave", "lobby")

	members := r.MembersOf("lobby")
	want := []string{"alice", "carol", "dave"}
	if len(members) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(members))
	}
	for i, name := range want {
		if members[i].Username != name {
			t.Errorf("position %d: expected %q, got %q", i, name, members[i].Username)
		}
	}
}

func TestMembersOfExcludesOtherRooms(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "alice", "lobby")
	r.Join("c2", "bob", "games")

	for _, m := range r.MembersOf("lobby") {
		if m.Room != "lobby" {
			t.Errorf("member %q belongs to room %q", m.Username, m.Room)
		}
	}
	if len(r.MembersOf("empty")) != 0 {
		t.Error("expected no members for a room nobody joined")
	}
}

func TestRejoinKeepsSingleRecord(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "alice", "lobby")
	r.Join("c1", "alice", "lobby")

	if r.Count() != 1 {
		t.Fatalf("expected a single record, got %d", r.Count())
	}
	if members := r.MembersOf("lobby"); len(members) != 1 {
		t.Fatalf("expected one member, got %d", len(members))
	}
}

func TestConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := ConnID(fmt.Sprintf("c%d", n))
			r.Join(id, fmt.Sprintf("user%d", n), "lobby")
			r.Get(id)
			r.MembersOf("lobby")
			if n%2 == 0 {
				r.Leave(id)
			}
		}(i)
	}
	wg.Wait()

	if r.Count() != 25 {
		t.Errorf("expected 25 records to remain, got %d", r.Count())
	}
	if len(r.MembersOf("lobby")) != 25 {
		t.Errorf("expected 25 members, got %d", len(r.MembersOf("lobby")))
	}
}
