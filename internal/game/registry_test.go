package game

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(DefaultConfig(), testCatalog(t, nil), &fakeEngine{})
}

func TestGetOrCreateIdempotent(t *testing.T) {
	r := newTestRegistry(t)

	const workers = 16
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = r.GetOrCreate("ROOM01")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatalf("worker %d got a different session", i)
		}
	}
	if got, _ := r.Counts(); got != 1 {
		t.Fatalf("session count = %d, want 1", got)
	}
}

func TestJoinCreatesAndRegistersSession(t *testing.T) {
	r := newTestRegistry(t)

	s, playerID, events, err := r.Join("ROOM01", "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if playerID == "" {
		t.Fatal("empty player id")
	}
	if len(events) == 0 {
		t.Fatal("no events from join")
	}
	if r.Get("ROOM01") != s {
		t.Fatal("joined session not registered under its room code")
	}
}

func TestJoinFailureRegistersNoSession(t *testing.T) {
	r := newTestRegistry(t)

	if _, _, _, err := r.Join("ROOM01", ""); err == nil {
		t.Fatal("expected error for empty username")
	}
	if r.Get("ROOM01") != nil {
		t.Fatal("failed join left a session behind")
	}
}

func TestRemoveIfEmptyKeepsOccupiedRoom(t *testing.T) {
	r := newTestRegistry(t)

	s, _, _, err := r.Join("ROOM01", "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if r.RemoveIfEmpty("ROOM01") {
		t.Fatal("removed a room with a player in it")
	}
	if r.Get("ROOM01") != s {
		t.Fatal("occupied session gone after RemoveIfEmpty")
	}
}

func TestRemoveIfEmptyDropsEmptyRoom(t *testing.T) {
	r := newTestRegistry(t)
	r.GetOrCreate("ROOM01")

	if !r.RemoveIfEmpty("ROOM01") {
		t.Fatal("empty room not removed")
	}
	if r.Get("ROOM01") != nil {
		t.Fatal("removed session still resolvable")
	}
	if r.RemoveIfEmpty("ROOM01") {
		t.Fatal("second removal reported success")
	}
}

func TestConcurrentJoinAndCleanupKeepOneSession(t *testing.T) {
	r := newTestRegistry(t)

	const joiners = 16
	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				r.RemoveIfEmpty("ROOM01")
			}
		}
	}()

	sessions := make([]*Session, joiners)
	var joinWG sync.WaitGroup
	for i := 0; i < joiners; i++ {
		joinWG.Add(1)
		go func(i int) {
			defer joinWG.Done()
			s, _, _, err := r.Join("ROOM01", fmt.Sprintf("player%d", i))
			if err != nil {
				t.Errorf("join %d: %v", i, err)
				return
			}
			sessions[i] = s
		}(i)
	}
	joinWG.Wait()
	close(done)
	wg.Wait()

	live := r.Get("ROOM01")
	if live == nil {
		t.Fatal("session with players was removed")
	}
	for i, s := range sessions {
		if s != live {
			t.Fatalf("joiner %d landed in a detached session", i)
		}
	}
	if _, players := r.Counts(); players != joiners {
		t.Fatalf("player count = %d, want %d", players, joiners)
	}
}

func TestRemoveDropsSession(t *testing.T) {
	r := newTestRegistry(t)
	r.GetOrCreate("ROOM01")
	r.Remove("ROOM01")

	if r.Get("ROOM01") != nil {
		t.Fatal("removed session still resolvable")
	}
}

func TestCountsIncludePlayers(t *testing.T) {
	r := newTestRegistry(t)
	s := r.GetOrCreate("ROOM01")
	if _, _, err := s.Join("alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := s.Join("bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	sessions, players := r.Counts()
	if sessions != 1 || players != 2 {
		t.Fatalf("counts = (%d, %d), want (1, 2)", sessions, players)
	}
}

func TestNewRoomCodeShape(t *testing.T) {
	r := newTestRegistry(t)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := r.NewRoomCode()
		if len(code) != codeLength {
			t.Fatalf("code %q length = %d, want %d", code, len(code), codeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeChars, ch) {
				t.Fatalf("code %q contains invalid character %q", code, ch)
			}
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Fatalf("only %d distinct codes out of 100", len(seen))
	}
}
