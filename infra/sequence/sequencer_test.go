package sequence

import (
	"sync"
	"testing"
)

func TestNextIsMonotonic(t *testing.T) {
	s := New(10)
	if got := s.Next(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
	if got := s.Current(); got != 11 {
		t.Fatalf("expected current 11, got %d", got)
	}
}

func TestObserveOnlyMovesForward(t *testing.T) {
	s := New(0)
	s.Observe(5)
	s.Observe(3)
	if got := s.Current(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	s.Reset(2)
	if got := s.Next(); got != 3 {
		t.Fatalf("expected 3 after reset, got %d", got)
	}
}

func TestConcurrentNextIsUnique(t *testing.T) {
	s := New(0)
	const workers, per = 8, 1000

	var mu sync.Mutex
	seen := make(map[uint64]bool, workers*per)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				v := s.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != workers*per {
		t.Fatalf("expected %d unique values, got %d", workers*per, len(seen))
	}
}
