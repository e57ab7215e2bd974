package keyword

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/npnhat/vanthu/internal/log"
)


// fakeLister serves keyword lists from memory and can be told to fail.
type fakeLister struct {
	mu       sync.Mutex
	keywords []Keyword
	err      error
}

func (f *fakeLister) List(context.Context) ([]Keyword, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.keywords, nil
}

func (f *fakeLister) set(keywords []Keyword, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywords = keywords
	f.err = err
}

func newTestCache(t *testing.T, keywords ...string) (*Cache, *fakeLister) {
	t.Helper()

	rows := make([]Keyword, len(keywords))
	for i, kw := range keywords {
		rows[i] = Keyword{Keyword: kw}
	}
	lister := &fakeLister{keywords: rows}

	cache, err := NewCache(lister, log.NewNop())
	if err != nil {
		t.Fatalf("NewCache() = %v", err)
	}
	return cache, lister
}

func TestCacheContainsAny(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		input    string // already normalized
		want     bool
	}{
		{
			name:     "keyword as substring",
			keywords: []string{"nghi phep", "bao hiem"},
			input:    "cho toi hoi ve quy dinh nghi phep",
			want:     true,
		},
		{
			name:     "exact match",
			keywords: []string{"nghi phep"},
			input:    "nghi phep",
			want:     true,
		},
		{
			name:     "no match",
			keywords: []string{"nghi phep"},
			input:    "hom nay troi dep",
			want:     false,
		},
		{
			name:     "empty cache",
			keywords: nil,
			input:    "nghi phep",
			want:     false,
		},
		{
			name:     "empty input",
			keywords: []string{"nghi phep"},
			input:    "",
			want:     false,
		},
		{
			name:     "partial keyword does not match",
			keywords: []string{"quy dinh nghi phep"},
			input:    "nghi phep",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, _ := newTestCache(t, tt.keywords...)
			if err := cache.Load(context.Background()); err != nil {
				t.Fatalf("Load() = %v", err)
			}

			got := cache.ContainsAny(tt.input)
			if got != tt.want {
				t.Errorf("ContainsAny(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCacheLoadNormalizesDefensively(t *testing.T) {
	// Rows written before a normalization change may carry diacritics.
	cache, _ := newTestCache(t, "Nghỉ Phép")
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if !cache.ContainsAny("don xin nghi phep") {
		t.Error("cache should match against the re-normalized keyword")
	}
}

func TestCacheLoadFailOpen(t *testing.T) {
	cache, lister := newTestCache(t, "nghi phep")
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("initial Load() = %v", err)
	}

	lister.set(nil, errors.New("connection refused"))
	if err := cache.Load(context.Background()); err == nil {
		t.Fatal("Load() should report the reload failure")
	}

	// Previous set must survive the failed reload.
	if !cache.ContainsAny("xin nghi phep") {
		t.Error("previous cache must remain in place after a failed reload")
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}
}

func TestCacheLoadReplacesWholesale(t *testing.T) {
	cache, lister := newTestCache(t, "old keyword")
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	lister.set([]Keyword{{Keyword: "new keyword"}}, nil)
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cache.ContainsAny("the old keyword is gone") {
		t.Error("stale keyword visible after reload")
	}
	if !cache.ContainsAny("a new keyword appears") {
		t.Error("reloaded keyword not visible")
	}
}

// TestCacheAtomicSwap hammers Load and ContainsAny concurrently. Each load
// installs a pair of keywords that always travel together, so a reader
// observing one without the other would prove a partially-built set leaked.
func TestCacheAtomicSwap(t *testing.T) {
	defer goleak.VerifyNone(t)

	setA := []Keyword{{Keyword: "alpha one"}, {Keyword: "alpha two"}}
	setB := []Keyword{{Keyword: "beta one"}, {Keyword: "beta two"}}

	cache, lister := newTestCache(t)
	lister.set(setA, nil)
	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	done := make(chan struct{})
	var writer sync.WaitGroup

	// Writer flips between the two sets until told to stop.
	writer.Add(1)
	go func() {
		defer writer.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if i%2 == 0 {
				lister.set(setB, nil)
			} else {
				lister.set(setA, nil)
			}
			_ = cache.Load(context.Background())
		}
	}()

	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 2000; i++ {
				// Both sets have exactly two entries; observing any other
				// size means a partially-built set leaked to a reader.
				if size := cache.Size(); size != 2 {
					t.Errorf("Size() = %d, want 2 (partial set observed)", size)
					return
				}

				// Exercise the read path under contention.
				_ = cache.ContainsAny("alpha one and beta one")
			}
		}()
	}

	readers.Wait()
	close(done)
	writer.Wait()
}
