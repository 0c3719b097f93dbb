package memory

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

// ============================================================
// Semantics
// ============================================================

func TestStore_LastWriteWins(t *testing.T) {
	store := New()

	store.Set("k", []byte("v1"))
	store.Set("k", []byte("v2"))

	got, ok := store.Get("k")
	if !ok {
		t.Fatal("Get(k) reported absent")
	}
	if string(got) != "v2" {
		t.Errorf("Get(k) = %q, want v2", got)
	}
}

func TestStore_MissingKey(t *testing.T) {
	store := New()
	got, ok := store.Get("never-set")
	if ok || got != nil {
		t.Errorf("Get(never-set) = (%q, %v), want (nil, false)", got, ok)
	}
}

func TestStore_EmptyValue(t *testing.T) {
	store := New()
	store.Set("empty", nil)

	got, ok := store.Get("empty")
	if !ok {
		t.Fatal("empty value reported absent")
	}
	if len(got) != 0 {
		t.Errorf("Get(empty) = %q, want empty", got)
	}
}

func TestStore_ValuesAreCopied(t *testing.T) {
	store := New()
	in := []byte("abc")
	store.Set("k", in)
	in[0] = 'x'

	out, _ := store.Get("k")
	if string(out) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", out)
	}
	out[0] = 'y'

	again, _ := store.Get("k")
	if string(again) != "abc" {
		t.Errorf("returned value aliased stored data: %q", again)
	}
}

func TestStore_Options(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"default", nil, DefaultShards},
		{"sharded", []Option{WithShards(8)}, 8},
		{"invalid falls back", []Option{WithShards(3)}, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.opts...).Shards(); got != tt.want {
				t.Errorf("Shards() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStore_Len(t *testing.T) {
	store := New(WithShards(4))
	for i := 0; i < 10; i++ {
		store.Set(fmt.Sprintf("k%d", i), []byte{byte(i)})
	}
	store.Set("k0", []byte("again"))

	if store.Len() != 10 {
		t.Errorf("Len() = %d, want 10", store.Len())
	}
}

// ============================================================
// Concurrency
// ============================================================

func TestStore_ConcurrentDisjointKeys(t *testing.T) {
	for _, shards := range []int{1, 16} {
		t.Run(fmt.Sprintf("shards=%d", shards), func(t *testing.T) {
			store := New(WithShards(shards))
			const workers, ops = 32, 200

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < ops; i++ {
						key := fmt.Sprintf("w%d-k%d", w, i%10)
						val := []byte(fmt.Sprintf("%d:%d", w, i))
						store.Set(key, val)
						got, ok := store.Get(key)
						if !ok || !bytes.Equal(got, val) {
							t.Errorf("worker %d: Get(%s) = %q, want %q", w, key, got, val)
							return
						}
					}
				}(w)
			}
			wg.Wait()

			if store.Len() != workers*10 {
				t.Errorf("Len() = %d, want %d", store.Len(), workers*10)
			}
		})
	}
}

func TestStore_ConcurrentSameKeyNeverTorn(t *testing.T) {
	store := New()
	a := bytes.Repeat([]byte{'a'}, 1024)
	b := bytes.Repeat([]byte{'b'}, 1024)
	store.Set("k", a)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				store.Set("k", a)
			} else {
				store.Set("k", b)
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		got, _ := store.Get("k")
		if !bytes.Equal(got, a) && !bytes.Equal(got, b) {
			t.Fatalf("observed torn value of length %d", len(got))
		}
	}
	close(stop)
	wg.Wait()
}
