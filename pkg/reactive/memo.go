package reactive

import (
	"reflect"
	"sync"
)

// memoEntry is the cached output of a computed cell together with the
// dependency snapshot it was computed from.
type memoEntry struct {
	value    any
	snapshot []any
}

var memo = struct {
	sync.Mutex
	entries map[string]memoEntry
}{entries: make(map[string]memoEntry)}

func memoLoad(key string) (memoEntry, bool) {
	memo.Lock()
	defer memo.Unlock()
	e, ok := memo.entries[key]
	return e, ok
}

func memoStore(key string, value any, snapshot []any) {
	memo.Lock()
	memo.entries[key] = memoEntry{value: value, snapshot: snapshot}
	memo.Unlock()
}

func memoEvict(key string) {
	memo.Lock()
	delete(memo.entries, key)
	memo.Unlock()
}

// MemoEntries returns the number of live memo cache entries. Every computed
// cell holds one entry until it is destroyed.
func MemoEntries() int {
	memo.Lock()
	defer memo.Unlock()
	return len(memo.entries)
}

// snapshot reads the current value of every dependency.
// Callers run it untracked.
func snapshot(deps []Source) []any {
	out := make([]any, len(deps))
	for i, d := range deps {
		out[i] = d.Current()
	}
	return out
}

func sameSnapshot(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
