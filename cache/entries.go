package cache

import (
	"container/heap"
	"slices"
	"strings"
	"time"
)

// entry is a stored value with its absolute expiry. index is the entry's
// position in the expiry heap.
type entry struct {
	key       string
	value     any
	expiresAt time.Time
	index     int
}

func (e *entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// expiryHeap orders entries by expiresAt, soonest first.
type expiryHeap []*entry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// entryStore maps keys to entries and tracks their expiry order.
// It is not safe for concurrent use; TagCache serializes access.
type entryStore struct {
	entries map[string]*entry
	expiry  expiryHeap
}

func newEntryStore() *entryStore {
	return &entryStore{entries: make(map[string]*entry)}
}

// get returns the live entry for key. Entries whose TTL has lapsed are
// reported absent even if the reaper has not dropped them yet.
func (s *entryStore) get(key string, now time.Time) (*entry, bool) {
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		return nil, false
	}
	return e, true
}

// has reports whether key occupies a slot, expired or not.
func (s *entryStore) has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// put stores value under key, replacing any previous entry.
func (s *entryStore) put(key string, value any, expiresAt time.Time) {
	if e, ok := s.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		heap.Fix(&s.expiry, e.index)
		return
	}
	e := &entry{key: key, value: value, expiresAt: expiresAt}
	s.entries[key] = e
	heap.Push(&s.expiry, e)
}

func (s *entryStore) delete(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	heap.Remove(&s.expiry, e.index)
	return true
}

func (s *entryStore) clear() {
	s.entries = make(map[string]*entry)
	s.expiry = nil
}

func (s *entryStore) len() int {
	return len(s.entries)
}

// due returns the keys whose TTL has lapsed at now, grouped by expiry
// instant, soonest group first. Keys within a group are sorted. The entries
// stay in the store; the caller runs the expiry callback and then deletes
// them.
func (s *entryStore) due(now time.Time) [][]string {
	if len(s.expiry) == 0 || !s.expiry[0].expired(now) {
		return nil
	}
	// A child never expires before its parent, so only expired subtrees
	// need to be walked.
	var lapsed []*entry
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if i >= len(s.expiry) || !s.expiry[i].expired(now) {
			continue
		}
		lapsed = append(lapsed, s.expiry[i])
		stack = append(stack, 2*i+1, 2*i+2)
	}
	slices.SortFunc(lapsed, func(a, b *entry) int {
		if c := a.expiresAt.Compare(b.expiresAt); c != 0 {
			return c
		}
		return strings.Compare(a.key, b.key)
	})

	var groups [][]string
	for i, e := range lapsed {
		if i == 0 || !e.expiresAt.Equal(lapsed[i-1].expiresAt) {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], e.key)
	}
	return groups
}

// nextExpiry returns the soonest expiry in the store.
func (s *entryStore) nextExpiry() (time.Time, bool) {
	if len(s.expiry) == 0 {
		return time.Time{}, false
	}
	return s.expiry[0].expiresAt, true
}
