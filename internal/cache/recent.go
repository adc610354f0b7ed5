// Package cache keeps a bounded, expiring set of recently seen keys.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Recent remembers up to maxSize keys for ttl, evicting the least recently
// marked key when full.
type Recent struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
	now     func() time.Time
}

type entry struct {
	key       string
	expiresAt time.Time
}

func NewRecent(maxSize int, ttl time.Duration) *Recent {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Recent{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Seen reports whether key was marked and has not expired.
func (r *Recent) Seen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.items[key]
	if !ok {
		return false
	}
	if r.now().After(elem.Value.(*entry).expiresAt) {
		r.remove(elem)
		return false
	}
	return true
}

// Mark records key, refreshing its expiry if already present.
func (r *Recent) Mark(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expires := r.now().Add(r.ttl)
	if elem, ok := r.items[key]; ok {
		elem.Value.(*entry).expiresAt = expires
		r.order.MoveToFront(elem)
		return
	}
	r.items[key] = r.order.PushFront(&entry{key: key, expiresAt: expires})
	if r.order.Len() > r.maxSize {
		r.remove(r.order.Back())
	}
}

// CleanExpired drops expired keys and returns how many were removed.
func (r *Recent) CleanExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for elem := r.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry).expiresAt) {
			r.remove(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Size returns the number of keys currently held.
func (r *Recent) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Recent) remove(elem *list.Element) {
	delete(r.items, elem.Value.(*entry).key)
	r.order.Remove(elem)
}
