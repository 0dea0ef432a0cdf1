package notify

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const aggregateKeyRunes = 100

// Decision tells the caller whether a repeated error should be delivered.
type Decision struct {
	Send  bool
	Count int
	// Since is the time elapsed since the first occurrence.
	Since time.Duration
}

// Aggregator collapses repeats of the same error.
type Aggregator interface {
	Observe(context, message string) Decision
}

type aggregateEntry struct {
	count     int
	firstSeen time.Time
	lastSent  time.Time
}

// LRUAggregator keeps the most recent distinct errors in a bounded LRU.
// Evicted keys start over at count 1.
type LRUAggregator struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *aggregateEntry]
	every   int
	window  time.Duration
	now     func() time.Time
}

func NewLRUAggregator(capacity, every int, window time.Duration, now func() time.Time) (*LRUAggregator, error) {
	if capacity <= 0 {
		capacity = 512
	}
	if every <= 0 {
		every = 5
	}
	if now == nil {
		now = time.Now
	}
	cache, err := lru.New[string, *aggregateEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUAggregator{entries: cache, every: every, window: window, now: now}, nil
}

func (a *LRUAggregator) Observe(context, message string) Decision {
	key := aggregateKey(context, message)
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.entries.Get(key)
	if !ok {
		a.entries.Add(key, &aggregateEntry{count: 1, firstSeen: now, lastSent: now})
		return Decision{Send: true, Count: 1}
	}

	entry.count++
	send := entry.count%a.every == 0
	if a.window > 0 && now.Sub(entry.lastSent) >= a.window {
		send = true
	}
	if send {
		entry.lastSent = now
	}
	return Decision{Send: send, Count: entry.count, Since: now.Sub(entry.firstSeen)}
}

func (a *LRUAggregator) Len() int {
	return a.entries.Len()
}

func aggregateKey(context, message string) string {
	r := []rune(message)
	if len(r) > aggregateKeyRunes {
		r = r[:aggregateKeyRunes]
	}
	return context + "\x00" + string(r)
}
