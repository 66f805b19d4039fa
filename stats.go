package sqldbpool

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// defaultHistorySize bounds the reaper's eviction-history LRU. It is
// small: the history is a debugging aid, not a correctness mechanism.
const defaultHistorySize = 64

// Eviction records one reaper-driven (or force-close-driven) physical
// close, for Stats()'s audit trail.
type Eviction struct {
	Name        string
	DatabaseID  int
	ClosedAt    time.Time
	ForceClosed bool
}

// Stats is a snapshot of one id's pool occupancy plus the most recent
// evictions across the whole pool.
type Stats struct {
	DatabaseID int
	Available  int
	Cached     int
	InUse      int // N - Available - Cached
	Evictions  []Eviction
}

// history is the bounded eviction audit trail backing Stats. It never
// participates in checkout/return correctness.
type history struct {
	cache *lru.Cache
}

func newHistory(size int) *history {
	if size <= 0 {
		size = defaultHistorySize
	}
	c, err := lru.New(size)
	if err != nil {
		// size is always > 0 here, so lru.New cannot fail; guard anyway
		// rather than threading an error through pool construction.
		c, _ = lru.New(defaultHistorySize)
	}
	return &history{cache: c}
}

func (h *history) record(e Eviction) {
	h.cache.Add(e.Name+"@"+e.ClosedAt.String(), e)
}

func (h *history) recent() []Eviction {
	keys := h.cache.Keys()
	out := make([]Eviction, 0, len(keys))
	for _, k := range keys {
		if v, ok := h.cache.Get(k); ok {
			out = append(out, v.(Eviction))
		}
	}
	return out
}
