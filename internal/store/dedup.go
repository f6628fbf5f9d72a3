// Package store provides bounded de-duplication of chat platform updates using
// a Bloom filter in front of an LRU cache.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Defaults sized for the updates a single bot sees across webhook retries.
const (
	DefaultCapacity          = 10000
	DefaultFalsePositiveRate = 0.001
)

// DedupStore remembers the most recent keys up to a fixed capacity. It is safe
// for concurrent use.
type DedupStore struct {
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, struct{}]
	mutex             sync.Mutex
	capacity          int
	falsePositiveRate float64
	// keys added to the Bloom filter since it was last rebuilt
	bloomAdds int
}

// NewDedupStore creates a store holding at most capacity keys.
func NewDedupStore(capacity int, falsePositiveRate float64) *DedupStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultFalsePositiveRate
	}

	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, struct{}](capacity)

	return &DedupStore{
		bloom:             bloom.NewWithEstimates(uint(capacity), falsePositiveRate),
		lru:               cache,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
	}
}

// Seen records key and reports whether it had already been recorded.
func (ds *DedupStore) Seen(key string) bool {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.bloom.TestString(key) && ds.lru.Contains(key) {
		return true
	}

	ds.lru.Add(key, struct{}{})
	ds.bloom.AddString(key)
	ds.bloomAdds++

	// Evicted keys stay in the filter, so rebuild it before it saturates.
	if ds.bloomAdds > 2*ds.capacity {
		ds.rebuildBloom()
	}
	return false
}

// Size returns the number of keys currently stored. It backs the
// dedup_entries gauge.
func (ds *DedupStore) Size() int {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()
	return ds.lru.Len()
}

func (ds *DedupStore) rebuildBloom() {
	ds.bloom = bloom.NewWithEstimates(uint(ds.capacity), ds.falsePositiveRate)
	for _, key := range ds.lru.Keys() {
		ds.bloom.AddString(key)
	}
	ds.bloomAdds = ds.lru.Len()
}
