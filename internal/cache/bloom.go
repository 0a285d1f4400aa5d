// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

// DeduplicationCache is the interface the Link Extractor and normalizer use
// for a fast "have I already seen this normalized URL" pre-check before
// touching the Local Store. Implementations trade off false-positive rate
// against memory.
type DeduplicationCache interface {
	// Seen reports whether key has been recorded before, and records it if
	// not. Returns true if key is a (possible, for BloomLRU) duplicate.
	Seen(key string) bool

	// Contains reports whether key might be present, without recording it.
	Contains(key string) bool

	// Record marks key as seen without checking for duplicates.
	Record(key string)

	Clear()
	Len() int
}

var (
	_ DeduplicationCache = (*BloomLRU)(nil)
	_ DeduplicationCache = (*ExactLRU)(nil)
)

// BloomFilter is a probabilistic set-membership structure: Test never
// false-negatives but may false-positive at the configured rate. Used as a
// fast rejection path in front of an exact cache or the database.
type BloomFilter struct {
	mu       sync.RWMutex
	bits     []uint64
	size     uint64
	hashFns  int
	count    int
	capacity int
}

// NewBloomFilter sizes a filter for expectedItems at the given
// falsePositiveRate (e.g. 0.01 for 1%).
func NewBloomFilter(expectedItems int, falsePositiveRate float64) *BloomFilter {
	if expectedItems <= 0 {
		expectedItems = 10000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	const ln2Squared = 0.693147 * 0.693147
	lnP := approximateLn(falsePositiveRate)

	m := int(-float64(expectedItems) * lnP / ln2Squared)
	if m < 64 {
		m = 64
	}
	k := int(float64(m) / float64(expectedItems) * 0.693147)
	if k < 1 {
		k = 1
	}
	if k > 10 {
		k = 10
	}

	words := (m + 63) / 64
	return &BloomFilter{
		bits:     make([]uint64, words),
		size:     uint64(words * 64),
		hashFns:  k,
		capacity: expectedItems,
	}
}

// Add records key in the filter.
func (bf *BloomFilter) Add(key string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	for _, h := range bf.getHashes(key) {
		idx := h % bf.size
		bf.bits[idx/64] |= 1 << (idx % 64)
	}
	bf.count++
}

// Test reports whether key might have been added. false is authoritative;
// true requires verification against an exact source.
func (bf *BloomFilter) Test(key string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	for _, h := range bf.getHashes(key) {
		idx := h % bf.size
		if bf.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// Clear resets the filter to empty.
func (bf *BloomFilter) Clear() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	for i := range bf.bits {
		bf.bits[i] = 0
	}
	bf.count = 0
}

func (bf *BloomFilter) getHashes(key string) []uint64 {
	h1 := fnv.New64a()
	h1.Write([]byte(key))
	hash1 := h1.Sum64()

	h2 := fnv.New64()
	h2.Write([]byte(key))
	h2.Write([]byte{0xff})
	hash2 := h2.Sum64()

	hashes := make([]uint64, bf.hashFns)
	for i := 0; i < bf.hashFns; i++ {
		hashes[i] = hash1 + uint64(i)*hash2
	}
	return hashes
}

func approximateLn(x float64) float64 {
	switch {
	case x >= 0.1:
		return -2.303
	case x >= 0.05:
		return -2.996
	case x >= 0.01:
		return -4.605
	case x >= 0.005:
		return -5.298
	case x >= 0.001:
		return -6.908
	default:
		return -9.210
	}
}

// BloomLRU pairs a BloomFilter (fast negative path) with an LRU (accurate,
// TTL-bound positive path). Most never-seen links short-circuit at the
// filter; only possible repeats touch the LRU.
type BloomLRU struct {
	bloom *BloomFilter
	lru   *LRU[time.Time]

	mu             sync.Mutex
	bloomNegatives int64
	lruChecks      int64
	duplicates     int64
}

// NewBloomLRU creates a combined filter+LRU deduplication cache.
func NewBloomLRU(capacity int, ttl time.Duration, falsePositiveRate float64) *BloomLRU {
	return &BloomLRU{
		bloom: NewBloomFilter(capacity, falsePositiveRate),
		lru:   NewLRU[time.Time](capacity, ttl),
	}
}

// Seen reports whether key was already recorded, recording it either way.
func (bl *BloomLRU) Seen(key string) bool {
	if !bl.bloom.Test(key) {
		bl.mu.Lock()
		bl.bloomNegatives++
		bl.mu.Unlock()
		bl.bloom.Add(key)
		bl.lru.Add(key, time.Now())
		return false
	}

	bl.mu.Lock()
	bl.lruChecks++
	bl.mu.Unlock()

	if bl.lru.Contains(key) {
		bl.mu.Lock()
		bl.duplicates++
		bl.mu.Unlock()
		return true
	}

	bl.bloom.Add(key)
	bl.lru.Add(key, time.Now())
	return false
}

// Record marks key as seen without reporting duplicate status.
func (bl *BloomLRU) Record(key string) {
	bl.bloom.Add(key)
	bl.lru.Add(key, time.Now())
}

// Contains reports possible membership without recording key.
func (bl *BloomLRU) Contains(key string) bool {
	if !bl.bloom.Test(key) {
		return false
	}
	return bl.lru.Contains(key)
}

// Clear empties both structures.
func (bl *BloomLRU) Clear() {
	bl.bloom.Clear()
	bl.lru.Clear()
	bl.mu.Lock()
	bl.bloomNegatives, bl.lruChecks, bl.duplicates = 0, 0, 0
	bl.mu.Unlock()
}

// Len returns the number of entries tracked in the LRU half.
func (bl *BloomLRU) Len() int { return bl.lru.Len() }

// Stats returns cumulative counters for observability.
func (bl *BloomLRU) Stats() (bloomNegatives, lruChecks, duplicates int64, lruSize int) {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return bl.bloomNegatives, bl.lruChecks, bl.duplicates, bl.lru.Len()
}

// ExactLRU is a zero-false-positive deduplication cache, used where the
// Bloom filter's ~1% false-positive rate is not acceptable (e.g. deciding
// whether a Link has ever been queued at all).
type ExactLRU struct {
	lru *LRU[time.Time]

	mu         sync.Mutex
	checks     int64
	duplicates int64
}

// NewExactLRU creates an exact-match deduplication cache.
func NewExactLRU(capacity int, ttl time.Duration) *ExactLRU {
	return &ExactLRU{lru: NewLRU[time.Time](capacity, ttl)}
}

// Seen reports whether key was already recorded, recording it either way.
func (el *ExactLRU) Seen(key string) bool {
	el.mu.Lock()
	el.checks++
	el.mu.Unlock()

	if el.lru.Contains(key) {
		el.mu.Lock()
		el.duplicates++
		el.mu.Unlock()
		el.lru.Add(key, time.Now())
		return true
	}
	el.lru.Add(key, time.Now())
	return false
}

// Record marks key as seen without reporting duplicate status.
func (el *ExactLRU) Record(key string) { el.lru.Add(key, time.Now()) }

// Contains reports exact membership without recording key.
func (el *ExactLRU) Contains(key string) bool { return el.lru.Contains(key) }

// Clear empties the cache.
func (el *ExactLRU) Clear() {
	el.lru.Clear()
	el.mu.Lock()
	el.checks, el.duplicates = 0, 0
	el.mu.Unlock()
}

// Len returns the number of tracked entries.
func (el *ExactLRU) Len() int { return el.lru.Len() }
