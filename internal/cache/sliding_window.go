// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"sync"
	"time"
)

// SlidingWindowCounter is a memory-efficient sliding window counter: time is
// divided into buckets and summed to get the count within the window.
//
// This backs the Submission Rate Bucket (spec §4.7): each external
// submitter (Wayback, Archive.today) keeps one counter per configured
// window to decide whether the next submission would exceed its polite
// rate and should instead wait.
//
// Complexity:
//   - Increment: O(1)
//   - Count: O(k) where k = number of buckets (typically 10-60)
//   - Memory: O(k) per counter
type SlidingWindowCounter struct {
	mu         sync.Mutex
	buckets    []int64
	bucketSize time.Duration
	windowSize time.Duration
	numBuckets int
	current    int
	lastUpdate time.Time
}

// NewSlidingWindowCounter creates a counter covering windowSize, divided
// into numBuckets buckets (e.g. NewSlidingWindowCounter(time.Minute, 6)
// gives a one-minute window in ten-second buckets).
func NewSlidingWindowCounter(windowSize time.Duration, numBuckets int) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	if windowSize <= 0 {
		windowSize = time.Minute
	}

	return &SlidingWindowCounter{
		buckets:    make([]int64, numBuckets),
		bucketSize: windowSize / time.Duration(numBuckets),
		windowSize: windowSize,
		numBuckets: numBuckets,
		lastUpdate: time.Now(),
	}
}

// Increment adds delta to the current bucket.
func (sw *SlidingWindowCounter) Increment(delta int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.advance()
	sw.buckets[sw.current] += delta
}

// IncrementOne adds 1 to the current bucket.
func (sw *SlidingWindowCounter) IncrementOne() {
	sw.Increment(1)
}

// Count returns the sum of all buckets currently within the window.
func (sw *SlidingWindowCounter) Count() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.advance()

	var total int64
	for _, count := range sw.buckets {
		total += count
	}
	return total
}

// Reset clears all buckets.
func (sw *SlidingWindowCounter) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	for i := range sw.buckets {
		sw.buckets[i] = 0
	}
	sw.current = 0
	sw.lastUpdate = time.Now()
}

// advance rotates the window forward based on elapsed wall-clock time.
// Must be called with the lock held.
func (sw *SlidingWindowCounter) advance() {
	now := time.Now()
	elapsed := now.Sub(sw.lastUpdate)
	bucketsElapsed := int(elapsed / sw.bucketSize)
	if bucketsElapsed <= 0 {
		return
	}

	if bucketsElapsed >= sw.numBuckets {
		for i := range sw.buckets {
			sw.buckets[i] = 0
		}
		sw.current = 0
	} else {
		for i := 0; i < bucketsElapsed; i++ {
			sw.current = (sw.current + 1) % sw.numBuckets
			sw.buckets[sw.current] = 0
		}
	}
	sw.lastUpdate = now
}

// RateBucket is a Submission Rate Bucket: it answers "may I submit now
// without exceeding my configured rate" and, if not, how long to wait.
// One RateBucket exists per external submitter (spec §4.7).
type RateBucket struct {
	counter *SlidingWindowCounter
	limit   int64
	period  time.Duration
}

// NewRateBucket creates a bucket allowing up to limit submissions per
// period. period is divided into buckets of roughly one second each (capped
// to a sane range) for the underlying counter.
func NewRateBucket(limit int64, period time.Duration) *RateBucket {
	if limit <= 0 {
		limit = 1
	}
	if period <= 0 {
		period = time.Minute
	}
	numBuckets := int(period / time.Second)
	if numBuckets < 6 {
		numBuckets = 6
	}
	if numBuckets > 120 {
		numBuckets = 120
	}
	return &RateBucket{
		counter: NewSlidingWindowCounter(period, numBuckets),
		limit:   limit,
		period:  period,
	}
}

// Allow reports whether a submission may proceed right now, recording it if
// so. It does not block; the caller (the submitter's pacing loop) decides
// what to do on a false result.
func (r *RateBucket) Allow() bool {
	if r.counter.Count() >= r.limit {
		return false
	}
	r.counter.IncrementOne()
	return true
}

// Remaining reports how many submissions are still permitted within the
// current window, for metrics and backoff-interval hints.
func (r *RateBucket) Remaining() int64 {
	remaining := r.limit - r.counter.Count()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears the bucket, used when a submitter is reconfigured at runtime.
func (r *RateBucket) Reset() { r.counter.Reset() }

// RateBucketStore manages one RateBucket per key (submitter name, or
// submitter+domain for handlers that need per-domain pacing rather than a
// single global rate).
type RateBucketStore struct {
	mu      sync.RWMutex
	buckets map[string]*RateBucket
	limit   int64
	period  time.Duration
}

// NewRateBucketStore creates a store whose buckets all share the same
// limit/period, lazily creating one per key on first use.
func NewRateBucketStore(limit int64, period time.Duration) *RateBucketStore {
	return &RateBucketStore{
		buckets: make(map[string]*RateBucket),
		limit:   limit,
		period:  period,
	}
}

// Allow reports whether key may submit now, recording it if so.
func (s *RateBucketStore) Allow(key string) bool {
	return s.bucketFor(key).Allow()
}

// Remaining reports the remaining submission budget for key.
func (s *RateBucketStore) Remaining(key string) int64 {
	return s.bucketFor(key).Remaining()
}

func (s *RateBucketStore) bucketFor(key string) *RateBucket {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.buckets[key]; ok {
		return b
	}
	b = NewRateBucket(s.limit, s.period)
	s.buckets[key] = b
	return b
}

// Keys returns the set of keys with an active bucket.
func (s *RateBucketStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.buckets))
	for k := range s.buckets {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of tracked buckets.
func (s *RateBucketStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}
