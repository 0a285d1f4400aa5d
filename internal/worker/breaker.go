// forumvault - Forum Link Archive Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"errors"
	"sync"

	gobreaker "github.com/sony/gobreaker/v2"

	"forumvault/internal/logging"
	"forumvault/internal/metrics"
)

// ErrDomainUnavailable is returned when a domain's circuit breaker is open
// and rejects the attempt outright, without the link ever reaching a
// handler.
var ErrDomainUnavailable = errors.New("worker: domain circuit open")

// domainBreakers lazily creates one gobreaker per domain, in the spirit of
// internal/cache.DomainSemaphores: a map that only ever grows, guarded by
// a mutex, handing out a per-key object on first sight.
type domainBreakers struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func newDomainBreakers() *domainBreakers {
	return &domainBreakers{breakers: make(map[string]*gobreaker.CircuitBreaker[any])}
}

func (d *domainBreakers) forDomain(domain string) *gobreaker.CircuitBreaker[any] {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, ok := d.breakers[domain]
	if ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        domain,
		MaxRequests: 3,
		Interval:    0,
		Timeout:     0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("domain", name).Str("from", from.String()).Str("to", to.String()).
				Msg("worker: domain circuit breaker state change")
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	}
	cb = gobreaker.NewCircuitBreaker[any](settings)
	d.breakers[domain] = cb
	return cb
}

// admit runs fn through domain's circuit breaker, classifying the outcome
// for metrics the same way the teacher's CircuitBreakerClient does:
// rejections (breaker open / too many half-open probes) are distinguished
// from the function's own failures.
func (d *domainBreakers) admit(ctx context.Context, domain string, fn func(ctx context.Context) error) error {
	cb := d.forDomain(domain)
	_, err := cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	switch {
	case err == nil:
		metrics.RecordCircuitBreakerRequest(domain, "success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordCircuitBreakerRequest(domain, "rejected")
		return ErrDomainUnavailable
	default:
		metrics.RecordCircuitBreakerRequest(domain, "failure")
		return err
	}
}
