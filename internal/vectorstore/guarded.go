package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"docsearch-platform/internal/logger"
)

// GuardedStore wraps a Store with a circuit breaker and a rate
// limiter. Every Store method is a network call into the vector
// backend; the breaker keeps a flapping backend from stalling every
// ingestion worker, and the limiter caps request pressure.
//
// Schema-conflict errors (already exists / not found) are successes to
// the breaker: they are expected outcomes, not backend failures.
type GuardedStore struct {
	store   Store
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGuardedStore wraps store. rps caps requests per second; rps <= 0
// disables the limiter.
func NewGuardedStore(store Store, rps int) *GuardedStore {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "VectorStore",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrCollectionExists) ||
				errors.Is(err, ErrCollectionNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("vector store circuit breaker state change",
				"from", from.String(), "to", to.String())
		},
	})

	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}

	return &GuardedStore{store: store, breaker: breaker, limiter: limiter}
}

func (g *GuardedStore) execute(ctx context.Context, op func() error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("vector store unavailable: %w", err)
	}
	return err
}

func (g *GuardedStore) CreateCollection(ctx context.Context, name string, cfg VectorConfig) error {
	return g.execute(ctx, func() error {
		return g.store.CreateCollection(ctx, name, cfg)
	})
}

func (g *GuardedStore) DeleteCollection(ctx context.Context, name string) error {
	return g.execute(ctx, func() error {
		return g.store.DeleteCollection(ctx, name)
	})
}

func (g *GuardedStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := g.execute(ctx, func() error {
		var opErr error
		exists, opErr = g.store.CollectionExists(ctx, name)
		return opErr
	})
	return exists, err
}

func (g *GuardedStore) BatchInsert(ctx context.Context, name string, objects []Object) error {
	return g.execute(ctx, func() error {
		return g.store.BatchInsert(ctx, name, objects)
	})
}

func (g *GuardedStore) HybridQuery(ctx context.Context, name, query string, params HybridParams) ([]Result, error) {
	var results []Result
	err := g.execute(ctx, func() error {
		var opErr error
		results, opErr = g.store.HybridQuery(ctx, name, query, params)
		return opErr
	})
	return results, err
}
