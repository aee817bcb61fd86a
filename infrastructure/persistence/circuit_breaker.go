// Package persistence holds store-agnostic decorators for units of work.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/jorge6242/graph-builder-api/application/ports"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// CircuitBreakerConfig holds configuration for the store circuit breaker
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold and MinRequests decide when the breaker trips
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreakerUnitOfWorkFactory stops opening and committing units of work
// while the underlying store keeps failing
type CircuitBreakerUnitOfWorkFactory struct {
	next    ports.UnitOfWorkFactory
	breaker *gobreaker.CircuitBreaker
	name    string
	logger  *zap.Logger
}

// NewCircuitBreakerUnitOfWorkFactory wraps next with a circuit breaker
func NewCircuitBreakerUnitOfWorkFactory(next ports.UnitOfWorkFactory, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerUnitOfWorkFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isStoreHealthy,
	})

	return &CircuitBreakerUnitOfWorkFactory{
		next:    next,
		breaker: breaker,
		name:    config.Name,
		logger:  logger,
	}
}

// isStoreHealthy counts only store faults against the breaker. Business
// outcomes such as a missing graph or a duplicate label mean the store answered.
func isStoreHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		switch appErr.Type {
		case apperrors.ErrorTypeDatabase, apperrors.ErrorTypeUnavailable:
			return false
		}
		return appErr.Code != apperrors.CodeStoreUnavailable
	}
	return false
}

// State reports the breaker state
func (f *CircuitBreakerUnitOfWorkFactory) State() gobreaker.State {
	return f.breaker.State()
}

// Begin implements ports.UnitOfWorkFactory
func (f *CircuitBreakerUnitOfWorkFactory) Begin(ctx context.Context) (ports.UnitOfWork, error) {
	result, err := f.breaker.Execute(func() (interface{}, error) {
		return f.next.Begin(ctx)
	})
	if err != nil {
		return nil, f.translate(err)
	}
	return &guardedUnitOfWork{UnitOfWork: result.(ports.UnitOfWork), factory: f}, nil
}

func (f *CircuitBreakerUnitOfWorkFactory) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		f.logger.Warn("Circuit breaker rejected store call", zap.String("breaker", f.name), zap.Error(err))
		return apperrors.StoreUnavailable(f.name, err)
	}
	return err
}

// guardedUnitOfWork routes Commit through the breaker
type guardedUnitOfWork struct {
	ports.UnitOfWork
	factory *CircuitBreakerUnitOfWorkFactory
}

func (u *guardedUnitOfWork) Commit(ctx context.Context) error {
	_, err := u.factory.breaker.Execute(func() (interface{}, error) {
		return nil, u.UnitOfWork.Commit(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// the write never reached the store; release what the unit holds
			_ = u.UnitOfWork.Rollback()
		}
		return u.factory.translate(err)
	}
	return nil
}
