// Package persistence holds decorators shared by the record store backings.
package persistence

import (
	"context"
	"errors"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/domain/core/valueobjects"
	pkgerrors "venturelink/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for the store circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the configuration used for the message store
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// MessageRepositoryBreaker wraps a MessageRepository in a circuit breaker.
// While the circuit is open calls fail fast with an UNAVAILABLE error.
// Client errors such as NOT_FOUND do not count as failures.
type MessageRepositoryBreaker struct {
	next    ports.MessageRepository
	breaker *gobreaker.CircuitBreaker
	name    string
}

var _ ports.MessageRepository = (*MessageRepositoryBreaker)(nil)

// NewMessageRepositoryBreaker decorates next
func NewMessageRepositoryBreaker(next ports.MessageRepository, config BreakerConfig, logger *zap.Logger) *MessageRepositoryBreaker {
	return &MessageRepositoryBreaker{
		next:    next,
		breaker: newCircuitBreaker(config, logger),
		name:    config.Name,
	}
}

func (b *MessageRepositoryBreaker) Create(ctx context.Context, msg *entities.Message) (*entities.Message, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Create(ctx, msg)
	})
	if err != nil {
		return nil, b.translate(err)
	}
	return result.(*entities.Message), nil
}

func (b *MessageRepositoryBreaker) ListConversation(ctx context.Context, key valueobjects.ConversationKey) ([]*entities.Message, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.ListConversation(ctx, key)
	})
	if err != nil {
		return nil, b.translate(err)
	}
	return result.([]*entities.Message), nil
}

// State reports the breaker state
func (b *MessageRepositoryBreaker) State() gobreaker.State {
	return b.breaker.State()
}

// Ready fails with UNAVAILABLE while the circuit is open
func (b *MessageRepositoryBreaker) Ready() error {
	if b.State() == gobreaker.StateOpen {
		return pkgerrors.NewUnavailableError(b.name)
	}
	return nil
}

func (b *MessageRepositoryBreaker) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError(b.name).WithCause(err)
	}
	return err
}

func newCircuitBreaker(config BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
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
}

// isStoreHealthy treats client errors as successful calls; only faults of the
// store itself move the breaker.
func isStoreHealthy(err error) bool {
	if err == nil {
		return true
	}
	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		return false
	}
	switch appErr.Type {
	case pkgerrors.ErrorTypeDatabase, pkgerrors.ErrorTypeInternal, pkgerrors.ErrorTypeUnavailable:
		return false
	default:
		return true
	}
}
