package graphviz

import (
	"context"
	"errors"
	"time"

	"mlmdview/application/ports"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings configures the circuit breaker around the dot command
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns the default breaker configuration
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      3,
	}
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	d := DefaultBreakerSettings()
	if s.MaxRequests == 0 {
		s.MaxRequests = d.MaxRequests
	}
	if s.Interval == 0 {
		s.Interval = d.Interval
	}
	if s.Timeout == 0 {
		s.Timeout = d.Timeout
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = d.FailureThreshold
	}
	if s.MinRequests == 0 {
		s.MinRequests = d.MinRequests
	}
	return s
}

// BreakerExporter stops spawning the renderer after repeated failures and
// serves DOT text until the breaker half-opens again.
type BreakerExporter struct {
	inner  *CommandExporter
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerExporter wraps a command exporter with a circuit breaker
func NewBreakerExporter(inner *CommandExporter, settings BreakerSettings, logger *zap.Logger) *BreakerExporter {
	settings = settings.withDefaults()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "graphviz",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureThreshold
		},
		// A client going away says nothing about the renderer's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerExporter{inner: inner, cb: cb, logger: logger}
}

// Export implements ports.GraphExporter
func (e *BreakerExporter) Export(ctx context.Context, dot string) ports.RenderedOutput {
	result, err := e.cb.Execute(func() (interface{}, error) {
		return e.inner.Render(ctx, dot)
	})
	if err != nil {
		e.logger.Warn("Graph rendering unavailable, falling back to DOT text",
			zap.String("breaker", e.cb.State().String()),
			zap.Error(err),
		)
		return ports.TextOutput(dot)
	}
	return ports.ImageOutput(result.([]byte), e.inner.ContentType())
}

// State returns the breaker state
func (e *BreakerExporter) State() gobreaker.State {
	return e.cb.State()
}
