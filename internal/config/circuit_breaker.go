package config

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker creates a circuit breaker with standard settings. The
// breaker opens after three consecutive failures; isSuccessful decides which
// errors count as failures and may be nil.
func NewCircuitBreaker(name string, isSuccessful func(error) bool) *gobreaker.CircuitBreaker {
	timeout := 30 * time.Second
	if name == "documents" {
		timeout = 10 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
