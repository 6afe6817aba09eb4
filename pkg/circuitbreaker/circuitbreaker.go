package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// Settings configure the breaker. MaxFailures consecutive failures open it.
type Settings struct {
	Name          string
	MaxFailures   uint32
	Interval      time.Duration
	Timeout       time.Duration
	OnStateChange func(name string, from, to gobreaker.State)
}

type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     settings.Name,
			Interval: settings.Interval,
			Timeout:  settings.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: settings.OnStateChange,
		}),
	}
}

// Execute runs fn unless the breaker is open, in which case gobreaker.ErrOpenState is returned.
func (c *CircuitBreaker) Execute(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (c *CircuitBreaker) State() gobreaker.State {
	return c.cb.State()
}
