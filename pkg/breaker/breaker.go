package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker rejects a call outright.
var ErrOpen = errors.New("circuit breaker is open")

// State of the breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// Config tunes the breaker thresholds.
type Config struct {
	// FailureThreshold opens the breaker after this many consecutive failures.
	FailureThreshold int
	// SuccessThreshold closes a half-open breaker after this many successes.
	SuccessThreshold int
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// HalfOpenMaxCalls bounds concurrent probes while half-open.
	HalfOpenMaxCalls int
}

// DefaultConfig returns thresholds suited to a slow external generation endpoint.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// Breaker guards an external dependency against repeated failures.
type Breaker struct {
	config Config

	mu            sync.Mutex
	state         State
	failureCount  int
	successCount  int
	halfOpenCalls int
	lastStateTime time.Time
}

func New(config Config) *Breaker {
	return &Breaker{
		config:        config,
		state:         StateClosed,
		lastStateTime: time.Now(),
	}
}

// Execute runs fn under breaker protection. An open breaker returns
// ErrOpen without invoking fn.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	b.transition()

	switch b.state {
	case StateOpen:
		b.mu.Unlock()
		return ErrOpen
	case StateHalfOpen:
		if b.halfOpenCalls >= b.config.HalfOpenMaxCalls {
			b.mu.Unlock()
			return ErrOpen
		}
		b.halfOpenCalls++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
	} else {
		b.onSuccess()
	}
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition()
	return b.state
}

// transition applies time- and count-based state changes. Caller holds mu.
func (b *Breaker) transition() {
	now := time.Now()

	switch b.state {
	case StateOpen:
		if now.Sub(b.lastStateTime) >= b.config.Timeout {
			b.state = StateHalfOpen
			b.halfOpenCalls = 0
			b.successCount = 0
			b.lastStateTime = now
		}
	case StateHalfOpen:
		if b.successCount >= b.config.SuccessThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.lastStateTime = now
		}
	case StateClosed:
		if b.failureCount >= b.config.FailureThreshold {
			b.state = StateOpen
			b.lastStateTime = now
		}
	}
}

func (b *Breaker) onFailure() {
	b.failureCount++
	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.halfOpenCalls = 0
		b.lastStateTime = time.Now()
	case StateClosed:
		if b.failureCount >= b.config.FailureThreshold {
			b.state = StateOpen
			b.lastStateTime = time.Now()
		}
	}
}

func (b *Breaker) onSuccess() {
	if b.state == StateHalfOpen {
		b.successCount++
		if b.halfOpenCalls > 0 {
			b.halfOpenCalls--
		}
		b.transition()
		return
	}
	b.failureCount = 0
}
