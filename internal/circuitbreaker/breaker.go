// Package circuitbreaker guards the dashboard against anomalous snapshots
// from the query service.
package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Bacon-labs/88mph-frontend/internal/model"
	"github.com/Bacon-labs/88mph-frontend/internal/num"
)

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, snapshots are rejected
	StateHalfOpen              // Testing if the source has recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrOpen is returned while the breaker is open.
var ErrOpen = errors.New("circuit breaker open")

// Thresholds defines the limits that will trigger the circuit breaker
type Thresholds struct {
	// Maximum pre-fee one-year rate of any pool
	MaxInterestRate num.Num

	// Maximum relative change of the protocol's total active deposit between
	// accepted snapshots (e.g. 0.5 for 50%)
	MaxDepositChange num.Num

	// Minimum number of pools a snapshot must report
	MinPools int
}

// CircuitBreaker rejects snapshots that violate its thresholds and keeps the
// last accepted one as a fallback.
type CircuitBreaker struct {
	thresholds Thresholds

	mu               sync.RWMutex
	state            State
	lastTrip         time.Time
	resetDelay       time.Duration
	successCount     int
	successThreshold int
	lastGood         *model.Snapshot

	onTrip func(reason string)
	now    func() time.Time
}

// New creates a new CircuitBreaker with the provided thresholds
func New(t Thresholds) *CircuitBreaker {
	return &CircuitBreaker{
		thresholds:       t,
		state:            StateClosed,
		resetDelay:       5 * time.Minute,
		successThreshold: 3,
		now:              time.Now,
	}
}

// WithResetDelay sets a custom reset delay and returns the circuit breaker
func (cb *CircuitBreaker) WithResetDelay(delay time.Duration) *CircuitBreaker {
	cb.resetDelay = delay
	return cb
}

// WithSuccessThreshold sets the number of accepted snapshots needed to close the circuit
func (cb *CircuitBreaker) WithSuccessThreshold(threshold int) *CircuitBreaker {
	cb.successThreshold = threshold
	return cb
}

// WithTripCallback sets a callback function that is called when the circuit trips
func (cb *CircuitBreaker) WithTripCallback(callback func(reason string)) *CircuitBreaker {
	cb.onTrip = callback
	return cb
}

// WithClock sets the clock used for the reset delay
func (cb *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	cb.now = now
	return cb
}

// Check evaluates snap against the thresholds. An accepted snapshot becomes
// the new fallback.
func (cb *CircuitBreaker) Check(snap model.Snapshot) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastTrip) <= cb.resetDelay {
			return ErrOpen
		}
		cb.state = StateHalfOpen
		cb.successCount = 0
		logrus.Info("Circuit breaker half-open: testing source recovery")
	}

	if reason := cb.violation(snap); reason != "" {
		cb.trip(reason)
		return errors.New(reason)
	}

	logrus.Debug("Circuit breaker checks passed")
	accepted := snap
	cb.lastGood = &accepted

	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = StateClosed
			cb.successCount = 0
			logrus.Info("Circuit breaker closed: source has recovered")
		}
	}
	return nil
}

func (cb *CircuitBreaker) violation(snap model.Snapshot) string {
	if len(snap.Pools) < cb.thresholds.MinPools {
		return fmt.Sprintf("insufficient pool count: got %d, need %d", len(snap.Pools), cb.thresholds.MinPools)
	}

	for _, p := range snap.Pools {
		if p.OneYearInterestRate.GreaterThan(cb.thresholds.MaxInterestRate) {
			return fmt.Sprintf("interest rate exceeds maximum threshold: pool %s rate %s > %s",
				p.Address.Hex(), p.OneYearInterestRate, cb.thresholds.MaxInterestRate)
		}
	}

	// A half-open breaker re-baselines on the new deposit level.
	if cb.lastGood != nil && cb.state != StateHalfOpen {
		last := totalActiveDeposit(*cb.lastGood)
		current := totalActiveDeposit(snap)
		if last.GreaterThan(num.One) {
			change := current.Sub(last).Abs().Div(last)
			if change.GreaterThan(cb.thresholds.MaxDepositChange) {
				return fmt.Sprintf("total deposit change too drastic: %s%% (threshold: %s%%)",
					change.Mul(num.Hundred).StringFixed(2), cb.thresholds.MaxDepositChange.Mul(num.Hundred).StringFixed(2))
			}
		}
	}
	return ""
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset forcibly resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.successCount = 0
	logrus.Info("Circuit breaker manually reset to closed state")
}

// LastGood returns the most recently accepted snapshot
func (cb *CircuitBreaker) LastGood() (model.Snapshot, bool) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	if cb.lastGood == nil {
		return model.Snapshot{}, false
	}
	return *cb.lastGood, true
}

// trip sets the circuit breaker to open state. Callers hold mu.
func (cb *CircuitBreaker) trip(reason string) {
	cb.state = StateOpen
	cb.lastTrip = cb.now()
	logrus.Warnf("Circuit breaker tripped: %s", reason)

	if cb.onTrip != nil {
		go cb.onTrip(reason)
	}
}

func totalActiveDeposit(snap model.Snapshot) num.Num {
	total := num.Zero
	for _, p := range snap.Pools {
		total = total.Add(p.TotalActiveDeposit.OrZero())
	}
	return total
}
