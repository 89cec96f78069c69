package scaler

import (
	"sync"

	"github.com/xmackex/aurorascaler/logging"
)

// defaultRetryThreshold is the number of consecutive terminal failures
// tolerated before the failsafe circuit breaker trips.
const defaultRetryThreshold = 3

// Failsafe implements the failsafe mode circuit breaker that will trip
// automatically if enough consecutive terminal failures are detected. Once
// tripped, the circuit breaker must be reset by a human operator; while it
// is tripped both engines decline to take scaling actions of any type.
type Failsafe struct {
	lock      sync.Mutex
	threshold int
	failures  int
	tripped   bool
}

// NewFailsafe sets up the circuit breaker with the configured consecutive
// failure threshold.
func NewFailsafe(threshold int) *Failsafe {
	if threshold <= 0 {
		threshold = defaultRetryThreshold
	}
	return &Failsafe{threshold: threshold}
}

// Check reports whether scaling evaluations and operations are currently
// permitted.
func (f *Failsafe) Check() (passing bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	return !f.tripped
}

// Active reports whether failsafe mode is currently engaged.
func (f *Failsafe) Active() bool {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.tripped
}

// RecordFailure registers a terminal failure and trips the breaker when the
// consecutive failure threshold is reached. It reports whether this call
// tripped the breaker.
func (f *Failsafe) RecordFailure() (tripped bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.failures++
	if !f.tripped && f.failures >= f.threshold {
		f.tripped = true
		tripped = true

		logging.Warning("core/failsafe: %v consecutive terminal failures "+
			"detected, entering failsafe mode. No scaling operations will be "+
			"permitted until the failsafe lock is removed by an operator.",
			f.failures)
	}

	return tripped
}

// Reset clears the consecutive failure count after a successful operation.
// It does not release a tripped breaker; only an operator can do that.
func (f *Failsafe) Reset() {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.failures = 0
}

// Set administratively engages or releases failsafe mode. Releasing the
// breaker also clears the consecutive failure count.
func (f *Failsafe) Set(enabled bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.tripped == enabled {
		return
	}

	f.tripped = enabled

	switch enabled {
	case true:
		logging.Warning("core/failsafe: failsafe mode has been enabled " +
			"administratively, no scaling operations will be permitted")
	case false:
		f.failures = 0
		logging.Info("core/failsafe: exiting failsafe mode")
	}
}
