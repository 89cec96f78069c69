package scaler

import (
	"testing"
)

func TestFailsafe_TripsAtThreshold(t *testing.T) {

	failsafe := NewFailsafe(3)

	if !failsafe.Check() {
		t.Fatal("expected a fresh breaker to pass")
	}

	if tripped := failsafe.RecordFailure(); tripped {
		t.Fatal("expected the breaker to hold after one failure")
	}
	if tripped := failsafe.RecordFailure(); tripped {
		t.Fatal("expected the breaker to hold after two failures")
	}
	if tripped := failsafe.RecordFailure(); !tripped {
		t.Fatal("expected the breaker to trip on the third failure")
	}

	if failsafe.Check() {
		t.Fatal("expected a tripped breaker to decline operations")
	}
	if !failsafe.Active() {
		t.Fatal("expected a tripped breaker to report active")
	}
}

func TestFailsafe_ResetClearsConsecutiveCount(t *testing.T) {

	failsafe := NewFailsafe(2)

	failsafe.RecordFailure()
	failsafe.Reset()
	if tripped := failsafe.RecordFailure(); tripped {
		t.Fatal("expected the count to restart after a success")
	}
	if tripped := failsafe.RecordFailure(); !tripped {
		t.Fatal("expected the breaker to trip at the threshold")
	}

	// A success does not release a tripped breaker.
	failsafe.Reset()
	if failsafe.Check() {
		t.Fatal("expected a tripped breaker to stay tripped until released")
	}
}

func TestFailsafe_OperatorOverride(t *testing.T) {

	failsafe := NewFailsafe(0)

	failsafe.Set(true)
	if failsafe.Check() {
		t.Fatal("expected an administratively enabled breaker to decline")
	}

	failsafe.Set(false)
	if !failsafe.Check() {
		t.Fatal("expected a released breaker to pass")
	}

	if tripped := failsafe.RecordFailure(); tripped {
		t.Fatal("expected the failure count to have been cleared on release")
	}
}
