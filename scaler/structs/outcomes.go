package structs

// ScaleUpOutcome enumerates the possible results of a capacity-shortage
// handling run.
type ScaleUpOutcome int

const (
	// ScaleUpCreated means one reader was successfully provisioned.
	ScaleUpCreated ScaleUpOutcome = iota

	// ScaleUpExhausted means every placement candidate was attempted and
	// none could be provisioned. This is a distinct outcome from failure;
	// retry is driven by recurrence of the shortage signal.
	ScaleUpExhausted

	// ScaleUpFailed means a terminal condition aborted the run.
	ScaleUpFailed
)

// String returns a human readable representation of the outcome.
func (o ScaleUpOutcome) String() string {
	switch o {
	case ScaleUpCreated:
		return "created"
	case ScaleUpExhausted:
		return "exhausted"
	}
	return "failed"
}

// ScaleUpResult is the terminal state of one scale-up engine invocation.
type ScaleUpResult struct {
	Outcome   ScaleUpOutcome
	Reader    *ReaderInstance
	Candidate PlacementCandidate
	Err       error
}

// ScaleDownOutcome enumerates the possible results of a periodic tick
// evaluation.
type ScaleDownOutcome int

const (
	// ScaleDownNoAction means no reader qualified for removal.
	ScaleDownNoAction ScaleDownOutcome = iota

	// ScaleDownRemoved means exactly one reader was removed.
	ScaleDownRemoved

	// ScaleDownFailed means the evaluation or removal failed; the next tick
	// is the retry mechanism.
	ScaleDownFailed
)

// String returns a human readable representation of the outcome.
func (o ScaleDownOutcome) String() string {
	switch o {
	case ScaleDownNoAction:
		return "no-action"
	case ScaleDownRemoved:
		return "removed"
	}
	return "failed"
}

// ScaleDownResult is the terminal state of one scale-down engine invocation.
type ScaleDownResult struct {
	Outcome ScaleDownOutcome
	Reader  *ReaderInstance
	Err     error
}
