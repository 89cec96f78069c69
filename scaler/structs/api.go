package structs

// StatusResponse is returned by the agent status API endpoint.
type StatusResponse struct {
	Version      string
	ClusterID    string
	FailsafeMode bool
}

// FailsafeResponse is returned by the agent failsafe API endpoint and
// reports the current circuit breaker state.
type FailsafeResponse struct {
	FailsafeMode bool
}

// EventResponse is returned by the agent event ingest endpoint.
type EventResponse struct {
	// Status is accepted when the event was queued for evaluation and
	// ignored when it did not apply to the managed cluster.
	Status string
}

// Set of statuses an EventResponse can carry.
const (
	EventStatusAccepted = "accepted"
	EventStatusIgnored  = "ignored"
)
