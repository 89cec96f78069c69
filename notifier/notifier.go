package notifier

import (
	"fmt"
)

// Set of event kinds a notification message can describe.
const (
	EventKindCreated   = "created"
	EventKindExhausted = "exhausted"
	EventKindRemoved   = "removed"
	EventKindFailed    = "failed"
)

// Message is the notifier struct that contains all relevant notification
// information to provide to operators and developers.
type Message struct {
	// AlertUID is a stable identifier operators can use to group and
	// deduplicate alerts for this cluster.
	AlertUID string

	// ClusterIdentifier is a friendly cluster name used for easy human
	// identification.
	ClusterIdentifier string

	// EventKind describes the fleet event being reported and is one of
	// created, exhausted, removed or failed.
	EventKind string

	// Subject is a short one line summary of the event.
	Subject string

	// Detail carries the human readable description of what happened and
	// why.
	Detail string
}

// Notifier is the interface to the Notifiers functions. All notifiers are
// expected to implement this set of functions. Sending is fire-and-forget;
// implementations log delivery failures and never propagate them.
type Notifier interface {
	Name() string
	SendNotification(Message)
}

// NewProvider is the factory entrance to the notification backends.
func NewProvider(t string, c map[string]string) (Notifier, error) {

	var n Notifier
	var err error

	switch t {
	case "sns":
		n, err = NewSNSProvider(c)
	case "pagerduty":
		n, err = NewPagerDutyProvider(c)
	case "opsgenie":
		n, err = NewOpsGenieProvider(c)
	default:
		err = fmt.Errorf("the notifications provider %s is not supported", t)
	}
	return n, err
}
