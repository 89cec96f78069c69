package scaler

import (
	"github.com/xmackex/aurorascaler/notifier"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

// sendNotification fans a fleet event message out to every configured
// notification backend. Delivery is fire-and-forget; each backend logs its
// own failures.
func sendNotification(config *structs.Config, kind, subject, detail string) {
	if config.Notification == nil || len(config.Notification.Notifiers) == 0 {
		return
	}

	message := notifier.Message{
		AlertUID:          config.Notification.ScalingUID,
		ClusterIdentifier: config.Notification.ClusterIdentifier,
		EventKind:         kind,
		Subject:           subject,
		Detail:            detail,
	}

	for _, n := range config.Notification.Notifiers {
		n.SendNotification(message)
	}
}
