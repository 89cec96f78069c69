package notifier

import (
	"fmt"

	alerts "github.com/opsgenie/opsgenie-go-sdk/alertsv2"
	ogclient "github.com/opsgenie/opsgenie-go-sdk/client"
	"github.com/xmackex/aurorascaler/logging"
)

// OpsGenieProvider contains the required configuration to send OpsGenie
// notifications.
type OpsGenieProvider struct {
	config map[string]string
}

// Name returns the name of the notification endpoint in a lowercase, human
// readable format.
func (og *OpsGenieProvider) Name() string {
	return "opsgenie"
}

// NewOpsGenieProvider creates the OpsGenie notification provider.
func NewOpsGenieProvider(c map[string]string) (Notifier, error) {

	og := &OpsGenieProvider{
		config: c,
	}

	return og, nil
}

// SendNotification will send a notification to OpsGenie using the alerts
// library call to create a new incident.
func (og *OpsGenieProvider) SendNotification(message Message) {

	// Format the message description.
	d := fmt.Sprintf("%s %s_%s_%s",
		message.AlertUID,
		message.ClusterIdentifier,
		message.EventKind,
		message.Subject)

	ogClient := new(ogclient.OpsGenieClient)
	ogClient.SetAPIKey(og.config["OpsGenieAPIKey"])

	alertCli, _ := ogClient.AlertV2()
	request := alerts.CreateAlertRequest{
		Message:     "aurorascaler notification",
		Alias:       message.AlertUID,
		Description: d,
		Details: map[string]string{
			"alert_uid":          message.AlertUID,
			"cluster_identifier": message.ClusterIdentifier,
			"event_kind":         message.EventKind,
			"detail":             message.Detail,
		},
		Entity: message.ClusterIdentifier,
		Source: "aurorascaler",
	}

	resp, err := alertCli.Create(request)
	if err != nil {
		logging.Error("notifier/opsgenie: an error occurred creating the OpsGenie event: %v", err)
		return
	}

	logging.Info("notifier/opsgenie: incident %s has been triggered", resp.RequestID)
}
