package notifier

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/xmackex/aurorascaler/logging"
)

// SNSProvider contains the required configuration to publish notifications
// to an AWS SNS topic.
type SNSProvider struct {
	config map[string]string
	svc    *sns.SNS
}

// Name returns the name of the notification endpoint in a lowercase, human
// readable format.
func (s *SNSProvider) Name() string {
	return "sns"
}

// NewSNSProvider creates the SNS notification provider.
func NewSNSProvider(c map[string]string) (Notifier, error) {

	if c["SNSTopicARN"] == "" {
		return nil, fmt.Errorf("SNS notifications require the topic ARN to be set")
	}

	sess := session.Must(session.NewSession())
	svc := sns.New(sess, &aws.Config{Region: aws.String(c["SNSRegion"])})

	s := &SNSProvider{
		config: c,
		svc:    svc,
	}

	return s, nil
}

// SendNotification publishes the message to the configured SNS topic. A
// timestamp is prepended so operators can order messages delivered through
// slow endpoints such as email.
func (s *SNSProvider) SendNotification(message Message) {

	body := fmt.Sprintf("[%s] %s",
		time.Now().UTC().Format("2006-01-02 15:04:05 UTC"), message.Detail)

	params := &sns.PublishInput{
		TopicArn: aws.String(s.config["SNSTopicARN"]),
		Subject:  aws.String(message.Subject),
		Message:  aws.String(body),
	}

	resp, err := s.svc.Publish(params)
	if err != nil {
		logging.Error("notifier/sns: an error occurred publishing to topic %v: %v",
			s.config["SNSTopicARN"], err)
		return
	}

	logging.Info("notifier/sns: notification %v has been published",
		aws.StringValue(resp.MessageId))
}
