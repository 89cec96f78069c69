package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/scheduler"
	"github.com/xmackex/aurorascaler/logging"
)

// defaultScheduleGroup is used when the configuration does not name a
// schedule group.
const defaultScheduleGroup = "default"

// SchedulerClient toggles the external EventBridge schedule that gates the
// periodic utilization evaluation. The schedule itself is provisioned out of
// band; the controller only ever flips its state.
type SchedulerClient struct {
	svc   *scheduler.Scheduler
	name  string
	group string
}

// NewSchedulerClient creates a new AWS API session and EventBridge Scheduler
// service connection for the named schedule.
func NewSchedulerClient(region, name, group string) *SchedulerClient {
	if group == "" {
		group = defaultScheduleGroup
	}

	sess := session.Must(session.NewSession())
	svc := scheduler.New(sess, &aws.Config{Region: aws.String(region)})
	return &SchedulerClient{svc: svc, name: name, group: group}
}

// Enabled reports the current state of the schedule.
func (s *SchedulerClient) Enabled(ctx context.Context) (bool, error) {
	resp, err := s.svc.GetScheduleWithContext(ctx, &scheduler.GetScheduleInput{
		Name:      aws.String(s.name),
		GroupName: aws.String(s.group),
	})
	if err != nil {
		return false, fmt.Errorf("unable to read schedule %v: %v", s.name, err)
	}

	return aws.StringValue(resp.State) == scheduler.ScheduleStateEnabled, nil
}

// Enable turns the schedule on. The call is idempotent; enabling an already
// enabled schedule is a no-op.
func (s *SchedulerClient) Enable(ctx context.Context) error {
	return s.setState(ctx, scheduler.ScheduleStateEnabled)
}

// Disable turns the schedule off. The call is idempotent; disabling an
// already disabled schedule is a no-op.
func (s *SchedulerClient) Disable(ctx context.Context) error {
	return s.setState(ctx, scheduler.ScheduleStateDisabled)
}

// setState reads the schedule and flips its state while carrying every other
// attribute over unchanged, as the update call replaces the full schedule
// definition.
func (s *SchedulerClient) setState(ctx context.Context, state string) error {

	resp, err := s.svc.GetScheduleWithContext(ctx, &scheduler.GetScheduleInput{
		Name:      aws.String(s.name),
		GroupName: aws.String(s.group),
	})
	if err != nil {
		return fmt.Errorf("unable to read schedule %v: %v", s.name, err)
	}

	if aws.StringValue(resp.State) == state {
		logging.Debug("client/scheduler: schedule %v is already %v", s.name, state)
		return nil
	}

	_, err = s.svc.UpdateScheduleWithContext(ctx, &scheduler.UpdateScheduleInput{
		Name:                       aws.String(s.name),
		GroupName:                  aws.String(s.group),
		State:                      aws.String(state),
		ScheduleExpression:         resp.ScheduleExpression,
		ScheduleExpressionTimezone: resp.ScheduleExpressionTimezone,
		FlexibleTimeWindow:         resp.FlexibleTimeWindow,
		Target:                     resp.Target,
		StartDate:                  resp.StartDate,
		EndDate:                    resp.EndDate,
		Description:                resp.Description,
	})
	if err != nil {
		return fmt.Errorf("unable to set schedule %v to %v: %v", s.name, state, err)
	}

	logging.Info("client/scheduler: schedule %v has been set to %v", s.name, state)
	return nil
}
