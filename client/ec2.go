package client

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/xmackex/aurorascaler/logging"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

// insufficientCapacityCode is the EC2 error code returned when a capacity
// reservation cannot be fulfilled in the requested zone.
const insufficientCapacityCode = "InsufficientInstanceCapacity"

// EC2CapacityProbe answers advisory capacity questions by attempting a
// short-lived on-demand capacity reservation for the equivalent EC2 shape.
// A reservation that lands proves the zone can place the instance; it is
// cancelled immediately so no capacity is actually held.
type EC2CapacityProbe struct {
	svc *ec2.EC2
}

// NewEC2CapacityProbe creates a new AWS API session and EC2 service
// connection for use across all probe calls.
func NewEC2CapacityProbe(region string) *EC2CapacityProbe {
	sess := session.Must(session.NewSession())
	svc := ec2.New(sess, &aws.Config{Region: aws.String(region)})
	return &EC2CapacityProbe{svc: svc}
}

// CheckCapacity reports whether the (shape, zone) pair currently has
// placement capacity. The probe is advisory only; every failure other than
// an explicit capacity shortage folds into CapacityUnknown so the caller
// still attempts the placement.
func (p *EC2CapacityProbe) CheckCapacity(ctx context.Context, shape, zone string) structs.Capacity {

	resp, err := p.svc.CreateCapacityReservationWithContext(ctx, &ec2.CreateCapacityReservationInput{
		InstanceType:          aws.String(shape),
		InstancePlatform:      aws.String(ec2.CapacityReservationInstancePlatformLinuxUnix),
		AvailabilityZone:      aws.String(zone),
		InstanceCount:         aws.Int64(1),
		EndDateType:           aws.String(ec2.EndDateTypeUnlimited),
		InstanceMatchCriteria: aws.String(ec2.InstanceMatchCriteriaTargeted),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == insufficientCapacityCode {
			logging.Debug("client/ec2: capacity probe confirmed no %v capacity "+
				"in %v", shape, zone)
			return structs.CapacityUnavailable
		}

		logging.Warning("client/ec2: capacity probe for %v in %v was "+
			"inconclusive: %v", shape, zone, err)
		return structs.CapacityUnknown
	}

	// The reservation proved the point; release it straight away. A failed
	// cancellation leaks a single empty reservation which is logged loudly
	// for operator cleanup.
	reservationID := aws.StringValue(resp.CapacityReservation.CapacityReservationId)
	_, err = p.svc.CancelCapacityReservationWithContext(ctx, &ec2.CancelCapacityReservationInput{
		CapacityReservationId: aws.String(reservationID),
	})
	if err != nil {
		logging.Error("client/ec2: unable to cancel probe capacity "+
			"reservation %v, it must be cleaned up manually: %v",
			reservationID, err)
	}

	logging.Debug("client/ec2: capacity probe confirmed %v capacity in %v",
		shape, zone)
	return structs.CapacityAvailable
}
