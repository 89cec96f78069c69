package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/google/uuid"
	"github.com/xmackex/aurorascaler/logging"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

const (
	// dbInstanceClassPrefix is prepended to the configured instance shape to
	// form the RDS instance class name.
	dbInstanceClassPrefix = "db."

	// managedTagKey and managedTagValue form the ownership tag that marks a
	// reader as created by, and removable by, this controller.
	managedTagKey   = "aurorascaler:managed"
	managedTagValue = "true"

	// clusterTagKey records which cluster the reader was provisioned for.
	clusterTagKey = "aurorascaler:cluster"

	// createdTagKey records the provisioning timestamp.
	createdTagKey = "aurorascaler:created-at"

	// readerIDPrefix is the prefix of every controller provisioned reader
	// instance identifier.
	readerIDPrefix = "autoscaler-reader"
)

// terminalRDSErrorCodes is the set of control plane error codes that no
// amount of retrying against a different placement candidate can fix. Any
// other code is treated as soft so the caller advances to the next
// candidate.
var terminalRDSErrorCodes = []string{
	"AccessDenied",
	"AccessDeniedException",
	"UnauthorizedOperation",
	"InvalidParameterValue",
	"InvalidParameterCombination",
	rds.ErrCodeDBClusterNotFoundFault,
	rds.ErrCodeInvalidDBClusterStateFault,
}

// RDSClient talks to the Aurora control plane and provides both the fleet
// inventory reads and the reader create/delete operations.
type RDSClient struct {
	svc    *rds.RDS
	engine string
}

// NewRDSClient creates a new AWS API session and RDS service connection for
// use across all calls as required.
func NewRDSClient(region, engine string) *RDSClient {
	sess := session.Must(session.NewSession())
	svc := rds.New(sess, &aws.Config{Region: aws.String(region)})
	return &RDSClient{svc: svc, engine: engine}
}

// ClusterSnapshot returns a freshly computed view of the writer and every
// reader in the cluster. Nothing is cached; every call round-trips to the
// control plane so engine decisions are always made against current state.
func (c *RDSClient) ClusterSnapshot(ctx context.Context, clusterID string) (*structs.ClusterSnapshot, error) {

	clusters, err := c.svc.DescribeDBClustersWithContext(ctx, &rds.DescribeDBClustersInput{
		DBClusterIdentifier: aws.String(clusterID),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to describe cluster %v: %v", clusterID, err)
	}
	if len(clusters.DBClusters) == 0 {
		return nil, fmt.Errorf("cluster %v was not found", clusterID)
	}

	// Build the member role map so instances can be split into the writer
	// and the reader fleet.
	writers := make(map[string]bool)
	for _, member := range clusters.DBClusters[0].DBClusterMembers {
		writers[aws.StringValue(member.DBInstanceIdentifier)] =
			aws.BoolValue(member.IsClusterWriter)
	}

	instances, err := c.svc.DescribeDBInstancesWithContext(ctx, &rds.DescribeDBInstancesInput{
		Filters: []*rds.Filter{
			{
				Name:   aws.String("db-cluster-id"),
				Values: []*string{aws.String(clusterID)},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to describe the instances of cluster "+
			"%v: %v", clusterID, err)
	}

	snapshot := &structs.ClusterSnapshot{ClusterID: clusterID}

	for _, instance := range instances.DBInstances {
		id := aws.StringValue(instance.DBInstanceIdentifier)
		shape := strings.TrimPrefix(aws.StringValue(instance.DBInstanceClass),
			dbInstanceClassPrefix)
		zone := aws.StringValue(instance.AvailabilityZone)

		if writers[id] {
			snapshot.WriterID = id
			snapshot.WriterShape = shape
			snapshot.WriterZone = zone
			continue
		}

		snapshot.Readers = append(snapshot.Readers, structs.ReaderInstance{
			ID:        id,
			Shape:     shape,
			Zone:      zone,
			Tier:      int(aws.Int64Value(instance.PromotionTier)),
			Status:    aws.StringValue(instance.DBInstanceStatus),
			Managed:   hasManagedTag(instance.TagList),
			CreatedAt: aws.TimeValue(instance.InstanceCreateTime),
		})
	}

	logging.Debug("client/rds: cluster %v currently has %v reader instances",
		clusterID, len(snapshot.Readers))

	return snapshot, nil
}

// CreateReader provisions a single reader instance into the cluster with the
// controller's ownership tags applied atomically at creation time.
func (c *RDSClient) CreateReader(ctx context.Context, clusterID, shape, zone string, tier int) (*structs.ReaderInstance, error) {

	now := time.Now().UTC()
	readerID := fmt.Sprintf("%s-%s-%s", readerIDPrefix,
		now.Format("20060102-150405"), uuid.NewString()[:6])

	logging.Info("client/rds: creating reader %v (%v) in %v for cluster %v",
		readerID, shape, zone, clusterID)

	_, err := c.svc.CreateDBInstanceWithContext(ctx, &rds.CreateDBInstanceInput{
		DBInstanceIdentifier: aws.String(readerID),
		DBClusterIdentifier:  aws.String(clusterID),
		DBInstanceClass:      aws.String(dbInstanceClassPrefix + shape),
		Engine:               aws.String(c.engine),
		AvailabilityZone:     aws.String(zone),
		PromotionTier:        aws.Int64(int64(tier)),
		PubliclyAccessible:   aws.Bool(false),
		CopyTagsToSnapshot:   aws.Bool(true),
		Tags: []*rds.Tag{
			{Key: aws.String(managedTagKey), Value: aws.String(managedTagValue)},
			{Key: aws.String(clusterTagKey), Value: aws.String(clusterID)},
			{Key: aws.String(createdTagKey), Value: aws.String(now.Format(time.RFC3339))},
		},
	})
	if err != nil {
		return nil, classifyRDSError(err)
	}

	return &structs.ReaderInstance{
		ID:        readerID,
		Shape:     shape,
		Zone:      zone,
		Tier:      tier,
		Status:    structs.ReaderStatusCreating,
		Managed:   true,
		CreatedAt: now,
	}, nil
}

// RemoveReader deletes a reader instance. The delete is guarded by the
// ownership tag; readers the controller did not create are never touched.
func (c *RDSClient) RemoveReader(ctx context.Context, readerID string) error {

	instances, err := c.svc.DescribeDBInstancesWithContext(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(readerID),
	})
	if err != nil {
		return fmt.Errorf("unable to describe reader %v ahead of removal: %v",
			readerID, err)
	}
	if len(instances.DBInstances) == 0 {
		return fmt.Errorf("reader %v was not found", readerID)
	}

	if !hasManagedTag(instances.DBInstances[0].TagList) {
		logging.Error("client/rds: refusing to remove reader %v, it does not "+
			"carry the %v ownership tag", readerID, managedTagKey)
		return structs.ErrReaderNotManaged
	}

	logging.Info("client/rds: removing reader %v", readerID)

	_, err = c.svc.DeleteDBInstanceWithContext(ctx, &rds.DeleteDBInstanceInput{
		DBInstanceIdentifier:   aws.String(readerID),
		SkipFinalSnapshot:      aws.Bool(true),
		DeleteAutomatedBackups: aws.Bool(true),
	})
	if err != nil {
		return classifyRDSError(err)
	}

	return nil
}

// hasManagedTag reports whether the ownership tag is present on the
// instance tag list.
func hasManagedTag(tags []*rds.Tag) bool {
	for _, tag := range tags {
		if aws.StringValue(tag.Key) == managedTagKey &&
			aws.StringValue(tag.Value) == managedTagValue {
			return true
		}
	}
	return false
}

// classifyRDSError folds a control plane failure into the typed provisioning
// error the engines use to decide between advancing and aborting.
func classifyRDSError(err error) error {
	awsErr, ok := err.(awserr.Error)
	if !ok {
		return structs.NewProvisionError("unknown", false, err)
	}

	for _, code := range terminalRDSErrorCodes {
		if awsErr.Code() == code {
			return structs.NewProvisionError(awsErr.Code(), true, err)
		}
	}

	return structs.NewProvisionError(awsErr.Code(), false, err)
}
