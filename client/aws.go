package client

import (
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"
)

// DescribeAWSRegion uses the EC2 InstanceMetaData endpoint to discover the AWS
// region in which the agent is running. It is only consulted when the region
// has not been set explicitly in the configuration.
func DescribeAWSRegion() (region string, err error) {

	ec2meta := ec2metadata.New(session.New())
	identity, err := ec2meta.GetInstanceIdentityDocument()
	if err != nil {
		return "", err
	}
	return identity.Region, nil
}
