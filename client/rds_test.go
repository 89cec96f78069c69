package client

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

func TestRDS_HasManagedTag(t *testing.T) {

	managed := []*rds.Tag{
		{Key: aws.String("Name"), Value: aws.String("some-reader")},
		{Key: aws.String(managedTagKey), Value: aws.String(managedTagValue)},
	}
	if !hasManagedTag(managed) {
		t.Fatal("expected the ownership tag to be detected")
	}

	unmanaged := []*rds.Tag{
		{Key: aws.String("Name"), Value: aws.String("some-reader")},
	}
	if hasManagedTag(unmanaged) {
		t.Fatal("expected an untagged reader to be reported unmanaged")
	}

	wrongValue := []*rds.Tag{
		{Key: aws.String(managedTagKey), Value: aws.String("false")},
	}
	if hasManagedTag(wrongValue) {
		t.Fatal("expected a mismatched tag value to be reported unmanaged")
	}
}

func TestRDS_ClassifyError(t *testing.T) {

	terminal := classifyRDSError(awserr.New("AccessDenied", "not authorized", nil))
	if !structs.IsTerminalError(terminal) {
		t.Fatalf("expected an authorization failure to be terminal: %v", terminal)
	}

	soft := classifyRDSError(awserr.New("InsufficientDBInstanceCapacity",
		"no capacity", nil))
	if structs.IsTerminalError(soft) {
		t.Fatalf("expected a capacity failure to be soft: %v", soft)
	}

	plain := classifyRDSError(errors.New("connection reset"))
	if structs.IsTerminalError(plain) {
		t.Fatalf("expected an unclassified failure to be soft: %v", plain)
	}

	var pErr *structs.ProvisionError
	if !errors.As(terminal, &pErr) || pErr.Code != "AccessDenied" {
		t.Fatalf("expected the control plane code to be carried, got %v", terminal)
	}
}
