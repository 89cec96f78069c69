package scaler

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/xmackex/aurorascaler/notifier"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

func TestScaleUp_CreatedOnFirstCandidate(t *testing.T) {

	inventory := &fakeInventory{snapshot: testSnapshot()}
	probe := &fakeProbe{answers: map[string]structs.Capacity{
		"r5.large/eu-central-1b": structs.CapacityAvailable,
	}}
	provisioner := &fakeProvisioner{}
	scheduler := &fakeScheduler{}
	recorder := &fakeNotifier{}

	config := testConfig(inventory, probe, provisioner, scheduler, nil, recorder)
	engine := NewScaleUpEngine(config, NewFailsafe(3))

	result := engine.HandleCapacityShortage(context.Background())

	if result.Outcome != structs.ScaleUpCreated {
		t.Fatalf("expected created got %v: %v", result.Outcome, result.Err)
	}
	if result.Reader.Zone != "eu-central-1b" || result.Reader.Shape != "r5.large" {
		t.Fatalf("expected an r5.large reader in eu-central-1b, got %v in %v",
			result.Reader.Shape, result.Reader.Zone)
	}
	if result.Reader.Tier != 15 {
		t.Fatalf("expected promotion tier 15 got %v", result.Reader.Tier)
	}
	if scheduler.enableCalls != 1 {
		t.Fatalf("expected the schedule to be enabled once, got %v calls",
			scheduler.enableCalls)
	}
	if !reflect.DeepEqual(recorder.kinds(), []string{notifier.EventKindCreated}) {
		t.Fatalf("expected a single created notification, got %v", recorder.kinds())
	}
}

func TestScaleUp_UnknownProbesAttemptCreation(t *testing.T) {

	// The first two candidates probe unknown and their creation attempts
	// fail softly; the third probes available and succeeds. The engine must
	// have attempted creation on all three.
	inventory := &fakeInventory{snapshot: testSnapshot()}
	probe := &fakeProbe{answers: map[string]structs.Capacity{
		"r5.large/eu-central-1a": structs.CapacityAvailable,
	}}
	provisioner := &fakeProvisioner{createErrs: map[string]error{
		"r5.large/eu-central-1b": structs.NewProvisionError(
			"InsufficientDBInstanceCapacity", false, errors.New("no capacity")),
		"r5.large/eu-central-1c": structs.NewProvisionError(
			"InsufficientDBInstanceCapacity", false, errors.New("no capacity")),
	}}
	scheduler := &fakeScheduler{}
	recorder := &fakeNotifier{}

	config := testConfig(inventory, probe, provisioner, scheduler, nil, recorder)
	engine := NewScaleUpEngine(config, NewFailsafe(3))

	result := engine.HandleCapacityShortage(context.Background())

	if result.Outcome != structs.ScaleUpCreated {
		t.Fatalf("expected created got %v: %v", result.Outcome, result.Err)
	}
	if result.Candidate.Rank != 2 {
		t.Fatalf("expected the third candidate to land, got rank %v",
			result.Candidate.Rank)
	}
	if result.Reader.Zone != "eu-central-1a" {
		t.Fatalf("expected the reader in eu-central-1a got %v", result.Reader.Zone)
	}
	if !scheduler.isEnabled() {
		t.Fatal("expected the monitoring schedule to be enabled")
	}
}

func TestScaleUp_UnavailableCandidatesSkipped(t *testing.T) {

	inventory := &fakeInventory{snapshot: testSnapshot()}
	probe := &fakeProbe{answers: map[string]structs.Capacity{
		"r5.large/eu-central-1b": structs.CapacityUnavailable,
		"r5.large/eu-central-1c": structs.CapacityUnavailable,
		"r5.large/eu-central-1a": structs.CapacityAvailable,
	}}
	provisioner := &fakeProvisioner{}
	scheduler := &fakeScheduler{}
	recorder := &fakeNotifier{}

	config := testConfig(inventory, probe, provisioner, scheduler, nil, recorder)
	engine := NewScaleUpEngine(config, NewFailsafe(3))

	result := engine.HandleCapacityShortage(context.Background())

	if result.Outcome != structs.ScaleUpCreated {
		t.Fatalf("expected created got %v: %v", result.Outcome, result.Err)
	}
	if !reflect.DeepEqual(provisioner.created, []string{"r5.large/eu-central-1a"}) {
		t.Fatalf("expected creation only in eu-central-1a, got %v",
			provisioner.created)
	}
}

func TestScaleUp_Exhausted(t *testing.T) {

	inventory := &fakeInventory{snapshot: testSnapshot()}
	probe := &fakeProbe{answers: map[string]structs.Capacity{
		"r5.large/eu-central-1a":  structs.CapacityUnavailable,
		"r5.large/eu-central-1b":  structs.CapacityUnavailable,
		"r5.large/eu-central-1c":  structs.CapacityUnavailable,
		"r5.xlarge/eu-central-1a": structs.CapacityUnavailable,
		"r5.xlarge/eu-central-1b": structs.CapacityUnavailable,
		"r5.xlarge/eu-central-1c": structs.CapacityUnavailable,
	}}
	provisioner := &fakeProvisioner{}
	scheduler := &fakeScheduler{}
	recorder := &fakeNotifier{}

	config := testConfig(inventory, probe, provisioner, scheduler, nil, recorder)
	engine := NewScaleUpEngine(config, NewFailsafe(3))

	result := engine.HandleCapacityShortage(context.Background())

	if result.Outcome != structs.ScaleUpExhausted {
		t.Fatalf("expected exhausted got %v", result.Outcome)
	}
	if len(probe.probed) != 6 {
		t.Fatalf("expected all 6 candidates to be probed, got %v", len(probe.probed))
	}
	if len(provisioner.created) != 0 {
		t.Fatalf("expected no readers to be created, got %v", provisioner.created)
	}
	if scheduler.enableCalls != 0 {
		t.Fatal("expected the schedule to be left untouched on exhaustion")
	}
	if !reflect.DeepEqual(recorder.kinds(), []string{notifier.EventKindExhausted}) {
		t.Fatalf("expected a single exhausted notification, got %v", recorder.kinds())
	}
}

func TestScaleUp_TerminalErrorAborts(t *testing.T) {

	inventory := &fakeInventory{snapshot: testSnapshot()}
	probe := &fakeProbe{}
	provisioner := &fakeProvisioner{createErrs: map[string]error{
		"r5.large/eu-central-1b": structs.NewProvisionError(
			"AccessDenied", true, errors.New("not authorized")),
	}}
	scheduler := &fakeScheduler{}
	recorder := &fakeNotifier{}

	config := testConfig(inventory, probe, provisioner, scheduler, nil, recorder)
	failsafe := NewFailsafe(3)
	engine := NewScaleUpEngine(config, failsafe)

	result := engine.HandleCapacityShortage(context.Background())

	if result.Outcome != structs.ScaleUpFailed {
		t.Fatalf("expected failed got %v", result.Outcome)
	}
	// The run aborts on the first candidate; no further placements are tried.
	if len(probe.probed) != 1 {
		t.Fatalf("expected the run to abort after one candidate, probed %v",
			probe.probed)
	}
	if !reflect.DeepEqual(recorder.kinds(), []string{notifier.EventKindFailed}) {
		t.Fatalf("expected a single failed notification, got %v", recorder.kinds())
	}
}

func TestScaleUp_ConsecutiveTerminalFailuresTripFailsafe(t *testing.T) {

	inventory := &fakeInventory{snapshot: testSnapshot()}
	probe := &fakeProbe{}
	provisioner := &fakeProvisioner{createErrs: map[string]error{
		"r5.large/eu-central-1b": structs.NewProvisionError(
			"AccessDenied", true, errors.New("not authorized")),
	}}
	scheduler := &fakeScheduler{}
	recorder := &fakeNotifier{}

	config := testConfig(inventory, probe, provisioner, scheduler, nil, recorder)
	failsafe := NewFailsafe(2)
	engine := NewScaleUpEngine(config, failsafe)

	engine.HandleCapacityShortage(context.Background())
	engine.HandleCapacityShortage(context.Background())

	if !failsafe.Active() {
		t.Fatal("expected two terminal failures to trip the breaker")
	}

	result := engine.HandleCapacityShortage(context.Background())
	if result.Outcome != structs.ScaleUpFailed {
		t.Fatalf("expected failed while in failsafe mode, got %v", result.Outcome)
	}
	if inventory.calls != 2 {
		t.Fatalf("expected no fleet read while in failsafe mode, got %v calls",
			inventory.calls)
	}
}

func TestScaleUp_InventoryErrorFails(t *testing.T) {

	inventory := &fakeInventory{err: errors.New("control plane timeout")}
	recorder := &fakeNotifier{}

	config := testConfig(inventory, &fakeProbe{}, &fakeProvisioner{},
		&fakeScheduler{}, nil, recorder)
	engine := NewScaleUpEngine(config, NewFailsafe(3))

	result := engine.HandleCapacityShortage(context.Background())

	if result.Outcome != structs.ScaleUpFailed {
		t.Fatalf("expected failed got %v", result.Outcome)
	}
	if !reflect.DeepEqual(recorder.kinds(), []string{notifier.EventKindFailed}) {
		t.Fatalf("expected a single failed notification, got %v", recorder.kinds())
	}
}
