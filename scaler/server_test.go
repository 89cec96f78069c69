package scaler

import (
	"testing"
	"time"

	"github.com/xmackex/aurorascaler/scaler/structs"
)

func TestServer_SubmitEventFiltering(t *testing.T) {

	config := testConfig(&fakeInventory{snapshot: testSnapshot()}, &fakeProbe{},
		&fakeProvisioner{}, &fakeScheduler{}, &fakeMetrics{}, &fakeNotifier{})
	server := NewServer(config)

	foreign := &structs.ShortageEvent{
		ClusterID: "aurora-staging",
		EventID:   structs.RDSEventInsufficientCapacity,
	}
	if err := server.SubmitEvent(foreign); err != ErrEventNotApplicable {
		t.Fatalf("expected a foreign cluster event to be dropped, got %v", err)
	}

	wrongKind := &structs.ShortageEvent{
		ClusterID: "aurora-prod",
		EventID:   "RDS-EVENT-0006",
	}
	if err := server.SubmitEvent(wrongKind); err != ErrEventNotApplicable {
		t.Fatalf("expected a non-shortage event to be dropped, got %v", err)
	}

	shortage := &structs.ShortageEvent{
		ClusterID: "aurora-prod",
		EventID:   structs.RDSEventInsufficientCapacity,
	}
	if err := server.SubmitEvent(shortage); err != nil {
		t.Fatalf("expected a shortage event to be accepted, got %v", err)
	}
}

func TestServer_EventDispatchesScaleUp(t *testing.T) {

	probe := &fakeProbe{answers: map[string]structs.Capacity{
		"r5.large/eu-central-1b": structs.CapacityAvailable,
	}}
	provisioner := &fakeProvisioner{}
	scheduler := &fakeScheduler{}

	config := testConfig(&fakeInventory{snapshot: testSnapshot()}, probe,
		provisioner, scheduler, &fakeMetrics{}, &fakeNotifier{})
	server := NewServer(config)
	server.Start()
	defer server.Stop()

	err := server.SubmitEvent(&structs.ShortageEvent{
		ClusterID: "aurora-prod",
		EventID:   structs.RDSEventInsufficientCapacity,
	})
	if err != nil {
		t.Fatalf("expected the event to be accepted, got %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if scheduler.isEnabled() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected the event to trigger a reader placement")
}

func TestServer_DisabledScaleUpDropsEvents(t *testing.T) {

	provisioner := &fakeProvisioner{}

	config := testConfig(&fakeInventory{snapshot: testSnapshot()}, &fakeProbe{},
		provisioner, &fakeScheduler{}, &fakeMetrics{}, &fakeNotifier{})
	config.ScaleUp.Enabled = false
	server := NewServer(config)
	server.Start()
	defer server.Stop()

	err := server.SubmitEvent(&structs.ShortageEvent{
		ClusterID: "aurora-prod",
		EventID:   structs.RDSEventInsufficientCapacity,
	})
	if err != nil {
		t.Fatalf("expected the event to be accepted, got %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if len(provisioner.created) != 0 {
		t.Fatalf("expected no placements while disabled, got %v",
			provisioner.created)
	}
}
