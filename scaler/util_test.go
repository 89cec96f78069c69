package scaler

import (
	"context"
	"sync"
	"time"

	"github.com/xmackex/aurorascaler/notifier"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

// fakeInventory serves a canned cluster snapshot.
type fakeInventory struct {
	snapshot *structs.ClusterSnapshot
	err      error
	calls    int
}

func (f *fakeInventory) ClusterSnapshot(_ context.Context, _ string) (*structs.ClusterSnapshot, error) {
	f.calls++
	return f.snapshot, f.err
}

// fakeProbe answers capacity checks from a canned map keyed on shape/zone
// and records the order placements were probed in.
type fakeProbe struct {
	answers map[string]structs.Capacity
	probed  []string
}

func (f *fakeProbe) CheckCapacity(_ context.Context, shape, zone string) structs.Capacity {
	key := shape + "/" + zone
	f.probed = append(f.probed, key)
	return f.answers[key]
}

// fakeProvisioner records create and remove calls and fails them according
// to canned per-placement errors.
type fakeProvisioner struct {
	createErrs map[string]error
	removeErr  error
	created    []string
	removed    []string
}

func (f *fakeProvisioner) CreateReader(_ context.Context, _, shape, zone string, tier int) (*structs.ReaderInstance, error) {
	key := shape + "/" + zone
	if err, ok := f.createErrs[key]; ok {
		return nil, err
	}

	f.created = append(f.created, key)
	return &structs.ReaderInstance{
		ID:        "autoscaler-reader-test-" + zone,
		Shape:     shape,
		Zone:      zone,
		Tier:      tier,
		Status:    structs.ReaderStatusCreating,
		Managed:   true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeProvisioner) RemoveReader(_ context.Context, readerID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, readerID)
	return nil
}

// fakeScheduler is an in-memory two-state schedule toggle. It is mutex
// guarded as the server tests poll it from the test goroutine while the
// worker pool toggles it.
type fakeScheduler struct {
	lock         sync.Mutex
	enabled      bool
	err          error
	enableCalls  int
	disableCalls int
}

func (f *fakeScheduler) Enabled(_ context.Context) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.enabled, f.err
}

func (f *fakeScheduler) Enable(_ context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.enableCalls++
	if f.err != nil {
		return f.err
	}
	f.enabled = true
	return nil
}

func (f *fakeScheduler) Disable(_ context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.disableCalls++
	if f.err != nil {
		return f.err
	}
	f.enabled = false
	return nil
}

func (f *fakeScheduler) isEnabled() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.enabled
}

// fakeMetrics serves canned CPU sample series keyed on reader ID.
type fakeMetrics struct {
	samples map[string][]float64
	err     error
}

func (f *fakeMetrics) ReaderCPUSamples(_ context.Context, _ []string, _, _ time.Duration) (map[string][]float64, error) {
	return f.samples, f.err
}

// fakeNotifier records every message sent to it.
type fakeNotifier struct {
	lock     sync.Mutex
	messages []notifier.Message
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) SendNotification(message notifier.Message) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeNotifier) kinds() []string {
	f.lock.Lock()
	defer f.lock.Unlock()

	kinds := make([]string, 0, len(f.messages))
	for _, message := range f.messages {
		kinds = append(kinds, message.EventKind)
	}
	return kinds
}

// testConfig builds a fully wired configuration against the provided fakes.
func testConfig(inventory *fakeInventory, probe *fakeProbe,
	provisioner *fakeProvisioner, scheduler *fakeScheduler,
	sink *fakeMetrics, recorder *fakeNotifier) *structs.Config {

	return &structs.Config{
		Region:             "eu-central-1",
		ClusterID:          "aurora-prod",
		ScalingInterval:    60,
		ScalingConcurrency: 5,
		OperationTimeout:   60,

		ScaleUp: &structs.ScaleUp{
			Enabled:               true,
			PreferredInstanceType: "r5.large",
			InstanceTypePriority:  []string{"r5.large", "r5.xlarge"},
			AvailabilityZones: []string{
				"eu-central-1a", "eu-central-1b", "eu-central-1c",
			},
			FallbackStrategy: "instance-priority",
			ReaderTier:       15,
			RetryThreshold:   3,
		},

		ScaleDown: &structs.ScaleDown{
			Enabled:         true,
			CPUThreshold:    10,
			LookbackMinutes: 5,
			MetricsPeriod:   60,
		},

		Notification: &structs.Notification{
			ClusterIdentifier: "aurora-prod",
			ScalingUID:        "test-uid",
			Notifiers:         []notifier.Notifier{recorder},
		},

		Inventory:   inventory,
		Probe:       probe,
		Provisioner: provisioner,
		Scheduler:   scheduler,
		Metrics:     sink,
	}
}

// testSnapshot builds the canonical three zone snapshot with two readers in
// zone a and one in zone c.
func testSnapshot() *structs.ClusterSnapshot {
	return &structs.ClusterSnapshot{
		ClusterID:   "aurora-prod",
		WriterID:    "aurora-prod-writer",
		WriterShape: "r5.large",
		WriterZone:  "eu-central-1a",
		Readers: []structs.ReaderInstance{
			{ID: "r-a1", Zone: "eu-central-1a", Status: structs.ReaderStatusAvailable},
			{ID: "r-a2", Zone: "eu-central-1a", Status: structs.ReaderStatusAvailable},
			{ID: "r-c1", Zone: "eu-central-1c", Status: structs.ReaderStatusAvailable},
		},
	}
}
