package structs

import (
	"reflect"
	"strings"
	"testing"
)

func TestConfig_Merge(t *testing.T) {

	base := &Config{
		Region:             "eu-central-1",
		ClusterID:          "aurora-prod",
		LogLevel:           "INFO",
		ScalingInterval:    60,
		ScalingConcurrency: 10,

		ScaleUp: &ScaleUp{
			PreferredInstanceType: "r6i.32xlarge",
			InstanceTypePriority:  []string{"r7i.48xlarge"},
			AvailabilityZones:     []string{"eu-central-1a"},
			FallbackStrategy:      "instance-priority",
			ReaderTier:            15,
		},

		ScaleDown: &ScaleDown{
			CPUThreshold:    10,
			LookbackMinutes: 5,
			MetricsPeriod:   60,
			ScheduleName:    "aurora-cpu-monitor-every-minute",
		},

		Telemetry:    &Telemetry{},
		Notification: &Notification{},
	}

	override := &Config{
		LogLevel: "DEBUG",

		ScaleUp: &ScaleUp{
			PreferredInstanceType: "r6id.32xlarge",
		},

		ScaleDown: &ScaleDown{
			CPUThreshold: 25,
		},

		Telemetry: &Telemetry{
			StatsdAddress: "10.0.0.10:8125",
		},

		Notification: &Notification{
			ClusterIdentifier: "aurora-prod",
		},
	}

	merged := base.Merge(override)

	if merged.LogLevel != "DEBUG" {
		t.Fatalf("expected log level DEBUG got %v", merged.LogLevel)
	}
	if merged.Region != "eu-central-1" {
		t.Fatalf("expected region eu-central-1 got %v", merged.Region)
	}
	if merged.ScaleUp.PreferredInstanceType != "r6id.32xlarge" {
		t.Fatalf("expected preferred type r6id.32xlarge got %v",
			merged.ScaleUp.PreferredInstanceType)
	}
	if !reflect.DeepEqual(merged.ScaleUp.InstanceTypePriority, []string{"r7i.48xlarge"}) {
		t.Fatalf("expected priority list to be preserved, got %v",
			merged.ScaleUp.InstanceTypePriority)
	}
	if merged.ScaleDown.CPUThreshold != 25 {
		t.Fatalf("expected cpu threshold 25 got %v", merged.ScaleDown.CPUThreshold)
	}
	if merged.ScaleDown.LookbackMinutes != 5 {
		t.Fatalf("expected lookback 5 got %v", merged.ScaleDown.LookbackMinutes)
	}
	if merged.Telemetry.StatsdAddress != "10.0.0.10:8125" {
		t.Fatalf("expected statsd address to merge, got %v",
			merged.Telemetry.StatsdAddress)
	}
	if merged.Notification.ClusterIdentifier != "aurora-prod" {
		t.Fatalf("expected cluster identifier to merge, got %v",
			merged.Notification.ClusterIdentifier)
	}
}

func TestConfig_Validate(t *testing.T) {

	valid := &Config{
		ClusterID:          "aurora-prod",
		ScalingInterval:    60,
		ScalingConcurrency: 10,

		ScaleUp: &ScaleUp{
			PreferredInstanceType: "r6i.32xlarge",
			InstanceTypePriority:  []string{"r7i.48xlarge", "r6id.32xlarge"},
			AvailabilityZones:     []string{"eu-central-1a", "eu-central-1b"},
			FallbackStrategy:      "az-priority",
			ReaderTier:            15,
		},

		ScaleDown: &ScaleDown{
			CPUThreshold:    10,
			LookbackMinutes: 5,
			MetricsPeriod:   60,
		},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config to pass validation, got %v", err)
	}

	invalid := &Config{
		ScalingInterval:    0,
		ScalingConcurrency: 10,

		ScaleUp: &ScaleUp{
			InstanceTypePriority: []string{},
			AvailabilityZones: []string{
				"a", "b", "c", "d", "e", "f", "g",
			},
			FallbackStrategy: "round-robin",
			ReaderTier:       16,
		},

		ScaleDown: &ScaleDown{
			CPUThreshold:    95,
			LookbackMinutes: 90,
			MetricsPeriod:   45,
		},
	}

	err := invalid.Validate()
	if err == nil {
		t.Fatal("expected invalid config to fail validation")
	}

	for _, expected := range []string{
		"cluster_id is required",
		"scaling_interval must be positive",
		"preferred_instance_type is required",
		"instance_type_priority must contain between 1 and 10",
		"availability_zones must contain between 1 and 6",
		"invalid fallback strategy",
		"reader_tier must be between 0 and 15",
		"cpu_threshold must be between 1 and 90",
		"lookback_minutes must be between 1 and 60",
		"metrics_period must be one of",
	} {
		if !strings.Contains(err.Error(), expected) {
			t.Fatalf("expected validation error to include %q, got:\n%v", expected, err)
		}
	}
}

func TestConfig_ParseFallbackStrategy(t *testing.T) {

	strategy, err := ParseFallbackStrategy("instance-priority")
	if err != nil {
		t.Fatal(err)
	}
	if strategy != InstancePriority {
		t.Fatalf("expected InstancePriority got %v", strategy)
	}

	strategy, err = ParseFallbackStrategy("az-priority")
	if err != nil {
		t.Fatal(err)
	}
	if strategy != AZPriority {
		t.Fatalf("expected AZPriority got %v", strategy)
	}

	if _, err := ParseFallbackStrategy("zone-affinity"); err == nil {
		t.Fatal("expected an error for an unknown strategy")
	}
}

func TestClusterSnapshot_ZoneReaderCounts(t *testing.T) {

	snapshot := &ClusterSnapshot{
		ClusterID: "aurora-prod",
		Readers: []ReaderInstance{
			{ID: "r1", Zone: "eu-central-1a", Status: ReaderStatusAvailable},
			{ID: "r2", Zone: "eu-central-1a", Status: ReaderStatusAvailable},
			{ID: "r3", Zone: "eu-central-1b", Status: ReaderStatusDeleting},
			{ID: "r4", Zone: "eu-central-1c", Status: ReaderStatusAvailable},
			{ID: "r5", Zone: "eu-west-1a", Status: ReaderStatusAvailable},
		},
	}

	zones := []string{"eu-central-1a", "eu-central-1b", "eu-central-1c"}
	expected := map[string]int{
		"eu-central-1a": 2,
		"eu-central-1b": 0,
		"eu-central-1c": 1,
	}

	counts := snapshot.ZoneReaderCounts(zones)
	if !reflect.DeepEqual(counts, expected) {
		t.Fatalf("expected \n%#v\n\n, got \n\n%#v\n\n", expected, counts)
	}
}

func TestClusterSnapshot_ManagedReaders(t *testing.T) {

	snapshot := &ClusterSnapshot{
		Readers: []ReaderInstance{
			{ID: "r1", Managed: true, Status: ReaderStatusAvailable},
			{ID: "r2", Managed: false, Status: ReaderStatusAvailable},
			{ID: "r3", Managed: true, Status: ReaderStatusDeleting},
		},
	}

	managed := snapshot.ManagedReaders()
	if len(managed) != 1 {
		t.Fatalf("expected 1 managed reader got %v", len(managed))
	}
	if managed[0].ID != "r1" {
		t.Fatalf("expected managed reader r1 got %v", managed[0].ID)
	}
}
