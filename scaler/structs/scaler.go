package structs

import (
	"context"
	"fmt"
	"time"
)

// RDSEventInsufficientCapacity is the RDS event category identifier emitted
// when the cluster is unable to satisfy read capacity demand. Only shortage
// events carrying this classification trigger a scale-up evaluation.
const RDSEventInsufficientCapacity = "RDS-EVENT-0031"

// Set of possible states for a reader instance as reported by the database
// control plane.
const (
	ReaderStatusAvailable = "available"
	ReaderStatusCreating  = "creating"
	ReaderStatusDeleting  = "deleting"
)

// FallbackStrategy determines the ordering of placement candidates when the
// preferred instance shape has no capacity.
type FallbackStrategy int

const (
	// InstancePriority exhausts all zones for each instance shape before
	// advancing to the next shape.
	InstancePriority FallbackStrategy = iota

	// AZPriority exhausts all instance shapes within each zone before
	// advancing to the next zone.
	AZPriority
)

// String returns the configuration representation of the strategy.
func (f FallbackStrategy) String() string {
	switch f {
	case InstancePriority:
		return "instance-priority"
	case AZPriority:
		return "az-priority"
	}
	return "unknown"
}

// ParseFallbackStrategy converts the configuration string form of a fallback
// strategy into its typed representation.
func ParseFallbackStrategy(s string) (FallbackStrategy, error) {
	switch s {
	case "instance-priority":
		return InstancePriority, nil
	case "az-priority":
		return AZPriority, nil
	}
	return 0, fmt.Errorf("invalid fallback strategy %q, must be one of: "+
		"instance-priority, az-priority", s)
}

// ReaderInstance represents a single read replica as observed from the
// database control plane. The controller only observes and tags readers; it
// never mutates one other than by creating or deleting it.
type ReaderInstance struct {
	// ID is the unique instance identifier.
	ID string

	// Shape is the instance type descriptor without the db. prefix.
	Shape string

	// Zone is the availability zone the reader is placed in.
	Zone string

	// Tier is the failover promotion tier; lower values are promoted first.
	Tier int

	// Status is the instance lifecycle status reported by the control plane.
	Status string

	// Managed indicates the reader carries the controller's management tags
	// and is therefore eligible for autonomous removal.
	Managed bool

	// CreatedAt is the instance creation timestamp.
	CreatedAt time.Time
}

// ClusterSnapshot is a point-in-time view of the cluster fleet. It is
// recomputed on every engine invocation and never cached across invocations.
type ClusterSnapshot struct {
	// ClusterID is the cluster identifier the snapshot was taken from.
	ClusterID string

	// WriterID, WriterShape and WriterZone describe the writer instance.
	WriterID    string
	WriterShape string
	WriterZone  string

	// Readers is the ordered list of reader instances in the cluster.
	Readers []ReaderInstance
}

// ZoneReaderCounts returns the number of healthy readers per configured
// zone. Readers in a deleting state are excluded since their capacity is
// already leaving the fleet.
func (s *ClusterSnapshot) ZoneReaderCounts(zones []string) map[string]int {
	counts := make(map[string]int, len(zones))
	for _, zone := range zones {
		counts[zone] = 0
	}

	for _, reader := range s.Readers {
		if reader.Status == ReaderStatusDeleting {
			continue
		}
		if _, ok := counts[reader.Zone]; ok {
			counts[reader.Zone]++
		}
	}
	return counts
}

// ManagedReaders returns the controller-managed readers in the snapshot,
// excluding any that are already being deleted.
func (s *ClusterSnapshot) ManagedReaders() []ReaderInstance {
	managed := make([]ReaderInstance, 0, len(s.Readers))
	for _, reader := range s.Readers {
		if reader.Managed && reader.Status != ReaderStatusDeleting {
			managed = append(managed, reader)
		}
	}
	return managed
}

// PlacementCandidate is a single (shape, zone) placement to attempt during
// scale-up. Rank is the position in the fallback sequence and is used only
// for logging and tie-break determinism, never for scoring.
type PlacementCandidate struct {
	Shape string
	Zone  string
	Rank  int
}

// UtilizationSample holds the CPU utilization observations for one reader
// over the evaluation window. It is derived from metrics queries and is
// recomputed on every tick.
type UtilizationSample struct {
	ReaderID    string
	AvgCPU      float64
	SampleCount int
	Samples     []float64
}

// Capacity is the tri-state answer from a capacity probe.
type Capacity int

const (
	// CapacityUnknown means the advisory probe could not determine
	// availability; callers must treat this as "capacity may exist" and
	// attempt the placement.
	CapacityUnknown Capacity = iota

	// CapacityAvailable means the probe confirmed placement capacity.
	CapacityAvailable

	// CapacityUnavailable means the probe confirmed there is no capacity.
	CapacityUnavailable
)

// String returns a human readable representation of the probe answer.
func (c Capacity) String() string {
	switch c {
	case CapacityAvailable:
		return "available"
	case CapacityUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// ShortageEvent is the inbound capacity-shortage signal delivered to the
// agent by the event transport.
type ShortageEvent struct {
	// ClusterID is the identifier of the cluster the event was raised for.
	ClusterID string `json:"cluster_id"`

	// EventID is the control plane event classification code.
	EventID string `json:"event_id"`

	// Message is the free form event description, carried for logging only.
	Message string `json:"message,omitempty"`
}

// ClusterInventory reads the current fleet state from the database control
// plane.
type ClusterInventory interface {
	// ClusterSnapshot returns a freshly computed view of the writer and all
	// readers for the specified cluster.
	ClusterSnapshot(ctx context.Context, clusterID string) (*ClusterSnapshot, error)
}

// CapacityProbe asks the compute platform whether a placement is likely to
// succeed before attempting it. The probe is advisory and non-binding.
type CapacityProbe interface {
	// CheckCapacity reports whether the (shape, zone) pair currently has
	// placement capacity. Probe failures are folded into CapacityUnknown.
	CheckCapacity(ctx context.Context, shape, zone string) Capacity
}

// Provisioner creates and removes reader instances through the database
// control plane.
type Provisioner interface {
	// CreateReader creates one reader for the chosen placement and tags it
	// as controller-managed before returning success.
	CreateReader(ctx context.Context, clusterID, shape, zone string, tier int) (*ReaderInstance, error)

	// RemoveReader deletes a reader instance. The removal is guarded by the
	// management tag; removal of an untagged reader returns ErrReaderNotManaged.
	RemoveReader(ctx context.Context, readerID string) error
}

// SchedulerController is the external two-state toggle gating the periodic
// scale-down tick. Enable and Disable are idempotent.
type SchedulerController interface {
	Enabled(ctx context.Context) (bool, error)
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// MetricsSink queries the utilization time series for reader instances.
type MetricsSink interface {
	// ReaderCPUSamples returns the ordered average CPU percentage samples
	// for each requested reader over the trailing lookback window at the
	// given aggregation period.
	ReaderCPUSamples(ctx context.Context, readerIDs []string, lookback, period time.Duration) (map[string][]float64, error)
}
