package scaler

import (
	"context"
	"fmt"
	"sort"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/dariubs/percent"
	"github.com/xmackex/aurorascaler/helper"
	"github.com/xmackex/aurorascaler/logging"
	"github.com/xmackex/aurorascaler/notifier"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

// removalCandidate pairs a managed reader with its utilization observations
// for victim selection.
type removalCandidate struct {
	reader structs.ReaderInstance
	sample structs.UtilizationSample
}

// ScaleDownEngine performs the periodic utilization evaluation that retires
// idle managed readers, removing at most one reader per tick.
type ScaleDownEngine struct {
	config   *structs.Config
	failsafe *Failsafe
}

// NewScaleDownEngine sets up a scale-down engine against the provided
// configuration and shared failsafe circuit breaker.
func NewScaleDownEngine(config *structs.Config, failsafe *Failsafe) *ScaleDownEngine {
	return &ScaleDownEngine{
		config:   config,
		failsafe: failsafe,
	}
}

// EvaluateTick runs one scale-down evaluation. The fleet state and the
// utilization series are always re-read at the start of the tick; a failed
// tick carries no state forward, the next tick simply re-evaluates.
func (e *ScaleDownEngine) EvaluateTick(ctx context.Context) *structs.ScaleDownResult {
	defer metrics.MeasureSince([]string{"scale_down", "evaluation_time"}, time.Now())

	if !e.failsafe.Check() {
		logging.Warning("core/scale_down: failsafe mode is active, no " +
			"scale-down action will be taken")
		return &structs.ScaleDownResult{Outcome: structs.ScaleDownNoAction}
	}

	snapshot, err := e.config.Inventory.ClusterSnapshot(ctx, e.config.ClusterID)
	if err != nil {
		logging.Error("core/scale_down: unable to read the fleet state of %v: %v",
			e.config.ClusterID, err)
		return &structs.ScaleDownResult{Outcome: structs.ScaleDownFailed, Err: err}
	}

	managed := snapshot.ManagedReaders()
	if len(managed) == 0 {
		logging.Debug("core/scale_down: cluster %v has no managed readers",
			e.config.ClusterID)
		e.disableMonitoring(ctx)
		return &structs.ScaleDownResult{Outcome: structs.ScaleDownNoAction}
	}

	if len(managed) <= e.config.ScaleDown.ManagedReaderFloor {
		logging.Debug("core/scale_down: cluster %v is at its managed reader "+
			"floor of %v, no removal will be evaluated", e.config.ClusterID,
			e.config.ScaleDown.ManagedReaderFloor)
		return &structs.ScaleDownResult{Outcome: structs.ScaleDownNoAction}
	}

	readerIDs := make([]string, 0, len(managed))
	for _, reader := range managed {
		readerIDs = append(readerIDs, reader.ID)
	}

	samples, err := e.config.Metrics.ReaderCPUSamples(ctx, readerIDs,
		time.Duration(e.config.ScaleDown.LookbackMinutes)*time.Minute,
		time.Duration(e.config.ScaleDown.MetricsPeriod)*time.Second)
	if err != nil {
		logging.Error("core/scale_down: unable to read utilization metrics "+
			"for cluster %v: %v", e.config.ClusterID, err)
		return &structs.ScaleDownResult{Outcome: structs.ScaleDownFailed, Err: err}
	}

	candidates := e.qualifyReaders(managed, samples)
	if len(candidates) == 0 {
		logging.Debug("core/scale_down: none of the %v managed readers on "+
			"cluster %v qualify for removal", len(managed), e.config.ClusterID)
		return &structs.ScaleDownResult{Outcome: structs.ScaleDownNoAction}
	}

	victim := e.selectVictim(candidates, snapshot)

	logging.Info("core/scale_down: reader %v has had all %v samples below "+
		"%v%% CPU over the last %vm (avg %.2f%%) and has been selected for "+
		"removal", victim.reader.ID, victim.sample.SampleCount,
		e.config.ScaleDown.CPUThreshold, e.config.ScaleDown.LookbackMinutes,
		victim.sample.AvgCPU)

	if err := e.config.Provisioner.RemoveReader(ctx, victim.reader.ID); err != nil {
		logging.Error("core/scale_down: failed to remove reader %v, the next "+
			"evaluation will retry: %v", victim.reader.ID, err)
		metrics.IncrCounter([]string{"scale_down", "failure"}, 1)
		sendNotification(e.config, notifier.EventKindFailed,
			"reader removal failed",
			fmt.Sprintf("failed to remove idle reader %v from cluster %v: %v",
				victim.reader.ID, e.config.ClusterID, err))
		return &structs.ScaleDownResult{
			Outcome: structs.ScaleDownFailed,
			Reader:  &victim.reader,
			Err:     err,
		}
	}

	logging.Info("core/scale_down: successfully removed reader %v from "+
		"cluster %v", victim.reader.ID, e.config.ClusterID)
	metrics.IncrCounter([]string{"scale_down", "success"}, 1)
	sendNotification(e.config, notifier.EventKindRemoved,
		"idle reader removed",
		fmt.Sprintf("removed reader %v from cluster %v: all %v CPU samples "+
			"over the trailing %vm were below %v%% (avg %.2f%%); %.0f%% of "+
			"the managed fleet was idle", victim.reader.ID, e.config.ClusterID,
			victim.sample.SampleCount, e.config.ScaleDown.LookbackMinutes,
			e.config.ScaleDown.CPUThreshold, victim.sample.AvgCPU,
			percent.PercentOf(len(candidates), len(managed))))

	if len(managed)-1 == 0 {
		e.disableMonitoring(ctx)
	}

	return &structs.ScaleDownResult{
		Outcome: structs.ScaleDownRemoved,
		Reader:  &victim.reader,
	}
}

// qualifyReaders filters the managed readers down to those whose every
// utilization sample over the lookback window fell below the configured CPU
// threshold. A reader with no samples cannot demonstrate it is idle and is
// skipped.
func (e *ScaleDownEngine) qualifyReaders(managed []structs.ReaderInstance,
	samples map[string][]float64) []removalCandidate {

	var candidates []removalCandidate

	for _, reader := range managed {
		series := samples[reader.ID]
		if len(series) == 0 {
			logging.Debug("core/scale_down: reader %v has no utilization "+
				"samples and will not be considered", reader.ID)
			continue
		}

		if helper.Max(series...) >= e.config.ScaleDown.CPUThreshold {
			continue
		}

		if e.config.ScaleDown.PreserveZoneSpread && e.lastManagedInZone(reader, managed) {
			logging.Debug("core/scale_down: reader %v is the last managed "+
				"reader in %v and zone spread preservation is enabled",
				reader.ID, reader.Zone)
			continue
		}

		candidates = append(candidates, removalCandidate{
			reader: reader,
			sample: structs.UtilizationSample{
				ReaderID:    reader.ID,
				AvgCPU:      helper.Avg(series),
				SampleCount: len(series),
				Samples:     series,
			},
		})
	}

	return candidates
}

// lastManagedInZone reports whether the reader is the only managed reader
// placed in its zone.
func (e *ScaleDownEngine) lastManagedInZone(reader structs.ReaderInstance,
	managed []structs.ReaderInstance) bool {

	for _, other := range managed {
		if other.ID != reader.ID && other.Zone == reader.Zone {
			return false
		}
	}
	return true
}

// selectVictim picks the single reader to remove from the qualifying set.
// Removal prefers the zone holding the most readers so the fleet stays
// spread, then the lowest average CPU, then the oldest reader so instance
// ages stay staggered.
func (e *ScaleDownEngine) selectVictim(candidates []removalCandidate,
	snapshot *structs.ClusterSnapshot) removalCandidate {

	zoneCounts := snapshot.ZoneReaderCounts(e.config.ScaleUp.AvailabilityZones)

	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := zoneCounts[candidates[i].reader.Zone], zoneCounts[candidates[j].reader.Zone]
		if ci != cj {
			return ci > cj
		}
		if candidates[i].sample.AvgCPU != candidates[j].sample.AvgCPU {
			return candidates[i].sample.AvgCPU < candidates[j].sample.AvgCPU
		}
		return candidates[i].reader.CreatedAt.Before(candidates[j].reader.CreatedAt)
	})

	return candidates[0]
}

// disableMonitoring turns the external monitoring schedule off once the
// cluster holds no managed readers, returning the controller to its dormant
// state. Failures are logged only; the next tick re-detects the condition.
func (e *ScaleDownEngine) disableMonitoring(ctx context.Context) {
	enabled, err := e.config.Scheduler.Enabled(ctx)
	if err != nil {
		logging.Error("core/scale_down: unable to read the monitoring "+
			"schedule state: %v", err)
		return
	}
	if !enabled {
		return
	}

	if err := e.config.Scheduler.Disable(ctx); err != nil {
		logging.Error("core/scale_down: unable to disable the monitoring "+
			"schedule: %v", err)
		return
	}

	logging.Info("core/scale_down: cluster %v has no managed readers, the "+
		"monitoring schedule has been disabled", e.config.ClusterID)
}
