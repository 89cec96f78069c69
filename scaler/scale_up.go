package scaler

import (
	"context"
	"fmt"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/xmackex/aurorascaler/logging"
	"github.com/xmackex/aurorascaler/notifier"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

// ScaleUpEngine reacts to capacity-shortage events by provisioning exactly
// one reader per event, walking the placement fallback sequence until a
// placement lands or every candidate has been tried.
type ScaleUpEngine struct {
	config   *structs.Config
	failsafe *Failsafe
}

// NewScaleUpEngine sets up a scale-up engine against the provided
// configuration and shared failsafe circuit breaker.
func NewScaleUpEngine(config *structs.Config, failsafe *Failsafe) *ScaleUpEngine {
	return &ScaleUpEngine{
		config:   config,
		failsafe: failsafe,
	}
}

// HandleCapacityShortage runs one full scale-up evaluation for a received
// capacity-shortage event. The fleet state is always re-read from the
// control plane at the start of the run; nothing is carried over from
// previous invocations.
func (e *ScaleUpEngine) HandleCapacityShortage(ctx context.Context) *structs.ScaleUpResult {
	defer metrics.MeasureSince([]string{"scale_up", "evaluation_time"}, time.Now())

	if !e.failsafe.Check() {
		logging.Warning("core/scale_up: failsafe mode is active, no scale-up " +
			"action will be taken")
		return &structs.ScaleUpResult{
			Outcome: structs.ScaleUpFailed,
			Err:     fmt.Errorf("failsafe mode is active"),
		}
	}

	snapshot, err := e.config.Inventory.ClusterSnapshot(ctx, e.config.ClusterID)
	if err != nil {
		logging.Error("core/scale_up: unable to read the fleet state of %v: %v",
			e.config.ClusterID, err)
		sendNotification(e.config, notifier.EventKindFailed,
			"reader provisioning failed",
			fmt.Sprintf("unable to read the fleet state of cluster %v: %v",
				e.config.ClusterID, err))
		return &structs.ScaleUpResult{Outcome: structs.ScaleUpFailed, Err: err}
	}

	zones := e.config.ScaleUp.AvailabilityZones
	candidates := SelectPlacements(
		e.config.ScaleUp.PreferredInstanceType,
		e.config.ScaleUp.InstanceTypePriority,
		zones,
		snapshot.ZoneReaderCounts(zones),
		e.config.Strategy(),
	)

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			logging.Error("core/scale_up: evaluation deadline exceeded after "+
				"%v of %v candidates", candidate.Rank, len(candidates))
			return &structs.ScaleUpResult{
				Outcome: structs.ScaleUpFailed,
				Err:     ctx.Err(),
			}
		}

		capacity := e.config.Probe.CheckCapacity(ctx, candidate.Shape, candidate.Zone)
		if capacity == structs.CapacityUnavailable {
			logging.Debug("core/scale_up: no capacity for %v in %v, advancing "+
				"to the next candidate", candidate.Shape, candidate.Zone)
			continue
		}

		logging.Info("core/scale_up: attempting to provision a %v reader in "+
			"%v (candidate %v of %v, probe answer %v)", candidate.Shape,
			candidate.Zone, candidate.Rank+1, len(candidates), capacity)

		reader, err := e.config.Provisioner.CreateReader(ctx,
			e.config.ClusterID, candidate.Shape, candidate.Zone,
			e.config.ScaleUp.ReaderTier)
		if err != nil {
			if structs.IsTerminalError(err) {
				logging.Error("core/scale_up: terminal failure provisioning a "+
					"%v reader in %v, aborting the run: %v", candidate.Shape,
					candidate.Zone, err)
				e.failsafe.RecordFailure()
				metrics.IncrCounter([]string{"scale_up", "failure"}, 1)
				sendNotification(e.config, notifier.EventKindFailed,
					"reader provisioning failed",
					fmt.Sprintf("terminal failure provisioning a %v reader in "+
						"%v for cluster %v: %v", candidate.Shape, candidate.Zone,
						e.config.ClusterID, err))
				return &structs.ScaleUpResult{
					Outcome:   structs.ScaleUpFailed,
					Candidate: candidate,
					Err:       err,
				}
			}

			logging.Warning("core/scale_up: failed to provision a %v reader "+
				"in %v, advancing to the next candidate: %v", candidate.Shape,
				candidate.Zone, err)
			continue
		}

		e.failsafe.Reset()

		// Creation succeeded so utilization monitoring must be running to
		// eventually retire the reader again. An enable failure here is not
		// worth failing a successful placement for.
		if err := e.config.Scheduler.Enable(ctx); err != nil {
			logging.Error("core/scale_up: reader %v was created but the "+
				"monitoring schedule could not be enabled: %v", reader.ID, err)
		}

		logging.Info("core/scale_up: successfully provisioned reader %v (%v) "+
			"in %v for cluster %v", reader.ID, reader.Shape, reader.Zone,
			e.config.ClusterID)
		metrics.IncrCounter([]string{"scale_up", "success"}, 1)
		sendNotification(e.config, notifier.EventKindCreated,
			"reader provisioned",
			fmt.Sprintf("created reader %v (%v) in %v for cluster %v",
				reader.ID, reader.Shape, reader.Zone, e.config.ClusterID))

		return &structs.ScaleUpResult{
			Outcome:   structs.ScaleUpCreated,
			Reader:    reader,
			Candidate: candidate,
		}
	}

	logging.Warning("core/scale_up: exhausted all %v placement candidates "+
		"for cluster %v without a successful placement", len(candidates),
		e.config.ClusterID)
	metrics.IncrCounter([]string{"scale_up", "exhausted"}, 1)
	sendNotification(e.config, notifier.EventKindExhausted,
		"reader placement exhausted",
		fmt.Sprintf("all %v placement candidates across shapes %v were "+
			"attempted for cluster %v and none could be provisioned",
			len(candidates), append([]string{e.config.ScaleUp.PreferredInstanceType},
				e.config.ScaleUp.InstanceTypePriority...), e.config.ClusterID))

	return &structs.ScaleUpResult{Outcome: structs.ScaleUpExhausted}
}
