package scaler

import (
	"context"
	"errors"
	"time"

	metrics "github.com/armon/go-metrics"
	"github.com/xmackex/aurorascaler/logging"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

// eventQueueDepth bounds the number of shortage events that can be queued
// ahead of the worker pool before submissions are rejected.
const eventQueueDepth = 64

// ErrEventNotApplicable is returned by SubmitEvent when the event does not
// target the managed cluster or does not carry the capacity shortage
// classification. Such events are acknowledged and dropped.
var ErrEventNotApplicable = errors.New("event is not applicable to this controller")

// ErrEventQueueFull is returned by SubmitEvent when the inbound event queue
// has no free slots.
var ErrEventQueueFull = errors.New("the scaling event queue is full")

// Server is the long running scaling controller. It owns the inbound
// shortage event queue, the bounded scale-up worker pool and the periodic
// scale-down evaluation ticker.
type Server struct {
	config    *structs.Config
	scaleUp   *ScaleUpEngine
	scaleDown *ScaleDownEngine
	failsafe  *Failsafe

	eventChan    chan *structs.ShortageEvent
	workerSlots  chan struct{}
	shutdownChan chan struct{}
}

// NewServer sets up the scaling controller from a validated configuration.
func NewServer(config *structs.Config) *Server {
	threshold := 0
	if config.ScaleUp != nil {
		threshold = config.ScaleUp.RetryThreshold
	}
	failsafe := NewFailsafe(threshold)

	return &Server{
		config:       config,
		scaleUp:      NewScaleUpEngine(config, failsafe),
		scaleDown:    NewScaleDownEngine(config, failsafe),
		failsafe:     failsafe,
		eventChan:    make(chan *structs.ShortageEvent, eventQueueDepth),
		workerSlots:  make(chan struct{}, config.ScalingConcurrency),
		shutdownChan: make(chan struct{}),
	}
}

// Start launches the event dispatch and periodic evaluation loops. It
// returns immediately; the loops run until Stop is called.
func (s *Server) Start() {
	logging.Info("core/server: starting the scaling controller for cluster "+
		"%v with a worker concurrency of %v and an evaluation interval of %vs",
		s.config.ClusterID, s.config.ScalingConcurrency, s.config.ScalingInterval)

	go s.eventLoop()
	go s.tickLoop()
}

// Stop shuts both controller loops down. In-flight engine runs finish on
// their own operation deadline.
func (s *Server) Stop() {
	close(s.shutdownChan)
}

// Failsafe exposes the shared circuit breaker for the operator API.
func (s *Server) Failsafe() *Failsafe {
	return s.failsafe
}

// SubmitEvent filters and enqueues an inbound shortage event. Events for
// other clusters or with other classifications are dropped with
// ErrEventNotApplicable.
func (s *Server) SubmitEvent(event *structs.ShortageEvent) error {
	if event.ClusterID != s.config.ClusterID {
		logging.Debug("core/server: ignoring event %v for foreign cluster %v",
			event.EventID, event.ClusterID)
		return ErrEventNotApplicable
	}

	if event.EventID != structs.RDSEventInsufficientCapacity {
		logging.Debug("core/server: ignoring event %v, only %v triggers a "+
			"scale-up evaluation", event.EventID,
			structs.RDSEventInsufficientCapacity)
		return ErrEventNotApplicable
	}

	select {
	case s.eventChan <- event:
		metrics.IncrCounter([]string{"server", "event_accepted"}, 1)
		return nil
	default:
		logging.Error("core/server: the scaling event queue is full, "+
			"dropping event %v", event.EventID)
		metrics.IncrCounter([]string{"server", "event_rejected"}, 1)
		return ErrEventQueueFull
	}
}

// eventLoop dispatches queued shortage events onto the bounded worker pool.
func (s *Server) eventLoop() {
	for {
		select {
		case <-s.shutdownChan:
			logging.Info("core/server: shutting down the event dispatch loop")
			return

		case event := <-s.eventChan:
			if s.config.ScaleUp == nil || !s.config.ScaleUp.Enabled {
				logging.Info("core/server: a capacity shortage was reported "+
					"for cluster %v but scale-up is disabled, no action will "+
					"be taken", event.ClusterID)
				continue
			}

			s.workerSlots <- struct{}{}
			go func(event *structs.ShortageEvent) {
				defer func() { <-s.workerSlots }()
				s.runScaleUp(event)
			}(event)
		}
	}
}

// runScaleUp executes one scale-up engine invocation under the configured
// operation deadline.
func (s *Server) runScaleUp(event *structs.ShortageEvent) {
	logging.Info("core/server: processing capacity shortage event %v for "+
		"cluster %v", event.EventID, event.ClusterID)

	ctx, cancel := context.WithTimeout(context.Background(), s.operationTimeout())
	defer cancel()

	result := s.scaleUp.HandleCapacityShortage(ctx)
	switch result.Outcome {
	case structs.ScaleUpCreated:
		logging.Info("core/server: shortage event handled, reader %v was "+
			"created", result.Reader.ID)
	case structs.ScaleUpExhausted:
		logging.Warning("core/server: shortage event handled but no " +
			"placement candidate could be provisioned")
	case structs.ScaleUpFailed:
		logging.Error("core/server: shortage event handling failed: %v",
			result.Err)
	}
}

// tickLoop runs the periodic scale-down evaluation. Each tick first checks
// the external monitoring schedule; while the schedule is disabled the
// controller is dormant and skips the evaluation entirely.
func (s *Server) tickLoop() {
	ticker := time.NewTicker(time.Duration(s.config.ScalingInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdownChan:
			logging.Info("core/server: shutting down the periodic evaluation loop")
			return

		case <-ticker.C:
			if s.config.ScaleDown == nil || !s.config.ScaleDown.Enabled {
				continue
			}
			s.runScaleDown()
		}
	}
}

// runScaleDown executes one scale-down engine invocation under the
// configured operation deadline, gated by the external schedule state.
func (s *Server) runScaleDown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.operationTimeout())
	defer cancel()

	enabled, err := s.config.Scheduler.Enabled(ctx)
	if err != nil {
		logging.Error("core/server: unable to read the monitoring schedule "+
			"state, skipping this evaluation: %v", err)
		return
	}
	if !enabled {
		logging.Debug("core/server: the monitoring schedule is disabled, " +
			"skipping this evaluation")
		return
	}

	result := s.scaleDown.EvaluateTick(ctx)
	switch result.Outcome {
	case structs.ScaleDownRemoved:
		logging.Info("core/server: evaluation removed reader %v", result.Reader.ID)
	case structs.ScaleDownFailed:
		logging.Error("core/server: evaluation failed: %v", result.Err)
	}
}

// operationTimeout returns the per-invocation engine deadline.
func (s *Server) operationTimeout() time.Duration {
	if s.config.OperationTimeout <= 0 {
		return time.Duration(s.config.ScalingInterval) * time.Second
	}
	return time.Duration(s.config.OperationTimeout) * time.Second
}
