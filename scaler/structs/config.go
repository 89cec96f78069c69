package structs

import (
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/xmackex/aurorascaler/notifier"
)

// allowedMetricsPeriods is the fixed set of aggregation periods, in seconds,
// the metrics platform supports for high resolution queries.
var allowedMetricsPeriods = []int{10, 30, 60, 300}

// Config is the main configuration struct used to configure the aurorascaler
// application.
type Config struct {
	// Region represents the AWS region the cluster resides in.
	Region string `mapstructure:"region"`

	// ClusterID is the identifier of the Aurora cluster this controller
	// instance manages. Exactly one cluster is managed per controller.
	ClusterID string `mapstructure:"cluster_id"`

	// LogLevel is the level at which the application should log from.
	LogLevel string `mapstructure:"log_level"`

	// BindAddress is the address the agent HTTP API listens on.
	BindAddress string `mapstructure:"bind_address"`

	// HTTPPort is the port the agent HTTP API listens on.
	HTTPPort string `mapstructure:"http_port"`

	// ScalingInterval is the duration in seconds between periodic scale-down
	// evaluation ticks.
	ScalingInterval int `mapstructure:"scaling_interval"`

	// ScalingConcurrency bounds the number of capacity-shortage events that
	// may be processed simultaneously.
	ScalingConcurrency int `mapstructure:"scaling_concurrency"`

	// OperationTimeout is the overall per-invocation timeout in seconds
	// covering the full candidate-exhaustion loop.
	OperationTimeout int `mapstructure:"operation_timeout_seconds"`

	// ScaleUp is the configuration struct that controls reader placement
	// and provisioning in response to capacity-shortage events.
	ScaleUp *ScaleUp `mapstructure:"scale_up"`

	// ScaleDown is the configuration struct that controls the utilization
	// based reader retirement.
	ScaleDown *ScaleDown `mapstructure:"scale_down"`

	// Telemetry is the configuration struct that controls the telemetry
	// settings.
	Telemetry *Telemetry `mapstructure:"telemetry"`

	// Notification is the configuration struct that controls operator
	// notifications.
	Notification *Notification `mapstructure:"notification"`

	// Inventory provides the cluster fleet state query client.
	Inventory ClusterInventory `mapstructure:"-" json:"-"`

	// Probe provides the placement capacity probe client.
	Probe CapacityProbe `mapstructure:"-" json:"-"`

	// Provisioner provides the reader create/delete client.
	Provisioner Provisioner `mapstructure:"-" json:"-"`

	// Scheduler provides the external tick toggle client.
	Scheduler SchedulerController `mapstructure:"-" json:"-"`

	// Metrics provides the utilization time series client.
	Metrics MetricsSink `mapstructure:"-" json:"-"`
}

// ScaleUp is the configuration struct for reader provisioning activities.
type ScaleUp struct {
	// Enabled indicates whether scale-up actions are permitted.
	Enabled bool `mapstructure:"enabled"`

	// PreferredInstanceType is the instance shape tried first in every zone
	// before any fallback shape is considered.
	PreferredInstanceType string `mapstructure:"preferred_instance_type"`

	// InstanceTypePriority is the ordered list of fallback instance shapes.
	InstanceTypePriority []string `mapstructure:"instance_type_priority"`

	// AvailabilityZones is the curated set of zones readers may be placed
	// in.
	AvailabilityZones []string `mapstructure:"availability_zones"`

	// FallbackStrategy selects the candidate ordering and is one of
	// instance-priority or az-priority.
	FallbackStrategy string `mapstructure:"fallback_strategy"`

	// ReaderTier is the failover promotion tier assigned to created
	// readers.
	ReaderTier int `mapstructure:"reader_tier"`

	// Engine is the database engine of created readers.
	Engine string `mapstructure:"engine"`

	// RetryThreshold is the number of consecutive terminal scale-up
	// failures after which the failsafe circuit breaker trips.
	RetryThreshold int `mapstructure:"retry_threshold"`
}

// ScaleDown is the configuration struct for reader retirement activities.
type ScaleDown struct {
	// Enabled indicates whether scale-down actions are permitted.
	Enabled bool `mapstructure:"enabled"`

	// CPUThreshold is the CPU percentage below which every sample in the
	// lookback window must fall for a reader to qualify for removal.
	CPUThreshold float64 `mapstructure:"cpu_threshold"`

	// LookbackMinutes is the trailing window over which utilization
	// samples are evaluated.
	LookbackMinutes int `mapstructure:"lookback_minutes"`

	// MetricsPeriod is the sample aggregation period in seconds.
	MetricsPeriod int `mapstructure:"metrics_period"`

	// ManagedReaderFloor is the number of managed readers scale-down will
	// never go below.
	ManagedReaderFloor int `mapstructure:"managed_reader_floor"`

	// PreserveZoneSpread, when enabled, skips removal of a reader that is
	// the last managed reader in its zone.
	PreserveZoneSpread bool `mapstructure:"preserve_zone_spread"`

	// ScheduleName is the name of the external schedule that gates the
	// periodic tick.
	ScheduleName string `mapstructure:"schedule_name"`

	// ScheduleGroup is the schedule group the schedule belongs to.
	ScheduleGroup string `mapstructure:"schedule_group"`
}

// Telemetry is the struct that controls the telemetry configuration. If a
// value is present then telemetry is enabled. Currently statsd is only
// supported for sending telemetry.
type Telemetry struct {
	// StatsdAddress specifies the address of a statsd server to forward
	// metrics to and should include the port.
	StatsdAddress string `mapstructure:"statsd_address"`
}

// Notification is the control struct for aurorascaler notifications.
type Notification struct {
	// ClusterIdentifier is a friendly name which is used when sending
	// notifications for easy human identification.
	ClusterIdentifier string `mapstructure:"cluster_identifier"`

	// ScalingUID is the UID to associate to fleet scaling alerts.
	ScalingUID string `mapstructure:"scaling_uid"`

	// SNSTopicARN is the SNS topic notifications are published to.
	SNSTopicARN string `mapstructure:"sns_topic_arn"`

	// SNSRegion is the region the SNS topic lives in.
	SNSRegion string `mapstructure:"sns_region"`

	// PagerDutyServiceKey is the PD integration key for the Events API v1.
	PagerDutyServiceKey string `mapstructure:"pagerduty_service_key"`

	// OpsGenieAPIKey is the OpsGenie alerts API key.
	OpsGenieAPIKey string `mapstructure:"opsgenie_api_key"`

	// Notifiers is where our initialized notification backends are stored
	// so they can be used on the fly when required.
	Notifiers []notifier.Notifier `mapstructure:"-" json:"-"`
}

// Strategy returns the typed fallback strategy. Validate must have accepted
// the configuration before this is called.
func (c *Config) Strategy() FallbackStrategy {
	strategy, _ := ParseFallbackStrategy(c.ScaleUp.FallbackStrategy)
	return strategy
}

// Validate checks the configuration surface against the documented bounds
// and aggregates every violation found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.ClusterID == "" {
		result = multierror.Append(result, fmt.Errorf("cluster_id is required"))
	}

	if c.ScalingInterval <= 0 {
		result = multierror.Append(result, fmt.Errorf(
			"scaling_interval must be positive, got %v", c.ScalingInterval))
	}

	if c.ScalingConcurrency <= 0 {
		result = multierror.Append(result, fmt.Errorf(
			"scaling_concurrency must be positive, got %v", c.ScalingConcurrency))
	}

	if c.ScaleUp != nil {
		if c.ScaleUp.PreferredInstanceType == "" {
			result = multierror.Append(result, fmt.Errorf(
				"scale_up -> preferred_instance_type is required"))
		}

		if l := len(c.ScaleUp.InstanceTypePriority); l < 1 || l > 10 {
			result = multierror.Append(result, fmt.Errorf(
				"scale_up -> instance_type_priority must contain between 1 and "+
					"10 entries, got %v", l))
		}

		if l := len(c.ScaleUp.AvailabilityZones); l < 1 || l > 6 {
			result = multierror.Append(result, fmt.Errorf(
				"scale_up -> availability_zones must contain between 1 and 6 "+
					"entries, got %v", l))
		}

		if _, err := ParseFallbackStrategy(c.ScaleUp.FallbackStrategy); err != nil {
			result = multierror.Append(result, multierror.Prefix(err, "scale_up ->"))
		}

		if c.ScaleUp.ReaderTier < 0 || c.ScaleUp.ReaderTier > 15 {
			result = multierror.Append(result, fmt.Errorf(
				"scale_up -> reader_tier must be between 0 and 15, got %v",
				c.ScaleUp.ReaderTier))
		}
	}

	if c.ScaleDown != nil {
		if c.ScaleDown.CPUThreshold < 1 || c.ScaleDown.CPUThreshold > 90 {
			result = multierror.Append(result, fmt.Errorf(
				"scale_down -> cpu_threshold must be between 1 and 90, got %v",
				c.ScaleDown.CPUThreshold))
		}

		if c.ScaleDown.LookbackMinutes < 1 || c.ScaleDown.LookbackMinutes > 60 {
			result = multierror.Append(result, fmt.Errorf(
				"scale_down -> lookback_minutes must be between 1 and 60, got %v",
				c.ScaleDown.LookbackMinutes))
		}

		validPeriod := false
		for _, p := range allowedMetricsPeriods {
			if c.ScaleDown.MetricsPeriod == p {
				validPeriod = true
			}
		}
		if !validPeriod {
			result = multierror.Append(result, fmt.Errorf(
				"scale_down -> metrics_period must be one of %v, got %v",
				allowedMetricsPeriods, c.ScaleDown.MetricsPeriod))
		}

		if c.ScaleDown.ManagedReaderFloor < 0 {
			result = multierror.Append(result, fmt.Errorf(
				"scale_down -> managed_reader_floor must not be negative, got %v",
				c.ScaleDown.ManagedReaderFloor))
		}
	}

	return result.ErrorOrNil()
}

// Merge merges two configurations.
func (c *Config) Merge(b *Config) *Config {
	config := *c

	if b.Region != "" {
		config.Region = b.Region
	}

	if b.ClusterID != "" {
		config.ClusterID = b.ClusterID
	}

	if b.LogLevel != "" {
		config.LogLevel = b.LogLevel
	}

	if b.BindAddress != "" {
		config.BindAddress = b.BindAddress
	}

	if b.HTTPPort != "" {
		config.HTTPPort = b.HTTPPort
	}

	if b.ScalingInterval > 0 {
		config.ScalingInterval = b.ScalingInterval
	}

	if b.ScalingConcurrency > 0 {
		config.ScalingConcurrency = b.ScalingConcurrency
	}

	if b.OperationTimeout > 0 {
		config.OperationTimeout = b.OperationTimeout
	}

	// Apply the ScaleUp config
	if config.ScaleUp == nil && b.ScaleUp != nil {
		scaleUp := *b.ScaleUp
		config.ScaleUp = &scaleUp
	} else if b.ScaleUp != nil {
		config.ScaleUp = config.ScaleUp.Merge(b.ScaleUp)
	}

	// Apply the ScaleDown config
	if config.ScaleDown == nil && b.ScaleDown != nil {
		scaleDown := *b.ScaleDown
		config.ScaleDown = &scaleDown
	} else if b.ScaleDown != nil {
		config.ScaleDown = config.ScaleDown.Merge(b.ScaleDown)
	}

	// Apply the Telemetry config
	if config.Telemetry == nil && b.Telemetry != nil {
		telemetry := *b.Telemetry
		config.Telemetry = &telemetry
	} else if b.Telemetry != nil {
		config.Telemetry = config.Telemetry.Merge(b.Telemetry)
	}

	// Apply the Notification config
	if config.Notification == nil && b.Notification != nil {
		notification := *b.Notification
		config.Notification = &notification
	} else if b.Notification != nil {
		config.Notification = config.Notification.Merge(b.Notification)
	}

	return &config
}

// Merge is used to merge two ScaleUp configurations together.
func (s *ScaleUp) Merge(b *ScaleUp) *ScaleUp {
	config := *s

	if b.Enabled {
		config.Enabled = b.Enabled
	}

	if b.PreferredInstanceType != "" {
		config.PreferredInstanceType = b.PreferredInstanceType
	}

	if len(b.InstanceTypePriority) != 0 {
		config.InstanceTypePriority = b.InstanceTypePriority
	}

	if len(b.AvailabilityZones) != 0 {
		config.AvailabilityZones = b.AvailabilityZones
	}

	if b.FallbackStrategy != "" {
		config.FallbackStrategy = b.FallbackStrategy
	}

	if b.ReaderTier != 0 {
		config.ReaderTier = b.ReaderTier
	}

	if b.Engine != "" {
		config.Engine = b.Engine
	}

	if b.RetryThreshold != 0 {
		config.RetryThreshold = b.RetryThreshold
	}

	return &config
}

// Merge is used to merge two ScaleDown configurations together.
func (s *ScaleDown) Merge(b *ScaleDown) *ScaleDown {
	config := *s

	if b.Enabled {
		config.Enabled = b.Enabled
	}

	if b.CPUThreshold != 0 {
		config.CPUThreshold = b.CPUThreshold
	}

	if b.LookbackMinutes != 0 {
		config.LookbackMinutes = b.LookbackMinutes
	}

	if b.MetricsPeriod != 0 {
		config.MetricsPeriod = b.MetricsPeriod
	}

	if b.ManagedReaderFloor != 0 {
		config.ManagedReaderFloor = b.ManagedReaderFloor
	}

	if b.PreserveZoneSpread {
		config.PreserveZoneSpread = b.PreserveZoneSpread
	}

	if b.ScheduleName != "" {
		config.ScheduleName = b.ScheduleName
	}

	if b.ScheduleGroup != "" {
		config.ScheduleGroup = b.ScheduleGroup
	}

	return &config
}

// Merge is used to merge two Telemetry configurations together.
func (t *Telemetry) Merge(b *Telemetry) *Telemetry {
	config := *t

	if b.StatsdAddress != "" {
		config.StatsdAddress = b.StatsdAddress
	}

	return &config
}

// Merge is used to merge two Notification configurations together.
func (n *Notification) Merge(b *Notification) *Notification {
	config := *n

	if b.ClusterIdentifier != "" {
		config.ClusterIdentifier = b.ClusterIdentifier
	}

	if b.ScalingUID != "" {
		config.ScalingUID = b.ScalingUID
	}

	if b.SNSTopicARN != "" {
		config.SNSTopicARN = b.SNSTopicARN
	}

	if b.SNSRegion != "" {
		config.SNSRegion = b.SNSRegion
	}

	if b.PagerDutyServiceKey != "" {
		config.PagerDutyServiceKey = b.PagerDutyServiceKey
	}

	if b.OpsGenieAPIKey != "" {
		config.OpsGenieAPIKey = b.OpsGenieAPIKey
	}

	return &config
}
