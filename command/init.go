package command

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
)

const (
	// DefaultInitName is the default name we use when initializing the
	// example configuration file.
	DefaultInitName = "example.hcl"
)

// InitCommand is a command implementation that writes an example agent
// configuration file to the local directory.
type InitCommand struct {
	Meta
}

// Help provides the help information for the init command.
func (c *InitCommand) Help() string {
	helpText := `
Usage: aurorascaler init

  Creates an example agent configuration file that can be used as a
  starting point to customize further. The example covers every
  recognized configuration option with workable defaults.
`
	return strings.TrimSpace(helpText)
}

// Synopsis is provides a brief summary of the init command.
func (c *InitCommand) Synopsis() string {
	return "Create an example aurorascaler configuration file"
}

// Run triggers the init command to write the example.hcl file out to the
// current directory.
func (c *InitCommand) Run(args []string) int {

	// The command should be used with 0 extra flags.
	if len(args) != 0 {
		c.UI.Error(c.Help())
		return 1
	}

	// Check if the file already exists.
	_, err := os.Stat(DefaultInitName)
	if err != nil && !os.IsNotExist(err) {
		c.UI.Error(fmt.Sprintf("Failed to stat '%s': %v", DefaultInitName, err))
		return 1
	}
	if !os.IsNotExist(err) {
		c.UI.Error(fmt.Sprintf("Configuration file '%s' already exists", DefaultInitName))
		return 1
	}

	// Write the example file to the relative local directory where
	// aurorascaler was invoked from.
	err = ioutil.WriteFile(DefaultInitName, []byte(defaultAgentConfig), 0660)
	if err != nil {
		c.UI.Error(fmt.Sprintf("Failed to write '%s': %v", DefaultInitName, err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Example configuration file written to %s", DefaultInitName))
	return 0
}

var defaultAgentConfig = strings.TrimSpace(`
region              = "eu-central-1"
cluster_id          = "aurora-prod"
log_level           = "INFO"
bind_address        = "0.0.0.0"
http_port           = "8000"
scaling_interval    = 60
scaling_concurrency = 5

operation_timeout_seconds = 120

scale_up {
  enabled                 = true
  preferred_instance_type = "r5.large"
  instance_type_priority  = ["r5.large", "r5.xlarge"]
  availability_zones      = ["eu-central-1a", "eu-central-1b", "eu-central-1c"]
  fallback_strategy       = "instance-priority"
  reader_tier             = 15
  engine                  = "aurora-postgresql"
  retry_threshold         = 3
}

scale_down {
  enabled              = true
  cpu_threshold        = 10
  lookback_minutes     = 5
  metrics_period       = 60
  managed_reader_floor = 0
  preserve_zone_spread = false
  schedule_name        = "aurorascaler-cpu-monitor"
  schedule_group       = "default"
}

telemetry {
  statsd_address = "localhost:8125"
}

notification {
  cluster_identifier = "aurora-prod"
  scaling_uid        = "AUR1"
  sns_topic_arn      = "arn:aws:sns:eu-central-1:123456789012:aurorascaler-events"
  sns_region         = "eu-central-1"
}
`) + "\n"
