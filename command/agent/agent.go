package agent

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	metrics "github.com/armon/go-metrics"
	"github.com/xmackex/aurorascaler/client"
	"github.com/xmackex/aurorascaler/command"
	"github.com/xmackex/aurorascaler/helper"
	"github.com/xmackex/aurorascaler/logging"
	"github.com/xmackex/aurorascaler/notifier"
	"github.com/xmackex/aurorascaler/scaler"
	"github.com/xmackex/aurorascaler/scaler/structs"
	"github.com/xmackex/aurorascaler/version"
)

// Command is the agent command structure used to track passed args as well as
// the CLI meta.
type Command struct {
	command.Meta
	args []string
}

// Run triggers a run of the aurorascaler agent by setting up and parsing the
// configuration and then initiating a new scaling controller.
func (c *Command) Run(args []string) int {

	c.args = args
	conf := c.parseFlags()
	if conf == nil {
		return 1
	}

	// Set the logging level for the logger.
	logging.SetLevel(conf.LogLevel)

	if err := conf.Validate(); err != nil {
		c.UI.Error(fmt.Sprintf("configuration validation failed: %v", err))
		return 1
	}

	// Initialize telemetry if this was configured by the user.
	if conf.Telemetry.StatsdAddress != "" {
		sink, statsErr := metrics.NewStatsdSink(conf.Telemetry.StatsdAddress)
		if statsErr != nil {
			c.UI.Error(fmt.Sprintf("unable to setup telemetry correctly: %v", statsErr))
			return 1
		}
		metrics.NewGlobal(metrics.DefaultConfig("aurorascaler"), sink)
	}

	if err := initializeClients(conf); err != nil {
		c.UI.Error(fmt.Sprintf("unable to initialize the AWS clients: %v", err))
		return 1
	}

	// Create the scaling controller with the merged configuration parameters.
	server := scaler.NewServer(conf)

	logging.Info("command/agent: running version %v", version.Get())
	logging.Info("command/agent: starting aurorascaler agent...")
	server.Start()

	httpServer, err := NewHTTPServer(server, conf)
	if err != nil {
		c.UI.Error(fmt.Sprintf("unable to start the HTTP API: %v", err))
		return 1
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	for {
		select {
		case s := <-signalCh:
			switch s {
			case syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				server.Stop()
				httpServer.Shutdown()
				return 0

			case syscall.SIGHUP:
				logging.Info("command/agent: received SIGHUP, reloading configuration")

				newConf := c.parseFlags()
				if newConf == nil {
					continue
				}

				changed, err := helper.HasObjectChanged(
					reloadableConfig(conf), reloadableConfig(newConf))
				if err != nil {
					logging.Error("command/agent: unable to compare "+
						"configurations, continuing with the running one: %v", err)
					continue
				}
				if !changed {
					logging.Info("command/agent: no configuration changes detected")
					continue
				}

				if err := newConf.Validate(); err != nil {
					logging.Error("command/agent: the reloaded configuration is "+
						"invalid, continuing with the running one: %v", err)
					continue
				}

				logging.SetLevel(newConf.LogLevel)

				if err := initializeClients(newConf); err != nil {
					logging.Error("command/agent: unable to initialize the AWS "+
						"clients from the reloaded configuration, continuing "+
						"with the running one: %v", err)
					continue
				}

				server.Stop()
				httpServer.Shutdown()

				conf = newConf
				server = scaler.NewServer(conf)
				server.Start()

				httpServer, err = NewHTTPServer(server, conf)
				if err != nil {
					c.UI.Error(fmt.Sprintf("unable to restart the HTTP API: %v", err))
					return 1
				}
			}
		}
	}
}

// reloadableConfig strips the runtime only fields from a configuration so
// two parses of the same files hash identically.
func reloadableConfig(conf *structs.Config) structs.Config {
	stripped := *conf
	stripped.Region = ""
	stripped.Inventory = nil
	stripped.Probe = nil
	stripped.Provisioner = nil
	stripped.Scheduler = nil
	stripped.Metrics = nil

	if conf.Notification != nil {
		notification := *conf.Notification
		notification.Notifiers = nil
		stripped.Notification = &notification
	}

	return stripped
}

// initializeClients completes the setup process for the AWS service clients
// and notification backends. Must be called after configuration merging and
// validation are complete.
func initializeClients(config *structs.Config) error {

	// If no region was configured, attempt to dynamically determine it from
	// the instance metadata.
	if config.Region == "" {
		region, err := client.DescribeAWSRegion()
		if err != nil {
			return fmt.Errorf("no region is configured and the region could "+
				"not be dynamically determined: %v", err)
		}
		config.Region = region
		logging.Info("command/agent: dynamically determined the AWS region "+
			"to be %v", region)
	}

	rdsClient := client.NewRDSClient(config.Region, config.ScaleUp.Engine)
	config.Inventory = rdsClient
	config.Provisioner = rdsClient
	config.Probe = client.NewEC2CapacityProbe(config.Region)
	config.Scheduler = client.NewSchedulerClient(config.Region,
		config.ScaleDown.ScheduleName, config.ScaleDown.ScheduleGroup)
	config.Metrics = client.NewCloudWatchMetrics(config.Region)

	return setupNotifiers(config)
}

// setupNotifiers initializes a notification backend for every configured
// provider and stores them on the configuration for use by the engines.
func setupNotifiers(config *structs.Config) error {
	notification := config.Notification
	if notification == nil {
		return nil
	}
	notification.Notifiers = nil

	if notification.SNSTopicARN != "" {
		region := notification.SNSRegion
		if region == "" {
			region = config.Region
		}
		provider, err := notifier.NewProvider("sns", map[string]string{
			"SNSTopicARN": notification.SNSTopicARN,
			"SNSRegion":   region,
		})
		if err != nil {
			return err
		}
		notification.Notifiers = append(notification.Notifiers, provider)
	}

	if notification.PagerDutyServiceKey != "" {
		provider, err := notifier.NewProvider("pagerduty", map[string]string{
			"PagerDutyServiceKey": notification.PagerDutyServiceKey,
		})
		if err != nil {
			return err
		}
		notification.Notifiers = append(notification.Notifiers, provider)
	}

	if notification.OpsGenieAPIKey != "" {
		provider, err := notifier.NewProvider("opsgenie", map[string]string{
			"OpsGenieAPIKey": notification.OpsGenieAPIKey,
		})
		if err != nil {
			return err
		}
		notification.Notifiers = append(notification.Notifiers, provider)
	}

	for _, n := range notification.Notifiers {
		logging.Info("command/agent: notification backend %v has been "+
			"initialized", n.Name())
	}

	return nil
}

func (c *Command) parseFlags() *structs.Config {

	var configPath string
	var dev bool

	// An empty new config is setup here to allow us to fill this with any passed
	// cli flags for later merging.
	cliConfig := &structs.Config{
		ScaleUp:      &structs.ScaleUp{},
		ScaleDown:    &structs.ScaleDown{},
		Telemetry:    &structs.Telemetry{},
		Notification: &structs.Notification{},
	}

	flags := c.Meta.FlagSet("agent", command.FlagSetClient)
	flags.Usage = func() { c.UI.Error(c.Help()) }

	flags.StringVar(&configPath, "config", "", "")
	flags.BoolVar(&dev, "dev", false, "")

	// Top level configuration flags
	flags.StringVar(&cliConfig.Region, "aws-region", "", "")
	flags.StringVar(&cliConfig.ClusterID, "cluster-id", "", "")
	flags.StringVar(&cliConfig.LogLevel, "log-level", "", "")
	flags.StringVar(&cliConfig.BindAddress, "bind-address", "", "")
	flags.StringVar(&cliConfig.HTTPPort, "http-port", "", "")
	flags.IntVar(&cliConfig.ScalingInterval, "scaling-interval", 0, "")
	flags.IntVar(&cliConfig.ScalingConcurrency, "scaling-concurrency", 0, "")

	// Scale-up configuration flags
	flags.BoolVar(&cliConfig.ScaleUp.Enabled, "scale-up-enabled", false, "")
	flags.StringVar(&cliConfig.ScaleUp.PreferredInstanceType, "preferred-instance-type", "", "")
	flags.StringVar(&cliConfig.ScaleUp.FallbackStrategy, "fallback-strategy", "", "")

	// Scale-down configuration flags
	flags.BoolVar(&cliConfig.ScaleDown.Enabled, "scale-down-enabled", false, "")
	flags.Float64Var(&cliConfig.ScaleDown.CPUThreshold, "cpu-threshold", 0, "")
	flags.IntVar(&cliConfig.ScaleDown.LookbackMinutes, "lookback-minutes", 0, "")

	// Telemetry configuration flags
	flags.StringVar(&cliConfig.Telemetry.StatsdAddress, "statsd-address", "", "")

	if err := flags.Parse(c.args); err != nil {
		return nil
	}

	// Load the default configuration which will be the basis for merging with
	// the supplied configuration file(s)
	config := DefaultConfig()
	if dev {
		config = DevConfig()
	}

	if configPath != "" {
		current, err := LoadConfig(configPath)
		if err != nil {
			c.UI.Error(fmt.Sprintf("Error loading configuration from %s: %s", configPath, err))
			return nil
		}

		config = config.Merge(current)
	}

	config = config.Merge(cliConfig)
	return config
}

// Help provides the help information for the agent command.
func (c *Command) Help() string {
	helpText := `
  Usage: aurorascaler agent [options]

    Starts the aurorascaler agent and runs until an interrupt is
    received. The agent's configuration primarily comes from the config
    files used. If no config file is passed, a default config will be
    used.

  General Options:

    -config=<path>
      The path to either a single config file or a directory of config
      files to use for configuring the aurorascaler agent. Config
      files are processed in lexicographic order.

    -dev
      Start the agent with a development oriented configuration which
      uses shorter intervals and debug logging.

    -aws-region=<region>
      The AWS region in which the Aurora cluster is running. If no
      region is specified, the agent attempts to dynamically determine
      the region from the instance metadata.

    -cluster-id=<id>
      The identifier of the Aurora cluster this agent manages. Exactly
      one cluster is managed per agent.

    -log-level=<level>
      Specify the verbosity level of the agent's logs. The default is
      INFO.

    -bind-address=<address>
      The address the agent HTTP API listens on. The default is
      0.0.0.0.

    -http-port=<port>
      The port the agent HTTP API listens on. The default is 8000.

    -scaling-interval=<num>
      The time period in seconds between utilization evaluation runs.
      The default is 60.

    -scaling-concurrency=<num>
      The maximum number of capacity shortage events that may be
      processed simultaneously. The default is 5.

    -scale-up-enabled
      Indicates whether the agent should provision readers in response
      to capacity shortage events. If disabled, shortage events are
      acknowledged and logged but no action is taken.

    -preferred-instance-type=<type>
      The instance shape tried first in every availability zone before
      any fallback shape is considered.

    -fallback-strategy=<strategy>
      The ordering of placement attempts when the preferred shape has
      no capacity; one of instance-priority or az-priority. The
      default is instance-priority.

    -scale-down-enabled
      Indicates whether the agent should retire idle readers. If
      disabled, the evaluations that would have removed a reader are
      reported in the logs but skipped.

    -cpu-threshold=<num>
      The CPU percentage below which every sample in the lookback
      window must fall for a reader to qualify for removal. The
      default is 10.

    -lookback-minutes=<num>
      The trailing window in minutes over which utilization samples
      are evaluated. The default is 5.

    -statsd-address=<address:port>
      Specifies the address of a statsd server to forward metrics
      to and should include the port.

`
	return strings.TrimSpace(helpText)
}

// Synopsis is provides a brief summary of the agent command.
func (c *Command) Synopsis() string {
	return "Runs an aurorascaler agent"
}
