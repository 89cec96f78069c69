package command

import (
	"fmt"
	"strings"

	"github.com/xmackex/aurorascaler/api"
)

// FailsafeCommand is a command implementation that allows operators to
// place the agent in or take the agent out of failsafe mode.
type FailsafeCommand struct {
	Meta
	args []string
}

// Help provides the help information for the failsafe command.
func (c *FailsafeCommand) Help() string {
	helpText := `
Usage: aurorascaler failsafe [options]

  Allows an operator to administratively control the failsafe behavior
  of the aurorascaler agent. When the agent enters failsafe mode, all
  scaling operations are prohibited.

  Failsafe mode is intended to stabilize a fleet that has experienced
  consecutive terminal failures while attempting to perform scaling
  operations.

  To exit failsafe mode, an operator must explicitly remove the failsafe
  lock after identifying the root cause of the failures.

  General Options:

    -http-addr=<address>
      The address of the aurorascaler agent API. By default, this is
      http://127.0.0.1:8000 and may also be set via the
      AURORASCALER_ADDR environment variable.

  Failsafe Mode Options:

    -disable
      Remove the failsafe lock. The agent will return to normal
      operations.

    -enable
      Engage the failsafe lock. The agent will be prohibited from
      taking any scaling actions.

    -force
      Suppress confirmation prompts when enabling or disabling the
      failsafe lock.
`
	return strings.TrimSpace(helpText)
}

// Synopsis is provides a brief summary of the failsafe command.
func (c *FailsafeCommand) Synopsis() string {
	return "Provide an administrative interface to control failsafe mode."
}

// Run triggers the failsafe command to query the agent and manipulate the
// failsafe lock.
func (c *FailsafeCommand) Run(args []string) int {

	// The operator must specify at least one operation.
	if len(args) == 0 {
		c.UI.Error(c.Help())
		return 1
	}

	var enable, disable, force bool

	c.args = args
	flags := c.Meta.FlagSet("failsafe", FlagSetClient)
	flags.Usage = func() { c.UI.Error(c.Help()) }

	flags.BoolVar(&enable, "enable", false, "Engage failsafe mode")
	flags.BoolVar(&disable, "disable", false, "Release failsafe mode")
	flags.BoolVar(&force, "force", false, "Suppress confirmation prompts.")

	if err := flags.Parse(c.args); err != nil {
		return 1
	}

	// Check that we were sent either enable or disable, but not both.
	if (enable && disable) || (!enable && !disable) {
		c.UI.Error(c.Help())
		return 1
	}

	verb := "enable"
	if disable {
		verb = "disable"
	}

	apiClient, err := api.NewClient(&api.Config{Address: c.Meta.httpAddr})
	if err != nil {
		c.UI.Error(fmt.Sprintf("An error occurred while setting up the API "+
			"client: %v", err))
		return 1
	}

	// Read the current state so no-op requests can be reported without
	// asking for confirmation.
	state, err := apiClient.Failsafe().State()
	if err != nil {
		c.UI.Error(fmt.Sprintf("An error occurred while querying the agent: %v", err))
		return 1
	}

	if state.FailsafeMode && enable || !state.FailsafeMode && disable {
		c.UI.Warn(fmt.Sprintf("Failsafe mode is already in desired state \"%vd\""+
			", no action required.", verb))
		return 0
	}

	// If the user has not disabled confirmation prompts, ask for confirmation.
	if !force {
		question := fmt.Sprintf("Are you sure you want to %s the failsafe "+
			"lock?\n", verb)

		// If we're enabling failsafe mode, give the user a clear warning about
		// the implications.
		if enable {
			question = fmt.Sprintf("%vNo scaling operations will be permitted "+
				"until the lock is removed.\n", question)
		}

		// Ask for confirmation and parse the response.
		answer, err := c.UI.Ask(fmt.Sprintf("%vConfirm [y/N]: ", question))
		if err != nil {
			c.UI.Error(fmt.Sprintf("Failed to parse answer: %v", err))
			return 1
		}

		// Validate the confirmation response.
		if answer == "" || strings.ToLower(answer)[0] == 'n' {
			c.UI.Output(fmt.Sprintf("Cancelling, will not %v failsafe mode.", verb))
			return 0
		} else if answer != "y" {
			c.UI.Output("No confirmation detected. For confirmation, an exact " +
				"'y' is required.")
			return 1
		}
	}

	if enable {
		_, err = apiClient.Failsafe().Enable()
	} else {
		_, err = apiClient.Failsafe().Disable()
	}
	if err != nil {
		c.UI.Error(fmt.Sprintf("An error occurred while attempting to %v "+
			"failsafe mode: %v", verb, err))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Successfully %vd failsafe mode.", verb))

	return 0
}
