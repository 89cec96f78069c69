package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"
	"github.com/xmackex/aurorascaler/version"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}

// Run sets up the CLI and runs the requested command, returning the exit
// status to pass to the OS.
func Run(args []string) int {

	// Handle the version flags before handing off to the CLI so both
	// -v and -version work as expected.
	for _, arg := range args {
		if arg == "-v" || arg == "-version" || arg == "--version" {
			args = []string{"version"}
			break
		}
	}

	c := &cli.CLI{
		Name:     "aurorascaler",
		Version:  version.Get(),
		Args:     args,
		Commands: Commands(nil),
	}

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
		return 1
	}

	return exitCode
}
