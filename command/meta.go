package command

import (
	"flag"
	"io/ioutil"

	"github.com/mitchellh/cli"
)

// FlagSetFlags is an enum to define what flags are present in the default
// FlagSet returned by Meta.FlagSet.
type FlagSetFlags uint

const (
	// FlagSetNone requests a bare flag set.
	FlagSetNone FlagSetFlags = 0

	// FlagSetClient requests the flags common to all client commands.
	FlagSetClient FlagSetFlags = 1 << iota
)

// Meta contains the meta-options and functionality that nearly every
// aurorascaler command inherits.
type Meta struct {
	UI cli.Ui

	// These are set by the command line flags.
	httpAddr string
}

// FlagSet returns a FlagSet with the common flags for the requested flag
// set behavior attached.
func (m *Meta) FlagSet(n string, fs FlagSetFlags) *flag.FlagSet {
	f := flag.NewFlagSet(n, flag.ContinueOnError)

	if fs&FlagSetClient != 0 {
		f.StringVar(&m.httpAddr, "http-addr", "", "")
	}

	// The usage output is handled per command so the default output is
	// silenced here.
	f.SetOutput(ioutil.Discard)

	return f
}
