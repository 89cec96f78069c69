package structs

import (
	"errors"
	"fmt"
)

// ErrReaderNotManaged is returned when a removal is requested for a reader
// that does not carry the controller's management tags. Such readers are
// protected from deletion.
var ErrReaderNotManaged = errors.New("reader is not managed by this controller")

// ProvisionError classifies a provisioning failure so the scale-up engine
// can decide whether to advance to the next placement candidate or abort
// the run.
type ProvisionError struct {
	// Code is the control plane error code, kept for logging.
	Code string

	// Terminal indicates a configuration or authorization condition that
	// retrying against a different candidate cannot fix.
	Terminal bool

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (p *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning failed (%s): %v", p.Code, p.Err)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (p *ProvisionError) Unwrap() error {
	return p.Err
}

// NewProvisionError builds a classified provisioning failure.
func NewProvisionError(code string, terminal bool, err error) *ProvisionError {
	return &ProvisionError{Code: code, Terminal: terminal, Err: err}
}

// IsTerminalError reports whether the error represents a terminal condition
// that must abort the current engine run. Unclassified errors are treated as
// soft so the engine keeps walking the candidate list.
func IsTerminalError(err error) bool {
	var pErr *ProvisionError
	if errors.As(err, &pErr) {
		return pErr.Terminal
	}
	return false
}
