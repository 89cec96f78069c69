package api

import "github.com/xmackex/aurorascaler/scaler/structs"

// Failsafe is used to query and control the agent failsafe circuit breaker.
type Failsafe struct {
	client *Client
}

// Failsafe returns a handle on the failsafe related endpoints.
func (c *Client) Failsafe() *Failsafe {
	return &Failsafe{client: c}
}

// State is used to query the current failsafe mode state.
func (f *Failsafe) State() (structs.FailsafeResponse, error) {
	var resp structs.FailsafeResponse

	err := f.client.query("/v1/failsafe", &resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

// Enable administratively engages failsafe mode, prohibiting all scaling
// operations until the lock is removed.
func (f *Failsafe) Enable() (structs.FailsafeResponse, error) {
	var resp structs.FailsafeResponse
	err := f.client.write("PUT", "/v1/failsafe", nil, &resp)
	return resp, err
}

// Disable removes the failsafe lock and returns the agent to normal
// operations.
func (f *Failsafe) Disable() (structs.FailsafeResponse, error) {
	var resp structs.FailsafeResponse
	err := f.client.write("DELETE", "/v1/failsafe", nil, &resp)
	return resp, err
}
