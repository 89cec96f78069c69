package api

import "github.com/xmackex/aurorascaler/scaler/structs"

// Status is used to query all status related endpoints.
type Status struct {
	client *Client
}

// Status returns a handle on the status related endpoints.
func (c *Client) Status() *Status {
	return &Status{client: c}
}

// Info is used to query general information about the running agent.
func (s *Status) Info() (structs.StatusResponse, error) {
	var resp structs.StatusResponse

	err := s.client.query("/v1/status", &resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}
