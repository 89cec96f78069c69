package api

import "github.com/xmackex/aurorascaler/scaler/structs"

// Events is used to deliver capacity shortage events to the agent.
type Events struct {
	client *Client
}

// Events returns a handle on the event ingest endpoint.
func (c *Client) Events() *Events {
	return &Events{client: c}
}

// Submit delivers a capacity shortage event to the agent for evaluation.
func (e *Events) Submit(event *structs.ShortageEvent) (structs.EventResponse, error) {
	var resp structs.EventResponse

	err := e.client.write("POST", "/v1/event", event, &resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}
