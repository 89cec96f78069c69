package agent

import (
	"net/http"

	"github.com/ugorji/go/codec"
	"github.com/xmackex/aurorascaler/scaler"
	"github.com/xmackex/aurorascaler/scaler/structs"
)

// EventRequest ingests a capacity shortage event delivered by the event
// transport. Events that do not apply to the managed cluster are
// acknowledged and dropped so upstream delivery never retries them.
func (s *HTTPServer) EventRequest(resp http.ResponseWriter, req *http.Request) (interface{}, error) {
	if req.Method != "POST" {
		return nil, CodedError(405, ErrInvalidMethod)
	}

	var event structs.ShortageEvent
	dec := codec.NewDecoder(req.Body, JSONHandle)
	if err := dec.Decode(&event); err != nil {
		return nil, CodedError(400, "unable to decode the event payload")
	}

	if event.ClusterID == "" || event.EventID == "" {
		return nil, CodedError(400, "the event must carry a cluster id and an event id")
	}

	switch err := s.server.SubmitEvent(&event); err {
	case nil:
		return structs.EventResponse{Status: structs.EventStatusAccepted}, nil
	case scaler.ErrEventNotApplicable:
		return structs.EventResponse{Status: structs.EventStatusIgnored}, nil
	case scaler.ErrEventQueueFull:
		return nil, CodedError(503, err.Error())
	default:
		return nil, err
	}
}
