package agent

import (
	"net/http"

	"github.com/xmackex/aurorascaler/scaler/structs"
)

// FailsafeRequest exposes the failsafe circuit breaker so operators can
// inspect, engage and release the lock remotely.
func (s *HTTPServer) FailsafeRequest(resp http.ResponseWriter, req *http.Request) (interface{}, error) {

	failsafe := s.server.Failsafe()

	switch req.Method {
	case "GET":

	case "PUT", "POST":
		failsafe.Set(true)

	case "DELETE":
		failsafe.Set(false)

	default:
		return nil, CodedError(405, ErrInvalidMethod)
	}

	return structs.FailsafeResponse{FailsafeMode: failsafe.Active()}, nil
}
