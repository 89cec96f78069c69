package agent

import (
	"net/http"

	"github.com/xmackex/aurorascaler/scaler/structs"
	"github.com/xmackex/aurorascaler/version"
)

// StatusRequest is used to perform the Status API request.
func (s *HTTPServer) StatusRequest(resp http.ResponseWriter, req *http.Request) (interface{}, error) {
	if req.Method != "GET" {
		return nil, CodedError(405, ErrInvalidMethod)
	}

	status := structs.StatusResponse{
		Version:      version.Get(),
		ClusterID:    s.config.ClusterID,
		FailsafeMode: s.server.Failsafe().Active(),
	}
	return status, nil
}
