package service

import (
	"context"
	"encoding/json"
	"net/http"
)

// Undecodable bodies come back as node_invalid errors rather than
// transport failures. Agents only understand the node_invalid signal, a
// 4xx would just make them retry forever.

func decodeEnrollAgentRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var req enrollAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, osqueryError{
			message:     "decode enroll agent request: " + err.Error(),
			nodeInvalid: true,
		}
	}
	defer r.Body.Close()
	return req, nil
}

func decodeGetClientConfigRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var req getClientConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, osqueryError{
			message:     "decode get client config request: " + err.Error(),
			nodeInvalid: true,
		}
	}
	defer r.Body.Close()
	return req, nil
}

func decodeSubmitLogsRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var req submitLogsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, osqueryError{
			message:     "decode submit logs request: " + err.Error(),
			nodeInvalid: true,
		}
	}
	defer r.Body.Close()
	return req, nil
}
