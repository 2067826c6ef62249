package service

import (
	"context"

	"github.com/go-kit/kit/endpoint"

	hostctx "github.com/fincham/mango/server/contexts/host"
	"github.com/fincham/mango/server/mango"
)

////////////////////////////////////////////////////////////////////////////////
// Enroll Agent
////////////////////////////////////////////////////////////////////////////////

type enrollAgentRequest struct {
	EnrollSecret   string `json:"enroll_secret"`
	HostIdentifier string `json:"host_identifier"`
}

type enrollAgentResponse struct {
	NodeKey     string `json:"node_key,omitempty"`
	NodeInvalid bool   `json:"node_invalid"`
	Err         error  `json:"error,omitempty"`
}

func (r enrollAgentResponse) error() error { return r.Err }

func makeEnrollAgentEndpoint(svc mango.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(enrollAgentRequest)
		nodeKey, err := svc.EnrollAgent(ctx, req.EnrollSecret)
		if err != nil {
			return enrollAgentResponse{Err: err}, nil
		}
		return enrollAgentResponse{NodeKey: nodeKey}, nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// Get Client Config
////////////////////////////////////////////////////////////////////////////////

type getClientConfigRequest struct {
	NodeKey string `json:"node_key"`
}

type getClientConfigResponse struct {
	Schedule    mango.Schedule `json:"schedule,omitempty"`
	NodeInvalid bool           `json:"node_invalid"`
	Err         error          `json:"error,omitempty"`
}

func (r getClientConfigResponse) error() error { return r.Err }

func makeGetClientConfigEndpoint(svc mango.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		config, err := svc.GetClientConfig(ctx)
		if err != nil {
			return getClientConfigResponse{Err: err}, nil
		}
		return getClientConfigResponse{Schedule: config.Schedule}, nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// Submit Logs
////////////////////////////////////////////////////////////////////////////////

type submitLogsRequest struct {
	NodeKey string                `json:"node_key"`
	LogType string                `json:"log_type"`
	Data    []mango.ResultLogItem `json:"data"`
}

type submitLogsResponse struct {
	NodeInvalid bool  `json:"node_invalid"`
	Err         error `json:"error,omitempty"`
}

func (r submitLogsResponse) error() error { return r.Err }

func makeSubmitLogsEndpoint(svc mango.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(submitLogsRequest)
		if err := svc.SubmitResultLogs(ctx, req.LogType, req.Data); err != nil {
			return submitLogsResponse{Err: err}, nil
		}
		// the invalidate flag is reported back as-is, matching the
		// wire field the agent already watches
		nodeInvalid := false
		if host, ok := hostctx.FromContext(ctx); ok {
			nodeInvalid = host.Invalidate
		}
		return submitLogsResponse{NodeInvalid: nodeInvalid}, nil
	}
}
