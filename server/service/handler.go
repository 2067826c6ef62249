package service

import (
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/throttled/throttled/v2"

	"github.com/fincham/mango/server/config"
	"github.com/fincham/mango/server/mango"
	"github.com/fincham/mango/server/service/middleware/ratelimit"
)

// MangoEndpoints is a collection of RPC endpoints implemented by the
// mango API.
type MangoEndpoints struct {
	EnrollAgent     endpoint.Endpoint
	GetClientConfig endpoint.Endpoint
	SubmitLogs      endpoint.Endpoint
}

// MakeMangoServerEndpoints makes all the endpoints used by the mango
// server. Enrollment is rate limited with the provided store, the other
// endpoints require host authentication.
func MakeMangoServerEndpoints(svc mango.Service, conf config.MangoConfig, limitStore throttled.GCRAStore) MangoEndpoints {
	limiter := ratelimit.NewMiddleware(limitStore)
	enrollQuota := throttled.RateQuota{
		MaxRate:  throttled.PerMin(conf.Osquery.EnrollRequestsPerMinute),
		MaxBurst: conf.Osquery.EnrollRequestsPerMinute,
	}

	return MangoEndpoints{
		EnrollAgent:     limiter.Limit("enroll", enrollQuota)(makeEnrollAgentEndpoint(svc)),
		GetClientConfig: authenticatedHost(svc, makeGetClientConfigEndpoint(svc)),
		SubmitLogs:      authenticatedHost(svc, makeSubmitLogsEndpoint(svc)),
	}
}

type mangoHandlers struct {
	EnrollAgent     http.Handler
	GetClientConfig http.Handler
	SubmitLogs      http.Handler
}

func makeKitHandlers(e MangoEndpoints, opts []kithttp.ServerOption) *mangoHandlers {
	newServer := func(e endpoint.Endpoint, decodeFn kithttp.DecodeRequestFunc) http.Handler {
		return kithttp.NewServer(e, decodeFn, encodeResponse, opts...)
	}
	return &mangoHandlers{
		EnrollAgent:     newServer(e.EnrollAgent, decodeEnrollAgentRequest),
		GetClientConfig: newServer(e.GetClientConfig, decodeGetClientConfigRequest),
		SubmitLogs:      newServer(e.SubmitLogs, decodeSubmitLogsRequest),
	}
}

// MakeHandler creates an HTTP handler for the mango node API.
func MakeHandler(svc mango.Service, conf config.MangoConfig, logger kitlog.Logger, limitStore throttled.GCRAStore) http.Handler {
	mangoAPIOptions := []kithttp.ServerOption{
		kithttp.ServerBefore(
			kithttp.PopulateRequestContext,
		),
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(level.Error(logger))),
		kithttp.ServerErrorEncoder(encodeError),
	}

	mangoEndpoints := MakeMangoServerEndpoints(svc, conf, limitStore)
	mangoHandlers := makeKitHandlers(mangoEndpoints, mangoAPIOptions)

	r := mux.NewRouter()
	attachAPIRoutes(r, mangoHandlers)

	return r
}

func attachAPIRoutes(r *mux.Router, h *mangoHandlers) {
	r.Handle("/api/v1/osquery/enroll", h.EnrollAgent).Methods("POST").Name("enroll_agent")
	r.Handle("/api/v1/osquery/config", h.GetClientConfig).Methods("POST").Name("get_client_config")
	r.Handle("/api/v1/osquery/log", h.SubmitLogs).Methods("POST").Name("submit_logs")
}
