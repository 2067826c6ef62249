// Package service holds the implementation of the mango service
// interface and the HTTP endpoints to the API.
package service

import (
	"github.com/WatchBeam/clock"
	kitlog "github.com/go-kit/log"

	"github.com/fincham/mango/server/config"
	"github.com/fincham/mango/server/mango"
	"github.com/fincham/mango/server/service/osquery_utils"
)

// NewService creates a new service for the mango server.
func NewService(ds mango.Datastore, logger kitlog.Logger, mangoConfig config.MangoConfig, c clock.Clock) (mango.Service, error) {
	svc := service{
		ds:               ds,
		logger:           logger,
		config:           mangoConfig,
		clock:            c,
		bootstrapQueries: osquery_utils.GetBootstrapQueries(),
	}
	return svc, nil
}

type service struct {
	ds     mango.Datastore
	logger kitlog.Logger
	config config.MangoConfig
	clock  clock.Clock

	bootstrapQueries map[string]osquery_utils.BootstrapQuery
}

// osqueryError is the error returned to osquery agents. When nodeInvalid
// is set the transport encodes it as a "node_invalid" response so the
// agent re-enrolls.
type osqueryError struct {
	message     string
	nodeInvalid bool
}

func (e osqueryError) Error() string {
	return e.message
}

func (e osqueryError) NodeInvalid() bool {
	return e.nodeInvalid
}
