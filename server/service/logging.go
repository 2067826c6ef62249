package service

import (
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/fincham/mango/server/mango"
)

// NewLoggingService wraps the service with a middleware that logs the
// outcome and duration of every method call.
func NewLoggingService(svc mango.Service, logger kitlog.Logger) mango.Service {
	return loggingMiddleware{Service: svc, logger: logger}
}

type loggingMiddleware struct {
	mango.Service
	logger kitlog.Logger
}

// loggerDebug returns the debug level leveled logger when err is nil, the
// error level one otherwise.
func (mw loggingMiddleware) loggerDebug(err error) kitlog.Logger {
	if err != nil {
		return level.Error(mw.logger)
	}
	return level.Debug(mw.logger)
}
