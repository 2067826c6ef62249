package service

import (
	"context"
	"time"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/fincham/mango/server/mango"
)

func (mw loggingMiddleware) EnrollAgent(ctx context.Context, enrollSecret string) (string, error) {
	var (
		nodeKey string
		err     error
	)

	defer func(begin time.Time) {
		_ = mw.loggerDebug(err).Log(
			"method", "EnrollAgent",
			"err", err,
			"took", time.Since(begin),
			"ip_addr", ctx.Value(kithttp.ContextKeyRequestRemoteAddr),
			"x_for_ip_addr", ctx.Value(kithttp.ContextKeyRequestXForwardedFor),
		)
	}(time.Now())

	nodeKey, err = mw.Service.EnrollAgent(ctx, enrollSecret)
	return nodeKey, err
}

func (mw loggingMiddleware) AuthenticateHost(ctx context.Context, nodeKey string) (*mango.Host, error) {
	var (
		host *mango.Host
		err  error
	)

	defer func(begin time.Time) {
		_ = mw.loggerDebug(err).Log(
			"method", "AuthenticateHost",
			"err", err,
			"took", time.Since(begin),
			"ip_addr", ctx.Value(kithttp.ContextKeyRequestRemoteAddr),
			"x_for_ip_addr", ctx.Value(kithttp.ContextKeyRequestXForwardedFor),
		)
	}(time.Now())

	host, err = mw.Service.AuthenticateHost(ctx, nodeKey)
	return host, err
}

func (mw loggingMiddleware) GetClientConfig(ctx context.Context) (*mango.OsqueryConfig, error) {
	var (
		config *mango.OsqueryConfig
		err    error
	)

	defer func(begin time.Time) {
		_ = mw.loggerDebug(err).Log(
			"method", "GetClientConfig",
			"err", err,
			"took", time.Since(begin),
			"ip_addr", ctx.Value(kithttp.ContextKeyRequestRemoteAddr),
			"x_for_ip_addr", ctx.Value(kithttp.ContextKeyRequestXForwardedFor),
		)
	}(time.Now())

	config, err = mw.Service.GetClientConfig(ctx)
	return config, err
}

func (mw loggingMiddleware) SubmitResultLogs(ctx context.Context, logType string, logs []mango.ResultLogItem) error {
	var err error

	defer func(begin time.Time) {
		_ = mw.loggerDebug(err).Log(
			"method", "SubmitResultLogs",
			"err", err,
			"log_type", logType,
			"items", len(logs),
			"took", time.Since(begin),
			"ip_addr", ctx.Value(kithttp.ContextKeyRequestRemoteAddr),
			"x_for_ip_addr", ctx.Value(kithttp.ContextKeyRequestXForwardedFor),
		)
	}(time.Now())

	err = mw.Service.SubmitResultLogs(ctx, logType, logs)
	return err
}
