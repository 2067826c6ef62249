package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WatchBeam/clock"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/throttled/throttled/v2/store/memstore"

	"github.com/fincham/mango/server/config"
	"github.com/fincham/mango/server/datastore/inmem"
	"github.com/fincham/mango/server/datastore/mysql"
	"github.com/fincham/mango/server/health"
	"github.com/fincham/mango/server/mango"
	"github.com/fincham/mango/server/service"
	"github.com/fincham/mango/server/version"
)

func createServeCmd(configManager config.Manager) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Launch the mango server",
		Long: `
Launch the mango server

Use mango serve to run the node API server. Before running the server
you must configure an enrollment secret (osquery.enroll_secret).
`,
		Run: func(cmd *cobra.Command, args []string) {
			conf := configManager.LoadConfig()

			var logger kitlog.Logger
			{
				if conf.Logging.JSON {
					logger = kitlog.NewJSONLogger(kitlog.NewSyncWriter(os.Stderr))
				} else {
					logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
				}
				if conf.Logging.Debug {
					logger = level.NewFilter(logger, level.AllowDebug())
				} else {
					logger = level.NewFilter(logger, level.AllowInfo())
				}
				logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
			}

			if conf.Osquery.EnrollSecret == "" {
				initFatal(errors.New("osquery.enroll_secret must be set"), "initializing service")
			}

			var ds mango.Datastore
			var err error
			switch conf.Server.Datastore {
			case "mysql":
				ds, err = mysql.New(conf.Mysql, clock.C, mysql.Logger(logger))
				if err != nil {
					initFatal(err, "initializing datastore")
				}
			case "inmem":
				ds = inmem.New(clock.C)
			default:
				initFatal(errors.Errorf("unknown datastore %q", conf.Server.Datastore), "initializing datastore")
			}

			svc, err := service.NewService(ds, logger, conf, clock.C)
			if err != nil {
				initFatal(err, "initializing service")
			}
			svc = service.NewLoggingService(svc, logger)

			limitStore, err := memstore.New(65536)
			if err != nil {
				initFatal(err, "initializing rate limit store")
			}

			r := http.NewServeMux()
			r.Handle("/api/", service.MakeHandler(svc, conf, logger, limitStore))
			r.Handle("/healthz", health.Handler(
				kitlog.With(logger, "component", "healthz"),
				map[string]health.Checker{
					"datastore": ds,
				},
			))
			r.Handle("/version", version.Handler())

			srv := &http.Server{
				Addr:    conf.Server.Address,
				Handler: r,
			}

			errs := make(chan error, 2)
			go func() {
				level.Info(logger).Log("transport", "http", "address", conf.Server.Address, "msg", "listening")
				errs <- srv.ListenAndServe()
			}()
			go func() {
				sig := make(chan os.Signal, 1)
				signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
				<-sig
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				errs <- srv.Shutdown(ctx)
			}()

			level.Info(logger).Log("terminated", <-errs)
		},
	}

	return serveCmd
}

// initFatal prints an error message and exits with a non-zero status.
func initFatal(err error, message string) {
	fmt.Printf("Error %s: %v\n", message, err)
	os.Exit(1)
}
