// Package mysql is a MySQL implementation of the Datastore interface.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/VividCortex/mysqlerr"
	"github.com/WatchBeam/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql" // goqu dialect
	"github.com/go-kit/log"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fincham/mango/server/config"
	"github.com/fincham/mango/server/mango"
)

const defaultMaxAttempts = 15

var dialect = goqu.Dialect("mysql")

// Datastore is an implementation of mango.Datastore backed by MySQL.
type Datastore struct {
	db     *sqlx.DB
	logger log.Logger
	clock  clock.Clock
}

type dbOptions struct {
	maxAttempts int
	logger      log.Logger
}

// DBOption is used to pass optional arguments to New.
type DBOption func(o *dbOptions) error

// Logger adds a logger to the datastore.
func Logger(l log.Logger) DBOption {
	return func(o *dbOptions) error {
		o.logger = l
		return nil
	}
}

// LimitAttempts sets a the number of attempts to try connecting to the db.
func LimitAttempts(attempts int) DBOption {
	return func(o *dbOptions) error {
		o.maxAttempts = attempts
		return nil
	}
}

// New creates a MySQL datastore, retrying the initial connection until the
// server becomes reachable or attempts are exhausted.
func New(conf config.MysqlConfig, c clock.Clock, opts ...DBOption) (*Datastore, error) {
	options := &dbOptions{
		maxAttempts: defaultMaxAttempts,
		logger:      log.NewNopLogger(),
	}

	for _, setOpt := range opts {
		if err := setOpt(options); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open("mysql", generateMysqlConnectionString(conf))
	if err != nil {
		return nil, errors.Wrap(err, "open mysql connection")
	}

	db.SetMaxIdleConns(conf.MaxIdleConns)
	db.SetMaxOpenConns(conf.MaxOpenConns)
	db.SetConnMaxLifetime(time.Second * time.Duration(conf.ConnMaxLifetime))

	var dbError error
	for attempt := 0; attempt < options.maxAttempts; attempt++ {
		dbError = db.Ping()
		if dbError == nil {
			break
		}
		interval := time.Duration(attempt) * time.Second
		options.logger.Log("mysql", fmt.Sprintf("could not connect to db: %v, sleeping %v", dbError, interval))
		time.Sleep(interval)
	}
	if dbError != nil {
		return nil, errors.Wrap(dbError, "connect to mysql")
	}

	return NewWithDB(db, c, options.logger), nil
}

// NewWithDB creates a datastore around an existing handle. Used by New and
// by tests that substitute a mocked connection.
func NewWithDB(db *sqlx.DB, c clock.Clock, logger log.Logger) *Datastore {
	return &Datastore{
		db:     db,
		logger: logger,
		clock:  c,
	}
}

func (d *Datastore) Name() string {
	return "mysql"
}

// HealthCheck returns an error if the MySQL backend is not healthy.
func (d *Datastore) HealthCheck() error {
	if _, err := d.db.Exec("select 1"); err != nil {
		return errors.Wrap(err, "mysql health check")
	}
	return nil
}

// Drop removes all stored data. Used by tests and dev tooling.
func (d *Datastore) Drop() error {
	tables := []string{"log_entries", "host_tags", "log_query_tags", "hosts", "log_queries", "tags"}
	for _, table := range tables {
		if _, err := d.db.Exec("DELETE FROM " + table); err != nil {
			return errors.Wrapf(err, "deleting rows from %s", table)
		}
	}
	return nil
}

// Close releases the underlying database handles.
func (d *Datastore) Close() error {
	return d.db.Close()
}

type txFn func(tx *sqlx.Tx) error

// retryableError determines whether a MySQL error can be retried. By default
// errors are considered non-retryable. Only errors that we know have a
// possibility of succeeding on a retry should return true in this function.
func retryableError(err error) bool {
	base := errors.Cause(err)
	if b, ok := base.(*mysql.MySQLError); ok {
		switch b.Number {
		// Consider lock related errors to be retryable
		case mysqlerr.ER_LOCK_DEADLOCK, mysqlerr.ER_LOCK_WAIT_TIMEOUT:
			return true
		}
	}

	return false
}

// isDuplicate detects MySQL duplicate key violations.
func isDuplicate(err error) bool {
	base := errors.Cause(err)
	if b, ok := base.(*mysql.MySQLError); ok {
		return b.Number == mysqlerr.ER_DUP_ENTRY
	}
	return false
}

// withRetryTxx provides a common way to commit/rollback a txFn wrapped in a
// retry with exponential backoff
func (d *Datastore) withRetryTxx(ctx context.Context, fn txFn) error {
	operation := func() error {
		tx, err := d.db.BeginTxx(ctx, nil)
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, "create transaction"))
		}

		defer func() {
			if p := recover(); p != nil {
				if err := tx.Rollback(); err != nil {
					d.logger.Log("err", err, "msg", "error encountered during transaction panic rollback")
				}
				panic(p)
			}
		}()

		if err := fn(tx); err != nil {
			rbErr := tx.Rollback()
			if rbErr != nil && rbErr != sql.ErrTxDone {
				// Consider rollback errors to be non-retryable
				return backoff.Permanent(errors.Wrapf(err, "got err '%s' rolling back after err", rbErr.Error()))
			}

			if retryableError(err) {
				return err
			}

			// Consider any other errors to be non-retryable
			return backoff.Permanent(err)
		}

		if err := tx.Commit(); err != nil {
			err = errors.Wrap(err, "commit transaction")

			if retryableError(err) {
				return err
			}

			return backoff.Permanent(err)
		}

		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 5 * time.Second
	return backoff.Retry(operation, bo)
}

// appendListOptionsToSelect applies paging and ordering from opt to a goqu
// select.
func appendListOptionsToSelect(ds *goqu.SelectDataset, opt mango.ListOptions) *goqu.SelectDataset {
	if opt.OrderKey != "" {
		col := goqu.C(opt.OrderKey)
		if opt.OrderDirection == mango.OrderDescending {
			ds = ds.Order(col.Desc())
		} else {
			ds = ds.Order(col.Asc())
		}
	}

	if opt.PerPage != 0 {
		ds = ds.Limit(opt.PerPage).Offset(opt.Page * opt.PerPage)
	}

	return ds
}

// generateMysqlConnectionString returns a MySQL connection string using the
// provided configuration.
func generateMysqlConnectionString(conf config.MysqlConfig) string {
	return fmt.Sprintf(
		"%s:%s@%s(%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		conf.Username,
		conf.Password,
		conf.Protocol,
		conf.Address,
		conf.Database,
	)
}
