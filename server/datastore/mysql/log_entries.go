package mysql

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fincham/mango/server/mango"
)

func (d *Datastore) ListLogEntries(ctx context.Context, hostID uint, opt mango.ListOptions) ([]*mango.LogEntry, error) {
	ds := dialect.From("log_entries").
		Select("id", "name", "action", "output", "created_at", "host_id").
		Where(goqu.C("host_id").Eq(hostID))

	query, args, err := appendListOptionsToSelect(ds, opt).Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list log entries query")
	}

	entries := []*mango.LogEntry{}
	if err := d.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, errors.Wrap(err, "list log entries")
	}

	return entries, nil
}

// RecordLogResults applies the host's telemetry updates and appends the
// reported entries in one transaction, so a request's writes are never
// partially visible.
func (d *Datastore) RecordLogResults(ctx context.Context, host *mango.Host, entries []*mango.LogEntry) error {
	return d.withRetryTxx(ctx, func(tx *sqlx.Tx) error {
		if err := d.saveHostTx(ctx, tx, host); err != nil {
			return err
		}

		if len(entries) == 0 {
			return nil
		}

		now := d.clock.Now()
		sqlStatement := `
			INSERT INTO log_entries (name, action, output, created_at, host_id)
			VALUES (?, ?, ?, ?, ?)
		`
		for _, entry := range entries {
			entry.HostID = host.ID
			entry.CreatedAt = now
			result, err := tx.ExecContext(ctx, sqlStatement,
				entry.Name,
				entry.Action,
				entry.Output,
				entry.CreatedAt,
				entry.HostID,
			)
			if err != nil {
				return errors.Wrap(err, "insert log entry")
			}
			id, err := result.LastInsertId()
			if err != nil {
				return errors.Wrap(err, "last insert id for log entry")
			}
			entry.ID = uint(id)
		}

		return nil
	})
}
