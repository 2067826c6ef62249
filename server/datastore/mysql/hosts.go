package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fincham/mango/server/mango"
)

const hostColumns = "id, node_key, identifier, last_seen, invalidate, architecture, os_release, cpu_brand, ram"

func (d *Datastore) NewHost(ctx context.Context, host *mango.Host) (*mango.Host, error) {
	sqlStatement := `
		INSERT INTO hosts (
			node_key,
			identifier,
			last_seen,
			invalidate,
			architecture,
			os_release,
			cpu_brand,
			ram
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, sqlStatement,
		host.NodeKey,
		host.Identifier,
		host.LastSeen,
		host.Invalidate,
		host.Architecture,
		host.Release,
		host.CPUBrand,
		host.RAM,
	)
	if err != nil {
		if isDuplicate(err) {
			return nil, mango.NewAlreadyExistsError("Host")
		}
		return nil, errors.Wrap(err, "insert host")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "last insert id for host")
	}
	host.ID = uint(id)

	return host, nil
}

func (d *Datastore) SaveHost(ctx context.Context, host *mango.Host) error {
	return d.saveHostTx(ctx, d.db, host)
}

// saveHostTx writes the host's mutable fields using any sqlx execer, so the
// same update can run standalone or inside a transaction.
func (d *Datastore) saveHostTx(ctx context.Context, e sqlx.ExecerContext, host *mango.Host) error {
	sqlStatement := `
		UPDATE hosts SET
			identifier = ?,
			last_seen = ?,
			invalidate = ?,
			architecture = ?,
			os_release = ?,
			cpu_brand = ?,
			ram = ?
		WHERE id = ?
	`
	_, err := e.ExecContext(ctx, sqlStatement,
		host.Identifier,
		host.LastSeen,
		host.Invalidate,
		host.Architecture,
		host.Release,
		host.CPUBrand,
		host.RAM,
		host.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update host")
	}

	return nil
}

func (d *Datastore) DeleteHost(ctx context.Context, id uint) error {
	// log entries and tag memberships cascade with the host row
	result, err := d.db.ExecContext(ctx, "DELETE FROM hosts WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "delete host")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected deleting host")
	}
	if rows == 0 {
		return mango.NewNotFoundError("Host")
	}
	return nil
}

func (d *Datastore) Host(ctx context.Context, id uint) (*mango.Host, error) {
	host := &mango.Host{}
	err := d.db.GetContext(ctx, host, "SELECT "+hostColumns+" FROM hosts WHERE id = ? LIMIT 1", id)
	switch {
	case err == sql.ErrNoRows:
		return nil, mango.NewNotFoundError("Host")
	case err != nil:
		return nil, errors.Wrap(err, "select host")
	}

	return host, nil
}

func (d *Datastore) ListHosts(ctx context.Context, opt mango.ListOptions) ([]*mango.Host, error) {
	ds := dialect.From("hosts").Select(
		"id", "node_key", "identifier", "last_seen", "invalidate",
		"architecture", "os_release", "cpu_brand", "ram",
	)
	query, args, err := appendListOptionsToSelect(ds, opt).Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list hosts query")
	}

	hosts := []*mango.Host{}
	if err := d.db.SelectContext(ctx, &hosts, query, args...); err != nil {
		return nil, errors.Wrap(err, "list hosts")
	}

	return hosts, nil
}

func (d *Datastore) AuthenticateHost(ctx context.Context, nodeKey string) (*mango.Host, error) {
	host := &mango.Host{}
	err := d.db.GetContext(ctx, host, "SELECT "+hostColumns+" FROM hosts WHERE node_key = ? LIMIT 1", nodeKey)
	switch {
	case err == sql.ErrNoRows:
		return nil, mango.NewNotFoundError("Host")
	case err != nil:
		return nil, errors.Wrap(err, "select host by node key")
	}

	return host, nil
}

func (d *Datastore) MarkHostSeen(ctx context.Context, host *mango.Host, t time.Time) error {
	_, err := d.db.ExecContext(ctx, "UPDATE hosts SET last_seen = ? WHERE node_key = ?", t, host.NodeKey)
	if err != nil {
		return errors.Wrap(err, "mark host seen")
	}

	host.LastSeen = t
	return nil
}

func (d *Datastore) ReplaceHostTags(ctx context.Context, hostID uint, tagIDs []uint) error {
	return d.withRetryTxx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM host_tags WHERE host_id = ?", hostID); err != nil {
			return errors.Wrap(err, "clear host tags")
		}

		if len(tagIDs) == 0 {
			return nil
		}

		rows := make([]interface{}, 0, len(tagIDs))
		for _, tid := range tagIDs {
			rows = append(rows, goqu.Record{"host_id": hostID, "tag_id": tid})
		}
		query, args, err := dialect.Insert("host_tags").Rows(rows...).Prepared(true).ToSQL()
		if err != nil {
			return errors.Wrap(err, "build host tags insert")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "insert host tags")
		}

		return nil
	})
}
