package mysql

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fincham/mango/server/mango"
)

func (d *Datastore) NewLogQuery(ctx context.Context, query *mango.LogQuery) (*mango.LogQuery, error) {
	sqlStatement := `
		INSERT INTO log_queries (name, query, query_interval, snapshot)
		VALUES (?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, sqlStatement,
		query.Name,
		query.Query,
		query.Interval,
		query.Snapshot,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert log query")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "last insert id for log query")
	}
	query.ID = uint(id)

	return query, nil
}

func (d *Datastore) DeleteLogQuery(ctx context.Context, id uint) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM log_queries WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "delete log query")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected deleting log query")
	}
	if rows == 0 {
		return mango.NewNotFoundError("LogQuery")
	}
	return nil
}

func (d *Datastore) ListLogQueries(ctx context.Context, opt mango.ListOptions) ([]*mango.LogQuery, error) {
	ds := dialect.From("log_queries").Select("id", "name", "query", "query_interval", "snapshot")
	query, args, err := appendListOptionsToSelect(ds, opt).Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list log queries query")
	}

	queries := []*mango.LogQuery{}
	if err := d.db.SelectContext(ctx, &queries, query, args...); err != nil {
		return nil, errors.Wrap(err, "list log queries")
	}

	return queries, nil
}

func (d *Datastore) LogQueriesForHost(ctx context.Context, host *mango.Host) ([]*mango.LogQuery, error) {
	hostTags := dialect.From("host_tags").
		Select("tag_id").
		Where(goqu.C("host_id").Eq(host.ID))

	// A query with no tag rows joins against NULL and is included
	// unconditionally; otherwise at least one of its tags must be among
	// the host's tags.
	ds := dialect.From(goqu.T("log_queries").As("lq")).
		Select(
			goqu.I("lq.id"),
			goqu.I("lq.name"),
			goqu.I("lq.query"),
			goqu.I("lq.query_interval"),
			goqu.I("lq.snapshot"),
		).
		Distinct().
		LeftJoin(
			goqu.T("log_query_tags").As("lqt"),
			goqu.On(goqu.I("lqt.log_query_id").Eq(goqu.I("lq.id"))),
		).
		Where(goqu.Or(
			goqu.I("lqt.tag_id").IsNull(),
			goqu.I("lqt.tag_id").In(hostTags),
		))

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build log queries for host query")
	}

	queries := []*mango.LogQuery{}
	if err := d.db.SelectContext(ctx, &queries, query, args...); err != nil {
		return nil, errors.Wrap(err, "select log queries for host")
	}

	return queries, nil
}

func (d *Datastore) ReplaceLogQueryTags(ctx context.Context, queryID uint, tagIDs []uint) error {
	return d.withRetryTxx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM log_query_tags WHERE log_query_id = ?", queryID); err != nil {
			return errors.Wrap(err, "clear log query tags")
		}

		if len(tagIDs) == 0 {
			return nil
		}

		rows := make([]interface{}, 0, len(tagIDs))
		for _, tid := range tagIDs {
			rows = append(rows, goqu.Record{"log_query_id": queryID, "tag_id": tid})
		}
		query, args, err := dialect.Insert("log_query_tags").Rows(rows...).Prepared(true).ToSQL()
		if err != nil {
			return errors.Wrap(err, "build log query tags insert")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "insert log query tags")
		}

		return nil
	})
}
