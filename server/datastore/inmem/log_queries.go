package inmem

import (
	"context"

	"github.com/fincham/mango/server/mango"
)

func (d *Datastore) NewLogQuery(ctx context.Context, query *mango.LogQuery) (*mango.LogQuery, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	query.ID = d.nextID(query)
	stored := *query
	d.logQueries[query.ID] = &stored

	return query, nil
}

func (d *Datastore) DeleteLogQuery(ctx context.Context, id uint) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, ok := d.logQueries[id]; !ok {
		return mango.NewNotFoundError("LogQuery")
	}

	delete(d.logQueries, id)
	delete(d.queryTags, id)

	return nil
}

func (d *Datastore) ListLogQueries(ctx context.Context, opt mango.ListOptions) ([]*mango.LogQuery, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	queries := []*mango.LogQuery{}
	for _, query := range d.logQueries {
		stored := *query
		queries = append(queries, &stored)
	}

	if opt.OrderKey == "" {
		opt.OrderKey = "id"
	}
	fields := map[string]string{
		"id":   "ID",
		"name": "Name",
	}
	if err := sortResults(queries, opt, fields); err != nil {
		return nil, err
	}

	low, high := d.getLimitOffsetSliceBounds(opt, len(queries))
	return queries[low:high], nil
}

func (d *Datastore) LogQueriesForHost(ctx context.Context, host *mango.Host) ([]*mango.LogQuery, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	hostTags := d.hostTags[host.ID]

	var matched []*mango.LogQuery
	for _, query := range d.logQueries {
		queryTags := d.queryTags[query.ID]

		// a query with no tags runs on every host
		include := len(queryTags) == 0
		for tid := range queryTags {
			if hostTags[tid] {
				include = true
				break
			}
		}

		if include {
			stored := *query
			matched = append(matched, &stored)
		}
	}

	return matched, nil
}

func (d *Datastore) ReplaceLogQueryTags(ctx context.Context, queryID uint, tagIDs []uint) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, ok := d.logQueries[queryID]; !ok {
		return mango.NewNotFoundError("LogQuery")
	}

	membership := make(map[uint]bool, len(tagIDs))
	for _, tid := range tagIDs {
		if _, ok := d.tags[tid]; !ok {
			return mango.NewNotFoundError("Tag")
		}
		membership[tid] = true
	}
	d.queryTags[queryID] = membership

	return nil
}
