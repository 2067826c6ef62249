package inmem

import (
	"context"
	"sort"

	"github.com/fincham/mango/server/mango"
)

func (d *Datastore) ListLogEntries(ctx context.Context, hostID uint, opt mango.ListOptions) ([]*mango.LogEntry, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	keys := []int{}
	for k, entry := range d.logEntries {
		if entry.HostID == hostID {
			keys = append(keys, int(k))
		}
	}
	sort.Ints(keys)

	entries := []*mango.LogEntry{}
	for _, k := range keys {
		stored := *d.logEntries[uint(k)]
		entries = append(entries, &stored)
	}

	low, high := d.getLimitOffsetSliceBounds(opt, len(entries))
	return entries[low:high], nil
}

func (d *Datastore) RecordLogResults(ctx context.Context, host *mango.Host, entries []*mango.LogEntry) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	// validate everything before mutating so the write is all or nothing
	if _, ok := d.hosts[host.ID]; !ok {
		return mango.NewNotFoundError("Host")
	}

	d.hosts[host.ID] = copyHost(host)

	now := d.clock.Now()
	for _, entry := range entries {
		entry.HostID = host.ID
		entry.CreatedAt = now
		entry.ID = d.nextID(entry)
		stored := *entry
		d.logEntries[entry.ID] = &stored
	}

	return nil
}
