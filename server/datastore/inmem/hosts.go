package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/fincham/mango/server/mango"
)

func copyHost(host *mango.Host) *mango.Host {
	h := *host
	return &h
}

func (d *Datastore) NewHost(ctx context.Context, host *mango.Host) (*mango.Host, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	for _, h := range d.hosts {
		if host.NodeKey == h.NodeKey {
			return nil, mango.NewAlreadyExistsError("Host")
		}
	}

	host.ID = d.nextID(host)
	d.hosts[host.ID] = copyHost(host)

	return host, nil
}

func (d *Datastore) SaveHost(ctx context.Context, host *mango.Host) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, ok := d.hosts[host.ID]; !ok {
		return mango.NewNotFoundError("Host")
	}

	d.hosts[host.ID] = copyHost(host)
	return nil
}

func (d *Datastore) DeleteHost(ctx context.Context, id uint) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, ok := d.hosts[id]; !ok {
		return mango.NewNotFoundError("Host")
	}

	delete(d.hosts, id)
	delete(d.hostTags, id)

	// log entries are owned by their host
	for eid, entry := range d.logEntries {
		if entry.HostID == id {
			delete(d.logEntries, eid)
		}
	}

	return nil
}

func (d *Datastore) Host(ctx context.Context, id uint) (*mango.Host, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	host, ok := d.hosts[id]
	if !ok {
		return nil, mango.NewNotFoundError("Host")
	}

	return copyHost(host), nil
}

func (d *Datastore) ListHosts(ctx context.Context, opt mango.ListOptions) ([]*mango.Host, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	// We need to sort by keys to provide reliable ordering
	keys := []int{}
	for k := range d.hosts {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)

	hosts := []*mango.Host{}
	for _, k := range keys {
		hosts = append(hosts, copyHost(d.hosts[uint(k)]))
	}

	if opt.OrderKey != "" {
		fields := map[string]string{
			"id":           "ID",
			"identifier":   "Identifier",
			"architecture": "Architecture",
			"release":      "Release",
		}
		if err := sortResults(hosts, opt, fields); err != nil {
			return nil, err
		}
	}

	low, high := d.getLimitOffsetSliceBounds(opt, len(hosts))
	return hosts[low:high], nil
}

func (d *Datastore) AuthenticateHost(ctx context.Context, nodeKey string) (*mango.Host, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	for _, host := range d.hosts {
		if host.NodeKey == nodeKey {
			return copyHost(host), nil
		}
	}

	return nil, mango.NewNotFoundError("Host")
}

func (d *Datastore) MarkHostSeen(ctx context.Context, host *mango.Host, t time.Time) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	stored, ok := d.hosts[host.ID]
	if !ok {
		return mango.NewNotFoundError("Host")
	}

	stored.LastSeen = t
	host.LastSeen = t
	return nil
}

func (d *Datastore) ReplaceHostTags(ctx context.Context, hostID uint, tagIDs []uint) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, ok := d.hosts[hostID]; !ok {
		return mango.NewNotFoundError("Host")
	}

	membership := make(map[uint]bool, len(tagIDs))
	for _, tid := range tagIDs {
		if _, ok := d.tags[tid]; !ok {
			return mango.NewNotFoundError("Tag")
		}
		membership[tid] = true
	}
	d.hostTags[hostID] = membership

	return nil
}
