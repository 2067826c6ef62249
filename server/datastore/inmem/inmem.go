// Package inmem is an in-memory implementation of the Datastore interface,
// suitable for development and tests. All state is lost on process exit.
package inmem

import (
	"errors"
	"fmt"
	"sync"

	"github.com/WatchBeam/clock"
	"github.com/patrickmn/sortutil"

	"github.com/fincham/mango/server/mango"
)

type Datastore struct {
	mtx     sync.RWMutex
	clock   clock.Clock
	nextIDs map[string]uint

	hosts      map[uint]*mango.Host
	tags       map[uint]*mango.Tag
	logQueries map[uint]*mango.LogQuery
	logEntries map[uint]*mango.LogEntry

	// tag membership, host/query ID -> set of tag IDs
	hostTags  map[uint]map[uint]bool
	queryTags map[uint]map[uint]bool
}

func New(c clock.Clock) *Datastore {
	ds := &Datastore{clock: c}
	ds.reset()
	return ds
}

func (d *Datastore) Name() string {
	return "inmem"
}

func (d *Datastore) Drop() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.reset()
	return nil
}

func (d *Datastore) HealthCheck() error {
	return nil
}

func (d *Datastore) reset() {
	d.nextIDs = make(map[string]uint)
	d.hosts = make(map[uint]*mango.Host)
	d.tags = make(map[uint]*mango.Tag)
	d.logQueries = make(map[uint]*mango.LogQuery)
	d.logEntries = make(map[uint]*mango.LogEntry)
	d.hostTags = make(map[uint]map[uint]bool)
	d.queryTags = make(map[uint]map[uint]bool)
}

// nextID returns the next auto-increment ID for the entity's type. Callers
// must hold the write lock.
func (d *Datastore) nextID(entity interface{}) uint {
	key := fmt.Sprintf("%T", entity)
	d.nextIDs[key]++
	return d.nextIDs[key]
}

// sortResults orders slice in place by the struct field mapped from
// opt.OrderKey. An unknown key is an error.
func sortResults(slice interface{}, opt mango.ListOptions, fields map[string]string) error {
	field, ok := fields[opt.OrderKey]
	if !ok {
		return errors.New("cannot sort on unknown key: " + opt.OrderKey)
	}

	if opt.OrderDirection == mango.OrderDescending {
		sortutil.DescByField(slice, field)
	} else {
		sortutil.AscByField(slice, field)
	}

	return nil
}

// getLimitOffsetSliceBounds converts ListOptions to slice bounds, clamped to
// the slice length.
func (d *Datastore) getLimitOffsetSliceBounds(opt mango.ListOptions, length int) (low uint, high uint) {
	if opt.PerPage == 0 {
		// PerPage value of 0 indicates unlimited
		return 0, uint(length)
	}

	offset := opt.Page * opt.PerPage
	max := offset + opt.PerPage
	if offset > uint(length) {
		offset = uint(length)
	}
	if max > uint(length) {
		max = uint(length)
	}
	return offset, max
}
