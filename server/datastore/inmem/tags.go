package inmem

import (
	"context"

	"github.com/gosimple/slug"

	"github.com/fincham/mango/server/mango"
)

func (d *Datastore) NewTag(ctx context.Context, tag *mango.Tag) (*mango.Tag, error) {
	name := slug.Make(tag.Name)
	if len(name) > mango.TagNameMaxLength {
		return nil, mango.NewInvalidArgumentError("name", "tag name exceeds slug length limit")
	}

	d.mtx.Lock()
	defer d.mtx.Unlock()

	for _, t := range d.tags {
		if t.Name == name {
			return nil, mango.NewAlreadyExistsError("Tag")
		}
	}

	tag.Name = name
	tag.ID = d.nextID(tag)
	stored := *tag
	d.tags[tag.ID] = &stored

	return tag, nil
}

func (d *Datastore) DeleteTag(ctx context.Context, id uint) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if _, ok := d.tags[id]; !ok {
		return mango.NewNotFoundError("Tag")
	}

	delete(d.tags, id)
	for _, membership := range d.hostTags {
		delete(membership, id)
	}
	for _, membership := range d.queryTags {
		delete(membership, id)
	}

	return nil
}

func (d *Datastore) ListTags(ctx context.Context, opt mango.ListOptions) ([]*mango.Tag, error) {
	d.mtx.RLock()
	defer d.mtx.RUnlock()

	tags := []*mango.Tag{}
	for _, tag := range d.tags {
		stored := *tag
		tags = append(tags, &stored)
	}

	if opt.OrderKey == "" {
		opt.OrderKey = "id"
	}
	fields := map[string]string{
		"id":   "ID",
		"name": "Name",
	}
	if err := sortResults(tags, opt, fields); err != nil {
		return nil, err
	}

	low, high := d.getLimitOffsetSliceBounds(opt, len(tags))
	return tags[low:high], nil
}

func (d *Datastore) TagByName(ctx context.Context, name string) (*mango.Tag, error) {
	name = slug.Make(name)

	d.mtx.RLock()
	defer d.mtx.RUnlock()

	for _, tag := range d.tags {
		if tag.Name == name {
			stored := *tag
			return &stored, nil
		}
	}

	return nil, mango.NewNotFoundError("Tag")
}
