package mysql

import (
	"context"
	"database/sql"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"

	"github.com/fincham/mango/server/mango"
)

func (d *Datastore) NewTag(ctx context.Context, tag *mango.Tag) (*mango.Tag, error) {
	name := slug.Make(tag.Name)
	if len(name) > mango.TagNameMaxLength {
		return nil, mango.NewInvalidArgumentError("name", "tag name exceeds slug length limit")
	}

	result, err := d.db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err) {
			return nil, mango.NewAlreadyExistsError("Tag")
		}
		return nil, errors.Wrap(err, "insert tag")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "last insert id for tag")
	}
	tag.ID = uint(id)
	tag.Name = name

	return tag, nil
}

func (d *Datastore) DeleteTag(ctx context.Context, id uint) error {
	// tag memberships cascade with the tag row
	result, err := d.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "delete tag")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected deleting tag")
	}
	if rows == 0 {
		return mango.NewNotFoundError("Tag")
	}
	return nil
}

func (d *Datastore) ListTags(ctx context.Context, opt mango.ListOptions) ([]*mango.Tag, error) {
	ds := dialect.From("tags").Select("id", "name")
	query, args, err := appendListOptionsToSelect(ds, opt).Prepared(true).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list tags query")
	}

	tags := []*mango.Tag{}
	if err := d.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, errors.Wrap(err, "list tags")
	}

	return tags, nil
}

func (d *Datastore) TagByName(ctx context.Context, name string) (*mango.Tag, error) {
	tag := &mango.Tag{}
	err := d.db.GetContext(ctx, tag, "SELECT id, name FROM tags WHERE name = ? LIMIT 1", slug.Make(name))
	switch {
	case err == sql.ErrNoRows:
		return nil, mango.NewNotFoundError("Tag")
	case err != nil:
		return nil, errors.Wrap(err, "select tag by name")
	}

	return tag, nil
}
