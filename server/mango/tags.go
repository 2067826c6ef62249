package mango

// TagNameMaxLength bounds the slug form of a tag name.
const TagNameMaxLength = 22

// Tag is a grouping label shared by hosts and log queries. A query tagged
// with a tag runs on every host carrying that tag. Tags have no behavior of
// their own and are referenced, never owned.
type Tag struct {
	ID   uint   `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

func (t *Tag) String() string {
	return t.Name
}
