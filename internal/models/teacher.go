package models

// Teacher is a roster entry referenced by lesson series. The scheduler reads
// teachers but never mutates them.
type Teacher struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
