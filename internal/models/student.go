package models

// Student is a roster entry referenced by lesson enrollments. The scheduler
// reads students but never mutates them.
type Student struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
