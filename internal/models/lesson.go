package models

import (
	"database/sql"
	"time"
)

// Lesson is a single scheduled lesson occurrence. Status is a small integer
// code assigned by enrollment flows and may be absent.
type Lesson struct {
	ID     int64     `db:"id" json:"id"`
	Date   time.Time `db:"date" json:"date"`
	Title  string    `db:"title" json:"title"`
	Status *int64    `db:"status" json:"status"`
}

// TeacherRef is a deduplicated teacher entry inside a LessonView.
type TeacherRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StudentRef is a deduplicated student entry inside a LessonView, carrying
// the attendance flag from the lesson_students join row.
type StudentRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Visit bool   `json:"visit"`
}

// LessonView is the nested aggregate of a lesson with its teacher and student
// rosters, produced by folding the flat join rows of the filtered query.
type LessonView struct {
	ID         int64        `json:"id"`
	Date       time.Time    `json:"date"`
	Title      string       `json:"title"`
	Status     *int64       `json:"status"`
	Teachers   []TeacherRef `json:"teachers"`
	Students   []StudentRef `json:"students"`
	VisitCount int          `json:"visitCount"`
}

// LessonJoinRow is one (lesson, teacher, student) combination from the
// double LEFT JOIN. Roster columns are nullable: a lesson without teachers or
// students still yields a row.
type LessonJoinRow struct {
	ID          int64          `db:"id"`
	Date        time.Time      `db:"date"`
	Title       string         `db:"title"`
	Status      sql.NullInt64  `db:"status"`
	TeacherID   sql.NullInt64  `db:"teacher_id"`
	TeacherName sql.NullString `db:"teacher_name"`
	StudentID   sql.NullInt64  `db:"student_id"`
	StudentName sql.NullString `db:"student_name"`
	Visit       sql.NullBool   `db:"visit"`
}

// FilterKind discriminates how an optional filter dimension was supplied.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterExact
	FilterRange
)

// DateFilter selects lessons by calendar date: absent, an exact day, or an
// inclusive range.
type DateFilter struct {
	Kind FilterKind
	From time.Time
	To   time.Time
}

// CountFilter selects lessons by distinct enrolled-student count: absent, an
// exact count, or an inclusive band.
type CountFilter struct {
	Kind FilterKind
	Min  int
	Max  int
}

// LessonFilter is the validated, structured form of the filtered-lessons
// request body.
type LessonFilter struct {
	Date          DateFilter
	Status        *string
	TeacherIDs    []int64
	StudentsCount CountFilter
	PerPage       int
	Page          int
}

// Limit returns the page size bound for the main query.
func (f LessonFilter) Limit() int {
	if f.PerPage < 1 {
		return DefaultLessonsPerPage
	}
	return f.PerPage
}

// Offset returns the row offset for the main query.
func (f LessonFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit()
}

// Pagination defaults for the filtered lesson listing.
const (
	DefaultLessonsPerPage = 5
	DefaultLessonsPage    = 1
)
