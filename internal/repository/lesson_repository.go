package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lesson-scheduler-api/internal/models"
)

// LessonRepository provides persistence for lessons and their teacher
// assignments.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListAll returns every lesson row, unfiltered and unpaginated.
func (r *LessonRepository) ListAll(ctx context.Context) ([]models.Lesson, error) {
	const query = `SELECT id, date, title, status FROM lessons ORDER BY id`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// FindByID loads a single lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	const query = `SELECT id, date, title, status FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// LessonIDsByStudentCount returns ids of lessons whose distinct enrolled
// student count matches the filter: the candidate set for the main filtered
// query. Enrolled count cannot be expressed as a row-level predicate on the
// joined row stream, so it is resolved in this separate grouping pass.
func (r *LessonRepository) LessonIDsByStudentCount(ctx context.Context, filter models.CountFilter) ([]int64, error) {
	base := `SELECT lessons.id
FROM lessons
LEFT JOIN lesson_students ON lesson_students.lesson_id = lessons.id
GROUP BY lessons.id`

	var having string
	var args []interface{}
	switch filter.Kind {
	case models.FilterExact:
		having = " HAVING COUNT(DISTINCT lesson_students.student_id) = $1"
		args = append(args, filter.Min)
	case models.FilterRange:
		having = " HAVING COUNT(DISTINCT lesson_students.student_id) >= $1 AND COUNT(DISTINCT lesson_students.student_id) <= $2"
		args = append(args, filter.Min, filter.Max)
	default:
		return nil, fmt.Errorf("student count pre-filter requires an exact or range filter")
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, base+having+" ORDER BY lessons.id", args...); err != nil {
		return nil, fmt.Errorf("lesson ids by student count: %w", err)
	}
	return ids, nil
}

// ListFilteredRows executes the main filtered query: lessons joined to both
// rosters, constrained by whichever predicates the filter carries, paginated
// over the flat row stream. Each returned row is one
// (lesson, teacher, student) combination; the caller folds them into views.
// When restrictToCandidates is set, only lessons whose id is in candidates
// are returned (an empty candidate set matches nothing).
func (r *LessonRepository) ListFilteredRows(ctx context.Context, filter models.LessonFilter, candidates []int64, restrictToCandidates bool) ([]models.LessonJoinRow, error) {
	base := `FROM lessons
LEFT JOIN lesson_teachers ON lesson_teachers.lesson_id = lessons.id
LEFT JOIN teachers ON teachers.id = lesson_teachers.teacher_id
LEFT JOIN lesson_students ON lesson_students.lesson_id = lessons.id
LEFT JOIN students ON students.id = lesson_students.student_id`

	var conditions []string
	var args []interface{}

	switch filter.Date.Kind {
	case models.FilterExact:
		conditions = append(conditions, fmt.Sprintf("lessons.date = $%d", len(args)+1))
		args = append(args, filter.Date.From)
	case models.FilterRange:
		conditions = append(conditions, fmt.Sprintf("lessons.date >= $%d", len(args)+1))
		args = append(args, filter.Date.From)
		conditions = append(conditions, fmt.Sprintf("lessons.date <= $%d", len(args)+1))
		args = append(args, filter.Date.To)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("lessons.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(filter.TeacherIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("teachers.id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.TeacherIDs))
	}
	if restrictToCandidates {
		conditions = append(conditions, fmt.Sprintf("lessons.id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(candidates))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT
        lessons.id AS id,
        lessons.date AS date,
        lessons.title AS title,
        lessons.status AS status,
        teachers.id AS teacher_id,
        teachers.name AS teacher_name,
        students.id AS student_id,
        students.name AS student_name,
        lesson_students.visit AS visit
        %s%s ORDER BY lessons.date, lessons.id LIMIT $%d OFFSET $%d`,
		base, clause, len(args)+1, len(args)+2)
	args = append(args, filter.Limit(), filter.Offset())

	var rows []models.LessonJoinRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list filtered lesson rows: %w", err)
	}
	return rows, nil
}

// CreateSeries bulk-inserts one lesson per date and the teacher join rows in
// a single transaction, returning the inserted lessons with their assigned
// ids. All rows land or none do.
func (r *LessonRepository) CreateSeries(ctx context.Context, title string, dates []time.Time, teacherIDs []int64) ([]models.Lesson, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create series: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	values := make([]string, 0, len(dates))
	args := make([]interface{}, 0, len(dates)*2)
	for _, d := range dates {
		values = append(values, fmt.Sprintf("($%d, $%d)", len(args)+1, len(args)+2))
		args = append(args, title, d)
	}
	query := fmt.Sprintf(`INSERT INTO lessons (title, date) VALUES %s RETURNING id, date, title, status`, strings.Join(values, ", "))

	var lessons []models.Lesson
	if err = tx.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("insert lesson series: %w", err)
	}

	if len(teacherIDs) > 0 {
		pairs := make([]string, 0, len(lessons)*len(teacherIDs))
		pairArgs := make([]interface{}, 0, len(lessons)*len(teacherIDs)*2)
		for _, lesson := range lessons {
			for _, teacherID := range teacherIDs {
				pairs = append(pairs, fmt.Sprintf("($%d, $%d)", len(pairArgs)+1, len(pairArgs)+2))
				pairArgs = append(pairArgs, lesson.ID, teacherID)
			}
		}
		assignQuery := fmt.Sprintf(`INSERT INTO lesson_teachers (lesson_id, teacher_id) VALUES %s`, strings.Join(pairs, ", "))
		if _, err = tx.ExecContext(ctx, assignQuery, pairArgs...); err != nil {
			return nil, fmt.Errorf("insert lesson teachers: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create series: %w", err)
	}
	return lessons, nil
}
