package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-scheduler-api/internal/models"
)

func newLessonRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func lessonJoinColumns() []string {
	return []string{"id", "date", "title", "status", "teacher_id", "teacher_name", "student_id", "student_name", "visit"}
}

func TestLessonRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "date", "title", "status"}).
		AddRow(int64(1), day, "Green", int64(1)).
		AddRow(int64(2), day.AddDate(0, 0, 7), "Blue", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, title, status FROM lessons ORDER BY id")).
		WillReturnRows(rows)

	lessons, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "Green", lessons[0].Title)
	require.NotNil(t, lessons[0].Status)
	assert.Equal(t, int64(1), *lessons[0].Status)
	assert.Nil(t, lessons[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, title, status FROM lessons WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "title", "status"}).AddRow(int64(9), day, "Red", nil))

	lesson, err := repo.FindByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), lesson.ID)
	assert.Equal(t, "Red", lesson.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryLessonIDsByStudentCountExact(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(`HAVING COUNT\(DISTINCT lesson_students\.student_id\) = \$1 ORDER BY lessons\.id`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)).AddRow(int64(7)))

	ids, err := repo.LessonIDsByStudentCount(context.Background(), models.CountFilter{Kind: models.FilterExact, Min: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 7}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryLessonIDsByStudentCountRange(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(`HAVING COUNT\(DISTINCT lesson_students\.student_id\) >= \$1 AND COUNT\(DISTINCT lesson_students\.student_id\) <= \$2`).
		WithArgs(1, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	ids, err := repo.LessonIDsByStudentCount(context.Background(), models.CountFilter{Kind: models.FilterRange, Min: 1, Max: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryLessonIDsByStudentCountRequiresFilter(t *testing.T) {
	db, _, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	_, err := repo.LessonIDsByStudentCount(context.Background(), models.CountFilter{Kind: models.FilterNone})
	require.Error(t, err)
}

func TestLessonRepositoryListFilteredRowsNoPredicates(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(lessonJoinColumns()).
		AddRow(int64(1), day, "Green", nil, int64(5), "Ms. Frizzle", int64(11), "Arnold", true).
		AddRow(int64(1), day, "Green", nil, int64(5), "Ms. Frizzle", nil, nil, nil)
	mock.ExpectQuery(`ORDER BY lessons\.date, lessons\.id LIMIT \$1 OFFSET \$2`).
		WithArgs(5, 0).
		WillReturnRows(rows)

	filter := models.LessonFilter{PerPage: 5, Page: 1}
	got, err := repo.ListFilteredRows(context.Background(), filter, nil, false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].StudentID.Valid)
	assert.False(t, got[1].StudentID.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListFilteredRowsAllPredicates(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	status := "1"

	mock.ExpectQuery(`WHERE lessons\.date >= \$1 AND lessons\.date <= \$2 AND lessons\.status = \$3 AND teachers\.id = ANY\(\$4\) AND lessons\.id = ANY\(\$5\) ORDER BY lessons\.date, lessons\.id LIMIT \$6 OFFSET \$7`).
		WithArgs(from, to, status, pq.Array([]int64{5, 6}), pq.Array([]int64{1, 2, 3}), 10, 20).
		WillReturnRows(sqlmock.NewRows(lessonJoinColumns()))

	filter := models.LessonFilter{
		Date:       models.DateFilter{Kind: models.FilterRange, From: from, To: to},
		Status:     &status,
		TeacherIDs: []int64{5, 6},
		PerPage:    10,
		Page:       3,
	}
	got, err := repo.ListFilteredRows(context.Background(), filter, []int64{1, 2, 3}, true)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListFilteredRowsExactDate(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE lessons\.date = \$1 ORDER BY lessons\.date, lessons\.id LIMIT \$2 OFFSET \$3`).
		WithArgs(day, 5, 0).
		WillReturnRows(sqlmock.NewRows(lessonJoinColumns()))

	filter := models.LessonFilter{
		Date:    models.DateFilter{Kind: models.FilterExact, From: day},
		PerPage: 5,
		Page:    1,
	}
	_, err := repo.ListFilteredRows(context.Background(), filter, nil, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateSeries(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lessons (title, date) VALUES ($1, $2), ($3, $4) RETURNING id, date, title, status")).
		WithArgs("Green", d1, "Green", d2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "title", "status"}).
			AddRow(int64(1), d1, "Green", nil).
			AddRow(int64(2), d2, "Green", nil))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lesson_teachers (lesson_id, teacher_id) VALUES ($1, $2), ($3, $4), ($5, $6), ($7, $8)")).
		WithArgs(int64(1), int64(7), int64(1), int64(8), int64(2), int64(7), int64(2), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	lessons, err := repo.CreateSeries(context.Background(), "Green", []time.Time{d1, d2}, []int64{7, 8})
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, int64(1), lessons[0].ID)
	assert.Equal(t, int64(2), lessons[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateSeriesNoTeachers(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lessons (title, date) VALUES ($1, $2) RETURNING id, date, title, status")).
		WithArgs("Solo", d1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "title", "status"}).AddRow(int64(3), d1, "Solo", nil))
	mock.ExpectCommit()

	lessons, err := repo.CreateSeries(context.Background(), "Solo", []time.Time{d1}, nil)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCreateSeriesRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newLessonRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO lessons").
		WithArgs("Green", d1).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := repo.CreateSeries(context.Background(), "Green", []time.Time{d1}, []int64{7})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
