package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-scheduler-api/internal/models"
)

type mockLessonRepo struct {
	lessons []models.Lesson
	listErr error

	byID map[int64]*models.Lesson

	countFilter   models.CountFilter
	countIDs      []int64
	countErr      error
	countCalled   bool
	filteredRows  []models.LessonJoinRow
	filteredErr   error
	gotFilter     models.LessonFilter
	gotCandidates []int64
	gotRestrict   bool

	createdTitle    string
	createdDates    []time.Time
	createdTeachers []int64
	createErr       error
}

func (m *mockLessonRepo) ListAll(ctx context.Context) ([]models.Lesson, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.lessons, nil
}

func (m *mockLessonRepo) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	if lesson, ok := m.byID[id]; ok {
		cp := *lesson
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLessonRepo) LessonIDsByStudentCount(ctx context.Context, filter models.CountFilter) ([]int64, error) {
	m.countCalled = true
	m.countFilter = filter
	if m.countErr != nil {
		return nil, m.countErr
	}
	return m.countIDs, nil
}

func (m *mockLessonRepo) ListFilteredRows(ctx context.Context, filter models.LessonFilter, candidates []int64, restrictToCandidates bool) ([]models.LessonJoinRow, error) {
	m.gotFilter = filter
	m.gotCandidates = candidates
	m.gotRestrict = restrictToCandidates
	if m.filteredErr != nil {
		return nil, m.filteredErr
	}
	return m.filteredRows, nil
}

func (m *mockLessonRepo) CreateSeries(ctx context.Context, title string, dates []time.Time, teacherIDs []int64) ([]models.Lesson, error) {
	m.createdTitle = title
	m.createdDates = dates
	m.createdTeachers = teacherIDs
	if m.createErr != nil {
		return nil, m.createErr
	}
	lessons := make([]models.Lesson, 0, len(dates))
	for i, d := range dates {
		lessons = append(lessons, models.Lesson{ID: int64(i + 1), Date: d, Title: title})
	}
	return lessons, nil
}

func newLessonServiceForTest(repo *mockLessonRepo) *LessonService {
	return NewLessonService(repo, nil, nil, validator.New(), zap.NewNop())
}

func joinRow(lessonID int64, date time.Time, title string, teacherID int64, teacherName string, studentID int64, studentName string, visit bool) models.LessonJoinRow {
	row := models.LessonJoinRow{ID: lessonID, Date: date, Title: title}
	if teacherID > 0 {
		row.TeacherID = sql.NullInt64{Int64: teacherID, Valid: true}
		row.TeacherName = sql.NullString{String: teacherName, Valid: true}
	}
	if studentID > 0 {
		row.StudentID = sql.NullInt64{Int64: studentID, Valid: true}
		row.StudentName = sql.NullString{String: studentName, Valid: true}
		row.Visit = sql.NullBool{Bool: visit, Valid: true}
	}
	return row
}

func TestLessonServiceGetNotFound(t *testing.T) {
	service := newLessonServiceForTest(&mockLessonRepo{})

	_, err := service.Get(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lesson not found")
}

func TestLessonServiceListFilteredFoldsRows(t *testing.T) {
	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	repo := &mockLessonRepo{
		filteredRows: []models.LessonJoinRow{
			joinRow(1, day, "Green", 5, "Ms. Frizzle", 11, "Arnold", true),
			joinRow(1, day, "Green", 5, "Ms. Frizzle", 12, "Phoebe", false),
			joinRow(1, day, "Green", 6, "Mr. Ruhle", 11, "Arnold", true),
			joinRow(1, day, "Green", 6, "Mr. Ruhle", 12, "Phoebe", false),
			joinRow(2, day.AddDate(0, 0, 7), "Blue", 5, "Ms. Frizzle", 0, "", false),
		},
	}
	service := newLessonServiceForTest(repo)

	views, pagination, err := service.ListFiltered(context.Background(), FilterLessonsRequest{})
	require.NoError(t, err)
	require.Len(t, views, 2)

	green := views[0]
	assert.Equal(t, int64(1), green.ID)
	assert.Len(t, green.Teachers, 2)
	assert.Len(t, green.Students, 2)
	assert.Equal(t, 1, green.VisitCount)

	blue := views[1]
	assert.Equal(t, int64(2), blue.ID)
	assert.Len(t, blue.Teachers, 1)
	assert.Empty(t, blue.Students)
	assert.Equal(t, 0, blue.VisitCount)

	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, models.DefaultLessonsPerPage, pagination.PageSize)

	assert.False(t, repo.countCalled)
	assert.False(t, repo.gotRestrict)
}

func TestLessonServiceListFilteredStudentCountPreFilter(t *testing.T) {
	repo := &mockLessonRepo{countIDs: []int64{3, 9}}
	service := newLessonServiceForTest(repo)

	_, _, err := service.ListFiltered(context.Background(), FilterLessonsRequest{StudentsCount: []int{2}})
	require.NoError(t, err)

	assert.True(t, repo.countCalled)
	assert.Equal(t, models.CountFilter{Kind: models.FilterExact, Min: 2}, repo.countFilter)
	assert.True(t, repo.gotRestrict)
	assert.Equal(t, []int64{3, 9}, repo.gotCandidates)
}

func TestLessonServiceListFilteredStudentCountRange(t *testing.T) {
	repo := &mockLessonRepo{countIDs: []int64{}}
	service := newLessonServiceForTest(repo)

	views, _, err := service.ListFiltered(context.Background(), FilterLessonsRequest{StudentsCount: []int{1, 4}})
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Equal(t, models.CountFilter{Kind: models.FilterRange, Min: 1, Max: 4}, repo.countFilter)
	assert.True(t, repo.gotRestrict)
	assert.Empty(t, repo.gotCandidates)
}

func TestLessonServiceListFilteredBuildsFilter(t *testing.T) {
	repo := &mockLessonRepo{}
	service := newLessonServiceForTest(repo)

	status := "1"
	perPage := 10
	page := 3
	_, pagination, err := service.ListFiltered(context.Background(), FilterLessonsRequest{
		Date:          []string{"2024-01-01", "2024-06-30"},
		Status:        &status,
		TeacherIDs:    []int64{5, 6},
		LessonPerPage: &perPage,
		Page:          &page,
	})
	require.NoError(t, err)

	assert.Equal(t, models.FilterRange, repo.gotFilter.Date.Kind)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), repo.gotFilter.Date.From)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), repo.gotFilter.Date.To)
	require.NotNil(t, repo.gotFilter.Status)
	assert.Equal(t, "1", *repo.gotFilter.Status)
	assert.Equal(t, []int64{5, 6}, repo.gotFilter.TeacherIDs)
	assert.Equal(t, 10, repo.gotFilter.Limit())
	assert.Equal(t, 20, repo.gotFilter.Offset())
	assert.Equal(t, 3, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
}

func TestLessonServiceListFilteredExactDate(t *testing.T) {
	repo := &mockLessonRepo{}
	service := newLessonServiceForTest(repo)

	_, _, err := service.ListFiltered(context.Background(), FilterLessonsRequest{Date: []string{"2024-05-06"}})
	require.NoError(t, err)
	assert.Equal(t, models.FilterExact, repo.gotFilter.Date.Kind)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), repo.gotFilter.Date.From)
}

func TestLessonServiceListFilteredBadDate(t *testing.T) {
	service := newLessonServiceForTest(&mockLessonRepo{})

	_, _, err := service.ListFiltered(context.Background(), FilterLessonsRequest{Date: []string{"06-05-2024"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date in bad format")
}

func TestLessonServiceListFilteredRejectsTooManyDates(t *testing.T) {
	service := newLessonServiceForTest(&mockLessonRepo{})

	_, _, err := service.ListFiltered(context.Background(), FilterLessonsRequest{
		Date: []string{"2024-01-01", "2024-02-01", "2024-03-01"},
	})
	require.Error(t, err)
}

func TestLessonServiceCreateSeriesByLastDate(t *testing.T) {
	repo := &mockLessonRepo{}
	service := newLessonServiceForTest(repo)

	lastDate := "2024-01-31"
	lessons, err := service.CreateSeries(context.Background(), CreateSeriesRequest{
		Title:      "Green",
		TeacherIDs: []int64{7, 8},
		Days:       []int{1}, // Mondays
		FirstDate:  "2024-01-01",
		LastDate:   &lastDate,
	})
	require.NoError(t, err)
	require.Len(t, lessons, 5)

	assert.Equal(t, "Green", repo.createdTitle)
	assert.Equal(t, []int64{7, 8}, repo.createdTeachers)
	require.Len(t, repo.createdDates, 5)
	for i, d := range repo.createdDates {
		assert.Equal(t, time.Monday, d.Weekday())
		if i > 0 {
			assert.True(t, d.After(repo.createdDates[i-1]))
		}
	}
}

func TestLessonServiceCreateSeriesByCount(t *testing.T) {
	repo := &mockLessonRepo{}
	service := newLessonServiceForTest(repo)

	count := 4
	lessons, err := service.CreateSeries(context.Background(), CreateSeriesRequest{
		Title:        "Blue",
		TeacherIDs:   []int64{7},
		Days:         []int{2, 4},
		FirstDate:    "2024-01-01",
		LessonsCount: &count,
	})
	require.NoError(t, err)
	require.Len(t, lessons, 4)
	require.Len(t, repo.createdDates, 4)
	for _, d := range repo.createdDates {
		wd := d.Weekday()
		assert.True(t, wd == time.Tuesday || wd == time.Thursday)
	}
}

func TestLessonServiceCreateSeriesRequiresExactlyOneMode(t *testing.T) {
	service := newLessonServiceForTest(&mockLessonRepo{})

	lastDate := "2024-01-31"
	count := 4

	_, err := service.CreateSeries(context.Background(), CreateSeriesRequest{
		Title:     "Green",
		Days:      []int{1},
		FirstDate: "2024-01-01",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of lastDate or lessonsCount")

	_, err = service.CreateSeries(context.Background(), CreateSeriesRequest{
		Title:        "Green",
		Days:         []int{1},
		FirstDate:    "2024-01-01",
		LastDate:     &lastDate,
		LessonsCount: &count,
	})
	require.Error(t, err)
}

func TestLessonServiceCreateSeriesBadFirstDate(t *testing.T) {
	service := newLessonServiceForTest(&mockLessonRepo{})

	count := 4
	_, err := service.CreateSeries(context.Background(), CreateSeriesRequest{
		Title:        "Green",
		Days:         []int{1},
		FirstDate:    "Jan 1 2024",
		LessonsCount: &count,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firstDate in bad format")
}

func TestLessonServiceCreateSeriesEmptyDaysSkipsInsert(t *testing.T) {
	repo := &mockLessonRepo{}
	service := newLessonServiceForTest(repo)

	lastDate := "2024-01-31"
	lessons, err := service.CreateSeries(context.Background(), CreateSeriesRequest{
		Title:     "Green",
		FirstDate: "2024-01-01",
		LastDate:  &lastDate,
	})
	require.NoError(t, err)
	assert.Empty(t, lessons)
	assert.Empty(t, repo.createdTitle)
}

func TestLessonServiceCreateSeriesRejectsInvalidDay(t *testing.T) {
	service := newLessonServiceForTest(&mockLessonRepo{})

	count := 4
	_, err := service.CreateSeries(context.Background(), CreateSeriesRequest{
		Title:        "Green",
		Days:         []int{7},
		FirstDate:    "2024-01-01",
		LessonsCount: &count,
	})
	require.Error(t, err)
}

func TestLessonServiceCreateSeriesRepoError(t *testing.T) {
	repo := &mockLessonRepo{createErr: errors.New("boom")}
	service := newLessonServiceForTest(repo)

	count := 2
	_, err := service.CreateSeries(context.Background(), CreateSeriesRequest{
		Title:        "Green",
		Days:         []int{1},
		FirstDate:    "2024-01-01",
		LessonsCount: &count,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create lesson series")
}

func TestFoldLessonRowsKeepsFirstAppearanceOrder(t *testing.T) {
	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	rows := []models.LessonJoinRow{
		joinRow(2, day, "Blue", 5, "Ms. Frizzle", 11, "Arnold", false),
		joinRow(1, day.AddDate(0, 0, 1), "Green", 5, "Ms. Frizzle", 11, "Arnold", true),
		joinRow(2, day, "Blue", 5, "Ms. Frizzle", 12, "Phoebe", true),
	}

	views := foldLessonRows(rows)
	require.Len(t, views, 2)
	assert.Equal(t, int64(2), views[0].ID)
	assert.Equal(t, int64(1), views[1].ID)
	assert.Equal(t, 1, views[0].VisitCount)
	assert.Equal(t, 1, views[1].VisitCount)
}

func TestFoldLessonRowsSkipsNullRosterEntries(t *testing.T) {
	day := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	rows := []models.LessonJoinRow{
		{ID: 1, Date: day, Title: "Solo"},
	}

	views := foldLessonRows(rows)
	require.Len(t, views, 1)
	assert.Empty(t, views[0].Teachers)
	assert.Empty(t, views[0].Students)
	assert.Equal(t, 0, views[0].VisitCount)
}
