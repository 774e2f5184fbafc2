package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-scheduler-api/internal/models"
	"github.com/noah-isme/lesson-scheduler-api/internal/series"
	appErrors "github.com/noah-isme/lesson-scheduler-api/pkg/errors"
)

const dateLayout = "2006-01-02"

const filteredCachePrefix = "lessons:filtered:"

type lessonRepository interface {
	ListAll(ctx context.Context) ([]models.Lesson, error)
	FindByID(ctx context.Context, id int64) (*models.Lesson, error)
	LessonIDsByStudentCount(ctx context.Context, filter models.CountFilter) ([]int64, error)
	ListFilteredRows(ctx context.Context, filter models.LessonFilter, candidates []int64, restrictToCandidates bool) ([]models.LessonJoinRow, error)
	CreateSeries(ctx context.Context, title string, dates []time.Time, teacherIDs []int64) ([]models.Lesson, error)
}

// FilterLessonsRequest is the raw filtered-lessons body. A single date or
// studentsCount entry means an exact match, two entries an inclusive range.
type FilterLessonsRequest struct {
	Date          []string `json:"date" validate:"omitempty,max=2,dive,required"`
	Status        *string  `json:"status"`
	TeacherIDs    []int64  `json:"teacherIds" validate:"omitempty,dive,gte=1"`
	StudentsCount []int    `json:"studentsCount" validate:"omitempty,max=2,dive,gte=0"`
	LessonPerPage *int     `json:"lessonPerPage" validate:"omitempty,gte=1"`
	Page          *int     `json:"page" validate:"omitempty,gte=1"`
}

// CreateSeriesRequest is the series-creation body. Exactly one of lastDate or
// lessonsCount selects the generation mode.
type CreateSeriesRequest struct {
	Title        string  `json:"title" validate:"required"`
	TeacherIDs   []int64 `json:"teacherIds" validate:"omitempty,dive,gte=1"`
	Days         []int   `json:"days" validate:"omitempty,dive,gte=0,lte=6"`
	FirstDate    string  `json:"firstDate" validate:"required"`
	LastDate     *string `json:"lastDate"`
	LessonsCount *int    `json:"lessonsCount" validate:"omitempty,gte=1"`
}

// LessonService coordinates lesson listing, filtering, and series creation.
type LessonService struct {
	repo      lessonRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService instantiates LessonService. Cache and metrics may be nil.
func NewLessonService(repo lessonRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns every lesson row.
func (s *LessonService) List(ctx context.Context) ([]models.Lesson, error) {
	start := time.Now()
	lessons, err := s.repo.ListAll(ctx)
	s.metrics.ObserveDBQuery("lessons_list_all", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return lessons, nil
}

// Get returns a single lesson by id.
func (s *LessonService) Get(ctx context.Context, id int64) (*models.Lesson, error) {
	start := time.Now()
	lesson, err := s.repo.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("lessons_find_by_id", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// ListFiltered validates the filter body, runs the student-count pre-filter
// when requested, executes the main joined query, and folds the flat rows
// into per-lesson views.
func (s *LessonService) ListFiltered(ctx context.Context, req FilterLessonsRequest) ([]models.LessonView, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter payload")
	}

	filter, err := buildLessonFilter(req)
	if err != nil {
		return nil, nil, err
	}

	pagination := &models.Pagination{Page: pageOf(filter), PageSize: filter.Limit()}

	key := filteredCacheKey(filter)
	var cached []models.LessonView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, pagination, nil
	}

	// The candidate id set must be resolved before the main query runs.
	var candidates []int64
	restrict := filter.StudentsCount.Kind != models.FilterNone
	if restrict {
		start := time.Now()
		candidates, err = s.repo.LessonIDsByStudentCount(ctx, filter.StudentsCount)
		s.metrics.ObserveDBQuery("lesson_ids_by_student_count", time.Since(start))
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to pre-filter lessons by student count")
		}
	}

	start := time.Now()
	rows, err := s.repo.ListFilteredRows(ctx, filter, candidates, restrict)
	s.metrics.ObserveDBQuery("lessons_filtered", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list filtered lessons")
	}

	views := foldLessonRows(rows)

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, views, 0)
	}

	return views, pagination, nil
}

// CreateSeries generates the occurrence dates for a recurring series and
// persists the lessons with their teacher assignments in one transaction.
func (s *LessonService) CreateSeries(ctx context.Context, req CreateSeriesRequest) ([]models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series payload")
	}

	first, err := time.Parse(dateLayout, req.FirstDate)
	if err != nil {
		return nil, appErrors.BadRequest("firstDate in bad format")
	}
	if (req.LastDate == nil) == (req.LessonsCount == nil) {
		return nil, appErrors.BadRequest("exactly one of lastDate or lessonsCount must be provided")
	}

	weekdays := series.NewWeekdaySet(req.Days)

	var dates []time.Time
	if req.LessonsCount != nil {
		dates = series.ByCount(first, weekdays, *req.LessonsCount)
	} else {
		last, err := time.Parse(dateLayout, *req.LastDate)
		if err != nil {
			return nil, appErrors.BadRequest("lastDate in bad format")
		}
		dates = series.ByDateRange(first, series.ClampLastDate(first, last), weekdays)
	}

	if len(dates) == 0 {
		s.logger.Info("series produced no dates", zap.String("title", req.Title))
		return []models.Lesson{}, nil
	}

	start := time.Now()
	lessons, err := s.repo.CreateSeries(ctx, req.Title, dates, req.TeacherIDs)
	s.metrics.ObserveDBQuery("lessons_create_series", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson series")
	}

	if err := s.cache.Invalidate(ctx, filteredCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate lesson cache", zap.Error(err))
	}

	s.logger.Info("lesson series created",
		zap.String("title", req.Title),
		zap.Int("lessons", len(lessons)),
		zap.Int("teachers", len(req.TeacherIDs)),
	)
	return lessons, nil
}

// buildLessonFilter converts the raw body into the structured filter,
// rejecting malformed dates before any query is issued.
func buildLessonFilter(req FilterLessonsRequest) (models.LessonFilter, error) {
	var filter models.LessonFilter

	switch len(req.Date) {
	case 0:
		filter.Date = models.DateFilter{Kind: models.FilterNone}
	case 1:
		day, err := time.Parse(dateLayout, req.Date[0])
		if err != nil {
			return filter, appErrors.BadRequest("date in bad format")
		}
		filter.Date = models.DateFilter{Kind: models.FilterExact, From: day}
	default:
		from, err := time.Parse(dateLayout, req.Date[0])
		if err != nil {
			return filter, appErrors.BadRequest("date in bad format")
		}
		to, err := time.Parse(dateLayout, req.Date[1])
		if err != nil {
			return filter, appErrors.BadRequest("date in bad format")
		}
		filter.Date = models.DateFilter{Kind: models.FilterRange, From: from, To: to}
	}

	switch len(req.StudentsCount) {
	case 0:
		filter.StudentsCount = models.CountFilter{Kind: models.FilterNone}
	case 1:
		filter.StudentsCount = models.CountFilter{Kind: models.FilterExact, Min: req.StudentsCount[0]}
	default:
		filter.StudentsCount = models.CountFilter{Kind: models.FilterRange, Min: req.StudentsCount[0], Max: req.StudentsCount[1]}
	}

	filter.Status = req.Status
	filter.TeacherIDs = req.TeacherIDs

	filter.PerPage = models.DefaultLessonsPerPage
	if req.LessonPerPage != nil {
		filter.PerPage = *req.LessonPerPage
	}
	filter.Page = models.DefaultLessonsPage
	if req.Page != nil {
		filter.Page = *req.Page
	}

	return filter, nil
}

// foldLessonRows collapses the flat (lesson, teacher, student) row stream
// into one view per lesson, in first-appearance order. Rosters are
// deduplicated by id through per-lesson sets; null roster ids from the LEFT
// JOIN mean the lesson has no such entry and are skipped.
func foldLessonRows(rows []models.LessonJoinRow) []models.LessonView {
	order := make([]int64, 0)
	views := make(map[int64]*models.LessonView)
	seenTeachers := make(map[int64]map[int64]struct{})
	seenStudents := make(map[int64]map[int64]struct{})

	for _, row := range rows {
		view, ok := views[row.ID]
		if !ok {
			view = &models.LessonView{
				ID:       row.ID,
				Date:     row.Date,
				Title:    row.Title,
				Teachers: []models.TeacherRef{},
				Students: []models.StudentRef{},
			}
			if row.Status.Valid {
				status := row.Status.Int64
				view.Status = &status
			}
			views[row.ID] = view
			order = append(order, row.ID)
			seenTeachers[row.ID] = make(map[int64]struct{})
			seenStudents[row.ID] = make(map[int64]struct{})
		}

		if row.TeacherID.Valid {
			if _, dup := seenTeachers[row.ID][row.TeacherID.Int64]; !dup {
				seenTeachers[row.ID][row.TeacherID.Int64] = struct{}{}
				view.Teachers = append(view.Teachers, models.TeacherRef{ID: row.TeacherID.Int64, Name: row.TeacherName.String})
			}
		}
		if row.StudentID.Valid {
			if _, dup := seenStudents[row.ID][row.StudentID.Int64]; !dup {
				seenStudents[row.ID][row.StudentID.Int64] = struct{}{}
				view.Students = append(view.Students, models.StudentRef{
					ID:    row.StudentID.Int64,
					Name:  row.StudentName.String,
					Visit: row.Visit.Valid && row.Visit.Bool,
				})
			}
		}
	}

	out := make([]models.LessonView, 0, len(order))
	for _, id := range order {
		view := views[id]
		count := 0
		for _, student := range view.Students {
			if student.Visit {
				count++
			}
		}
		view.VisitCount = count
		out = append(out, *view)
	}
	return out
}

func filteredCacheKey(filter models.LessonFilter) string {
	payload, err := json.Marshal(filter)
	if err != nil {
		return filteredCachePrefix + "unkeyed"
	}
	return fmt.Sprintf("%s%x", filteredCachePrefix, sha256.Sum256(payload))
}

func pageOf(filter models.LessonFilter) int {
	if filter.Page < 1 {
		return models.DefaultLessonsPage
	}
	return filter.Page
}
