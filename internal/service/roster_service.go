package service

import (
	"context"

	"github.com/noah-isme/lesson-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/lesson-scheduler-api/pkg/errors"
)

type teacherRoster interface {
	List(ctx context.Context) ([]models.Teacher, error)
}

type studentRoster interface {
	List(ctx context.Context) ([]models.Student, error)
}

// RosterService exposes the read-only teacher and student rosters.
type RosterService struct {
	teachers teacherRoster
	students studentRoster
}

// NewRosterService instantiates RosterService.
func NewRosterService(teachers teacherRoster, students studentRoster) *RosterService {
	return &RosterService{teachers: teachers, students: students}
}

// Teachers returns the full teacher roster.
func (s *RosterService) Teachers(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, nil
}

// Students returns the full student roster.
func (s *RosterService) Students(ctx context.Context) ([]models.Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}
