package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type mockGradeRepo struct {
	grades map[int64]models.Grade
	nextID int64
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.RecordFilter) ([]models.Grade, int, error) {
	out := make([]models.Grade, 0, len(m.grades))
	for _, g := range m.grades {
		out = append(out, g)
	}
	return out, len(out), nil
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[int64]models.Grade)
	}
	m.nextID++
	grade.ID = m.nextID
	m.grades[grade.ID] = *grade
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	if _, ok := m.grades[grade.ID]; !ok {
		return sql.ErrNoRows
	}
	m.grades[grade.ID] = *grade
	return nil
}

func (m *mockGradeRepo) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := m.grades[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.grades, id)
	return nil
}

type mockAttendanceRepo struct {
	records map[int64]models.AttendanceRecord
	nextID  int64
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.RecordFilter) ([]models.AttendanceRecord, int, error) {
	out := make([]models.AttendanceRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if m.records == nil {
		m.records = make(map[int64]models.AttendanceRecord)
	}
	m.nextID++
	record.ID = m.nextID
	m.records[record.ID] = *record
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.AttendanceRecord) error {
	if _, ok := m.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	m.records[record.ID] = *record
	return nil
}

func (m *mockAttendanceRepo) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.records, id)
	return nil
}

type mockSubmissionRepo struct {
	records map[int64]models.SubmissionRecord
	nextID  int64
}

func (m *mockSubmissionRepo) List(ctx context.Context, filter models.RecordFilter) ([]models.SubmissionRecord, int, error) {
	out := make([]models.SubmissionRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id int64) (*models.SubmissionRecord, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) Create(ctx context.Context, record *models.SubmissionRecord) error {
	if m.records == nil {
		m.records = make(map[int64]models.SubmissionRecord)
	}
	m.nextID++
	record.ID = m.nextID
	m.records[record.ID] = *record
	return nil
}

func (m *mockSubmissionRepo) Update(ctx context.Context, record *models.SubmissionRecord) error {
	if _, ok := m.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	m.records[record.ID] = *record
	return nil
}

func (m *mockSubmissionRepo) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.records, id)
	return nil
}

type mockEnrolmentRepo struct {
	enrolments map[int64]models.Enrolment
	nextID     int64
}

func (m *mockEnrolmentRepo) List(ctx context.Context, filter models.RecordFilter) ([]models.EnrolmentDetail, int, error) {
	out := make([]models.EnrolmentDetail, 0, len(m.enrolments))
	for _, e := range m.enrolments {
		out = append(out, models.EnrolmentDetail{Enrolment: e})
	}
	return out, len(out), nil
}

func (m *mockEnrolmentRepo) FindByID(ctx context.Context, id int64) (*models.Enrolment, error) {
	if e, ok := m.enrolments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrolmentRepo) FindActive(ctx context.Context, studentID, moduleID int64) (*models.Enrolment, error) {
	for _, e := range m.enrolments {
		if e.StudentID == studentID && e.ModuleID == moduleID {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrolmentRepo) Create(ctx context.Context, enrolment *models.Enrolment) error {
	if m.enrolments == nil {
		m.enrolments = make(map[int64]models.Enrolment)
	}
	m.nextID++
	enrolment.ID = m.nextID
	m.enrolments[enrolment.ID] = *enrolment
	return nil
}

func (m *mockEnrolmentRepo) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := m.enrolments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrolments, id)
	return nil
}

func newRecordService() (*RecordService, *mockGradeRepo, *mockAttendanceRepo, *mockSubmissionRepo, *mockEnrolmentRepo) {
	grades := &mockGradeRepo{}
	attendance := &mockAttendanceRepo{}
	submissions := &mockSubmissionRepo{}
	enrolments := &mockEnrolmentRepo{}
	svc := NewRecordService(grades, attendance, submissions, enrolments, nil, validator.New(), zap.NewNop())
	return svc, grades, attendance, submissions, enrolments
}

func TestCreateAttendanceDerivesRate(t *testing.T) {
	svc, _, _, _, _ := newRecordService()

	record, err := svc.CreateAttendance(context.Background(), AttendanceRequest{
		StudentID:        10,
		ModuleID:         1,
		WeekNumber:       2,
		AttendedSessions: 3,
		TotalSessions:    4,
	})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, record.AttendanceRate, 0.001)
}

func TestCreateAttendanceRejectsImpossibleCounts(t *testing.T) {
	svc, _, _, _, _ := newRecordService()

	_, err := svc.CreateAttendance(context.Background(), AttendanceRequest{
		StudentID:        10,
		ModuleID:         1,
		WeekNumber:       2,
		AttendedSessions: 5,
		TotalSessions:    4,
	})
	require.Error(t, err)
}

func TestUpdateAttendanceRecomputesRate(t *testing.T) {
	svc, _, attendance, _, _ := newRecordService()
	attendance.records = map[int64]models.AttendanceRecord{
		1: {ID: 1, StudentID: 10, ModuleID: 1, WeekNumber: 2, AttendedSessions: 3, TotalSessions: 4, AttendanceRate: 75},
	}

	record, err := svc.UpdateAttendance(context.Background(), 1, AttendanceRequest{
		StudentID:        10,
		ModuleID:         1,
		WeekNumber:       2,
		AttendedSessions: 1,
		TotalSessions:    4,
	})
	require.NoError(t, err)
	assert.InDelta(t, 25.0, record.AttendanceRate, 0.001)
}

func TestCreateSubmissionRejectsLateWithoutSubmission(t *testing.T) {
	svc, _, _, _, _ := newRecordService()

	_, err := svc.CreateSubmission(context.Background(), SubmissionRequest{
		StudentID:  10,
		ModuleID:   1,
		Assignment: "Coursework 1",
		Submitted:  false,
		Late:       true,
	})
	require.Error(t, err)
}

func TestCreateSubmission(t *testing.T) {
	svc, _, _, submissions, _ := newRecordService()

	record, err := svc.CreateSubmission(context.Background(), SubmissionRequest{
		StudentID:  10,
		ModuleID:   1,
		Assignment: "Coursework 1",
		Submitted:  true,
		Late:       true,
	})
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Len(t, submissions.records, 1)
}

func TestCreateGradeRejectsOutOfRangeScore(t *testing.T) {
	svc, _, _, _, _ := newRecordService()

	_, err := svc.CreateGrade(context.Background(), GradeRequest{
		StudentID:  10,
		ModuleID:   1,
		Assessment: "Exam",
		Score:      101,
	})
	require.Error(t, err)
}

func TestUpdateGradeMissing(t *testing.T) {
	svc, _, _, _, _ := newRecordService()

	_, err := svc.UpdateGrade(context.Background(), 404, GradeRequest{
		StudentID:  10,
		ModuleID:   1,
		Assessment: "Exam",
		Score:      50,
	})
	require.Error(t, err)
}

func TestGradeLifecycle(t *testing.T) {
	svc, grades, _, _, _ := newRecordService()

	created, err := svc.CreateGrade(context.Background(), GradeRequest{
		StudentID:  10,
		ModuleID:   1,
		Assessment: "Exam",
		Score:      64,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateGrade(context.Background(), created.ID, GradeRequest{
		StudentID:  10,
		ModuleID:   1,
		Assessment: "Exam",
		Score:      70,
	})
	require.NoError(t, err)
	assert.InDelta(t, 70.0, updated.Score, 0.001)

	require.NoError(t, svc.DeleteGrade(context.Background(), created.ID))
	assert.Empty(t, grades.grades)
}

func TestCreateEnrolment(t *testing.T) {
	svc, _, _, _, enrolments := newRecordService()

	enrolment, err := svc.CreateEnrolment(context.Background(), EnrolmentRequest{
		StudentID: 10,
		ModuleID:  1,
	})
	require.NoError(t, err)
	assert.NotZero(t, enrolment.ID)
	assert.False(t, enrolment.EnrolledAt.IsZero())
	assert.Len(t, enrolments.enrolments, 1)
}

func TestCreateEnrolmentRejectsDuplicate(t *testing.T) {
	svc, _, _, _, _ := newRecordService()

	_, err := svc.CreateEnrolment(context.Background(), EnrolmentRequest{StudentID: 10, ModuleID: 1})
	require.NoError(t, err)

	_, err = svc.CreateEnrolment(context.Background(), EnrolmentRequest{StudentID: 10, ModuleID: 1})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEnrolmentLifecycle(t *testing.T) {
	svc, _, _, _, enrolments := newRecordService()

	created, err := svc.CreateEnrolment(context.Background(), EnrolmentRequest{StudentID: 10, ModuleID: 2})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEnrolment(context.Background(), created.ID))
	assert.Empty(t, enrolments.enrolments)

	// the slot is released, re-enrolment is allowed
	_, err = svc.CreateEnrolment(context.Background(), EnrolmentRequest{StudentID: 10, ModuleID: 2})
	require.NoError(t, err)
}

func TestDeleteEnrolmentMissing(t *testing.T) {
	svc, _, _, _, _ := newRecordService()

	err := svc.DeleteEnrolment(context.Background(), 404)
	require.Error(t, err)
}
