package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.Grade, int, error)
	FindByID(ctx context.Context, id int64) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	SoftDelete(ctx context.Context, id int64) error
}

type attendanceRepository interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.AttendanceRecord, int, error)
	FindByID(ctx context.Context, id int64) (*models.AttendanceRecord, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	SoftDelete(ctx context.Context, id int64) error
}

type enrolmentRepository interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.EnrolmentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.Enrolment, error)
	FindActive(ctx context.Context, studentID, moduleID int64) (*models.Enrolment, error)
	Create(ctx context.Context, enrolment *models.Enrolment) error
	SoftDelete(ctx context.Context, id int64) error
}

type submissionRepository interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.SubmissionRecord, int, error)
	FindByID(ctx context.Context, id int64) (*models.SubmissionRecord, error)
	Create(ctx context.Context, record *models.SubmissionRecord) error
	Update(ctx context.Context, record *models.SubmissionRecord) error
	SoftDelete(ctx context.Context, id int64) error
}

// GradeRequest holds payload for grade writes.
type GradeRequest struct {
	StudentID  int64   `json:"student_id" validate:"required,gt=0"`
	ModuleID   int64   `json:"module_id" validate:"required,gt=0"`
	Assessment string  `json:"assessment" validate:"required"`
	Score      float64 `json:"score" validate:"gte=0,lte=100"`
}

// AttendanceRequest holds payload for attendance writes.
type AttendanceRequest struct {
	StudentID        int64 `json:"student_id" validate:"required,gt=0"`
	ModuleID         int64 `json:"module_id" validate:"required,gt=0"`
	WeekNumber       int   `json:"week_number" validate:"required,gte=1"`
	AttendedSessions int   `json:"attended_sessions" validate:"gte=0"`
	TotalSessions    int   `json:"total_sessions" validate:"required,gt=0"`
}

// EnrolmentRequest holds payload for enrolment creation.
type EnrolmentRequest struct {
	StudentID  int64      `json:"student_id" validate:"required,gt=0"`
	ModuleID   int64      `json:"module_id" validate:"required,gt=0"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
}

// SubmissionRequest holds payload for submission record writes.
type SubmissionRequest struct {
	StudentID   int64      `json:"student_id" validate:"required,gt=0"`
	ModuleID    int64      `json:"module_id" validate:"required,gt=0"`
	Assignment  string     `json:"assignment" validate:"required"`
	Submitted   bool       `json:"submitted"`
	Late        bool       `json:"late"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// RecordService handles the grade, attendance, submission and enrolment
// surfaces. Grade, attendance and submission writes invalidate the analytics
// cache since every aggregation reads them; enrolments feed no aggregation.
type RecordService struct {
	grades      gradeRepository
	attendance  attendanceRepository
	submissions submissionRepository
	enrolments  enrolmentRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRecordService constructs the record service.
func NewRecordService(grades gradeRepository, attendance attendanceRepository, submissions submissionRepository, enrolments enrolmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{grades: grades, attendance: attendance, submissions: submissions, enrolments: enrolments, cache: cache, validator: validate, logger: logger}
}

// ListGrades returns grades and pagination metadata.
func (s *RecordService) ListGrades(ctx context.Context, filter models.RecordFilter) ([]models.Grade, *models.Pagination, error) {
	grades, total, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetGrade returns a single grade.
func (s *RecordService) GetGrade(ctx context.Context, id int64) (*models.Grade, error) {
	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		return nil, mapRecordError(err, "grade not found", "failed to load grade")
	}
	return grade, nil
}

// CreateGrade records an assessment result.
func (s *RecordService) CreateGrade(ctx context.Context, req GradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	grade := &models.Grade{
		StudentID:  req.StudentID,
		ModuleID:   req.ModuleID,
		Assessment: req.Assessment,
		Score:      req.Score,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	s.invalidateAnalytics(ctx)
	return grade, nil
}

// UpdateGrade modifies an assessment result.
func (s *RecordService) UpdateGrade(ctx context.Context, id int64, req GradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		return nil, mapRecordError(err, "grade not found", "failed to load grade")
	}
	grade.Assessment = req.Assessment
	grade.Score = req.Score
	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, mapRecordError(err, "grade not found", "failed to update grade")
	}
	s.invalidateAnalytics(ctx)
	return grade, nil
}

// DeleteGrade marks a grade inactive.
func (s *RecordService) DeleteGrade(ctx context.Context, id int64) error {
	if err := s.grades.SoftDelete(ctx, id); err != nil {
		return mapRecordError(err, "grade not found", "failed to delete grade")
	}
	s.invalidateAnalytics(ctx)
	return nil
}

// ListAttendance returns attendance records and pagination metadata.
func (s *RecordService) ListAttendance(ctx context.Context, filter models.RecordFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	records, total, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetAttendance returns a single attendance record.
func (s *RecordService) GetAttendance(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	record, err := s.attendance.FindByID(ctx, id)
	if err != nil {
		return nil, mapRecordError(err, "attendance record not found", "failed to load attendance record")
	}
	return record, nil
}

// CreateAttendance records weekly attendance. The per-record rate is derived
// here so it stays consistent with the stored session counts.
func (s *RecordService) CreateAttendance(ctx context.Context, req AttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validateAttendance(req); err != nil {
		return nil, err
	}
	record := &models.AttendanceRecord{
		StudentID:        req.StudentID,
		ModuleID:         req.ModuleID,
		WeekNumber:       req.WeekNumber,
		AttendedSessions: req.AttendedSessions,
		TotalSessions:    req.TotalSessions,
		AttendanceRate:   weightedAttendance(int64(req.AttendedSessions), int64(req.TotalSessions)),
	}
	if err := s.attendance.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance record")
	}
	s.invalidateAnalytics(ctx)
	return record, nil
}

// UpdateAttendance modifies an attendance record.
func (s *RecordService) UpdateAttendance(ctx context.Context, id int64, req AttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validateAttendance(req); err != nil {
		return nil, err
	}
	record, err := s.attendance.FindByID(ctx, id)
	if err != nil {
		return nil, mapRecordError(err, "attendance record not found", "failed to load attendance record")
	}
	record.WeekNumber = req.WeekNumber
	record.AttendedSessions = req.AttendedSessions
	record.TotalSessions = req.TotalSessions
	record.AttendanceRate = weightedAttendance(int64(req.AttendedSessions), int64(req.TotalSessions))
	if err := s.attendance.Update(ctx, record); err != nil {
		return nil, mapRecordError(err, "attendance record not found", "failed to update attendance record")
	}
	s.invalidateAnalytics(ctx)
	return record, nil
}

// DeleteAttendance marks an attendance record inactive.
func (s *RecordService) DeleteAttendance(ctx context.Context, id int64) error {
	if err := s.attendance.SoftDelete(ctx, id); err != nil {
		return mapRecordError(err, "attendance record not found", "failed to delete attendance record")
	}
	s.invalidateAnalytics(ctx)
	return nil
}

// ListSubmissions returns submission records and pagination metadata.
func (s *RecordService) ListSubmissions(ctx context.Context, filter models.RecordFilter) ([]models.SubmissionRecord, *models.Pagination, error) {
	records, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submission records")
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetSubmission returns a single submission record.
func (s *RecordService) GetSubmission(ctx context.Context, id int64) (*models.SubmissionRecord, error) {
	record, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		return nil, mapRecordError(err, "submission record not found", "failed to load submission record")
	}
	return record, nil
}

// CreateSubmission records an assignment submission outcome.
func (s *RecordService) CreateSubmission(ctx context.Context, req SubmissionRequest) (*models.SubmissionRecord, error) {
	if err := s.validateSubmission(req); err != nil {
		return nil, err
	}
	record := &models.SubmissionRecord{
		StudentID:   req.StudentID,
		ModuleID:    req.ModuleID,
		Assignment:  req.Assignment,
		Submitted:   req.Submitted,
		Late:        req.Late,
		SubmittedAt: req.SubmittedAt,
	}
	if err := s.submissions.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission record")
	}
	s.invalidateAnalytics(ctx)
	return record, nil
}

// UpdateSubmission modifies a submission record.
func (s *RecordService) UpdateSubmission(ctx context.Context, id int64, req SubmissionRequest) (*models.SubmissionRecord, error) {
	if err := s.validateSubmission(req); err != nil {
		return nil, err
	}
	record, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		return nil, mapRecordError(err, "submission record not found", "failed to load submission record")
	}
	record.Assignment = req.Assignment
	record.Submitted = req.Submitted
	record.Late = req.Late
	record.SubmittedAt = req.SubmittedAt
	if err := s.submissions.Update(ctx, record); err != nil {
		return nil, mapRecordError(err, "submission record not found", "failed to update submission record")
	}
	s.invalidateAnalytics(ctx)
	return record, nil
}

// DeleteSubmission marks a submission record inactive.
func (s *RecordService) DeleteSubmission(ctx context.Context, id int64) error {
	if err := s.submissions.SoftDelete(ctx, id); err != nil {
		return mapRecordError(err, "submission record not found", "failed to delete submission record")
	}
	s.invalidateAnalytics(ctx)
	return nil
}

// ListEnrolments returns enrolments with joined names and pagination metadata.
func (s *RecordService) ListEnrolments(ctx context.Context, filter models.RecordFilter) ([]models.EnrolmentDetail, *models.Pagination, error) {
	enrolments, total, err := s.enrolments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolments")
	}
	return enrolments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// GetEnrolment returns a single enrolment.
func (s *RecordService) GetEnrolment(ctx context.Context, id int64) (*models.Enrolment, error) {
	enrolment, err := s.enrolments.FindByID(ctx, id)
	if err != nil {
		return nil, mapRecordError(err, "enrolment not found", "failed to load enrolment")
	}
	return enrolment, nil
}

// CreateEnrolment registers a student on a module. At most one active
// enrolment per student-module pair; the partial unique index backs this
// check under concurrent requests.
func (s *RecordService) CreateEnrolment(ctx context.Context, req EnrolmentRequest) (*models.Enrolment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrolment payload")
	}
	if _, err := s.enrolments.FindActive(ctx, req.StudentID, req.ModuleID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled on this module")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrolment")
	}
	enrolment := &models.Enrolment{
		StudentID: req.StudentID,
		ModuleID:  req.ModuleID,
	}
	if req.EnrolledAt != nil {
		enrolment.EnrolledAt = *req.EnrolledAt
	}
	if err := s.enrolments.Create(ctx, enrolment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrolment")
	}
	return enrolment, nil
}

// DeleteEnrolment marks an enrolment inactive.
func (s *RecordService) DeleteEnrolment(ctx context.Context, id int64) error {
	if err := s.enrolments.SoftDelete(ctx, id); err != nil {
		return mapRecordError(err, "enrolment not found", "failed to delete enrolment")
	}
	return nil
}

func (s *RecordService) validateAttendance(req AttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if req.AttendedSessions > req.TotalSessions {
		return appErrors.Clone(appErrors.ErrValidation, "attended sessions cannot exceed total sessions")
	}
	return nil
}

func (s *RecordService) validateSubmission(req SubmissionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if !req.Submitted && req.Late {
		return appErrors.Clone(appErrors.ErrValidation, "a missing submission cannot be late")
	}
	return nil
}

func (s *RecordService) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{"analysis:*", "dash:*"} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("analytics cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func mapRecordError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
