package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/repository"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type surveyResponseRepository interface {
	List(ctx context.Context, filter models.SurveyResponseFilter) ([]models.SurveyResponse, int, error)
	FindByID(ctx context.Context, id int64) (*models.SurveyResponse, error)
	CreateWithDetection(ctx context.Context, resp *models.SurveyResponse, detector repository.Detector) (*models.DetectionResult, error)
	UpdateWithDetection(ctx context.Context, resp *models.SurveyResponse, detector repository.Detector) (*models.DetectionResult, error)
	SoftDelete(ctx context.Context, id int64) error
}

type surveyStudentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

// SubmitSurveyRequest holds the payload for a weekly check-in.
type SubmitSurveyRequest struct {
	StudentID   int64   `json:"student_id" validate:"required,gt=0"`
	ModuleID    *int64  `json:"module_id,omitempty" validate:"omitempty,gt=0"`
	WeekNumber  int     `json:"week_number" validate:"required,gte=1"`
	StressLevel int     `json:"stress_level" validate:"required,gte=1,lte=5"`
	HoursSlept  float64 `json:"hours_slept" validate:"gte=0,lte=24"`
	MoodComment *string `json:"mood_comment,omitempty"`
}

// SurveyResult pairs the stored response with whatever detection produced.
type SurveyResult struct {
	Response  *models.SurveyResponse `json:"response"`
	Detection *models.DetectionResult `json:"detection"`
}

// SurveyService handles survey submission, the detection trigger and reads.
type SurveyService struct {
	repo      surveyResponseRepository
	students  surveyStudentRepository
	detector  *EventDetector
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSurveyService constructs the survey service.
func NewSurveyService(repo surveyResponseRepository, students surveyStudentRepository, detector *EventDetector, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SurveyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyService{repo: repo, students: students, detector: detector, cache: cache, validator: validate, logger: logger}
}

// List returns survey responses and pagination metadata.
func (s *SurveyService) List(ctx context.Context, filter models.SurveyResponseFilter) ([]models.SurveyResponse, *models.Pagination, error) {
	responses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list survey responses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return responses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single survey response.
func (s *SurveyService) Get(ctx context.Context, id int64) (*models.SurveyResponse, error) {
	resp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey response not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey response")
	}
	return resp, nil
}

// Submit validates and stores a check-in, running detection in the same
// transaction as the write.
func (s *SurveyService) Submit(ctx context.Context, req SubmitSurveyRequest) (*SurveyResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey payload")
	}
	if err := s.requireActiveStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}

	resp := &models.SurveyResponse{
		StudentID:   req.StudentID,
		ModuleID:    req.ModuleID,
		WeekNumber:  req.WeekNumber,
		StressLevel: req.StressLevel,
		HoursSlept:  req.HoursSlept,
		MoodComment: req.MoodComment,
	}

	detection, err := s.repo.CreateWithDetection(ctx, resp, s.detector)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "survey write rolled back")
	}

	s.logDetection(resp, detection)
	s.invalidateAnalytics(ctx)

	return &SurveyResult{Response: resp, Detection: detection}, nil
}

// Update rewrites a response and re-runs detection. Derived records created by
// earlier runs stay in place.
func (s *SurveyService) Update(ctx context.Context, id int64, req SubmitSurveyRequest) (*SurveyResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey response not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey response")
	}
	if existing.StudentID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "survey response cannot move between students")
	}

	resp := &models.SurveyResponse{
		ID:          id,
		StudentID:   existing.StudentID,
		ModuleID:    req.ModuleID,
		WeekNumber:  req.WeekNumber,
		StressLevel: req.StressLevel,
		HoursSlept:  req.HoursSlept,
		MoodComment: req.MoodComment,
		CreatedAt:   existing.CreatedAt,
	}

	detection, err := s.repo.UpdateWithDetection(ctx, resp, s.detector)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey response not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "survey write rolled back")
	}

	s.logDetection(resp, detection)
	s.invalidateAnalytics(ctx)

	return &SurveyResult{Response: resp, Detection: detection}, nil
}

// Delete marks a survey response inactive. Derived records are untouched.
func (s *SurveyService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "survey response not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete survey response")
	}
	s.invalidateAnalytics(ctx)
	return nil
}

func (s *SurveyService) requireActiveStudent(ctx context.Context, studentID int64) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found or inactive")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return nil
}

func (s *SurveyService) logDetection(resp *models.SurveyResponse, detection *models.DetectionResult) {
	if detection == nil {
		return
	}
	if detection.StressEvent != nil {
		s.logger.Info("stress event recorded",
			zap.Int64("student_id", resp.StudentID),
			zap.Int("week", resp.WeekNumber),
			zap.Int("stress_level", resp.StressLevel))
	}
	if detection.Alert != nil {
		s.logger.Warn("consecutive stress alert raised",
			zap.Int64("student_id", resp.StudentID),
			zap.Int("week", resp.WeekNumber))
	}
}

func (s *SurveyService) invalidateAnalytics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{"analysis:*", "dash:*"} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("analytics cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
