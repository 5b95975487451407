package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type stressEventRepository interface {
	List(ctx context.Context, filter models.StressEventFilter) ([]models.StressEvent, int, error)
	FindByID(ctx context.Context, id int64) (*models.StressEvent, error)
	Create(ctx context.Context, event *models.StressEvent) error
	SoftDelete(ctx context.Context, id int64) error
}

// CreateStressEventRequest holds payload for administratively recorded events.
// Survey-derived events come only from the detector.
type CreateStressEventRequest struct {
	StudentID     int64   `json:"student_id" validate:"required,gt=0"`
	ModuleID      *int64  `json:"module_id,omitempty" validate:"omitempty,gt=0"`
	WeekNumber    int     `json:"week_number" validate:"required,gte=1"`
	StressLevel   int     `json:"stress_level" validate:"required,gte=1,lte=5"`
	CauseCategory string  `json:"cause_category" validate:"required"`
	Description   *string `json:"description,omitempty"`
}

// StressEventService handles the stress event read and admin-write surface.
type StressEventService struct {
	repo      stressEventRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStressEventService constructs the stress event service.
func NewStressEventService(repo stressEventRepository, validate *validator.Validate, logger *zap.Logger) *StressEventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StressEventService{repo: repo, validator: validate, logger: logger}
}

// List returns stress events and pagination metadata.
func (s *StressEventService) List(ctx context.Context, filter models.StressEventFilter) ([]models.StressEvent, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stress events")
	}
	return events, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single stress event.
func (s *StressEventService) Get(ctx context.Context, id int64) (*models.StressEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "stress event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stress event")
	}
	return event, nil
}

// Create records a system-observed stress event without a survey back-reference.
func (s *StressEventService) Create(ctx context.Context, req CreateStressEventRequest) (*models.StressEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stress event payload")
	}
	event := &models.StressEvent{
		StudentID:     req.StudentID,
		ModuleID:      req.ModuleID,
		WeekNumber:    req.WeekNumber,
		StressLevel:   req.StressLevel,
		CauseCategory: req.CauseCategory,
		Description:   req.Description,
		Source:        models.StressSourceSystem,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create stress event")
	}
	return event, nil
}

// Delete marks a stress event inactive.
func (s *StressEventService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "stress event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete stress event")
	}
	return nil
}
