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

type alertRepository interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
	FindByID(ctx context.Context, id int64) (*models.Alert, error)
	Create(ctx context.Context, alert *models.Alert) error
	Resolve(ctx context.Context, id int64) error
	SoftDelete(ctx context.Context, id int64) error
}

// CreateAlertRequest holds payload for administratively raised alerts.
type CreateAlertRequest struct {
	StudentID  int64  `json:"student_id" validate:"required,gt=0"`
	ModuleID   *int64 `json:"module_id,omitempty" validate:"omitempty,gt=0"`
	WeekNumber int    `json:"week_number" validate:"required,gte=1"`
	Reason     string `json:"reason" validate:"required"`
}

// AlertService handles staff alert use-cases. Pattern-derived alerts are
// raised by the detector; this service covers the manual surface.
type AlertService struct {
	repo      alertRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAlertService constructs the alert service.
func NewAlertService(repo alertRepository, validate *validator.Validate, logger *zap.Logger) *AlertService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{repo: repo, validator: validate, logger: logger}
}

// List returns alerts and pagination metadata.
func (s *AlertService) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, *models.Pagination, error) {
	alerts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	return alerts, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single alert.
func (s *AlertService) Get(ctx context.Context, id int64) (*models.Alert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}
	return alert, nil
}

// Create raises an alert manually.
func (s *AlertService) Create(ctx context.Context, req CreateAlertRequest) (*models.Alert, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid alert payload")
	}
	alert := &models.Alert{
		StudentID:  req.StudentID,
		ModuleID:   req.ModuleID,
		WeekNumber: req.WeekNumber,
		Reason:     req.Reason,
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create alert")
	}
	return alert, nil
}

// Resolve marks an alert as handled.
func (s *AlertService) Resolve(ctx context.Context, id int64) (*models.Alert, error) {
	if err := s.repo.Resolve(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve alert")
	}
	return s.Get(ctx, id)
}

// Delete marks an alert inactive.
func (s *AlertService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete alert")
	}
	return nil
}
