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

type moduleRepository interface {
	List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error)
	FindByID(ctx context.Context, id int64) (*models.Module, error)
	Create(ctx context.Context, module *models.Module) error
	Update(ctx context.Context, module *models.Module) error
	SoftDelete(ctx context.Context, id int64) error
}

// ModuleRequest holds payload for creating or updating modules.
type ModuleRequest struct {
	Code    string `json:"code" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Credits int    `json:"credits" validate:"required,gte=1,lte=60"`
}

// ModuleService handles taught-module use-cases.
type ModuleService struct {
	repo      moduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewModuleService constructs the module service.
func NewModuleService(repo moduleRepository, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{repo: repo, validator: validate, logger: logger}
}

// List returns modules and pagination metadata.
func (s *ModuleService) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, *models.Pagination, error) {
	modules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	return modules, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single module.
func (s *ModuleService) Get(ctx context.Context, id int64) (*models.Module, error) {
	module, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	return module, nil
}

// Create registers a new module.
func (s *ModuleService) Create(ctx context.Context, req ModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	module := &models.Module{Code: req.Code, Title: req.Title, Credits: req.Credits}
	if err := s.repo.Create(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	return module, nil
}

// Update modifies an existing module.
func (s *ModuleService) Update(ctx context.Context, id int64, req ModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	module, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	module.Code = req.Code
	module.Title = req.Title
	module.Credits = req.Credits
	if err := s.repo.Update(ctx, module); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return module, nil
}

// Delete marks a module inactive.
func (s *ModuleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate module")
	}
	return nil
}
