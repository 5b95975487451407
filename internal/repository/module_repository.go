package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// ModuleRepository manages persistence for taught modules.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository constructs a ModuleRepository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// List returns modules matching the provided filters.
func (r *ModuleRepository) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error) {
	base := "FROM modules"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = true")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page, size := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, code, title, credits, is_active, created_at
        %s ORDER BY code ASC LIMIT %d OFFSET %d`, base, size, offset)

	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list modules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count modules: %w", err)
	}
	return modules, total, nil
}

// FindByID fetches an active module by ID.
func (r *ModuleRepository) FindByID(ctx context.Context, id int64) (*models.Module, error) {
	const query = `SELECT id, code, title, credits, is_active, created_at
        FROM modules WHERE id = $1 AND is_active = true`
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		return nil, err
	}
	return &module, nil
}

// Create inserts a new module.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	module.IsActive = true
	if module.CreatedAt.IsZero() {
		module.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO modules (code, title, credits, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &module.ID, query,
		module.Code, module.Title, module.Credits, module.IsActive, module.CreatedAt); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// Update modifies an existing module.
func (r *ModuleRepository) Update(ctx context.Context, module *models.Module) error {
	const query = `UPDATE modules SET code = :code, title = :title, credits = :credits
        WHERE id = :id AND is_active = true`
	res, err := r.db.NamedExecContext(ctx, query, module)
	if err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return requireRowAffected(res)
}

// SoftDelete marks a module as inactive.
func (r *ModuleRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE modules SET is_active = false WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete module: %w", err)
	}
	return requireRowAffected(res)
}
