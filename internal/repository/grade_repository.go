package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// GradeRepository manages assessment results.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grades matching the provided filters.
func (r *GradeRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.Grade, int, error) {
	base, args := recordConditions("FROM grades", filter)

	page, size := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, module_id, assessment, score, is_active, created_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// FindByID fetches an active grade by ID.
func (r *GradeRepository) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	const query = `SELECT id, student_id, module_id, assessment, score, is_active, created_at
        FROM grades WHERE id = $1 AND is_active = true`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	grade.IsActive = true
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (student_id, module_id, assessment, score, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &grade.ID, query,
		grade.StudentID, grade.ModuleID, grade.Assessment, grade.Score, grade.IsActive, grade.CreatedAt); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update modifies an existing grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	const query = `UPDATE grades SET assessment = :assessment, score = :score
        WHERE id = :id AND is_active = true`
	res, err := r.db.NamedExecContext(ctx, query, grade)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return requireRowAffected(res)
}

// SoftDelete marks a grade as inactive.
func (r *GradeRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE grades SET is_active = false WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete grade: %w", err)
	}
	return requireRowAffected(res)
}

func recordConditions(base string, filter models.RecordFilter) (string, []interface{}) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = true")
	}
	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ModuleID != 0 {
		conditions = append(conditions, fmt.Sprintf("module_id = $%d", len(args)+1))
		args = append(args, filter.ModuleID)
	}

	return fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND ")), args
}
