package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// EnrolmentRepository manages student-module registrations.
type EnrolmentRepository struct {
	db *sqlx.DB
}

// NewEnrolmentRepository constructs an EnrolmentRepository.
func NewEnrolmentRepository(db *sqlx.DB) *EnrolmentRepository {
	return &EnrolmentRepository{db: db}
}

// List returns enrolments with joined student and module names.
func (r *EnrolmentRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.EnrolmentDetail, int, error) {
	base := `FROM enrolments e
        JOIN students s ON s.id = e.student_id
        JOIN modules m ON m.id = e.module_id`

	args := []interface{}{}
	conditions := []string{"1=1"}
	if !filter.IncludeInactive {
		conditions = append(conditions, "e.is_active = true")
	}
	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ModuleID != 0 {
		conditions = append(conditions, fmt.Sprintf("e.module_id = $%d", len(args)+1))
		args = append(args, filter.ModuleID)
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page, size := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.module_id, e.enrolled_at, e.is_active, e.created_at,
        s.full_name AS student_name, m.code AS module_code, m.title AS module_title
        %s ORDER BY e.enrolled_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var enrolments []models.EnrolmentDetail
	if err := r.db.SelectContext(ctx, &enrolments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrolments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count enrolments: %w", err)
	}
	return enrolments, total, nil
}

// FindByID fetches an active enrolment by ID.
func (r *EnrolmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrolment, error) {
	const query = `SELECT id, student_id, module_id, enrolled_at, is_active, created_at
        FROM enrolments WHERE id = $1 AND is_active = true`
	var enrolment models.Enrolment
	if err := r.db.GetContext(ctx, &enrolment, query, id); err != nil {
		return nil, err
	}
	return &enrolment, nil
}

// FindActive fetches the active enrolment for a student-module pair.
func (r *EnrolmentRepository) FindActive(ctx context.Context, studentID, moduleID int64) (*models.Enrolment, error) {
	const query = `SELECT id, student_id, module_id, enrolled_at, is_active, created_at
        FROM enrolments WHERE student_id = $1 AND module_id = $2 AND is_active = true`
	var enrolment models.Enrolment
	if err := r.db.GetContext(ctx, &enrolment, query, studentID, moduleID); err != nil {
		return nil, err
	}
	return &enrolment, nil
}

// Create inserts an enrolment.
func (r *EnrolmentRepository) Create(ctx context.Context, enrolment *models.Enrolment) error {
	enrolment.IsActive = true
	now := time.Now().UTC()
	if enrolment.EnrolledAt.IsZero() {
		enrolment.EnrolledAt = now
	}
	if enrolment.CreatedAt.IsZero() {
		enrolment.CreatedAt = now
	}
	const query = `INSERT INTO enrolments (student_id, module_id, enrolled_at, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &enrolment.ID, query,
		enrolment.StudentID, enrolment.ModuleID, enrolment.EnrolledAt, enrolment.IsActive, enrolment.CreatedAt); err != nil {
		return fmt.Errorf("create enrolment: %w", err)
	}
	return nil
}

// SoftDelete marks an enrolment as inactive.
func (r *EnrolmentRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE enrolments SET is_active = false WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete enrolment: %w", err)
	}
	return requireRowAffected(res)
}
