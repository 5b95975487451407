package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// SubmissionRepository manages assignment submission records.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// List returns submission records matching the provided filters.
func (r *SubmissionRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.SubmissionRecord, int, error) {
	base, args := recordConditions("FROM submission_records", filter)

	page, size := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, module_id, assignment, submitted, late, submitted_at, is_active, created_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var records []models.SubmissionRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submission records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count submission records: %w", err)
	}
	return records, total, nil
}

// FindByID fetches an active submission record by ID.
func (r *SubmissionRepository) FindByID(ctx context.Context, id int64) (*models.SubmissionRecord, error) {
	const query = `SELECT id, student_id, module_id, assignment, submitted, late, submitted_at, is_active, created_at
        FROM submission_records WHERE id = $1 AND is_active = true`
	var record models.SubmissionRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a submission record.
func (r *SubmissionRepository) Create(ctx context.Context, record *models.SubmissionRecord) error {
	record.IsActive = true
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submission_records (student_id, module_id, assignment, submitted, late, submitted_at, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &record.ID, query,
		record.StudentID, record.ModuleID, record.Assignment, record.Submitted, record.Late,
		record.SubmittedAt, record.IsActive, record.CreatedAt); err != nil {
		return fmt.Errorf("create submission record: %w", err)
	}
	return nil
}

// Update modifies an existing submission record.
func (r *SubmissionRepository) Update(ctx context.Context, record *models.SubmissionRecord) error {
	const query = `UPDATE submission_records SET assignment = :assignment, submitted = :submitted,
        late = :late, submitted_at = :submitted_at
        WHERE id = :id AND is_active = true`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update submission record: %w", err)
	}
	return requireRowAffected(res)
}

// SoftDelete marks a submission record as inactive.
func (r *SubmissionRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE submission_records SET is_active = false WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete submission record: %w", err)
	}
	return requireRowAffected(res)
}
