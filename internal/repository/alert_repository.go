package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// AlertRepository manages staff alerts. Pattern-derived alerts are written by
// SurveyResponseRepository inside the detection transaction.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs an AlertRepository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// List returns alerts matching the provided filters.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	base := "FROM alerts"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = true")
	}
	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Unresolved {
		conditions = append(conditions, "resolved = false")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page, size := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, module_id, week_number, reason, resolved, is_active, created_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list alerts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}
	return alerts, total, nil
}

// FindByID fetches an active alert by ID.
func (r *AlertRepository) FindByID(ctx context.Context, id int64) (*models.Alert, error) {
	const query = `SELECT id, student_id, module_id, week_number, reason, resolved, is_active, created_at
        FROM alerts WHERE id = $1 AND is_active = true`
	var alert models.Alert
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Create inserts an administratively raised alert.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	alert.IsActive = true
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO alerts (student_id, module_id, week_number, reason, resolved, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &alert.ID, query,
		alert.StudentID, alert.ModuleID, alert.WeekNumber, alert.Reason, alert.Resolved, alert.IsActive, alert.CreatedAt); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// Resolve marks an alert as handled by staff.
func (r *AlertRepository) Resolve(ctx context.Context, id int64) error {
	const query = `UPDATE alerts SET resolved = true WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	return requireRowAffected(res)
}

// SoftDelete marks an alert as inactive.
func (r *AlertRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE alerts SET is_active = false WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete alert: %w", err)
	}
	return requireRowAffected(res)
}
