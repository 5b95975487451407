package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// StressEventRepository manages administratively recorded stress events.
// Survey-derived events are written by SurveyResponseRepository inside the
// detection transaction.
type StressEventRepository struct {
	db *sqlx.DB
}

// NewStressEventRepository constructs a StressEventRepository.
func NewStressEventRepository(db *sqlx.DB) *StressEventRepository {
	return &StressEventRepository{db: db}
}

// List returns stress events matching the provided filters.
func (r *StressEventRepository) List(ctx context.Context, filter models.StressEventFilter) ([]models.StressEvent, int, error) {
	base := "FROM stress_events"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = true")
	}
	if filter.StudentID != 0 {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)+1))
		args = append(args, filter.Source)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page, size := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, module_id, survey_response_id, week_number, stress_level, cause_category, description, source, is_active, created_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var events []models.StressEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list stress events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count stress events: %w", err)
	}
	return events, total, nil
}

// FindByID fetches an active stress event by ID.
func (r *StressEventRepository) FindByID(ctx context.Context, id int64) (*models.StressEvent, error) {
	const query = `SELECT id, student_id, module_id, survey_response_id, week_number, stress_level, cause_category, description, source, is_active, created_at
        FROM stress_events WHERE id = $1 AND is_active = true`
	var event models.StressEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts an administratively recorded stress event.
func (r *StressEventRepository) Create(ctx context.Context, event *models.StressEvent) error {
	event.IsActive = true
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO stress_events (student_id, module_id, survey_response_id, week_number, stress_level, cause_category, description, source, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.GetContext(ctx, &event.ID, query,
		event.StudentID, event.ModuleID, event.SurveyResponseID, event.WeekNumber, event.StressLevel,
		event.CauseCategory, event.Description, event.Source, event.IsActive, event.CreatedAt); err != nil {
		return fmt.Errorf("create stress event: %w", err)
	}
	return nil
}

// SoftDelete marks a stress event as inactive.
func (r *StressEventRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE stress_events SET is_active = false WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete stress event: %w", err)
	}
	return requireRowAffected(res)
}
