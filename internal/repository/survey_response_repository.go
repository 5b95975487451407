package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// Detector decides which derived records must accompany a survey write. The
// repository supplies the prior-week state it observes inside the transaction
// so the decision and the writes share one consistent snapshot.
type Detector interface {
	Evaluate(resp models.SurveyResponse, prior *models.SurveyResponse, hasOpenAlert bool) models.DetectionResult
}

// SurveyResponseRepository persists survey responses and executes the
// detection multi-write atomically with them.
type SurveyResponseRepository struct {
	db *sqlx.DB
}

// NewSurveyResponseRepository constructs a SurveyResponseRepository.
func NewSurveyResponseRepository(db *sqlx.DB) *SurveyResponseRepository {
	return &SurveyResponseRepository{db: db}
}

// List returns survey responses matching the provided filters.
func (r *SurveyResponseRepository) List(ctx context.Context, filter models.SurveyResponseFilter) ([]models.SurveyResponse, int, error) {
	base := "FROM survey_responses"
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
	if filter.WeekNumber != 0 {
		conditions = append(conditions, fmt.Sprintf("week_number = $%d", len(args)+1))
		args = append(args, filter.WeekNumber)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page, size := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, module_id, week_number, stress_level, hours_slept, mood_comment, is_active, created_at
        %s ORDER BY week_number ASC, created_at ASC LIMIT %d OFFSET %d`, base, size, offset)

	var responses []models.SurveyResponse
	if err := r.db.SelectContext(ctx, &responses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list survey responses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count survey responses: %w", err)
	}
	return responses, total, nil
}

// FindByID fetches an active survey response by ID.
func (r *SurveyResponseRepository) FindByID(ctx context.Context, id int64) (*models.SurveyResponse, error) {
	const query = `SELECT id, student_id, module_id, week_number, stress_level, hours_slept, mood_comment, is_active, created_at
        FROM survey_responses WHERE id = $1 AND is_active = true`
	var resp models.SurveyResponse
	if err := r.db.GetContext(ctx, &resp, query, id); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateWithDetection inserts the response and any derived records the
// detector decides on, all inside one transaction. A failure at any step
// rolls back the response together with its derived rows.
func (r *SurveyResponseRepository) CreateWithDetection(ctx context.Context, resp *models.SurveyResponse, detector Detector) (*models.DetectionResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin survey tx: %w", err)
	}

	resp.IsActive = true
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now().UTC()
	}
	const insert = `INSERT INTO survey_responses (student_id, module_id, week_number, stress_level, hours_slept, mood_comment, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := tx.GetContext(ctx, &resp.ID, insert,
		resp.StudentID, resp.ModuleID, resp.WeekNumber, resp.StressLevel, resp.HoursSlept, resp.MoodComment, resp.IsActive, resp.CreatedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("insert survey response: %w", err)
	}

	result, err := r.runDetection(ctx, tx, *resp, detector)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit survey tx: %w", err)
	}
	return result, nil
}

// UpdateWithDetection rewrites a response's mutable fields and re-runs
// detection in the same transaction. Existing derived records are never
// retracted; detection only adds what is still missing.
func (r *SurveyResponseRepository) UpdateWithDetection(ctx context.Context, resp *models.SurveyResponse, detector Detector) (*models.DetectionResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin survey tx: %w", err)
	}

	const update = `UPDATE survey_responses
        SET module_id = $2, week_number = $3, stress_level = $4, hours_slept = $5, mood_comment = $6
        WHERE id = $1 AND is_active = true`
	res, err := tx.ExecContext(ctx, update,
		resp.ID, resp.ModuleID, resp.WeekNumber, resp.StressLevel, resp.HoursSlept, resp.MoodComment)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("update survey response: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	result, err := r.runDetection(ctx, tx, *resp, detector)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit survey tx: %w", err)
	}
	return result, nil
}

// SoftDelete marks a survey response as inactive. Derived records stay; they
// are retracted only through their own endpoints.
func (r *SurveyResponseRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE survey_responses SET is_active = false WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete survey response: %w", err)
	}
	return requireRowAffected(res)
}

func (r *SurveyResponseRepository) runDetection(ctx context.Context, tx *sqlx.Tx, resp models.SurveyResponse, detector Detector) (*models.DetectionResult, error) {
	prior, err := r.priorWeekResponse(ctx, tx, resp)
	if err != nil {
		return nil, err
	}

	hasOpenAlert, err := r.hasOpenAlert(ctx, tx, resp.StudentID, resp.WeekNumber)
	if err != nil {
		return nil, err
	}

	decision := detector.Evaluate(resp, prior, hasOpenAlert)
	result := &models.DetectionResult{}

	if decision.StressEvent != nil {
		event, err := r.insertStressEvent(ctx, tx, decision.StressEvent)
		if err != nil {
			return nil, err
		}
		result.StressEvent = event
	}

	if decision.Alert != nil {
		alert, err := r.insertAlert(ctx, tx, decision.Alert)
		if err != nil {
			return nil, err
		}
		result.Alert = alert
	}

	return result, nil
}

func (r *SurveyResponseRepository) priorWeekResponse(ctx context.Context, tx *sqlx.Tx, resp models.SurveyResponse) (*models.SurveyResponse, error) {
	if resp.WeekNumber <= 1 {
		return nil, nil
	}
	const query = `SELECT id, student_id, module_id, week_number, stress_level, hours_slept, mood_comment, is_active, created_at
        FROM survey_responses
        WHERE student_id = $1 AND week_number = $2 AND is_active = true AND id <> $3
        ORDER BY created_at DESC LIMIT 1`
	var prior models.SurveyResponse
	if err := tx.GetContext(ctx, &prior, query, resp.StudentID, resp.WeekNumber-1, resp.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load prior week response: %w", err)
	}
	return &prior, nil
}

func (r *SurveyResponseRepository) hasOpenAlert(ctx context.Context, tx *sqlx.Tx, studentID int64, week int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM alerts
        WHERE student_id = $1 AND week_number = $2 AND resolved = false AND is_active = true)`
	var exists bool
	if err := tx.GetContext(ctx, &exists, query, studentID, week); err != nil {
		return false, fmt.Errorf("check open alert: %w", err)
	}
	return exists, nil
}

// insertStressEvent is idempotent per originating response: the unique index
// on survey_response_id absorbs re-detection on update.
func (r *SurveyResponseRepository) insertStressEvent(ctx context.Context, tx *sqlx.Tx, event *models.StressEvent) (*models.StressEvent, error) {
	event.IsActive = true
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO stress_events (student_id, module_id, survey_response_id, week_number, stress_level, cause_category, description, source, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (survey_response_id) WHERE survey_response_id IS NOT NULL DO NOTHING
        RETURNING id`
	err := tx.GetContext(ctx, &event.ID, query,
		event.StudentID, event.ModuleID, event.SurveyResponseID, event.WeekNumber, event.StressLevel,
		event.CauseCategory, event.Description, event.Source, event.IsActive, event.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict: this response already has its event.
			return nil, nil
		}
		return nil, fmt.Errorf("insert stress event: %w", err)
	}
	return event, nil
}

// insertAlert relies on the partial unique index on (student_id, week_number)
// for unresolved active alerts, so two concurrent submissions cannot both
// pass the dedup check and both insert.
func (r *SurveyResponseRepository) insertAlert(ctx context.Context, tx *sqlx.Tx, alert *models.Alert) (*models.Alert, error) {
	alert.IsActive = true
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO alerts (student_id, module_id, week_number, reason, resolved, is_active, created_at)
        VALUES ($1, $2, $3, $4, false, $5, $6)
        ON CONFLICT (student_id, week_number) WHERE resolved = false AND is_active = true DO NOTHING
        RETURNING id`
	err := tx.GetContext(ctx, &alert.ID, query,
		alert.StudentID, alert.ModuleID, alert.WeekNumber, alert.Reason, alert.IsActive, alert.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return alert, nil
}
