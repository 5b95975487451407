package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// AnalyticsRepository exposes the read-side aggregation queries behind the
// analysis endpoints. Every query recomputes from the live tables; there are
// no materialized views.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// StressTrend returns the per-week mean stress level for one student, weeks
// with at least one active response only, ascending by week.
func (r *AnalyticsRepository) StressTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, error) {
	const query = `SELECT week_number, AVG(stress_level)::float AS value
        FROM survey_responses
        WHERE student_id = $1 AND is_active = true
        GROUP BY week_number
        ORDER BY week_number ASC`
	var points []models.TrendPoint
	if err := r.db.SelectContext(ctx, &points, query, studentID); err != nil {
		return nil, fmt.Errorf("query stress trend: %w", err)
	}
	return points, nil
}

// AttendanceTrend returns the per-week mean attendance rate for one student.
func (r *AnalyticsRepository) AttendanceTrend(ctx context.Context, studentID int64) ([]models.TrendPoint, error) {
	const query = `SELECT week_number, AVG(attendance_rate)::float AS value
        FROM attendance_records
        WHERE student_id = $1 AND is_active = true
        GROUP BY week_number
        ORDER BY week_number ASC`
	var points []models.TrendPoint
	if err := r.db.SelectContext(ctx, &points, query, studentID); err != nil {
		return nil, fmt.Errorf("query attendance trend: %w", err)
	}
	return points, nil
}

// AttendanceTotals sums attended and total sessions across one student's
// active records. The session-weighted percentage is derived by the service.
func (r *AnalyticsRepository) AttendanceTotals(ctx context.Context, studentID int64) (*models.AttendanceTotals, error) {
	const query = `SELECT COALESCE(SUM(attended_sessions), 0) AS attended_sessions,
        COALESCE(SUM(total_sessions), 0) AS total_sessions
        FROM attendance_records
        WHERE student_id = $1 AND is_active = true`
	var totals models.AttendanceTotals
	if err := r.db.GetContext(ctx, &totals, query, studentID); err != nil {
		return nil, fmt.Errorf("query attendance totals: %w", err)
	}
	return &totals, nil
}

// OverallAttendanceTotals sums sessions across all active records of active
// students.
func (r *AnalyticsRepository) OverallAttendanceTotals(ctx context.Context) (*models.AttendanceTotals, error) {
	const query = `SELECT COALESCE(SUM(ar.attended_sessions), 0) AS attended_sessions,
        COALESCE(SUM(ar.total_sessions), 0) AS total_sessions
        FROM attendance_records ar
        JOIN students s ON s.id = ar.student_id AND s.is_active = true
        WHERE ar.is_active = true`
	var totals models.AttendanceTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("query overall attendance totals: %w", err)
	}
	return &totals, nil
}

// StudentMetrics returns one row per active student with their mean stress,
// mean grade and attendance session sums. Averages are NULL when the student
// has no active records of that kind, so the consumers can skip the check
// instead of treating absence as zero.
func (r *AnalyticsRepository) StudentMetrics(ctx context.Context) ([]models.StudentMetricsRow, error) {
	const query = `SELECT s.id AS student_id, s.full_name,
        sv.avg_stress AS average_stress,
        g.avg_grade AS average_grade,
        COALESCE(a.attended, 0) AS attended_sessions,
        COALESCE(a.total, 0) AS total_sessions
        FROM students s
        LEFT JOIN (SELECT student_id, AVG(stress_level)::float AS avg_stress
            FROM survey_responses WHERE is_active = true GROUP BY student_id) sv ON sv.student_id = s.id
        LEFT JOIN (SELECT student_id, AVG(score)::float AS avg_grade
            FROM grades WHERE is_active = true GROUP BY student_id) g ON g.student_id = s.id
        LEFT JOIN (SELECT student_id, SUM(attended_sessions) AS attended, SUM(total_sessions) AS total
            FROM attendance_records WHERE is_active = true GROUP BY student_id) a ON a.student_id = s.id
        WHERE s.is_active = true
        ORDER BY s.full_name ASC`
	var rows []models.StudentMetricsRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query student metrics: %w", err)
	}
	return rows, nil
}

// SubmissionStatusCounts classifies every active submission record.
func (r *AnalyticsRepository) SubmissionStatusCounts(ctx context.Context) (*models.SubmissionStatusCounts, error) {
	const query = `SELECT
        COALESCE(SUM(CASE WHEN submitted AND NOT late THEN 1 ELSE 0 END), 0) AS on_time,
        COALESCE(SUM(CASE WHEN submitted AND late THEN 1 ELSE 0 END), 0) AS late,
        COALESCE(SUM(CASE WHEN NOT submitted THEN 1 ELSE 0 END), 0) AS not_submitted
        FROM submission_records
        WHERE is_active = true`
	var counts models.SubmissionStatusCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("query submission status counts: %w", err)
	}
	return &counts, nil
}

// ModuleStress returns the mean reported stress per active module with at
// least one active response.
func (r *AnalyticsRepository) ModuleStress(ctx context.Context) ([]models.ModuleStressSummary, error) {
	const query = `SELECT m.id AS module_id, m.title AS module_title,
        AVG(sr.stress_level)::float AS average_stress,
        COUNT(*) AS response_count
        FROM survey_responses sr
        JOIN modules m ON m.id = sr.module_id AND m.is_active = true
        WHERE sr.is_active = true
        GROUP BY m.id, m.title
        ORDER BY m.title ASC`
	var summaries []models.ModuleStressSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("query module stress: %w", err)
	}
	return summaries, nil
}

// DashboardCounts returns the scalar rollup for the staff dashboard.
func (r *AnalyticsRepository) DashboardCounts(ctx context.Context) (*models.DashboardSummary, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students WHERE is_active = true) AS active_students,
        (SELECT COUNT(*) FROM modules WHERE is_active = true) AS active_modules,
        (SELECT COUNT(*) FROM alerts WHERE resolved = false AND is_active = true) AS unresolved_alerts,
        (SELECT COUNT(*) FROM users WHERE is_active = true) AS active_users`
	var summary models.DashboardSummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("query dashboard counts: %w", err)
	}
	return &summary, nil
}
