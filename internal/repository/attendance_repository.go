package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uwm-api/internal/models"
)

// AttendanceRepository manages weekly attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance records matching the provided filters.
func (r *AttendanceRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.AttendanceRecord, int, error) {
	base, args := recordConditions("FROM attendance_records", filter)

	page, size := clampPage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, module_id, week_number, attended_sessions, total_sessions, attendance_rate, is_active, created_at
        %s ORDER BY week_number ASC, created_at ASC LIMIT %d OFFSET %d`, base, size, offset)

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}
	return records, total, nil
}

// FindByID fetches an active attendance record by ID.
func (r *AttendanceRepository) FindByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	const query = `SELECT id, student_id, module_id, week_number, attended_sessions, total_sessions, attendance_rate, is_active, created_at
        FROM attendance_records WHERE id = $1 AND is_active = true`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts an attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	record.IsActive = true
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_records (student_id, module_id, week_number, attended_sessions, total_sessions, attendance_rate, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &record.ID, query,
		record.StudentID, record.ModuleID, record.WeekNumber, record.AttendedSessions, record.TotalSessions,
		record.AttendanceRate, record.IsActive, record.CreatedAt); err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}
	return nil
}

// Update modifies an existing attendance record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	const query = `UPDATE attendance_records SET week_number = :week_number, attended_sessions = :attended_sessions,
        total_sessions = :total_sessions, attendance_rate = :attendance_rate
        WHERE id = :id AND is_active = true`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	return requireRowAffected(res)
}

// SoftDelete marks an attendance record as inactive.
func (r *AttendanceRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE attendance_records SET is_active = false WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete attendance record: %w", err)
	}
	return requireRowAffected(res)
}
