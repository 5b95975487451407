package models

import "time"

// Grade is a single assessment result for a student on a module.
type Grade struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  int64     `db:"student_id" json:"student_id"`
	ModuleID   int64     `db:"module_id" json:"module_id"`
	Assessment string    `db:"assessment" json:"assessment"`
	Score      float64   `db:"score" json:"score"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AttendanceRecord captures weekly session attendance for a student on a module.
type AttendanceRecord struct {
	ID               int64     `db:"id" json:"id"`
	StudentID        int64     `db:"student_id" json:"student_id"`
	ModuleID         int64     `db:"module_id" json:"module_id"`
	WeekNumber       int       `db:"week_number" json:"week_number"`
	AttendedSessions int       `db:"attended_sessions" json:"attended_sessions"`
	TotalSessions    int       `db:"total_sessions" json:"total_sessions"`
	AttendanceRate   float64   `db:"attendance_rate" json:"attendance_rate"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// SubmissionRecord tracks an assignment submission outcome.
type SubmissionRecord struct {
	ID          int64      `db:"id" json:"id"`
	StudentID   int64      `db:"student_id" json:"student_id"`
	ModuleID    int64      `db:"module_id" json:"module_id"`
	Assignment  string     `db:"assignment" json:"assignment"`
	Submitted   bool       `db:"submitted" json:"submitted"`
	Late        bool       `db:"late" json:"late"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// RecordFilter is the shared list filter for grades, attendance and submissions.
type RecordFilter struct {
	StudentID       int64
	ModuleID        int64
	IncludeInactive bool
	Page            int
	PageSize        int
}
