package models

import "time"

// TrendPoint is one point of a per-student weekly time series.
type TrendPoint struct {
	WeekNumber int     `db:"week_number" json:"week_number"`
	Value      float64 `db:"value" json:"value"`
}

// DistributionBin is one labelled bucket of a population histogram.
type DistributionBin struct {
	Band  string `json:"band"`
	Count int    `json:"count"`
}

// SubmissionStatusCounts is the submission outcome histogram.
type SubmissionStatusCounts struct {
	OnTime       int `db:"on_time" json:"on_time"`
	Late         int `db:"late" json:"late"`
	NotSubmitted int `db:"not_submitted" json:"not_submitted"`
}

// ModuleStressSummary is the mean reported stress for one module.
type ModuleStressSummary struct {
	ModuleID      int64   `db:"module_id" json:"module_id"`
	ModuleTitle   string  `db:"module_title" json:"module_title"`
	AverageStress float64 `db:"average_stress" json:"average_stress"`
	ResponseCount int     `db:"response_count" json:"response_count"`
}

// AttendanceTotals carries the raw numerator/denominator of the weighted
// attendance average so the percentage is computed in exactly one place.
type AttendanceTotals struct {
	AttendedSessions int64 `db:"attended_sessions"`
	TotalSessions    int64 `db:"total_sessions"`
}

// StudentMetricsRow is the per-student rollup consumed by the risk scorer,
// the correlation builder and the grade distribution. Averages are nil when
// the student has no active records of that kind.
type StudentMetricsRow struct {
	StudentID        int64    `db:"student_id" json:"student_id"`
	FullName         string   `db:"full_name" json:"full_name"`
	AverageStress    *float64 `db:"average_stress" json:"average_stress,omitempty"`
	AverageGrade     *float64 `db:"average_grade" json:"average_grade,omitempty"`
	AttendedSessions int64    `db:"attended_sessions" json:"-"`
	TotalSessions    int64    `db:"total_sessions" json:"-"`
}

// RiskStudent is one flagged entry of the high-risk report.
type RiskStudent struct {
	StudentID         int64    `json:"student_id"`
	FullName          string   `json:"full_name"`
	AverageAttendance *float64 `json:"average_attendance,omitempty"`
	AverageGrade      *float64 `json:"average_grade,omitempty"`
	AverageStress     *float64 `json:"average_stress,omitempty"`
	Reasons           []string `json:"reasons"`
}

// RiskThresholds are the three independent cutoffs for risk classification.
type RiskThresholds struct {
	Attendance float64 `json:"attendance"`
	Grade      float64 `json:"grade"`
	Stress     float64 `json:"stress"`
}

// CorrelationPoint pairs a student's mean stress with their mean grade.
type CorrelationPoint struct {
	StudentID     int64   `json:"student_id"`
	FullName      string  `json:"full_name"`
	AverageStress float64 `json:"average_stress"`
	AverageGrade  float64 `json:"average_grade"`
}

// SystemMetrics is an instrumentation snapshot for the admin dashboard.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// DashboardSummary is the scalar count rollup for the staff dashboard.
type DashboardSummary struct {
	ActiveStudents   int `db:"active_students" json:"active_students"`
	ActiveModules    int `db:"active_modules" json:"active_modules"`
	UnresolvedAlerts int `db:"unresolved_alerts" json:"unresolved_alerts"`
	ActiveUsers      int `db:"active_users" json:"active_users"`
}
