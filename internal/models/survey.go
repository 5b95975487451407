package models

import "time"

// StressEventSource distinguishes survey-derived events from system-detected ones.
type StressEventSource string

const (
	StressSourceSurvey StressEventSource = "survey"
	StressSourceSystem StressEventSource = "system"
)

// DefaultCauseCategory is applied to survey-derived events with no explicit cause.
const DefaultCauseCategory = "High self-reported stress"

// SurveyResponse is a weekly wellbeing check-in submitted by a student.
type SurveyResponse struct {
	ID          int64     `db:"id" json:"id"`
	StudentID   int64     `db:"student_id" json:"student_id"`
	ModuleID    *int64    `db:"module_id" json:"module_id,omitempty"`
	WeekNumber  int       `db:"week_number" json:"week_number"`
	StressLevel int       `db:"stress_level" json:"stress_level"`
	HoursSlept  float64   `db:"hours_slept" json:"hours_slept"`
	MoodComment *string   `db:"mood_comment" json:"mood_comment,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StressEvent marks a single high-stress observation derived from a survey or
// recorded administratively.
type StressEvent struct {
	ID               int64             `db:"id" json:"id"`
	StudentID        int64             `db:"student_id" json:"student_id"`
	ModuleID         *int64            `db:"module_id" json:"module_id,omitempty"`
	SurveyResponseID *int64            `db:"survey_response_id" json:"survey_response_id,omitempty"`
	WeekNumber       int               `db:"week_number" json:"week_number"`
	StressLevel      int               `db:"stress_level" json:"stress_level"`
	CauseCategory    string            `db:"cause_category" json:"cause_category"`
	Description      *string           `db:"description" json:"description,omitempty"`
	Source           StressEventSource `db:"source" json:"source"`
	IsActive         bool              `db:"is_active" json:"is_active"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
}

// Alert signals a temporal pattern warranting staff attention. It is retracted
// only by explicit resolution or soft delete, never by re-detection.
type Alert struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  int64     `db:"student_id" json:"student_id"`
	ModuleID   *int64    `db:"module_id" json:"module_id,omitempty"`
	WeekNumber int       `db:"week_number" json:"week_number"`
	Reason     string    `db:"reason" json:"reason"`
	Resolved   bool      `db:"resolved" json:"resolved"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DetectionResult reports the derived records created alongside a survey write.
type DetectionResult struct {
	StressEvent *StressEvent `json:"stress_event,omitempty"`
	Alert       *Alert       `json:"alert,omitempty"`
}

// SurveyResponseFilter captures list filters for survey responses.
type SurveyResponseFilter struct {
	StudentID       int64
	ModuleID        int64
	WeekNumber      int
	IncludeInactive bool
	Page            int
	PageSize        int
}

// StressEventFilter captures list filters for stress events.
type StressEventFilter struct {
	StudentID       int64
	Source          StressEventSource
	IncludeInactive bool
	Page            int
	PageSize        int
}

// AlertFilter captures list filters for alerts.
type AlertFilter struct {
	StudentID       int64
	Unresolved      bool
	IncludeInactive bool
	Page            int
	PageSize        int
}
