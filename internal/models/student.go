package models

import "time"

// Student represents an enrolled student tracked by the wellbeing monitor.
type Student struct {
	ID          int64     `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	Programme   string    `db:"programme" json:"programme"`
	YearOfStudy int       `db:"year_of_study" json:"year_of_study"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StudentFilter captures list filters for students.
type StudentFilter struct {
	Search          string
	Programme       string
	IncludeInactive bool
	Page            int
	PageSize        int
}

// Module represents a taught module students enrol on.
type Module struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Title     string    `db:"title" json:"title"`
	Credits   int       `db:"credits" json:"credits"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ModuleFilter captures list filters for modules.
type ModuleFilter struct {
	Search          string
	IncludeInactive bool
	Page            int
	PageSize        int
}
