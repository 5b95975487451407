package models

import "time"

// Enrolment registers a student on a module. It carries no derived logic; the
// aggregation queries scope by the records themselves, not by enrolment.
type Enrolment struct {
	ID         int64     `db:"id" json:"id"`
	StudentID  int64     `db:"student_id" json:"student_id"`
	ModuleID   int64     `db:"module_id" json:"module_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// EnrolmentDetail enriches Enrolment with the joined student and module names.
type EnrolmentDetail struct {
	Enrolment
	StudentName string `db:"student_name" json:"student_name"`
	ModuleCode  string `db:"module_code" json:"module_code"`
	ModuleTitle string `db:"module_title" json:"module_title"`
}
