// Command seed provisions a development database with an admin account and a
// small demo cohort so the analysis endpoints return data out of the box.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uwm-api/pkg/config"
	"github.com/noah-isme/uwm-api/pkg/database"
)

func main() {
	var (
		adminEmail    string
		adminPassword string
		demoData      bool
		timeout       time.Duration
	)

	flag.StringVar(&adminEmail, "admin-email", "admin@example.edu", "Email for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "changeme123", "Password for the seeded admin account")
	flag.BoolVar(&demoData, "demo-data", true, "Insert demo students, modules and records")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall seed timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := seedAdmin(ctx, db, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("admin account ready: %s\n", adminEmail)

	if demoData {
		if err := seedDemoData(ctx, db); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
		fmt.Println("demo cohort seeded")
	}
}

func seedAdmin(ctx context.Context, db *sqlx.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, $2, 'Administrator', 'ADMIN')
		ON CONFLICT (email) DO NOTHING`, email, string(hash))
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

type demoStudent struct {
	fullName  string
	email     string
	programme string
	year      int
	// stress by week; week index is position+1
	stress     []int
	attendance [][2]int
	grades     []float64
}

func seedDemoData(ctx context.Context, db *sqlx.DB) error {
	students := []demoStudent{
		{
			fullName: "Amira Hassan", email: "amira.hassan@example.edu", programme: "Computing", year: 2,
			stress:     []int{2, 3, 2, 3},
			attendance: [][2]int{{4, 4}, {3, 4}, {4, 4}, {4, 4}},
			grades:     []float64{68, 72},
		},
		{
			fullName: "Ben Okafor", email: "ben.okafor@example.edu", programme: "Computing", year: 2,
			stress:     []int{4, 4, 3, 5},
			attendance: [][2]int{{2, 4}, {1, 4}, {2, 4}, {2, 4}},
			grades:     []float64{38, 44},
		},
		{
			fullName: "Chloe Davies", email: "chloe.davies@example.edu", programme: "Psychology", year: 1,
			stress:     []int{1, 2, 2, 1},
			attendance: [][2]int{{4, 4}, {4, 4}, {3, 4}, {4, 4}},
			grades:     []float64{81, 77},
		},
	}

	var moduleID int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO modules (code, title, credits)
		VALUES ('CS2001', 'Software Engineering', 20)
		ON CONFLICT (code) DO UPDATE SET title = EXCLUDED.title
		RETURNING id`).Scan(&moduleID)
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}

	for _, s := range students {
		var studentID int64
		err := db.QueryRowContext(ctx, `
			INSERT INTO students (full_name, email, programme, year_of_study)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
			RETURNING id`, s.fullName, s.email, s.programme, s.year).Scan(&studentID)
		if err != nil {
			return fmt.Errorf("insert student %s: %w", s.email, err)
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO enrolments (student_id, module_id)
			VALUES ($1, $2)
			ON CONFLICT (student_id, module_id) WHERE is_active = TRUE DO NOTHING`, studentID, moduleID)
		if err != nil {
			return fmt.Errorf("insert enrolment for %s: %w", s.email, err)
		}

		for week, level := range s.stress {
			_, err = db.ExecContext(ctx, `
				INSERT INTO survey_responses (student_id, module_id, week_number, stress_level, hours_slept)
				VALUES ($1, $2, $3, $4, $5)`, studentID, moduleID, week+1, level, 7.0)
			if err != nil {
				return fmt.Errorf("insert survey for %s: %w", s.email, err)
			}
		}

		for week, sessions := range s.attendance {
			rate := float64(sessions[0]) / float64(sessions[1]) * 100
			_, err = db.ExecContext(ctx, `
				INSERT INTO attendance_records (student_id, module_id, week_number, attended_sessions, total_sessions, attendance_rate)
				VALUES ($1, $2, $3, $4, $5, $6)`, studentID, moduleID, week+1, sessions[0], sessions[1], rate)
			if err != nil {
				return fmt.Errorf("insert attendance for %s: %w", s.email, err)
			}
		}

		for i, score := range s.grades {
			_, err = db.ExecContext(ctx, `
				INSERT INTO grades (student_id, module_id, assessment, score)
				VALUES ($1, $2, $3, $4)`, studentID, moduleID, fmt.Sprintf("Coursework %d", i+1), score)
			if err != nil {
				return fmt.Errorf("insert grade for %s: %w", s.email, err)
			}
		}
	}

	return nil
}
