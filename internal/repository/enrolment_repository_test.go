package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uwm-api/internal/models"
)

func enrolmentDetailColumns() []string {
	return []string{"id", "student_id", "module_id", "enrolled_at", "is_active", "created_at",
		"student_name", "module_code", "module_title"}
}

func TestEnrolmentRepositoryListJoinsNames(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrolmentRepository(db)

	mock.ExpectQuery("FROM enrolments e").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(enrolmentDetailColumns()).
			AddRow(int64(1), int64(10), int64(2), time.Now(), true, time.Now(),
				"Amira Hassan", "CS2001", "Software Engineering"))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	enrolments, total, err := repo.List(context.Background(), models.RecordFilter{StudentID: 10})
	require.NoError(t, err)
	require.Len(t, enrolments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "CS2001", enrolments[0].ModuleCode)
	assert.Equal(t, "Amira Hassan", enrolments[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrolmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrolmentRepository(db)

	mock.ExpectQuery("INSERT INTO enrolments").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	enrolment := &models.Enrolment{StudentID: 10, ModuleID: 2}
	require.NoError(t, repo.Create(context.Background(), enrolment))
	assert.Equal(t, int64(5), enrolment.ID)
	assert.True(t, enrolment.IsActive)
	assert.False(t, enrolment.EnrolledAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrolmentRepositoryFindActiveMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrolmentRepository(db)

	mock.ExpectQuery("FROM enrolments WHERE student_id").
		WithArgs(int64(10), int64(2)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), 10, 2)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrolmentRepositorySoftDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrolmentRepository(db)

	mock.ExpectExec("UPDATE enrolments SET is_active = false").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), 404)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
