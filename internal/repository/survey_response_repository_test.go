package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uwm-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

// thresholdDetector mirrors the production rules closely enough to drive the
// transaction paths without importing the service package.
type thresholdDetector struct {
	threshold int
}

func (d thresholdDetector) Evaluate(resp models.SurveyResponse, prior *models.SurveyResponse, hasOpenAlert bool) models.DetectionResult {
	var result models.DetectionResult
	if resp.StressLevel >= d.threshold {
		id := resp.ID
		result.StressEvent = &models.StressEvent{
			StudentID:        resp.StudentID,
			SurveyResponseID: &id,
			WeekNumber:       resp.WeekNumber,
			StressLevel:      resp.StressLevel,
			CauseCategory:    models.DefaultCauseCategory,
			Source:           models.StressSourceSurvey,
		}
	}
	if resp.StressLevel >= d.threshold && prior != nil && prior.StressLevel >= d.threshold && !hasOpenAlert {
		result.Alert = &models.Alert{
			StudentID:  resp.StudentID,
			WeekNumber: resp.WeekNumber,
			Reason:     "two consecutive weeks",
		}
	}
	return result
}

func surveyColumns() []string {
	return []string{"id", "student_id", "module_id", "week_number", "stress_level", "hours_slept", "mood_comment", "is_active", "created_at"}
}

func TestCreateWithDetectionFullSequence(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO survey_responses").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("FROM survey_responses").
		WithArgs(int64(10), 2, int64(7)).
		WillReturnRows(sqlmock.NewRows(surveyColumns()).
			AddRow(int64(6), int64(10), nil, 2, 5, 7.0, nil, true, time.Now()))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(10), 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO stress_events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectQuery("INSERT INTO alerts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))
	mock.ExpectCommit()

	resp := &models.SurveyResponse{StudentID: 10, WeekNumber: 3, StressLevel: 5, HoursSlept: 6}
	result, err := repo.CreateWithDetection(context.Background(), resp, thresholdDetector{threshold: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	require.NotNil(t, result.StressEvent)
	assert.Equal(t, int64(21), result.StressEvent.ID)
	require.NotNil(t, result.Alert)
	assert.Equal(t, int64(31), result.Alert.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithDetectionNoDerivedWrites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO survey_responses").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))
	// Week 1: no prior-week lookup happens.
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(10), 1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	resp := &models.SurveyResponse{StudentID: 10, WeekNumber: 1, StressLevel: 2}
	result, err := repo.CreateWithDetection(context.Background(), resp, thresholdDetector{threshold: 4})
	require.NoError(t, err)
	assert.Nil(t, result.StressEvent)
	assert.Nil(t, result.Alert)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithDetectionRollsBackOnDerivedFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO survey_responses").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(10), 1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO stress_events").
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	resp := &models.SurveyResponse{StudentID: 10, WeekNumber: 1, StressLevel: 5}
	_, err := repo.CreateWithDetection(context.Background(), resp, thresholdDetector{threshold: 4})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithDetectionEventConflictIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO survey_responses").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(10), 1).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	// DO NOTHING on conflict means no row comes back.
	mock.ExpectQuery("INSERT INTO stress_events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	resp := &models.SurveyResponse{StudentID: 10, WeekNumber: 1, StressLevel: 5}
	result, err := repo.CreateWithDetection(context.Background(), resp, thresholdDetector{threshold: 4})
	require.NoError(t, err)
	assert.Nil(t, result.StressEvent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithDetectionMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE survey_responses").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	resp := &models.SurveyResponse{ID: 404, StudentID: 10, WeekNumber: 1, StressLevel: 2}
	_, err := repo.UpdateWithDetection(context.Background(), resp, thresholdDetector{threshold: 4})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyResponseSoftDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyResponseRepository(db)

	mock.ExpectExec("UPDATE survey_responses SET is_active = false").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyResponseList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSurveyResponseRepository(db)

	mock.ExpectQuery("SELECT id, student_id, module_id, week_number").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(surveyColumns()).
			AddRow(int64(1), int64(10), nil, 1, 2, 7.5, nil, true, time.Now()))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	responses, total, err := repo.List(context.Background(), models.SurveyResponseFilter{StudentID: 10})
	require.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
