package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uwm-api/internal/models"
	"github.com/noah-isme/uwm-api/internal/repository"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type mockSurveyRepo struct {
	responses map[int64]models.SurveyResponse
	prior     *models.SurveyResponse
	openAlert bool
	nextID    int64
	createErr error
	detection *models.DetectionResult
}

func (m *mockSurveyRepo) List(ctx context.Context, filter models.SurveyResponseFilter) ([]models.SurveyResponse, int, error) {
	out := make([]models.SurveyResponse, 0, len(m.responses))
	for _, r := range m.responses {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockSurveyRepo) FindByID(ctx context.Context, id int64) (*models.SurveyResponse, error) {
	if r, ok := m.responses[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSurveyRepo) CreateWithDetection(ctx context.Context, resp *models.SurveyResponse, detector repository.Detector) (*models.DetectionResult, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.responses == nil {
		m.responses = make(map[int64]models.SurveyResponse)
	}
	m.nextID++
	resp.ID = m.nextID
	m.responses[resp.ID] = *resp
	result := detector.Evaluate(*resp, m.prior, m.openAlert)
	m.detection = &result
	return &result, nil
}

func (m *mockSurveyRepo) UpdateWithDetection(ctx context.Context, resp *models.SurveyResponse, detector repository.Detector) (*models.DetectionResult, error) {
	if _, ok := m.responses[resp.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	m.responses[resp.ID] = *resp
	result := detector.Evaluate(*resp, m.prior, m.openAlert)
	return &result, nil
}

func (m *mockSurveyRepo) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := m.responses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.responses, id)
	return nil
}

type mockStudentLookup struct {
	known map[int64]models.Student
}

func (m *mockStudentLookup) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.known[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func newSurveyService(repo *mockSurveyRepo, students *mockStudentLookup) *SurveyService {
	return NewSurveyService(repo, students, NewEventDetector(4), nil, validator.New(), zap.NewNop())
}

func TestSurveyServiceSubmit(t *testing.T) {
	repo := &mockSurveyRepo{}
	students := &mockStudentLookup{known: map[int64]models.Student{10: {ID: 10, FullName: "Amira"}}}
	svc := newSurveyService(repo, students)

	result, err := svc.Submit(context.Background(), SubmitSurveyRequest{
		StudentID:   10,
		WeekNumber:  3,
		StressLevel: 2,
		HoursSlept:  7,
	})
	require.NoError(t, err)
	assert.NotZero(t, result.Response.ID)
	require.NotNil(t, result.Detection)
	assert.Nil(t, result.Detection.StressEvent)
	assert.Nil(t, result.Detection.Alert)
}

func TestSurveyServiceSubmitDetectsStressEvent(t *testing.T) {
	repo := &mockSurveyRepo{}
	students := &mockStudentLookup{known: map[int64]models.Student{10: {ID: 10}}}
	svc := newSurveyService(repo, students)

	result, err := svc.Submit(context.Background(), SubmitSurveyRequest{
		StudentID:   10,
		WeekNumber:  3,
		StressLevel: 5,
		HoursSlept:  6,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Detection.StressEvent)
	assert.Equal(t, result.Response.ID, *result.Detection.StressEvent.SurveyResponseID)
}

func TestSurveyServiceSubmitInvalidStressLevel(t *testing.T) {
	svc := newSurveyService(&mockSurveyRepo{}, &mockStudentLookup{})

	_, err := svc.Submit(context.Background(), SubmitSurveyRequest{
		StudentID:   10,
		WeekNumber:  1,
		StressLevel: 6,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSurveyServiceSubmitUnknownStudent(t *testing.T) {
	svc := newSurveyService(&mockSurveyRepo{}, &mockStudentLookup{})

	_, err := svc.Submit(context.Background(), SubmitSurveyRequest{
		StudentID:   99,
		WeekNumber:  1,
		StressLevel: 3,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSurveyServiceSubmitTransactionFailure(t *testing.T) {
	repo := &mockSurveyRepo{createErr: errors.New("insert failed")}
	students := &mockStudentLookup{known: map[int64]models.Student{10: {ID: 10}}}
	svc := newSurveyService(repo, students)

	_, err := svc.Submit(context.Background(), SubmitSurveyRequest{
		StudentID:   10,
		WeekNumber:  1,
		StressLevel: 3,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrTransaction.Code, appErr.Code)
}

func TestSurveyServiceUpdateCannotMoveStudents(t *testing.T) {
	repo := &mockSurveyRepo{responses: map[int64]models.SurveyResponse{5: {ID: 5, StudentID: 10, WeekNumber: 1, StressLevel: 2}}}
	students := &mockStudentLookup{known: map[int64]models.Student{10: {ID: 10}, 11: {ID: 11}}}
	svc := newSurveyService(repo, students)

	_, err := svc.Update(context.Background(), 5, SubmitSurveyRequest{
		StudentID:   11,
		WeekNumber:  1,
		StressLevel: 2,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSurveyServiceUpdateMissing(t *testing.T) {
	svc := newSurveyService(&mockSurveyRepo{}, &mockStudentLookup{})

	_, err := svc.Update(context.Background(), 404, SubmitSurveyRequest{
		StudentID:   10,
		WeekNumber:  1,
		StressLevel: 2,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSurveyServiceDelete(t *testing.T) {
	repo := &mockSurveyRepo{responses: map[int64]models.SurveyResponse{5: {ID: 5, StudentID: 10}}}
	svc := newSurveyService(repo, &mockStudentLookup{})

	require.NoError(t, svc.Delete(context.Background(), 5))
	require.Error(t, svc.Delete(context.Background(), 5))
}
