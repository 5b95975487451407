package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type mockAuthRepo struct {
	usersByEmail map[string]models.User
	usersByID    map[int64]models.User
	tokens       map[string]models.RefreshToken
	revokedIDs   []string
	revokedAll   []int64
	lastLogin    []int64
	passwords    map[int64]string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	m.lastLogin = append(m.lastLogin, id)
	return nil
}

func (m *mockAuthRepo) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.tokens == nil {
		m.tokens = make(map[string]models.RefreshToken)
	}
	m.tokens[token.Token] = *token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string) error {
	m.revokedIDs = append(m.revokedIDs, id)
	for value, t := range m.tokens {
		if t.ID == id {
			delete(m.tokens, value)
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if m.passwords == nil {
		m.passwords = make(map[int64]string)
	}
	m.passwords[id] = passwordHash
	return nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthRepo(t *testing.T) *mockAuthRepo {
	user := models.User{
		ID:           1,
		Email:        "staff@example.edu",
		PasswordHash: hashFor(t, "secret-pass"),
		FullName:     "Staff Member",
		Role:         models.RoleStaff,
		IsActive:     true,
	}
	return &mockAuthRepo{
		usersByEmail: map[string]models.User{user.Email: user},
		usersByID:    map[int64]models.User{user.ID: user},
	}
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "uwm-api-test",
	})
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newAuthRepo(t)
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.edu", Password: "secret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleStaff, resp.User.Role)
	assert.Len(t, repo.lastLogin, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(newAuthRepo(t))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.edu", Password: "wrong"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(newAuthRepo(t))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.edu", Password: "secret-pass"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newAuthRepo(t)
	user := repo.usersByEmail["staff@example.edu"]
	user.IsActive = false
	repo.usersByEmail[user.Email] = user
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "secret-pass"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepo(t)
	svc := newTestAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.edu", Password: "secret-pass"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Len(t, repo.revokedIDs, 1)

	// The used token is gone.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}

func TestAuthServiceLogoutOwnershipCheck(t *testing.T) {
	repo := newAuthRepo(t)
	svc := newTestAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.edu", Password: "secret-pass"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, 999)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, 1))
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newAuthRepo(t)
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), 1, ChangePasswordRequest{
		OldPassword: "secret-pass",
		NewPassword: "even-more-secret",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.passwords, int64(1))
	assert.Equal(t, []int64{1}, repo.revokedAll)
}

func TestAuthServiceChangePasswordWrongOld(t *testing.T) {
	svc := newTestAuthService(newAuthRepo(t))

	err := svc.ChangePassword(context.Background(), 1, ChangePasswordRequest{
		OldPassword: "not-the-password",
		NewPassword: "even-more-secret",
	})
	require.Error(t, err)
}

func TestAuthServiceValidateTokenBadSignature(t *testing.T) {
	svc := newTestAuthService(newAuthRepo(t))
	other := newTestAuthService(newAuthRepo(t))
	other.config.AccessTokenSecret = "different-secret"

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@example.edu", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
}
