package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/uwm-api/internal/models"
)

func performWithRole(t *testing.T, handler gin.HandlerFunc, claims *models.JWTClaims) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/protected", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	handler(c)
	return rec, c
}

func TestRequireRolesMissingClaims(t *testing.T) {
	rec, c := performWithRole(t, RequireRoles(models.RoleAdmin), nil)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRolesForbidden(t *testing.T) {
	rec, c := performWithRole(t, RequireRoles(models.RoleAdmin), &models.JWTClaims{UserID: 1, Role: models.RoleStaff})
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesAllowed(t *testing.T) {
	_, c := performWithRole(t, RequireRoles(models.RoleStaff, models.RoleAdmin), &models.JWTClaims{UserID: 1, Role: models.RoleStaff})
	assert.False(t, c.IsAborted())
}
