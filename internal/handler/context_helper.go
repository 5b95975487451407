package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uwm-api/internal/middleware"
	"github.com/noah-isme/uwm-api/internal/models"
	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id parameter")
	}
	return id, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func queryInt64(c *gin.Context, key string) int64 {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return v
		}
	}
	return 0
}

func queryBool(c *gin.Context, key string) bool {
	return c.Query(key) == "true"
}

func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
