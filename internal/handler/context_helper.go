package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-registration-api/internal/middleware"
	"github.com/noah-isme/sis-registration-api/internal/models"
	appErrors "github.com/noah-isme/sis-registration-api/pkg/errors"
	"github.com/noah-isme/sis-registration-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

// ensureActingFor aborts with 403 unless the caller may act on studentID.
func ensureActingFor(c *gin.Context, studentID string) bool {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return false
	}
	if !middleware.CanActFor(claims, studentID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students may only manage their own schedule"))
		return false
	}
	return true
}
