package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/middleware"
	"github.com/noah-isme/smart-student-api/internal/models"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// viewerFromContext writes a 401 and returns false when the request carries no identity.
func viewerFromContext(c *gin.Context) (models.Viewer, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Username == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Viewer{}, false
	}
	return claims.Viewer(), true
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
