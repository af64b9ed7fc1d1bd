package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/slotbook-api/internal/middleware"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
	"github.com/noah-isme/slotbook-api/pkg/response"
)

// hostFromContext returns the signed-in host or writes a 401 and returns nil.
func hostFromContext(c *gin.Context) *models.HostClaims {
	claims := middleware.HostClaims(c)
	if claims == nil || claims.HostID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}
