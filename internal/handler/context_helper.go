package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lumalearn/analytics-api/internal/middleware"
	"github.com/lumalearn/analytics-api/internal/models"
)

// claimsFromContext returns the authenticated caller's claims, or nil when
// the request skipped the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, _ := c.Get(middleware.ContextUserKey)
	claims, _ := value.(*models.JWTClaims)
	return claims
}
