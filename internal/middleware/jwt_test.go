package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type staticValidator map[string]*models.HostClaims

func (v staticValidator) ValidateToken(token string) (*models.HostClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newJWTRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", handler, func(c *gin.Context) {
		claims := HostClaims(c)
		if claims == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, claims.HostID)
	})
	return router
}

func TestJWTRequiresBearer(t *testing.T) {
	router := newJWTRouter(JWT(staticValidator{"good": {HostID: "host-1"}}))

	cases := map[string]int{
		"":            http.StatusUnauthorized,
		"Basic abc":   http.StatusUnauthorized,
		"Bearer bad":  http.StatusUnauthorized,
		"Bearer good": http.StatusOK,
		"bearer good": http.StatusOK,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, header)
		if want == http.StatusOK {
			assert.Equal(t, "host-1", rec.Body.String())
		}
	}
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	router := newJWTRouter(OptionalJWT(staticValidator{"good": {HostID: "host-1"}}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "host-1", rec.Body.String())
}
