package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendfleet/backend/internal/infrastructure/auth"
	"github.com/vendfleet/backend/internal/infrastructure/config"
	"github.com/vendfleet/backend/internal/infrastructure/logger"
	"github.com/vendfleet/backend/internal/interfaces/http/dto"
)

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "middleware-test-secret-at-least-32-bytes",
		Issuer:                "vendfleet-test",
		AccessTokenExpiration: expiration,
	})
}

func jwtRouter(svc *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(JWTAuth(svc, nil))
	router.GET("/whoami", func(c *gin.Context) {
		companyID, _ := GetCompanyID(c)
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{
			"company":     companyID.String(),
			"user":        userID.String(),
			"username":    GetJWTClaims(c).Username,
			"log_company": logger.GetCompanyID(c.Request.Context()),
		})
	})
	return router
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	companyID, userID := uuid.New(), uuid.New()
	token, _, err := svc.GenerateAccessToken(auth.TokenInput{CompanyID: companyID, UserID: userID, Username: "route-driver"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	jwtRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, companyID.String(), body["company"])
	assert.Equal(t, userID.String(), body["user"])
	assert.Equal(t, "route-driver", body["username"])
	assert.Equal(t, companyID.String(), body["log_company"])
}

func TestJWTAuth_Rejects(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	expired := newTestJWTService(-time.Minute)
	expiredToken, _, err := expired.GenerateAccessToken(auth.TokenInput{CompanyID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", dto.ErrCodeUnauthorized},
		{"empty bearer", BearerPrefix + "  ", dto.ErrCodeUnauthorized},
		{"garbage", BearerPrefix + "not-a-token", dto.ErrCodeUnauthorized},
		{"expired", BearerPrefix + expiredToken, dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			req.Header.Set(RequestIDHeader, "req-auth")
			w := httptest.NewRecorder()
			jwtRouter(svc).ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-auth", resp.Error.RequestID)
		})
	}
}

func TestGetCompanyID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetCompanyID(c)
	assert.False(t, ok)
	assert.Nil(t, GetJWTClaims(c))

	c.Set(JWTCompanyIDKey, uuid.Nil)
	_, ok = GetCompanyID(c)
	assert.False(t, ok)
}
