package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendfleet/backend/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "vendfleet-test",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func signRaw(t *testing.T, claims *Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	fixed := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	input := TokenInput{CompanyID: uuid.New(), UserID: uuid.New(), Username: "driver"}
	token, expiresAt, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(15*time.Minute), expiresAt)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	companyID, err := claims.CompanyUUID()
	require.NoError(t, err)
	assert.Equal(t, input.CompanyID, companyID)
	userID, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userID)
	assert.Equal(t, "driver", claims.Username)
	assert.Equal(t, "vendfleet-test", claims.Issuer)
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestJWTService()
	issued := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	token, _, err := svc.GenerateAccessToken(TokenInput{CompanyID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_NotYetValid(t *testing.T) {
	svc := newTestJWTService()
	issued := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	token, _, err := svc.GenerateAccessToken(TokenInput{CompanyID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(-time.Hour) }
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestJWTService()
	now := time.Now()
	valid := func() *Claims {
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "vendfleet-test",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			CompanyID: uuid.NewString(),
			UserID:    uuid.NewString(),
		}
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not-a-token" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return signRaw(t, valid(), jwt.SigningMethodHS256, []byte("another-secret-key-of-32-characters"))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				return signRaw(t, valid(), jwt.SigningMethodHS512, []byte(testSecret))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				c := valid()
				c.Issuer = "someone-else"
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "missing company",
			token: func(t *testing.T) string {
				c := valid()
				c.CompanyID = ""
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrMissingCompanyID,
		},
		{
			name: "missing user",
			token: func(t *testing.T) string {
				c := valid()
				c.UserID = ""
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrMissingUserID,
		},
		{
			name: "malformed company",
			token: func(t *testing.T) string {
				c := valid()
				c.CompanyID = "acme"
				return signRaw(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrInvalidClaims,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
