package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "hospital-api", time.Hour)
	actor := model.Actor{ID: uuid.New(), Role: model.RoleDoctor}

	token, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewJWTService("secret", "hospital-api", time.Hour)
	actor := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	other := NewJWTService("other-secret", "hospital-api", time.Hour)
	forged, err := other.GenerateAccessToken(actor)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.Error(t, err, "wrong signature")

	expired := NewJWTService("secret", "hospital-api", time.Hour).(*jwtService)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateAccessToken(actor)
	require.NoError(t, err)
	_, err = svc.ValidateToken(old)
	assert.Error(t, err, "expired")

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "hospital-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "nurse",
	}
	nurse, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(nurse)
	assert.Error(t, err, "unknown role")

	_, err = svc.GenerateAccessToken(model.Actor{ID: uuid.New()})
	assert.Error(t, err)
}
