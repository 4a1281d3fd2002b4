package dashboard

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/clinicpro/dashboard-service/pkg/types"
)

func TestValidateJWT_ValidToken(t *testing.T) {
	validator := NewTokenValidator(testSecret)

	claims, err := validator.ValidateJWT(signToken(t, "doc-7", types.RoleDoctor))

	assert.NoError(t, err)
	assert.Equal(t, "doc-7", claims.UserID)
	assert.Equal(t, types.RoleDoctor, claims.Role)
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	validator := NewTokenValidator("another-secret")

	_, err := validator.ValidateJWT(signToken(t, "doc-7", types.RoleDoctor))
	assert.Error(t, err)
}

func TestValidateJWT_ExpiredToken(t *testing.T) {
	expired := &JWTClaims{
		UserID: "doc-7",
		Role:   string(types.RoleDoctor),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(testSecret))
	assert.NoError(t, err)

	_, err = NewTokenValidator(testSecret).ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateJWT_Garbage(t *testing.T) {
	_, err := NewTokenValidator(testSecret).ValidateJWT("not-a-token")
	assert.Error(t, err)
}
