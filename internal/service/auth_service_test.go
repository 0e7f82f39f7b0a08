package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
)

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Minute, Issuer: "hr-onboarding-api"})

	token, expiresAt, err := svc.IssueToken(&models.User{ID: "hr-1", Role: models.RoleHR, Email: "hr@example.com", Name: "Priya"})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "hr-1", claims.UserID)
	assert.Equal(t, models.RoleHR, claims.Role)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	issuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "hr-onboarding-api"})
	token, _, err := issuer.IssueToken(&models.User{ID: "emp-1", Role: models.RoleEmployee})
	require.NoError(t, err)

	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "hr-onboarding-api"})
	_, err = svc.ValidateToken(token)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	_, err = svc.ValidateToken("not-a-token")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	unknownRole, _, err := svc.IssueToken(&models.User{ID: "x", Role: "admin"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(unknownRole)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
