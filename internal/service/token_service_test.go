package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	host := &models.Host{ID: "host-1", Username: "ana", Email: "ana@example.com"}
	svc := NewTokenService(stubHosts{host: host}, nil, TokenConfig{Secret: "secret", Issuer: "slotbook-api", Expiry: time.Hour})

	issued, err := svc.Issue(context.Background(), "host-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "host-1", claims.HostID)
	assert.Equal(t, "ana", claims.Username)
}

func TestTokenRejectsForeignTokens(t *testing.T) {
	host := &models.Host{ID: "host-1", Username: "ana"}
	svc := NewTokenService(stubHosts{host: host}, nil, TokenConfig{Secret: "secret", Issuer: "slotbook-api"})

	other := NewTokenService(stubHosts{host: host}, nil, TokenConfig{Secret: "other", Issuer: "slotbook-api"})
	foreign, err := other.IssueFor(host)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign.Token)
	assert.True(t, appErrors.IsUnauthorized(err))

	wrongIssuer := NewTokenService(stubHosts{host: host}, nil, TokenConfig{Secret: "secret", Issuer: "someone-else"})
	stray, err := wrongIssuer.IssueFor(host)
	require.NoError(t, err)
	_, err = svc.ValidateToken(stray.Token)
	assert.True(t, appErrors.IsUnauthorized(err))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.HostClaims{
		HostID: "host-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "slotbook-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.True(t, appErrors.IsUnauthorized(err))

	_, err = svc.ValidateToken("garbage")
	assert.True(t, appErrors.IsUnauthorized(err))
}

func TestIssueUnknownHost(t *testing.T) {
	svc := NewTokenService(stubHosts{}, nil, TokenConfig{Secret: "secret"})
	_, err := svc.Issue(context.Background(), "nobody")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
