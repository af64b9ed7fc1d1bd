package linktoken

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignerGenerateAndParse(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("bk-1", "Ana@Example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "bk-1", claims.BookingID)
	require.Equal(t, "ana@example.com", claims.Email)
	require.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestSignerRejectsTamperedAndExpired(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, _, err := signer.Generate("bk-1", "ana@example.com")
	require.NoError(t, err)

	_, err = signer.Parse(strings.Replace(token, "bk-1", "bk-2", 1))
	require.Error(t, err)

	_, err = NewSigner("other", time.Hour).Parse(token)
	require.Error(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = signer.Parse(token)
	require.Error(t, err)
}

func TestSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSigner("", time.Hour).Generate("bk-1", "a@b.c")
	require.Error(t, err)
}
