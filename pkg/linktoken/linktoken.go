// Package linktoken signs the self-service cancellation links handed to invitees.
package linktoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signer creates and validates expiring booking tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer with the provided secret and TTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Claims is the data recovered from a valid token.
type Claims struct {
	BookingID string
	Email     string
	ExpiresAt time.Time
}

// Generate returns a token bound to the booking and the invitee e-mail.
func (s *Signer) Generate(bookingID, email string) (string, time.Time, error) {
	if bookingID == "" || email == "" {
		return "", time.Time{}, fmt.Errorf("booking id and email required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	encodedEmail := base64.RawURLEncoding.EncodeToString([]byte(strings.ToLower(email)))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{bookingID, ts, encodedEmail, s.sign(bookingID, ts, encodedEmail)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded claims.
func (s *Signer) Parse(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Claims{}, fmt.Errorf("invalid token format")
	}
	bookingID, ts, encodedEmail, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(bookingID, ts, encodedEmail)), []byte(signature)) {
		return Claims{}, fmt.Errorf("invalid token signature")
	}
	rawEmail, err := base64.RawURLEncoding.DecodeString(encodedEmail)
	if err != nil {
		return Claims{}, fmt.Errorf("decode email: %w", err)
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return Claims{}, fmt.Errorf("token expired")
	}
	return Claims{BookingID: bookingID, Email: string(rawEmail), ExpiresAt: expiresAt}, nil
}

func (s *Signer) sign(bookingID, ts, encodedEmail string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(bookingID + "|" + ts + "|" + encodedEmail))
	return hex.EncodeToString(mac.Sum(nil))
}
