package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

// TokenConfig configures host session tokens.
type TokenConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// TokenService issues and validates host bearer tokens. Sign-in itself happens in an
// external identity provider; operators mint tokens through slotctl.
type TokenService struct {
	hosts  hostFinder
	logger *zap.Logger
	cfg    TokenConfig
}

// IssuedToken is a signed token with its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenService constructs the service.
func NewTokenService(hosts hostFinder, logger *zap.Logger, cfg TokenConfig) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	return &TokenService{hosts: hosts, logger: logger, cfg: cfg}
}

// Issue signs a token for an existing host.
func (s *TokenService) Issue(ctx context.Context, hostID string) (*IssuedToken, error) {
	host, err := s.hosts.FindByID(ctx, hostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "host not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load host")
	}
	return s.IssueFor(host)
}

// IssueFor signs a token for host.
func (s *TokenService) IssueFor(host *models.Host) (*IssuedToken, error) {
	if s.cfg.Secret == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "token secret is not configured")
	}
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.cfg.Expiry)
	claims := &models.HostClaims{
		HostID:   host.ID,
		Username: host.Username,
		Email:    host.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   host.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	s.logger.Info("host token issued", zap.String("host_id", host.ID), zap.Time("expires_at", expiresAt))
	return &IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateToken parses and validates a bearer token returning the claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.HostClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.HostClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.HostClaims)
	if !ok || !token.Valid || claims.HostID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
