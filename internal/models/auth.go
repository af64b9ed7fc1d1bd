package models

import "github.com/golang-jwt/jwt/v5"

// HostClaims represents the JWT payload for host sessions.
type HostClaims struct {
	HostID   string `json:"host_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}
