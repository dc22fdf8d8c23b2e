package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the session token payload.
type JWTClaims struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	jwt.RegisteredClaims
}
