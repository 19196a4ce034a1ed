package jwtverify

import (
	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenClaims is the signed payload: token_type, user_id, jti, iat, exp.
type TokenClaims struct {
	TokenType TokenType `json:"token_type"`
	UserID    string    `json:"user_id"`
	jwt.RegisteredClaims
}

// Claims is what authenticated handlers see.
type Claims struct {
	UserID    string
	JTI       string
	TokenType TokenType
}
