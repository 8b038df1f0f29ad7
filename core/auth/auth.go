package auth

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ComputeDigest returns the hex MD5 digest of password+salt, the scheme used
// by the user credential file.
func ComputeDigest(password, salt string) string {
	sum := md5.Sum([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// VerifyDigest checks a password against a stored salted digest using a
// constant-time comparison.
func VerifyDigest(password, salt, digest string) bool {
	calc := ComputeDigest(password, salt)
	return subtle.ConstantTimeCompare([]byte(calc), []byte(digest)) == 1
}

// SessionClaims are the claims carried by a session bearer token.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateSessionToken mints a bearer token bound to a streaming session.
// Tokens carry no expiry; a session lives until it is explicitly closed.
func GenerateSessionToken(sessionID, username, secret string) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		Username:  username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates a session bearer token and returns its claims.
func ParseSessionToken(tokenString, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
