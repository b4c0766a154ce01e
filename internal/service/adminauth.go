package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotAdmin     = errors.New("user is not an admin")
	ErrInvalidToken = errors.New("invalid admin token")
)

// AdminAuthService exchanges a verified Telegram identity for a short-lived
// JWT used on the admin endpoints. There are no passwords; the allowlist of
// Telegram ids is the whole credential.
type AdminAuthService struct {
	secret   []byte
	adminIDs map[int64]bool
	ttl      time.Duration
}

func NewAdminAuthService(secret string, adminIDs []int64, ttl time.Duration) *AdminAuthService {
	ids := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = true
	}
	return &AdminAuthService{
		secret:   []byte(secret),
		adminIDs: ids,
		ttl:      ttl,
	}
}

func (s *AdminAuthService) IsAdmin(userID int64) bool {
	return s.adminIDs[userID]
}

func (s *AdminAuthService) IssueToken(userID int64) (string, error) {
	if !s.adminIDs[userID] {
		return "", ErrNotAdmin
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing admin token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the admin's Telegram id for a valid token.
func (s *AdminAuthService) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !s.adminIDs[userID] {
		return 0, ErrNotAdmin
	}
	return userID, nil
}
