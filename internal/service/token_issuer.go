package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hospital-api/internal/model"
)

type tokenClaims struct {
	UserID    int64    `json:"userId"`
	StaffID   int64    `json:"staffId"`
	Username  string   `json:"username"`
	FullName  string   `json:"fullName"`
	StaffRole string   `json:"staffRole"`
	UserRoles []string `json:"userRoles"`
	SessionID string   `json:"sessionId"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    clock
}

func NewTokenIssuer(secret string, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: systemClock}
}

func (t *TokenIssuer) Issue(claims model.AuthClaims) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:    claims.UserID,
		StaffID:   claims.StaffID,
		Username:  claims.Username,
		FullName:  claims.FullName,
		StaffRole: claims.StaffRole.String(),
		UserRoles: claims.UserRoles,
		SessionID: claims.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(claims.UserID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry. Every failure is
// reported as model.ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (model.AuthClaims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid || claims.SessionID == "" || claims.UserID == 0 {
		return model.AuthClaims{}, model.ErrInvalidToken
	}

	return model.AuthClaims{
		UserID:    claims.UserID,
		StaffID:   claims.StaffID,
		Username:  claims.Username,
		FullName:  claims.FullName,
		StaffRole: model.StaffRole(claims.StaffRole),
		UserRoles: claims.UserRoles,
		SessionID: claims.SessionID,
	}, nil
}
