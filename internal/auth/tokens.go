package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/videotube/backend/internal/models"
)

var (
	// ErrTokenInvalid indicates the token is malformed or its signature does not verify.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims carries the identity claims embedded in access tokens.
// The user id travels in the registered Subject claim.
type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies the two token kinds. Access and refresh
// tokens are signed with distinct secrets and carry distinct lifetimes.
type TokenIssuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with the provided secrets and TTLs.
func NewTokenIssuer(accessKey, refreshKey string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessKey == "" || refreshKey == "" {
		panic("auth: token secrets must not be empty")
	}
	return &TokenIssuer{
		accessKey:  []byte(accessKey),
		refreshKey: []byte(refreshKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IssuePair creates an access and refresh token for the provided user. The
// pair is stateless; persisting the refresh token is the caller's concern.
func (i *TokenIssuer) IssuePair(user models.User) (models.TokenPair, error) {
	if user.ID == "" {
		return models.TokenPair{}, errors.New("user id must be provided")
	}

	now := i.now()
	accessExpiry := now.Add(i.accessTTL)
	refreshExpiry := now.Add(i.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})

	accessToken, err := access.SignedString(i.accessKey)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
		},
	})

	refreshToken, err := refresh.SignedString(i.refreshKey)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// VerifyAccess validates an access token's signature and expiry and returns
// its identity claims.
func (i *TokenIssuer) VerifyAccess(token string) (AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(token, claims, i.accessKey); err != nil {
		return AccessClaims{}, err
	}
	return *claims, nil
}

// VerifyRefresh validates a refresh token and returns the user id it was
// issued to.
func (i *TokenIssuer) VerifyRefresh(token string) (string, error) {
	claims := &refreshClaims{}
	if err := i.parse(token, claims, i.refreshKey); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (i *TokenIssuer) parse(token string, claims jwt.Claims, key []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
