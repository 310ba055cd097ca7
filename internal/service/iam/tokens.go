package iam

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tumcps/tupli/pkg/schema"
)

const (
	tokenTypeBearer = "bearer"

	claimAccess  = "access"
	claimRefresh = "refresh"
)

// tokenClaims carries the token class alongside the registered claims so
// a refresh token can never pass as an access token.
type tokenClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

// Login verifies credentials and issues a fresh token pair. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *iamService) Login(ctx context.Context, username, password string) (schema.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if schema.IsNotFound(err) {
			return schema.TokenPair{}, schema.Unauthorizedf("Incorrect username or password")
		}
		return schema.TokenPair{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return schema.TokenPair{}, schema.Unauthorizedf("Incorrect username or password")
	}

	access, err := s.signToken(username, claimAccess, s.accessTokenTTL)
	if err != nil {
		return schema.TokenPair{}, err
	}
	refresh, err := s.signToken(username, claimRefresh, s.refreshTokenTTL)
	if err != nil {
		return schema.TokenPair{}, err
	}

	return schema.TokenPair{
		AccessToken:  schema.Token{Token: access, TokenType: tokenTypeBearer},
		RefreshToken: schema.Token{Token: refresh, TokenType: tokenTypeBearer},
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// subject must still exist, so deleted users lose access at the refresh
// boundary.
func (s *iamService) Refresh(ctx context.Context, refreshToken string) (schema.Token, error) {
	username, err := s.verifyToken(refreshToken, claimRefresh)
	if err != nil {
		return schema.Token{}, err
	}
	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		if schema.IsNotFound(err) {
			return schema.Token{}, schema.Unauthorizedf("Invalid token")
		}
		return schema.Token{}, err
	}

	access, err := s.signToken(username, claimAccess, s.accessTokenTTL)
	if err != nil {
		return schema.Token{}, err
	}
	return schema.Token{Token: access, TokenType: tokenTypeBearer}, nil
}

// Authenticate verifies an access token and resolves the caller.
func (s *iamService) Authenticate(ctx context.Context, accessToken string) (*Caller, error) {
	username, err := s.verifyToken(accessToken, claimAccess)
	if err != nil {
		return nil, err
	}
	caller, err := s.resolveCaller(ctx, username)
	if err != nil {
		if schema.IsNotFound(err) {
			return nil, schema.Unauthorizedf("Invalid token")
		}
		return nil, err
	}
	return caller, nil
}

func (s *iamService) signToken(username, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", schema.StorageErr("sign token", err)
	}
	return signed, nil
}

// verifyToken parses and validates a token, enforcing HS256 and the
// expected token class, and returns the subject.
func (s *iamService) verifyToken(tokenString, wantType string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", schema.Unauthorizedf("Invalid token")
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.TokenType != wantType || claims.Subject == "" {
		return "", schema.Unauthorizedf("Invalid token")
	}
	return claims.Subject, nil
}
