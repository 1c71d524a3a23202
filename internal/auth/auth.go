package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtIssuer   = "miny-api"
	jwtAudience = "miny-hosts"

	RoleHost  = "host"
	RoleAdmin = "admin"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
	ErrNoCaller         = errors.New("token has no host")
)

// Claims carry a Caller through a signed token. Subject repeats the user ID.
type Claims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *Claims) Caller() Caller {
	return Caller{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenPair is handed to a host after register and login.
type TokenPair struct {
	Access  string
	Refresh string
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hashedPassword, plainPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword)) == nil
}

func IssueTokens(caller Caller, secret string) (TokenPair, error) {
	access, err := IssueAccessToken(caller, secret)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := IssueRefreshToken(caller, secret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

func IssueAccessToken(caller Caller, secret string) (string, error) {
	return sign(caller, tokenTypeAccess, secret, AccessTokenTTL)
}

func IssueRefreshToken(caller Caller, secret string) (string, error) {
	return sign(caller, tokenTypeRefresh, secret, RefreshTokenTTL)
}

// ParseAccessToken returns the caller of a valid access token. Refresh tokens are rejected.
func ParseAccessToken(token, secret string) (Caller, error) {
	return parse(token, secret, tokenTypeAccess)
}

func ParseRefreshToken(token, secret string) (Caller, error) {
	return parse(token, secret, tokenTypeRefresh)
}

func sign(caller Caller, tokenType, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}
	if caller.UserID == 0 {
		return "", ErrNoCaller
	}

	now := time.Now()
	claims := &Claims{
		UserID:    caller.UserID,
		Email:     caller.Email,
		Role:      caller.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   strconv.Itoa(caller.UserID),
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parse(tokenString, secret, wantType string) (Caller, error) {
	if secret == "" {
		return Caller{}, ErrEmptyJWTSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Caller{}, ErrTokenExpired
		}
		return Caller{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Caller{}, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return Caller{}, ErrInvalidTokenType
	}
	if claims.UserID == 0 || claims.Subject != strconv.Itoa(claims.UserID) {
		return Caller{}, ErrNoCaller
	}

	return claims.Caller(), nil
}
