package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/cryptofolio/api/internal/apperr"
	"github.com/cryptofolio/api/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

// Service handles password hashing and token issuance.
type Service struct {
	DB         *db.DB
	secret     []byte
	bcryptCost int
}

// Claims is the principal carried by a verified token. IsAdmin is never set
// by login or registration; it exists for operator-minted tokens.
type Claims struct {
	Username string
	IsAdmin  bool
}

// NewService creates an auth service signing tokens with secret and hashing
// passwords with the given bcrypt cost.
func NewService(database *db.DB, secret string, bcryptCost int) *Service {
	return &Service{DB: database, secret: []byte(secret), bcryptCost: bcryptCost}
}

// HashPassword hashes a plain-text password with the configured work factor.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate verifies a username/password pair and returns a signed token.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	user, err := s.DB.GetUser(ctx, username)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return "", apperr.New(apperr.Unauthorized, "invalid username/password")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperr.New(apperr.Unauthorized, "invalid username/password")
	}

	return s.CreateToken(user.Username)
}

// CreateToken signs a token identifying the given user.
func (s *Service) CreateToken(username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(tokenLifetime).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and extracts its claims.
func (s *Service) ParseToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, apperr.New(apperr.Unauthorized, "invalid or expired token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, apperr.New(apperr.Unauthorized, "invalid token claims")
	}

	username, ok := mapClaims["username"].(string)
	if !ok || username == "" {
		return Claims{}, apperr.New(apperr.Unauthorized, "invalid token payload")
	}

	isAdmin, _ := mapClaims["is_admin"].(bool)
	return Claims{Username: username, IsAdmin: isAdmin}, nil
}
