package service

import (
	"crypto/subtle"
	"examforge/internal/model"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const takerTokenTTL = 24 * time.Hour

// AuthService issues and validates author and taker tokens
type AuthService struct {
	authorUsername string
	authorPassword string
	jwtSecret      []byte
	now            func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(authorUsername, authorPassword, secret string) *AuthService {
	return &AuthService{
		authorUsername: authorUsername,
		authorPassword: authorPassword,
		jwtSecret:      []byte(secret),
		now:            time.Now,
	}
}

// Login validates author credentials and returns a non-expiring author token
func (s *AuthService) Login(username, password string) (*model.TokenResponse, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.authorUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.authorPassword)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	authorID := "author_" + username
	token, err := s.sign(&model.Claims{
		UserID: authorID,
		Role:   model.RoleAuthor,
		Name:   username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	})
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{Token: token, UserID: authorID, Role: model.RoleAuthor}, nil
}

// IssueTakerToken creates a 24h token for a new test taker
func (s *AuthService) IssueTakerToken(name string) (*model.TokenResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	userID := "taker_" + uuid.NewString()
	now := s.now()
	token, err := s.sign(&model.Claims{
		UserID: userID,
		Role:   model.RoleTaker,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(takerTokenTTL)),
		},
	})
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{Token: token, UserID: userID, Role: model.RoleTaker}, nil
}

func (s *AuthService) sign(claims *model.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*model.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
