package model

import "github.com/golang-jwt/jwt/v5"

type Role string

const (
	RoleAuthor Role = "author"
	RoleTaker  Role = "taker"
)

// Claims are the JWT claims for both authors and test takers
type Claims struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for author login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TakerRequest is the request body for a taker token
type TakerRequest struct {
	Name string `json:"name"`
}

// TokenResponse is returned after successful authentication
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}
