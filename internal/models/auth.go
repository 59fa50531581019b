package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest creates a user account together with its company tenant.
type RegisterRequest struct {
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=8"`
	CompanyName string      `json:"company_name" validate:"required"`
	Industry    Industry    `json:"industry" validate:"required,oneof=TECHNOLOGY MANUFACTURING RETAIL HEALTHCARE EDUCATION HOSPITALITY FINANCE LOGISTICS FOOD_BEVERAGE CONSTRUCTION ENERGY AGRICULTURE OTHER"`
	Size        CompanySize `json:"size" validate:"required,oneof=SMALL MEDIUM LARGE ENTERPRISE"`
	Description *string     `json:"description"`
	Website     *string     `json:"website"`
	Address     *string     `json:"address"`
	Phone       *string     `json:"phone"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse returns the issued token and account identifiers.
type AuthResponse struct {
	Token       string   `json:"token"`
	Type        string   `json:"type"`
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`
	CompanyID   string   `json:"company_id"`
	CompanyName string   `json:"company_name"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	CompanyID string   `json:"company_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	jwt.RegisteredClaims
}
