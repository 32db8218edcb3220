package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleAdmin      UserRole = "admin"
	RoleHR         UserRole = "hr"
	RoleStaff      UserRole = "staff"
)

// Administrative reports whether the role may approve or reject movements.
func (r UserRole) Administrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// DirectoryUser is a user record from the remote shared directory.
// The tracker never writes to it.
type DirectoryUser struct {
	UserID       int64    `db:"user_id" json:"user_id"`
	Name         string   `db:"usr_name" json:"name"`
	Email        string   `db:"usr_email" json:"email"`
	DepartmentID *int64   `db:"usr_dept" json:"department_id,omitempty"`
	Role         UserRole `db:"usr_role" json:"role"`
	PasswordHash string   `db:"password_hash" json:"-"`
}

// Department is a reference record from the remote shared directory.
type Department struct {
	DepartmentID int64  `db:"department_id" json:"department_id"`
	Name         string `db:"department" json:"name"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	DepartmentID *int64   `json:"department_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. It is the
// identity value every handler passes into the core services; services
// never read identity from ambient state.
type JWTClaims struct {
	UserID       int64    `json:"user_id"`
	Role         UserRole `json:"role"`
	DepartmentID *int64   `json:"department_id,omitempty"`
	Name         string   `json:"name"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
