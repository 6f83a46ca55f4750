package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Credentials struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role"`
}

type UpdateUserRequest struct {
	ID       string  `json:"id" validate:"required,uuid"`
	Name     *string `json:"name" validate:"omitnil,notblank,max=255"`
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Password *string `json:"password"`
	Role     *Role   `json:"role" validate:"omitnil,oneof=admin editor user"`
}

// Session is what a valid token resolves to.
type Session struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
