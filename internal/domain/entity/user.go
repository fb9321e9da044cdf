package entity

import "time"

// Roles válidos para User (coinciden con los claims del JWT).
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Estados de User.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User cuenta con acceso al panel de administración o al checkout autenticado.
type User struct {
	ID           string
	Email        string // único, en minúsculas
	PasswordHash string // bcrypt, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, customer
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive informa si la cuenta puede iniciar sesión.
func (u *User) IsActive() bool { return u.Status == UserStatusActive }
