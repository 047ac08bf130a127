package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles de operador.
const (
	RolAdmin    = "ADMIN"
	RolManager  = "MANAGER"
	RolEmpleado = "EMPLEADO"
)

// Usuario is an operator of the clinic: the owner of transactions and
// cash closings registered under their session.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	Apellido     string
	Email        *string
	PasswordHash string `gorm:"not null"`
	Rol          string `gorm:"type:varchar(20);not null;default:'EMPLEADO'"`
	Activo       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NombreCompleto joins nombre and apellido.
func (u *Usuario) NombreCompleto() string {
	if u.Apellido == "" {
		return u.Nombre
	}
	return u.Nombre + " " + u.Apellido
}

// PuedeVerTodo is true for roles that act on behalf of every operator.
func (u *Usuario) PuedeVerTodo() bool {
	return u.Rol == RolAdmin || u.Rol == RolManager
}
