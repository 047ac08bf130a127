package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a customer of the clinic.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"not null"`
	Apellido  string    `gorm:"not null"`
	Email     *string
	Telefono  *string
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cliente) NombreCompleto() string {
	return c.Nombre + " " + c.Apellido
}
