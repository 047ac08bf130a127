package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de turno.
const (
	TurnoPendiente  = "PENDIENTE"
	TurnoConfirmado = "CONFIRMADO"
	TurnoCompletado = "COMPLETADO"
	TurnoCancelado  = "CANCELADO"
	TurnoNoAsistio  = "NO_ASISTIO"
)

// Estados de pago de turno.
const (
	PagoPendiente = "PENDIENTE"
	PagoConSena   = "CON_SENA"
	PagoPagado    = "PAGADO"
)

// Servicio is a treatment offered by the clinic.
type Servicio struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string          `gorm:"not null"`
	Precio    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Activo    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turno is an appointment. A COMPLETADO turno whose EstadoPago is not PAGADO
// is a pending charge.
type Turno struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ServicioID      uuid.UUID `gorm:"type:uuid;not null"`
	ProfesionalID   uuid.UUID `gorm:"type:uuid;not null;index"`
	FechaHoraInicio time.Time `gorm:"not null;index"`
	Estado          string    `gorm:"type:varchar(20);not null;default:'PENDIENTE'"`
	EstadoPago      string    `gorm:"type:varchar(20);not null;default:'PENDIENTE'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Cliente     *Cliente  `gorm:"foreignKey:ClienteID"`
	Servicio    *Servicio `gorm:"foreignKey:ServicioID"`
	Profesional *Usuario  `gorm:"foreignKey:ProfesionalID"`
}

// Cobrable reports whether the turno can be charged.
func (t *Turno) Cobrable() bool {
	return t.Estado == TurnoCompletado && t.EstadoPago != PagoPagado
}
