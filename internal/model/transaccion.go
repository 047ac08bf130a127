package model

import (
	"time"

	"micaja/internal/caja"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaccion is an immutable monetary event. Corrections are made with a
// new entry, never by editing or deleting an existing one.
type Transaccion struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo        caja.TipoTransaccion `gorm:"type:varchar(20);not null;index"`
	Monto       decimal.Decimal      `gorm:"type:decimal(10,2);not null"`
	MetodoPago  caja.MetodoPago      `gorm:"type:varchar(20);not null;default:'EFECTIVO'"`
	Fecha       time.Time            `gorm:"type:date;not null;index:idx_transacciones_registrador_fecha,priority:2"`
	Descripcion string               `gorm:"type:varchar(300);not null"`
	Notas       string
	ClienteID   *uuid.UUID `gorm:"type:uuid;index"`
	TurnoID     *uuid.UUID `gorm:"type:uuid;index"`
	ProductoID  *uuid.UUID `gorm:"type:uuid"`
	// RegistradoPorID is the operator whose daily summary includes this row.
	RegistradoPorID uuid.UUID `gorm:"type:uuid;not null;index:idx_transacciones_registrador_fecha,priority:1"`
	IPAddress       string    `gorm:"type:varchar(45)"`
	UserAgent       string
	CreatedAt       time.Time

	Cliente       *Cliente  `gorm:"foreignKey:ClienteID"`
	Turno         *Turno    `gorm:"foreignKey:TurnoID"`
	Producto      *Producto `gorm:"foreignKey:ProductoID"`
	RegistradoPor *Usuario  `gorm:"foreignKey:RegistradoPorID"`
}

// TableName keeps the Spanish plural.
func (Transaccion) TableName() string { return "transacciones" }

// Concepto describes what was charged: the service or product name, or the
// free-text description.
func (t *Transaccion) Concepto() string {
	switch {
	case t.Turno != nil && t.Turno.Servicio != nil:
		return t.Turno.Servicio.Nombre
	case t.Producto != nil:
		return t.Producto.Nombre
	default:
		return t.Descripcion
	}
}
