package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovimientoSalida  = "SALIDA"
	MovimientoEntrada = "ENTRADA"
	MovimientoAjuste  = "AJUSTE"
)

// MovimientoStock registra cada cambio de stock en un producto.
// Se crea automáticamente al vender.
type MovimientoStock struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo           string          `gorm:"not null"` // "SALIDA" | "ENTRADA" | "AJUSTE"
	Cantidad       int             `gorm:"not null"`
	StockAnterior  int             `gorm:"not null"`
	StockNuevo     int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2)"`
	UsuarioID      uuid.UUID       `gorm:"type:uuid;not null"`
	Notas          string
	TransaccionID  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
