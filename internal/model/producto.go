package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a retail item sold over the counter.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	PrecioVenta decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockActual int             `gorm:"not null;default:0"`
	StockMinimo int             `gorm:"not null;default:5"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
