package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CierreCaja is the end-of-day reconciliation of one operator.
// At most one row exists per (EmpleadoID, Fecha); rows are never updated.
type CierreCaja struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpleadoID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_cierres_caja_empleado_fecha,priority:1"`
	Fecha      time.Time `gorm:"type:date;not null;uniqueIndex:uni_cierres_caja_empleado_fecha,priority:2"`
	// TotalSistema is the sum of income transactions of the day at close time.
	TotalSistema    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	EfectivoSistema decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	EfectivoContado decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// Diferencia = EfectivoContado − EfectivoSistema (negativo = falta, positivo = sobra)
	Diferencia      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DesgloseMetodos DesgloseMetodos `gorm:"type:jsonb;not null;default:'{}'"`
	Notas           string
	CerradoEn       time.Time `gorm:"autoCreateTime"`

	Empleado *Usuario `gorm:"foreignKey:EmpleadoID"`
}

func (CierreCaja) TableName() string { return "cierres_caja" }

// TieneDiferencia is true when the count does not match the system.
func (c *CierreCaja) TieneDiferencia() bool {
	return !c.Diferencia.IsZero()
}

// DesgloseMetodos maps payment-method display label to summed income, stored as JSON.
type DesgloseMetodos map[string]decimal.Decimal

func (d DesgloseMetodos) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]decimal.Decimal(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *DesgloseMetodos) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = DesgloseMetodos{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("desglose_metodos: tipo no soportado")
	}
	m := map[string]decimal.Decimal{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*d = m
	return nil
}
