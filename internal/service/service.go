package service

import (
	"context"
	"time"

	"micaja/internal/caja"
	"micaja/internal/dto"
	"micaja/internal/model"
	"micaja/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor is the authenticated operator a request acts for.
type Actor struct {
	UsuarioID uuid.UUID
	Username  string
	Rol       string
	IPAddress string
	UserAgent string
}

// PuedeVerTodo is true for ADMIN and MANAGER.
func (a Actor) PuedeVerTodo() bool {
	return a.Rol == model.RolAdmin || a.Rol == model.RolManager
}

// Clock returns the current instant. Tests replace it to pin "today".
type Clock func() time.Time

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// resumen is the income aggregation of one operator-day.
type resumen struct {
	total     decimal.Decimal
	cantidad  int
	porMetodo map[string]decimal.Decimal
	egresos   decimal.Decimal
}

// resumir folds the GROUP BY rows into totals keyed by display label.
// Only income enters total, cantidad and porMetodo.
func resumir(rows []repository.SumaMetodo) resumen {
	r := resumen{
		total:     decimal.Zero,
		porMetodo: map[string]decimal.Decimal{},
		egresos:   decimal.Zero,
	}
	for _, row := range rows {
		if !row.EsIngreso {
			r.egresos = r.egresos.Add(row.Total)
			continue
		}
		label := row.MetodoPago.Label()
		r.porMetodo[label] = r.porMetodo[label].Add(row.Total)
		r.total = r.total.Add(row.Total)
		r.cantidad += row.Cantidad
	}
	return r
}

func transaccionToResponse(t *model.Transaccion) dto.TransaccionResponse {
	resp := dto.TransaccionResponse{
		ID:            t.ID.String(),
		Type:          string(t.Tipo),
		Amount:        t.Monto,
		PaymentMethod: string(t.MetodoPago),
		Date:          caja.FormatFecha(t.Fecha),
		Description:   t.Descripcion,
		Concepto:      t.Concepto(),
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.RegistradoPor != nil {
		n := t.RegistradoPor.NombreCompleto()
		resp.CreatedByNombre = &n
	}
	if t.Cliente != nil {
		n := t.Cliente.NombreCompleto()
		resp.ClienteNombre = &n
	}
	return resp
}

func cierreToResponse(c *model.CierreCaja, umbral decimal.Decimal) dto.CierreCajaResponse {
	resp := dto.CierreCajaResponse{
		ID:                      c.ID.String(),
		Empleado:                c.EmpleadoID.String(),
		Fecha:                   caja.FormatFecha(c.Fecha),
		TotalSistema:            c.TotalSistema,
		EfectivoSistema:         c.EfectivoSistema,
		EfectivoContado:         c.EfectivoContado,
		Diferencia:              c.Diferencia,
		DesgloseMetodos:         map[string]decimal.Decimal(c.DesgloseMetodos),
		Notas:                   c.Notas,
		TieneDiferencia:         c.TieneDiferencia(),
		DiferenciaSignificativa: caja.EsSignificativa(c.Diferencia, umbral),
		CerradoEn:               c.CerradoEn.Format(time.RFC3339),
	}
	if resp.DesgloseMetodos == nil {
		resp.DesgloseMetodos = map[string]decimal.Decimal{}
	}
	if c.Empleado != nil {
		resp.EmpleadoNombre = c.Empleado.NombreCompleto()
	}
	return resp
}
