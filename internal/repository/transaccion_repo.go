package repository

import (
	"context"
	"time"

	"micaja/internal/caja"
	"micaja/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SumaMetodo is one GROUP BY row of a day's transactions.
type SumaMetodo struct {
	MetodoPago caja.MetodoPago
	EsIngreso  bool
	Total      decimal.Decimal
	Cantidad   int
}

type TransaccionRepository interface {
	CreateTx(tx *gorm.DB, t *model.Transaccion) error
	// ListByRegistradorFecha lists an operator's transactions of one day in
	// creation order. metodo nil means every method.
	ListByRegistradorFecha(ctx context.Context, usuarioID uuid.UUID, fecha time.Time, metodo *caja.MetodoPago) ([]model.Transaccion, error)
	SumByRegistradorFecha(ctx context.Context, usuarioID uuid.UUID, fecha time.Time) ([]SumaMetodo, error)
	ExistsIngresoServicio(ctx context.Context, turnoID uuid.UUID) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type transaccionRepo struct{ db *gorm.DB }

func NewTransaccionRepository(db *gorm.DB) TransaccionRepository {
	return &transaccionRepo{db: db}
}

func (r *transaccionRepo) DB() *gorm.DB { return r.db }

func (r *transaccionRepo) CreateTx(tx *gorm.DB, t *model.Transaccion) error {
	return conn(r.db, tx).Omit(clause.Associations).Create(t).Error
}

func (r *transaccionRepo) ListByRegistradorFecha(ctx context.Context, usuarioID uuid.UUID, fecha time.Time, metodo *caja.MetodoPago) ([]model.Transaccion, error) {
	q := r.db.WithContext(ctx).
		Preload("Cliente").Preload("Turno.Servicio").Preload("Producto").Preload("RegistradoPor").
		Where("registrado_por_id = ? AND fecha = ?", usuarioID, caja.FormatFecha(fecha))
	if metodo != nil {
		q = q.Where("metodo_pago = ?", *metodo)
	}
	var txs []model.Transaccion
	err := q.Order("created_at ASC").Find(&txs).Error
	return txs, err
}

func (r *transaccionRepo) SumByRegistradorFecha(ctx context.Context, usuarioID uuid.UUID, fecha time.Time) ([]SumaMetodo, error) {
	var rows []SumaMetodo
	err := r.db.WithContext(ctx).Raw(`
SELECT metodo_pago,
       tipo LIKE 'INGRESO_%' AS es_ingreso,
       COALESCE(SUM(monto), 0) AS total,
       COUNT(*)                AS cantidad
  FROM transacciones
 WHERE registrado_por_id = ? AND fecha = ?
 GROUP BY metodo_pago, es_ingreso`, usuarioID, caja.FormatFecha(fecha)).Scan(&rows).Error
	return rows, err
}

func (r *transaccionRepo) ExistsIngresoServicio(ctx context.Context, turnoID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Transaccion{}).
		Where("turno_id = ? AND tipo = ?", turnoID, caja.TipoIngresoServicio).
		Count(&n).Error
	return n > 0, err
}
