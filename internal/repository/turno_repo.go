package repository

import (
	"context"

	"micaja/internal/caja"
	"micaja/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TurnoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Turno, error)
	// ListPendientesCobro returns completed, unpaid turnos without an income
	// transaction where profesionalID is the professional, oldest first.
	ListPendientesCobro(ctx context.Context, profesionalID uuid.UUID) ([]model.Turno, error)
	// MarcarPagadoTx flips estado_pago to PAGADO only while the turno is
	// still cobrable. ErrTurnoNoCobrable when the guard does not match.
	MarcarPagadoTx(tx *gorm.DB, id uuid.UUID) error
}

type turnoRepo struct{ db *gorm.DB }

func NewTurnoRepository(db *gorm.DB) TurnoRepository { return &turnoRepo{db: db} }

func (r *turnoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Turno, error) {
	var t model.Turno
	err := r.db.WithContext(ctx).
		Preload("Cliente").Preload("Servicio").
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *turnoRepo) ListPendientesCobro(ctx context.Context, profesionalID uuid.UUID) ([]model.Turno, error) {
	var turnos []model.Turno
	err := r.db.WithContext(ctx).
		Preload("Cliente").Preload("Servicio").
		Where("estado = ? AND estado_pago IN ?", model.TurnoCompletado, []string{model.PagoPendiente, model.PagoConSena}).
		Where("NOT EXISTS (SELECT 1 FROM transacciones t WHERE t.turno_id = turnos.id AND t.tipo = ?)", caja.TipoIngresoServicio).
		Where("profesional_id = ?", profesionalID).
		Order("fecha_hora_inicio ASC").
		Find(&turnos).Error
	return turnos, err
}

func (r *turnoRepo) MarcarPagadoTx(tx *gorm.DB, id uuid.UUID) error {
	res := conn(r.db, tx).Model(&model.Turno{}).
		Where("id = ? AND estado = ? AND estado_pago <> ?", id, model.TurnoCompletado, model.PagoPagado).
		Updates(map[string]any{"estado_pago": model.PagoPagado})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTurnoNoCobrable
	}
	return nil
}
