package repository

import (
	"context"
	"time"

	"micaja/internal/caja"
	"micaja/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CierreRepository interface {
	// Create inserts a closing. A second closing for the same operator and
	// date fails with gorm.ErrDuplicatedKey (see IsDuplicate).
	Create(ctx context.Context, c *model.CierreCaja) error
	ExistsForEmpleadoFecha(ctx context.Context, empleadoID uuid.UUID, fecha time.Time) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error)
	// List returns closings newest first. empleadoID nil lists every operator.
	List(ctx context.Context, empleadoID *uuid.UUID, page, limit int) ([]model.CierreCaja, int64, error)
}

type cierreRepo struct{ db *gorm.DB }

func NewCierreRepository(db *gorm.DB) CierreRepository { return &cierreRepo{db: db} }

func (r *cierreRepo) Create(ctx context.Context, c *model.CierreCaja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cierreRepo) ExistsForEmpleadoFecha(ctx context.Context, empleadoID uuid.UUID, fecha time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CierreCaja{}).
		Where("empleado_id = ? AND fecha = ?", empleadoID, caja.FormatFecha(fecha)).
		Count(&n).Error
	return n > 0, err
}

func (r *cierreRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).Preload("Empleado").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cierreRepo) List(ctx context.Context, empleadoID *uuid.UUID, page, limit int) ([]model.CierreCaja, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.CierreCaja{})
	if empleadoID != nil {
		q = q.Where("empleado_id = ?", *empleadoID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var cierres []model.CierreCaja
	err := q.Preload("Empleado").
		Order("fecha DESC, cerrado_en DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&cierres).Error
	return cierres, total, err
}
