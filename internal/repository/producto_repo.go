package repository

import (
	"context"

	"micaja/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via mocks.
type ProductoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	// DescontarStockTx decrements stock only when enough units remain and
	// returns the stock after the decrement. ErrStockInsuficiente otherwise.
	DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) (int, error)
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) DescontarStockTx(tx *gorm.DB, id uuid.UUID, cantidad int) (int, error) {
	var nuevo []int
	res := conn(r.db, tx).Raw(`
UPDATE productos
   SET stock_actual = stock_actual - ?, updated_at = NOW()
 WHERE id = ? AND activo = true AND stock_actual >= ?
RETURNING stock_actual`, cantidad, id, cantidad).Scan(&nuevo)
	if res.Error != nil {
		return 0, res.Error
	}
	if len(nuevo) == 0 {
		return 0, ErrStockInsuficiente
	}
	return nuevo[0], nil
}
