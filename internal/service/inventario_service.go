package service

import (
	"context"
	"errors"
	"fmt"

	"micaja/internal/apierror"
	"micaja/internal/model"
	"micaja/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalidaStock describes one product leaving stock through a sale.
type SalidaStock struct {
	ProductoID     uuid.UUID
	Cantidad       int
	PrecioUnitario decimal.Decimal
	UsuarioID      uuid.UUID
	TransaccionID  uuid.UUID
	Notas          string
}

// InventarioService defines the contract for stock changes.
type InventarioService interface {
	// DescontarStockTx is called within a sale transaction. It decrements
	// stock only when enough units remain, records a SALIDA movement and
	// returns the remaining stock.
	DescontarStockTx(ctx context.Context, tx *gorm.DB, s SalidaStock) (int, error)
}

type inventarioService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
}

func NewInventarioService(productos repository.ProductoRepository, movimientos repository.MovimientoStockRepository) InventarioService {
	return &inventarioService{productos: productos, movimientos: movimientos}
}

func (s *inventarioService) DescontarStockTx(_ context.Context, tx *gorm.DB, salida SalidaStock) (int, error) {
	if salida.Cantidad <= 0 {
		return 0, apierror.Validation("La cantidad debe ser mayor a 0")
	}
	nuevo, err := s.productos.DescontarStockTx(tx, salida.ProductoID, salida.Cantidad)
	if errors.Is(err, repository.ErrStockInsuficiente) {
		return 0, apierror.Conflict("Stock insuficiente para completar la venta")
	}
	if err != nil {
		return 0, fmt.Errorf("descontar stock: %w", err)
	}

	transaccionID := salida.TransaccionID
	mov := &model.MovimientoStock{
		ProductoID:     salida.ProductoID,
		Tipo:           model.MovimientoSalida,
		Cantidad:       salida.Cantidad,
		StockAnterior:  nuevo + salida.Cantidad,
		StockNuevo:     nuevo,
		PrecioUnitario: salida.PrecioUnitario,
		UsuarioID:      salida.UsuarioID,
		Notas:          salida.Notas,
		TransaccionID:  &transaccionID,
	}
	if err := s.movimientos.CreateTx(tx, mov); err != nil {
		return 0, fmt.Errorf("registrar movimiento de stock: %w", err)
	}
	return nuevo, nil
}
