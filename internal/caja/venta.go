package caja

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrCantidadInvalida  = errors.New("la cantidad debe ser mayor a cero")
	ErrDescuentoInvalido = errors.New("el descuento debe estar entre 0 y 100")
	ErrPrecioInvalido    = errors.New("el precio unitario no puede ser negativo")
)

var cien = decimal.NewFromInt(100)

// Venta is the price breakdown of a product sale line.
type Venta struct {
	PrecioUnitario      decimal.Decimal
	Cantidad            int
	Subtotal            decimal.Decimal
	DescuentoPorcentaje decimal.Decimal
	DescuentoMonto      decimal.Decimal
	Total               decimal.Decimal
}

// CalcularVenta computes subtotal = precio × cantidad,
// descuento = subtotal × pct / 100 and total = subtotal − descuento.
func CalcularVenta(precio decimal.Decimal, cantidad int, pct decimal.Decimal) (Venta, error) {
	if cantidad <= 0 {
		return Venta{}, ErrCantidadInvalida
	}
	if precio.IsNegative() {
		return Venta{}, ErrPrecioInvalido
	}
	if pct.IsNegative() || pct.GreaterThan(cien) {
		return Venta{}, ErrDescuentoInvalido
	}
	subtotal := precio.Mul(decimal.NewFromInt(int64(cantidad)))
	descuento := subtotal.Mul(pct).Div(cien).Round(2)
	return Venta{
		PrecioUnitario:      precio,
		Cantidad:            cantidad,
		Subtotal:            subtotal,
		DescuentoPorcentaje: pct,
		DescuentoMonto:      descuento,
		Total:               subtotal.Sub(descuento),
	}, nil
}
