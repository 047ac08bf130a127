package cajaclient

import (
	"context"
	"errors"
	"strings"

	"micaja/internal/caja"
	"micaja/internal/dto"

	"github.com/shopspring/decimal"
)

// Recorder records appointment charges and product sales. Input is
// validated locally first; a rejected input never reaches the network.
type Recorder struct {
	client  *Client
	pending *PendingCollector
}

func NewRecorder(c *Client, pending *PendingCollector) *Recorder {
	return &Recorder{client: c, pending: pending}
}

// ── Charge an appointment ────────────────────────────────────────────────────

type ChargeInput struct {
	TurnoID string
	// Amount is usually the pending item's Monto; the operator may edit it.
	Amount decimal.Decimal
	Metodo caja.MetodoPago
	Notas  string
}

// ChargeAppointment charges one of the currently pending appointments.
// On success the appointment is dropped from the pending list.
func (r *Recorder) ChargeAppointment(ctx context.Context, in ChargeInput) (*Transaction, error) {
	if !r.pending.Contains(in.TurnoID) {
		return nil, validation("turno_id", "el turno no está entre los pendientes de cobro")
	}
	monto := in.Amount.Round(2)
	if !monto.IsPositive() {
		return nil, validation("amount", "el monto debe ser mayor a cero")
	}
	if !in.Metodo.Valid() {
		return nil, validation("payment_method", "método de pago inválido: %q", in.Metodo)
	}

	resp, err := r.client.RecordAppointmentCharge(ctx, dto.CobrarTurnoRequest{
		TurnoID:       in.TurnoID,
		Amount:        monto,
		PaymentMethod: string(in.Metodo),
		Notas:         in.Notas,
	})
	if err != nil {
		// Already charged elsewhere: it is no longer pending either.
		var ce *ConflictError
		if errors.As(err, &ce) {
			r.pending.remove(in.TurnoID)
		}
		return nil, err
	}
	r.pending.remove(in.TurnoID)
	return &resp.Transaction, nil
}

// ── Sell a product ───────────────────────────────────────────────────────────

type SaleInput struct {
	// Producto is the snapshot (price and stock) the form was opened with.
	Producto  Product
	Cantidad  int
	ClienteID string
	Metodo    caja.MetodoPago
	// DescuentoPct is 0–100.
	DescuentoPct decimal.Decimal
}

type SaleResult struct {
	// Venta is the computation the form showed, from the snapshot price.
	Venta caja.Venta
	// Transaction.Amount is what was actually charged.
	Transaction Transaction
	// Producto carries the stock left after the sale.
	Producto Product
	// PrecioCambiado is set when the backend charged a different total,
	// i.e. the price changed after the snapshot was taken.
	PrecioCambiado bool
}

// SellProduct validates quantity against the last-known stock, computes the
// sale and submits it. The backend re-checks stock and answers with a
// ConflictError when it changed in between.
func (r *Recorder) SellProduct(ctx context.Context, in SaleInput) (*SaleResult, error) {
	if in.Cantidad <= 0 {
		return nil, validation("cantidad", "la cantidad debe ser al menos 1")
	}
	if strings.TrimSpace(in.ClienteID) == "" {
		return nil, validation("cliente_id", "debe seleccionar un cliente")
	}
	if in.Cantidad > in.Producto.StockActual {
		return nil, validation("cantidad", "stock insuficiente: disponible %d", in.Producto.StockActual)
	}
	if !in.Metodo.Valid() {
		return nil, validation("payment_method", "método de pago inválido: %q", in.Metodo)
	}
	venta, err := caja.CalcularVenta(in.Producto.PrecioVenta, in.Cantidad, in.DescuentoPct)
	if err != nil {
		return nil, validation("descuento_porcentaje", "%s", err.Error())
	}

	resp, err := r.client.RecordProductSale(ctx, dto.VenderProductoRequest{
		ProductoID:          in.Producto.ID,
		Cantidad:            in.Cantidad,
		ClienteID:           in.ClienteID,
		PaymentMethod:       string(in.Metodo),
		DescuentoPorcentaje: in.DescuentoPct,
	})
	if err != nil {
		return nil, err
	}

	prod := in.Producto
	prod.StockActual = resp.Producto.StockRestante
	return &SaleResult{
		Venta:          venta,
		Transaction:    resp.Transaction,
		Producto:       prod,
		PrecioCambiado: !venta.Total.Equal(resp.Transaction.Amount),
	}, nil
}
