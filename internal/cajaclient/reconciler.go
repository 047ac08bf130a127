package cajaclient

import (
	"context"
	"errors"

	"micaja/internal/caja"
	"micaja/internal/dto"

	"github.com/shopspring/decimal"
)

// Reconciler closes the register for a date against the summary loaded
// by a SummaryLoader. A date is OPEN until a closing exists, then CLOSED;
// there is no reopen.
type Reconciler struct {
	client    *Client
	summaries *SummaryLoader
}

func NewReconciler(c *Client, summaries *SummaryLoader) *Reconciler {
	return &Reconciler{client: c, summaries: summaries}
}

// Preview is what the closing form shows before submitting.
type Preview struct {
	Fecha           string
	EfectivoSistema decimal.Decimal
	EfectivoContado decimal.Decimal
	Diferencia      decimal.Decimal
	// Display is the signed variance, e.g. "+$50.00".
	Display string
	// Advertencia is the form's own |diferencia| >= 100 warning. It is
	// independent of the backend's alerta flag.
	Advertencia bool
}

type CloseResult struct {
	Preview Preview
	Cierre  CashClosing
	// Alerta is the backend's judgement of the variance.
	Alerta bool
}

// Preview computes the variance of counted against the cash bucket of the
// current summary.
func (r *Reconciler) Preview(counted decimal.Decimal) (Preview, error) {
	sum, ok := r.summaries.Current()
	if !ok {
		return Preview{}, validation("fecha", "primero cargue el resumen del día")
	}
	return preview(sum, counted), nil
}

func preview(sum *DailySummary, counted decimal.Decimal) Preview {
	sistema := caja.EfectivoSistema(sum.PorMetodo)
	dif := caja.Diferencia(counted, sistema)
	return Preview{
		Fecha:           sum.Fecha,
		EfectivoSistema: sistema,
		EfectivoContado: counted,
		Diferencia:      dif,
		Display:         caja.FormatDiferencia(dif),
		Advertencia:     caja.RequiereAdvertencia(dif),
	}
}

// Close creates the closing for fecha. It fails without a request when the
// summary for fecha is not loaded, when it already shows a closing
// (ConflictError) or when counted is negative (ValidationError). The backend
// still rejects a duplicate that raced past these checks; that comes back as
// a ConflictError too.
func (r *Reconciler) Close(ctx context.Context, fecha string, counted decimal.Decimal, notas string) (*CloseResult, error) {
	sum, ok := r.summaries.Current()
	if !ok || sum.Fecha != fecha {
		return nil, validation("fecha", "el resumen de %s no está cargado", fecha)
	}
	if sum.TieneCierre {
		return nil, &ConflictError{Message: "Ya existe un cierre de caja para " + fecha}
	}
	if counted.IsNegative() {
		return nil, validation("efectivo_contado", "el efectivo contado no puede ser negativo")
	}
	pv := preview(sum, counted)

	resp, err := r.client.CreateCashClosing(ctx, dto.CierreCajaRequest{
		Fecha:           fecha,
		EfectivoContado: counted,
		Notas:           notas,
	})
	if err != nil {
		var ce *ConflictError
		if errors.As(err, &ce) {
			r.summaries.markClosed(fecha)
		}
		return nil, err
	}
	r.summaries.markClosed(fecha)
	return &CloseResult{Preview: pv, Cierre: resp.Cierre, Alerta: resp.Alerta}, nil
}
