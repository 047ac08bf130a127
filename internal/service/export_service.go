package service

import (
	"bytes"
	"context"
	"fmt"

	"micaja/internal/caja"
	"micaja/internal/dto"

	"github.com/xuri/excelize/v2"
)

const hojaTransacciones = "Transacciones"

// ExportService renders reports as spreadsheets.
type ExportService interface {
	// MisTransaccionesXLSX exports the actor's transactions of one day.
	MisTransaccionesXLSX(ctx context.Context, actor Actor, fecha string) ([]byte, string, error)
}

type exportService struct {
	micaja MiCajaService
}

func NewExportService(micaja MiCajaService) ExportService {
	return &exportService{micaja: micaja}
}

func (s *exportService) MisTransaccionesXLSX(ctx context.Context, actor Actor, fecha string) ([]byte, string, error) {
	data, err := s.micaja.MisTransacciones(ctx, actor, dto.MisTransaccionesFilter{Fecha: fecha})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", hojaTransacciones); err != nil {
		return nil, "", err
	}

	headers := []any{"Hora", "Tipo", "Concepto", "Cliente", "Método de pago", "Monto"}
	if err := f.SetSheetRow(hojaTransacciones, "A1", &headers); err != nil {
		return nil, "", err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", err
	}
	if err := f.SetRowStyle(hojaTransacciones, 1, 1, bold); err != nil {
		return nil, "", err
	}

	row := 2
	for _, t := range data.Transacciones {
		cliente := ""
		if t.ClienteNombre != nil {
			cliente = *t.ClienteNombre
		}
		hora := t.CreatedAt
		if len(hora) >= 16 {
			hora = hora[11:16]
		}
		values := []any{hora, t.Type, t.Concepto, cliente, caja.MetodoPago(t.PaymentMethod).Label(), t.Amount.InexactFloat64()}
		if err := f.SetSheetRow(hojaTransacciones, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, "", err
		}
		row++
	}

	row++
	if err := f.SetCellValue(hojaTransacciones, fmt.Sprintf("E%d", row), "Total ingresos"); err != nil {
		return nil, "", err
	}
	if err := f.SetCellValue(hojaTransacciones, fmt.Sprintf("F%d", row), data.Resumen.Total.InexactFloat64()); err != nil {
		return nil, "", err
	}
	for _, m := range caja.MetodosPago() {
		v, ok := data.Resumen.PorMetodo[m.Label()]
		if !ok {
			continue
		}
		row++
		if err := f.SetCellValue(hojaTransacciones, fmt.Sprintf("E%d", row), m.Label()); err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(hojaTransacciones, fmt.Sprintf("F%d", row), v.InexactFloat64()); err != nil {
			return nil, "", err
		}
	}
	_ = f.SetColWidth(hojaTransacciones, "C", "D", 32)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("transacciones_%s.xlsx", data.Fecha), nil
}
