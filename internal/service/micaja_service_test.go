package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"micaja/internal/apierror"
	"micaja/internal/caja"
	"micaja/internal/dto"
	"micaja/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── TurnosPendientes ──────────────────────────────────────────────────────────

func TestTurnosPendientes_FiltraYOrdena(t *testing.T) {
	f := newFixture()
	tarde := f.turno(f.empleado, model.TurnoCompletado, model.PagoPendiente, fixedNow.Add(-1*time.Hour))
	temprano := f.turno(f.empleado, model.TurnoCompletado, model.PagoConSena, fixedNow.Add(-3*time.Hour))
	f.turno(f.empleado, model.TurnoCompletado, model.PagoPagado, fixedNow.Add(-2*time.Hour))
	f.turno(f.empleado, model.TurnoConfirmado, model.PagoPendiente, fixedNow.Add(time.Hour))
	ajeno := f.turno(f.otro, model.TurnoCompletado, model.PagoPendiente, fixedNow.Add(-4*time.Hour))

	resp, err := f.micaja.TurnosPendientes(context.Background(), f.empleado)
	require.NoError(t, err)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, temprano.ID.String(), resp.Turnos[0].ID)
	assert.Equal(t, tarde.ID.String(), resp.Turnos[1].ID)
	assert.Equal(t, "María Pérez", resp.Turnos[0].Cliente)
	assert.Equal(t, "Limpieza facial", resp.Turnos[0].Servicio)
	assert.True(t, dec("1500").Equal(resp.Turnos[0].Monto))
	assert.Equal(t, "2024-03-15", resp.Turnos[0].Fecha)
	assert.Equal(t, "11:30", resp.Turnos[0].Hora)

	resp, err = f.micaja.TurnosPendientes(context.Background(), f.otro)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, ajeno.ID.String(), resp.Turnos[0].ID)
}

func TestTurnosPendientes_AdminVeSoloLosPropios(t *testing.T) {
	f := newFixture()
	f.turno(f.empleado, model.TurnoCompletado, model.PagoPendiente, fixedNow.Add(-time.Hour))
	propio := f.turno(f.admin, model.TurnoCompletado, model.PagoPendiente, fixedNow.Add(-2*time.Hour))

	resp, err := f.micaja.TurnosPendientes(context.Background(), f.admin)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, propio.ID.String(), resp.Turnos[0].ID)
}

func TestTurnosPendientes_ListaVacia(t *testing.T) {
	f := newFixture()
	resp, err := f.micaja.TurnosPendientes(context.Background(), f.empleado)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Turnos)
}

// ── CobrarTurno ───────────────────────────────────────────────────────────────

func TestCobrarTurno_DesapareceDePendientes(t *testing.T) {
	f := newFixture()
	turno := f.turno(f.empleado, model.TurnoCompletado, model.PagoPendiente, fixedNow.Add(-time.Hour))

	resp, err := f.micaja.CobrarTurno(context.Background(), f.empleado, dto.CobrarTurnoRequest{
		TurnoID:       turno.ID.String(),
		Amount:        dec("1500"),
		PaymentMethod: "EFECTIVO",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "INGRESO_SERVICIO", resp.Transaction.Type)
	assert.Equal(t, "Limpieza facial", resp.Transaction.Concepto)
	assert.Equal(t, "2024-03-15", resp.Transaction.Date)

	pend, err := f.micaja.TurnosPendientes(context.Background(), f.empleado)
	require.NoError(t, err)
	assert.Equal(t, 0, pend.Count)
	assert.Equal(t, model.PagoPagado, f.store.turnos[turno.ID].EstadoPago)
}

func TestCobrarTurno_DobleCobroEsConflicto(t *testing.T) {
	f := newFixture()
	turno := f.turno(f.empleado, model.TurnoCompletado, model.PagoPendiente, fixedNow)
	req := dto.CobrarTurnoRequest{TurnoID: turno.ID.String(), Amount: dec("100"), PaymentMethod: "TRANSFERENCIA"}

	_, err := f.micaja.CobrarTurno(context.Background(), f.empleado, req)
	require.NoError(t, err)
	_, err = f.micaja.CobrarTurno(context.Background(), f.empleado, req)
	assert.True(t, errors.Is(err, apierror.ErrConflict))
	assert.Len(t, f.store.transacciones, 1)
}

func TestCobrarTurno_Rechazos(t *testing.T) {
	f := newFixture()
	propio := f.turno(f.empleado, model.TurnoCompletado, model.PagoPendiente, fixedNow)
	ajeno := f.turno(f.otro, model.TurnoCompletado, model.PagoPendiente, fixedNow)
	confirmado := f.turno(f.empleado, model.TurnoConfirmado, model.PagoPendiente, fixedNow)

	cases := []struct {
		name string
		req  dto.CobrarTurnoRequest
		kind error
	}{
		{"monto cero", dto.CobrarTurnoRequest{TurnoID: propio.ID.String(), Amount: decimal.Zero, PaymentMethod: "EFECTIVO"}, apierror.ErrValidation},
		{"monto menor a un centavo", dto.CobrarTurnoRequest{TurnoID: propio.ID.String(), Amount: dec("0.004"), PaymentMethod: "EFECTIVO"}, apierror.ErrValidation},
		{"monto negativo", dto.CobrarTurnoRequest{TurnoID: propio.ID.String(), Amount: dec("-5"), PaymentMethod: "EFECTIVO"}, apierror.ErrValidation},
		{"metodo invalido", dto.CobrarTurnoRequest{TurnoID: propio.ID.String(), Amount: dec("10"), PaymentMethod: "CHEQUE"}, apierror.ErrValidation},
		{"turno inexistente", dto.CobrarTurnoRequest{TurnoID: uuid.NewString(), Amount: dec("10"), PaymentMethod: "EFECTIVO"}, apierror.ErrNotFound},
		{"turno ajeno", dto.CobrarTurnoRequest{TurnoID: ajeno.ID.String(), Amount: dec("10"), PaymentMethod: "EFECTIVO"}, apierror.ErrForbidden},
		{"turno no completado", dto.CobrarTurnoRequest{TurnoID: confirmado.ID.String(), Amount: dec("10"), PaymentMethod: "EFECTIVO"}, apierror.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.micaja.CobrarTurno(context.Background(), f.empleado, tc.req)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
	assert.Empty(t, f.store.transacciones)
	assert.Equal(t, model.PagoPendiente, propio.EstadoPago)
}

func TestCobrarTurno_MontoSeRedondeaACentavos(t *testing.T) {
	f := newFixture()
	turno := f.turno(f.empleado, model.TurnoCompletado, model.PagoPendiente, fixedNow)

	_, err := f.micaja.CobrarTurno(context.Background(), f.empleado, dto.CobrarTurnoRequest{
		TurnoID: turno.ID.String(), Amount: dec("0.005"), PaymentMethod: "EFECTIVO",
	})
	require.NoError(t, err)
	require.Len(t, f.store.transacciones, 1)
	assert.True(t, dec("0.01").Equal(f.store.transacciones[0].Monto))
}

func TestCobrarTurno_AdminCobraTurnoAjeno(t *testing.T) {
	f := newFixture()
	turno := f.turno(f.empleado, model.TurnoCompletado, model.PagoConSena, fixedNow)

	_, err := f.micaja.CobrarTurno(context.Background(), f.admin, dto.CobrarTurnoRequest{
		TurnoID: turno.ID.String(), Amount: dec("700"), PaymentMethod: "MERCADOPAGO",
	})
	require.NoError(t, err)
	require.Len(t, f.store.transacciones, 1)
	assert.Equal(t, f.admin.UsuarioID, f.store.transacciones[0].RegistradoPorID)
}

// ── VenderProducto ────────────────────────────────────────────────────────────

func TestVenderProducto_ConDescuento(t *testing.T) {
	f := newFixture()
	p := f.producto("Crema hidratante", 1000, 10)

	resp, err := f.micaja.VenderProducto(context.Background(), f.empleado, dto.VenderProductoRequest{
		ProductoID:          p.ID.String(),
		Cantidad:            3,
		ClienteID:           f.cliente.ID.String(),
		PaymentMethod:       "TARJETA_DEBITO",
		DescuentoPorcentaje: dec("10"),
	})
	require.NoError(t, err)
	assert.True(t, dec("2700").Equal(resp.Transaction.Amount))
	assert.Equal(t, "INGRESO_PRODUCTO", resp.Transaction.Type)
	assert.Equal(t, 7, resp.Producto.StockRestante)
	assert.Equal(t, 7, f.store.productos[p.ID].StockActual)

	require.Len(t, f.store.movimientos, 1)
	mov := f.store.movimientos[0]
	assert.Equal(t, model.MovimientoSalida, mov.Tipo)
	assert.Equal(t, 10, mov.StockAnterior)
	assert.Equal(t, 7, mov.StockNuevo)
	require.NotNil(t, mov.TransaccionID)
	assert.Equal(t, resp.Transaction.ID, mov.TransaccionID.String())
}

func TestVenderProducto_StockInsuficiente(t *testing.T) {
	f := newFixture()
	p := f.producto("Sérum", 500, 2)

	_, err := f.micaja.VenderProducto(context.Background(), f.empleado, dto.VenderProductoRequest{
		ProductoID: p.ID.String(), Cantidad: 3, ClienteID: f.cliente.ID.String(), PaymentMethod: "EFECTIVO",
	})
	assert.True(t, errors.Is(err, apierror.ErrConflict))
	assert.Empty(t, f.store.transacciones)
	assert.Equal(t, 2, f.store.productos[p.ID].StockActual)
}

func TestProducto_Snapshot(t *testing.T) {
	f := newFixture()
	p := f.producto("Crema hidratante", 1000, 3)

	resp, err := f.micaja.Producto(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.StockActual)
	assert.True(t, dec("1000").Equal(resp.PrecioVenta))

	p.Activo = false
	_, err = f.micaja.Producto(context.Background(), p.ID)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	_, err = f.micaja.Producto(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestVenderProducto_Rechazos(t *testing.T) {
	f := newFixture()
	p := f.producto("Sérum", 500, 5)

	_, err := f.micaja.VenderProducto(context.Background(), f.empleado, dto.VenderProductoRequest{
		ProductoID: p.ID.String(), Cantidad: 1, ClienteID: "", PaymentMethod: "EFECTIVO",
	})
	assert.True(t, errors.Is(err, apierror.ErrValidation), "cliente requerido")

	_, err = f.micaja.VenderProducto(context.Background(), f.empleado, dto.VenderProductoRequest{
		ProductoID: p.ID.String(), Cantidad: 0, ClienteID: f.cliente.ID.String(), PaymentMethod: "EFECTIVO",
	})
	assert.True(t, errors.Is(err, apierror.ErrValidation), "cantidad cero")

	_, err = f.micaja.VenderProducto(context.Background(), f.empleado, dto.VenderProductoRequest{
		ProductoID: p.ID.String(), Cantidad: 1, ClienteID: f.cliente.ID.String(), PaymentMethod: "EFECTIVO",
		DescuentoPorcentaje: dec("101"),
	})
	assert.True(t, errors.Is(err, apierror.ErrValidation), "descuento > 100")

	_, err = f.micaja.VenderProducto(context.Background(), f.empleado, dto.VenderProductoRequest{
		ProductoID: uuid.NewString(), Cantidad: 1, ClienteID: f.cliente.ID.String(), PaymentMethod: "EFECTIVO",
	})
	assert.True(t, errors.Is(err, apierror.ErrNotFound), "producto inexistente")

	assert.Empty(t, f.store.transacciones)
}

// ── VentaUnificada ────────────────────────────────────────────────────────────

func TestVentaUnificada_TurnoYProductos(t *testing.T) {
	f := newFixture()
	turno := f.turno(f.empleado, model.TurnoCompletado, model.PagoPendiente, fixedNow)
	p := f.producto("Protector solar", 800, 4)

	resp, err := f.micaja.VentaUnificada(context.Background(), f.empleado, dto.VentaUnificadaRequest{
		ClienteID:     f.cliente.ID.String(),
		PaymentMethod: "EFECTIVO",
		Items: []dto.VentaUnificadaItem{
			{Tipo: "servicio", TurnoID: turno.ID.String()},
			{Tipo: "producto", ProductoID: p.ID.String(), Cantidad: 2, DescuentoPorcentaje: dec("50")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalItems)
	assert.True(t, dec("2300").Equal(resp.TotalMonto), resp.TotalMonto.String())
	require.Len(t, resp.ProductosActualizados, 1)
	assert.Equal(t, 2, resp.ProductosActualizados[0].StockRestante)
	assert.Equal(t, model.PagoPagado, f.store.turnos[turno.ID].EstadoPago)
}

func TestVentaUnificada_Rechazos(t *testing.T) {
	f := newFixture()
	turno := f.turno(f.empleado, model.TurnoCompletado, model.PagoPendiente, fixedNow)
	p := f.producto("Protector solar", 800, 3)

	_, err := f.micaja.VentaUnificada(context.Background(), f.empleado, dto.VentaUnificadaRequest{
		ClienteID: f.cliente.ID.String(), PaymentMethod: "EFECTIVO",
		Items: []dto.VentaUnificadaItem{
			{Tipo: "producto", ProductoID: p.ID.String(), Cantidad: 2},
			{Tipo: "producto", ProductoID: p.ID.String(), Cantidad: 2},
		},
	})
	assert.True(t, errors.Is(err, apierror.ErrConflict), "stock acumulado")

	_, err = f.micaja.VentaUnificada(context.Background(), f.empleado, dto.VentaUnificadaRequest{
		ClienteID: f.cliente.ID.String(), PaymentMethod: "EFECTIVO",
		Items: []dto.VentaUnificadaItem{
			{Tipo: "servicio", TurnoID: turno.ID.String()},
			{Tipo: "servicio", TurnoID: turno.ID.String()},
		},
	})
	assert.True(t, errors.Is(err, apierror.ErrValidation), "turno repetido")

	_, err = f.micaja.VentaUnificada(context.Background(), f.empleado, dto.VentaUnificadaRequest{
		ClienteID: f.cliente.ID.String(), PaymentMethod: "EFECTIVO",
		Items: []dto.VentaUnificadaItem{{Tipo: "servicio"}},
	})
	assert.True(t, errors.Is(err, apierror.ErrValidation), "turno_id requerido")

	assert.Empty(t, f.store.transacciones)
}

// ── ResumenDia / MisTransacciones ─────────────────────────────────────────────

func TestResumenDia_TotalEsSumaDeIngresos(t *testing.T) {
	f := newFixture()
	f.transaccion(f.empleado, caja.TipoIngresoServicio, caja.MetodoEfectivo, "450", hoy())
	f.transaccion(f.empleado, caja.TipoIngresoProducto, caja.MetodoEfectivo, "50.50", hoy())
	f.transaccion(f.empleado, caja.TipoIngresoServicio, caja.MetodoTransferencia, "1200", hoy())
	f.transaccion(f.empleado, caja.TipoGasto, caja.MetodoEfectivo, "300", hoy())
	f.transaccion(f.otro, caja.TipoIngresoServicio, caja.MetodoEfectivo, "999", hoy())
	f.transaccion(f.empleado, caja.TipoIngresoServicio, caja.MetodoEfectivo, "777", hoy().AddDate(0, 0, -1))

	r, err := f.micaja.ResumenDia(context.Background(), f.empleado, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", r.Fecha)
	assert.True(t, dec("1700.50").Equal(r.Total), r.Total.String())
	assert.Equal(t, 3, r.CantidadTransacciones)
	assert.True(t, dec("500.50").Equal(r.PorMetodo["Efectivo"]))
	assert.True(t, dec("1200").Equal(r.PorMetodo["Transferencia"]))
	assert.True(t, dec("300").Equal(r.Egresos))
	assert.False(t, r.TieneCierre)

	sum := decimal.Zero
	for _, v := range r.PorMetodo {
		sum = sum.Add(v)
	}
	assert.True(t, sum.Equal(r.Total))
}

func TestResumenDia_SinTransacciones(t *testing.T) {
	f := newFixture()
	r, err := f.micaja.ResumenDia(context.Background(), f.empleado, "2024-03-10")
	require.NoError(t, err)
	assert.True(t, r.Total.IsZero())
	assert.Equal(t, 0, r.CantidadTransacciones)
	assert.Empty(t, r.PorMetodo)
	assert.True(t, caja.EfectivoSistema(r.PorMetodo).IsZero())
}

func TestResumenDia_TieneCierre(t *testing.T) {
	f := newFixture()
	f.store.cierres = append(f.store.cierres, model.CierreCaja{ID: uuid.New(), EmpleadoID: f.empleado.UsuarioID, Fecha: hoy()})

	r, err := f.micaja.ResumenDia(context.Background(), f.empleado, "2024-03-15")
	require.NoError(t, err)
	assert.True(t, r.TieneCierre)

	r, err = f.micaja.ResumenDia(context.Background(), f.otro, "2024-03-15")
	require.NoError(t, err)
	assert.False(t, r.TieneCierre)
}

func TestResumenDia_FechaInvalida(t *testing.T) {
	f := newFixture()
	_, err := f.micaja.ResumenDia(context.Background(), f.empleado, "15/03/2024")
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestMisTransacciones_FiltroPorMetodo(t *testing.T) {
	f := newFixture()
	f.transaccion(f.empleado, caja.TipoIngresoServicio, caja.MetodoEfectivo, "100", hoy())
	f.transaccion(f.empleado, caja.TipoIngresoServicio, caja.MetodoTarjetaCredito, "250", hoy())

	resp, err := f.micaja.MisTransacciones(context.Background(), f.empleado, dto.MisTransaccionesFilter{})
	require.NoError(t, err)
	assert.Len(t, resp.Transacciones, 2)
	assert.True(t, dec("350").Equal(resp.Resumen.Total))
	assert.Equal(t, "ana", resp.Empleado.Nombre)

	resp, err = f.micaja.MisTransacciones(context.Background(), f.empleado, dto.MisTransaccionesFilter{PaymentMethod: "tarjeta_credito"})
	require.NoError(t, err)
	require.Len(t, resp.Transacciones, 1)
	assert.True(t, dec("250").Equal(resp.Resumen.PorMetodo["Crédito"]))

	_, err = f.micaja.MisTransacciones(context.Background(), f.empleado, dto.MisTransaccionesFilter{PaymentMethod: "BITCOIN"})
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}
