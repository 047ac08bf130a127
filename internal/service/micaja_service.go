package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"micaja/internal/apierror"
	"micaja/internal/caja"
	"micaja/internal/dto"
	"micaja/internal/infra"
	"micaja/internal/model"
	"micaja/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MiCajaService is the operator's cash drawer: pending charges, recording
// sales and charges, and the daily summary.
type MiCajaService interface {
	TurnosPendientes(ctx context.Context, actor Actor) (*dto.TurnosPendientesResponse, error)
	CobrarTurno(ctx context.Context, actor Actor, req dto.CobrarTurnoRequest) (*dto.CobrarTurnoResponse, error)
	VenderProducto(ctx context.Context, actor Actor, req dto.VenderProductoRequest) (*dto.VenderProductoResponse, error)
	VentaUnificada(ctx context.Context, actor Actor, req dto.VentaUnificadaRequest) (*dto.VentaUnificadaResponse, error)
	MisTransacciones(ctx context.Context, actor Actor, filter dto.MisTransaccionesFilter) (*dto.MisTransaccionesResponse, error)
	ResumenDia(ctx context.Context, actor Actor, fecha string) (*dto.ResumenDiario, error)
	Producto(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
}

// MiCajaDeps groups the collaborators of MiCajaService.
type MiCajaDeps struct {
	Transacciones repository.TransaccionRepository
	Turnos        repository.TurnoRepository
	Productos     repository.ProductoRepository
	Clientes      repository.ClienteRepository
	Usuarios      repository.UsuarioRepository
	Cierres       repository.CierreRepository
	Inventario    InventarioService
	Metrics       *infra.Metrics
	Location      *time.Location
	Now           Clock
}

type miCajaService struct {
	MiCajaDeps
}

func NewMiCajaService(deps MiCajaDeps) MiCajaService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &miCajaService{MiCajaDeps: deps}
}

func (s *miCajaService) hoy() time.Time {
	return caja.Hoy(s.Now(), s.Location)
}

// fecha parses an optional YYYY-MM-DD query value; empty means today.
func (s *miCajaService) fecha(raw string) (time.Time, error) {
	if raw == "" {
		return s.hoy(), nil
	}
	f, err := caja.ParseFecha(raw, s.Location)
	if err != nil {
		return time.Time{}, apierror.Validation("Formato de fecha inválido. Use YYYY-MM-DD")
	}
	return f, nil
}

// ── TurnosPendientes ──────────────────────────────────────────────────────────
// COMPLETADO turnos not yet paid and without an INGRESO_SERVICIO transaction.
// Every role sees only the turnos where they are the professional.

func (s *miCajaService) TurnosPendientes(ctx context.Context, actor Actor) (*dto.TurnosPendientesResponse, error) {
	turnos, err := s.Turnos.ListPendientesCobro(ctx, actor.UsuarioID)
	if err != nil {
		return nil, err
	}
	resp := &dto.TurnosPendientesResponse{Turnos: make([]dto.TurnoPendienteCobro, 0, len(turnos))}
	for i := range turnos {
		resp.Turnos = append(resp.Turnos, s.turnoPendiente(&turnos[i]))
	}
	resp.Count = len(resp.Turnos)
	return resp, nil
}

func (s *miCajaService) turnoPendiente(t *model.Turno) dto.TurnoPendienteCobro {
	inicio := t.FechaHoraInicio.In(s.Location)
	p := dto.TurnoPendienteCobro{
		ID:         t.ID.String(),
		Monto:      decimal.Zero,
		Fecha:      caja.FormatFecha(inicio),
		Hora:       inicio.Format("15:04"),
		EstadoPago: t.EstadoPago,
	}
	if t.Cliente != nil {
		p.Cliente = t.Cliente.NombreCompleto()
	}
	if t.Servicio != nil {
		p.Servicio = t.Servicio.Nombre
		p.Monto = t.Servicio.Precio
	}
	return p
}

// ── CobrarTurno ───────────────────────────────────────────────────────────────
//   1. Validate amount, method and that the turno is chargeable by the actor
//   2. BEGIN TX: flip estado_pago to PAGADO (conditional), insert INGRESO_SERVICIO
//   3. COMMIT

func (s *miCajaService) CobrarTurno(ctx context.Context, actor Actor, req dto.CobrarTurnoRequest) (*dto.CobrarTurnoResponse, error) {
	turnoID, err := uuid.Parse(req.TurnoID)
	if err != nil {
		return nil, apierror.Validation("turno_id inválido")
	}
	metodo, err := caja.ParseMetodoPago(req.PaymentMethod)
	if err != nil {
		return nil, apierror.Validation("Método de pago inválido: %s", req.PaymentMethod)
	}
	// Stored with two decimals: 0.004 would become a $0.00 charge.
	monto := req.Amount.Round(2)
	if !monto.IsPositive() {
		return nil, apierror.Validation("El monto debe ser mayor a 0")
	}

	turno, err := s.Turnos.FindByID(ctx, turnoID)
	if repository.IsNotFound(err) {
		return nil, apierror.NotFound("Turno no encontrado")
	}
	if err != nil {
		return nil, err
	}
	if !actor.PuedeVerTodo() && turno.ProfesionalID != actor.UsuarioID {
		return nil, apierror.Forbidden("Solo puedes cobrar tus propios turnos")
	}
	if turno.Estado != model.TurnoCompletado {
		return nil, apierror.Validation("Solo se pueden cobrar turnos completados")
	}
	if turno.EstadoPago == model.PagoPagado {
		return nil, apierror.Conflict("El turno ya fue cobrado")
	}

	t := &model.Transaccion{
		ID:              uuid.New(),
		Tipo:            caja.TipoIngresoServicio,
		Monto:           monto,
		MetodoPago:      metodo,
		Fecha:           s.hoy(),
		Descripcion:     descripcionCobro(turno),
		Notas:           req.Notas,
		ClienteID:       &turno.ClienteID,
		TurnoID:         &turno.ID,
		RegistradoPorID: actor.UsuarioID,
		IPAddress:       actor.IPAddress,
		UserAgent:       actor.UserAgent,
		CreatedAt:       s.Now(),
		Cliente:         turno.Cliente,
		Turno:           turno,
	}
	err = runTx(ctx, s.Transacciones.DB(), func(tx *gorm.DB) error {
		return s.cobrarTurnoTx(tx, t)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordTransaccion(string(t.Tipo), string(t.MetodoPago), t.Monto)
	log.Info().
		Str("turno_id", turno.ID.String()).
		Str("usuario_id", actor.UsuarioID.String()).
		Str("monto", t.Monto.StringFixed(2)).
		Str("metodo", string(metodo)).
		Msg("turno cobrado")

	return &dto.CobrarTurnoResponse{
		Success:     true,
		Message:     "Turno cobrado exitosamente",
		Transaction: transaccionToResponse(t),
	}, nil
}

func (s *miCajaService) cobrarTurnoTx(tx *gorm.DB, t *model.Transaccion) error {
	if err := s.Turnos.MarcarPagadoTx(tx, *t.TurnoID); err != nil {
		if errors.Is(err, repository.ErrTurnoNoCobrable) {
			return apierror.Conflict("El turno ya fue cobrado")
		}
		return err
	}
	if err := s.Transacciones.CreateTx(tx, t); err != nil {
		if repository.IsDuplicate(err) {
			return apierror.Conflict("El turno ya fue cobrado")
		}
		return err
	}
	return nil
}

func descripcionCobro(t *model.Turno) string {
	servicio, cliente := "Servicio", ""
	if t.Servicio != nil {
		servicio = t.Servicio.Nombre
	}
	if t.Cliente != nil {
		cliente = t.Cliente.NombreCompleto()
	}
	if cliente == "" {
		return "Cobro de turno: " + servicio
	}
	return fmt.Sprintf("Cobro de turno: %s - %s", servicio, cliente)
}

// ── VenderProducto ────────────────────────────────────────────────────────────
//   1. Resolve product and client, pre-check stock, compute the sale
//   2. BEGIN TX: insert INGRESO_PRODUCTO, decrement stock (conditional), record SALIDA
//   3. COMMIT

type lineaProducto struct {
	producto *model.Producto
	venta    caja.Venta
}

func (s *miCajaService) VenderProducto(ctx context.Context, actor Actor, req dto.VenderProductoRequest) (*dto.VenderProductoResponse, error) {
	metodo, err := caja.ParseMetodoPago(req.PaymentMethod)
	if err != nil {
		return nil, apierror.Validation("Método de pago inválido: %s", req.PaymentMethod)
	}
	cliente, err := s.resolveCliente(ctx, req.ClienteID)
	if err != nil {
		return nil, err
	}
	linea, err := s.resolveProducto(ctx, req.ProductoID, req.Cantidad, req.DescuentoPorcentaje)
	if err != nil {
		return nil, err
	}

	var (
		t     *model.Transaccion
		stock int
	)
	err = runTx(ctx, s.Transacciones.DB(), func(tx *gorm.DB) error {
		var err error
		t, stock, err = s.venderTx(ctx, tx, actor, metodo, cliente, linea, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.RecordTransaccion(string(t.Tipo), string(t.MetodoPago), t.Monto)
	log.Info().
		Str("producto_id", linea.producto.ID.String()).
		Int("cantidad", linea.venta.Cantidad).
		Str("total", t.Monto.StringFixed(2)).
		Str("usuario_id", actor.UsuarioID.String()).
		Msg("producto vendido")

	return &dto.VenderProductoResponse{
		Success:     true,
		Message:     "Venta registrada exitosamente",
		Transaction: transaccionToResponse(t),
		Producto: dto.ProductoActualizado{
			ID:            linea.producto.ID.String(),
			Nombre:        linea.producto.Nombre,
			StockRestante: stock,
		},
	}, nil
}

func (s *miCajaService) resolveCliente(ctx context.Context, raw string) (*model.Cliente, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierror.Validation("Debe seleccionar un cliente")
	}
	c, err := s.Clientes.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.NotFound("Cliente no encontrado")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Producto returns the current price and stock of an active product.
func (s *miCajaService) Producto(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.Productos.FindByID(ctx, id)
	if repository.IsNotFound(err) || (err == nil && !p.Activo) {
		return nil, apierror.NotFound("Producto no encontrado")
	}
	if err != nil {
		return nil, err
	}
	return &dto.ProductoResponse{
		ID:          p.ID.String(),
		Nombre:      p.Nombre,
		PrecioVenta: p.PrecioVenta,
		StockActual: p.StockActual,
		StockMinimo: p.StockMinimo,
	}, nil
}

func (s *miCajaService) resolveProducto(ctx context.Context, raw string, cantidad int, pct decimal.Decimal) (lineaProducto, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return lineaProducto{}, apierror.Validation("producto_id inválido")
	}
	if cantidad < 1 {
		return lineaProducto{}, apierror.Validation("La cantidad debe ser al menos 1")
	}
	p, err := s.Productos.FindByID(ctx, id)
	if repository.IsNotFound(err) || (err == nil && !p.Activo) {
		return lineaProducto{}, apierror.NotFound("Producto no encontrado")
	}
	if err != nil {
		return lineaProducto{}, err
	}
	if p.StockActual < cantidad {
		return lineaProducto{}, apierror.Conflict("Stock insuficiente de %s. Disponible: %d", p.Nombre, p.StockActual)
	}
	v, err := caja.CalcularVenta(p.PrecioVenta, cantidad, pct)
	if err != nil {
		return lineaProducto{}, apierror.Validation("%s", capitalizar(err.Error()))
	}
	return lineaProducto{producto: p, venta: v}, nil
}

func (s *miCajaService) venderTx(ctx context.Context, tx *gorm.DB, actor Actor, metodo caja.MetodoPago, cliente *model.Cliente, l lineaProducto, notas string) (*model.Transaccion, int, error) {
	desc := fmt.Sprintf("Venta: %s x%d", l.producto.Nombre, l.venta.Cantidad)
	if l.venta.DescuentoPorcentaje.IsPositive() {
		desc += fmt.Sprintf(" (desc. %s%%)", l.venta.DescuentoPorcentaje.String())
	}
	t := &model.Transaccion{
		ID:              uuid.New(),
		Tipo:            caja.TipoIngresoProducto,
		Monto:           l.venta.Total.Round(2),
		MetodoPago:      metodo,
		Fecha:           s.hoy(),
		Descripcion:     desc,
		Notas:           notas,
		ClienteID:       &cliente.ID,
		ProductoID:      &l.producto.ID,
		RegistradoPorID: actor.UsuarioID,
		IPAddress:       actor.IPAddress,
		UserAgent:       actor.UserAgent,
		CreatedAt:       s.Now(),
		Cliente:         cliente,
		Producto:        l.producto,
	}
	if err := s.Transacciones.CreateTx(tx, t); err != nil {
		return nil, 0, err
	}
	stock, err := s.Inventario.DescontarStockTx(ctx, tx, SalidaStock{
		ProductoID:     l.producto.ID,
		Cantidad:       l.venta.Cantidad,
		PrecioUnitario: l.venta.PrecioUnitario,
		UsuarioID:      actor.UsuarioID,
		TransaccionID:  t.ID,
		Notas:          desc,
	})
	if err != nil {
		return nil, 0, err
	}
	return t, stock, nil
}

// ── VentaUnificada ────────────────────────────────────────────────────────────
// Products and turnos of one client charged together with a single payment
// method. All lines succeed or none does.

func (s *miCajaService) VentaUnificada(ctx context.Context, actor Actor, req dto.VentaUnificadaRequest) (*dto.VentaUnificadaResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Validation("Debe incluir al menos un item")
	}
	metodo, err := caja.ParseMetodoPago(req.PaymentMethod)
	if err != nil {
		return nil, apierror.Validation("Método de pago inválido: %s", req.PaymentMethod)
	}
	cliente, err := s.resolveCliente(ctx, req.ClienteID)
	if err != nil {
		return nil, err
	}

	var (
		productos []lineaProducto
		turnos    []*model.Turno
	)
	vistos := map[uuid.UUID]bool{}
	pedidos := map[uuid.UUID]int{}
	for i, item := range req.Items {
		switch item.Tipo {
		case "producto":
			if item.ProductoID == "" {
				return nil, apierror.Validation("Item %d: producto_id es requerido", i+1)
			}
			l, err := s.resolveProducto(ctx, item.ProductoID, item.Cantidad, item.DescuentoPorcentaje)
			if err != nil {
				return nil, err
			}
			pedidos[l.producto.ID] += l.venta.Cantidad
			if pedidos[l.producto.ID] > l.producto.StockActual {
				return nil, apierror.Conflict("Stock insuficiente de %s. Disponible: %d", l.producto.Nombre, l.producto.StockActual)
			}
			productos = append(productos, l)
		case "servicio":
			t, err := s.resolveTurnoVenta(ctx, actor, item.TurnoID, cliente.ID, i+1)
			if err != nil {
				return nil, err
			}
			if vistos[t.ID] {
				return nil, apierror.Validation("Item %d: el turno está repetido", i+1)
			}
			vistos[t.ID] = true
			turnos = append(turnos, t)
		default:
			return nil, apierror.Validation("Item %d: tipo inválido %q", i+1, item.Tipo)
		}
	}

	resp := &dto.VentaUnificadaResponse{
		Success:               true,
		Transactions:          []dto.TransaccionResponse{},
		ProductosActualizados: []dto.ProductoActualizado{},
		TotalMonto:            decimal.Zero,
	}
	var registradas []*model.Transaccion
	err = runTx(ctx, s.Transacciones.DB(), func(tx *gorm.DB) error {
		registradas = registradas[:0]
		resp.ProductosActualizados = resp.ProductosActualizados[:0]
		for _, turno := range turnos {
			t := &model.Transaccion{
				ID:              uuid.New(),
				Tipo:            caja.TipoIngresoServicio,
				Monto:           turno.Servicio.Precio,
				MetodoPago:      metodo,
				Fecha:           s.hoy(),
				Descripcion:     descripcionCobro(turno),
				Notas:           req.Notas,
				ClienteID:       &cliente.ID,
				TurnoID:         &turno.ID,
				RegistradoPorID: actor.UsuarioID,
				IPAddress:       actor.IPAddress,
				UserAgent:       actor.UserAgent,
				CreatedAt:       s.Now(),
				Cliente:         cliente,
				Turno:           turno,
			}
			if err := s.cobrarTurnoTx(tx, t); err != nil {
				return err
			}
			registradas = append(registradas, t)
		}
		for _, l := range productos {
			t, stock, err := s.venderTx(ctx, tx, actor, metodo, cliente, l, req.Notas)
			if err != nil {
				return err
			}
			registradas = append(registradas, t)
			resp.ProductosActualizados = append(resp.ProductosActualizados, dto.ProductoActualizado{
				ID:            l.producto.ID.String(),
				Nombre:        l.producto.Nombre,
				StockRestante: stock,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range registradas {
		s.Metrics.RecordTransaccion(string(t.Tipo), string(t.MetodoPago), t.Monto)
		resp.Transactions = append(resp.Transactions, transaccionToResponse(t))
		resp.TotalMonto = resp.TotalMonto.Add(t.Monto)
	}
	resp.TotalItems = len(registradas)
	resp.Message = fmt.Sprintf("Venta registrada: %d items por %s", resp.TotalItems, caja.FormatMonto(resp.TotalMonto))
	log.Info().
		Int("items", resp.TotalItems).
		Str("total", resp.TotalMonto.StringFixed(2)).
		Str("usuario_id", actor.UsuarioID.String()).
		Msg("venta unificada registrada")
	return resp, nil
}

func (s *miCajaService) resolveTurnoVenta(ctx context.Context, actor Actor, raw string, clienteID uuid.UUID, n int) (*model.Turno, error) {
	if raw == "" {
		return nil, apierror.Validation("Item %d: turno_id es requerido", n)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierror.Validation("Item %d: turno_id inválido", n)
	}
	t, err := s.Turnos.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.NotFound("Turno no encontrado")
	}
	if err != nil {
		return nil, err
	}
	if !actor.PuedeVerTodo() && t.ProfesionalID != actor.UsuarioID {
		return nil, apierror.Forbidden("Solo puedes cobrar tus propios turnos")
	}
	if t.ClienteID != clienteID {
		return nil, apierror.Validation("Item %d: el turno pertenece a otro cliente", n)
	}
	if t.Estado != model.TurnoCompletado {
		return nil, apierror.Validation("Item %d: solo se pueden cobrar turnos completados", n)
	}
	if t.EstadoPago == model.PagoPagado {
		return nil, apierror.Conflict("El turno ya fue cobrado")
	}
	if t.Servicio == nil {
		return nil, fmt.Errorf("turno %s sin servicio", t.ID)
	}
	return t, nil
}

// ── MisTransacciones / ResumenDia ─────────────────────────────────────────────

func (s *miCajaService) MisTransacciones(ctx context.Context, actor Actor, filter dto.MisTransaccionesFilter) (*dto.MisTransaccionesResponse, error) {
	fecha, err := s.fecha(filter.Fecha)
	if err != nil {
		return nil, err
	}
	var metodo *caja.MetodoPago
	if filter.PaymentMethod != "" {
		m, err := caja.ParseMetodoPago(filter.PaymentMethod)
		if err != nil {
			return nil, apierror.Validation("Método de pago inválido: %s", filter.PaymentMethod)
		}
		metodo = &m
	}

	txs, err := s.Transacciones.ListByRegistradorFecha(ctx, actor.UsuarioID, fecha, metodo)
	if err != nil {
		return nil, err
	}

	resp := &dto.MisTransaccionesResponse{
		Fecha:         caja.FormatFecha(fecha),
		Empleado:      dto.EmpleadoRef{ID: actor.UsuarioID.String(), Nombre: actor.Username},
		Transacciones: make([]dto.TransaccionResponse, 0, len(txs)),
		Resumen: dto.ResumenTransacciones{
			Total:     decimal.Zero,
			PorMetodo: map[string]decimal.Decimal{},
		},
	}
	if u, err := s.Usuarios.FindByID(ctx, actor.UsuarioID); err == nil {
		resp.Empleado.Nombre = u.NombreCompleto()
	}
	for i := range txs {
		t := &txs[i]
		resp.Transacciones = append(resp.Transacciones, transaccionToResponse(t))
		if !t.Tipo.EsIngreso() {
			continue
		}
		label := t.MetodoPago.Label()
		resp.Resumen.PorMetodo[label] = resp.Resumen.PorMetodo[label].Add(t.Monto)
		resp.Resumen.Total = resp.Resumen.Total.Add(t.Monto)
		resp.Resumen.CantidadTransacciones++
	}
	return resp, nil
}

func (s *miCajaService) ResumenDia(ctx context.Context, actor Actor, raw string) (*dto.ResumenDiario, error) {
	fecha, err := s.fecha(raw)
	if err != nil {
		return nil, err
	}
	rows, err := s.Transacciones.SumByRegistradorFecha(ctx, actor.UsuarioID, fecha)
	if err != nil {
		return nil, err
	}
	cerrado, err := s.Cierres.ExistsForEmpleadoFecha(ctx, actor.UsuarioID, fecha)
	if err != nil {
		return nil, err
	}
	r := resumir(rows)
	return &dto.ResumenDiario{
		Fecha:                 caja.FormatFecha(fecha),
		Total:                 r.total,
		CantidadTransacciones: r.cantidad,
		PorMetodo:             r.porMetodo,
		Egresos:               r.egresos,
		TieneCierre:           cerrado,
	}, nil
}

func capitalizar(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
