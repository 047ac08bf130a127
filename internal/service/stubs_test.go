package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"micaja/internal/caja"
	"micaja/internal/model"
	"micaja/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store shared by the repository stubs ───────────────────────────

type memStore struct {
	mu            sync.Mutex
	usuarios      map[uuid.UUID]*model.Usuario
	clientes      map[uuid.UUID]*model.Cliente
	turnos        map[uuid.UUID]*model.Turno
	productos     map[uuid.UUID]*model.Producto
	transacciones []model.Transaccion
	movimientos   []model.MovimientoStock
	cierres       []model.CierreCaja
}

func newMemStore() *memStore {
	return &memStore{
		usuarios:  map[uuid.UUID]*model.Usuario{},
		clientes:  map[uuid.UUID]*model.Cliente{},
		turnos:    map[uuid.UUID]*model.Turno{},
		productos: map[uuid.UUID]*model.Producto{},
	}
}

func (m *memStore) tieneIngresoServicio(turnoID uuid.UUID) bool {
	for _, t := range m.transacciones {
		if t.TurnoID != nil && *t.TurnoID == turnoID && t.Tipo == caja.TipoIngresoServicio {
			return true
		}
	}
	return false
}

// ── TransaccionRepository ─────────────────────────────────────────────────────

type stubTransacciones struct{ s *memStore }

var _ repository.TransaccionRepository = (*stubTransacciones)(nil)

func (r *stubTransacciones) DB() *gorm.DB { return nil }

func (r *stubTransacciones) CreateTx(_ *gorm.DB, t *model.Transaccion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.Tipo == caja.TipoIngresoServicio && t.TurnoID != nil && r.s.tieneIngresoServicio(*t.TurnoID) {
		return gorm.ErrDuplicatedKey
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.transacciones = append(r.s.transacciones, *t)
	return nil
}

func (r *stubTransacciones) ListByRegistradorFecha(_ context.Context, usuarioID uuid.UUID, fecha time.Time, metodo *caja.MetodoPago) ([]model.Transaccion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Transaccion
	for _, t := range r.s.transacciones {
		if t.RegistradoPorID != usuarioID || !caja.MismoDia(t.Fecha, fecha) {
			continue
		}
		if metodo != nil && t.MetodoPago != *metodo {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *stubTransacciones) SumByRegistradorFecha(_ context.Context, usuarioID uuid.UUID, fecha time.Time) ([]repository.SumaMetodo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	type key struct {
		metodo    caja.MetodoPago
		esIngreso bool
	}
	sums := map[key]*repository.SumaMetodo{}
	var order []key
	for _, t := range r.s.transacciones {
		if t.RegistradoPorID != usuarioID || !caja.MismoDia(t.Fecha, fecha) {
			continue
		}
		k := key{t.MetodoPago, t.Tipo.EsIngreso()}
		row, ok := sums[k]
		if !ok {
			row = &repository.SumaMetodo{MetodoPago: k.metodo, EsIngreso: k.esIngreso, Total: decimal.Zero}
			sums[k] = row
			order = append(order, k)
		}
		row.Total = row.Total.Add(t.Monto)
		row.Cantidad++
	}
	out := make([]repository.SumaMetodo, 0, len(order))
	for _, k := range order {
		out = append(out, *sums[k])
	}
	return out, nil
}

func (r *stubTransacciones) ExistsIngresoServicio(_ context.Context, turnoID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.tieneIngresoServicio(turnoID), nil
}

// ── TurnoRepository ───────────────────────────────────────────────────────────

type stubTurnos struct{ s *memStore }

var _ repository.TurnoRepository = (*stubTurnos)(nil)

func (r *stubTurnos) FindByID(_ context.Context, id uuid.UUID) (*model.Turno, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.turnos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubTurnos) ListPendientesCobro(_ context.Context, profesionalID uuid.UUID) ([]model.Turno, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Turno
	for _, t := range r.s.turnos {
		if t.Estado != model.TurnoCompletado {
			continue
		}
		if t.EstadoPago != model.PagoPendiente && t.EstadoPago != model.PagoConSena {
			continue
		}
		if r.s.tieneIngresoServicio(t.ID) {
			continue
		}
		if t.ProfesionalID != profesionalID {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaHoraInicio.Before(out[j].FechaHoraInicio) })
	return out, nil
}

func (r *stubTurnos) MarcarPagadoTx(_ *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.turnos[id]
	if !ok || !t.Cobrable() {
		return repository.ErrTurnoNoCobrable
	}
	t.EstadoPago = model.PagoPagado
	return nil
}

// ── ProductoRepository / MovimientoStockRepository ────────────────────────────

type stubProductos struct{ s *memStore }

var _ repository.ProductoRepository = (*stubProductos)(nil)

func (r *stubProductos) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductos) DescontarStockTx(_ *gorm.DB, id uuid.UUID, cantidad int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.productos[id]
	if !ok || !p.Activo || p.StockActual < cantidad {
		return 0, repository.ErrStockInsuficiente
	}
	p.StockActual -= cantidad
	return p.StockActual, nil
}

type stubMovimientos struct{ s *memStore }

var _ repository.MovimientoStockRepository = (*stubMovimientos)(nil)

func (r *stubMovimientos) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = uuid.New()
	r.s.movimientos = append(r.s.movimientos, *m)
	return nil
}

// ── ClienteRepository / UsuarioRepository ────────────────────────────────────

type stubClientes struct{ s *memStore }

var _ repository.ClienteRepository = (*stubClientes)(nil)

func (r *stubClientes) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clientes[id]
	if !ok || !c.Activo {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

type stubUsuarios struct{ s *memStore }

var _ repository.UsuarioRepository = (*stubUsuarios)(nil)

func (r *stubUsuarios) Create(_ context.Context, u *model.Usuario) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.usuarios {
		if other.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = uuid.New()
	r.s.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarios) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.usuarios {
		if u.Username == username && u.Activo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarios) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

// ── CierreRepository ──────────────────────────────────────────────────────────

type stubCierres struct {
	s *memStore
	// ocultar makes ExistsForEmpleadoFecha report false, simulating a
	// concurrent closing that slipped past the pre-check.
	ocultar bool
}

var _ repository.CierreRepository = (*stubCierres)(nil)

func (r *stubCierres) Create(_ context.Context, c *model.CierreCaja) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.cierres {
		if other.EmpleadoID == c.EmpleadoID && caja.MismoDia(other.Fecha, c.Fecha) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.cierres = append(r.s.cierres, *c)
	return nil
}

func (r *stubCierres) ExistsForEmpleadoFecha(_ context.Context, empleadoID uuid.UUID, fecha time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.ocultar {
		return false, nil
	}
	for _, c := range r.s.cierres {
		if c.EmpleadoID == empleadoID && caja.MismoDia(c.Fecha, fecha) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCierres) FindByID(_ context.Context, id uuid.UUID) (*model.CierreCaja, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.cierres {
		if r.s.cierres[i].ID == id {
			c := r.s.cierres[i]
			c.Empleado = r.s.usuarios[c.EmpleadoID]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCierres) List(_ context.Context, empleadoID *uuid.UUID, page, limit int) ([]model.CierreCaja, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.CierreCaja
	for _, c := range r.s.cierres {
		if empleadoID != nil && c.EmpleadoID != *empleadoID {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Fecha.After(all[j].Fecha) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []model.CierreCaja{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// ── Fixture ───────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

type fixture struct {
	store    *memStore
	cierres  *stubCierres
	micaja   MiCajaService
	admin    Actor
	empleado Actor
	otro     Actor
	cliente  *model.Cliente
	servicio *model.Servicio
}

func newFixture() *fixture {
	s := newMemStore()
	f := &fixture{store: s, cierres: &stubCierres{s: s}}

	mk := func(username, rol string) Actor {
		u := &model.Usuario{ID: uuid.New(), Username: username, Nombre: username, Rol: rol, Activo: true}
		s.usuarios[u.ID] = u
		return Actor{UsuarioID: u.ID, Username: username, Rol: rol}
	}
	f.admin = mk("admin", model.RolAdmin)
	f.empleado = mk("ana", model.RolEmpleado)
	f.otro = mk("luis", model.RolEmpleado)

	f.cliente = &model.Cliente{ID: uuid.New(), Nombre: "María", Apellido: "Pérez", Activo: true}
	s.clientes[f.cliente.ID] = f.cliente
	f.servicio = &model.Servicio{ID: uuid.New(), Nombre: "Limpieza facial", Precio: decimal.NewFromInt(1500), Activo: true}

	f.micaja = NewMiCajaService(MiCajaDeps{
		Transacciones: &stubTransacciones{s: s},
		Turnos:        &stubTurnos{s: s},
		Productos:     &stubProductos{s: s},
		Clientes:      &stubClientes{s: s},
		Usuarios:      &stubUsuarios{s: s},
		Cierres:       f.cierres,
		Inventario:    NewInventarioService(&stubProductos{s: s}, &stubMovimientos{s: s}),
		Location:      time.UTC,
		Now:           func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) turno(profesional Actor, estado, estadoPago string, inicio time.Time) *model.Turno {
	t := &model.Turno{
		ID:              uuid.New(),
		ClienteID:       f.cliente.ID,
		ServicioID:      f.servicio.ID,
		ProfesionalID:   profesional.UsuarioID,
		FechaHoraInicio: inicio,
		Estado:          estado,
		EstadoPago:      estadoPago,
		Cliente:         f.cliente,
		Servicio:        f.servicio,
	}
	f.store.turnos[t.ID] = t
	return t
}

func (f *fixture) producto(nombre string, precio int64, stock int) *model.Producto {
	p := &model.Producto{ID: uuid.New(), Nombre: nombre, PrecioVenta: decimal.NewFromInt(precio), StockActual: stock, Activo: true}
	f.store.productos[p.ID] = p
	return p
}

// transaccion inserts a ledger row directly, bypassing the service.
func (f *fixture) transaccion(actor Actor, tipo caja.TipoTransaccion, metodo caja.MetodoPago, monto string, fecha time.Time) {
	f.store.transacciones = append(f.store.transacciones, model.Transaccion{
		ID:              uuid.New(),
		Tipo:            tipo,
		Monto:           decimal.RequireFromString(monto),
		MetodoPago:      metodo,
		Fecha:           fecha,
		Descripcion:     "manual",
		RegistradoPorID: actor.UsuarioID,
		CreatedAt:       fecha,
	})
}

func hoy() time.Time { return caja.Hoy(fixedNow, time.UTC) }
