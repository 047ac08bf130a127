package cajaclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"micaja/internal/caja"
	"micaja/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	hoy      = "2024-03-15"
	tokenAna = "tok-ana"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeBackend is an in-memory Mi Caja API for one operator.
type fakeBackend struct {
	t  *testing.T
	mu sync.Mutex

	calls     map[string]int
	pending   []PendingCharge
	productos map[string]*Product
	ingresos  map[string]map[string]decimal.Decimal // fecha → label → monto
	cerrados  map[string]bool
	// hideClosed makes resumen-dia report tiene_cierre=false even when a
	// closing exists, as when another register closed concurrently.
	hideClosed bool
	// block holds resumen-dia for a fecha until the channel is closed.
	block map[string]chan struct{}
	// status, when set, answers every non-login request with it.
	status int
	body   string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	b := &fakeBackend{
		t:         t,
		calls:     map[string]int{},
		productos: map[string]*Product{},
		ingresos:  map[string]map[string]decimal.Decimal{},
		cerrados:  map[string]bool{},
		block:     map[string]chan struct{}{},
	}
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

func (b *fakeBackend) addPending(id string, monto string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, PendingCharge{
		ID: id, Cliente: "María Pérez", Servicio: "Limpieza facial",
		Monto: dec(monto), Fecha: hoy, Hora: "10:00", EstadoPago: "PENDIENTE",
	})
}

func (b *fakeBackend) addIngreso(fecha string, metodo caja.MetodoPago, monto string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addIngresoLocked(fecha, metodo, dec(monto))
}

func (b *fakeBackend) addIngresoLocked(fecha string, metodo caja.MetodoPago, monto decimal.Decimal) {
	m, ok := b.ingresos[fecha]
	if !ok {
		m = map[string]decimal.Decimal{}
		b.ingresos[fecha] = m
	}
	m[metodo.Label()] = m[metodo.Label()].Add(monto)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.Method+" "+r.URL.Path]++
	status, body := b.status, b.body
	b.mu.Unlock()

	if r.URL.Path == "/v1/auth/login" {
		var req dto.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "ana" || req.Password != "secreto" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Credenciales invalidas"})
			return
		}
		writeJSON(w, http.StatusOK, dto.LoginResponse{
			AccessToken: tokenAna, RefreshToken: "refresh-ana", TokenType: "Bearer",
			User: dto.UsuarioResponse{Username: "ana", Nombre: "Ana", Rol: "EMPLEADO", Activo: true},
		})
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+tokenAna {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token invalido o expirado"})
		return
	}
	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}

	switch {
	case r.URL.Path == "/v1/mi-caja/turnos-pendientes-cobro":
		b.mu.Lock()
		items := append([]PendingCharge{}, b.pending...)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, dto.TurnosPendientesResponse{Count: len(items), Turnos: items})

	case r.URL.Path == "/v1/mi-caja/cobrar-turno":
		var req dto.CobrarTurnoRequest
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&req))
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, p := range b.pending {
			if p.ID == req.TurnoID {
				b.pending = append(b.pending[:i:i], b.pending[i+1:]...)
				b.addIngresoLocked(hoy, caja.MetodoPago(req.PaymentMethod), req.Amount)
				writeJSON(w, http.StatusCreated, dto.CobrarTurnoResponse{
					Success: true, Message: "Turno cobrado",
					Transaction: dto.TransaccionResponse{ID: "tx-" + p.ID, Type: "INGRESO_SERVICIO", Amount: req.Amount, PaymentMethod: req.PaymentMethod, Date: hoy},
				})
				return
			}
		}
		writeJSON(w, http.StatusConflict, map[string]string{"detail": "El turno ya fue cobrado", "code": "conflict"})

	case r.URL.Path == "/v1/mi-caja/vender-producto":
		var req dto.VenderProductoRequest
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&req))
		b.mu.Lock()
		defer b.mu.Unlock()
		p := b.productos[req.ProductoID]
		if p.StockActual < req.Cantidad {
			writeJSON(w, http.StatusConflict, map[string]string{"detail": "Stock insuficiente", "code": "conflict"})
			return
		}
		v, err := caja.CalcularVenta(p.PrecioVenta, req.Cantidad, req.DescuentoPorcentaje)
		require.NoError(b.t, err)
		p.StockActual -= req.Cantidad
		b.addIngresoLocked(hoy, caja.MetodoPago(req.PaymentMethod), v.Total)
		writeJSON(w, http.StatusCreated, dto.VenderProductoResponse{
			Success:     true,
			Transaction: dto.TransaccionResponse{ID: "tx-venta", Type: "INGRESO_PRODUCTO", Amount: v.Total, PaymentMethod: req.PaymentMethod},
			Producto:    dto.ProductoActualizado{ID: p.ID, Nombre: p.Nombre, StockRestante: p.StockActual},
		})

	case strings.HasPrefix(r.URL.Path, "/v1/mi-caja/productos/"):
		b.mu.Lock()
		p, ok := b.productos[strings.TrimPrefix(r.URL.Path, "/v1/mi-caja/productos/")]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Producto no encontrado", "code": "not_found"})
			return
		}
		writeJSON(w, http.StatusOK, p)

	case r.URL.Path == "/v1/mi-caja/resumen-dia":
		fecha := r.URL.Query().Get("fecha")
		b.mu.Lock()
		ch := b.block[fecha]
		b.mu.Unlock()
		if ch != nil {
			select {
			case <-ch:
			case <-time.After(5 * time.Second):
			}
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		sum := dto.ResumenDiario{Fecha: fecha, Total: decimal.Zero, PorMetodo: map[string]decimal.Decimal{}, Egresos: decimal.Zero}
		for label, monto := range b.ingresos[fecha] {
			sum.PorMetodo[label] = monto
			sum.Total = sum.Total.Add(monto)
			sum.CantidadTransacciones++
		}
		sum.TieneCierre = b.cerrados[fecha] && !b.hideClosed
		writeJSON(w, http.StatusOK, sum)

	case r.URL.Path == "/v1/mi-caja/cierre-caja":
		var req dto.CierreCajaRequest
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&req))
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.cerrados[req.Fecha] {
			writeJSON(w, http.StatusConflict, map[string]string{"detail": "Ya existe un cierre de caja para esta fecha", "code": "conflict"})
			return
		}
		b.cerrados[req.Fecha] = true
		sistema := caja.EfectivoSistema(b.ingresos[req.Fecha])
		dif := caja.Diferencia(req.EfectivoContado, sistema)
		writeJSON(w, http.StatusCreated, dto.CrearCierreResponse{
			Success: true,
			Cierre:  dto.CierreCajaResponse{ID: "cierre-1", Fecha: req.Fecha, EfectivoSistema: sistema, EfectivoContado: req.EfectivoContado, Diferencia: dif},
			Alerta:  caja.EsSignificativa(dif, caja.UmbralAlertaDefault),
		})

	default:
		http.NotFound(w, r)
	}
}

// loggedIn returns a client with an open session against srv.
func loggedIn(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c := New(srv.URL, NewSession(), opts...)
	_, err := c.Login(context.Background(), "ana", "secreto")
	require.NoError(t, err)
	return c
}
