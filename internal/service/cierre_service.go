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
)

// Locker serializes work on a key across processes.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// AlertaDispatcher enqueues the alert email of a closing.
type AlertaDispatcher interface {
	EnqueueCierreAlerta(ctx context.Context, cierreID uuid.UUID) error
}

type CierreService interface {
	Cerrar(ctx context.Context, actor Actor, req dto.CierreCajaRequest) (*dto.CrearCierreResponse, error)
	Obtener(ctx context.Context, actor Actor, id uuid.UUID) (*dto.CierreCajaResponse, error)
	Historial(ctx context.Context, actor Actor, page, limit int) (*dto.CierresPage, error)
	// ReportePDF renders the closing report and returns the bytes and a file name.
	ReportePDF(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error)
}

// CierreDeps groups the collaborators of CierreService.
type CierreDeps struct {
	Cierres       repository.CierreRepository
	Transacciones repository.TransaccionRepository
	Locker        Locker
	Dispatcher    AlertaDispatcher
	Metrics       *infra.Metrics
	Umbral        decimal.Decimal
	LockTTL       time.Duration
	Location      *time.Location
	Now           Clock
}

type cierreService struct {
	CierreDeps
}

func NewCierreService(deps CierreDeps) CierreService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 15 * time.Second
	}
	if deps.Umbral.IsZero() {
		deps.Umbral = caja.UmbralAlertaDefault
	}
	return &cierreService{CierreDeps: deps}
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
//   1. Validate date (not in the future) and counted cash (not negative)
//   2. Lock empleado+fecha, reject if a closing already exists
//   3. Snapshot the day's income, compute variance and alert flag
//   4. INSERT (unique index on empleado_id, fecha backs the pre-check)
//   5. (async) alert email when the variance exceeds the threshold

func (s *cierreService) Cerrar(ctx context.Context, actor Actor, req dto.CierreCajaRequest) (*dto.CrearCierreResponse, error) {
	fecha, err := caja.ParseFecha(req.Fecha, s.Location)
	if err != nil {
		return nil, apierror.Validation("Formato de fecha inválido. Use YYYY-MM-DD")
	}
	if fecha.After(caja.Hoy(s.Now(), s.Location)) {
		return nil, apierror.Validation("No se puede cerrar caja de una fecha futura")
	}
	if req.EfectivoContado.IsNegative() {
		return nil, apierror.Validation("El efectivo contado no puede ser negativo")
	}

	release, err := s.lock(ctx, actor.UsuarioID, fecha)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("cierre: release lock")
		}
	}()

	existe, err := s.Cierres.ExistsForEmpleadoFecha(ctx, actor.UsuarioID, fecha)
	if err != nil {
		return nil, err
	}
	if existe {
		return nil, apierror.Conflict("Ya existe un cierre de caja para el %s", caja.FormatFecha(fecha))
	}

	rows, err := s.Transacciones.SumByRegistradorFecha(ctx, actor.UsuarioID, fecha)
	if err != nil {
		return nil, err
	}
	r := resumir(rows)
	efectivoSistema := caja.EfectivoSistema(r.porMetodo)
	contado := req.EfectivoContado.Round(2)
	diferencia := caja.Diferencia(contado, efectivoSistema)
	alerta := caja.EsSignificativa(diferencia, s.Umbral)

	cierre := &model.CierreCaja{
		ID:              uuid.New(),
		EmpleadoID:      actor.UsuarioID,
		Fecha:           fecha,
		TotalSistema:    r.total,
		EfectivoSistema: efectivoSistema,
		EfectivoContado: contado,
		Diferencia:      diferencia,
		DesgloseMetodos: model.DesgloseMetodos(r.porMetodo),
		Notas:           req.Notas,
		CerradoEn:       s.Now(),
	}
	if err := s.Cierres.Create(ctx, cierre); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apierror.Conflict("Ya existe un cierre de caja para el %s", caja.FormatFecha(fecha))
		}
		return nil, err
	}

	s.Metrics.RecordCierre(diferencia, alerta)
	log.Info().
		Str("cierre_id", cierre.ID.String()).
		Str("usuario_id", actor.UsuarioID.String()).
		Str("fecha", caja.FormatFecha(fecha)).
		Str("diferencia", diferencia.StringFixed(2)).
		Bool("alerta", alerta).
		Msg("cierre de caja registrado")

	if alerta && s.Dispatcher != nil {
		if err := s.Dispatcher.EnqueueCierreAlerta(ctx, cierre.ID); err != nil {
			log.Warn().Err(err).Str("cierre_id", cierre.ID.String()).Msg("cierre: no se pudo encolar la alerta")
		}
	}

	msg := "Cierre de caja registrado exitosamente"
	if alerta {
		msg = fmt.Sprintf("Cierre registrado con diferencia significativa de %s", caja.FormatDiferencia(diferencia))
	}
	return &dto.CrearCierreResponse{
		Success: true,
		Message: msg,
		Cierre:  cierreToResponse(cierre, s.Umbral),
		Alerta:  alerta,
	}, nil
}

// lock obtains the empleado+fecha lock. A busy lock is a conflict; a Redis
// failure degrades to the unique index alone.
func (s *cierreService) lock(ctx context.Context, empleadoID uuid.UUID, fecha time.Time) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if s.Locker == nil {
		return noop, nil
	}
	key := fmt.Sprintf("cierre:%s:%s", empleadoID, caja.FormatFecha(fecha))
	release, err := s.Locker.Obtain(ctx, key, s.LockTTL)
	switch {
	case errors.Is(err, infra.ErrLockNotObtained):
		return nil, apierror.Conflict("Ya hay un cierre de caja en curso para esta fecha")
	case err != nil:
		log.Warn().Err(err).Str("key", key).Msg("cierre: redis lock no disponible, se continúa sin lock")
		return noop, nil
	}
	return release, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cierreService) find(ctx context.Context, actor Actor, id uuid.UUID) (*model.CierreCaja, error) {
	c, err := s.Cierres.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.NotFound("Cierre no encontrado")
	}
	if err != nil {
		return nil, err
	}
	if !actor.PuedeVerTodo() && c.EmpleadoID != actor.UsuarioID {
		return nil, apierror.Forbidden("No tienes permiso para ver este cierre")
	}
	return c, nil
}

func (s *cierreService) Obtener(ctx context.Context, actor Actor, id uuid.UUID) (*dto.CierreCajaResponse, error) {
	c, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := cierreToResponse(c, s.Umbral)
	return &resp, nil
}

// Historial lists closings newest first. EMPLEADO only sees their own.
func (s *cierreService) Historial(ctx context.Context, actor Actor, page, limit int) (*dto.CierresPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var empleado *uuid.UUID
	if !actor.PuedeVerTodo() {
		empleado = &actor.UsuarioID
	}
	cierres, total, err := s.Cierres.List(ctx, empleado, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.CierresPage{
		Count:   total,
		Results: make([]dto.CierreCajaResponse, 0, len(cierres)),
	}
	for i := range cierres {
		resp.Results = append(resp.Results, cierreToResponse(&cierres[i], s.Umbral))
	}
	if int64(page*limit) < total {
		next := page + 1
		resp.Next = &next
	}
	if page > 1 {
		prev := page - 1
		resp.Previous = &prev
	}
	return resp, nil
}

func (s *cierreService) ReportePDF(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error) {
	c, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	data, err := infra.RenderCierrePDF(c)
	if err != nil {
		return nil, "", err
	}
	return data, infra.CierrePDFFilename(c), nil
}
