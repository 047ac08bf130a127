package worker

// cierre_alerta_worker.go
// Processes jobs from QueueCierreAlerta: emails the closing report to the
// configured supervisor address when the variance exceeds the threshold.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"micaja/internal/caja"
	"micaja/internal/infra"
	"micaja/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type cierreFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error)
}

type mailSender interface {
	Send(to []string, subject, body string, attachments ...infra.Attachment) error
}

// CierreAlertaWorker emails the closing PDF to the alert recipient.
type CierreAlertaWorker struct {
	cierres cierreFinder
	mailer  mailSender
	to      string
	archivo string
}

func NewCierreAlertaWorker(cierres cierreFinder, mailer mailSender, to string) *CierreAlertaWorker {
	return &CierreAlertaWorker{cierres: cierres, mailer: mailer, to: to}
}

// WithArchivo keeps a copy of every alert PDF under dir.
func (w *CierreAlertaWorker) WithArchivo(dir string) *CierreAlertaWorker {
	w.archivo = dir
	return w
}

func (w *CierreAlertaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload CierreAlertaPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("cierre_alerta: invalid payload: %w", err)
	}
	if w.to == "" {
		log.Warn().Str("job_type", JobCierreAlerta).Msg("cierre_alerta: CIERRE_ALERTA_EMAIL vacío, se omite")
		return nil
	}
	if payload.CierreID == uuid.Nil {
		return errors.New("cierre_alerta: cierre_id vacío")
	}

	c, err := w.cierres.FindByID(ctx, payload.CierreID)
	if err != nil {
		return fmt.Errorf("cierre_alerta: buscar cierre: %w", err)
	}
	pdf, err := infra.RenderCierrePDF(c)
	if err != nil {
		return err
	}
	if w.archivo != "" {
		if path, err := infra.SaveCierrePDF(c, pdf, w.archivo); err != nil {
			log.Warn().Err(err).Str("job_type", JobCierreAlerta).Msg("cierre_alerta: no se pudo archivar el PDF")
		} else {
			log.Debug().Str("path", path).Msg("cierre_alerta: PDF archivado")
		}
	}

	empleado := c.EmpleadoID.String()
	if c.Empleado != nil {
		empleado = c.Empleado.NombreCompleto()
	}
	subject := fmt.Sprintf("Alerta de cierre de caja: %s %s", empleado, caja.FormatFecha(c.Fecha))
	body := fmt.Sprintf(
		"El cierre de caja de %s del %s registra una diferencia de %s.\n\nEfectivo esperado: %s\nEfectivo contado: %s\n",
		empleado, caja.FormatFecha(c.Fecha), caja.FormatDiferencia(c.Diferencia),
		caja.FormatMonto(c.EfectivoSistema), caja.FormatMonto(c.EfectivoContado),
	)
	if err := w.mailer.Send([]string{w.to}, subject, body, infra.Attachment{
		Filename:    infra.CierrePDFFilename(c),
		ContentType: "application/pdf",
		Data:        pdf,
	}); err != nil {
		return fmt.Errorf("cierre_alerta: enviar email: %w", err)
	}
	log.Info().Str("job_type", JobCierreAlerta).Str("cierre_id", c.ID.String()).Msg("cierre_alerta: email enviado")
	return nil
}
