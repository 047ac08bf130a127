package handler

import (
	"net/http"

	"micaja/internal/dto"
	"micaja/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MiCajaHandler serves the operator's own register: charges, sales and
// the daily summary.
type MiCajaHandler struct {
	svc    service.MiCajaService
	export service.ExportService
}

func NewMiCajaHandler(svc service.MiCajaService, export service.ExportService) *MiCajaHandler {
	return &MiCajaHandler{svc: svc, export: export}
}

// TurnosPendientes godoc
// @Summary Turnos completados pendientes de cobro
// @Tags mi-caja
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.TurnosPendientesResponse
// @Router /v1/mi-caja/turnos-pendientes-cobro [get]
func (h *MiCajaHandler) TurnosPendientes(c *gin.Context) {
	resp, err := h.svc.TurnosPendientes(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CobrarTurno godoc
// @Summary Cobrar un turno completado
// @Tags mi-caja
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CobrarTurnoRequest true "Cobro"
// @Success 201 {object} dto.CobrarTurnoResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/mi-caja/cobrar-turno [post]
func (h *MiCajaHandler) CobrarTurno(c *gin.Context) {
	var req dto.CobrarTurnoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CobrarTurno(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// VenderProducto godoc
// @Summary Vender un producto
// @Tags mi-caja
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.VenderProductoRequest true "Venta"
// @Success 201 {object} dto.VenderProductoResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "Stock insuficiente"
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/mi-caja/vender-producto [post]
func (h *MiCajaHandler) VenderProducto(c *gin.Context) {
	var req dto.VenderProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.VenderProducto(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// VentaUnificada godoc
// @Summary Cobrar productos y turnos en una sola operacion
// @Tags mi-caja
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.VentaUnificadaRequest true "Items"
// @Success 201 {object} dto.VentaUnificadaResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/mi-caja/venta-unificada [post]
func (h *MiCajaHandler) VentaUnificada(c *gin.Context) {
	var req dto.VentaUnificadaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.VentaUnificada(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MisTransacciones godoc
// @Summary Transacciones del operador en una fecha
// @Tags mi-caja
// @Security BearerAuth
// @Produce json
// @Param fecha query string false "YYYY-MM-DD (default hoy)"
// @Param payment_method query string false "Filtrar por metodo de pago"
// @Success 200 {object} dto.MisTransaccionesResponse
// @Router /v1/mi-caja/mis-transacciones [get]
func (h *MiCajaHandler) MisTransacciones(c *gin.Context) {
	var filter dto.MisTransaccionesFilter
	_ = c.ShouldBindQuery(&filter)
	resp, err := h.svc.MisTransacciones(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportarTransacciones godoc
// @Summary Exportar transacciones del dia a Excel
// @Tags mi-caja
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param fecha query string false "YYYY-MM-DD (default hoy)"
// @Success 200 {file} binary
// @Router /v1/mi-caja/mis-transacciones/export [get]
func (h *MiCajaHandler) ExportarTransacciones(c *gin.Context) {
	data, filename, err := h.export.MisTransaccionesXLSX(c.Request.Context(), actorFrom(c), c.Query("fecha"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Producto godoc
// @Summary Precio y stock actual de un producto
// @Tags mi-caja
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID del producto"
// @Success 200 {object} dto.ProductoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/mi-caja/productos/{id} [get]
func (h *MiCajaHandler) Producto(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Producto(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResumenDia godoc
// @Summary Resumen de ingresos del dia
// @Tags mi-caja
// @Security BearerAuth
// @Produce json
// @Param fecha query string false "YYYY-MM-DD (default hoy)"
// @Success 200 {object} dto.ResumenDiario
// @Failure 422 {object} apierror.APIError
// @Router /v1/mi-caja/resumen-dia [get]
func (h *MiCajaHandler) ResumenDia(c *gin.Context) {
	resp, err := h.svc.ResumenDia(c.Request.Context(), actorFrom(c), c.Query("fecha"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
