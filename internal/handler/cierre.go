package handler

import (
	"net/http"

	"micaja/internal/dto"
	"micaja/internal/service"

	"github.com/gin-gonic/gin"
)

type CierreHandler struct{ svc service.CierreService }

func NewCierreHandler(svc service.CierreService) *CierreHandler {
	return &CierreHandler{svc: svc}
}

// Cerrar godoc
// @Summary Cerrar la caja del dia
// @Description Registra el efectivo contado contra el efectivo del sistema. Un solo cierre por operador y fecha.
// @Tags mi-caja
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CierreCajaRequest true "Cierre"
// @Success 201 {object} dto.CrearCierreResponse
// @Failure 409 {object} apierror.APIError "Ya existe un cierre"
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/mi-caja/cierre-caja [post]
func (h *CierreHandler) Cerrar(c *gin.Context) {
	var req dto.CierreCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Historial godoc
// @Summary Historial de cierres
// @Tags mi-caja
// @Security BearerAuth
// @Produce json
// @Param page query int false "Pagina (default 1)"
// @Param limit query int false "Items por pagina (default 20, max 100)"
// @Success 200 {object} dto.CierresPage
// @Router /v1/mi-caja/cierres [get]
func (h *CierreHandler) Historial(c *gin.Context) {
	resp, err := h.svc.Historial(c.Request.Context(), actorFrom(c), queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Detalle de un cierre
// @Tags mi-caja
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID del cierre"
// @Success 200 {object} dto.CierreCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/mi-caja/cierres/{id} [get]
func (h *CierreHandler) Obtener(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarPDF godoc
// @Summary Reporte PDF de un cierre
// @Tags mi-caja
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "ID del cierre"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/mi-caja/cierres/{id}/pdf [get]
func (h *CierreHandler) DescargarPDF(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.svc.ReportePDF(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
