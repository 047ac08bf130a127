package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CobrarTurnoRequest struct {
	TurnoID       string          `json:"turno_id"       validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"         validate:"gt=0"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=EFECTIVO TRANSFERENCIA TARJETA_DEBITO TARJETA_CREDITO MERCADOPAGO OTRO"`
	Notas         string          `json:"notas"          validate:"max=1000"`
}

type VenderProductoRequest struct {
	ProductoID          string          `json:"producto_id"          validate:"required,uuid"`
	Cantidad            int             `json:"cantidad"             validate:"required,min=1"`
	ClienteID           string          `json:"cliente_id"           validate:"required,uuid"`
	PaymentMethod       string          `json:"payment_method"       validate:"required,oneof=EFECTIVO TRANSFERENCIA TARJETA_DEBITO TARJETA_CREDITO MERCADOPAGO OTRO"`
	DescuentoPorcentaje decimal.Decimal `json:"descuento_porcentaje" validate:"min=0,max=100"`
}

// VentaUnificadaItem is one line of a unified sale: a product or a turno.
type VentaUnificadaItem struct {
	Tipo                string          `json:"tipo"                 validate:"required,oneof=producto servicio"`
	ProductoID          string          `json:"producto_id"          validate:"omitempty,uuid"`
	TurnoID             string          `json:"turno_id"             validate:"omitempty,uuid"`
	Cantidad            int             `json:"cantidad"             validate:"min=0"`
	DescuentoPorcentaje decimal.Decimal `json:"descuento_porcentaje" validate:"min=0,max=100"`
}

type VentaUnificadaRequest struct {
	Items         []VentaUnificadaItem `json:"items"          validate:"required,min=1,dive"`
	ClienteID     string               `json:"cliente_id"     validate:"required,uuid"`
	PaymentMethod string               `json:"payment_method" validate:"required,oneof=EFECTIVO TRANSFERENCIA TARJETA_DEBITO TARJETA_CREDITO MERCADOPAGO OTRO"`
	Notas         string               `json:"notas"          validate:"max=1000"`
}

type CierreCajaRequest struct {
	Fecha           string          `json:"fecha"            validate:"required,datetime=2006-01-02"`
	EfectivoContado decimal.Decimal `json:"efectivo_contado" validate:"min=0"`
	Notas           string          `json:"notas"            validate:"max=2000"`
}

// MisTransaccionesFilter is bound from the query string.
type MisTransaccionesFilter struct {
	Fecha         string `form:"fecha"`
	PaymentMethod string `form:"payment_method"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransaccionResponse struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	Date            string          `json:"date"`
	Description     string          `json:"description"`
	CreatedByNombre *string         `json:"created_by_nombre"`
	ClienteNombre   *string         `json:"cliente_nombre"`
	Concepto        string          `json:"concepto"`
	CreatedAt       string          `json:"created_at"`
}

type CobrarTurnoResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Transaction TransaccionResponse `json:"transaction"`
}

// ProductoResponse is the snapshot a sale form validates quantity against.
type ProductoResponse struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	PrecioVenta decimal.Decimal `json:"precio_venta"`
	StockActual int             `json:"stock_actual"`
	StockMinimo int             `json:"stock_minimo"`
}

type ProductoActualizado struct {
	ID            string `json:"id"`
	Nombre        string `json:"nombre"`
	StockRestante int    `json:"stock_restante"`
}

type VenderProductoResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Transaction TransaccionResponse `json:"transaction"`
	Producto    ProductoActualizado `json:"producto"`
}

type VentaUnificadaResponse struct {
	Success               bool                  `json:"success"`
	Message               string                `json:"message"`
	Transactions          []TransaccionResponse `json:"transactions"`
	ProductosActualizados []ProductoActualizado `json:"productos_actualizados"`
	TotalItems            int                   `json:"total_items"`
	TotalMonto            decimal.Decimal       `json:"total_monto"`
}

type TurnoPendienteCobro struct {
	ID         string          `json:"id"`
	Cliente    string          `json:"cliente"`
	Servicio   string          `json:"servicio"`
	Monto      decimal.Decimal `json:"monto"`
	Fecha      string          `json:"fecha"`
	Hora       string          `json:"hora"`
	EstadoPago string          `json:"estado_pago"`
}

type TurnosPendientesResponse struct {
	Count  int                   `json:"count"`
	Turnos []TurnoPendienteCobro `json:"turnos"`
}

type ResumenDiario struct {
	Fecha                 string                     `json:"fecha"`
	Total                 decimal.Decimal            `json:"total"`
	CantidadTransacciones int                        `json:"cantidad_transacciones"`
	PorMetodo             map[string]decimal.Decimal `json:"por_metodo"`
	Egresos               decimal.Decimal            `json:"egresos"`
	TieneCierre           bool                       `json:"tiene_cierre"`
}

type EmpleadoRef struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type ResumenTransacciones struct {
	Total                 decimal.Decimal            `json:"total"`
	CantidadTransacciones int                        `json:"cantidad_transacciones"`
	PorMetodo             map[string]decimal.Decimal `json:"por_metodo"`
}

type MisTransaccionesResponse struct {
	Fecha         string                `json:"fecha"`
	Empleado      EmpleadoRef           `json:"empleado"`
	Resumen       ResumenTransacciones  `json:"resumen"`
	Transacciones []TransaccionResponse `json:"transacciones"`
}

type CierreCajaResponse struct {
	ID                      string                     `json:"id"`
	Empleado                string                     `json:"empleado"`
	EmpleadoNombre          string                     `json:"empleado_nombre"`
	Fecha                   string                     `json:"fecha"`
	TotalSistema            decimal.Decimal            `json:"total_sistema"`
	EfectivoSistema         decimal.Decimal            `json:"efectivo_sistema"`
	EfectivoContado         decimal.Decimal            `json:"efectivo_contado"`
	Diferencia              decimal.Decimal            `json:"diferencia"`
	DesgloseMetodos         map[string]decimal.Decimal `json:"desglose_metodos"`
	Notas                   string                     `json:"notas"`
	TieneDiferencia         bool                       `json:"tiene_diferencia"`
	DiferenciaSignificativa bool                       `json:"diferencia_significativa"`
	CerradoEn               string                     `json:"cerrado_en"`
}

type CrearCierreResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Cierre  CierreCajaResponse `json:"cierre"`
	Alerta  bool               `json:"alerta"`
}

// CierresPage is the paginated list envelope.
type CierresPage struct {
	Count    int64                `json:"count"`
	Next     *int                 `json:"next"`
	Previous *int                 `json:"previous"`
	Results  []CierreCajaResponse `json:"results"`
}
