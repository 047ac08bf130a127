// Package caja holds the business rules shared by the backend and the
// client library: payment methods, transaction kinds, sale arithmetic and
// cash-closing variance.
package caja

import (
	"fmt"
	"strings"
)

// MetodoPago is the settlement channel of a transaction.
type MetodoPago string

const (
	MetodoEfectivo       MetodoPago = "EFECTIVO"
	MetodoTransferencia  MetodoPago = "TRANSFERENCIA"
	MetodoTarjetaDebito  MetodoPago = "TARJETA_DEBITO"
	MetodoTarjetaCredito MetodoPago = "TARJETA_CREDITO"
	MetodoMercadoPago    MetodoPago = "MERCADOPAGO"
	MetodoOtro           MetodoPago = "OTRO"
)

// LabelEfectivo is the display label of the cash bucket in a daily summary.
const LabelEfectivo = "Efectivo"

var metodoLabels = map[MetodoPago]string{
	MetodoEfectivo:       LabelEfectivo,
	MetodoTransferencia:  "Transferencia",
	MetodoTarjetaDebito:  "Débito",
	MetodoTarjetaCredito: "Crédito",
	MetodoMercadoPago:    "MercadoPago",
	MetodoOtro:           "Otro",
}

// MetodosPago lists every accepted method in display order.
func MetodosPago() []MetodoPago {
	return []MetodoPago{
		MetodoEfectivo, MetodoTransferencia, MetodoTarjetaDebito,
		MetodoTarjetaCredito, MetodoMercadoPago, MetodoOtro,
	}
}

// Label returns the human-readable name used as key in por_metodo maps.
func (m MetodoPago) Label() string {
	if l, ok := metodoLabels[m]; ok {
		return l
	}
	return string(m)
}

func (m MetodoPago) Valid() bool {
	_, ok := metodoLabels[m]
	return ok
}

// ParseMetodoPago accepts the canonical code in any case.
func ParseMetodoPago(s string) (MetodoPago, error) {
	m := MetodoPago(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("método de pago inválido: %q", s)
	}
	return m, nil
}

// TipoTransaccion classifies a monetary event.
type TipoTransaccion string

const (
	TipoIngresoServicio TipoTransaccion = "INGRESO_SERVICIO"
	TipoIngresoProducto TipoTransaccion = "INGRESO_PRODUCTO"
	TipoIngresoOtro     TipoTransaccion = "INGRESO_OTRO"
	TipoGasto           TipoTransaccion = "GASTO"
)

func (t TipoTransaccion) EsIngreso() bool {
	return strings.HasPrefix(string(t), "INGRESO_")
}
