package caja

import (
	"github.com/shopspring/decimal"
)

// UmbralAdvertenciaUI is the |diferencia| at which the cash-closing form warns
// before submitting. The backend alert flag uses its own configurable
// threshold; the two are not required to match.
var UmbralAdvertenciaUI = decimal.NewFromInt(100)

// UmbralAlertaDefault is the backend default for the "alerta" flag.
var UmbralAlertaDefault = decimal.NewFromInt(500)

// Diferencia returns contado − sistema. Positive means surplus, negative shortage.
func Diferencia(contado, sistema decimal.Decimal) decimal.Decimal {
	return contado.Sub(sistema)
}

// EfectivoSistema extracts the cash bucket from a por_metodo map keyed by
// display label. Missing bucket counts as zero.
func EfectivoSistema(porMetodo map[string]decimal.Decimal) decimal.Decimal {
	if v, ok := porMetodo[LabelEfectivo]; ok {
		return v
	}
	return decimal.Zero
}

// RequiereAdvertencia reports whether the form should warn the operator.
func RequiereAdvertencia(diferencia decimal.Decimal) bool {
	return diferencia.Abs().GreaterThanOrEqual(UmbralAdvertenciaUI)
}

// EsSignificativa reports whether |diferencia| strictly exceeds umbral.
func EsSignificativa(diferencia, umbral decimal.Decimal) bool {
	return diferencia.Abs().GreaterThan(umbral)
}

// FormatDiferencia renders a signed currency amount: "+$50.00", "-$150.00", "$0.00".
func FormatDiferencia(d decimal.Decimal) string {
	switch {
	case d.IsPositive():
		return "+$" + d.StringFixed(2)
	case d.IsNegative():
		return "-$" + d.Abs().StringFixed(2)
	default:
		return "$" + decimal.Zero.StringFixed(2)
	}
}

// FormatMonto renders an unsigned currency amount with two decimals.
func FormatMonto(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
