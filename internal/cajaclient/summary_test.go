package cajaclient

import (
	"context"
	"testing"
	"time"

	"micaja/internal/caja"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryLoader_TotalYPorMetodo(t *testing.T) {
	b, srv := newFakeBackend(t)
	b.addIngreso(hoy, caja.MetodoEfectivo, "1500")
	b.addIngreso(hoy, caja.MetodoEfectivo, "500")
	b.addIngreso(hoy, caja.MetodoTarjetaDebito, "700")
	loader := NewSummaryLoader(loggedIn(t, srv))

	_, ok := loader.Current()
	assert.False(t, ok)

	sum, err := loader.Load(context.Background(), hoy)
	require.NoError(t, err)
	assert.True(t, dec("2700").Equal(sum.Total))
	assert.True(t, dec("2000").Equal(sum.PorMetodo["Efectivo"]))
	assert.True(t, dec("700").Equal(sum.PorMetodo["Débito"]))
	assert.False(t, sum.TieneCierre)

	// Callers get copies.
	sum.PorMetodo["Efectivo"] = dec("0")
	cur, ok := loader.Current()
	require.True(t, ok)
	assert.True(t, dec("2000").Equal(cur.PorMetodo["Efectivo"]))
}

func TestSummaryLoader_DescartaRespuestaObsoleta(t *testing.T) {
	b, srv := newFakeBackend(t)
	b.addIngreso("2024-03-14", caja.MetodoEfectivo, "999")
	b.addIngreso(hoy, caja.MetodoEfectivo, "100")
	release := make(chan struct{})
	b.block["2024-03-14"] = release
	loader := NewSummaryLoader(loggedIn(t, srv))

	type result struct {
		sum *DailySummary
		err error
	}
	slow := make(chan result, 1)
	go func() {
		s, err := loader.Load(context.Background(), "2024-03-14")
		slow <- result{s, err}
	}()

	// Wait until the slow request reached the backend.
	require.Eventually(t, func() bool { return b.count("GET", "/v1/mi-caja/resumen-dia") == 1 }, 2*time.Second, 5*time.Millisecond)

	sum, err := loader.Load(context.Background(), hoy)
	require.NoError(t, err)
	assert.Equal(t, hoy, sum.Fecha)

	close(release)
	r := <-slow
	assert.ErrorIs(t, r.err, ErrStale)
	assert.Nil(t, r.sum)

	cur, ok := loader.Current()
	require.True(t, ok)
	assert.Equal(t, hoy, cur.Fecha)
	assert.True(t, dec("100").Equal(cur.Total))
}
