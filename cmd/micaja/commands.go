package main

import (
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"micaja/internal/caja"
	"micaja/internal/cajaclient"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

// register bundles the client components one command needs, logged in.
type register struct {
	client  *cajaclient.Client
	pending *cajaclient.PendingCollector
	rec     *cajaclient.Recorder
	summary *cajaclient.SummaryLoader
	recon   *cajaclient.Reconciler
}

func open(c *cli.Context) (*register, error) {
	client := cajaclient.New(c.String("api"), cajaclient.NewSession(),
		cajaclient.WithHTTPClient(&http.Client{Timeout: c.Duration("timeout")}))
	if _, err := client.Login(c.Context, c.String("user"), c.String("password")); err != nil {
		return nil, err
	}
	pending := cajaclient.NewPendingCollector(client)
	summary := cajaclient.NewSummaryLoader(client)
	return &register{
		client:  client,
		pending: pending,
		rec:     cajaclient.NewRecorder(client, pending),
		summary: summary,
		recon:   cajaclient.NewReconciler(client, summary),
	}, nil
}

func parseMonto(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &cajaclient.ValidationError{Field: field, Message: "monto inválido: " + raw}
	}
	return d, nil
}

func parseMetodo(raw string) (caja.MetodoPago, error) {
	m, err := caja.ParseMetodoPago(raw)
	if err != nil {
		return "", &cajaclient.ValidationError{Field: "metodo", Message: err.Error()}
	}
	return m, nil
}

var metodoFlag = &cli.StringFlag{
	Name:  "metodo",
	Value: string(caja.MetodoEfectivo),
	Usage: "EFECTIVO | TRANSFERENCIA | TARJETA_DEBITO | TARJETA_CREDITO | MERCADOPAGO | OTRO",
}

// ── pendientes ───────────────────────────────────────────────────────────────

func pendientesCmd() *cli.Command {
	return &cli.Command{
		Name:  "pendientes",
		Usage: "lista los turnos completados pendientes de cobro",
		Action: func(c *cli.Context) error {
			r, err := open(c)
			if err != nil {
				return err
			}
			items, err := r.pending.Refresh(c.Context)
			if err != nil {
				return err
			}
			printPendientes(c.App.Writer, items)
			return nil
		},
	}
}

func printPendientes(w io.Writer, items []cajaclient.PendingCharge) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No hay turnos pendientes de cobro.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TURNO\tFECHA\tHORA\tCLIENTE\tSERVICIO\tMONTO\tPAGO")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Fecha, it.Hora, it.Cliente, it.Servicio, caja.FormatMonto(it.Monto), it.EstadoPago)
	}
	_ = tw.Flush()
}

// ── cobrar ───────────────────────────────────────────────────────────────────

func cobrarCmd() *cli.Command {
	return &cli.Command{
		Name:  "cobrar",
		Usage: "cobra un turno pendiente",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "turno", Required: true},
			&cli.StringFlag{Name: "monto", Usage: "por defecto el monto del turno"},
			metodoFlag,
			&cli.StringFlag{Name: "notas"},
		},
		Action: func(c *cli.Context) error {
			r, err := open(c)
			if err != nil {
				return err
			}
			if _, err := r.pending.Refresh(c.Context); err != nil {
				return err
			}
			metodo, err := parseMetodo(c.String("metodo"))
			if err != nil {
				return err
			}
			in := cajaclient.ChargeInput{TurnoID: c.String("turno"), Metodo: metodo, Notas: c.String("notas")}
			if raw := c.String("monto"); raw != "" {
				if in.Amount, err = parseMonto("monto", raw); err != nil {
					return err
				}
			} else if it, ok := r.pending.Get(in.TurnoID); ok {
				in.Amount = it.Monto
			}

			tx, err := r.rec.ChargeAppointment(c.Context, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Cobrado %s (%s): %s\n", caja.FormatMonto(tx.Amount), metodo.Label(), tx.Description)
			return nil
		},
	}
}

// ── vender ───────────────────────────────────────────────────────────────────

func venderCmd() *cli.Command {
	return &cli.Command{
		Name:  "vender",
		Usage: "vende un producto",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "producto", Required: true},
			&cli.IntFlag{Name: "cantidad", Value: 1},
			&cli.StringFlag{Name: "cliente", Required: true},
			metodoFlag,
			&cli.StringFlag{Name: "descuento", Value: "0", Usage: "porcentaje 0-100"},
		},
		Action: func(c *cli.Context) error {
			r, err := open(c)
			if err != nil {
				return err
			}
			metodo, err := parseMetodo(c.String("metodo"))
			if err != nil {
				return err
			}
			pct, err := parseMonto("descuento", c.String("descuento"))
			if err != nil {
				return err
			}
			prod, err := r.client.GetProduct(c.Context, c.String("producto"))
			if err != nil {
				return err
			}

			res, err := r.rec.SellProduct(c.Context, cajaclient.SaleInput{
				Producto:     *prod,
				Cantidad:     c.Int("cantidad"),
				ClienteID:    c.String("cliente"),
				Metodo:       metodo,
				DescuentoPct: pct,
			})
			if err != nil {
				return err
			}
			printVenta(c.App.Writer, res)
			return nil
		},
	}
}

func printVenta(w io.Writer, res *cajaclient.SaleResult) {
	v := res.Venta
	fmt.Fprintf(w, "%s x%d\n", res.Producto.Nombre, v.Cantidad)
	fmt.Fprintf(w, "  Subtotal:  %s\n", caja.FormatMonto(v.Subtotal))
	if v.DescuentoMonto.IsPositive() {
		fmt.Fprintf(w, "  Descuento: %s (%s%%)\n", caja.FormatMonto(v.DescuentoMonto), v.DescuentoPorcentaje.String())
	}
	fmt.Fprintf(w, "  Total:     %s\n", caja.FormatMonto(v.Total))
	if res.PrecioCambiado {
		fmt.Fprintf(w, "  ATENCIÓN: el precio cambió, se cobró %s\n", caja.FormatMonto(res.Transaction.Amount))
	}
	fmt.Fprintf(w, "  Stock restante: %d\n", res.Producto.StockActual)
}

// ── resumen ──────────────────────────────────────────────────────────────────

func resumenCmd() *cli.Command {
	return &cli.Command{
		Name:  "resumen",
		Usage: "muestra el resumen de ingresos del día",
		Flags: []cli.Flag{&cli.StringFlag{Name: "fecha", Usage: "YYYY-MM-DD, por defecto hoy"}},
		Action: func(c *cli.Context) error {
			r, err := open(c)
			if err != nil {
				return err
			}
			sum, err := r.summary.Load(c.Context, c.String("fecha"))
			if err != nil {
				return err
			}
			printResumen(c.App.Writer, sum)
			return nil
		},
	}
}

func printResumen(w io.Writer, sum *cajaclient.DailySummary) {
	estado := "ABIERTA"
	if sum.TieneCierre {
		estado = "CERRADA"
	}
	fmt.Fprintf(w, "Caja %s: %s\n", sum.Fecha, estado)
	fmt.Fprintf(w, "Total: %s en %d transacciones\n", caja.FormatMonto(sum.Total), sum.CantidadTransacciones)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range caja.MetodosPago() {
		if v, ok := sum.PorMetodo[m.Label()]; ok {
			fmt.Fprintf(tw, "  %s\t%s\n", m.Label(), caja.FormatMonto(v))
		}
	}
	_ = tw.Flush()
	if sum.Egresos.IsPositive() {
		fmt.Fprintf(w, "Egresos: %s\n", caja.FormatMonto(sum.Egresos))
	}
}

// ── cerrar ───────────────────────────────────────────────────────────────────

func cerrarCmd() *cli.Command {
	return &cli.Command{
		Name:  "cerrar",
		Usage: "cierra la caja comparando el efectivo contado con el del sistema",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fecha", Required: true, Usage: "YYYY-MM-DD"},
			&cli.StringFlag{Name: "contado", Required: true, Usage: "efectivo contado"},
			&cli.StringFlag{Name: "notas"},
			&cli.BoolFlag{Name: "si", Usage: "confirmar aunque la diferencia sea grande"},
		},
		Action: func(c *cli.Context) error {
			contado, err := parseMonto("contado", c.String("contado"))
			if err != nil {
				return err
			}
			r, err := open(c)
			if err != nil {
				return err
			}
			fecha := c.String("fecha")
			if _, err := r.summary.Load(c.Context, fecha); err != nil {
				return err
			}
			pv, err := r.recon.Preview(contado)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Efectivo sistema: %s\nEfectivo contado: %s\nDiferencia: %s\n",
				caja.FormatMonto(pv.EfectivoSistema), caja.FormatMonto(pv.EfectivoContado), pv.Display)
			if pv.Advertencia && !c.Bool("si") {
				return &cajaclient.ValidationError{
					Field:   "contado",
					Message: fmt.Sprintf("la diferencia %s supera %s; repita con --si para confirmar", pv.Display, caja.FormatMonto(caja.UmbralAdvertenciaUI)),
				}
			}

			res, err := r.recon.Close(c.Context, fecha, contado, c.String("notas"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Caja cerrada (%s).\n", res.Cierre.ID)
			if res.Alerta {
				fmt.Fprintln(c.App.Writer, "ALERTA: diferencia significativa, se notificó al supervisor.")
			}
			return nil
		},
	}
}
