// cmd/micaja: caja diaria desde la terminal.
// Uso: micaja --api http://localhost:8000 --user ana --password *** resumen --fecha 2024-03-15
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"micaja/internal/cajaclient"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(zerolog.WarnLevel)

	app := &cli.App{
		Name:  "micaja",
		Usage: "cobros, ventas, resumen y cierre de la caja del día",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:8000", EnvVars: []string{"MICAJA_API_URL"}, Usage: "URL del backend"},
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, EnvVars: []string{"MICAJA_USERNAME"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"MICAJA_PASSWORD"}, Required: true},
			&cli.DurationFlag{Name: "timeout", Value: 15 * time.Second, Usage: "timeout por request"},
		},
		Commands: []*cli.Command{
			pendientesCmd(),
			cobrarCmd(),
			venderCmd(),
			resumenCmd(),
			cerrarCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode: 2 input rejected, 3 conflict with backend state, 4 transport or
// auth failure, 1 anything else.
func exitCode(err error) int {
	var (
		ve *cajaclient.ValidationError
		ce *cajaclient.ConflictError
		te *cajaclient.TransportError
	)
	switch {
	case errors.As(err, &ve):
		return 2
	case errors.As(err, &ce):
		return 3
	case errors.As(err, &te):
		return 4
	default:
		return 1
	}
}
