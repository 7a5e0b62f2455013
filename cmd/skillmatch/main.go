// cmd/skillmatch/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "skillmatch",
		Usage: "Company job posting dashboard and candidate search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a YAML config file (defaults to configs/config.yaml)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override logging.level",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			registerCommand(),
			dashboardCommand(),
			searchCommand(),
			postCommand(),
			uploadCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "username", Usage: "Account to sign in as (defaults to auth.keycloak.username)"},
		&cli.StringFlag{Name: "password", Usage: "Account password (defaults to auth.keycloak.password)"},
	}
}
