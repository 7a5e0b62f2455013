// cmd/skillmatch/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"skillmatch/internal/api"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/common/observability"
	"skillmatch/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the dashboard HTTP API",
		Flags: append(credentialFlags(),
			&cli.BoolFlag{Name: "sign-in", Usage: "Sign in with the configured account at startup"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return serve(ctx, cmd, app)
		},
	}
}

// newObservability keeps serving when the meter cannot be set up; operation
// metrics are then dropped.
func newObservability(build func(string) (*observability.Observability, error), name string, log logger.Logger) *observability.Observability {
	obs, err := build(name)
	if err != nil {
		log.Warn("observability disabled", map[string]interface{}{"error": err})
		if obs == nil {
			obs = observability.NewNoop()
		}
	}
	return obs
}

func serve(ctx context.Context, cmd *cli.Command, app *App) error {
	log := app.Logger

	obs := newObservability(observability.New, app.Config.App.Name, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	server := api.NewServer(app.Dashboard, app.Session, log,
		api.WithAuthenticator(app.Auth),
		api.WithRegistrar(app.Accounts),
		api.WithResumeService(app.Resumes),
		api.WithReadiness(app.Ready),
		api.WithObservability(obs),
	)
	httpServer := &http.Server{
		Addr:              app.Config.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	app.Dashboard.Start(ctx)

	if cmd.Bool("sign-in") {
		if err := app.SignIn(ctx, cmd); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if spec := app.Config.Dashboard.RefreshSpec; spec != "" {
		refresher, err := scheduler.New(spec, app.Session, app.Dashboard, log)
		if err != nil {
			return err
		}
		if err := refresher.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			refresher.Stop()
			return nil
		})
	}

	g.Go(func() error {
		log.Info("HTTP server listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
