package ui

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/athro-ai/athro/internal/api"
	"github.com/athro-ai/athro/internal/applog"
)

func (a *App) serveCmd() *cobra.Command {
	var (
		listen      string
		origins     string
		withReminds bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the planner over HTTP for the web client. Requests carry an
HS256 bearer token signed with server.jwt_secret (or ATHRO_JWT_SECRET);
its "sub" claim is the user id.`,
		Example: `  ATHRO_JWT_SECRET=... athro serve --listen=:8080`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.config.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret is not set (or set ATHRO_JWT_SECRET)")
			}
			if err := a.ensureService(); err != nil {
				return err
			}
			if listen == "" {
				listen = a.config.Server.Listen
			}

			srv, err := api.New(a.svc, api.Options{JWTSecret: a.config.Server.JWTSecret, AllowOrigins: origins})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Listen(ctx, listen)
			})
			if withReminds {
				runner, err := a.newReminder()
				if err != nil {
					return err
				}
				g.Go(func() error {
					return runner.Run(ctx)
				})
			}

			fmt.Fprintf(a.out, "Serving on %s\n", listen)
			err = g.Wait()
			applog.Info("server stopped", "err", err)
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&origins, "cors", "", "Allowed CORS origins, comma separated (default: any)")
	cmd.Flags().BoolVar(&withReminds, "remind", false, "Also run the reminder job for the local user")
	return cmd
}
