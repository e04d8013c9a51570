package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rightfit/rightfit-navigation/bootstrap"
	apphttp "github.com/rightfit/rightfit-navigation/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, err := bootstrap.Initialize(ctx, serviceName)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			svc.Shutdown(shutdownCtx)
		}()

		server := apphttp.NewServer(apphttp.ServerConfigFrom(svc.Config), svc.Router, svc.Logger)
		return server.Run(ctx)
	},
}
