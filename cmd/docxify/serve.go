// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docxify/internal/httputil"
	"github.com/pdiddy/docxify/internal/secrets"
	"github.com/pdiddy/docxify/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversion web service",
	Long: `Serve starts the HTTP front end: the form at /, POST /convert and
/healthz. It runs until interrupted, then lets in-flight conversions finish
within server.shutdown_timeout.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if v, err := a.service.Converter().Check(ctx); err != nil {
		logger.Warn("converter not ready; conversions will fail until it is", "converter", a.service.Converter().Name(), "err", err)
	} else {
		logger.Info("converter ready", "converter", a.service.Converter().Name(), "version", v)
	}

	key, err := secrets.SessionKey(a.fs, cfg.Server.SecretsDir, logger.WithPrefix("secrets"))
	if err != nil {
		return err
	}

	srv := web.NewServer(web.Config{
		Service:        a.service,
		Fs:             a.fs,
		Flasher:        httputil.NewFlasher(key),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Workers:        cfg.Server.Workers,
		Logger:         logger.WithPrefix("http"),
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Int("workers", 0, "maximum concurrent conversions (default: number of CPUs)")
	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	bindFlag("server.workers", serveCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(serveCmd)
}

