package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JemmyKuria/Vaccine-Project/internal/classifier"
	"github.com/JemmyKuria/Vaccine-Project/internal/runlog"
	"github.com/JemmyKuria/Vaccine-Project/internal/server"
)

// serveFlags holds the parsed flags for the serve command.
type serveFlags struct {
	listen    string
	model     string
	threshold float64
}

func newServeCmd(root *rootFlags) *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scoring HTTP API",
		Long:  "Serve loads the model once and exposes it over HTTP: POST /v1/predictions scores a CSV batch, GET /v1/schema documents the contract, GET /v1/runs lists history. The server runs until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags, root)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.listen, "listen", "", "Listen address (overrides config)")
	f.StringVar(&flags.model, "model", "", "Model spec: forest:<path> or an http(s) scorer URL (overrides config)")
	f.Float64Var(&flags.threshold, "threshold", classifier.DefaultThreshold, "Probability cutoff for the uptake label (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, flags serveFlags, root *rootFlags) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	log, err := root.logger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	model, err := openModel(flags.model, cfg)
	if err != nil {
		return err
	}
	threshold, err := resolveThreshold(cmd, flags.threshold, cfg)
	if err != nil {
		return err
	}

	var store *runlog.Store
	if cfg.History.Path != "" {
		store, err = runlog.Open(cfg.History.Path)
		if err != nil {
			return codeError(3, "%s", err)
		}
		defer store.Close()
	}

	srv := server.New(model, server.Options{
		Threshold: threshold,
		Timeout:   cfg.Server.RequestTimeout.Std(),
		History:   store,
		Log:       log,
	})

	addr := cfg.Server.ListenAddr
	if flags.listen != "" {
		addr = flags.listen
	}
	httpSrv := &http.Server{Addr: addr, Handler: srv.Router()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()
	log.Info("listening",
		zap.String("addr", addr),
		zap.String("model", model.Describe()),
		zap.Float64("threshold", threshold))

	select {
	case err := <-errc:
		return codeError(5, "server failed: %s", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return codeError(5, "shutdown: %s", err)
	}
	log.Info("server stopped")
	return nil
}
