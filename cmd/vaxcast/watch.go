package main

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JemmyKuria/Vaccine-Project/internal/classifier"
	"github.com/JemmyKuria/Vaccine-Project/internal/dataset"
	"github.com/JemmyKuria/Vaccine-Project/internal/watcher"
)

// watchFlags holds the parsed flags for the watch command.
type watchFlags struct {
	model     string
	threshold float64
}

func newWatchCmd(root *rootFlags) *cobra.Command {
	var flags watchFlags
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Score survey batches dropped into a folder",
		Long:  "Watch monitors a directory and scores every matching CSV once writes to it settle, writing the annotated predictions next to the input as <name>" + watcher.OutputSuffix + ". A bad batch is logged and skipped; the folder keeps running until interrupted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], flags, root)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.model, "model", "", "Model spec: forest:<path> or an http(s) scorer URL (overrides config)")
	f.Float64Var(&flags.threshold, "threshold", classifier.DefaultThreshold, "Probability cutoff for the uptake label (overrides config)")
	return cmd
}

func runWatch(cmd *cobra.Command, dir string, flags watchFlags, root *rootFlags) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	process := func(path string) error {
		started := time.Now()
		sc, err := score(ctx, path, model, threshold, log, false)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := dataset.WriteCSV(&buf, sc.report.Table); err != nil {
			return err
		}
		if err := os.WriteFile(watcher.OutputPath(path), buf.Bytes(), 0o644); err != nil {
			return err
		}
		recordRun(cfg, sc, started, log)
		return nil
	}

	w, err := watcher.New(dir, process, watcher.Options{
		Pattern:  cfg.Watch.Pattern,
		Debounce: cfg.Watch.Debounce.Std(),
		Log:      log,
	})
	if err != nil {
		return codeError(3, "%s", err)
	}
	if err := w.Run(ctx); err != nil {
		return codeError(5, "%s", err)
	}
	return nil
}
