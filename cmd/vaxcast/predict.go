package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/JemmyKuria/Vaccine-Project/internal/classifier"
	"github.com/JemmyKuria/Vaccine-Project/internal/render"
)

// predictFlags holds the parsed flags for the predict command.
type predictFlags struct {
	model     string
	threshold float64
	format    string
	out       string
}

func newPredictCmd(root *rootFlags) *cobra.Command {
	var flags predictFlags
	cmd := &cobra.Command{
		Use:   "predict <input.csv>",
		Short: "Score a survey batch and produce the uptake report",
		Long:  "Predict runs the whole chain on one batch: schema validation, feature engineering, model scoring, and report assembly. The report carries per-respondent probabilities and labels for both vaccines plus headline counts, and the run is appended to the local history.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, args[0], flags, root)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.model, "model", "", "Model spec: forest:<path> or an http(s) scorer URL (overrides config)")
	f.Float64Var(&flags.threshold, "threshold", classifier.DefaultThreshold, "Probability cutoff for the uptake label (overrides config)")
	f.StringVar(&flags.format, "format", "json", "Output format: json, md, or csv")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	return cmd
}

func runPredict(cmd *cobra.Command, path string, flags predictFlags, root *rootFlags) error {
	renderer, err := render.NewRenderer(flags.format)
	if err != nil {
		return codeError(3, "invalid format: %s", err)
	}

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

	started := time.Now()
	sc, err := score(context.Background(), path, model, threshold, log, root.verbose)
	if err != nil {
		return err
	}
	recordRun(cfg, sc, started, log)

	out, err := renderer.Render(sc.report)
	if err != nil {
		return codeError(3, "rendering output: %s", err)
	}
	return writeOutput(flags.out, out)
}
