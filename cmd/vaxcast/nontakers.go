package main

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/JemmyKuria/Vaccine-Project/internal/classifier"
	"github.com/JemmyKuria/Vaccine-Project/internal/dataset"
	"github.com/JemmyKuria/Vaccine-Project/internal/render"
	"github.com/JemmyKuria/Vaccine-Project/internal/report"
	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
)

// nonTakersFlags holds the parsed flags for the nontakers command.
type nonTakersFlags struct {
	model     string
	threshold float64
	vaccine   string
	barriers  bool
	format    string
	out       string
}

func newNonTakersCmd(root *rootFlags) *cobra.Command {
	var flags nonTakersFlags
	cmd := &cobra.Command{
		Use:   "nontakers <input.csv>",
		Short: "List predicted non-takers for one vaccine",
		Long:  "Nontakers scores a batch and keeps only the respondents predicted to skip the chosen vaccine. The default output is their annotated rows as CSV; with --barriers the rows are aggregated into barrier profiles for outreach planning instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNonTakers(cmd, args[0], flags, root)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.model, "model", "", "Model spec: forest:<path> or an http(s) scorer URL (overrides config)")
	f.Float64Var(&flags.threshold, "threshold", classifier.DefaultThreshold, "Probability cutoff for the uptake label (overrides config)")
	f.StringVar(&flags.vaccine, "vaccine", "h1n1", "Vaccine to report on: h1n1 or seasonal")
	f.BoolVar(&flags.barriers, "barriers", false, "Aggregate non-takers into barrier profiles instead of listing rows")
	f.StringVar(&flags.format, "format", "", "Output format: csv for the row list (default), json or md for --barriers (default json)")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	return cmd
}

func runNonTakers(cmd *cobra.Command, path string, flags nonTakersFlags, root *rootFlags) error {
	vaccine, ok := survey.ParseVaccine(flags.vaccine)
	if !ok {
		return codeError(3, "--vaccine must be h1n1 or seasonal, got %q", flags.vaccine)
	}
	format := flags.format
	if flags.barriers {
		if format == "" {
			format = "json"
		}
		switch format {
		case "json", "md":
		default:
			return codeError(3, "--format must be json or md with --barriers, got %q", format)
		}
	} else {
		if format == "" {
			format = "csv"
		}
		if format != "csv" {
			return codeError(3, "--format must be csv for the row list, got %q", format)
		}
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

	if flags.barriers {
		probs := sc.h1n1
		if vaccine == survey.VaccineSeasonal {
			probs = sc.seasonal
		}
		profiles, err := report.BarrierProfiles(sc.result.Features, classifier.Labels(probs, threshold))
		if err != nil {
			return codeError(5, "%s", err)
		}
		out, err := render.Barriers(format, profiles)
		if err != nil {
			return codeError(3, "%s", err)
		}
		return writeOutput(flags.out, out)
	}

	non, err := report.NonTakers(sc.report.Table, vaccine)
	if err != nil {
		return codeError(5, "%s", err)
	}
	logVerbose(root.verbose, "%d of %d respondents predicted to skip the %s vaccine",
		non.Rows(), sc.report.Input.Rows, vaccine)

	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, non); err != nil {
		return codeError(3, "writing rows: %s", err)
	}
	return writeOutput(flags.out, buf.Bytes())
}
