package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JemmyKuria/Vaccine-Project/internal/classifier"
	"github.com/JemmyKuria/Vaccine-Project/internal/config"
	"github.com/JemmyKuria/Vaccine-Project/internal/dataset"
	"github.com/JemmyKuria/Vaccine-Project/internal/pipeline"
	"github.com/JemmyKuria/Vaccine-Project/internal/report"
	"github.com/JemmyKuria/Vaccine-Project/internal/runlog"
	"github.com/JemmyKuria/Vaccine-Project/internal/validate"
)

// loadTable reads one batch file. Files that cannot be read exit 3; files
// that read but do not parse are the data's fault and exit 2.
func loadTable(path string, verbose bool) (*dataset.Dataset, error) {
	logVerbose(verbose, "Loading dataset: %s", path)
	ds, err := dataset.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, codeError(3, "%s", err)
		}
		return nil, codeError(2, "%s", err)
	}
	logVerbose(verbose, "Loaded %d rows, %d columns (%s)",
		ds.Table.Rows(), len(ds.Table.Columns()), ds.Hash)
	return ds, nil
}

// transformTable schema-checks a loaded batch and runs the feature pipeline.
func transformTable(ds *dataset.Dataset, log *zap.Logger, verbose bool) (*pipeline.Result, error) {
	if err := validate.Required(ds.Table); err != nil {
		return nil, codeError(2, "%s", err)
	}
	res, err := pipeline.New(log).Transform(ds.Table)
	if err != nil {
		return nil, codeError(2, "%s", err)
	}
	logVerbose(verbose, "Transformed into %d feature columns", len(res.Features.Columns()))
	return res, nil
}

// transformFile is loadTable plus transformTable for one path.
func transformFile(path string, log *zap.Logger, verbose bool) (*dataset.Dataset, *pipeline.Result, error) {
	ds, err := loadTable(path, verbose)
	if err != nil {
		return nil, nil, err
	}
	res, err := transformTable(ds, log, verbose)
	if err != nil {
		return nil, nil, err
	}
	return ds, res, nil
}

// scored bundles everything one prediction run produces.
type scored struct {
	dataset  *dataset.Dataset
	result   *pipeline.Result
	h1n1     []float64
	seasonal []float64
	report   *report.Report
}

// score runs the full chain for one file: load, validate, transform,
// predict, assemble.
func score(ctx context.Context, path string, model classifier.Classifier, threshold float64, log *zap.Logger, verbose bool) (*scored, error) {
	ds, res, err := transformFile(path, log, verbose)
	if err != nil {
		return nil, err
	}

	logVerbose(verbose, "Scoring with %s", model.Describe())
	h1n1, seasonal, err := model.PredictProba(ctx, res.Features)
	if err != nil {
		return nil, codeError(5, "prediction failed: %s", err)
	}

	rep, err := report.Build(ds, res, h1n1, seasonal, model.Describe(), threshold)
	if err != nil {
		return nil, codeError(5, "assembling report: %s", err)
	}
	return &scored{dataset: ds, result: res, h1n1: h1n1, seasonal: seasonal, report: rep}, nil
}

// openModel resolves the model spec (flag over config) and loads it.
func openModel(flagModel string, cfg *config.Config) (classifier.Classifier, error) {
	spec := flagModel
	if spec == "" {
		spec = cfg.Model
	}
	if spec == "" {
		return nil, codeError(3, "no model configured: pass --model or set model in the config file")
	}
	model, err := classifier.Open(spec)
	if err != nil {
		return nil, codeError(4, "loading model: %s", err)
	}
	return model, nil
}

// resolveThreshold applies flag-over-config precedence for the label cutoff.
func resolveThreshold(cmd *cobra.Command, flagVal float64, cfg *config.Config) (float64, error) {
	t := cfg.Threshold
	if cmd.Flags().Changed("threshold") {
		t = flagVal
	}
	if t < 0 || t > 1 {
		return 0, codeError(3, "--threshold must be between 0 and 1, got %g", t)
	}
	return t, nil
}

// recordRun appends a finished run to the history store. History failures
// are warnings; the caller already has their predictions.
func recordRun(cfg *config.Config, sc *scored, started time.Time, log *zap.Logger) {
	if cfg.History.Path == "" {
		return
	}
	store, err := runlog.Open(cfg.History.Path)
	if err != nil {
		log.Warn("opening run history failed", zap.Error(err))
		return
	}
	defer store.Close()

	rep := sc.report
	_, err = store.Append(runlog.Record{
		StartedAt:         started.UTC(),
		Duration:          time.Since(started),
		InputPath:         rep.Input.Path,
		InputHash:         rep.Input.Hash,
		Rows:              rep.Input.Rows,
		Warnings:          len(rep.Warnings),
		Model:             rep.Model,
		Threshold:         rep.Threshold,
		H1N1NonTakers:     rep.Summary.H1N1.NonTakers,
		SeasonalNonTakers: rep.Summary.Seasonal.NonTakers,
	})
	if err != nil {
		log.Warn("recording run failed", zap.Error(err))
	}
}
