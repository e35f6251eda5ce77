package main

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/JemmyKuria/Vaccine-Project/internal/dataset"
	"github.com/JemmyKuria/Vaccine-Project/internal/pipeline"
)

// transformFlags holds the parsed flags for the transform command.
type transformFlags struct {
	format string
	out    string
}

func newTransformCmd(root *rootFlags) *cobra.Command {
	var flags transformFlags
	cmd := &cobra.Command{
		Use:   "transform <input.csv>",
		Short: "Run the feature pipeline and emit the model-ready matrix",
		Long:  "Transform runs the full feature pipeline on a batch without scoring it, producing the reconciled numeric matrix the classifier would see. Useful for inspecting encodings and for feeding external scorers.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(args[0], flags, root)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.format, "format", "csv", "Output format: csv or json")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	return cmd
}

func runTransform(path string, flags transformFlags, root *rootFlags) error {
	switch flags.format {
	case "csv", "json":
	default:
		return codeError(3, "--format must be csv or json, got %q", flags.format)
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

	_, res, err := transformFile(path, log, root.verbose)
	if err != nil {
		return err
	}

	var out []byte
	switch flags.format {
	case "csv":
		var buf bytes.Buffer
		if err := dataset.WriteCSV(&buf, res.Features); err != nil {
			return codeError(3, "writing matrix: %s", err)
		}
		out = buf.Bytes()
	case "json":
		rows, err := res.Features.Matrix()
		if err != nil {
			return codeError(3, "flattening matrix: %s", err)
		}
		payload := struct {
			Columns  []string           `json:"columns"`
			Rows     [][]float64        `json:"rows"`
			Warnings []pipeline.Warning `json:"unmapped_categories,omitempty"`
			Added    []string           `json:"added_columns,omitempty"`
			Dropped  []string           `json:"dropped_columns,omitempty"`
		}{res.Features.Columns(), rows, res.Warnings, res.Added, res.Dropped}
		out, err = json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return codeError(3, "encoding matrix: %s", err)
		}
	}
	return writeOutput(flags.out, out)
}
