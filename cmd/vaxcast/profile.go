package main

import (
	"github.com/spf13/cobra"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
	"github.com/JemmyKuria/Vaccine-Project/internal/profile"
	"github.com/JemmyKuria/Vaccine-Project/internal/render"
)

// profileFlags holds the parsed flags for the profile command.
type profileFlags struct {
	format   string
	features bool
	out      string
}

func newProfileCmd(root *rootFlags) *cobra.Command {
	var flags profileFlags
	cmd := &cobra.Command{
		Use:   "profile <input.csv>",
		Short: "Describe a survey extract before scoring it",
		Long:  "Profile summarizes each column of a batch: type, missingness, distinct values, and numeric spread. With --features it also runs the pipeline and reports how many missing cells imputation filled.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(args[0], flags, root)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.format, "format", "json", "Output format: json or md")
	f.BoolVar(&flags.features, "features", false, "Also run the pipeline and compare missingness before and after")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	return cmd
}

func runProfile(path string, flags profileFlags, root *rootFlags) error {
	switch flags.format {
	case "json", "md":
	default:
		return codeError(3, "--format must be json or md, got %q", flags.format)
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

	ds, err := loadTable(path, root.verbose)
	if err != nil {
		return err
	}

	var features *frame.Frame
	if flags.features {
		res, err := transformTable(ds, log, root.verbose)
		if err != nil {
			return err
		}
		features = res.Features
	}

	out, err := render.Profile(flags.format, profile.Compare(ds.Table, features))
	if err != nil {
		return codeError(3, "rendering profile: %s", err)
	}
	return writeOutput(flags.out, out)
}
