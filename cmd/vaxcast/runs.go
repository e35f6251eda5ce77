package main

import (
	"github.com/spf13/cobra"

	"github.com/JemmyKuria/Vaccine-Project/internal/render"
	"github.com/JemmyKuria/Vaccine-Project/internal/runlog"
)

// runsFlags holds the parsed flags for the runs command.
type runsFlags struct {
	limit  int
	format string
	out    string
}

func newRunsCmd(root *rootFlags) *cobra.Command {
	var flags runsFlags
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent scoring runs",
		Long:  "Runs reads the local history store and lists what was scored, newest first: when, how many rows, with which model, and the non-taker counts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(flags, root)
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.limit, "limit", 20, "Maximum runs to list; 0 lists everything")
	f.StringVar(&flags.format, "format", "json", "Output format: json or md")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	return cmd
}

func runRuns(flags runsFlags, root *rootFlags) error {
	switch flags.format {
	case "json", "md":
	default:
		return codeError(3, "--format must be json or md, got %q", flags.format)
	}
	if flags.limit < 0 {
		return codeError(3, "--limit must be >= 0, got %d", flags.limit)
	}

	cfg, err := root.load()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return codeError(3, "no history path configured")
	}

	store, err := runlog.Open(cfg.History.Path)
	if err != nil {
		return codeError(3, "%s", err)
	}
	defer store.Close()

	recs, err := store.List(flags.limit)
	if err != nil {
		return codeError(3, "%s", err)
	}

	out, err := render.Runs(flags.format, recs)
	if err != nil {
		return codeError(3, "%s", err)
	}
	return writeOutput(flags.out, out)
}
