package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JemmyKuria/Vaccine-Project/internal/validate"
)

// validateFlags holds the parsed flags for the validate command.
type validateFlags struct {
	drift bool
	out   string
}

func newValidateCmd(root *rootFlags) *cobra.Command {
	var flags validateFlags
	cmd := &cobra.Command{
		Use:   "validate <input.csv>",
		Short: "Check a survey extract against the required schema",
		Long:  "Validate loads a batch and reports how it relates to the raw schema the pipeline needs: row and column counts, missing required columns, and columns the model has never seen. A batch with missing required columns exits 2.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], flags, root)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.drift, "drift", false, "On failure, print a header diff against the required schema to stderr")
	f.StringVar(&flags.out, "out", "", "Write the summary to a file instead of stdout")
	return cmd
}

func runValidate(path string, flags validateFlags, root *rootFlags) error {
	ds, err := loadTable(path, root.verbose)
	if err != nil {
		return err
	}

	sum := validate.Check(ds.Table)
	out, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return codeError(3, "encoding summary: %s", err)
	}
	if err := writeOutput(flags.out, out); err != nil {
		return err
	}

	if !sum.OK() {
		if flags.drift {
			fmt.Fprint(os.Stderr, validate.HeaderDrift(ds.Table.Columns()))
		}
		return codeError(2, "%s", validate.Required(ds.Table))
	}
	logVerbose(root.verbose, "Schema OK: %d rows", sum.Rows)
	return nil
}
