package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JemmyKuria/Vaccine-Project/internal/config"
	"github.com/JemmyKuria/Vaccine-Project/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
// Codes: 2 data rejected, 3 usage or IO, 4 model load, 5 prediction.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	verbose    bool
	logJSON    bool
}

// load resolves the effective configuration for this invocation.
func (r *rootFlags) load() (*config.Config, error) {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return nil, codeError(3, "%s", err)
	}
	return cfg, nil
}

// logger builds the process logger from config plus flag overrides.
func (r *rootFlags) logger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Logging.Level
	if r.verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Logging.JSON || r.logJSON)
	if err != nil {
		return nil, codeError(3, "%s", err)
	}
	return log, nil
}

func main() {
	root := &cobra.Command{
		Use:     "vaxcast",
		Short:   "Predict vaccination uptake from survey batches",
		Long:    "Vaxcast turns raw flu-survey extracts into uptake predictions: it validates the schema, engineers the model's feature matrix, scores each respondent for the H1N1 and seasonal vaccines, and reports the predicted non-takers outreach should focus on.",
		Version: version,
	}

	var flags rootFlags
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default "+config.DefaultPath+" when present)")
	pf.BoolVar(&flags.verbose, "verbose", false, "Print processing steps to stderr")
	pf.BoolVar(&flags.logJSON, "log-json", false, "Emit structured logs as JSON")

	root.AddCommand(
		newValidateCmd(&flags),
		newTransformCmd(&flags),
		newPredictCmd(&flags),
		newNonTakersCmd(&flags),
		newProfileCmd(&flags),
		newServeCmd(&flags),
		newWatchCmd(&flags),
		newRunsCmd(&flags),
	)

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

// logVerbose writes a message to stderr when verbose mode is enabled.
func logVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
	}
}

// writeOutput sends rendered bytes to a file or stdout.
func writeOutput(out string, data []byte) error {
	if out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return codeError(3, "writing output file: %s", err)
		}
		return nil
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return codeError(3, "writing output: %s", err)
	}
	// Ensure output ends with a newline for terminal friendliness.
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(os.Stdout)
	}
	return nil
}
