package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/verdict/internal/scenario"
)

// FileValidation holds the validation outcome for one scenario file.
type FileValidation struct {
	File  string `json:"file"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationReport holds validation results across all files.
type ValidationReport struct {
	Files   []FileValidation `json:"files"`
	Valid   int              `json:"valid"`
	Invalid int              `json:"invalid"`
	Total   int              `json:"total"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario YAML files without executing them.

Performs strict field checking, schema validation, and structural
checks (unique test names, one action per step, known predicates).
Faster than run for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no scenario files found in %s", scenariosDir))
	}
	formatter.VerboseLog("Found %d scenario file(s) in %s", len(files), scenariosDir)

	report := ValidationReport{
		Files: make([]FileValidation, 0, len(files)),
		Total: len(files),
	}
	for _, file := range files {
		fv := FileValidation{File: file}
		sc, err := scenario.LoadScenario(file)
		if err != nil {
			fv.Error = err.Error()
			report.Invalid++
		} else {
			fv.Name = sc.Name
			fv.Valid = true
			report.Valid++
		}
		report.Files = append(report.Files, fv)
	}

	if opts.Format == "json" {
		return outputValidateJSON(cmd, report)
	}
	return outputValidateText(cmd, report)
}

func outputValidateJSON(cmd *cobra.Command, report ValidationReport) error {
	status := "ok"
	if report.Invalid > 0 {
		status = "error"
	}

	response := CLIResponse{Status: status, Data: report}
	if report.Invalid > 0 {
		response.Error = &CLIError{
			Code:    ErrCodeInvalidInput,
			Message: fmt.Sprintf("%d scenario file(s) invalid", report.Invalid),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if report.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario file(s) invalid", report.Invalid))
	}
	return nil
}

func outputValidateText(cmd *cobra.Command, report ValidationReport) error {
	w := cmd.OutOrStdout()

	for _, fv := range report.Files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s (%s)\n", filepath.Base(fv.File), fv.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", filepath.Base(fv.File))
			fmt.Fprintf(w, "  %s\n", fv.Error)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Validation Summary: %d valid, %d invalid, %d total\n", report.Valid, report.Invalid, report.Total)

	if report.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario file(s) invalid", report.Invalid))
	}
	fmt.Fprintln(w, "✓ All scenario files valid")
	return nil
}
