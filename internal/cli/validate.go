package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlir/internal/query"
)

// QueryReport is the validation outcome of one query.
type QueryReport struct {
	Source string    `json:"source"`
	Type   string    `json:"type,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool          `json:"valid"`
	Queries []QueryReport `json:"queries"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate query IR documents",
		Long: `Validate query IR documents without compiling them.

Every query of every file is checked; the first violation of each query
is reported with its error code and path. Entity names are checked against
the reserved words of the selected dialect.

Exit codes:
  0 - All queries are valid
  1 - One or more queries are invalid
  2 - Command error (unreadable file, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	d, err := opts.resolveDialect()
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Validating against dialect %s", d.Name)

	docs, err := loadAll(files, formatter)
	if err != nil {
		return err
	}

	validator := query.NewValidator(
		query.WithChecker(d.Checker()),
		query.WithMaxDepth(opts.MaxDepth),
		query.WithLogger(opts.logger()),
	)
	result := ValidationResult{Valid: true, Queries: make([]QueryReport, 0, len(docs))}
	for _, doc := range docs {
		report := QueryReport{Source: doc.Source}
		stmt, err := validator.Validate(doc.Query)
		if err != nil {
			report.Error = newCLIError(err)
			result.Valid = false
		} else {
			report.Type = string(stmt.Type())
		}
		result.Queries = append(result.Queries, report)
	}

	return outputValidation(formatter, result)
}

// loadAll loads the documents of every file, failing on the first
// unreadable one.
func loadAll(files []string, formatter *OutputFormatter) ([]Document, error) {
	var docs []Document
	for _, file := range files {
		loaded, err := LoadDocuments(file)
		if err != nil {
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				return nil, formatter.Fail(loadErr.Code, fmt.Sprintf("%s: %s", loadErr.Path, loadErr.Message))
			}
			return nil, formatter.Fail(ErrCodeGeneric, err.Error())
		}
		formatter.VerboseLog("Loaded %d query(ies) from %s", len(loaded), file)
		docs = append(docs, loaded...)
	}
	return docs, nil
}

// outputValidation outputs validation results.
func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	invalid := 0
	for _, q := range result.Queries {
		if q.Error != nil {
			invalid++
		}
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%d invalid query(ies)", invalid)}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		for _, q := range result.Queries {
			if q.Error == nil {
				fmt.Fprintf(formatter.Writer, "\u2713 %s: %s\n", q.Source, q.Type)
				continue
			}
			fmt.Fprintf(formatter.Writer, "\u2717 %s\n", q.Source)
			if q.Error.Path != "" {
				fmt.Fprintf(formatter.Writer, "  %s at %s: %s\n", q.Error.Code, q.Error.Path, q.Error.Message)
			} else {
				fmt.Fprintf(formatter.Writer, "  %s: %s\n", q.Error.Code, q.Error.Message)
			}
		}
	}

	if !result.Valid {
		// Invalid queries = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %d invalid query(ies)", invalid))
	}
	return nil
}
