package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/query"
	"github.com/roach88/sqlir/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledQuery is the compilation outcome of one query.
type CompiledQuery struct {
	Source      string          `json:"source"`
	Dialect     string          `json:"dialect"`
	Text        string          `json:"text,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Error       *CLIError       `json:"error,omitempty"`
}

// CompilationResult holds the compiled queries.
type CompilationResult struct {
	Dialect string          `json:"dialect"`
	Queries []CompiledQuery `json:"queries"`
	Failed  int             `json:"failed"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file>...",
		Short: "Compile query IR documents to dialect SQL",
		Long: `Validate query IR documents and compile them to SQL for one dialect.

The dialect is chosen with --dialect, or loaded from a YAML overlay with
--dialect-file. With --params, values bound to columns become placeholders
and are listed after each statement.

Examples:
  sqlir compile queries.yaml
  sqlir compile --dialect sqlite --params queries.json
  sqlir compile --dialect-file cockroach.yaml -o schema.sql schema.cue`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL script to this file")

	return cmd
}

func runCompile(opts *CompileOptions, files []string, cmd *cobra.Command) error {
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
	formatter.VerboseLog("Compiling for dialect %s", d.Name)

	docs, err := loadAll(files, formatter)
	if err != nil {
		return err
	}

	logger := opts.logger()
	validator := query.NewValidator(
		query.WithChecker(d.Checker()),
		query.WithMaxDepth(opts.MaxDepth),
		query.WithLogger(logger),
	)
	compilerOpts := []querysql.Option{querysql.WithLogger(logger)}
	if opts.Params {
		compilerOpts = append(compilerOpts, querysql.WithParameters())
	}
	compiler := querysql.New(d, compilerOpts...)

	result := &CompilationResult{Dialect: d.Name, Queries: make([]CompiledQuery, 0, len(docs))}
	for _, doc := range docs {
		cq := compileDocument(validator, compiler, doc)
		cq.Dialect = d.Name
		if cq.Error != nil {
			result.Failed++
		}
		result.Queries = append(result.Queries, cq)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(renderScript(result)), 0644); err != nil {
			return formatter.Fail(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompilation(formatter, result, opts.Output)
}

// compileDocument validates and compiles one query.
func compileDocument(v *query.Validator, c *querysql.Compiler, doc Document) CompiledQuery {
	cq := CompiledQuery{Source: doc.Source}
	stmt, err := v.Validate(doc.Query)
	if err != nil {
		cq.Error = newCLIError(err)
		return cq
	}
	out, err := c.Compile(stmt)
	if err != nil {
		cq.Error = newCLIError(err)
		return cq
	}
	cq.Text = out.Text
	cq.Fingerprint = out.Fingerprint
	if len(out.Parameters) > 0 {
		params, err := ir.MarshalCanonical(ir.Array(out.Parameters))
		if err != nil {
			cq.Error = newCLIError(err)
			return cq
		}
		cq.Parameters = params
	}
	return cq
}

// renderScript renders the compiled queries as an SQL script. Failed
// queries are skipped.
func renderScript(result *CompilationResult) string {
	var b strings.Builder
	for _, q := range result.Queries {
		if q.Error != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "-- %s\n%s;\n", q.Source, q.Text)
		if len(q.Parameters) > 0 {
			fmt.Fprintf(&b, "-- params: %s\n", q.Parameters)
		}
	}
	return b.String()
}

// outputCompilation outputs compilation results.
func outputCompilation(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%d query(ies) failed", result.Failed)}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		if outputFile == "" {
			fmt.Fprint(w, renderScript(result))
		}
		for _, q := range result.Queries {
			if q.Error == nil {
				continue
			}
			fmt.Fprintf(w, "\u2717 %s\n", q.Source)
			if q.Error.Path != "" {
				fmt.Fprintf(w, "  %s at %s: %s\n", q.Error.Code, q.Error.Path, q.Error.Message)
			} else {
				fmt.Fprintf(w, "  %s: %s\n", q.Error.Code, q.Error.Message)
			}
		}
		if outputFile != "" {
			fmt.Fprintf(w, "Wrote %d statement(s) to %s\n", len(result.Queries)-result.Failed, outputFile)
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed for %d query(ies)", result.Failed))
	}
	return nil
}
