package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlir/internal/dialect"
	"github.com/roach88/sqlir/internal/ir"
)

// RootOptions holds global flags for all commands. PersistentPreRunE
// replaces them with the merged configuration.
type RootOptions struct {
	ConfigFile  string
	Verbose     bool
	Format      string // "json" | "text"
	Dialect     string
	Params      bool
	MaxDepth    int
	DialectFile string

	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sqlir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "sqlir",
		Short:   "sqlir - SQL query IR toolkit",
		Version: ir.EngineVersion,
		Long: `Validate query IR documents and compile them to dialect SQL.

Configuration is read from sqlir.yaml, SQLIR_* environment variables and
flags, in increasing order of precedence.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.ConfigFile, cmd.Flags())
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			opts.apply(cfg)

			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default ./"+ConfigFileName+")")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", DefaultFormat, "output format (json|text)")
	flags.StringVarP(&opts.Dialect, "dialect", "d", DefaultDialect, "target dialect")
	flags.BoolVar(&opts.Params, "params", false, "emit placeholders for column-bound values")
	flags.IntVar(&opts.MaxDepth, "max-depth", 0, "maximum expression and filter nesting (0 for the default)")
	flags.StringVar(&opts.DialectFile, "dialect-file", "", "YAML dialect overlay to compile for")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// apply copies a loaded configuration into the options.
func (o *RootOptions) apply(cfg *Config) {
	o.Verbose = cfg.Verbose
	o.Format = cfg.Format
	o.Dialect = cfg.Dialect
	o.Params = cfg.Params
	o.MaxDepth = cfg.MaxDepth
	o.DialectFile = cfg.DialectFile
}

// logger returns the configured logger, discarding output when unset.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// resolveDialect returns the overlay dialect when a dialect file is set,
// else the registered dialect named by Dialect.
func (o *RootOptions) resolveDialect() (*dialect.Dialect, error) {
	if o.DialectFile != "" {
		f, err := os.Open(o.DialectFile)
		if err != nil {
			return nil, fmt.Errorf("open dialect file: %w", err)
		}
		defer f.Close()
		return dialect.LoadOverlay(f)
	}
	name := o.Dialect
	if name == "" {
		name = DefaultDialect
	}
	return dialect.Lookup(name)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
