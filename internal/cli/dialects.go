package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlir/internal/dialect"
)

// DialectInfo describes one dialect for the dialects command.
type DialectInfo struct {
	Name        string     `json:"name"`
	Placeholder string     `json:"placeholder"`
	Schemas     bool       `json:"schemas"`
	Types       []TypeInfo `json:"types"`
	Functions   []string   `json:"functions"`
	Reserved    []string   `json:"reserved"`
}

// TypeInfo is the native spelling of one data type.
type TypeInfo struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	Sized         bool   `json:"sized,omitempty"`
	DefaultLength int    `json:"default_length,omitempty"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialects [name]",
		Short: "List dialects or describe one",
		Long: `Without arguments, list the registered dialects. With a name, show the
types, functions and extra reserved words of that dialect. --dialect-file describes an
overlay instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialects(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runDialects(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var d *dialect.Dialect
	var err error
	switch {
	case len(args) == 1:
		d, err = dialect.Lookup(args[0])
	case opts.DialectFile != "":
		d, err = opts.resolveDialect()
	default:
		names := dialect.List()
		if formatter.Format == "json" {
			return formatter.Success(names)
		}
		for _, name := range names {
			fmt.Fprintln(formatter.Writer, name)
		}
		return nil
	}
	if err != nil {
		return formatter.Fail(ErrCodeNotFound, err.Error())
	}

	info := describeDialect(d)
	if formatter.Format == "json" {
		return formatter.Success(info)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Dialect: %s\n", info.Name)
	fmt.Fprintf(w, "Placeholder: %s\n", info.Placeholder)
	fmt.Fprintf(w, "Schemas: %t\n", info.Schemas)
	fmt.Fprintln(w, "Types:")
	for _, t := range info.Types {
		name := t.Name
		if t.Sized {
			name += "(n)"
			if t.DefaultLength > 0 {
				name += fmt.Sprintf(" default %d", t.DefaultLength)
			}
		}
		fmt.Fprintf(w, "  %-10s %s\n", t.Type, name)
	}
	fmt.Fprintf(w, "Functions: %s\n", strings.Join(info.Functions, ", "))
	if len(info.Reserved) > 0 {
		fmt.Fprintf(w, "Reserved: %s\n", strings.Join(info.Reserved, ", "))
	}
	return nil
}

func describeDialect(d *dialect.Dialect) DialectInfo {
	info := DialectInfo{
		Name:        d.Name,
		Placeholder: d.FormatPlaceholder(1),
		Schemas:     d.Features.Schemas,
		Types:       []TypeInfo{},
		Functions:   []string{},
		Reserved:    d.ReservedWords(),
	}
	for _, t := range d.Types() {
		spec, _ := d.Type(t)
		info.Types = append(info.Types, TypeInfo{
			Type:          string(t),
			Name:          spec.Name,
			Sized:         spec.Sized,
			DefaultLength: spec.DefaultLength,
		})
	}
	for _, tag := range d.Functions() {
		info.Functions = append(info.Functions, string(tag))
	}
	return info
}
