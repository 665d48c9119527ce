package dialect

import (
	"maps"
	"slices"
	"strings"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

// Builder assembles a Dialect. Every method returns the builder so calls
// chain; Build returns an independent copy.
type Builder struct {
	d Dialect
}

// New starts a dialect named name with ANSI quoting: double-quoted
// identifiers, single-quoted strings and ? placeholders.
func New(name string) *Builder {
	return &Builder{d: Dialect{
		Name:        name,
		Identifiers: IdentifierConfig{Quote: `"`, QuoteEnd: `"`, Escape: `""`},
		Literals:    LiteralConfig{Quote: "'", Escapes: []string{"'", "''"}},
		JSONObject:  "json_object",
		Features:    Features{IfExists: true},
		types:       make(map[ir.DataType]TypeSpec),
		generators:  make(map[ir.Generator]GeneratorSpec),
		functions:   make(map[expr.Tag]FuncRenderer),
	}}
}

// Extend starts a builder from a copy of base under a new name.
func Extend(base *Dialect, name string) *Builder {
	d := *base
	d.Name = name
	d.Literals.Escapes = append([]string(nil), base.Literals.Escapes...)
	d.types = maps.Clone(base.types)
	d.generators = maps.Clone(base.generators)
	d.functions = maps.Clone(base.functions)
	d.reserved = slices.Clone(base.reserved)
	return &Builder{d: d}
}

// Identifiers sets identifier quoting.
func (b *Builder) Identifiers(cfg IdentifierConfig) *Builder {
	b.d.Identifiers = cfg
	return b
}

// Literals sets string literal quoting.
func (b *Builder) Literals(quote string, escapes ...string) *Builder {
	b.d.Literals = LiteralConfig{Quote: quote, Escapes: escapes}
	return b
}

// Placeholder sets the parameter placeholder style.
func (b *Builder) Placeholder(p PlaceholderStyle) *Builder {
	b.d.Placeholder = p
	return b
}

// Features replaces the feature switches.
func (b *Builder) Features(f Features) *Builder {
	b.d.Features = f
	return b
}

// JSONObject sets the JSON object constructor function.
func (b *Builder) JSONObject(name string) *Builder {
	b.d.JSONObject = name
	return b
}

// Type maps a DataType to its native spelling.
func (b *Builder) Type(t ir.DataType, spec TypeSpec) *Builder {
	b.d.types[t] = spec
	return b
}

// Types maps several DataTypes to unsized native names.
func (b *Builder) Types(names map[ir.DataType]string) *Builder {
	for t, name := range names {
		b.d.types[t] = TypeSpec{Name: name}
	}
	return b
}

// GeneratorTemplate maps a Generator to fixed SQL text.
func (b *Builder) GeneratorTemplate(g ir.Generator, template string) *Builder {
	b.d.generators[g] = GeneratorSpec{Template: template}
	return b
}

// GeneratorFunc maps a Generator to a function producing its SQL text.
func (b *Builder) GeneratorFunc(g ir.Generator, fn func() string) *Builder {
	b.d.generators[g] = GeneratorSpec{Func: fn}
	return b
}

// Function maps an expression tag to a renderer.
func (b *Builder) Function(tag expr.Tag, fn FuncRenderer) *Builder {
	b.d.functions[tag] = fn
	return b
}

// Functions maps several expression tags at once.
func (b *Builder) Functions(fns map[expr.Tag]FuncRenderer) *Builder {
	maps.Copy(b.d.functions, fns)
	return b
}

// Without removes mappings for the given tags.
func (b *Builder) Without(tags ...expr.Tag) *Builder {
	for _, t := range tags {
		delete(b.d.functions, t)
	}
	return b
}

// ReservedWords adds words the dialect rejects as entity names, on top of
// the lexical default set.
func (b *Builder) ReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.d.reserved = append(b.d.reserved, strings.ToUpper(w))
	}
	return b
}

// Build returns the finished dialect.
func (b *Builder) Build() *Dialect {
	d := b.d
	d.Literals.Escapes = append([]string(nil), b.d.Literals.Escapes...)
	d.types = maps.Clone(b.d.types)
	d.generators = maps.Clone(b.d.generators)
	d.functions = maps.Clone(b.d.functions)
	d.literals = strings.NewReplacer(d.Literals.Escapes...)
	d.reserved = slices.Compact(slices.Sorted(slices.Values(b.d.reserved)))
	d.checker = lexical.Default.With(d.reserved...)
	return &d
}
