package dialect

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
)

// Overlay is the YAML form of a custom dialect. It starts from a builtin
// dialect and replaces only what it names:
//
//	base: postgres
//	name: cockroach
//	identifiers: {quote: '"', escape: '""'}
//	types: {JSONB: JSONB, SERIAL: INT8}
//	generators: {UUID: gen_random_uuid()}
//	functions: {LENGTH: char_length}
//	without: [ENCRYPT, DECRYPT]
//	reserved: [FAMILY, INTERLEAVE]
type Overlay struct {
	Base        string            `yaml:"base"`
	Name        string            `yaml:"name"`
	Identifiers *IdentifierConfig `yaml:"identifiers"`
	Literals    *struct {
		Quote   string   `yaml:"quote"`
		Escapes []string `yaml:"escapes"`
	} `yaml:"literals"`
	Placeholder string            `yaml:"placeholder"`
	JSONObject  string            `yaml:"jsonObject"`
	Types       map[string]string `yaml:"types"`
	Generators  map[string]string `yaml:"generators"`
	Functions   map[string]string `yaml:"functions"`
	Without     []string          `yaml:"without"`
	Reserved    []string          `yaml:"reserved"`
}

// LoadOverlay decodes an Overlay from r and builds the dialect it
// describes. The result is not registered.
func LoadOverlay(r io.Reader) (*Dialect, error) {
	var o Overlay
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dialect overlay is empty")
		}
		return nil, fmt.Errorf("decode dialect overlay: %w", err)
	}
	return o.Build()
}

// Build applies the overlay to its base dialect.
func (o Overlay) Build() (*Dialect, error) {
	if o.Base == "" {
		return nil, errors.New("dialect overlay: base is required")
	}
	if o.Name == "" {
		return nil, errors.New("dialect overlay: name is required")
	}
	base, err := Lookup(o.Base)
	if err != nil {
		return nil, fmt.Errorf("dialect overlay: %w", err)
	}
	b := Extend(base, o.Name)

	if id := o.Identifiers; id != nil {
		if id.Quote == "" {
			return nil, errors.New("dialect overlay: identifiers.quote is required")
		}
		if id.QuoteEnd == "" {
			id.QuoteEnd = id.Quote
		}
		if id.Escape == "" {
			id.Escape = id.QuoteEnd + id.QuoteEnd
		}
		b.Identifiers(*id)
	}
	if lit := o.Literals; lit != nil {
		if lit.Quote == "" {
			return nil, errors.New("dialect overlay: literals.quote is required")
		}
		if len(lit.Escapes)%2 != 0 {
			return nil, errors.New("dialect overlay: literals.escapes must be old/new pairs")
		}
		b.Literals(lit.Quote, lit.Escapes...)
	}
	switch strings.ToLower(o.Placeholder) {
	case "":
	case "question", "?":
		b.Placeholder(PlaceholderQuestion)
	case "dollar", "$":
		b.Placeholder(PlaceholderDollar)
	default:
		return nil, fmt.Errorf("dialect overlay: placeholder %q, expected question or dollar", o.Placeholder)
	}
	if o.JSONObject != "" {
		b.JSONObject(o.JSONObject)
	}

	for name, native := range o.Types {
		t, ok := ir.ParseDataType(name)
		if !ok {
			return nil, fmt.Errorf("dialect overlay: unknown data type %q", name)
		}
		spec, _ := base.Type(t)
		spec.Name = native
		b.Type(t, spec)
	}
	for name, template := range o.Generators {
		g := ir.Generator(strings.ToUpper(name))
		if !ir.IsGenerator(string(g)) {
			return nil, fmt.Errorf("dialect overlay: unknown generator %q", name)
		}
		b.GeneratorTemplate(g, template)
	}
	for name, fn := range o.Functions {
		tag, err := overlayTag(name)
		if err != nil {
			return nil, err
		}
		b.Function(tag, Call(fn))
	}
	for _, name := range o.Without {
		tag, err := overlayTag(name)
		if err != nil {
			return nil, err
		}
		b.Without(tag)
	}
	b.ReservedWords(o.Reserved...)
	return b.Build(), nil
}

func overlayTag(name string) (expr.Tag, error) {
	tag := expr.Tag(strings.ToUpper(name))
	if _, ok := expr.Lookup(string(tag)); !ok {
		return "", fmt.Errorf("dialect overlay: unknown function %q", name)
	}
	return tag, nil
}
