// Package lexical validates the two identifier forms of the IR: entity
// names (schema, table, view, index and column names) and sigil-prefixed
// column identifiers such as "$users.$name".
//
// Every name that reaches rendered SQL passes through here first.
// Reserved words are compared after Unicode case folding.
package lexical

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/roach88/sqlir/internal/ir"
)

// Sigil marks a string as a column identifier.
const Sigil = "$"

// ColumnRef is a parsed column identifier. Table is empty for the single
// segment form.
type ColumnRef struct {
	Table  string
	Column string
}

// String renders the reference back to its identifier form.
func (r ColumnRef) String() string {
	if r.Table == "" {
		return Sigil + r.Column
	}
	return Sigil + r.Table + "." + Sigil + r.Column
}

// Qualified reports whether the reference names a table.
func (r ColumnRef) Qualified() bool {
	return r.Table != ""
}

// Checker validates names against a reserved-word set. A Checker is
// immutable and safe for concurrent use.
type Checker struct {
	reserved map[string]struct{}
}

// NewChecker returns a checker rejecting the given words. Words are
// compared after Unicode case folding.
func NewChecker(words ...string) *Checker {
	c := &Checker{reserved: make(map[string]struct{}, len(words))}
	for _, w := range words {
		c.reserved[fold(w)] = struct{}{}
	}
	return c
}

// With returns a new checker that also rejects words.
func (c *Checker) With(words ...string) *Checker {
	out := &Checker{reserved: make(map[string]struct{}, len(c.reserved)+len(words))}
	for w := range c.reserved {
		out.reserved[w] = struct{}{}
	}
	for _, w := range words {
		out.reserved[fold(w)] = struct{}{}
	}
	return out
}

// IsReserved reports whether word is in the reserved set.
func (c *Checker) IsReserved(word string) bool {
	_, ok := c.reserved[fold(word)]
	return ok
}

// Words returns the reserved set in sorted order.
func (c *Checker) Words() []string {
	return ir.SortedKeys(c.reserved)
}

// fold builds a fresh Caser per call; cases.Caser is stateful.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ValidateEntityName checks name against the entity-name rules.
func (c *Checker) ValidateEntityName(name string) error {
	if name == "" {
		return ir.Lexical(ir.ErrEmptyName, "", "entity name must not be empty")
	}
	if !isLetter(name[0]) && name[0] != '_' {
		return ir.Lexical(ir.ErrNameStart, "",
			"entity name %q must start with a letter or underscore", name)
	}
	for _, r := range name {
		if r < utf8.RuneSelf {
			b := byte(r)
			if isLetter(b) || isDigit(b) || b == '_' || b == '-' {
				continue
			}
		}
		return ir.Lexical(ir.ErrNameChar, "",
			"entity name %q contains invalid character %q", name, r)
	}
	if c.IsReserved(name) {
		return ir.Lexical(ir.ErrReservedWord, "", "entity name %q is a reserved word", name)
	}
	return nil
}

// ValidateColumnIdentifier checks v and parses it into a ColumnRef.
func (c *Checker) ValidateColumnIdentifier(v any) (ColumnRef, error) {
	s, ok := v.(string)
	if !ok {
		return ColumnRef{}, ir.Lexical(ir.ErrInvalidIdentifier, "",
			"column identifier must be a string, got %s", ir.Describe(v))
	}
	if !strings.HasPrefix(s, Sigil) {
		return ColumnRef{}, ir.Lexical(ir.ErrMissingSigil, "",
			"column identifier %q must start with $", s)
	}
	segments := strings.Split(s, ".")
	if len(segments) > 2 {
		return ColumnRef{}, ir.Lexical(ir.ErrTooManySegments, "",
			"column identifier %q has %d segments, at most two segments are allowed", s, len(segments))
	}
	names := make([]string, len(segments))
	for i, seg := range segments {
		if !strings.HasPrefix(seg, Sigil) {
			return ColumnRef{}, ir.Lexical(ir.ErrMissingSigil, "",
				"segment %q of column identifier %q must start with $", seg, s)
		}
		name := strings.TrimPrefix(seg, Sigil)
		if err := c.ValidateEntityName(name); err != nil {
			return ColumnRef{}, err
		}
		names[i] = name
	}
	if len(names) == 2 {
		return ColumnRef{Table: names[0], Column: names[1]}, nil
	}
	return ColumnRef{Column: names[0]}, nil
}

// ValidateFieldPath checks a filter key of the form "column" or
// "table.column", where each part is an entity name without a sigil.
func (c *Checker) ValidateFieldPath(path string) (ColumnRef, error) {
	parts := strings.Split(path, ".")
	if len(parts) > 2 {
		return ColumnRef{}, ir.Lexical(ir.ErrTooManySegments, "",
			"field %q has %d segments, at most two segments are allowed", path, len(parts))
	}
	for _, p := range parts {
		if err := c.ValidateEntityName(p); err != nil {
			return ColumnRef{}, err
		}
	}
	if len(parts) == 2 {
		return ColumnRef{Table: parts[0], Column: parts[1]}, nil
	}
	return ColumnRef{Column: parts[0]}, nil
}

// IsColumnIdentifier reports whether v has the shape of a column
// identifier: a string beginning with the sigil. It does not validate the
// segments.
func IsColumnIdentifier(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, Sigil)
}

// Default is the checker used by the package-level functions.
var Default = NewChecker(reservedWords...)

// ReservedWords returns the words the Default checker rejects.
func ReservedWords() []string {
	return slices.Clone(reservedWords)
}

// ValidateEntityName checks name with the Default checker.
func ValidateEntityName(name string) error {
	return Default.ValidateEntityName(name)
}

// ValidateColumnIdentifier checks v with the Default checker.
func ValidateColumnIdentifier(v any) (ColumnRef, error) {
	return Default.ValidateColumnIdentifier(v)
}

// ValidateFieldPath checks path with the Default checker.
func ValidateFieldPath(path string) (ColumnRef, error) {
	return Default.ValidateFieldPath(path)
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
