// Package query validates DDL and DML query candidates into typed
// statements.
//
// A candidate is a plain tree as produced by encoding/json, yaml.v3 or a
// CUE decode: map[string]any, []any and scalars. Validation runs in two
// tiers. The base check confirms the object shape, the type tag and the
// names common to the category. The per-tag check then validates the
// fields that tag requires and permits; any other key is rejected.
//
// Validation is fail-fast and pure. The first violation is returned as an
// *ir.Error carrying the path of the offending node.
package query

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/sqlir/internal/aggregate"
	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/filter"
	"github.com/roach88/sqlir/internal/ir"
	"github.com/roach88/sqlir/internal/lexical"
)

// Validator validates query candidates. A Validator is immutable after
// construction and safe for concurrent use.
type Validator struct {
	checker  *lexical.Checker
	exprs    *expr.Parser
	aggrs    *aggregate.Parser
	filters  *filter.Parser
	maxDepth int
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithChecker sets the reserved-word checker used for every name.
func WithChecker(c *lexical.Checker) Option {
	return func(v *Validator) {
		if c != nil {
			v.checker = c
		}
	}
}

// WithMaxDepth bounds the nesting of expressions, aggregates and filters.
// A non-positive depth selects ir.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(v *Validator) {
		v.maxDepth = depth
	}
}

// WithLogger sets the logger. Outcomes are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		checker: lexical.Default,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.exprs = expr.NewParser(v.checker)
	v.aggrs = aggregate.NewParser(v.checker)
	v.filters = filter.NewParser(v.checker)
	return v
}

// Validate validates a DDL or DML candidate.
func Validate(tree any) (Statement, error) {
	return NewValidator().Validate(tree)
}

// ValidateDDL validates a candidate that must be a DDL query.
func ValidateDDL(tree any) (Statement, error) {
	return NewValidator().ValidateDDL(tree)
}

// ValidateDML validates a candidate that must be a DML query.
func ValidateDML(tree any) (Statement, error) {
	return NewValidator().ValidateDML(tree)
}

// Validate validates a DDL or DML candidate.
func (v *Validator) Validate(tree any) (Statement, error) {
	return v.run(tree, ddlTypes, dmlTypes)
}

// ValidateDDL validates a candidate that must be a DDL query.
func (v *Validator) ValidateDDL(tree any) (Statement, error) {
	return v.run(tree, ddlTypes)
}

// ValidateDML validates a candidate that must be a DML query.
func (v *Validator) ValidateDML(tree any) (Statement, error) {
	return v.run(tree, dmlTypes)
}

func (v *Validator) run(tree any, catalogs ...[]Type) (Statement, error) {
	stmt, err := v.statement(tree, ir.Root("", v.maxDepth), slices.Concat(catalogs...))
	if err != nil {
		v.logger.Debug("query rejected", "error", err)
		return nil, err
	}
	v.logger.Debug("query validated", "type", stmt.Type())
	return stmt, nil
}

// statement runs the base check and dispatches on the type tag.
func (v *Validator) statement(tree any, cur ir.Cursor, allowed []Type) (Statement, error) {
	cur, err := cur.Descend()
	if err != nil {
		return nil, err
	}
	m, ok := tree.(map[string]any)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "query must be an object, got %s", ir.Describe(tree))
	}
	o := v.object(m, cur)

	raw, ok := m["type"]
	if !ok {
		return nil, ir.Shape(ir.ErrMissingKey, cur.Key("type").Path(), "query type is required")
	}
	name, ok := raw.(string)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Key("type").Path(), "query type must be a string, got %s", ir.Describe(raw))
	}
	t := Type(name)
	if !slices.Contains(allowed, t) {
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}
		return nil, ir.UnknownTag(cur.Key("type").Path(),
			"unknown query type %q, expected one of: %s", name, strings.Join(names, ", "))
	}

	if t.IsDDL() {
		return v.ddl(t, o)
	}
	return v.dml(t, o)
}

// object reads the fields of one candidate object at a cursor.
type object struct {
	v   *Validator
	m   map[string]any
	cur ir.Cursor
}

func (v *Validator) object(m map[string]any, cur ir.Cursor) object {
	return object{v: v, m: m, cur: cur}
}

func (o object) has(key string) bool {
	_, ok := o.m[key]
	return ok
}

func (o object) at(key string) ir.Cursor {
	return o.cur.Key(key)
}

// allow rejects keys outside the permitted set.
func (o object) allow(keys ...string) error {
	for _, k := range ir.SortedKeys(o.m) {
		if !slices.Contains(keys, k) {
			return ir.Shape(ir.ErrUnexpectedKey, o.at(k).Path(), "unexpected key %q", k)
		}
	}
	return nil
}

func (o object) missing(key string) error {
	return ir.Shape(ir.ErrMissingKey, o.at(key).Path(), "%s is required", key)
}

// name reads an entity name. An absent optional name is "".
func (o object) name(key string, required bool) (string, error) {
	raw, ok := o.m[key]
	if !ok {
		if required {
			return "", o.missing(key)
		}
		return "", nil
	}
	return o.v.entityName(raw, o.at(key))
}

func (v *Validator) entityName(raw any, cur ir.Cursor) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", ir.Shape(ir.ErrWrongType, cur.Path(), "expected a name, got %s", ir.Describe(raw))
	}
	if err := v.checker.ValidateEntityName(s); err != nil {
		return "", ir.AtPath(err, cur.Path())
	}
	return s, nil
}

// flag reads an optional boolean.
func (o object) flag(key string) (bool, error) {
	raw, ok := o.m[key]
	if !ok {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, ir.Shape(ir.ErrWrongType, o.at(key).Path(), "%s must be a boolean, got %s", key, ir.Describe(raw))
	}
	return b, nil
}

// names reads an array of distinct entity names. When required the key
// must be present; when nonEmpty the array must have an element.
func (o object) names(key string, required, nonEmpty bool) ([]string, error) {
	raw, ok := o.m[key]
	if !ok {
		if required {
			return nil, o.missing(key)
		}
		return nil, nil
	}
	return o.v.nameList(raw, o.at(key), nonEmpty)
}

func (v *Validator) nameList(raw any, cur ir.Cursor, nonEmpty bool) ([]string, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, ir.Shape(ir.ErrWrongType, cur.Path(), "expected an array of names, got %s", ir.Describe(raw))
	}
	if nonEmpty && len(list) == 0 {
		return nil, ir.Shape(ir.ErrArity, cur.Path(), "expected at least 1 name")
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		n, err := v.entityName(item, cur.Index(i))
		if err != nil {
			return nil, err
		}
		if slices.Contains(out, n) {
			return nil, ir.Composition(ir.ErrDuplicateName, cur.Index(i).Path(), "duplicate name %q", n)
		}
		out = append(out, n)
	}
	return out, nil
}

// list reads an array.
func (o object) list(key string, required, nonEmpty bool) ([]any, bool, error) {
	raw, ok := o.m[key]
	if !ok {
		if required {
			return nil, false, o.missing(key)
		}
		return nil, false, nil
	}
	l, ok := raw.([]any)
	if !ok {
		return nil, false, ir.Shape(ir.ErrWrongType, o.at(key).Path(), "%s must be an array, got %s", key, ir.Describe(raw))
	}
	if nonEmpty && len(l) == 0 {
		return nil, false, ir.Shape(ir.ErrArity, o.at(key).Path(), "%s must not be empty", key)
	}
	return l, true, nil
}

// child reads a nested object.
func (o object) child(key string, required bool) (object, bool, error) {
	raw, ok := o.m[key]
	if !ok {
		if required {
			return object{}, false, o.missing(key)
		}
		return object{}, false, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return object{}, false, ir.Shape(ir.ErrWrongType, o.at(key).Path(), "%s must be an object, got %s", key, ir.Describe(raw))
	}
	return o.v.object(m, o.at(key)), true, nil
}

// element reads element i of a list as an object.
func (v *Validator) element(raw any, cur ir.Cursor) (object, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return object{}, ir.Shape(ir.ErrWrongType, cur.Path(), "expected an object, got %s", ir.Describe(raw))
	}
	return v.object(m, cur), nil
}

// count reads an optional non-negative integer.
func (o object) count(key string) (*int64, error) {
	raw, ok := o.m[key]
	if !ok {
		return nil, nil
	}
	n, err := nonNegative(raw, o.at(key))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func nonNegative(raw any, cur ir.Cursor) (int64, error) {
	if !ir.IsInteger(raw) {
		return 0, ir.Shape(ir.ErrWrongType, cur.Path(), "expected an integer, got %s", ir.Describe(raw))
	}
	val, err := ir.FromAny(raw)
	if err != nil {
		return 0, ir.Shape(ir.ErrWrongType, cur.Path(), "%v", err)
	}
	var n int64
	switch x := val.(type) {
	case ir.Int:
		n = int64(x)
	case ir.Decimal:
		b := x.BigInt()
		if !b.IsInt64() {
			return 0, ir.Shape(ir.ErrInvalidValue, cur.Path(), "integer is out of range")
		}
		n = b.Int64()
	default:
		return 0, ir.Shape(ir.ErrInvalidValue, cur.Path(), "integer is out of range")
	}
	if n < 0 {
		return 0, ir.Shape(ir.ErrInvalidValue, cur.Path(), "expected a non-negative integer, got %d", n)
	}
	return n, nil
}

// tableName reads the schema key and the given name key.
func (o object) tableName(key string) (TableName, error) {
	schema, err := o.name("schema", false)
	if err != nil {
		return TableName{}, err
	}
	name, err := o.name(key, true)
	if err != nil {
		return TableName{}, err
	}
	return TableName{Schema: schema, Name: name}, nil
}

// subset checks that every name is in universe.
func subset(names, universe []string, cur ir.Cursor, what string) error {
	for i, n := range names {
		if !slices.Contains(universe, n) {
			return ir.Composition(ir.ErrUnknownColumn, cur.Index(i).Path(), "%s %q is not a declared column", what, n)
		}
	}
	return nil
}
