package ir

import (
	"errors"
	"fmt"
)

// Kind classifies a validation or compilation failure.
type Kind int

const (
	// KindLexical is a bad entity name or column identifier.
	KindLexical Kind = iota + 1
	// KindShape is a wrong arity, missing key or wrong primitive type.
	KindShape
	// KindUnknownTag is an operator, aggregate or query type outside its catalog.
	KindUnknownTag
	// KindComposition is a structurally valid node that does not fit its context.
	KindComposition
	// KindDepth is a tree nested deeper than the configured limit.
	KindDepth
	// KindCompile is a construct the target dialect cannot render.
	KindCompile
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "LexicalError"
	case KindShape:
		return "ShapeError"
	case KindUnknownTag:
		return "UnknownTagError"
	case KindComposition:
		return "CompositionError"
	case KindDepth:
		return "DepthExceeded"
	case KindCompile:
		return "CompileError"
	default:
		return "UnknownError"
	}
}

// Error codes (E200-E299)
const (
	// Lexical errors (E201-E209)
	ErrEmptyName         = "E201" // entity name is empty
	ErrNameStart         = "E202" // entity name does not start with a letter or underscore
	ErrNameChar          = "E203" // entity name contains a character outside [A-Za-z0-9_-]
	ErrReservedWord      = "E204" // entity name is a reserved word
	ErrMissingSigil      = "E205" // column identifier does not start with $
	ErrTooManySegments   = "E206" // column identifier has more than two segments
	ErrInvalidIdentifier = "E207" // column identifier is not a string

	// Shape errors (E210-E219)
	ErrWrongType     = "E210" // value has the wrong primitive type
	ErrMissingKey    = "E211" // required key is absent
	ErrArity         = "E212" // wrong number of arguments
	ErrUnexpectedKey = "E213" // key not permitted here
	ErrInvalidValue  = "E214" // value outside the permitted set
	ErrWrongFamily   = "E215" // sub-expression of the wrong result family

	// Unknown tag (E220)
	ErrUnknownTag = "E220"

	// Composition errors (E230-E239)
	ErrNoOperation   = "E230" // ALTER_TABLE without any operation
	ErrUnresolved    = "E231" // projected name does not resolve
	ErrInvalidJoin   = "E232" // join entry is malformed
	ErrUnknownColumn = "E233" // key references a column not declared
	ErrDuplicateName = "E234" // name declared twice

	// Depth (E240)
	ErrDepthExceeded = "E240"

	// Compile errors (E250-E259)
	ErrMissingType      = "E250" // dialect has no mapping for a DataType
	ErrMissingGenerator = "E251" // dialect has no mapping for a Generator
	ErrUnsupported      = "E252" // dialect cannot render the construct
)

// Error is a structured validation or compilation failure.
// All validators are fail-fast: the first violation is returned as an
// *Error identifying the offending path, tag or value.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func newError(kind Kind, code, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Lexical builds a lexical error.
func Lexical(code, path, format string, args ...any) *Error {
	return newError(KindLexical, code, path, format, args...)
}

// Shape builds a shape error.
func Shape(code, path, format string, args ...any) *Error {
	return newError(KindShape, code, path, format, args...)
}

// UnknownTag builds an unknown-tag error.
func UnknownTag(path, format string, args ...any) *Error {
	return newError(KindUnknownTag, ErrUnknownTag, path, format, args...)
}

// Composition builds a composition error.
func Composition(code, path, format string, args ...any) *Error {
	return newError(KindComposition, code, path, format, args...)
}

// Compile builds a compile error.
func Compile(code, path, format string, args ...any) *Error {
	return newError(KindCompile, code, path, format, args...)
}

// AtPath returns err with its path set to path when err is an *Error with
// no path yet. Other errors are returned unchanged.
func AtPath(err error, path string) error {
	var e *Error
	if errors.As(err, &e) && e.Path == "" {
		cp := *e
		cp.Path = path
		return &cp
	}
	return err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
