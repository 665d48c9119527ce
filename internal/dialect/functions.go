package dialect

import (
	"fmt"
	"strings"

	"github.com/roach88/sqlir/internal/expr"
	"github.com/roach88/sqlir/internal/ir"
)

// Call renders NAME(a, b, ...).
func Call(name string) FuncRenderer {
	return func(args []string) (string, error) {
		return name + "(" + strings.Join(args, ", ") + ")", nil
	}
}

// Infix renders (a op b op ...).
func Infix(op string) FuncRenderer {
	return func(args []string) (string, error) {
		return "(" + strings.Join(args, " "+op+" ") + ")", nil
	}
}

// Template renders a fmt format over the arguments, which are referenced
// as %[1]s, %[2]s and so on.
func Template(format string) FuncRenderer {
	return func(args []string) (string, error) {
		vals := make([]any, len(args))
		for i, a := range args {
			vals[i] = a
		}
		return fmt.Sprintf(format, vals...), nil
	}
}

// Unsupported renders nothing and reports why.
func Unsupported(dialect, construct string) FuncRenderer {
	return func([]string) (string, error) {
		return "", ir.Compile(ir.ErrUnsupported, "", "%s does not support %s", dialect, construct)
	}
}

// standardFunctions are spelled the same by every builtin dialect.
func standardFunctions() map[expr.Tag]FuncRenderer {
	return map[expr.Tag]FuncRenderer{
		expr.TagConcat:   Call("CONCAT"),
		expr.TagLower:    Call("LOWER"),
		expr.TagUpper:    Call("UPPER"),
		expr.TagTrim:     Call("TRIM"),
		expr.TagReplace:  Call("REPLACE"),
		expr.TagSubstr:   Call("SUBSTR"),
		expr.TagLength:   Call("LENGTH"),
		expr.TagAbs:      Call("ABS"),
		expr.TagRound:    Call("ROUND"),
		expr.TagAdd:      Infix("+"),
		expr.TagSubtract: Infix("-"),
		expr.TagMultiply: Infix("*"),
		expr.TagDivide:   Infix("/"),
		expr.TagModulo:   Infix("%"),
	}
}

// unitSeconds converts the fixed-length date units to seconds.
var unitSeconds = map[string]int{
	"SECOND": 1,
	"MINUTE": 60,
	"HOUR":   3600,
	"DAY":    86400,
	"WEEK":   604800,
}
