package generator

import (
	"fmt"
	"strconv"

	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/memory"
	"github.com/jz-lang/jzc/pkg/value"
)

// genLiteral lowers the payload of an untagged `[undefined, value]` node:
// a float64 number, a string, a bool, or nil (null/undefined).
func genLiteral(ctx *context.Context, lit any) value.Tagged {
	switch v := lit.(type) {
	case float64:
		return value.New(value.F64, fmt.Sprintf("(f64.const %s)", formatFloat(v)))
	case bool:
		if v {
			return value.New(value.I32, "(i32.const 1)")
		}
		return value.New(value.I32, "(i32.const 0)")
	case string:
		return genStringLiteral(ctx, v)
	case nil:
		return value.New(value.Ref, "(f64.const 0)")
	default:
		panic(diag.Errorf(diag.CodeTypeError, "unrecognised literal payload %#v", lit))
	}
}

// genStringLiteral interns s (assigning it a data-segment offset
// immediately, via Context.InternString) and emits the exact NaN-boxed
// pointer bit pattern as a constant: string literals never need a
// runtime mkptr call, since their heap location is already fixed at
// compile time.
func genStringLiteral(ctx *context.Context, s string) value.Tagged {
	e := ctx.InternString(s)
	bits := memory.MkPtr(memory.PtrString, uint32(e.Length), e.Offset)

	return value.New(value.String, constBits(bits))
}

// constBits renders a raw NaN-boxed bit pattern as an f64.const literal
// using the `nan:0x<mantissa>` text-format syntax, which lets WAT encode
// an exact 64-bit pattern a plain decimal f64.const could not represent.
// Every jzc pointer constant shares the same sign+exponent bits
// (QuietNaNBits's top twelve bits), so only the low 52-bit mantissa
// needs to be written out.
func constBits(bits uint64) string {
	return fmt.Sprintf("(f64.const nan:0x%x)", bits&0x000fffffffffffff)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// genIdent resolves a bare identifier reference in expression position:
// a local in the current or an enclosing block scope, a field captured
// in the current function's closure environment, a previously
// registered global, or one of the small set of reserved constants
// (NaN, Infinity, undefined) the language exposes without a declaration.
func genIdent(ctx *context.Context, name string) value.Tagged {
	if l, ok := ctx.GetLocal(name); ok {
		return value.New(l.Kind, fmt.Sprintf("(local.get $%s)", l.MangledName))
	}

	if env, field, kind, ok := ctx.ResolveCapture(name); ok {
		ctx.Use("arr_get")
		return value.New(kind, fmt.Sprintf("(call $arr_get (local.get $%s) (i32.const %d))", env, field))
	}

	if g, ok := ctx.GetGlobal(name); ok {
		return value.New(g.Kind, fmt.Sprintf("(global.get $%s)", name))
	}

	switch name {
	case "NaN":
		return value.New(value.F64, "(f64.const nan)")
	case "Infinity":
		return value.New(value.F64, "(f64.const inf)")
	case "undefined", "null":
		return value.New(value.Ref, "(f64.const 0)")
	}

	panic(diag.Errorf(diag.CodeUnknownID, "unknown identifier %q", name))
}
