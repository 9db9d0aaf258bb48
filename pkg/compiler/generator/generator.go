// Package generator lowers one function body (or the top-level program,
// treated as an implicit zero-arity function) from pkg/ast's sexp-of-
// arrays tree into WAT text. It is the single consumer of
// pkg/compiler/scope (for closure/free-variable analysis) and
// pkg/compiler/context (for the mutable per-compilation state); pkg/
// assembler is the only downstream consumer of what it produces.
//
// Expressions lower to a value.Tagged: a self-contained WAT expression
// fragment plus the static Kind needed to choose the next instruction.
// Statements lower to plain WAT text with no result value. Gen is the
// expression entry point and Stmt the statement entry point; each
// consults its own dispatch table (exprDispatch, stmtDispatch), so one
// tag can be lowered differently in the two positions.
//
// Tag reference (the input AST's operator tags; the source-text parser
// that produces them is out of scope, so this table is this package's
// one authoritative account of the wire shape it consumes):
//
//	";"        statement sequence: [stmt, …]
//	"{}"       block (statement position) or object literal (expression
//	           position): same tag, disambiguated by which dispatch
//	           table the caller consults
//	"let"/"const"/"var"  declaration: [assignment-node]
//	"="        assignment or declaration initialiser: [target, value]
//	"+=" "-=" "*=" "/=" "%=" "&=" "|=" "^=" "<<=" ">>=" ">>>="
//	           compound assignment: [target, value]
//	"=>"       arrow function: [params, body]
//	"function" named function: [nameIdent, params, body]
//	"return"   [valueOrNil]
//	"break"/"continue" [labelOrNil]
//	"if"       [cond, then, elseOrNil]
//	"while"    [cond, body]
//	"for"      [init, cond, step, body]
//	"switch"   [discriminant, cases]; each case is ["case", value, body]
//	           or ["default", body]
//	"[]"       array literal (expression position): [elements]
//	"index"    index access: [object, index]
//	":"        object-literal property or destructuring rename:
//	           [key, value]
//	"..."      spread/rest: [target]
//	"."        member access: [object, propName]
//	"?."       optional member access: [object, propName]
//	"call"     function/method call: [callee, args]
//	"typeof"/"void"/"!"/"~"/"u-"/"u+"  unary operators: [operand]
//	"+" "-" "*" "/" "%" "**" "&" "|" "^" "<<" ">>" ">>>"
//	           binary arithmetic/bitwise: [left, right]
//	"<" "<=" ">" ">=" "==" "!=" "===" "!==" binary comparison: [left, right]
//	"&&" "||" "??"  short-circuit logical: [left, right]
//	"?:"       ternary: [cond, then, else]
//	"regex"    regex literal, valid only as a replace/split/match/search
//	           call's search argument: [patternText, flagsText] (plain
//	           embedded strings, not value literals)
package generator

import (
	"fmt"
	"strings"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/value"
)

// Gen lowers one AST node to a Tagged expression fragment. It is the
// expression-level entry point; Stmt is its statement-level twin.
func Gen(ctx *context.Context, n ast.Node) value.Tagged {
	if n == nil {
		return value.New(value.Ref, "(f64.const 0)")
	}

	if lit, ok := ast.IsLiteral(n); ok {
		return genLiteral(ctx, lit)
	}

	if name, ok := ast.Ident(n); ok {
		return genIdent(ctx, name)
	}

	tag, ok := ast.Tag(n)
	if !ok {
		panic(diag.Errorf(diag.CodeTypeError, "malformed node %#v", n))
	}

	if fn, ok := exprDispatch[tag]; ok {
		return fn(ctx, n)
	}

	panic(diag.Errorf(diag.CodeTypeError, "unhandled expression tag %q", tag))
}

// Stmt lowers one AST node appearing in statement position to plain WAT
// text (no result value left on the stack). Expression statements are
// wrapped in `drop`; a fragment with empty code emits nothing.
func Stmt(ctx *context.Context, n ast.Node) string {
	if n == nil {
		return ""
	}

	if tag, ok := ast.Tag(n); ok {
		if fn, ok := stmtDispatch[tag]; ok {
			return fn(ctx, n)
		}
	}

	v := Gen(ctx, n)
	return dropped(v)
}

// IsExprStmt reports whether n, appearing in statement position, is a
// bare expression statement rather than a declaration or control-flow
// form: either it has no tag at all (an identifier or literal) or its
// tag has no entry in stmtDispatch. pkg/compiler uses this to decide
// whether a program's trailing top-level statement is its implicit
// result value.
func IsExprStmt(n ast.Node) bool {
	tag, ok := ast.Tag(n)
	if !ok {
		return true
	}

	_, isStmt := stmtDispatch[tag]
	return !isStmt
}

// Block lowers a sequence of statements sharing one pushed scope.
func Block(ctx *context.Context, stmts []ast.Node) string {
	ctx.PushScope()
	defer ctx.PopScope()

	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(Stmt(ctx, s))
		b.WriteString("\n")
	}

	return b.String()
}

func dropped(v value.Tagged) string {
	if v.Code == "" {
		return ""
	}

	return fmt.Sprintf("(drop %s)", v.Code)
}

type exprFunc func(ctx *context.Context, n ast.Node) value.Tagged
type stmtFunc func(ctx *context.Context, n ast.Node) string

// exprDispatch and stmtDispatch are populated by init() in each concern
// file (operators.go, collections.go, control.go, declare.go,
// functions.go) rather than gathered here, so each file owns the tags it
// handles.
var exprDispatch = map[string]exprFunc{}
var stmtDispatch = map[string]stmtFunc{}

func addExpr(tag string, fn exprFunc) {
	if _, dup := exprDispatch[tag]; dup {
		panic("generator: duplicate expression tag " + tag)
	}
	exprDispatch[tag] = fn
}

func addStmt(tag string, fn stmtFunc) {
	if _, dup := stmtDispatch[tag]; dup {
		panic("generator: duplicate statement tag " + tag)
	}
	stmtDispatch[tag] = fn
}

// unknownMethod raises the unknown-method compiler error for a call
// whose receiver kind/method name pair isn't found in pkg/compiler/
// natives's dispatch tables.
func unknownMethod(recv value.Kind, method string) *diag.Error {
	return diag.Errorf(diag.CodeUnknownMethod, "unknown method %q on %s", method, recv)
}
