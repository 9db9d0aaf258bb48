package generator

import (
	"fmt"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/value"
)

func init() {
	addStmt(";", stmtBlock)
	addStmt("{}", stmtBlock)
	addStmt("if", stmtIf)
	addStmt("while", stmtWhile)
	addStmt("for", stmtFor)
	addStmt("switch", stmtSwitch)
	addStmt("break", stmtBreak)
	addStmt("continue", stmtContinue)
	addStmt("return", stmtReturn)
}

func stmtBlock(ctx *context.Context, n ast.Node) string {
	return Block(ctx, ast.Nodes(n, 0))
}

// bodyStmt lowers a statement appearing as the body of `if`/`while`/`for`:
// a brace block opens its own scope, a bare statement (`if (x) y;`) does
// not need one of its own.
func bodyStmt(ctx *context.Context, n ast.Node) string {
	if n == nil {
		return ""
	}

	if tag, ok := ast.Tag(n); ok && (tag == "{}" || tag == ";") {
		return Block(ctx, ast.Nodes(n, 0))
	}

	return Stmt(ctx, n)
}

func stmtIf(ctx *context.Context, n ast.Node) string {
	cond := Gen(ctx, ast.NodeAt(n, 0))
	test := value.Truthy(cond, ctx)

	thenCode := bodyStmt(ctx, ast.NodeAt(n, 1))
	elseNode := ast.NodeAt(n, 2)

	if elseNode == nil {
		return fmt.Sprintf("(if %s (then %s))", test, thenCode)
	}

	return fmt.Sprintf("(if %s (then %s) (else %s))", test, thenCode, bodyStmt(ctx, elseNode))
}

// stmtWhile re-tests the condition at the top of the loop on every
// iteration, including the one `continue` jumps back to — a plain while
// has no step clause to skip.
func stmtWhile(ctx *context.Context, n ast.Node) string {
	cond := ast.NodeAt(n, 0)
	body := ast.NodeAt(n, 1)

	label := ctx.Fresh("while")
	breakLabel := "$break_" + label
	continueLabel := "$continue_" + label

	ctx.PushLoop(breakLabel, continueLabel)
	defer ctx.PopLoop()

	condCode := value.Truthy(Gen(ctx, cond), ctx)
	bodyCode := bodyStmt(ctx, body)

	return fmt.Sprintf(`(block %s (loop %s
  (br_if %s (i32.eqz %s))
  %s
  (br %s)))`, breakLabel, continueLabel, breakLabel, condCode, bodyCode, continueLabel)
}

// stmtFor wraps the body in its own inner block so `continue` can branch
// past it without skipping the step clause: a bare `br` to the loop top
// would re-test the condition without ever running step.
func stmtFor(ctx *context.Context, n ast.Node) string {
	ctx.PushScope()
	defer ctx.PopScope()

	initCode := Stmt(ctx, ast.NodeAt(n, 0))
	condNode := ast.NodeAt(n, 1)
	stepNode := ast.NodeAt(n, 2)
	body := ast.NodeAt(n, 3)

	label := ctx.Fresh("for")
	breakLabel := "$break_" + label
	topLabel := "$top_" + label
	continueLabel := "$continue_" + label

	ctx.PushLoop(breakLabel, continueLabel)
	defer ctx.PopLoop()

	var condCode string
	if condNode != nil {
		condCode = fmt.Sprintf("(br_if %s (i32.eqz %s))", breakLabel, value.Truthy(Gen(ctx, condNode), ctx))
	}

	bodyCode := bodyStmt(ctx, body)
	stepCode := Stmt(ctx, stepNode)

	return fmt.Sprintf(`%s
(block %s (loop %s
  %s
  (block %s %s)
  %s
  (br %s)))`, initCode, breakLabel, topLabel, condCode, continueLabel, bodyCode, stepCode, topLabel)
}

// stmtSwitch lowers to a chain of strict-equality tests against the
// discriminant, each wrapped to branch to the shared break label on
// match; case bodies are always treated as though terminated by an
// implicit break (fall-through between cases is not supported).
func stmtSwitch(ctx *context.Context, n ast.Node) string {
	disc := Gen(ctx, ast.NodeAt(n, 0))
	tmp := ctx.NewTemp(disc.Kind)

	label := ctx.Fresh("switch")
	breakLabel := "$break_" + label

	ctx.PushLoop(breakLabel, "")
	defer ctx.PopLoop()

	var b fmtBuilder
	b.add("(local.set $%s %s)", tmp.MangledName, disc.Code)
	b.add("(block %s", breakLabel)

	var defaultCode string
	haveDefault := false

	for _, c := range ast.Nodes(n, 1) {
		tag, ok := ast.Tag(c)
		if !ok {
			continue
		}

		switch tag {
		case "case":
			caseVal := Gen(ctx, ast.NodeAt(c, 0))
			cond := caseMatches(ctx, value.New(disc.Kind, fmt.Sprintf("(local.get $%s)", tmp.MangledName)), caseVal)
			body := Block(ctx, ast.Nodes(c, 1))
			b.add("(if %s (then %s (br %s)))", cond, body, breakLabel)
		case "default":
			haveDefault = true
			defaultCode = Block(ctx, ast.Nodes(c, 0))
		}
	}

	if haveDefault {
		b.add("%s", defaultCode)
	}

	b.add(")")

	return b.String()
}

// caseMatches compares a switch discriminant against one case value
// using the same strict-equality rule as the "===" operator.
func caseMatches(ctx *context.Context, disc, caseVal value.Tagged) string {
	kind, lc, rc := value.Reconcile(disc, caseVal, ctx)
	if kind == value.I32 {
		return fmt.Sprintf("(i32.eq %s %s)", lc, rc)
	}

	ctx.Use("f64_eq")
	return fmt.Sprintf("(call $f64_eq %s %s)", lc, rc)
}

func stmtBreak(ctx *context.Context, n ast.Node) string {
	label, ok := ctx.BreakTarget()
	if !ok {
		panic(diag.Errorf(diag.CodeTypeError, "break outside of a loop or switch"))
	}

	return fmt.Sprintf("(br %s)", label)
}

func stmtContinue(ctx *context.Context, n ast.Node) string {
	label, ok := ctx.ContinueTarget()
	if !ok {
		panic(diag.Errorf(diag.CodeTypeError, "continue outside of a loop"))
	}

	return fmt.Sprintf("(br %s)", label)
}

func stmtReturn(ctx *context.Context, n ast.Node) string {
	v := ast.NodeAt(n, 0)
	if v == nil {
		return "(return (f64.const 0))"
	}

	return fmt.Sprintf("(return %s)", value.ToF64(Gen(ctx, v), ctx))
}

// fmtBuilder is a tiny join-with-newline helper used by stmtSwitch to
// keep its construction readable.
type fmtBuilder struct {
	parts []string
}

func (b *fmtBuilder) add(format string, args ...any) {
	b.parts = append(b.parts, fmt.Sprintf(format, args...))
}

func (b *fmtBuilder) String() string {
	s := ""
	for _, p := range b.parts {
		s += p + "\n"
	}

	return s
}
