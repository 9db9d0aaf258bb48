package generator

import (
	"fmt"
	"strings"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/value"
)

func init() {
	// A regex literal is only meaningful as the search-argument node at
	// one of the four call sites tryGenRegexMethod intercepts in
	// genMethodCall, before natives.Lookup ever sees it — so genCall's
	// normal argument evaluation never reaches a bare "regex" node in
	// practice. This entry exists only to turn any other use (assigning
	// a regex literal to a variable, passing it to an arbitrary
	// function) into a clear compile error instead of an unhandled-tag
	// panic.
	addExpr("regex", func(ctx *context.Context, n ast.Node) value.Tagged {
		panic(diag.Errorf(diag.CodeTypeError, "a regex literal is only valid as the search argument of replace/split/match/search"))
	})
}

// tryGenRegexMethod intercepts a String receiver's replace/split/match/
// search call when its first argument is a regex literal (tag "regex",
// [patternText, flagsText] as plain embedded strings — the same
// plain-string convention member-access property names already use for
// non-language-value AST metadata), lowering it through pkg/regex's
// per-pattern matcher instead of pkg/compiler/natives's plain-string
// primitives. ok is false for every other receiver/argument shape, so
// genMethodCall falls through to its existing natives.Lookup path
// unchanged.
func tryGenRegexMethod(ctx *context.Context, recv value.Tagged, method string, argNodes []ast.Node) (value.Tagged, bool) {
	if recv.Kind != value.String || len(argNodes) == 0 {
		return value.Tagged{}, false
	}

	tag, ok := ast.Tag(argNodes[0])
	if !ok || tag != "regex" {
		return value.Tagged{}, false
	}

	patternText, _ := ast.String(ast.NodeAt(argNodes[0], 0))
	flags, _ := ast.String(ast.NodeAt(argNodes[0], 1))
	entry := ctx.InternRegex(patternText, flags)
	global := strings.Contains(flags, "g")

	switch method {
	case "search":
		return genRegexSearch(ctx, recv, entry), true
	case "match":
		if global {
			return genRegexMatchGlobal(ctx, recv, entry), true
		}
		return value.New(value.F64, fmt.Sprintf("(call $%s_exec %s (i32.const 0))", entry.Stem, value.ToF64(recv, ctx))), true
	case "split":
		return genRegexSplit(ctx, recv, entry), true
	case "replace":
		if len(argNodes) < 2 {
			panic(diag.Errorf(diag.CodeArity, "replace requires a replacement argument"))
		}
		repl := Gen(ctx, argNodes[1])
		return genRegexReplace(ctx, recv, entry, repl, global), true
	default:
		panic(diag.Errorf(diag.CodeTypeError, "a regex literal is not a valid argument to %s", method))
	}
}

// genRegexSearch lowers String.search(/pattern/): the index of the
// first match counted from the string's start, or -1. Unlike match/
// replace, JS's search() ignores the /g flag entirely, always looking
// from position 0.
func genRegexSearch(ctx *context.Context, recv value.Tagged, entry *context.RegexEntry) value.Tagged {
	code := fmt.Sprintf(`(block (result f64)
  (if (result f64) (i32.lt_s (call $%s %s (i32.const 0)) (i32.const 0))
    (then (f64.const -1))
    (else (f64.convert_i32_s (i32.load (i32.const %d))))))`,
		entry.Stem, value.ToF64(recv, ctx), entry.SavesOffset)

	return value.New(value.F64, code)
}

// genRegexMatchGlobal lowers String.match(/pattern/g): the array of
// every whole-match substring (capture groups are not included, per
// JS's own global-match semantics), or the null sentinel if nothing
// matched. A zero-length match advances the scan position by one code
// unit past the match so the loop always terminates.
func genRegexMatchGlobal(ctx *context.Context, recv value.Tagged, entry *context.RegexEntry) value.Tagged {
	ctx.Use("alloc")
	ctx.Use("arr_push")
	ctx.Use("str_copy")
	ctx.Use("ptr_len")

	s := ctx.NewTemp(value.String)
	pos := ctx.NewTemp(value.I32)
	end := ctx.NewTemp(value.I32)
	matchStart := ctx.NewTemp(value.I32)
	out := ctx.NewTemp(value.Array)
	label := ctx.Fresh("rxmatch")
	saves := entry.SavesOffset

	var b strings.Builder
	fmt.Fprintf(&b, "(local.set $%s %s)\n", s.MangledName, value.ToF64(recv, ctx))
	fmt.Fprintf(&b, "(local.set $%s (call $alloc (i32.const 0) (i32.const 0)))\n", out.MangledName)
	fmt.Fprintf(&b, "(block $done%s (loop $each%s\n", label, label)
	fmt.Fprintf(&b, "  (local.set $%s (call $%s (local.get $%s) (local.get $%s)))\n", end.MangledName, entry.Stem, s.MangledName, pos.MangledName)
	fmt.Fprintf(&b, "  (br_if $done%s (i32.lt_s (local.get $%s) (i32.const 0)))\n", label, end.MangledName)
	fmt.Fprintf(&b, "  (local.set $%s (i32.load (i32.const %d)))\n", matchStart.MangledName, saves)
	fmt.Fprintf(&b, "  (local.set $%s (call $arr_push (local.get $%s) (call $str_copy (local.get $%s) (local.get $%s) (i32.sub (local.get $%s) (local.get $%s)))))\n",
		out.MangledName, out.MangledName, s.MangledName, matchStart.MangledName, end.MangledName, matchStart.MangledName)
	fmt.Fprintf(&b, "  (if (i32.eq (local.get $%s) (local.get $%s))\n    (then (local.set $%s (i32.add (local.get $%s) (i32.const 1))))\n    (else (local.set $%s (local.get $%s))))\n",
		end.MangledName, matchStart.MangledName, pos.MangledName, end.MangledName, pos.MangledName, end.MangledName)
	fmt.Fprintf(&b, "  (br $each%s)))\n", label)

	code := fmt.Sprintf("(block (result f64) %s(if (result f64) (i32.eqz (i32.trunc_f64_u (call $ptr_len (local.get $%s)))) (then (f64.const 0)) (else (local.get $%s))))",
		b.String(), out.MangledName, out.MangledName)

	return value.New(value.F64, code)
}

// genRegexSplit lowers String.split(/pattern/): the pieces of the
// string falling between successive matches, the way str_split already
// does for a literal-string separator. A zero-length match yields an
// empty piece rather than looping forever, and advances past itself by
// one code unit, the same simplification genRegexMatchGlobal makes.
func genRegexSplit(ctx *context.Context, recv value.Tagged, entry *context.RegexEntry) value.Tagged {
	ctx.Use("alloc")
	ctx.Use("arr_push")
	ctx.Use("str_copy")
	ctx.Use("str_len")

	s := ctx.NewTemp(value.String)
	pos := ctx.NewTemp(value.I32)
	end := ctx.NewTemp(value.I32)
	matchStart := ctx.NewTemp(value.I32)
	out := ctx.NewTemp(value.Array)
	label := ctx.Fresh("rxsplit")
	saves := entry.SavesOffset

	var b strings.Builder
	fmt.Fprintf(&b, "(local.set $%s %s)\n", s.MangledName, value.ToF64(recv, ctx))
	fmt.Fprintf(&b, "(local.set $%s (call $alloc (i32.const 0) (i32.const 0)))\n", out.MangledName)
	fmt.Fprintf(&b, "(block $done%s (loop $each%s\n", label, label)
	fmt.Fprintf(&b, "  (local.set $%s (call $%s (local.get $%s) (local.get $%s)))\n", end.MangledName, entry.Stem, s.MangledName, pos.MangledName)
	fmt.Fprintf(&b, "  (br_if $done%s (i32.lt_s (local.get $%s) (i32.const 0)))\n", label, end.MangledName)
	fmt.Fprintf(&b, "  (local.set $%s (i32.load (i32.const %d)))\n", matchStart.MangledName, saves)
	fmt.Fprintf(&b, "  (local.set $%s (call $arr_push (local.get $%s) (call $str_copy (local.get $%s) (local.get $%s) (i32.sub (local.get $%s) (local.get $%s)))))\n",
		out.MangledName, out.MangledName, s.MangledName, pos.MangledName, matchStart.MangledName, pos.MangledName)
	fmt.Fprintf(&b, "  (if (i32.eq (local.get $%s) (local.get $%s))\n    (then (local.set $%s (i32.add (local.get $%s) (i32.const 1))))\n    (else (local.set $%s (local.get $%s))))\n",
		end.MangledName, matchStart.MangledName, pos.MangledName, end.MangledName, pos.MangledName, end.MangledName)
	fmt.Fprintf(&b, "  (br $each%s)))\n", label)
	fmt.Fprintf(&b, "(local.set $%s (call $arr_push (local.get $%s) (call $str_copy (local.get $%s) (local.get $%s) (i32.sub (call $str_len (local.get $%s)) (local.get $%s)))))\n",
		out.MangledName, out.MangledName, s.MangledName, pos.MangledName, s.MangledName, pos.MangledName)

	code := fmt.Sprintf("(block (result f64) %s(local.get $%s))", b.String(), out.MangledName)

	return value.New(value.Array, code)
}

// genRegexReplace lowers String.replace(/pattern/, replacement):
// without the /g flag, only the first match is substituted (str_replace
// already gives a literal-string needle this semantics; this mirrors it
// for a regex needle); with /g, every match is substituted in one pass,
// with a zero-length match's one skipped code unit carried through
// unchanged so the loop still terminates without dropping text.
func genRegexReplace(ctx *context.Context, recv value.Tagged, entry *context.RegexEntry, repl value.Tagged, global bool) value.Tagged {
	ctx.Use("str_copy")
	ctx.Use("str_len")
	ctx.Use("strcat3")

	s := ctx.NewTemp(value.String)
	end := ctx.NewTemp(value.I32)
	saves := entry.SavesOffset

	if !global {
		code := fmt.Sprintf(`(block (result f64)
  (local.set $%s %s)
  (local.set $%s (call $%s (local.get $%s) (i32.const 0)))
  (if (result f64) (i32.lt_s (local.get $%s) (i32.const 0))
    (then (local.get $%s))
    (else (call $strcat3
      (call $str_copy (local.get $%s) (i32.const 0) (i32.load (i32.const %d)))
      %s
      (call $str_copy (local.get $%s) (local.get $%s) (i32.sub (call $str_len (local.get $%s)) (local.get $%s)))))))`,
			s.MangledName, value.ToF64(recv, ctx),
			end.MangledName, entry.Stem, s.MangledName,
			end.MangledName,
			s.MangledName,
			s.MangledName, saves,
			value.ToF64(repl, ctx),
			s.MangledName, end.MangledName, s.MangledName, end.MangledName)

		return value.New(value.String, code)
	}

	ctx.Use("strcat")
	ctx.Use("str_empty")

	pos := ctx.NewTemp(value.I32)
	matchStart := ctx.NewTemp(value.I32)
	out := ctx.NewTemp(value.String)
	label := ctx.Fresh("rxreplace")

	var b strings.Builder
	fmt.Fprintf(&b, "(local.set $%s %s)\n", s.MangledName, value.ToF64(recv, ctx))
	fmt.Fprintf(&b, "(local.set $%s (call $str_empty))\n", out.MangledName)
	fmt.Fprintf(&b, "(block $done%s (loop $each%s\n", label, label)
	fmt.Fprintf(&b, "  (local.set $%s (call $%s (local.get $%s) (local.get $%s)))\n", end.MangledName, entry.Stem, s.MangledName, pos.MangledName)
	fmt.Fprintf(&b, "  (br_if $done%s (i32.lt_s (local.get $%s) (i32.const 0)))\n", label, end.MangledName)
	fmt.Fprintf(&b, "  (local.set $%s (i32.load (i32.const %d)))\n", matchStart.MangledName, saves)
	fmt.Fprintf(&b, "  (local.set $%s (call $strcat3 (local.get $%s) (call $str_copy (local.get $%s) (local.get $%s) (i32.sub (local.get $%s) (local.get $%s))) %s))\n",
		out.MangledName, out.MangledName, s.MangledName, pos.MangledName, matchStart.MangledName, pos.MangledName, value.ToF64(repl, ctx))
	fmt.Fprintf(&b, "  (if (i32.eq (local.get $%s) (local.get $%s))\n", end.MangledName, matchStart.MangledName)
	fmt.Fprintf(&b, "    (then (local.set $%s (call $strcat (local.get $%s) (call $str_copy (local.get $%s) (local.get $%s) (i32.const 1))))\n", out.MangledName, out.MangledName, s.MangledName, matchStart.MangledName)
	fmt.Fprintf(&b, "          (local.set $%s (i32.add (local.get $%s) (i32.const 1))))\n", pos.MangledName, matchStart.MangledName)
	fmt.Fprintf(&b, "    (else (local.set $%s (local.get $%s))))\n", pos.MangledName, end.MangledName)
	fmt.Fprintf(&b, "  (br $each%s)))\n", label)
	fmt.Fprintf(&b, "(local.set $%s (call $strcat (local.get $%s) (call $str_copy (local.get $%s) (local.get $%s) (i32.sub (call $str_len (local.get $%s)) (local.get $%s)))))\n",
		out.MangledName, out.MangledName, s.MangledName, pos.MangledName, s.MangledName, pos.MangledName)

	code := fmt.Sprintf("(block (result f64) %s(local.get $%s))", b.String(), out.MangledName)

	return value.New(value.String, code)
}
