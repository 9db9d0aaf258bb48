package scope

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/jz-lang/jzc/pkg/ast"
)

// Closure describes one nested function encountered while analysing an
// enclosing body: its name (empty for an anonymous arrow), parameters,
// body, and the set of identifiers it captures from the enclosing scopes
// at the point it is defined
type Closure struct {
	Name     string
	Params   []string
	Body     ast.Node
	Captured *bitset.BitSet
}

// Analysis is the result of analyzing one function (or top-level) body:
// the identifiers it references but does not define (Free), the
// identifiers it introduces (Defined), and descriptors for any nested
// function definitions found directly or transitively within it.
type Analysis struct {
	Free    *bitset.BitSet
	Defined *bitset.BitSet
	// AllDefined additionally includes every name declared in a nested
	// block anywhere within this function (but not inside a nested
	// function) — the set HoistedVars needs to tell "a local of this
	// function" apart from "a free variable this function itself
	// captures", since block scoping hides a block's own declarations
	// from Defined once the block exits.
	AllDefined *bitset.BitSet
	Inner      []Closure
}

// walker carries the mutable state threaded through one AnalyzeScope call.
type walker struct {
	in           *Interner
	outerDefined *bitset.BitSet
	free         *bitset.BitSet
	defined      *bitset.BitSet
	// allDefined is shared by pointer across every block walker nested
	// within one function, but is fresh for each closure's own inner
	// walker (a new function scope starts a new allDefined set).
	allDefined *bitset.BitSet
	inner      []Closure
	inFunction bool
}

// AnalyzeScope walks a function (or program) body and returns its free
// variables, the variables it defines, and descriptors for any nested
// function definitions.
func AnalyzeScope(in *Interner, body ast.Node, outerDefined *bitset.BitSet, inFunction bool) Analysis {
	w := &walker{
		in:           in,
		outerDefined: outerDefined,
		free:         bitset.New(0),
		defined:      bitset.New(0),
		allDefined:   bitset.New(0),
		inFunction:   inFunction,
	}
	w.walkBody(body)

	return Analysis{Free: w.free, Defined: w.defined, AllDefined: w.allDefined, Inner: w.inner}
}

// AnalyzeFunction is AnalyzeScope specialised for a function's own body
// together with its parameter list: params are seeded into the returned
// Defined/AllDefined sets before body is walked, so a reference to one
// of the function's own parameters is correctly excluded from Free and
// is visible to any closure nested in body as a capturable name (via
// that closure's own Captured computation, which tests against this
// walker's Defined set).
func AnalyzeFunction(in *Interner, params []string, body ast.Node) Analysis {
	w := &walker{
		in:           in,
		outerDefined: bitset.New(0),
		free:         bitset.New(0),
		defined:      bitset.New(0),
		allDefined:   bitset.New(0),
		inFunction:   true,
	}

	for _, p := range params {
		w.define(p)
	}

	w.walkBody(body)

	return Analysis{Free: w.free, Defined: w.defined, AllDefined: w.allDefined, Inner: w.inner}
}

// walkBody walks a function or program body: the statements of a
// top-level sequence or block belong to the function's own scope, so
// their declarations land in this walker's Defined set.
func (w *walker) walkBody(body ast.Node) {
	if tag, ok := ast.Tag(body); ok && (tag == ";" || tag == "{}") {
		for _, s := range ast.Nodes(body, 0) {
			w.stmt(s)
		}
		return
	}

	w.stmt(body)
}

// reference marks name as used; if it is not yet defined in this scope it
// is added to the free set (the lookup against outerDefined/globals/
// reserved constants happens later, during generation — analyze_scope only
// needs to know it did not originate here).
func (w *walker) reference(name string) {
	id := w.in.Intern(name)
	if !w.defined.Test(id) {
		w.free.Set(id)
	}
}

// define records that name is introduced by a declaration or parameter in
// the scope currently being walked.
func (w *walker) define(name string) {
	id := w.in.Intern(name)
	w.defined.Set(id)
	w.allDefined.Set(id)
}

// stmt dispatches on the tag of a single statement or expression node.
// Tags without a case of their own fall back to genericRecurse, which
// treats every argument as itself a sub-expression — correct for the
// operators, conditionals and loops that reach it, since none of them
// introduce bindings.
func (w *walker) stmt(n ast.Node) {
	if n == nil {
		return
	}

	if name, ok := ast.Ident(n); ok {
		w.reference(name)
		return
	}

	if _, ok := ast.IsLiteral(n); ok {
		return
	}

	tag, ok := ast.Tag(n)
	if !ok {
		return
	}

	switch tag {
	case ";", "{}":
		// Sequence / block: walk each statement in its own nested
		// defined set so block-scoped declarations don't leak out,
		// but free variables still bubble up.
		w.block(ast.Nodes(n, 0))
	case "let", "const", "var":
		w.declaration(ast.NodeAt(n, 0))
	case "=":
		w.assignment(n)
	case "=>":
		w.closure("", n)
	case "function":
		if name, ok := ast.Ident(ast.NodeAt(n, 0)); ok {
			w.define(name)
			w.closure(name, n)
		}
	case "call":
		// [callee, argsList]: argsList is itself a list of sub-expressions,
		// not a single node, so it needs Nodes rather than the generic
		// Args recursion genericRecurse performs.
		w.stmt(ast.NodeAt(n, 0))
		for _, a := range ast.Nodes(n, 1) {
			w.stmt(a)
		}
	case "[]":
		// Array literal in expression position: [elementsList]. (Array
		// destructuring patterns never reach stmt/genericRecurse — they
		// are walked via bindPattern instead.)
		for _, el := range ast.Nodes(n, 0) {
			w.stmt(el)
		}
	case ":":
		// Object-literal property `key: value` (only ever encountered
		// nested inside a "{}" object literal's property list): the key
		// names a property, not a variable, so only the value is a
		// reference.
		w.stmt(ast.NodeAt(n, 1))
	case "...":
		w.stmt(ast.NodeAt(n, 0))
	case ".", "?.":
		// Member access [object, propName]: propName is a bare string
		// naming a property, not a variable reference.
		w.stmt(ast.NodeAt(n, 0))
	case "switch":
		// [discriminant, casesList]: casesList is a list of `case`/
		// `default` nodes, each itself carrying its own body statement
		// list, none of which genericRecurse's single-node Args
		// recursion can see.
		w.stmt(ast.NodeAt(n, 0))
		for _, c := range ast.Nodes(n, 1) {
			caseTag, ok := ast.Tag(c)
			if !ok {
				continue
			}
			switch caseTag {
			case "case":
				w.stmt(ast.NodeAt(c, 0))
				w.block(ast.Nodes(c, 1))
			case "default":
				w.block(ast.Nodes(c, 0))
			}
		}
	case "for":
		// ['for', init, cond, step, body]: the init variable(s) are
		// scoped to the loop.
		inner := &walker{in: w.in, outerDefined: unionSet(w.outerDefined, w.defined), free: bitset.New(0), defined: bitset.New(0), allDefined: w.allDefined, inFunction: w.inFunction}
		inner.stmt(ast.NodeAt(n, 0))
		inner.stmt(ast.NodeAt(n, 1))
		inner.stmt(ast.NodeAt(n, 2))
		inner.stmt(ast.NodeAt(n, 3))
		w.absorb(inner)
	default:
		// Includes "while", "if", "return", "index" and the
		// arithmetic/comparison/logical operators: none of these
		// introduce bindings, so every argument is just a nested
		// sub-expression.
		w.genericRecurse(n)
	}
}

// block analyses a sequence of statements sharing one nested scope: later
// statements see earlier declarations, but declarations inside the block
// do not escape to the caller.
func (w *walker) block(stmts []ast.Node) {
	inner := &walker{in: w.in, outerDefined: unionSet(w.outerDefined, w.defined), free: bitset.New(0), defined: bitset.New(0), allDefined: w.allDefined, inFunction: w.inFunction}
	for _, s := range stmts {
		inner.stmt(s)
	}

	w.absorb(inner)
}

// absorb merges a nested walker's findings into the parent: its free
// variables that are not satisfied by the parent's own defined set bubble
// up, its nested closures are carried along, but its Defined set stays
// local to the block
func (w *walker) absorb(inner *walker) {
	for i, e := inner.free.NextSet(0); e; i, e = inner.free.NextSet(i + 1) {
		if !w.defined.Test(i) {
			w.free.Set(i)
		}
	}

	w.inner = append(w.inner, inner.inner...)
}

// declaration handles `let`/`const`/`var`: the initialiser is analysed
// before the bound name is added to defined, so `let x = x` still sees
// the outer x as a free reference.
func (w *walker) declaration(assign ast.Node) {
	tag, ok := ast.Tag(assign)
	if !ok || tag != "=" {
		// Declaration without an initialiser; assign itself names the
		// bound identifier (or pattern).
		w.bindPattern(assign)
		return
	}

	target := ast.NodeAt(assign, 0)
	init := ast.NodeAt(assign, 1)

	w.stmt(init)
	w.bindPattern(target)
}

// assignment handles a bare `=` outside of a declaration context: the
// right-hand side is analysed as an expression, and the left-hand side
// (an identifier, member expression, or destructuring pattern) is
// resolved as a reference, not a new definition, except for pattern
// elements that genuinely introduce bindings in a destructuring
// declaration (handled instead via declaration above).
func (w *walker) assignment(n ast.Node) {
	target := ast.NodeAt(n, 0)
	init := ast.NodeAt(n, 1)

	w.stmt(init)
	w.stmt(target)
}

// bindPattern introduces every identifier bound by a declaration target:
// a bare identifier, or an array/object destructuring pattern
func (w *walker) bindPattern(pattern ast.Node) {
	if name, ok := ast.Ident(pattern); ok {
		w.define(name)
		return
	}

	tag, ok := ast.Tag(pattern)
	if !ok {
		return
	}

	switch tag {
	case "[]":
		for _, el := range ast.Nodes(pattern, 0) {
			w.bindDestructureElement(el)
		}
	case "{}":
		for _, el := range ast.Nodes(pattern, 0) {
			w.bindDestructureElement(el)
		}
	default:
		w.bindDestructureElement(pattern)
	}
}

// bindDestructureElement handles one element of a destructuring pattern:
// a plain binding, a `name = default` pair, a `...rest` collector, or an
// object `key: target` rename — all of which ultimately bottom out in
// further bindPattern calls, and whose default-value expressions (if any)
// are expressions evaluated in the enclosing scope.
func (w *walker) bindDestructureElement(el ast.Node) {
	if name, ok := ast.Ident(el); ok {
		w.define(name)
		return
	}

	tag, ok := ast.Tag(el)
	if !ok {
		return
	}

	switch tag {
	case "=": // default value
		w.bindPattern(ast.NodeAt(el, 0))
		w.stmt(ast.NodeAt(el, 1))
	case "...": // rest
		w.bindPattern(ast.NodeAt(el, 0))
	case ":": // object rename `key: target`
		w.bindPattern(ast.NodeAt(el, 1))
	default:
		w.bindPattern(el)
	}
}

// closure handles an arrow function or function declaration: it opens a
// fresh scope seeded with the function's own parameters, analyses the
// body within it, and records a Closure descriptor whose Captured set is
// the intersection of its free variables with everything visible at the
// point of definition (outer_defined ∪ defined so far in this scope).
func (w *walker) closure(name string, n ast.Node) {
	params := paramNames(ast.Nodes(n, paramsIndex(n)))
	body := ast.NodeAt(n, bodyIndex(n))

	inner := &walker{in: w.in, outerDefined: bitset.New(0), free: bitset.New(0), defined: bitset.New(0), allDefined: bitset.New(0), inFunction: true}
	for _, p := range params {
		inner.define(p)
	}

	inner.stmt(body)

	visible := unionSet(w.outerDefined, w.defined)
	captured := bitset.New(0)

	for i, e := inner.free.NextSet(0); e; i, e = inner.free.NextSet(i + 1) {
		if visible.Test(i) {
			captured.Set(i)
		}
	}

	// Free variables not satisfied by the enclosing scope bubble further
	// up (e.g. a function nested two levels deep referencing a
	// grandparent's local).
	for i, e := inner.free.NextSet(0); e; i, e = inner.free.NextSet(i + 1) {
		if !w.defined.Test(i) {
			w.free.Set(i)
		}
	}

	w.inner = append(w.inner, Closure{Name: name, Params: params, Body: body, Captured: captured})
	w.inner = append(w.inner, inner.inner...)
}

// paramsIndex/bodyIndex locate the parameter-list and body arguments
// within an `=>` or `function` node. Both shapes place parameters first
// and the body last; `function` additionally carries the name at index 0.
func paramsIndex(n ast.Node) int {
	if tag, _ := ast.Tag(n); tag == "function" {
		return 1
	}

	return 0
}

func bodyIndex(n ast.Node) int {
	if tag, _ := ast.Tag(n); tag == "function" {
		return 2
	}

	return 1
}

// ParamNames flattens a function's parameter node list to the flat set of
// identifiers it binds, in binding order with destructured parameters
// expanded to their member identifiers (functions.go uses this to know
// which names a compiled function's own parameter list introduces before
// analysing free variables via AnalyzeFunction).
func ParamNames(nodes []ast.Node) []string {
	return paramNames(nodes)
}

func paramNames(nodes []ast.Node) []string {
	var names []string

	for _, p := range nodes {
		if name, ok := ast.Ident(p); ok {
			names = append(names, name)
			continue
		}
		// Destructured or defaulted parameter: collect every bound
		// identifier via a throwaway walker so callers still see a
		// flat parameter-name list for environment seeding.
		tmp := &walker{in: NewInterner(), outerDefined: bitset.New(0), free: bitset.New(0), defined: bitset.New(0), allDefined: bitset.New(0)}
		tmp.bindPattern(p)
		for i, e := tmp.defined.NextSet(0); e; i, e = tmp.defined.NextSet(i + 1) {
			names = append(names, tmp.in.Name(i))
		}
	}

	return names
}

// genericRecurse passes every argument of a compound node whose tag does
// not introduce bindings to stmt: a tagged node is walked recursively
// (so identifiers several levels deep are still found) and a bare
// string is an identifier reference. An untagged list of nodes, such as
// a call's argument list, is not looked into, which is why "call", "[]"
// and "switch" have cases of their own in stmt.
func (w *walker) genericRecurse(n ast.Node) {
	args := ast.Args(n)
	for _, a := range args {
		w.stmt(a)
	}
}

func unionSet(a, b *bitset.BitSet) *bitset.BitSet {
	if a == nil {
		return b.Clone()
	}

	return a.Union(b)
}
