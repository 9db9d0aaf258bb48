package scope

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/jz-lang/jzc/pkg/ast"
)

// HoistedVars returns the subset of a function's own locals (its
// parameters plus everything it declares, directly or in a nested block)
// that are captured by any closure nested anywhere within its body,
// transitively. Those locals must be stored in an environment struct
// owned by the enclosing function rather than a plain WASM local, so that
// mutation after the closure is created remains visible to it
func HoistedVars(in *Interner, body ast.Node, params []string) *bitset.BitSet {
	outer := bitset.New(0)
	for _, p := range params {
		outer.Set(in.Intern(p))
	}

	top := AnalyzeFunction(in, params, body)

	hoisted := bitset.New(0)

	var visit func(closures []Closure)
	visit = func(closures []Closure) {
		for _, c := range closures {
			hoisted.InPlaceUnion(c.Captured)
			// Captures are expressed relative to the scope in which the
			// closure was defined; transitively nested closures were
			// already folded into c.Captured's ancestor chain by
			// AnalyzeScope's closure() bubbling, so no recursive
			// re-walk of c.Body is required here — it was performed
			// when the parent scope analysed it.
		}
	}

	visit(top.Inner)

	// Only variables actually local to this function (its params or its
	// own declarations at any block depth, not free variables it itself
	// captures from a grandparent) are hoisted into *this* function's
	// environment.
	own := unionSet(outer, top.AllDefined)
	result := bitset.New(0)

	for i, e := hoisted.NextSet(0); e; i, e = hoisted.NextSet(i + 1) {
		if own.Test(i) {
			result.Set(i)
		}
	}

	return result
}
