// Package scope implements the free-variable and hoisting pre-pass:
// AnalyzeScope, which for a function body returns the free variables
// referenced, the variables it defines, and descriptors for any nested
// functions; and HoistedVars, which determines which locals must be
// lifted into a shared environment struct because a nested closure
// captures them.
//
// Variable sets are represented as github.com/bits-and-blooms/bitset.BitSet
// values over small integer ids rather than map[string]bool, so a single
// Interner shared across one compilation gives each distinct identifier a
// stable id and every set operation (union for "outer ∪ defined",
// intersection for "free ∩ ...") is a machine-word bitwise op instead of a
// map walk.
package scope

// Interner assigns small, stable integer ids to identifier names within
// one compilation, so free-variable and hoisting sets can be represented
// as bitsets. It is shared between scope analysis and the compilation
// context (pkg/compiler/context), which needs the same ids to decide
// whether a given local must resolve through an environment.
type Interner struct {
	ids   map[string]uint
	names []string
}

// NewInterner constructs an empty interner.
func NewInterner() *Interner {
	return &Interner{ids: map[string]uint{}}
}

// Intern returns the stable id for name, allocating a fresh one the first
// time a given name is seen.
func (in *Interner) Intern(name string) uint {
	if id, ok := in.ids[name]; ok {
		return id
	}

	id := uint(len(in.names))
	in.ids[name] = id
	in.names = append(in.names, name)

	return id
}

// Name returns the identifier a given id was allocated for. Panics if id
// was never allocated by this interner.
func (in *Interner) Name(id uint) string {
	return in.names[id]
}

// Lookup returns the id for name without allocating one, and whether name
// has been interned at all.
func (in *Interner) Lookup(name string) (uint, bool) {
	id, ok := in.ids[name]
	return id, ok
}
