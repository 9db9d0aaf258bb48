package memory

// Primitive describes one runtime helper function the generator may call
// into. Only primitives actually referenced by a compilation are emitted
// into the final module; Requires names the other
// primitives a given primitive's body calls, so the assembler can compute
// the transitive closure of what must be included.
type Primitive struct {
	// Name is both the Go-side lookup key and the WAT function name
	// (without the leading '$').
	Name string
	// Requires lists other primitive names this primitive's body calls.
	Requires []string
	// WAT is the complete `(func $name ...)` text.
	WAT string
}

// registry holds every primitive the generator may reference, keyed by
// name. It is populated by init() in this file's sibling files (alloc.go,
// pointer.go, string.go, typedarray.go) so that each concern's
// definitions live beside the WAT they emit, rather than one monolithic
// switch.
var registry = map[string]Primitive{}

func register(p Primitive) {
	registry[p.Name] = p
}

// Register adds a primitive defined outside this package (pkg/compiler/
// natives' method libraries, pkg/regex's per-pattern matcher functions)
// into the same registry the assembler walks, so there is exactly one
// transitive-closure computation over every runtime helper a compilation
// can reference, regardless of which package defined it.
func Register(p Primitive) {
	register(p)
}

// Lookup returns the primitive definition for a name, and whether it was
// found.
func Lookup(name string) (Primitive, bool) {
	p, ok := registry[name]
	return p, ok
}

// Closure computes the transitive closure of primitive names reachable
// from the given set of directly-used names, in a stable emission order
// (first use order, then dependency order within that). The module
// assembler (pkg/assembler) calls this once generation has finished and
// the context's used-feature set is final.
func Closure(used []string) []string {
	seen := map[string]bool{}
	var order []string

	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}

		seen[name] = true

		p, ok := registry[name]
		if !ok {
			return
		}

		for _, dep := range p.Requires {
			visit(dep)
		}

		order = append(order, name)
	}

	for _, name := range used {
		visit(name)
	}

	return order
}
