package value

import "fmt"

// Features records which runtime helper functions a compilation needs, so
// the assembler can emit only the primitives actually referenced
// (dead-code elimination at the module level). pkg/compiler/context
// implements this interface; the coercion helpers below call it whenever
// they emit a fragment that depends on a runtime primitive.
type Features interface {
	Use(name string)
}

// ToF64 coerces a tagged value to an f64-typed WAT fragment.  Every
// pointer-bearing kind is already f64 at runtime, so this is an identity
// conversion for Array, String, Object, Closure, RefArray and TypedArray;
// Ref becomes the zero constant; I32 is truncation-converted.
func ToF64(v Tagged, feat Features) string {
	switch v.Kind {
	case F64:
		return v.Code
	case Ref:
		return "(f64.const 0)"
	case I32:
		return fmt.Sprintf("(f64.convert_i32_s %s)", v.Code)
	default:
		// All pointer kinds are f64 at runtime.
		return v.Code
	}
}

// ToI32 coerces a tagged value to an i32-typed WAT fragment.
func ToI32(v Tagged, feat Features) string {
	switch v.Kind {
	case I32:
		return v.Code
	case Ref, Object, Closure:
		return "(i32.const 0)"
	case F64:
		return fmt.Sprintf("(i32.trunc_f64_s %s)", v.Code)
	default:
		return fmt.Sprintf("(i32.trunc_f64_s %s)", v.Code)
	}
}

// Truthy lowers a tagged value to an i32 0/1: Ref is a null check, I32 is
// a zero compare, and F64 (and all pointer kinds, which share the f64
// runtime representation) compare not-equal-to-zero.
func Truthy(v Tagged, feat Features) string {
	switch v.Kind {
	case Ref:
		return fmt.Sprintf("(f64.ne %s (f64.const 0))", v.Code)
	case I32:
		return fmt.Sprintf("(i32.ne %s (i32.const 0))", v.Code)
	default:
		feat.Use("f64_ne")
		return fmt.Sprintf("(call $f64_ne %s (f64.const 0))", v.Code)
	}
}

// Reconcile widens a pair of operands to a common runtime kind: if both are
// I32 they are returned unchanged, otherwise both are widened to F64.  This
// is the standard JZ numeric-operator preparation step; callers then select
// the f64 or i32 form of the arithmetic instruction based on the returned
// kind.
func Reconcile(a, b Tagged, feat Features) (Kind, string, string) {
	if a.Kind == I32 && b.Kind == I32 {
		return I32, a.Code, b.Code
	}

	return F64, ToF64(a, feat), ToF64(b, feat)
}
