// Package value implements the tagged-value and coercion layer used
// throughout the code generator to decide instruction selection.  A Tagged
// pairs a generated WAT fragment with its static Kind and, where relevant,
// auxiliary schema information (an object's property list, a typed array's
// element type, or the element-kind list of a heterogeneous array).
package value

import "fmt"

// Kind identifies the static shape a generated WAT fragment evaluates to.
// Every pointer-bearing kind (String, Array, Object, Closure, RefArray,
// TypedArray) is represented at runtime as an f64 NaN-boxed pointer; only
// I32 and Ref have a distinct runtime representation.
type Kind uint8

const (
	// F64 is an ordinary double-precision number.
	F64 Kind = iota
	// I32 is a 32-bit integer, used for booleans and bitwise results.
	I32
	// Ref is the null/undefined sentinel (runtime value: f64 zero).
	Ref
	// Array is a homogeneous dynamic array of f64 elements.
	Array
	// String is a NaN-boxed pointer to (or SSO-packed) UTF-16 data.
	String
	// Object is a NaN-boxed pointer to a fixed-schema property array.
	Object
	// Closure is a NaN-boxed pointer encoding a function-table index and
	// environment.
	Closure
	// RefArray is a mixed-kind array; a per-element Kind list travels in
	// the Tagged's Schema field.
	RefArray
	// TypedArray is a fixed-element-type array over a separate bump arena.
	TypedArray
)

// String renders a Kind for diagnostics and trace dumps.
func (k Kind) String() string {
	switch k {
	case F64:
		return "f64"
	case I32:
		return "i32"
	case Ref:
		return "ref"
	case Array:
		return "array"
	case String:
		return "string"
	case Object:
		return "object"
	case Closure:
		return "closure"
	case RefArray:
		return "refarray"
	case TypedArray:
		return "typedarray"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsPointer reports whether values of this Kind are NaN-boxed pointers at
// runtime, as opposed to a plain i32 or the ref sentinel.
func (k Kind) IsPointer() bool {
	switch k {
	case Array, String, Object, Closure, RefArray, TypedArray:
		return true
	default:
		return false
	}
}

// Schema carries the auxiliary metadata a Tagged value needs beyond its
// Kind: an object's schema id, a heterogeneous array's per-element kinds,
// or a typed array's element type.  At most one of these fields is set for
// any given Tagged; which one is determined by its Kind.
type Schema struct {
	// SchemaID names an entry in the schema registry (Object values only).
	SchemaID int
	// ElementKinds gives the static kind of each element of a RefArray
	// literal, in declaration order.
	ElementKinds []Kind
	// ElemType names the element type of a TypedArray ("i8", "i32",
	// "f32", "f64", ...).
	ElemType string
	// Immutable marks a value backed by a constant data segment rather
	// than the growable heap; push/pop on such a value is a compile
	// error (array-alias), per the decision recorded for the
	// corresponding open question.
	Immutable bool
}

// Tagged is the generator's universal return value: a WAT code fragment
// annotated with the static Kind needed to select further instructions.
// Tagged values are immutable and are compared structurally.
type Tagged struct {
	Kind   Kind
	Code   string
	Schema Schema
}

// New constructs a Tagged value with no schema metadata.
func New(kind Kind, code string) Tagged {
	return Tagged{Kind: kind, Code: code}
}

// WithSchema returns a copy of this Tagged value carrying the given schema
// metadata.
func (t Tagged) WithSchema(s Schema) Tagged {
	t.Schema = s
	return t
}

// Equal performs the structural equality expected of tagged values.
func (t Tagged) Equal(o Tagged) bool {
	if t.Kind != o.Kind || t.Code != o.Code {
		return false
	}

	return t.Schema.SchemaID == o.Schema.SchemaID &&
		t.Schema.ElemType == o.Schema.ElemType &&
		t.Schema.Immutable == o.Schema.Immutable &&
		kindsEqual(t.Schema.ElementKinds, o.Schema.ElementKinds)
}

func kindsEqual(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
