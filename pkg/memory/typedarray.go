package memory

import "fmt"

// ElemStride maps a TypedArray element type name to its byte width and
// load/store instruction family, used both by the typed-array method
// library (pkg/compiler/natives) and by alloc_typed below.
type ElemStride struct {
	Bytes uint32
	Load  string
	Store string
}

// ElemStrides is the fixed table of typed element types, selected by
// elemType.
var ElemStrides = map[string]ElemStride{
	"i8":  {1, "i32.load8_s", "i32.store8"},
	"u8":  {1, "i32.load8_u", "i32.store8"},
	"i16": {2, "i32.load16_s", "i32.store16"},
	"u16": {2, "i32.load16_u", "i32.store16"},
	"i32": {4, "i32.load", "i32.store"},
	"u32": {4, "i32.load", "i32.store"},
	"f32": {4, "f32.load", "f32.store"},
	"f64": {8, "f64.load", "f64.store"},
}

// TypedArenaBase is the first address of the typed-array arena, kept
// disjoint from the general bump heap so that `_resetTypedArrays` can
// discard the whole region by resetting one cursor.
const TypedArenaBase = 1 << 24

// ElemTypeCode assigns each element type name the 3-bit code packed into
// a typed-array pointer's elemType field (mk_typed_ptr's $elemtype
// param). The generator looks a literal's element type up here to emit
// the right `(i32.const N)` at an alloc_typed call site; the assembler
// uses the same table when laying out a typed-array constant's data
// segment header.
var ElemTypeCode = map[string]uint8{
	"i8":  0,
	"u8":  1,
	"i16": 2,
	"u16": 3,
	"i32": 4,
	"u32": 5,
	"f32": 6,
	"f64": 7,
}

func init() {
	register(Primitive{
		Name: "alloc_typed",
		WAT: `(func $alloc_typed (param $elemtype i32) (param $elemsize i32) (param $len i32) (result f64)
  (local $base i32) (local $bytes i32)
  (local.set $base (global.get $typed_cursor))
  (local.set $bytes (call $align8 (i32.mul (local.get $len) (local.get $elemsize))))
  (global.set $typed_cursor (i32.add (local.get $base) (local.get $bytes)))
  (call $mk_typed_ptr (local.get $elemtype) (local.get $len) (local.get $base)))`,
		Requires: []string{"align8", "mk_typed_ptr"},
	})

	register(Primitive{
		Name: "mk_typed_ptr",
		WAT: fmt.Sprintf(`(func $mk_typed_ptr (param $elemtype i32) (param $len i32) (param $offset i32) (result f64)
  (f64.reinterpret_i64
    (i64.or
      (i64.const %d)
      (i64.or
        (i64.shl (i64.and (i64.extend_i32_u (local.get $elemtype)) (i64.const %d)) (i64.const %d))
        (i64.or
          (i64.shl (i64.and (i64.extend_i32_u (local.get $len)) (i64.const %d)) (i64.const %d))
          (i64.and (i64.extend_i32_u (local.get $offset)) (i64.const %d)))))))`,
			QuietNaNBits|uint64(PtrTypedArray)<<typeShift, typedElemMask, typedElemShift,
			typedLenMask, typedLenShift, typedOffsetMask),
	})

	register(Primitive{
		Name: "typed_len",
		WAT: fmt.Sprintf(`(func $typed_len (param $v f64) (result i32)
  (i32.wrap_i64 (i64.and (i64.shr_u (i64.reinterpret_f64 (local.get $v)) (i64.const %d)) (i64.const %d))))`,
			typedLenShift, typedLenMask),
	})

	register(Primitive{
		Name: "typed_offset",
		WAT: fmt.Sprintf(`(func $typed_offset (param $v f64) (result i32)
  (i32.wrap_i64 (i64.and (i64.reinterpret_f64 (local.get $v)) (i64.const %d))))`, typedOffsetMask),
	})

	register(Primitive{
		Name: "typed_elemtype",
		WAT: fmt.Sprintf(`(func $typed_elemtype (param $v f64) (result i32)
  (i32.wrap_i64 (i64.and (i64.shr_u (i64.reinterpret_f64 (local.get $v)) (i64.const %d)) (i64.const %d))))`,
			typedElemShift, typedElemMask),
	})

	register(Primitive{
		Name: "reset_typed",
		// Backs the optional `_resetTypedArrays` export:
		// discards every typed-array allocation en masse by rewinding
		// the arena cursor, since nothing in the arena is individually
		// reclaimed.
		WAT: `(func $reset_typed
  (global.set $typed_cursor (i32.const 16777216)))`,
	})
}
