package natives

import (
	"fmt"

	"github.com/jz-lang/jzc/pkg/memory"
)

// registerTypedArrayMethods generates one family of methods per element
// stride in memory.ElemStrides (map/forEach/reduce/slice/fill),
// mirroring the plain-array methods above but addressing raw typed
// storage through each stride's own load/store instruction instead of
// arr_get/arr_set's fixed f64 slots.
func registerTypedArrayMethods() {
	for elem, stride := range memory.ElemStrides {
		elem, stride := elem, stride

		register(memory.Primitive{
			Name:     "typed_get_" + elem,
			WAT:      typedGetWAT(elem, stride),
			Requires: []string{"typed_offset"},
		})

		register(memory.Primitive{
			Name:     "typed_set_" + elem,
			WAT:      typedSetWAT(elem, stride),
			Requires: []string{"typed_offset"},
		})

		register(memory.Primitive{
			Name: "typed_foreach_" + elem,
			WAT: fmt.Sprintf(`(func $typed_foreach_%s (param $v f64) (param $cb f64)
  (local $i i32) (local $len i32)
  (local.set $len (call $typed_len (local.get $v)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (drop (call $invoke2 (local.get $cb) (call $typed_get_%s (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each))))`, elem, elem),
			Requires: []string{"typed_len", "typed_get_" + elem, "invoke2"},
		})

		register(memory.Primitive{
			Name: "typed_map_" + elem,
			WAT: fmt.Sprintf(`(func $typed_map_%s (param $v f64) (param $cb f64) (result f64)
  (local $i i32) (local $len i32) (local $out f64)
  (local.set $len (call $typed_len (local.get $v)))
  (local.set $out (call $alloc_typed (call $typed_elemtype (local.get $v)) (i32.const %d) (local.get $len)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (call $typed_set_%s (local.get $out) (local.get $i)
        (call $invoke2 (local.get $cb) (call $typed_get_%s (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $out))`, elem, stride.Bytes, elem, elem),
			Requires: []string{"typed_len", "alloc_typed", "typed_elemtype", "typed_set_" + elem, "typed_get_" + elem, "invoke2"},
		})

		register(memory.Primitive{
			Name: "typed_reduce_" + elem,
			WAT: fmt.Sprintf(`(func $typed_reduce_%s (param $v f64) (param $cb f64) (param $init f64) (result f64)
  (local $i i32) (local $len i32) (local $acc f64)
  (local.set $len (call $typed_len (local.get $v)))
  (local.set $acc (local.get $init))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (local.set $acc (call $invoke3 (local.get $cb) (local.get $acc) (call $typed_get_%s (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $acc))`, elem, elem),
			Requires: []string{"typed_len", "typed_get_" + elem, "invoke3"},
		})

		register(memory.Primitive{
			Name: "typed_fill_" + elem,
			WAT: fmt.Sprintf(`(func $typed_fill_%s (param $v f64) (param $x f64) (result f64)
  (local $i i32) (local $len i32)
  (local.set $len (call $typed_len (local.get $v)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (call $typed_set_%s (local.get $v) (local.get $i) (local.get $x))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $v))`, elem, elem),
			Requires: []string{"typed_len", "typed_set_" + elem},
		})

		register(memory.Primitive{
			Name: "typed_slice_" + elem,
			WAT: fmt.Sprintf(`(func $typed_slice_%s (param $v f64) (param $start i32) (param $end i32) (result f64)
  (local $n i32) (local $out f64) (local $i i32)
  (local.set $n (i32.sub (local.get $end) (local.get $start)))
  (local.set $out (call $alloc_typed (call $typed_elemtype (local.get $v)) (i32.const %d) (local.get $n)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $n)))
      (call $typed_set_%s (local.get $out) (local.get $i) (call $typed_get_%s (local.get $v) (i32.add (local.get $start) (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $out))`, elem, stride.Bytes, elem, elem),
			Requires: []string{"alloc_typed", "typed_elemtype", "typed_set_" + elem, "typed_get_" + elem},
		})
	}
}

// typedSetWAT truncates a boxed f64 value down to the stride's native
// width before storing; float strides store directly (demoting f64 to
// f32 for the 4-byte float stride).
func typedSetWAT(elem string, stride memory.ElemStride) string {
	var value string
	switch elem {
	case "f64":
		value = "(local.get $x)"
	case "f32":
		value = "(f32.demote_f64 (local.get $x))"
	default:
		value = "(i32.trunc_f64_s (local.get $x))"
	}

	return fmt.Sprintf(`(func $typed_set_%s (param $v f64) (param $i i32) (param $x f64)
  (%s (i32.add (call $typed_offset (local.get $v)) (i32.mul (local.get $i) (i32.const %d))) %s))`,
		elem, stride.Store, stride.Bytes, value)
}

// typedGetWAT loads one element at its native stride and widens it to
// the boxed f64 runtime representation: integer strides convert, the
// f32 stride promotes, and the f64 stride is already the right shape.
func typedGetWAT(elem string, stride memory.ElemStride) string {
	load := fmt.Sprintf("(%s (i32.add (call $typed_offset (local.get $v)) (i32.mul (local.get $i) (i32.const %d))))", stride.Load, stride.Bytes)

	var result string
	switch elem {
	case "f64":
		result = load
	case "f32":
		result = fmt.Sprintf("(f64.promote_f32 %s)", load)
	default:
		result = fmt.Sprintf("(f64.convert_i32_s %s)", load)
	}

	return fmt.Sprintf(`(func $typed_get_%s (param $v f64) (param $i i32) (result f64)
  %s)`, elem, result)
}
