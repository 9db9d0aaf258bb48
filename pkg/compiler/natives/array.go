// Package natives implements the built-in method libraries: the
// functions reachable as `receiver.method(...)` for arrays, strings,
// typed arrays and maps/sets. Each method is emitted as a runtime helper
// function in the same style as pkg/memory's primitives (a name, its
// dependencies, and a WAT template) and is registered into the shared
// primitive registry via memory.Register so the assembler's one
// transitive-closure pass picks it up like any other helper. A method
// call site in the generator simply becomes `(call $arr_map ...)` once
// ctx.Use("arr_map") has been recorded.
//
// Every array element and every closure parameter is a NaN-boxed f64
// value, so a higher-order method (map, filter, reduce, ...) never needs
// to know the static kind of what it iterates over — it calls the
// user's callback through pkg/memory's invoke1/invoke2/invoke3 uniform
// calling convention.
package natives

import "github.com/jz-lang/jzc/pkg/memory"

func init() {
	registerArrayMethods()
	registerStringMethods()
	registerTypedArrayMethods()
	registerMapSetMethods()
}

func register(p memory.Primitive) {
	memory.Register(p)
}

func registerArrayMethods() {
	register(memory.Primitive{
		Name: "arr_push",
		// Pushes x onto v, reallocating (to the tier for len+1) once len+1
		// reaches the current capacity tier; returns the (possibly
		// reallocated) array pointer, since push may move the backing
		// storage.
		WAT: `(func $arr_push (param $v f64) (param $x f64) (result f64)
  (local $len i32) (local $cap i32) (local $arr f64)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (local.set $cap (call $cap_for_len (local.get $len)))
  (local.set $arr (local.get $v))
  (if (i32.ge_u (i32.add (local.get $len) (i32.const 1)) (local.get $cap))
    (then (local.set $arr (call $realloc (local.get $v) (i32.add (local.get $len) (i32.const 1))))))
  (call $arr_set (local.get $arr) (local.get $len) (local.get $x))
  (call $ptr_set_len (local.get $arr) (f64.convert_i32_u (i32.add (local.get $len) (i32.const 1))))
  (local.get $arr))`,
		Requires: []string{"ptr_len", "cap_for_len", "realloc", "arr_set", "ptr_set_len"},
	})

	register(memory.Primitive{
		Name: "arr_pop",
		WAT: `(func $arr_pop (param $v f64) (result f64)
  (local $len i32) (local $last f64)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (if (i32.eqz (local.get $len)) (then (return (f64.const nan))))
  (local.set $last (call $arr_get (local.get $v) (i32.sub (local.get $len) (i32.const 1))))
  (call $ptr_set_len (local.get $v) (f64.convert_i32_u (i32.sub (local.get $len) (i32.const 1))))
  (local.get $last))`,
		Requires: []string{"ptr_len", "arr_get", "ptr_set_len"},
	})

	register(memory.Primitive{
		Name: "arr_foreach",
		WAT: `(func $arr_foreach (param $v f64) (param $cb f64)
  (local $i i32) (local $len i32)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (drop (call $invoke2 (local.get $cb) (call $arr_get (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each))))`,
		Requires: []string{"ptr_len", "arr_get", "invoke2"},
	})

	register(memory.Primitive{
		Name: "arr_map",
		WAT: `(func $arr_map (param $v f64) (param $cb f64) (result f64)
  (local $i i32) (local $len i32) (local $out f64)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (local.set $out (call $alloc (i32.const 0) (local.get $len)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (call $arr_set (local.get $out) (local.get $i)
        (call $invoke2 (local.get $cb) (call $arr_get (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $out))`,
		Requires: []string{"ptr_len", "alloc", "arr_get", "arr_set", "invoke2"},
	})

	register(memory.Primitive{
		Name: "arr_filter",
		// Over-allocates at the input length, then trims the length field
		// down to the number of elements actually kept — cheaper than a
		// two-pass count-then-fill for the common case of small arrays.
		WAT: `(func $arr_filter (param $v f64) (param $cb f64) (result f64)
  (local $i i32) (local $len i32) (local $out f64) (local $kept i32) (local $el f64)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (local.set $out (call $alloc (i32.const 0) (local.get $len)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (local.set $el (call $arr_get (local.get $v) (local.get $i)))
      (if (call $truthy (call $invoke2 (local.get $cb) (local.get $el) (f64.convert_i32_u (local.get $i))))
        (then
          (call $arr_set (local.get $out) (local.get $kept) (local.get $el))
          (local.set $kept (i32.add (local.get $kept) (i32.const 1)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (call $ptr_set_len (local.get $out) (f64.convert_i32_u (local.get $kept)))
  (local.get $out))`,
		Requires: []string{"ptr_len", "alloc", "arr_get", "arr_set", "invoke2", "truthy", "ptr_set_len"},
	})

	register(memory.Primitive{
		Name: "arr_reduce",
		WAT: `(func $arr_reduce (param $v f64) (param $cb f64) (param $init f64) (result f64)
  (local $i i32) (local $len i32) (local $acc f64)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (local.set $acc (local.get $init))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (local.set $acc (call $invoke3 (local.get $cb) (local.get $acc) (call $arr_get (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $acc))`,
		Requires: []string{"ptr_len", "arr_get", "invoke3"},
	})

	register(memory.Primitive{
		Name: "arr_find",
		WAT: `(func $arr_find (param $v f64) (param $cb f64) (result f64)
  (local $i i32) (local $len i32) (local $el f64)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (local.set $el (call $arr_get (local.get $v) (local.get $i)))
      (if (call $truthy (call $invoke2 (local.get $cb) (local.get $el) (f64.convert_i32_u (local.get $i))))
        (then (return (local.get $el))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (f64.const nan))`,
		Requires: []string{"ptr_len", "arr_get", "invoke2", "truthy"},
	})

	register(memory.Primitive{
		Name: "arr_find_index",
		WAT: `(func $arr_find_index (param $v f64) (param $cb f64) (result f64)
  (local $i i32) (local $len i32)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (if (call $truthy (call $invoke2 (local.get $cb) (call $arr_get (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i))))
        (then (return (f64.convert_i32_u (local.get $i)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (f64.const -1))`,
		Requires: []string{"ptr_len", "arr_get", "invoke2", "truthy"},
	})

	register(memory.Primitive{
		Name: "arr_index_of",
		WAT: `(func $arr_index_of (param $v f64) (param $x f64) (result f64)
  (local $i i32) (local $len i32)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (if (call $f64_eq (call $arr_get (local.get $v) (local.get $i)) (local.get $x))
        (then (return (f64.convert_i32_u (local.get $i)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (f64.const -1))`,
		Requires: []string{"ptr_len", "arr_get", "f64_eq"},
	})

	register(memory.Primitive{
		Name: "arr_includes",
		WAT: `(func $arr_includes (param $v f64) (param $x f64) (result f64)
  (f64.ge (call $arr_index_of (local.get $v) (local.get $x)) (f64.const 0)))`,
		Requires: []string{"arr_index_of"},
	})

	register(memory.Primitive{
		Name: "arr_every",
		WAT: `(func $arr_every (param $v f64) (param $cb f64) (result f64)
  (local $i i32) (local $len i32)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (if (i32.eqz (call $truthy (call $invoke2 (local.get $cb) (call $arr_get (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i)))))
        (then (return (f64.const 0))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (f64.const 1))`,
		Requires: []string{"ptr_len", "arr_get", "invoke2", "truthy"},
	})

	register(memory.Primitive{
		Name: "arr_some",
		WAT: `(func $arr_some (param $v f64) (param $cb f64) (result f64)
  (local $i i32) (local $len i32)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (if (call $truthy (call $invoke2 (local.get $cb) (call $arr_get (local.get $v) (local.get $i)) (f64.convert_i32_u (local.get $i))))
        (then (return (f64.const 1))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (f64.const 0))`,
		Requires: []string{"ptr_len", "arr_get", "invoke2", "truthy"},
	})

	register(memory.Primitive{
		Name: "arr_slice",
		WAT: `(func $arr_slice (param $v f64) (param $start i32) (param $end i32) (result f64)
  (local $len i32) (local $n i32) (local $out f64) (local $i i32)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (if (i32.gt_s (local.get $end) (local.get $len)) (then (local.set $end (local.get $len))))
  (if (i32.lt_s (local.get $start) (i32.const 0)) (then (local.set $start (i32.const 0))))
  (local.set $n (i32.sub (local.get $end) (local.get $start)))
  (if (i32.lt_s (local.get $n) (i32.const 0)) (then (local.set $n (i32.const 0))))
  (local.set $out (call $alloc (i32.const 0) (local.get $n)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $n)))
      (call $arr_set (local.get $out) (local.get $i) (call $arr_get (local.get $v) (i32.add (local.get $start) (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $out))`,
		Requires: []string{"ptr_len", "alloc", "arr_get", "arr_set"},
	})

	register(memory.Primitive{
		Name: "arr_reverse",
		// Reverses v's elements in place and returns v, matching how
		// array.reverse mutates the receiver rather than copying.
		WAT: `(func $arr_reverse (param $v f64) (result f64)
  (local $i i32) (local $j i32) (local $tmp f64)
  (local.set $i (i32.const 0))
  (local.set $j (i32.sub (i32.trunc_f64_u (call $ptr_len (local.get $v))) (i32.const 1)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_s (local.get $i) (local.get $j)))
      (local.set $tmp (call $arr_get (local.get $v) (local.get $i)))
      (call $arr_set (local.get $v) (local.get $i) (call $arr_get (local.get $v) (local.get $j)))
      (call $arr_set (local.get $v) (local.get $j) (local.get $tmp))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (local.set $j (i32.sub (local.get $j) (i32.const 1)))
      (br $each)))
  (local.get $v))`,
		Requires: []string{"ptr_len", "arr_get", "arr_set"},
	})

	register(memory.Primitive{
		Name: "arr_concat",
		WAT: `(func $arr_concat (param $a f64) (param $b f64) (result f64)
  (local $la i32) (local $lb i32) (local $out f64) (local $i i32)
  (local.set $la (i32.trunc_f64_u (call $ptr_len (local.get $a))))
  (local.set $lb (i32.trunc_f64_u (call $ptr_len (local.get $b))))
  (local.set $out (call $alloc (i32.const 0) (i32.add (local.get $la) (local.get $lb))))
  (block $doneA
    (loop $eachA
      (br_if $doneA (i32.ge_u (local.get $i) (local.get $la)))
      (call $arr_set (local.get $out) (local.get $i) (call $arr_get (local.get $a) (local.get $i)))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $eachA)))
  (local.set $i (i32.const 0))
  (block $doneB
    (loop $eachB
      (br_if $doneB (i32.ge_u (local.get $i) (local.get $lb)))
      (call $arr_set (local.get $out) (i32.add (local.get $la) (local.get $i)) (call $arr_get (local.get $b) (local.get $i)))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $eachB)))
  (local.get $out))`,
		Requires: []string{"ptr_len", "alloc", "arr_get", "arr_set"},
	})

	register(memory.Primitive{
		Name: "arr_fill",
		WAT: `(func $arr_fill (param $v f64) (param $x f64) (result f64)
  (local $i i32) (local $len i32)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (call $arr_set (local.get $v) (local.get $i) (local.get $x))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $v))`,
		Requires: []string{"ptr_len", "arr_set"},
	})

	register(memory.Primitive{
		Name: "arr_join",
		// Concatenates every element with sep between them. Elements are
		// expected to already be strings: each is passed to strcat as it
		// is, with no to-string coercion.
		WAT: `(func $arr_join (param $v f64) (param $sep f64) (result f64)
  (local $i i32) (local $len i32) (local $out f64)
  (local.set $len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (local.set $out (call $str_empty))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (if (i32.gt_u (local.get $i) (i32.const 0))
        (then (local.set $out (call $strcat (local.get $out) (local.get $sep)))))
      (local.set $out (call $strcat (local.get $out) (call $arr_get (local.get $v) (local.get $i))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $out))`,
		Requires: []string{"ptr_len", "arr_get", "strcat", "str_empty"},
	})
}
