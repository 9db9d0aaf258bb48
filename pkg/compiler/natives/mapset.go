package natives

import "github.com/jz-lang/jzc/pkg/memory"

// Maps and sets share one representation: a growable array of boxed
// key/value pairs (a set stores only keys, with its "value" slot equal
// to the key). Lookups are linear scans — this library targets typical
// script-sized collections, not large hash tables, matching how arrays
// themselves are implemented.
func registerMapSetMethods() {
	register(memory.Primitive{
		Name: "map_new",
		WAT: `(func $map_new (result f64)
  (call $alloc (i32.const 0) (i32.const 0)))`,
		Requires: []string{"alloc"},
	})

	register(memory.Primitive{
		Name: "map_find_slot",
		// Returns the pair-index (not the raw element index) of key in m,
		// or -1. Pairs are stored as two consecutive array slots (key,
		// value), so pair i occupies elements 2i and 2i+1.
		WAT: `(func $map_find_slot (param $m f64) (param $key f64) (result f64)
  (local $i i32) (local $pairs i32)
  (local.set $pairs (i32.div_u (i32.trunc_f64_u (call $ptr_len (local.get $m))) (i32.const 2)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $pairs)))
      (if (call $f64_eq (call $arr_get (local.get $m) (i32.mul (local.get $i) (i32.const 2))) (local.get $key))
        (then (return (f64.convert_i32_u (local.get $i)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (f64.const -1))`,
		Requires: []string{"ptr_len", "arr_get", "f64_eq"},
	})

	register(memory.Primitive{
		Name: "map_has",
		WAT: `(func $map_has (param $m f64) (param $key f64) (result f64)
  (f64.ge (call $map_find_slot (local.get $m) (local.get $key)) (f64.const 0)))`,
		Requires: []string{"map_find_slot"},
	})

	register(memory.Primitive{
		Name: "map_get",
		WAT: `(func $map_get (param $m f64) (param $key f64) (result f64)
  (local $slot f64)
  (local.set $slot (call $map_find_slot (local.get $m) (local.get $key)))
  (if (result f64) (f64.lt (local.get $slot) (f64.const 0))
    (then (f64.const nan))
    (else (call $arr_get (local.get $m) (i32.add (i32.mul (i32.trunc_f64_u (local.get $slot)) (i32.const 2)) (i32.const 1))))))`,
		Requires: []string{"map_find_slot", "arr_get"},
	})

	register(memory.Primitive{
		Name: "map_set",
		// Overwrites an existing key's value in place, or appends a new
		// (key, value) pair; always returns m, since set is a mutator, not
		// a constructor.
		WAT: `(func $map_set (param $m f64) (param $key f64) (param $val f64) (result f64)
  (local $slot f64) (local $m2 f64)
  (local.set $slot (call $map_find_slot (local.get $m) (local.get $key)))
  (if (f64.ge (local.get $slot) (f64.const 0))
    (then
      (call $arr_set (local.get $m) (i32.add (i32.mul (i32.trunc_f64_u (local.get $slot)) (i32.const 2)) (i32.const 1)) (local.get $val))
      (return (local.get $m))))
  (local.set $m2 (call $arr_push (local.get $m) (local.get $key)))
  (call $arr_push (local.get $m2) (local.get $val)))`,
		Requires: []string{"map_find_slot", "arr_set", "arr_push"},
	})

	register(memory.Primitive{
		Name: "map_delete",
		// Swap-removes the pair so the backing array stays dense;
		// iteration order is not preserved across deletes, matching how
		// arr_pop/push already give no ordering guarantee beyond
		// insertion.
		WAT: `(func $map_delete (param $m f64) (param $key f64) (result f64)
  (local $slot i32) (local $pairs i32) (local $lastpair i32)
  (local $found f64)
  (local.set $found (call $map_find_slot (local.get $m) (local.get $key)))
  (if (f64.lt (local.get $found) (f64.const 0)) (then (return (f64.const 0))))
  (local.set $slot (i32.trunc_f64_u (local.get $found)))
  (local.set $pairs (i32.div_u (i32.trunc_f64_u (call $ptr_len (local.get $m))) (i32.const 2)))
  (local.set $lastpair (i32.sub (local.get $pairs) (i32.const 1)))
  (call $arr_set (local.get $m) (i32.mul (local.get $slot) (i32.const 2))
    (call $arr_get (local.get $m) (i32.mul (local.get $lastpair) (i32.const 2))))
  (call $arr_set (local.get $m) (i32.add (i32.mul (local.get $slot) (i32.const 2)) (i32.const 1))
    (call $arr_get (local.get $m) (i32.add (i32.mul (local.get $lastpair) (i32.const 2)) (i32.const 1))))
  (call $ptr_set_len (local.get $m) (f64.convert_i32_u (i32.mul (local.get $lastpair) (i32.const 2))))
  (f64.const 1))`,
		Requires: []string{"map_find_slot", "ptr_len", "arr_set", "arr_get", "ptr_set_len"},
	})

	register(memory.Primitive{
		Name: "map_clear",
		WAT: `(func $map_clear (param $m f64)
  (call $ptr_set_len (local.get $m) (f64.const 0)))`,
		Requires: []string{"ptr_set_len"},
	})

	register(memory.Primitive{
		Name: "map_size",
		WAT: `(func $map_size (param $m f64) (result f64)
  (f64.div (call $ptr_len (local.get $m)) (f64.const 2)))`,
		Requires: []string{"ptr_len"},
	})

	register(memory.Primitive{
		Name: "set_add",
		// A set is a map whose value slot mirrors the key; add is a no-op
		// if the key is already present.
		WAT: `(func $set_add (param $s f64) (param $key f64) (result f64)
  (call $map_set (local.get $s) (local.get $key) (local.get $key)))`,
		Requires: []string{"map_set"},
	})

	register(memory.Primitive{
		Name: "set_has",
		WAT: `(func $set_has (param $s f64) (param $key f64) (result f64)
  (call $map_has (local.get $s) (local.get $key)))`,
		Requires: []string{"map_has"},
	})

	register(memory.Primitive{
		Name: "set_delete",
		WAT: `(func $set_delete (param $s f64) (param $key f64) (result f64)
  (call $map_delete (local.get $s) (local.get $key)))`,
		Requires: []string{"map_delete"},
	})
}
