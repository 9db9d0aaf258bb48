package memory

// HeapBase is the lowest address of the bump heap; everything below it is
// reserved for static data segments (interned strings, constant arrays and
// objects) laid out by the module assembler at well-known offsets, placed
// below the runtime heap pointer.
const HeapBase = 1 << 16 // reserve the first 64KiB page for statics

func init() {
	register(Primitive{
		Name: "die",
		WAT: `(func $die
  unreachable)`,
	})

	register(Primitive{
		Name: "alloc",
		// Reserves an 8-byte length header immediately before the data
		// for array-shaped allocations so ptr_len/ptr_set_len are O(1);
		// the returned offset points past the header.
		WAT: `(func $alloc (param $type i32) (param $len i32) (result f64)
  (local $tier i32) (local $bytes i32) (local $base i32) (local $offset i32)
  (local.set $tier (call $cap_for_len (local.get $len)))
  (local.set $bytes (call $align8 (i32.mul (local.get $tier) (i32.const 8))))
  (local.set $base (global.get $heap_cursor))
  (if (i32.eq (local.get $type) (i32.const 0))
    (then
      ;; array: reserve an 8-byte length header before the data
      (f64.store (local.get $base) (f64.convert_i32_u (local.get $len)))
      (local.set $offset (i32.add (local.get $base) (i32.const 8)))
      (global.set $heap_cursor (i32.add (local.get $offset) (local.get $bytes))))
    (else
      (local.set $offset (local.get $base))
      (global.set $heap_cursor (i32.add (local.get $base) (local.get $bytes)))))
  (call $mkptr (local.get $type) (i32.const 0) (local.get $offset)))`,
		Requires: []string{"cap_for_len", "align8", "mkptr"},
	})

	register(Primitive{
		Name: "cap_for_len",
		WAT: `(func $cap_for_len (param $n i32) (result i32)
  (local $tier i32)
  (local.set $tier (i32.const 4))
  (block $done
    (loop $grow
      (br_if $done (i32.ge_u (local.get $tier) (local.get $n)))
      (local.set $tier (i32.shl (local.get $tier) (i32.const 1)))
      (br $grow)))
  (local.get $tier))`,
	})

	register(Primitive{
		Name: "align8",
		WAT: `(func $align8 (param $n i32) (result i32)
  (i32.and (i32.add (local.get $n) (i32.const 7)) (i32.const -8)))`,
	})

	register(Primitive{
		Name: "realloc",
		// Grows an array to the next capacity tier and copies existing
		// elements, used when push crosses a tier boundary.
		WAT: `(func $realloc (param $v f64) (param $newlen i32) (result f64)
  (local $old_len i32) (local $fresh f64) (local $src i32) (local $dst i32) (local $i i32)
  (local.set $old_len (i32.trunc_f64_u (call $ptr_len (local.get $v))))
  (local.set $fresh (call $alloc (call $ptr_type (local.get $v)) (local.get $newlen)))
  (local.set $src (call $ptr_offset (local.get $v)))
  (local.set $dst (call $ptr_offset (local.get $fresh)))
  (local.set $i (i32.const 0))
  (block $done
    (loop $copy
      (br_if $done (i32.ge_u (local.get $i) (local.get $old_len)))
      (f64.store
        (i32.add (local.get $dst) (i32.mul (local.get $i) (i32.const 8)))
        (f64.load (i32.add (local.get $src) (i32.mul (local.get $i) (i32.const 8)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $copy)))
  (call $ptr_set_len (local.get $fresh) (f64.convert_i32_u (local.get $newlen)))
  (local.get $fresh))`,
		Requires: []string{"ptr_len", "ptr_offset", "ptr_type", "alloc", "ptr_set_len"},
	})

	register(Primitive{
		Name: "arr_get",
		WAT: `(func $arr_get (param $v f64) (param $i i32) (result f64)
  (f64.load (i32.add (call $ptr_offset (local.get $v)) (i32.mul (local.get $i) (i32.const 8)))))`,
		Requires: []string{"ptr_offset"},
	})

	register(Primitive{
		Name: "arr_set",
		WAT: `(func $arr_set (param $v f64) (param $i i32) (param $x f64)
  (f64.store (i32.add (call $ptr_offset (local.get $v)) (i32.mul (local.get $i) (i32.const 8))) (local.get $x)))`,
		Requires: []string{"ptr_offset"},
	})
}
