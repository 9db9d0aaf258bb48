package memory

func init() {
	register(Primitive{
		Name: "str_len",
		// Strings carry their length in aux; SSO strings
		// are unpacked to the heap before any loop touches their bytes
		// so str_char_at et al never need an SSO-aware fast path.
		WAT: `(func $str_len (param $v f64) (result i32)
  (call $ptr_aux (local.get $v)))`,
		Requires: []string{"ptr_aux"},
	})

	register(Primitive{
		Name: "sso_to_heap",
		// Unpacks a short-string-optimised pointer (whose characters live
		// in the aux field itself) to a freshly allocated heap string,
		// or returns the input unchanged if it is already heap-resident.
		WAT: `(func $sso_to_heap (param $v f64) (result f64)
  (local $aux i32) (local $len i32) (local $fresh f64) (local $base i32) (local $i i32) (local $ch i32)
  (local.set $aux (call $ptr_aux (local.get $v)))
  (if (result f64) (i32.eqz (i32.and (local.get $aux) (i32.const 32768)))
    (then (local.get $v))
    (else
      (local.set $len (i32.and (local.get $aux) (i32.const 7)))
      (local.set $fresh (call $alloc (i32.const 1) (local.get $len)))
      (local.set $fresh (call $ptr_with_id (local.get $fresh) (local.get $len)))
      (local.set $base (call $ptr_offset (local.get $fresh)))
      (local.set $i (i32.const 0))
      (block $done
        (loop $unpack
          (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
          (local.set $ch (i32.and (i32.shr_u (local.get $aux) (i32.mul (local.get $i) (i32.const 7))) (i32.const 127)))
          (i32.store16 (i32.add (local.get $base) (i32.mul (local.get $i) (i32.const 2))) (local.get $ch))
          (local.set $i (i32.add (local.get $i) (i32.const 1)))
          (br $unpack)))
      (local.get $fresh))))`,
		Requires: []string{"ptr_aux", "alloc", "ptr_with_id", "ptr_offset"},
	})

	register(Primitive{
		Name: "str_char_at",
		WAT: `(func $str_char_at (param $v f64) (param $i i32) (result i32)
  (local $h f64)
  (local.set $h (call $sso_to_heap (local.get $v)))
  (i32.load16_u (i32.add (call $ptr_offset (local.get $h)) (i32.mul (local.get $i) (i32.const 2)))))`,
		Requires: []string{"sso_to_heap", "ptr_offset"},
	})

	register(Primitive{
		Name: "str_copy",
		// Copies len code units from src[srcoff:] into a fresh heap
		// string.
		WAT: `(func $str_copy (param $src f64) (param $srcoff i32) (param $len i32) (result f64)
  (local $h f64) (local $fresh f64) (local $s i32) (local $d i32) (local $i i32)
  (local.set $h (call $sso_to_heap (local.get $src)))
  (local.set $fresh (call $alloc (i32.const 1) (local.get $len)))
  (local.set $fresh (call $ptr_with_id (local.get $fresh) (local.get $len)))
  (local.set $s (i32.add (call $ptr_offset (local.get $h)) (i32.mul (local.get $srcoff) (i32.const 2))))
  (local.set $d (call $ptr_offset (local.get $fresh)))
  (local.set $i (i32.const 0))
  (block $done
    (loop $copy
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (i32.store16
        (i32.add (local.get $d) (i32.mul (local.get $i) (i32.const 2)))
        (i32.load16_u (i32.add (local.get $s) (i32.mul (local.get $i) (i32.const 2)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $copy)))
  (local.get $fresh))`,
		Requires: []string{"sso_to_heap", "alloc", "ptr_with_id", "ptr_offset"},
	})

	register(Primitive{
		Name: "strcat",
		WAT: `(func $strcat (param $a f64) (param $b f64) (result f64)
  (local $ha f64) (local $hb f64) (local $la i32) (local $lb i32) (local $fresh f64) (local $base i32)
  (local.set $ha (call $sso_to_heap (local.get $a)))
  (local.set $hb (call $sso_to_heap (local.get $b)))
  (local.set $la (call $str_len (local.get $ha)))
  (local.set $lb (call $str_len (local.get $hb)))
  (local.set $fresh (call $alloc (i32.const 1) (i32.add (local.get $la) (local.get $lb))))
  (local.set $fresh (call $ptr_with_id (local.get $fresh) (i32.add (local.get $la) (local.get $lb))))
  (local.set $base (call $ptr_offset (local.get $fresh)))
  (call $mem_copy16 (call $ptr_offset (local.get $ha)) (local.get $base) (local.get $la))
  (call $mem_copy16
    (call $ptr_offset (local.get $hb))
    (i32.add (local.get $base) (i32.mul (local.get $la) (i32.const 2)))
    (local.get $lb))
  (local.get $fresh))`,
		Requires: []string{"sso_to_heap", "str_len", "alloc", "ptr_with_id", "ptr_offset", "mem_copy16"},
	})

	register(Primitive{
		Name: "strcat3",
		WAT: `(func $strcat3 (param $a f64) (param $b f64) (param $c f64) (result f64)
  (call $strcat (call $strcat (local.get $a) (local.get $b)) (local.get $c)))`,
		Requires: []string{"strcat"},
	})

	register(Primitive{
		Name: "str_empty",
		// Returns the canonical zero-length string (string tag, aux and
		// offset both 0, no SSO bit), used as the
		// accumulator seed for arr_join and similar string-building loops.
		WAT: `(func $str_empty (result f64)
  (call $mkptr (i32.const 1) (i32.const 0) (i32.const 0)))`,
		Requires: []string{"mkptr"},
	})

	register(Primitive{
		Name: "mem_copy16",
		// UTF-16 code-unit copy loop used by strcat.
		WAT: `(func $mem_copy16 (param $src i32) (param $dst i32) (param $n i32)
  (local $i i32)
  (local.set $i (i32.const 0))
  (block $done
    (loop $copy
      (br_if $done (i32.ge_u (local.get $i) (local.get $n)))
      (i32.store16
        (i32.add (local.get $dst) (i32.mul (local.get $i) (i32.const 2)))
        (i32.load16_u (i32.add (local.get $src) (i32.mul (local.get $i) (i32.const 2)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $copy))))`,
	})
}
