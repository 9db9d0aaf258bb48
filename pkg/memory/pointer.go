package memory

import "fmt"

// Pointer-field extractors and the bit-level equality helpers: "mkptr",
// "is_pointer", "ptr_type", "ptr_aux"/"ptr_id", "ptr_offset", "f64_eq",
// "f64_ne".
func init() {
	register(Primitive{
		Name: "mkptr",
		WAT: fmt.Sprintf(`(func $mkptr (param $type i32) (param $aux i32) (param $offset i32) (result f64)
  (f64.reinterpret_i64
    (i64.or
      (i64.const %d)
      (i64.or
        (i64.shl (i64.and (i64.extend_i32_u (local.get $type)) (i64.const %d)) (i64.const %d))
        (i64.or
          (i64.shl (i64.and (i64.extend_i32_u (local.get $aux)) (i64.const %d)) (i64.const %d))
          (i64.and (i64.extend_i32_u (local.get $offset)) (i64.const %d)))))))`,
			QuietNaNBits, typeMask, typeShift, auxMask, auxShift, offsetMask),
	})

	register(Primitive{
		Name: "is_pointer",
		WAT: fmt.Sprintf(`(func $is_pointer (param $v f64) (result i32)
  (local $bits i64)
  (local.set $bits (i64.reinterpret_f64 (local.get $v)))
  (i32.and
    (i64.eq (i64.and (local.get $bits) (i64.const %d)) (i64.const %d))
    (i64.ne (i64.and (local.get $bits) (i64.const %d)) (i64.const 0))))`,
			QuietNaNBits, QuietNaNBits, ^QuietNaNBits),
	})

	register(Primitive{
		Name: "ptr_type",
		WAT: fmt.Sprintf(`(func $ptr_type (param $v f64) (result i32)
  (i32.wrap_i64
    (i64.and
      (i64.shr_u (i64.reinterpret_f64 (local.get $v)) (i64.const %d))
      (i64.const %d))))`, typeShift, typeMask),
	})

	register(Primitive{
		Name: "ptr_aux",
		WAT: fmt.Sprintf(`(func $ptr_aux (param $v f64) (result i32)
  (i32.wrap_i64
    (i64.and
      (i64.shr_u (i64.reinterpret_f64 (local.get $v)) (i64.const %d))
      (i64.const %d))))`, auxShift, auxMask),
	})

	register(Primitive{
		Name: "ptr_id",
		WAT: `(func $ptr_id (param $v f64) (result i32)
  (call $ptr_aux (local.get $v)))`,
		Requires: []string{"ptr_aux"},
	})

	register(Primitive{
		Name: "ptr_offset",
		WAT: fmt.Sprintf(`(func $ptr_offset (param $v f64) (result i32)
  (i32.wrap_i64
    (i64.and (i64.reinterpret_f64 (local.get $v)) (i64.const %d))))`, offsetMask),
	})

	register(Primitive{
		Name: "ptr_with_id",
		WAT: fmt.Sprintf(`(func $ptr_with_id (param $v f64) (param $id i32) (result f64)
  (call $mkptr (call $ptr_type (local.get $v)) (local.get $id) (call $ptr_offset (local.get $v))))`),
		Requires: []string{"mkptr", "ptr_type", "ptr_offset"},
	})

	register(Primitive{
		Name: "ptr_len",
		WAT: `(func $ptr_len (param $v f64) (result f64)
  (if (result f64) (i32.eq (call $ptr_type (local.get $v)) (i32.const 1))
    (then (f64.convert_i32_u (call $ptr_aux (local.get $v))))
    (else (f64.load (i32.sub (call $ptr_offset (local.get $v)) (i32.const 8))))))`,
		Requires: []string{"ptr_type", "ptr_aux", "ptr_offset"},
	})

	register(Primitive{
		Name: "ptr_set_len",
		WAT: `(func $ptr_set_len (param $v f64) (param $n f64)
  (f64.store (i32.sub (call $ptr_offset (local.get $v)) (i32.const 8)) (local.get $n)))`,
		Requires: []string{"ptr_offset"},
	})

	register(Primitive{
		Name: "f64_eq",
		WAT: `(func $f64_eq (param $a f64) (param $b f64) (result i32)
  (i64.eq (i64.reinterpret_f64 (local.get $a)) (i64.reinterpret_f64 (local.get $b))))`,
	})

	register(Primitive{
		Name: "f64_ne",
		WAT: `(func $f64_ne (param $a f64) (param $b f64) (result i32)
  (i32.eqz (call $f64_eq (local.get $a) (local.get $b))))`,
		Requires: []string{"f64_eq"},
	})

	register(Primitive{
		Name: "truthy",
		// Generic runtime truthiness test for a value whose static kind
		// isn't known at the call site (method-library callback results,
		// computed member access): every pointer kind is a nonzero f64
		// bit pattern, so the single not-equal-to-zero rule value.Truthy
		// applies at compile time for a statically-known kind is also
		// correct uniformly at runtime for a dynamically-typed one.
		WAT: `(func $truthy (param $v f64) (result i32)
  (call $f64_ne (local.get $v) (f64.const 0)))`,
		Requires: []string{"f64_ne"},
	})
}
