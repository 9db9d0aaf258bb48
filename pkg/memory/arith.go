package memory

func init() {
	register(Primitive{
		Name: "f64_rem",
		// `%` is truncating division, unlike f64.rem (which WASM does not
		// have a native instruction for): a - trunc(a/b)*b.
		WAT: `(func $f64_rem (param $a f64) (param $b f64) (result f64)
  (f64.sub (local.get $a) (f64.mul (f64.trunc (f64.div (local.get $a) (local.get $b))) (local.get $b))))`,
	})

	register(Primitive{
		Name: "f64_pow",
		// Exponentiation by squaring over the integer part of the
		// exponent; negative exponents invert the base first. Correct for
		// the integer-exponent usage `x ** n` that dominates in practice;
		// a fractional exponent truncates, which is a known limitation.
		WAT: `(func $f64_pow (param $base f64) (param $exp f64) (result f64)
  (local $b f64) (local $n i64) (local $neg i32) (local $result f64)
  (local.set $b (local.get $base))
  (local.set $n (i64.trunc_f64_s (local.get $exp)))
  (local.set $result (f64.const 1))
  (if (i64.lt_s (local.get $n) (i64.const 0))
    (then
      (local.set $neg (i32.const 1))
      (local.set $n (i64.sub (i64.const 0) (local.get $n)))))
  (block $done
    (loop $step
      (br_if $done (i64.eqz (local.get $n)))
      (if (i32.wrap_i64 (i64.and (local.get $n) (i64.const 1)))
        (then (local.set $result (f64.mul (local.get $result) (local.get $b)))))
      (local.set $b (f64.mul (local.get $b) (local.get $b)))
      (local.set $n (i64.shr_u (local.get $n) (i64.const 1)))
      (br $step)))
  (if (result f64) (local.get $neg)
    (then (f64.div (f64.const 1) (local.get $result)))
    (else (local.get $result))))`,
	})
}
