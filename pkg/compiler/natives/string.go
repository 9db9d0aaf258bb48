package natives

import "github.com/jz-lang/jzc/pkg/memory"

func registerStringMethods() {
	register(memory.Primitive{
		Name: "str_char_code_at",
		WAT: `(func $str_char_code_at (param $v f64) (param $i i32) (result f64)
  (f64.convert_i32_u (call $str_char_at (local.get $v) (local.get $i))))`,
		Requires: []string{"str_char_at"},
	})

	register(memory.Primitive{
		Name: "str_slice",
		WAT: `(func $str_slice (param $v f64) (param $start i32) (param $end i32) (result f64)
  (local $len i32)
  (local.set $len (call $str_len (local.get $v)))
  (if (i32.lt_s (local.get $start) (i32.const 0)) (then (local.set $start (i32.add (local.get $len) (local.get $start)))))
  (if (i32.lt_s (local.get $end) (i32.const 0)) (then (local.set $end (i32.add (local.get $len) (local.get $end)))))
  (if (i32.gt_s (local.get $end) (local.get $len)) (then (local.set $end (local.get $len))))
  (if (i32.lt_s (local.get $start) (i32.const 0)) (then (local.set $start (i32.const 0))))
  (if (i32.lt_s (local.get $end) (local.get $start)) (then (local.set $end (local.get $start))))
  (call $str_copy (local.get $v) (local.get $start) (i32.sub (local.get $end) (local.get $start))))`,
		Requires: []string{"str_len", "str_copy"},
	})

	register(memory.Primitive{
		Name: "str_substring",
		// substring clamps negatives to 0 and swaps a reversed range,
		// unlike slice's wrap-from-end behaviour.
		WAT: `(func $str_substring (param $v f64) (param $start i32) (param $end i32) (result f64)
  (local $len i32) (local $tmp i32)
  (local.set $len (call $str_len (local.get $v)))
  (if (i32.lt_s (local.get $start) (i32.const 0)) (then (local.set $start (i32.const 0))))
  (if (i32.lt_s (local.get $end) (i32.const 0)) (then (local.set $end (i32.const 0))))
  (if (i32.gt_s (local.get $start) (local.get $len)) (then (local.set $start (local.get $len))))
  (if (i32.gt_s (local.get $end) (local.get $len)) (then (local.set $end (local.get $len))))
  (if (i32.gt_s (local.get $start) (local.get $end))
    (then (local.set $tmp (local.get $start)) (local.set $start (local.get $end)) (local.set $end (local.get $tmp))))
  (call $str_copy (local.get $v) (local.get $start) (i32.sub (local.get $end) (local.get $start))))`,
		Requires: []string{"str_len", "str_copy"},
	})

	register(memory.Primitive{
		Name: "str_substr",
		WAT: `(func $str_substr (param $v f64) (param $start i32) (param $count i32) (result f64)
  (local $len i32)
  (local.set $len (call $str_len (local.get $v)))
  (if (i32.lt_s (local.get $start) (i32.const 0)) (then (local.set $start (i32.add (local.get $len) (local.get $start)))))
  (if (i32.lt_s (local.get $start) (i32.const 0)) (then (local.set $start (i32.const 0))))
  (if (i32.gt_s (i32.add (local.get $start) (local.get $count)) (local.get $len))
    (then (local.set $count (i32.sub (local.get $len) (local.get $start)))))
  (call $str_copy (local.get $v) (local.get $start) (local.get $count)))`,
		Requires: []string{"str_len", "str_copy"},
	})

	register(memory.Primitive{
		Name: "str_index_of",
		WAT: `(func $str_index_of (param $v f64) (param $needle f64) (result f64)
  (local $len i32) (local $nlen i32) (local $i i32) (local $j i32) (local $matched i32)
  (local.set $len (call $str_len (local.get $v)))
  (local.set $nlen (call $str_len (local.get $needle)))
  (block $notfound
    (loop $outer
      (br_if $notfound (i32.gt_s (i32.add (local.get $i) (local.get $nlen)) (local.get $len)))
      (local.set $matched (i32.const 1))
      (local.set $j (i32.const 0))
      (block $mismatch
        (loop $inner
          (br_if $mismatch (i32.ge_u (local.get $j) (local.get $nlen)))
          (if (i32.ne (call $str_char_at (local.get $v) (i32.add (local.get $i) (local.get $j))) (call $str_char_at (local.get $needle) (local.get $j)))
            (then (local.set $matched (i32.const 0)) (br $mismatch)))
          (local.set $j (i32.add (local.get $j) (i32.const 1)))
          (br $inner)))
      (if (local.get $matched) (then (return (f64.convert_i32_u (local.get $i)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $outer)))
  (f64.const -1))`,
		Requires: []string{"str_len", "str_char_at"},
	})

	register(memory.Primitive{
		Name: "str_includes",
		WAT: `(func $str_includes (param $v f64) (param $needle f64) (result f64)
  (f64.ge (call $str_index_of (local.get $v) (local.get $needle)) (f64.const 0)))`,
		Requires: []string{"str_index_of"},
	})

	register(memory.Primitive{
		Name: "str_starts_with",
		WAT: `(func $str_starts_with (param $v f64) (param $needle f64) (result f64)
  (local $nlen i32) (local $i i32)
  (local.set $nlen (call $str_len (local.get $needle)))
  (if (i32.gt_s (local.get $nlen) (call $str_len (local.get $v))) (then (return (f64.const 0))))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $nlen)))
      (if (i32.ne (call $str_char_at (local.get $v) (local.get $i)) (call $str_char_at (local.get $needle) (local.get $i)))
        (then (return (f64.const 0))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (f64.const 1))`,
		Requires: []string{"str_len", "str_char_at"},
	})

	register(memory.Primitive{
		Name: "str_ends_with",
		WAT: `(func $str_ends_with (param $v f64) (param $needle f64) (result f64)
  (local $nlen i32) (local $len i32) (local $off i32) (local $i i32)
  (local.set $nlen (call $str_len (local.get $needle)))
  (local.set $len (call $str_len (local.get $v)))
  (if (i32.gt_s (local.get $nlen) (local.get $len)) (then (return (f64.const 0))))
  (local.set $off (i32.sub (local.get $len) (local.get $nlen)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $nlen)))
      (if (i32.ne (call $str_char_at (local.get $v) (i32.add (local.get $off) (local.get $i))) (call $str_char_at (local.get $needle) (local.get $i)))
        (then (return (f64.const 0))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (f64.const 1))`,
		Requires: []string{"str_len", "str_char_at"},
	})

	register(memory.Primitive{
		Name: "str_is_space",
		WAT: `(func $str_is_space (param $ch i32) (result i32)
  (i32.or (i32.or (i32.eq (local.get $ch) (i32.const 32)) (i32.eq (local.get $ch) (i32.const 9)))
    (i32.or (i32.eq (local.get $ch) (i32.const 10)) (i32.eq (local.get $ch) (i32.const 13)))))`,
	})

	register(memory.Primitive{
		Name: "str_trim_start",
		WAT: `(func $str_trim_start (param $v f64) (result f64)
  (local $len i32) (local $i i32)
  (local.set $len (call $str_len (local.get $v)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (br_if $done (i32.eqz (call $str_is_space (call $str_char_at (local.get $v) (local.get $i)))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (call $str_copy (local.get $v) (local.get $i) (i32.sub (local.get $len) (local.get $i))))`,
		Requires: []string{"str_len", "str_char_at", "str_is_space", "str_copy"},
	})

	register(memory.Primitive{
		Name: "str_trim_end",
		WAT: `(func $str_trim_end (param $v f64) (result f64)
  (local $len i32) (local $end i32)
  (local.set $len (call $str_len (local.get $v)))
  (local.set $end (local.get $len))
  (block $done
    (loop $each
      (br_if $done (i32.eqz (local.get $end)))
      (br_if $done (i32.eqz (call $str_is_space (call $str_char_at (local.get $v) (i32.sub (local.get $end) (i32.const 1))))))
      (local.set $end (i32.sub (local.get $end) (i32.const 1)))
      (br $each)))
  (call $str_copy (local.get $v) (i32.const 0) (local.get $end)))`,
		Requires: []string{"str_len", "str_char_at", "str_is_space", "str_copy"},
	})

	register(memory.Primitive{
		Name: "str_trim",
		WAT: `(func $str_trim (param $v f64) (result f64)
  (call $str_trim_end (call $str_trim_start (local.get $v))))`,
		Requires: []string{"str_trim_start", "str_trim_end"},
	})

	register(memory.Primitive{
		Name: "str_to_lower",
		WAT: `(func $str_to_lower (param $v f64) (result f64)
  (call $str_case_map (local.get $v) (i32.const 1)))`,
		Requires: []string{"str_case_map"},
	})

	register(memory.Primitive{
		Name: "str_to_upper",
		WAT: `(func $str_to_upper (param $v f64) (result f64)
  (call $str_case_map (local.get $v) (i32.const 0)))`,
		Requires: []string{"str_case_map"},
	})

	register(memory.Primitive{
		Name: "str_case_map",
		// Shared ASCII case-folding loop; toLower asks for lower==1,
		// toUpper for lower==0. Non-ASCII code units pass through
		// unchanged.
		WAT: `(func $str_case_map (param $v f64) (param $lower i32) (result f64)
  (local $len i32) (local $out f64) (local $i i32) (local $ch i32) (local $base i32)
  (local.set $len (call $str_len (local.get $v)))
  (local.set $out (call $str_copy (local.get $v) (i32.const 0) (local.get $len)))
  (local.set $base (call $ptr_offset (local.get $out)))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $len)))
      (local.set $ch (i32.load16_u (i32.add (local.get $base) (i32.mul (local.get $i) (i32.const 2)))))
      (if (local.get $lower)
        (then (if (i32.and (i32.ge_u (local.get $ch) (i32.const 65)) (i32.le_u (local.get $ch) (i32.const 90)))
          (then (local.set $ch (i32.add (local.get $ch) (i32.const 32))))))
        (else (if (i32.and (i32.ge_u (local.get $ch) (i32.const 97)) (i32.le_u (local.get $ch) (i32.const 122)))
          (then (local.set $ch (i32.sub (local.get $ch) (i32.const 32)))))))
      (i32.store16 (i32.add (local.get $base) (i32.mul (local.get $i) (i32.const 2))) (local.get $ch))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $out))`,
		Requires: []string{"str_len", "str_copy", "ptr_offset"},
	})

	register(memory.Primitive{
		Name: "str_repeat",
		WAT: `(func $str_repeat (param $v f64) (param $n i32) (result f64)
  (local $i i32) (local $out f64)
  (local.set $out (call $str_empty))
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $n)))
      (local.set $out (call $strcat (local.get $out) (local.get $v)))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (local.get $out))`,
		Requires: []string{"str_empty", "strcat"},
	})

	register(memory.Primitive{
		Name: "str_pad_start",
		WAT: `(func $str_pad_start (param $v f64) (param $target i32) (param $pad f64) (result f64)
  (local $out f64)
  (local.set $out (local.get $v))
  (block $done
    (loop $each
      (br_if $done (i32.ge_s (call $str_len (local.get $out)) (local.get $target)))
      (local.set $out (call $strcat (local.get $pad) (local.get $out)))
      (br $each)))
  (call $str_substring (local.get $out) (i32.sub (call $str_len (local.get $out)) (local.get $target)) (call $str_len (local.get $out))))`,
		Requires: []string{"str_len", "strcat", "str_substring"},
	})

	register(memory.Primitive{
		Name: "str_pad_end",
		WAT: `(func $str_pad_end (param $v f64) (param $target i32) (param $pad f64) (result f64)
  (local $out f64)
  (local.set $out (local.get $v))
  (block $done
    (loop $each
      (br_if $done (i32.ge_s (call $str_len (local.get $out)) (local.get $target)))
      (local.set $out (call $strcat (local.get $out) (local.get $pad)))
      (br $each)))
  (call $str_substring (local.get $out) (i32.const 0) (local.get $target)))`,
		Requires: []string{"str_len", "strcat", "str_substring"},
	})

	register(memory.Primitive{
		Name: "str_split",
		// Splits v on every occurrence of sep into a plain array of
		// strings; an empty separator splits into one-character strings.
		WAT: `(func $str_split (param $v f64) (param $sep f64) (result f64)
  (local $len i32) (local $seplen i32) (local $out f64) (local $cap i32) (local $count i32)
  (local $start i32) (local $i i32) (local $found i32) (local $j i32)
  (local.set $len (call $str_len (local.get $v)))
  (local.set $seplen (call $str_len (local.get $sep)))
  (local.set $cap (i32.add (local.get $len) (i32.const 1)))
  (local.set $out (call $alloc (i32.const 0) (local.get $cap)))
  (if (i32.eqz (local.get $seplen))
    (then
      (block $done0
        (loop $each0
          (br_if $done0 (i32.ge_u (local.get $i) (local.get $len)))
          (call $arr_set (local.get $out) (local.get $count) (call $str_copy (local.get $v) (local.get $i) (i32.const 1)))
          (local.set $count (i32.add (local.get $count) (i32.const 1)))
          (local.set $i (i32.add (local.get $i) (i32.const 1)))
          (br $each0)))
      (call $ptr_set_len (local.get $out) (f64.convert_i32_u (local.get $count)))
      (return (local.get $out))))
  (block $done
    (loop $each
      (br_if $done (i32.gt_s (i32.add (local.get $i) (local.get $seplen)) (local.get $len)))
      (local.set $found (i32.const 1))
      (local.set $j (i32.const 0))
      (block $mismatch
        (loop $inner
          (br_if $mismatch (i32.ge_u (local.get $j) (local.get $seplen)))
          (if (i32.ne (call $str_char_at (local.get $v) (i32.add (local.get $i) (local.get $j))) (call $str_char_at (local.get $sep) (local.get $j)))
            (then (local.set $found (i32.const 0)) (br $mismatch)))
          (local.set $j (i32.add (local.get $j) (i32.const 1)))
          (br $inner)))
      (if (local.get $found)
        (then
          (call $arr_set (local.get $out) (local.get $count) (call $str_copy (local.get $v) (local.get $start) (i32.sub (local.get $i) (local.get $start))))
          (local.set $count (i32.add (local.get $count) (i32.const 1)))
          (local.set $i (i32.add (local.get $i) (local.get $seplen)))
          (local.set $start (local.get $i)))
        (else (local.set $i (i32.add (local.get $i) (i32.const 1)))))
      (br $each)))
  (call $arr_set (local.get $out) (local.get $count) (call $str_copy (local.get $v) (local.get $start) (i32.sub (local.get $len) (local.get $start))))
  (local.set $count (i32.add (local.get $count) (i32.const 1)))
  (call $ptr_set_len (local.get $out) (f64.convert_i32_u (local.get $count)))
  (local.get $out))`,
		Requires: []string{"str_len", "alloc", "str_copy", "str_char_at", "arr_set", "ptr_set_len"},
	})

	register(memory.Primitive{
		Name: "str_replace",
		// Replaces the first occurrence of needle with replacement. A
		// literal-string needle has no global form in source, matching
		// JS (only a /g-flagged regex needle can replace every
		// occurrence); the generator's regex path builds the repeated
		// substitution itself rather than calling this in a loop.
		WAT: `(func $str_replace (param $v f64) (param $needle f64) (param $replacement f64) (result f64)
  (local $idx f64) (local $len i32) (local $i i32)
  (local.set $idx (call $str_index_of (local.get $v) (local.get $needle)))
  (if (f64.lt (local.get $idx) (f64.const 0)) (then (return (local.get $v))))
  (local.set $i (i32.trunc_f64_u (local.get $idx)))
  (local.set $len (call $str_len (local.get $v)))
  (call $strcat3
    (call $str_copy (local.get $v) (i32.const 0) (local.get $i))
    (local.get $replacement)
    (call $str_copy (local.get $v) (i32.add (local.get $i) (call $str_len (local.get $needle))) (i32.sub (local.get $len) (i32.add (local.get $i) (call $str_len (local.get $needle)))))))`,
		Requires: []string{"str_index_of", "str_len", "str_copy", "strcat3"},
	})

	register(memory.Primitive{
		Name: "str_search_plain",
		// search()/match() called with a plain-string argument (no regex
		// literal) coerce it to a needle match with no flags, same as JS
		// coercing a non-RegExp argument into `new RegExp(arg)`.
		WAT: `(func $str_search_plain (param $v f64) (param $needle f64) (result f64)
  (call $str_index_of (local.get $v) (local.get $needle)))`,
		Requires: []string{"str_index_of"},
	})

	register(memory.Primitive{
		Name: "str_match_plain",
		// Mirrors a non-global match(): a one-element array holding the
		// matched text, or the null sentinel (f64 0, value.Ref) when
		// needle does not occur.
		WAT: `(func $str_match_plain (param $v f64) (param $needle f64) (result f64)
  (local $idx f64) (local $out f64)
  (local.set $idx (call $str_index_of (local.get $v) (local.get $needle)))
  (if (f64.lt (local.get $idx) (f64.const 0)) (then (return (f64.const 0))))
  (local.set $out (call $alloc (i32.const 0) (i32.const 1)))
  (call $arr_set (local.get $out) (i32.const 0) (local.get $needle))
  (local.get $out))`,
		Requires: []string{"str_index_of", "alloc", "arr_set"},
	})
}
