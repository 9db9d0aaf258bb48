package regex

import "github.com/jz-lang/jzc/pkg/memory"

// init registers the shared backtracking-VM interpreter into
// pkg/memory's primitive registry — the same table the method
// libraries in pkg/compiler/natives register into — so the assembler
// pulls it in via ctx.Use("regex_search") exactly like any other
// runtime helper, with its transitive closure (str_char_at, str_len,
// ...) resolved automatically.
//
// One interpreter loop serves every pattern literal in a program; what
// varies per pattern is only the bytecode a compiled Program.Encode()
// produces, which the assembler places in its own data segment and
// passes in as (progOffset, numInsts) at each call site.
func init() {
	memory.Register(memory.Primitive{
		Name: "regex_is_word",
		WAT: `(func $regex_is_word (param $ch i32) (result i32)
  (i32.or
    (i32.or
      (i32.and (i32.ge_u (local.get $ch) (i32.const 48)) (i32.le_u (local.get $ch) (i32.const 57)))
      (i32.or
        (i32.and (i32.ge_u (local.get $ch) (i32.const 65)) (i32.le_u (local.get $ch) (i32.const 90)))
        (i32.and (i32.ge_u (local.get $ch) (i32.const 97)) (i32.le_u (local.get $ch) (i32.const 122)))))
    (i32.eq (local.get $ch) (i32.const 95))))`,
	})

	memory.Register(memory.Primitive{
		Name: "regex_fold",
		// Case-folds a code unit to lowercase when $ic is set, used to
		// implement the /i flag uniformly for OpChar and OpClass.
		WAT: `(func $regex_fold (param $ch i32) (param $ic i32) (result i32)
  (if (result i32) (i32.eqz (local.get $ic))
    (then (local.get $ch))
    (else
      (if (result i32) (i32.and (i32.ge_u (local.get $ch) (i32.const 65)) (i32.le_u (local.get $ch) (i32.const 90)))
        (then (i32.add (local.get $ch) (i32.const 32)))
        (else (local.get $ch))))))`,
	})

	memory.Register(memory.Primitive{
		Name: "regex_class_match",
		// Scans the count rune-range pairs starting at ranges_base+offset
		// for one that contains ch; offset/count come straight from an
		// OpClass instruction's Arg1/Arg2.
		WAT: `(func $regex_class_match (param $ranges_base i32) (param $offset i32) (param $count i32) (param $ch i32) (result i32)
  (local $i i32) (local $p i32) (local $lo i32) (local $hi i32)
  (block $done
    (loop $each
      (br_if $done (i32.ge_u (local.get $i) (local.get $count)))
      (local.set $p (i32.add (i32.add (local.get $ranges_base) (local.get $offset)) (i32.mul (local.get $i) (i32.const 8))))
      (local.set $lo (i32.load (local.get $p)))
      (local.set $hi (i32.load (i32.add (local.get $p) (i32.const 4))))
      (if (i32.and (i32.ge_u (local.get $ch) (local.get $lo)) (i32.le_u (local.get $ch) (local.get $hi)))
        (then (return (i32.const 1))))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $each)))
  (i32.const 0))`,
	})

	memory.Register(memory.Primitive{
		Name: "regex_run",
		// Recursive backtracking executor over one instruction at a time.
		// Each call either returns the final match end position (>= 0) or
		// -1; OpSplit recurses into its first branch and only tries the
		// second if that whole continuation fails, which is what gives
		// this its backtracking semantics (as opposed to Pike's VM, which
		// runs all live threads in lockstep without recursion). OpSave
		// snapshots and restores the slot it touches around its
		// continuation so a capture from an abandoned branch doesn't leak
		// into the result.
		WAT: `(func $regex_run (param $prog i32) (param $ranges i32) (param $pc i32) (param $s f64) (param $len i32) (param $pos i32) (param $saves i32) (param $ic i32) (param $ml i32) (result i32)
  (local $base i32) (local $op i32) (local $a1 i32) (local $a2 i32) (local $a3 i32)
  (local $ch i32) (local $ok i32) (local $r i32) (local $old i32)
  (local $wbefore i32) (local $wafter i32)
  (local.set $base (i32.add (local.get $prog) (i32.mul (local.get $pc) (i32.const 16))))
  (local.set $op (i32.load (local.get $base)))
  (local.set $a1 (i32.load (i32.add (local.get $base) (i32.const 4))))
  (local.set $a2 (i32.load (i32.add (local.get $base) (i32.const 8))))
  (local.set $a3 (i32.load (i32.add (local.get $base) (i32.const 12))))

  (if (i32.eq (local.get $op) (i32.const 0)) (then
    (if (i32.ge_u (local.get $pos) (local.get $len)) (then (return (i32.const -1))))
    (local.set $ch (call $regex_fold (call $str_char_at (local.get $s) (local.get $pos)) (local.get $ic)))
    (if (i32.ne (local.get $ch) (call $regex_fold (local.get $a1) (local.get $ic))) (then (return (i32.const -1))))
    (return (call $regex_run (local.get $prog) (local.get $ranges) (i32.add (local.get $pc) (i32.const 1)) (local.get $s) (local.get $len) (i32.add (local.get $pos) (i32.const 1)) (local.get $saves) (local.get $ic) (local.get $ml)))))

  (if (i32.eq (local.get $op) (i32.const 1)) (then
    (if (i32.ge_u (local.get $pos) (local.get $len)) (then (return (i32.const -1))))
    (local.set $ch (call $str_char_at (local.get $s) (local.get $pos)))
    (if (i32.and (i32.eqz (local.get $a1)) (i32.eq (local.get $ch) (i32.const 10))) (then (return (i32.const -1))))
    (return (call $regex_run (local.get $prog) (local.get $ranges) (i32.add (local.get $pc) (i32.const 1)) (local.get $s) (local.get $len) (i32.add (local.get $pos) (i32.const 1)) (local.get $saves) (local.get $ic) (local.get $ml)))))

  (if (i32.eq (local.get $op) (i32.const 2)) (then
    (if (i32.ge_u (local.get $pos) (local.get $len)) (then (return (i32.const -1))))
    (local.set $ch (call $regex_fold (call $str_char_at (local.get $s) (local.get $pos)) (local.get $ic)))
    (local.set $ok (call $regex_class_match (local.get $ranges) (local.get $a1) (local.get $a2) (local.get $ch)))
    (if (local.get $a3) (then (local.set $ok (i32.eqz (local.get $ok)))))
    (if (i32.eqz (local.get $ok)) (then (return (i32.const -1))))
    (return (call $regex_run (local.get $prog) (local.get $ranges) (i32.add (local.get $pc) (i32.const 1)) (local.get $s) (local.get $len) (i32.add (local.get $pos) (i32.const 1)) (local.get $saves) (local.get $ic) (local.get $ml)))))

  (if (i32.eq (local.get $op) (i32.const 3)) (then
    (local.set $r (call $regex_run (local.get $prog) (local.get $ranges) (local.get $a1) (local.get $s) (local.get $len) (local.get $pos) (local.get $saves) (local.get $ic) (local.get $ml)))
    (if (i32.ge_s (local.get $r) (i32.const 0)) (then (return (local.get $r))))
    (return (call $regex_run (local.get $prog) (local.get $ranges) (local.get $a2) (local.get $s) (local.get $len) (local.get $pos) (local.get $saves) (local.get $ic) (local.get $ml)))))

  (if (i32.eq (local.get $op) (i32.const 4)) (then
    (return (call $regex_run (local.get $prog) (local.get $ranges) (local.get $a1) (local.get $s) (local.get $len) (local.get $pos) (local.get $saves) (local.get $ic) (local.get $ml)))))

  (if (i32.eq (local.get $op) (i32.const 5)) (then
    (local.set $old (i32.load (i32.add (local.get $saves) (i32.mul (local.get $a1) (i32.const 4)))))
    (i32.store (i32.add (local.get $saves) (i32.mul (local.get $a1) (i32.const 4))) (local.get $pos))
    (local.set $r (call $regex_run (local.get $prog) (local.get $ranges) (i32.add (local.get $pc) (i32.const 1)) (local.get $s) (local.get $len) (local.get $pos) (local.get $saves) (local.get $ic) (local.get $ml)))
    (if (i32.lt_s (local.get $r) (i32.const 0)) (then
      (i32.store (i32.add (local.get $saves) (i32.mul (local.get $a1) (i32.const 4))) (local.get $old))))
    (return (local.get $r))))

  (if (i32.eq (local.get $op) (i32.const 6)) (then
    (local.set $ok (i32.eqz (local.get $pos)))
    (if (i32.and (local.get $ml) (i32.and (i32.gt_u (local.get $pos) (i32.const 0)) (i32.eq (call $str_char_at (local.get $s) (i32.sub (local.get $pos) (i32.const 1))) (i32.const 10))))
      (then (local.set $ok (i32.const 1))))
    (if (i32.eqz (local.get $ok)) (then (return (i32.const -1))))
    (return (call $regex_run (local.get $prog) (local.get $ranges) (i32.add (local.get $pc) (i32.const 1)) (local.get $s) (local.get $len) (local.get $pos) (local.get $saves) (local.get $ic) (local.get $ml)))))

  (if (i32.eq (local.get $op) (i32.const 7)) (then
    (local.set $ok (i32.eq (local.get $pos) (local.get $len)))
    (if (i32.and (local.get $ml) (i32.and (i32.lt_u (local.get $pos) (local.get $len)) (i32.eq (call $str_char_at (local.get $s) (local.get $pos)) (i32.const 10))))
      (then (local.set $ok (i32.const 1))))
    (if (i32.eqz (local.get $ok)) (then (return (i32.const -1))))
    (return (call $regex_run (local.get $prog) (local.get $ranges) (i32.add (local.get $pc) (i32.const 1)) (local.get $s) (local.get $len) (local.get $pos) (local.get $saves) (local.get $ic) (local.get $ml)))))

  (if (i32.eq (local.get $op) (i32.const 8)) (then
    (local.set $wbefore (i32.and (i32.gt_u (local.get $pos) (i32.const 0)) (call $regex_is_word (call $str_char_at (local.get $s) (i32.sub (local.get $pos) (i32.const 1))))))
    (local.set $wafter (i32.and (i32.lt_u (local.get $pos) (local.get $len)) (call $regex_is_word (call $str_char_at (local.get $s) (local.get $pos)))))
    (local.set $ok (i32.ne (local.get $wbefore) (local.get $wafter)))
    (if (local.get $a1) (then (local.set $ok (i32.eqz (local.get $ok)))))
    (if (i32.eqz (local.get $ok)) (then (return (i32.const -1))))
    (return (call $regex_run (local.get $prog) (local.get $ranges) (i32.add (local.get $pc) (i32.const 1)) (local.get $s) (local.get $len) (local.get $pos) (local.get $saves) (local.get $ic) (local.get $ml)))))

  (return (local.get $pos)))`,
		Requires: []string{"str_char_at", "str_len", "regex_fold", "regex_class_match", "regex_is_word"},
	})

	memory.Register(memory.Primitive{
		Name: "regex_search",
		// Entry point: tries to match starting at each position from
		// $start onward (the classic "try matchhere at every offset"
		// outer loop), stopping at the first success. saves[0]/saves[1]
		// receive the whole match's start/end; saves[2*g]/[2*g+1] receive
		// group g's start/end (left at -1 where a group never
		// participated). Returns the match end position, or -1.
		WAT: `(func $regex_search (param $prog i32) (param $numinsts i32) (param $s f64) (param $start i32) (param $saves i32) (param $ic i32) (param $ml i32) (result i32)
  (local $ranges i32) (local $len i32) (local $pos i32) (local $r i32)
  (local.set $ranges (i32.add (local.get $prog) (i32.mul (local.get $numinsts) (i32.const 16))))
  (local.set $len (call $str_len (local.get $s)))
  (local.set $pos (local.get $start))
  (block $giveup
    (loop $tryat
      (i32.store (local.get $saves) (local.get $pos))
      (local.set $r (call $regex_run (local.get $prog) (local.get $ranges) (i32.const 0) (local.get $s) (local.get $len) (local.get $pos) (local.get $saves) (local.get $ic) (local.get $ml)))
      (if (i32.ge_s (local.get $r) (i32.const 0)) (then
        (i32.store (i32.add (local.get $saves) (i32.const 4)) (local.get $r))
        (return (local.get $r))))
      (br_if $giveup (i32.ge_u (local.get $pos) (local.get $len)))
      (local.set $pos (i32.add (local.get $pos) (i32.const 1)))
      (br $tryat)))
  (i32.const -1))`,
		Requires: []string{"regex_run", "str_len"},
	})
}
