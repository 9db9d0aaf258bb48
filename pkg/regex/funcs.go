package regex

import (
	"fmt"
	"strings"
)

// WrapperWAT renders the pair of per-pattern WAT functions a compiled
// Program needs at a call site: $<stem>, which resets the shared saves
// buffer and runs $regex_search once from a given start offset, and
// $<stem>_exec, which additionally slices the subject string into a
// match-and-groups array the way non-global match()/exec() need it.
// progOffset/savesOffset are the static data-segment addresses
// pkg/compiler/context.InternRegex reserved for this pattern's bytecode
// and capture-saves scratch space; both are baked in as i32 constants
// rather than threaded as parameters, since one data segment belongs to
// exactly one pattern.
//
// A plain Context.CompiledFunction can't express these: the assembler's
// writeUserFunctions declares every parameter f64, but $start and the
// loop counters here are i32 — so these render as complete, already-
// typed `(func ...)` text for Context.AddRawFunction instead.
func WrapperWAT(stem string, prog *Program, progOffset, savesOffset uint32) string {
	numInsts := len(prog.Insts)
	slots := prog.SavesSlots()
	ic, ml := boolConst(prog.IgnoreCase), boolConst(prog.Multiline)

	search := fmt.Sprintf(`(func $%s (param $s f64) (param $start i32) (result i32)
  (local $i i32)
  (block $doneinit
    (loop $initloop
      (br_if $doneinit (i32.ge_u (local.get $i) (i32.const %d)))
      (i32.store (i32.add (i32.const %d) (i32.mul (local.get $i) (i32.const 4))) (i32.const -1))
      (local.set $i (i32.add (local.get $i) (i32.const 1)))
      (br $initloop)))
  (call $regex_search (i32.const %d) (i32.const %d) (local.get $s) (local.get $start) (i32.const %d) (i32.const %d) (i32.const %d)))`,
		stem, slots, savesOffset, progOffset, numInsts, savesOffset, ic, ml)

	exec := fmt.Sprintf(`(func $%s_exec (param $s f64) (param $start i32) (result f64)
  (local $r i32) (local $out f64)
  (local.set $r (call $%s (local.get $s) (local.get $start)))
  (if (result f64) (i32.lt_s (local.get $r) (i32.const 0))
    (then (f64.const 0))
    (else
      (local.set $out (call $alloc (i32.const 0) (i32.const %d)))
      (call $arr_set (local.get $out) (i32.const 0) %s)
%s      (local.get $out))))`,
		stem, stem, prog.NumGroups+1, saveSlice(savesOffset, 0), groupSlots(savesOffset, prog.NumGroups))

	return search + "\n" + exec
}

// saveSlice renders the str_copy call extracting capture slot g's
// matched substring from the saves buffer at savesOffset.
func saveSlice(savesOffset uint32, g int) string {
	startOff := savesOffset + uint32(2*g)*4
	endOff := savesOffset + uint32(2*g+1)*4

	return fmt.Sprintf(`(call $str_copy (local.get $s) (i32.load (i32.const %d)) (i32.sub (i32.load (i32.const %d)) (i32.load (i32.const %d))))`,
		startOff, endOff, startOff)
}

// groupSlots unrolls one arr_set per capture group (index 1..numGroups
// in the exec result), storing the value.Ref null sentinel (f64 0) for
// a group whose saves slot is still the -1 WrapperWAT's init loop left
// it at, i.e. a group that never participated in this match.
func groupSlots(savesOffset uint32, numGroups int) string {
	var b strings.Builder

	for g := 1; g <= numGroups; g++ {
		startOff := savesOffset + uint32(2*g)*4
		fmt.Fprintf(&b, `      (if (i32.lt_s (i32.load (i32.const %d)) (i32.const 0))
        (then (call $arr_set (local.get $out) (i32.const %d) (f64.const 0)))
        (else (call $arr_set (local.get $out) (i32.const %d) %s)))
`, startOff, g, g, saveSlice(savesOffset, g))
	}

	return b.String()
}

func boolConst(b bool) int {
	if b {
		return 1
	}

	return 0
}
