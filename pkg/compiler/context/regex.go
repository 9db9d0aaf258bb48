package context

import (
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/memory"
	"github.com/jz-lang/jzc/pkg/regex"
)

// RegexEntry records one distinct /pattern/flags literal's compiled
// program and the static data it was laid out at: Stem names the pair
// of raw WAT functions InternRegex emitted for it ($Stem and
// $Stem_exec), ProgOffset/NumInsts locate its encoded bytecode (and,
// past NumInsts*16 bytes, its rune-range table), and SavesOffset is the
// capture-slots scratch buffer $Stem resets and fills on every call.
type RegexEntry struct {
	Stem        string
	Program     *regex.Program
	ProgOffset  uint32
	NumInsts    uint32
	SavesOffset uint32
}

// RegexDataSegment is one regex literal's encoded bytecode blob planned
// for a data segment, alongside the string/array segments schema.go
// already tracks.
type RegexDataSegment struct {
	Offset uint32
	Bytes  []byte
}

// InternRegex parses and compiles a /pattern/flags literal the first
// time this exact (pattern, flags) pair is seen anywhere in the
// compilation, reserving its bytecode and its own capture-saves
// scratch buffer in the static data segment and emitting its $Stem/
// $Stem_exec wrapper functions via AddRawFunction. A repeated literal
// with identical text returns the cached entry rather than re-parsing,
// re-compiling or re-emitting anything — so a pattern referenced at
// several call sites still only costs one set of wrapper functions and
// one saves buffer, which is safe to share across calls because
// execution is single-threaded and synchronous and no supported
// replacement form re-enters the same pattern mid-match.
func (c *Context) InternRegex(patternText, flags string) *RegexEntry {
	key := patternText + "\x00" + flags
	if e, ok := c.shared.Regexes[key]; ok {
		return e
	}

	pat, err := regex.Parse(patternText, flags)
	if err != nil {
		panic(diag.Errorf(diag.CodeParseRegex, "invalid regex literal /%s/%s: %v", patternText, flags, err))
	}

	prog, err := regex.Compile(pat)
	if err != nil {
		panic(diag.Errorf(diag.CodeParseRegex, "cannot compile regex literal /%s/%s: %v", patternText, flags, err))
	}

	encoded := prog.Encode()
	progOffset := c.allocHeap(memory.Align8(uint32(len(encoded))))
	savesOffset := c.allocHeap(memory.Align8(uint32(prog.SavesBytes())))

	entry := &RegexEntry{
		Stem:        c.Fresh("regex"),
		Program:     prog,
		ProgOffset:  progOffset,
		NumInsts:    uint32(len(prog.Insts)),
		SavesOffset: savesOffset,
	}

	if c.shared.Regexes == nil {
		c.shared.Regexes = map[string]*RegexEntry{}
	}
	c.shared.Regexes[key] = entry
	c.shared.RegexList = append(c.shared.RegexList, entry)
	c.shared.RegexData = append(c.shared.RegexData, RegexDataSegment{Offset: progOffset, Bytes: encoded})

	c.AddRawFunction(regex.WrapperWAT(entry.Stem, prog, progOffset, savesOffset))

	// $Stem/$Stem_exec are raw text, invisible to memory.Closure's walk
	// over the registered-primitive graph, so their own dependencies
	// must be pulled in explicitly here.
	c.Use("regex_search")
	c.Use("str_copy")
	c.Use("alloc")
	c.Use("arr_set")

	return entry
}

// RegexData returns every distinct regex literal's bytecode blob
// planned for a data segment, in first-use order, for the assembler's
// data-section pass.
func (c *Context) RegexData() []RegexDataSegment {
	return c.shared.RegexData
}

// RegexEntries returns every interned regex literal's full bookkeeping,
// in first-use order, so the assembler can account for both its
// bytecode blob and its capture-saves scratch buffer when sizing the
// static data region (the saves buffer carries no data-segment bytes
// of its own — it is left implicitly zero-initialised and reset to -1
// by $Stem on every call — but still occupies address space that must
// not overlap the runtime heap).
func (c *Context) RegexEntries() []*RegexEntry {
	return c.shared.RegexList
}

// AddRawFunction appends a fully-rendered `(func ...)` WAT blob to be
// emitted verbatim by the assembler, bypassing CompiledFunction's
// uniform all-f64-parameter convention — used for pkg/regex's
// per-pattern wrapper functions, whose $start parameter (and internal
// loop counters) are i32, not f64.
func (c *Context) AddRawFunction(wat string) {
	c.shared.RawFunctions = append(c.shared.RawFunctions, wat)
}

// RawFunctions returns every raw function blob registered so far, for
// the assembler's function-section pass.
func (c *Context) RawFunctions() []string {
	return c.shared.RawFunctions
}
