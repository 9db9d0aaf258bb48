// Package assembler turns a finished compilation context into a
// complete WAT (WebAssembly text format) module: type declarations,
// the indirect-call function table, the linear memory, data segments
// for static strings/arrays, the runtime primitive library's
// transitive closure, every generated user function, the program
// entry point and its exports, and a custom `jz:sig` section
// describing the module to a host.
package assembler

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/memory"
	"github.com/jz-lang/jzc/pkg/value"
)

// pageSize is one WASM linear-memory page.
const pageSize = uint32(65536)

// maxInvokeArity is the highest arity the invokeN/closure-call-type
// family supports (pkg/memory/closure.go registers $invoke0..$invoke3).
const maxInvokeArity = 3

// Program is everything pkg/compiler has finished generating for one
// compilation unit: the accumulated context plus the top-level
// program's own entry-point body.
type Program struct {
	Ctx *context.Context
	// EntryBody is the WAT instruction sequence computing the
	// top-level program's final value, leaving exactly one f64 on the
	// stack (an explicit `(f64.const 0)` for a program with no trailing
	// expression).
	EntryBody string
	// EntryKind is the static kind of the top-level program's final
	// expression, used only to fill in jz:sig's returnsArray for main.
	EntryKind value.Kind
}

// Assemble emits the complete WAT text module for p, in a fixed section
// order: types, table, memory, globals, data, primitives, user
// functions, the entry point, exports, and finally the custom jz:sig
// section.
func Assemble(p Program) (string, error) {
	ctx := p.Ctx

	// _alloc is always exported for host-side input allocation, so its
	// primitive (and transitive dependencies) must always be included,
	// regardless of whether the program itself ever called it.
	ctx.Use("alloc")

	var b strings.Builder
	b.WriteString("(module\n")

	writeTypes(&b)
	writeTable(&b, ctx)

	heapEnd, usesTyped := writeMemory(&b, ctx)
	writeGlobals(&b, ctx, heapEnd, usesTyped)
	writeData(&b, ctx)
	writePrimitives(&b, ctx)
	writeUserFunctions(&b, ctx)
	writeRawFunctions(&b, ctx)
	writeEntry(&b, p.EntryBody)
	writeExports(&b, ctx, usesTyped)

	sig, err := Signature(p)
	if err != nil {
		return "", err
	}

	writeCustomSection(&b, sig)

	b.WriteString(")\n")

	return b.String(), nil
}

// writeTypes declares one function type per call_indirect arity the
// invokeN family dispatches through: (env, arg0, ..., argN-1) -> f64.
func writeTypes(b *strings.Builder) {
	for n := 0; n <= maxInvokeArity; n++ {
		params := " (param f64)" // the env parameter
		for i := 0; i < n; i++ {
			params += " (param f64)"
		}

		fmt.Fprintf(b, "(type $fn%d (func%s (result f64)))\n", n, params)
	}
}

// writeTable emits the indirect-call function table and its elem
// segment from the context's ordered function-table list, populated by
// every call to Context.AddToFuncTable during generation.
func writeTable(b *strings.Builder, ctx *context.Context) {
	table := ctx.FuncTable()

	fmt.Fprintf(b, "(table %d funcref)\n", len(table))

	if len(table) == 0 {
		return
	}

	b.WriteString("(elem (i32.const 0)")
	for _, name := range table {
		fmt.Fprintf(b, " $%s", name)
	}
	b.WriteString(")\n")
}

// writeMemory sizes the linear memory from the final static-data
// cursor (every interned string/constant array allocated at compile
// time) plus a fixed runtime-heap allowance, and — when any
// typed-array primitive was used — enough pages past
// memory.TypedArenaBase for a modest arena. Returns the final static
// data cursor (the runtime bump allocator's starting point) and
// whether the typed-array arena is in play.
func writeMemory(b *strings.Builder, ctx *context.Context) (heapEnd uint32, usesTyped bool) {
	heapEnd = staticDataEnd(ctx)

	// Nothing in this module ever calls memory.grow, so the initial
	// page count must already cover the program's whole bump-allocated
	// lifetime; this is a fixed, generous allowance rather than a real
	// estimate of any particular program's live set.
	const runtimeHeapAllowance = 4 << 20 // 4MiB

	need := heapEnd + runtimeHeapAllowance

	usesTyped = usesAnyOf(ctx, "alloc_typed", "reset_typed")
	if usesTyped {
		const typedArenaAllowance = 4 << 20 // 4MiB
		typedEnd := uint32(memory.TypedArenaBase) + typedArenaAllowance
		if typedEnd > need {
			need = typedEnd
		}
	}

	pages := need/pageSize + 1

	fmt.Fprintf(b, "(memory $mem %d)\n", pages)

	return heapEnd, usesTyped
}

// staticDataEnd computes one past the highest byte offset any interned
// string or static array reaches, recomputed here by walking the same
// data writeData emits rather than exposed as a raw Context field, so
// the two stay in lockstep by construction.
func staticDataEnd(ctx *context.Context) uint32 {
	end := uint32(memory.HeapBase)

	for _, e := range ctx.Strings() {
		if off := e.Offset + memory.Align8(uint32(len(e.Bytes))); off > end {
			end = off
		}
	}

	for _, a := range ctx.StaticArrays() {
		dataEnd := a.Offset + memory.Align8(uint32(len(a.Elements))*8)
		if dataEnd > end {
			end = dataEnd
		}
	}

	for _, r := range ctx.RegexData() {
		if dataEnd := r.Offset + memory.Align8(uint32(len(r.Bytes))); dataEnd > end {
			end = dataEnd
		}
	}

	for _, e := range ctx.RegexEntries() {
		if dataEnd := e.SavesOffset + memory.Align8(uint32(e.Program.SavesBytes())); dataEnd > end {
			end = dataEnd
		}
	}

	return end
}

// writeGlobals declares the runtime bump-allocator cursors plus any
// user-declared module-level globals registered via Context.AddGlobal.
func writeGlobals(b *strings.Builder, ctx *context.Context, heapEnd uint32, usesTyped bool) {
	fmt.Fprintf(b, "(global $heap_cursor (mut i32) (i32.const %d))\n", heapEnd)

	if usesTyped {
		fmt.Fprintf(b, "(global $typed_cursor (mut i32) (i32.const %d))\n", memory.TypedArenaBase)
	}

	globals := ctx.Globals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g := globals[name]
		fmt.Fprintf(b, "(global $%s (mut %s) %s)\n", name, wasmType(g.Kind), g.Init)
	}
}

// writeData emits one data segment per interned string and one per
// static array literal, each array preceded by its 8-byte f64 length
// header at StaticArray.Offset-8, per AllocStaticArray's own layout.
func writeData(b *strings.Builder, ctx *context.Context) {
	type segment struct {
		offset uint32
		bytes  []byte
	}

	var segments []segment

	for _, e := range ctx.Strings() {
		segments = append(segments, segment{offset: e.Offset, bytes: e.Bytes})
	}

	for _, a := range ctx.StaticArrays() {
		buf := f64LEBytes(float64(len(a.Elements)))
		for _, el := range a.Elements {
			buf = append(buf, f64LEBytes(el)...)
		}

		segments = append(segments, segment{offset: a.Offset - 8, bytes: buf})
	}

	for _, r := range ctx.RegexData() {
		segments = append(segments, segment{offset: r.Offset, bytes: r.Bytes})
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].offset < segments[j].offset })

	for _, s := range segments {
		fmt.Fprintf(b, "(data (i32.const %d) \"%s\")\n", s.offset, watString(s.bytes))
	}
}

func f64LEBytes(f float64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))

	return buf[:]
}

// watString escapes raw bytes for a WAT string literal: printable
// ASCII passes through (quote and backslash themselves escaped), every
// other byte becomes a two-hex-digit `\XX` escape, the format
// WebAssembly's text format (and so data segments carrying UTF-16 or
// IEEE-754 bytes) requires.
func watString(bs []byte) string {
	var b strings.Builder

	for _, c := range bs {
		switch {
		case c == '"':
			b.WriteString(`\"`)
		case c == '\\':
			b.WriteString(`\\`)
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "\\%02x", c)
		}
	}

	return b.String()
}

// writePrimitives emits every runtime helper function transitively
// reachable from the primitives the generator actually used
// (memory.Closure computes the closure once generation has finished),
// covering allocator, pointer, string, typed-array, regex and method-
// library primitives uniformly, since all of them register into the
// same pkg/memory registry.
func writePrimitives(b *strings.Builder, ctx *context.Context) {
	for _, name := range memory.Closure(ctx.UsedPrimitives()) {
		prim, ok := memory.Lookup(name)
		if !ok {
			continue
		}

		b.WriteString(prim.WAT)
		b.WriteString("\n")
	}
}

// writeUserFunctions emits every compiled function body, declaring
// each body's local variables (after its parameter prefix) with the
// kind-to-WASM-type mapping every persistent slot needs.
func writeUserFunctions(b *strings.Builder, ctx *context.Context) {
	for _, cf := range ctx.CompiledFunctions() {
		fmt.Fprintf(b, "(func $%s", cf.Name)

		for _, p := range cf.Params {
			fmt.Fprintf(b, " (param $%s f64)", p)
		}

		b.WriteString(" (result f64)\n")

		for _, l := range cf.Locals {
			fmt.Fprintf(b, "  (local $%s %s)\n", l.MangledName, wasmType(l.Kind))
		}

		b.WriteString(cf.Body)
		b.WriteString("\n)\n")
	}
}

// writeRawFunctions emits every pre-rendered `(func ...)` blob
// registered via Context.AddRawFunction verbatim — pkg/regex's
// per-pattern wrapper functions, whose i32 parameters don't fit
// CompiledFunction's uniform all-f64 convention.
func writeRawFunctions(b *strings.Builder, ctx *context.Context) {
	for _, wat := range ctx.RawFunctions() {
		b.WriteString(wat)
		b.WriteString("\n")
	}
}

// writeEntry emits the program's own top-level function, `$main`,
// wrapping entryBody (which leaves its result on the stack) with no
// parameters.
func writeEntry(b *strings.Builder, entryBody string) {
	b.WriteString("(func $main (result f64)\n")
	b.WriteString(entryBody)
	b.WriteString("\n)\n")
}

// writeExports emits the fixed export surface (main, _memory, _alloc,
// optionally _resetTypedArrays) plus one export per top-level named
// function. A non-capturing top-level function's compiled WASM
// function already has the uniform (env, arg0, ...) signature; since
// it never reads its env parameter (it captures nothing), the export
// is the compiled function directly — a host caller supplies the
// leading env argument as 0.
func writeExports(b *strings.Builder, ctx *context.Context, usesTyped bool) {
	b.WriteString(`(export "main" (func $main))` + "\n")
	b.WriteString(`(export "_memory" (memory $mem))` + "\n")
	b.WriteString(`(export "_alloc" (func $alloc))` + "\n")

	if usesTyped && usesAnyOf(ctx, "reset_typed") {
		b.WriteString(`(export "_resetTypedArrays" (func $reset_typed))` + "\n")
	}

	fns := ctx.Functions()
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := fns[name]
		fmt.Fprintf(b, "(export %q (func $%s))\n", name, def.WasmName)
	}
}

func writeCustomSection(b *strings.Builder, payload []byte) {
	fmt.Fprintf(b, "(@custom \"jz:sig\" \"%s\")\n", watString(payload))
}

// wasmType maps a Local's static Kind to its WASM local type: every
// persistent source-language value (numbers and every NaN-boxed
// pointer kind alike) is stored as f64; only a compiler-synthesised
// temporary that never escapes as a source value (a loop index, a
// bitwise intermediate) is ever declared i32.
func wasmType(k value.Kind) string {
	if k == value.I32 {
		return "i32"
	}

	return "f64"
}

func usesAnyOf(ctx *context.Context, names ...string) bool {
	closure := memory.Closure(ctx.UsedPrimitives())
	set := make(map[string]bool, len(closure))
	for _, n := range closure {
		set[n] = true
	}

	for _, n := range names {
		if set[n] {
			return true
		}
	}

	return false
}
