// Package context implements the mutable state threaded through one
// compilation: scoped locals, globals, the function table, the schema
// registry, string/object interning, the allocator cursor bookkeeping,
// and the set of runtime features a compilation has used.
package context

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/jz-lang/jzc/pkg/compiler/scope"
	"github.com/jz-lang/jzc/pkg/value"
)

// LocalKind is the WASM-level type a local slot was declared with.
type LocalKind = value.Kind

// Local describes one scoped variable: its WASM local index, its static
// kind, and the depth-mangled name actually emitted into WAT
type Local struct {
	Slot        int
	Kind        LocalKind
	MangledName string
	Const       bool
}

// Global describes a module-level global.
type Global struct {
	Kind LocalKind
	Init string
}

// FunctionDef records a top-level user function's signature and body:
// WasmName is the mangled name of the compiled WASM function
// implementing it (suitable for the assembler's export/table wiring),
// present for every top-level function declaration regardless of
// whether it captures anything. Closure is non-nil only once the
// function has been lifted into the function table because it does
// capture outer state.
type FunctionDef struct {
	Name     string
	WasmName string
	Params   []string
	Body     any // ast.Node; kept as `any` here to avoid an import cycle with pkg/ast in trivial accessors
	Closure  *ClosureDescriptor
}

// ClosureDescriptor records how a lifted function's environment is shaped:
// the environment type id it reads/writes through and the ordered list of
// captured field names
type ClosureDescriptor struct {
	EnvTypeID int
	Fields    []string
	TableIdx  int
}

// EnvType is one synthesised environment struct shape: an ordered list of
// field names, each with its static kind.
type EnvType struct {
	Fields []EnvField
}

// EnvField is one field of an environment struct.
type EnvField struct {
	Name string
	Kind LocalKind
}

// StringEntry is one interned string's bookkeeping. Bytes is that one
// string's own encoded UTF-16 data; the assembler emits each interned
// string as its own `(data (i32.const Offset) ...)` segment rather than
// one combined blob, so strings need not be allocated in encoding order.
type StringEntry struct {
	ID     int
	Offset uint32
	Length int
	Bytes  []byte
}

// Context is the per-compilation-unit mutable state. A fresh Context is
// created once per call to compiler.Compile; Fork creates a child
// context for nested function generation sharing interning, schemas,
// the function table, globals and closure bookkeeping with the parent,
// but with its own locals, declarations and counters.
type Context struct {
	// Interner is shared across the whole compilation (including every
	// Fork'd child) so identifier ids are consistent between scope
	// analysis and generation.
	Interner *scope.Interner

	parent *Context

	// locals: scoped name -> Local, used for name resolution only; an
	// entry is removed on PopScope even though its WASM local slot
	// remains declared in the function header.
	locals map[string]Local
	// allLocals accumulates every Local ever declared in this function
	// (scoped or temporary), in slot order, for the function-header
	// local declaration list the assembler emits.
	allLocals []Local
	// scopeStack holds one scopeFrame per open block scope; Depth() is
	// len(scopeStack).
	scopeStack []scopeFrame
	nextSlot   int

	// Shared with the root context and every Fork'd child.
	shared *sharedState

	uniqueID *int

	// envParam is the mangled local name holding this function's closure
	// environment array-pointer, set by SetEnv once per Fork'd context
	// that generates a lifted function's body; empty for a function that
	// captures nothing and for the top-level program.
	envParam string
	// envFields maps a captured variable's source name to its field
	// index and kind within envParam, populated alongside envParam.
	envFields map[string]envSlot

	// loops is a stack of enclosing loop/switch constructs, innermost
	// last, consulted by break/continue statement generation.
	loops []loopFrame

	// selfName/selfWasmName identify a named function declaration's own
	// name within its own body, set once per Fork'd context generating
	// such a body. A call whose callee is exactly selfName lowers to a
	// direct recursive call to selfWasmName rather than going through
	// the closure/invokeN indirection — sidestepping the self-reference-
	// inside-its-own-captured-environment problem entirely for the
	// common case of a function calling itself by name.
	selfName     string
	selfWasmName string
}

// SetSelf records that this (necessarily Fork'd) context generates a
// named function's own body, so a recursive call by name can be
// resolved directly.
func (c *Context) SetSelf(sourceName, wasmName string) {
	c.selfName = sourceName
	c.selfWasmName = wasmName
}

// ResolveSelf reports whether name is this context's own enclosing
// function, for direct-recursion call lowering.
func (c *Context) ResolveSelf(name string) (wasmName string, ok bool) {
	if c.selfName != "" && c.selfName == name {
		return c.selfWasmName, true
	}

	return "", false
}

// loopFrame names the WAT block/loop labels an enclosing `for`/`while`/
// `switch` generated, so a nested break or continue can branch to them.
// ContinueLabel is empty for a switch frame, since `continue` does not
// target a switch.
type loopFrame struct {
	BreakLabel    string
	ContinueLabel string
}

// PushLoop records the break/continue target labels for a loop or switch
// construct about to generate its body.
func (c *Context) PushLoop(breakLabel, continueLabel string) {
	c.loops = append(c.loops, loopFrame{BreakLabel: breakLabel, ContinueLabel: continueLabel})
}

// PopLoop discards the innermost loop frame once its body has been
// generated.
func (c *Context) PopLoop() {
	if n := len(c.loops); n > 0 {
		c.loops = c.loops[:n-1]
	}
}

// BreakTarget returns the label a bare `break` should branch to: the
// innermost enclosing loop or switch, whichever is nearer.
func (c *Context) BreakTarget() (string, bool) {
	if n := len(c.loops); n > 0 {
		return c.loops[n-1].BreakLabel, true
	}

	return "", false
}

// ContinueTarget returns the label a bare `continue` should branch to:
// the nearest enclosing loop, skipping over any intervening switch
// frame (a switch has no continue target of its own).
func (c *Context) ContinueTarget() (string, bool) {
	for i := len(c.loops) - 1; i >= 0; i-- {
		if c.loops[i].ContinueLabel != "" {
			return c.loops[i].ContinueLabel, true
		}
	}

	return "", false
}

// envSlot records one captured variable's position and kind within the
// environment array a lifted function reads through.
type envSlot struct {
	Index int
	Kind  LocalKind
}

// scopeFrame records which mangled names were declared in one pushed
// scope, so popScope can remove exactly those bindings.
type scopeFrame struct {
	names []string
}

// sharedState is the subset of the compilation context genuinely shared
// between a function and its nested closures
type sharedState struct {
	Globals       map[string]Global
	Functions     map[string]*FunctionDef
	EnvTypes      []EnvType
	Strings       map[string]StringEntry
	ObjectSchemas map[int][]string
	nextSchemaID  int
	FuncTable     []string // ordered list of function names placed in the indirect-call table
	Used          map[string]bool
	Warnings      []Warning
	StaticArrays  []StaticArray
	heapCursor    uint32
	Compiled      []CompiledFunction
	Regexes       map[string]*RegexEntry
	RegexList     []*RegexEntry
	RegexData     []RegexDataSegment
	RawFunctions  []string
}

// CompiledFunction is one fully generated WASM function: the body text
// the generator produced plus everything the assembler needs to emit a
// `(func ...)` form around it. Params is the complete ordered parameter
// list (the environment parameter first, if this function is lifted);
// every parameter is f64, per the uniform calling convention invokeN
// relies on for indirect calls. Locals lists every additional local
// declared in the body, in WASM local-index order (continuing on from
// the parameter indices).
type CompiledFunction struct {
	Name   string
	Params []string
	Locals []Local
	Body   string
}

// Warning is a non-fatal diagnostic,
// using the same Code enumeration as compiler.Error.
type Warning struct {
	Code    string
	Message string
}

// StaticArray is a compile-time-constant array literal planned for a data
// segment
type StaticArray struct {
	Offset   uint32
	Elements []float64
}

// New constructs a fresh root compilation context.
func New() *Context {
	uid := 0
	return &Context{
		Interner: scope.NewInterner(),
		locals:   map[string]Local{},
		nextSlot: 0,
		shared: &sharedState{
			Globals:       map[string]Global{},
			Functions:     map[string]*FunctionDef{},
			Strings:       map[string]StringEntry{},
			ObjectSchemas: map[int][]string{0: nil}, // schema id 0 reserved for "plain array"
			nextSchemaID:  1,
			Used:          map[string]bool{},
			heapCursor:    1 << 16, // the same value as memory.HeapBase, written as a literal
		},
		uniqueID: &uid,
	}
}

// Fork creates a child context for generating a nested function body. It
// shares every field in sharedState with its parent (and transitively
// the root), but starts with empty locals/scopes/slot-counter of its
// own.
func (c *Context) Fork() *Context {
	return &Context{
		Interner: c.Interner,
		parent:   c,
		locals:   map[string]Local{},
		nextSlot: 0,
		shared:   c.shared,
		uniqueID: c.uniqueID,
	}
}

// Use marks a runtime primitive as referenced by this compilation, so the
// assembler includes it (and its transitive dependencies) in the emitted
// module. Implements value.Features.
func (c *Context) Use(name string) {
	c.shared.Used[name] = true
}

// UsedPrimitives returns the set of directly-used primitive names, in no
// particular order; pkg/memory.Closure computes the transitive closure.
func (c *Context) UsedPrimitives() []string {
	names := make([]string, 0, len(c.shared.Used))
	for name := range c.shared.Used {
		names = append(names, name)
	}

	return names
}

// Fresh returns a fresh, compilation-unique name built from prefix.
// Internal temporaries prefixed with `_` bypass scoping entirely.
func (c *Context) Fresh(prefix string) string {
	*c.uniqueID++
	return fmt.Sprintf("_%s%d", prefix, *c.uniqueID)
}

// Depth returns the current scope nesting depth (0 at function top
// level), used for name mangling: "a variable declared at depth d>0 is
// stored as name_s{d}"
func (c *Context) Depth() int {
	return len(c.scopeStack)
}

// PushScope opens a new block scope.
func (c *Context) PushScope() {
	c.scopeStack = append(c.scopeStack, scopeFrame{})
}

// PopScope closes the innermost block scope, removing the local
// bindings it introduced. Their WASM local slots remain declared in the
// function header — only the name resolution is undone.
func (c *Context) PopScope() {
	n := len(c.scopeStack)
	if n == 0 {
		return
	}

	frame := c.scopeStack[n-1]
	for _, name := range frame.names {
		delete(c.locals, name)
	}

	c.scopeStack = c.scopeStack[:n-1]
}

// mangle produces the depth-suffixed storage name for a variable
// declared at the current depth.
func (c *Context) mangle(name string) string {
	d := c.Depth()
	if d == 0 {
		return name
	}

	return fmt.Sprintf("%s_s%d", name, d)
}

// DeclareVar introduces a new local in the current scope with the given
// kind, returning its Local record. If constVal is true, reassignment to
// this name is a compile-time error
func (c *Context) DeclareVar(name string, kind LocalKind, constVal bool) Local {
	mangled := c.mangle(name)
	local := Local{Slot: c.nextSlot, Kind: kind, MangledName: mangled, Const: constVal}
	c.nextSlot++
	c.locals[name+suffixFor(c.Depth())] = local
	c.allLocals = append(c.allLocals, local)

	if n := len(c.scopeStack); n > 0 {
		c.scopeStack[n-1].names = append(c.scopeStack[n-1].names, name+suffixFor(c.Depth()))
	}

	return local
}

// NewTemp declares a fresh, unscoped local of the given kind — used by
// the method libraries (pkg/compiler/natives) and the regex compiler for
// loop counters, accumulators and other temporaries that don't belong to
// any source-level binding and so bypass scoping entirely.
func (c *Context) NewTemp(kind LocalKind) Local {
	local := Local{Slot: c.nextSlot, Kind: kind, MangledName: c.Fresh("t")}
	c.nextSlot++
	c.allLocals = append(c.allLocals, local)

	return local
}

// Locals returns every local (scoped or temporary) ever declared in this
// function context, in slot order, for the function-header local
// declaration list.
func (c *Context) Locals() []Local {
	return c.allLocals
}

func suffixFor(depth int) string {
	return fmt.Sprintf("@%d", depth)
}

// GetLocal resolves name to its Local record, searching from the
// innermost scope outward. The bool result is false if name is not a
// local in this context — the caller should then fall back to a
// captured-environment lookup, then globals, then reserved constants.
func (c *Context) GetLocal(name string) (Local, bool) {
	for d := c.Depth(); d >= 0; d-- {
		if l, ok := c.locals[name+suffixFor(d)]; ok {
			return l, true
		}
	}

	return Local{}, false
}

// AddGlobal registers a module-level global.
func (c *Context) AddGlobal(name string, kind LocalKind, init string) {
	c.shared.Globals[name] = Global{Kind: kind, Init: init}
}

// GetGlobal looks up a previously registered global.
func (c *Context) GetGlobal(name string) (Global, bool) {
	g, ok := c.shared.Globals[name]
	return g, ok
}

// Globals returns every registered module-level global, for the
// assembler's globals-section pass.
func (c *Context) Globals() map[string]Global {
	return c.shared.Globals
}

// AddFunction registers a user function definition.
func (c *Context) AddFunction(def *FunctionDef) {
	c.shared.Functions[def.Name] = def
}

// GetFunction looks up a previously registered function.
func (c *Context) GetFunction(name string) (*FunctionDef, bool) {
	f, ok := c.shared.Functions[name]
	return f, ok
}

// Functions returns every registered top-level function definition,
// keyed by source name, for the assembler's export pass.
func (c *Context) Functions() map[string]*FunctionDef {
	return c.shared.Functions
}

// RegisterEnvType allocates a new closure-environment shape and returns
// its id. The number of distinct ids allocated equals the number of
// lifted closures that do not reuse an outer environment.
func (c *Context) RegisterEnvType(fields []EnvField) int {
	id := len(c.shared.EnvTypes)
	c.shared.EnvTypes = append(c.shared.EnvTypes, EnvType{Fields: fields})

	return id
}

// EnvTypes returns every registered environment shape, in allocation
// order.
func (c *Context) EnvTypes() []EnvType {
	return c.shared.EnvTypes
}

// AddToFuncTable appends a function name to the indirect-call table and
// returns its index, used for first-class closure values
func (c *Context) AddToFuncTable(name string) int {
	idx := len(c.shared.FuncTable)
	c.shared.FuncTable = append(c.shared.FuncTable, name)

	return idx
}

// FuncTable returns the indirect-call table in index order.
func (c *Context) FuncTable() []string {
	return c.shared.FuncTable
}

// Warn records a non-fatal diagnostic
func (c *Context) Warn(code, message string) {
	c.shared.Warnings = append(c.shared.Warnings, Warning{Code: code, Message: message})
}

// Warnings returns every warning recorded during this compilation.
func (c *Context) Warnings() []Warning {
	return c.shared.Warnings
}

// allocHeap reserves nbytes (already tier-rounded and 8-byte aligned by
// the caller) from the shared bump-heap cursor used to lay out static
// data segments at compile time, and returns the offset reserved.
func (c *Context) allocHeap(nbytes uint32) uint32 {
	off := c.shared.heapCursor
	c.shared.heapCursor += nbytes

	return off
}

// bitsetHas is a tiny helper used by generator code that holds a
// *bitset.BitSet of interned ids and needs a plain bool test without
// importing bits-and-blooms/bitset itself everywhere.
func bitsetHas(set *bitset.BitSet, id uint) bool {
	return set != nil && set.Test(id)
}

// BitsetHas exports bitsetHas for sibling packages (pkg/compiler/generator)
// that need to test scope.Analysis/HoistedVars results against a context's
// Interner ids.
func BitsetHas(set *bitset.BitSet, id uint) bool {
	return bitsetHas(set, id)
}

// SetEnv records that this (necessarily Fork'd) context generates the
// body of a lifted function: envLocal is the mangled name of its
// environment parameter, and fields is the ordered list of variables the
// environment array carries, matching the ClosureDescriptor that
// produced it.
func (c *Context) SetEnv(envLocal string, fields []EnvField) {
	c.envParam = envLocal
	c.envFields = make(map[string]envSlot, len(fields))

	for i, f := range fields {
		c.envFields[f.Name] = envSlot{Index: i, Kind: f.Kind}
	}
}

// EnvParam returns the mangled name of this context's own environment
// parameter (set by SetEnv for every Fork'd function body, whether or not
// it actually captures anything — every lifted function accepts the
// parameter uniformly so invokeN's call_indirect type is the same for
// every table entry), for forwarding to a direct recursive call.
func (c *Context) EnvParam() string {
	return c.envParam
}

// ResolveCapture looks name up in the environment this context's
// function was lifted with, if any. GetLocal should always be tried
// first: a parameter or a block-local shadows an outer capture of the
// same name.
func (c *Context) ResolveCapture(name string) (envLocal string, index int, kind LocalKind, ok bool) {
	if c.envFields == nil {
		return "", 0, 0, false
	}

	slot, found := c.envFields[name]
	if !found {
		return "", 0, 0, false
	}

	return c.envParam, slot.Index, slot.Kind, true
}

// AddCompiled records a fully generated function, for the assembler's
// function-section pass.
func (c *Context) AddCompiled(cf CompiledFunction) {
	c.shared.Compiled = append(c.shared.Compiled, cf)
}

// CompiledFunctions returns every function generated so far, in
// generation order.
func (c *Context) CompiledFunctions() []CompiledFunction {
	return c.shared.Compiled
}
