package assembler

import (
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/jz-lang/jzc/pkg/value"
)

// FunctionSignature describes one exported function's interop shape:
// which parameter positions carry array pointers and whether its
// return value does, so a host embedder knows which f64s need
// NaN-box-aware handling rather than plain numeric treatment.
type FunctionSignature struct {
	ArrayParams  []int `json:"arrayParams"`
	ReturnsArray bool  `json:"returnsArray"`
}

// ModuleSignature is the jz:sig custom section payload: per-export
// parameter/return shape plus the full object-schema registry, so a
// host can decode an exported object pointer's fields by name.
type ModuleSignature struct {
	Functions map[string]FunctionSignature `json:"functions"`
	Schemas   map[string][]string          `json:"schemas"`
}

// Signature builds the jz:sig payload for p's compilation: one entry
// per exported function (main plus every top-level named function)
// and the complete schema registry. A top-level function's own
// parameters are plain f64 locals with no static per-parameter kind
// tracked across call boundaries (the source language has no
// parameter type annotations), so arrayParams is conservatively empty
// for every user function; only main's returnsArray is filled in,
// since the top-level program's final expression's kind is known
// directly from generation.
func Signature(p Program) ([]byte, error) {
	sig := ModuleSignature{
		Functions: map[string]FunctionSignature{},
		Schemas:   map[string][]string{},
	}

	sig.Functions["main"] = FunctionSignature{
		ArrayParams:  []int{},
		ReturnsArray: p.EntryKind == value.Array || p.EntryKind == value.RefArray,
	}

	for name := range p.Ctx.Functions() {
		sig.Functions[name] = FunctionSignature{ArrayParams: []int{}}
	}

	for id, props := range p.Ctx.Schemas() {
		if id == 0 {
			continue // reserved for "plain array", not a real object schema
		}

		sig.Schemas[strconv.Itoa(id)] = props
	}

	return json.Marshal(sig)
}
