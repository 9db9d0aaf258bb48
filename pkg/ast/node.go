// Package ast defines the shape of the input tree the generator consumes.
// The source-text parser that produces this tree is out of scope: this
// package only decodes the sexp-of-arrays JSON encoding into a form
// pkg/compiler/generator can pattern-match on, and provides the small
// set of accessors the generator needs.
package ast

import (
	"fmt"

	"github.com/segmentio/encoding/json"
)

// Node is a raw decoded AST node. The wire form is a tree of arrays
// whose first element is an operator tag; bare identifiers are plain
// strings, and the empty-first-element form `[undefined, value]`
// represents a literal. Decoding into `any` rather than a fixed struct
// mirrors that the tag alone determines how the remaining elements are
// interpreted.
type Node = any

// Parse decodes the wire JSON form of a compilation unit's AST into a
// Node tree.
func Parse(data []byte) (Node, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode ast: %w", err)
	}

	return n, nil
}

// Tag returns the operator tag of a compound node (its first array
// element) and true, or ("", false) if n is not a compound node or its
// tag is not a string (the untagged literal form has a nil/undefined
// first element and so does not have a Tag).
func Tag(n Node) (string, bool) {
	arr, ok := n.([]any)
	if !ok || len(arr) == 0 {
		return "", false
	}

	tag, ok := arr[0].(string)
	return tag, ok
}

// IsLiteral reports whether n is the untagged literal form `[undefined,
// value]` and, if so, returns the literal value.
func IsLiteral(n Node) (any, bool) {
	arr, ok := n.([]any)
	if !ok || len(arr) != 2 {
		return nil, false
	}

	if arr[0] != nil {
		return nil, false
	}

	return arr[1], true
}

// Ident reports whether n is a bare identifier (a plain JSON string that
// is not itself the two-element literal array form).
func Ident(n Node) (string, bool) {
	s, ok := n.(string)
	return s, ok
}

// Args returns the elements of a compound node after its tag. Panics if n
// is not a compound node; callers are expected to have checked Tag
// first — a malformed node is a programmer error in the dispatch table,
// not a recoverable runtime condition.
func Args(n Node) []Node {
	arr := n.([]any)
	return arr[1:]
}

// NodeAt returns the i'th element of a compound node as a Node (after the
// tag, so index 0 is the first argument).
func NodeAt(n Node, i int) Node {
	args := Args(n)
	if i < 0 || i >= len(args) {
		return nil
	}

	return args[i]
}

// Nodes interprets the i'th argument of a compound node as itself a list
// of nodes (used for statement sequences, parameter lists, array/object
// literal elements, etc).
func Nodes(n Node, i int) []Node {
	v := NodeAt(n, i)

	arr, ok := v.([]any)
	if !ok {
		return nil
	}

	return arr
}

// Number reports whether n is a JSON number literal and, if so, its
// float64 value. Number literals in the wire form are the value payload
// of an untagged literal node.
func Number(n Node) (float64, bool) {
	f, ok := n.(float64)
	return f, ok
}

// String reports whether n is a JSON string.
func String(n Node) (string, bool) {
	s, ok := n.(string)
	return s, ok
}
