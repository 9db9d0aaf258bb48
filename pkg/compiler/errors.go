package compiler

import "github.com/jz-lang/jzc/pkg/compiler/diag"

// Code, Error and Errorf are re-exported from pkg/compiler/diag so
// callers of this package's public API never need to import the leaf
// package directly. diag exists only to let generator/assembler raise
// the same error type without importing this package, which wires them
// together and would otherwise form a cycle.
type Code = diag.Code

const (
	CodeUnknownID     = diag.CodeUnknownID
	CodeTypeError     = diag.CodeTypeError
	CodeArrayAlias    = diag.CodeArrayAlias
	CodeConstReassign = diag.CodeConstReassign
	CodeUnknownMethod = diag.CodeUnknownMethod
	CodeParseRegex    = diag.CodeParseRegex
	CodeArity         = diag.CodeArity
)

type Error = diag.Error

var Errorf = diag.Errorf
