// Package memory implements the NaN-boxing pointer representation and
// the bump-allocated heap/typed-array arena. It is split from
// pkg/value: value.Kind is a compile-time discipline used for
// instruction selection, while this package is concerned with the
// runtime bit layout those instructions ultimately produce.
package memory

// PtrType enumerates the four-bit kind tag packed into the high bits of a
// NaN-boxed pointer's payload
type PtrType uint8

const (
	// PtrArray tags a plain homogeneous or mixed-kind array.
	PtrArray PtrType = iota
	// PtrString tags an interned or heap string.
	PtrString
	// PtrObject tags a fixed-schema object.
	PtrObject
	// PtrClosure tags a boxed first-class function value.
	PtrClosure
	// PtrTypedArray tags a typed-array arena allocation.
	PtrTypedArray
)

// Pointer bit layout: a quiet NaN with a non-zero payload is interpreted
// as a pointer; the high 4 payload bits select PtrType, the next 16 are
// the auxiliary field, and the low 31 are the heap offset. A plain
// (non-pointer) quiet NaN has a zero payload and represents the
// language's own NaN value.
const (
	// QuietNaNBits is the canonical bit pattern of a payload-free quiet
	// NaN, used to represent the source language's NaN value.
	QuietNaNBits uint64 = 0x7ff8000000000000

	typeShift   = 47 // offset(31) + aux(16)
	typeMask    = 0xf
	auxShift    = 31
	auxMask     = 0xffff
	offsetMask  = 0x7fffffff
	ssoBitInAux = 1 << 15 // top bit of aux signals a short-string-optimised string
)

// Typed-array specific layout: [type:4][elemType:3][len:22][offset:22].
const (
	typedElemShift  = 44
	typedElemMask   = 0x7
	typedLenShift   = 22
	typedLenMask    = 0x3fffff
	typedOffsetMask = 0x3fffff
)

// MkPtr composes the NaN-box bit pattern for an ordinary (non-typed-array)
// pointer — the Go-side twin of the $mkptr runtime primitive. It is used
// directly by the assembler when laying out constant data (interned
// strings, constant arrays) whose pointer value is known at compile time
// and can be written straight into a global initialiser instead of
// computed at runtime.
func MkPtr(t PtrType, aux uint32, offset uint32) uint64 {
	payload := (uint64(t)&typeMask)<<typeShift | (uint64(aux)&auxMask)<<auxShift | uint64(offset)&offsetMask
	return QuietNaNBits | payload
}

// MkTypedPtr composes the NaN-box bit pattern for a TypedArray pointer.
func MkTypedPtr(elemType uint8, length uint32, offset uint32) uint64 {
	payload := (uint64(PtrTypedArray)&typeMask)<<typeShift |
		(uint64(elemType)&typedElemMask)<<typedElemShift |
		(uint64(length)&typedLenMask)<<typedLenShift |
		uint64(offset)&typedOffsetMask
	return QuietNaNBits | payload
}

// IsPointer reports whether a raw bit pattern is a NaN-boxed pointer (a
// quiet NaN with a non-zero payload) as opposed to an ordinary number or
// the language's own NaN.
func IsPointer(bits uint64) bool {
	return bits&QuietNaNBits == QuietNaNBits && bits&^QuietNaNBits != 0
}

// PtrTypeOf extracts the four-bit type tag from a pointer's bit pattern.
func PtrTypeOf(bits uint64) PtrType {
	return PtrType((bits >> typeShift) & typeMask)
}

// PtrAuxOf extracts the sixteen-bit auxiliary field.
func PtrAuxOf(bits uint64) uint32 {
	return uint32((bits >> auxShift) & auxMask)
}

// PtrOffsetOf extracts the thirty-one-bit heap offset.
func PtrOffsetOf(bits uint64) uint32 {
	return uint32(bits & offsetMask)
}

// SSOCapacity is the number of 7-bit characters that fit in a short-string-
// optimised pointer's auxiliary field alongside the sso bit.
const SSOCapacity = 6

// IsSSOAux reports whether an aux field has the short-string-optimisation
// bit set.
func IsSSOAux(aux uint32) bool {
	return aux&ssoBitInAux != 0
}
