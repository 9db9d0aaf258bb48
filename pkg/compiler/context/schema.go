package context

import (
	"unicode/utf16"

	"github.com/jz-lang/jzc/pkg/memory"
)

// InternString registers s in the shared string table, reusing an
// existing entry when s has already been interned: two literals with the
// same text always share an id. Every string, short or long, is given a
// heap entry here; no short-string packing is applied to any literal.
func (c *Context) InternString(s string) StringEntry {
	if e, ok := c.shared.Strings[s]; ok {
		return e
	}

	units := utf16.Encode([]rune(s))
	nbytes := memory.Align8(uint32(len(units) * 2))
	offset := c.allocHeap(nbytes)

	bytes := make([]byte, 0, len(units)*2)
	for _, u := range units {
		bytes = append(bytes, byte(u), byte(u>>8))
	}

	e := StringEntry{ID: len(c.shared.Strings), Offset: offset, Length: len(units), Bytes: bytes}
	c.shared.Strings[s] = e

	return e
}

// Strings returns every interned string, for the assembler's data-segment
// pass.
func (c *Context) Strings() map[string]StringEntry {
	return c.shared.Strings
}

// AllocStaticArray reserves a data-segment slot for a compile-time
// constant array literal, including its 8-byte length header, and
// records its layout for the assembler.
func (c *Context) AllocStaticArray(elements []float64) StaticArray {
	nbytes := memory.Align8(uint32(len(elements)) * 8)
	offset := c.allocHeap(8 + nbytes) // 8-byte header precedes the data
	arr := StaticArray{Offset: offset + 8, Elements: elements}
	c.shared.StaticArrays = append(c.shared.StaticArrays, arr)

	return arr
}

// StaticArrays returns every constant array literal planned for a data
// segment.
func (c *Context) StaticArrays() []StaticArray {
	return c.shared.StaticArrays
}

// NewObjectSchema registers a new schema for the given ordered property
// names, or returns the id of an existing schema with the identical
// property list. Ids are allocated monotonically and an existing entry
// is never mutated.
func (c *Context) NewObjectSchema(props []string) int {
	for id, existing := range c.shared.ObjectSchemas {
		if id == 0 {
			continue // id 0 is reserved for "plain array"
		}

		if stringsEqual(existing, props) {
			return id
		}
	}

	id := c.shared.nextSchemaID
	c.shared.nextSchemaID++
	c.shared.ObjectSchemas[id] = props

	return id
}

// SchemaProperties returns the ordered property list for a schema id.
func (c *Context) SchemaProperties(id int) ([]string, bool) {
	props, ok := c.shared.ObjectSchemas[id]
	return props, ok
}

// Schemas returns the full schema registry.
func (c *Context) Schemas() map[int][]string {
	return c.shared.ObjectSchemas
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
