package natives

import "github.com/jz-lang/jzc/pkg/value"

// arrayMethods maps a method name called on an Array/RefArray receiver to
// the runtime primitive implementing it. The generator looks a call's
// method name up here, emits ctx.Use(primitive) so the assembler includes
// it, and lowers the call to `(call $<primitive> <receiver> <args...>)`.
var arrayMethods = map[string]string{
	"push":      "arr_push",
	"pop":       "arr_pop",
	"forEach":   "arr_foreach",
	"map":       "arr_map",
	"filter":    "arr_filter",
	"reduce":    "arr_reduce",
	"find":      "arr_find",
	"findIndex": "arr_find_index",
	"indexOf":   "arr_index_of",
	"includes":  "arr_includes",
	"every":     "arr_every",
	"some":      "arr_some",
	"slice":     "arr_slice",
	"reverse":   "arr_reverse",
	"concat":    "arr_concat",
	"fill":      "arr_fill",
	"join":      "arr_join",
}

// stringMethods maps a method name called on a String receiver.
var stringMethods = map[string]string{
	"charCodeAt":  "str_char_code_at",
	"slice":       "str_slice",
	"substring":   "str_substring",
	"substr":      "str_substr",
	"indexOf":     "str_index_of",
	"includes":    "str_includes",
	"startsWith":  "str_starts_with",
	"endsWith":    "str_ends_with",
	"toLowerCase": "str_to_lower",
	"toUpperCase": "str_to_upper",
	"trim":        "str_trim",
	"trimStart":   "str_trim_start",
	"trimEnd":     "str_trim_end",
	"repeat":      "str_repeat",
	"padStart":    "str_pad_start",
	"padEnd":      "str_pad_end",
	"split":       "str_split",
	"replace":     "str_replace",
	"search":      "str_search_plain",
	"match":       "str_match_plain",
}

// typedArrayMethods maps a method name to the primitive family stem;
// the caller appends "_" + elemType since these primitives are
// generated once per element stride.
var typedArrayMethods = map[string]string{
	"forEach": "typed_foreach",
	"map":     "typed_map",
	"reduce":  "typed_reduce",
	"fill":    "typed_fill",
	"slice":   "typed_slice",
}

// mapMethods and setMethods map a method name called on a Map/Set
// receiver (a value.Object) to its primitive; Lookup picks setMethods
// only when its collectionKind argument is "set".
var mapMethods = map[string]string{
	"has":    "map_has",
	"get":    "map_get",
	"set":    "map_set",
	"delete": "map_delete",
	"clear":  "map_clear",
}

var setMethods = map[string]string{
	"has":    "set_has",
	"add":    "set_add",
	"delete": "set_delete",
	"clear":  "map_clear",
}

// Lookup resolves a method call against its receiver's static kind
// (and, for typed arrays, element type) to the runtime primitive name
// that implements it. collectionKind distinguishes a plain Object used
// as a Map from one used as a Set; pass "" for arrays/strings/typed
// arrays.
func Lookup(kind value.Kind, elemType string, collectionKind string, method string) (string, bool) {
	switch kind {
	case value.Array, value.RefArray:
		name, ok := arrayMethods[method]
		return name, ok
	case value.String:
		name, ok := stringMethods[method]
		return name, ok
	case value.TypedArray:
		stem, ok := typedArrayMethods[method]
		if !ok {
			return "", false
		}
		return stem + "_" + elemType, true
	case value.Object:
		if collectionKind == "set" {
			name, ok := setMethods[method]
			return name, ok
		}
		name, ok := mapMethods[method]
		return name, ok
	default:
		return "", false
	}
}
