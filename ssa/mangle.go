package ssa

import (
	"fmt"

	"github.com/ssalang/ssacore/types"
)

// mangleHex formats a synthesized global name as "<prefix><hex>".
func mangleHex(prefix string, n uint64) string {
	return fmt.Sprintf("%s%x", prefix, n)
}

// mangleTypeName produces the mangled name recorded in
// Module.type_names for a resolved type. Struct/Union/Named types
// mangle to their declared name; everything else mangles structurally,
// mirroring how a linker-visible symbol table needs every distinct
// type to resolve to a unique, stable string.
func mangleTypeName(t types.Type) string {
	switch v := t.(type) {
	case *types.Named:
		return v.Name
	case *types.Struct:
		return v.Name
	case *types.Union:
		return v.Name
	case *types.Pointer:
		return "^" + mangleTypeName(v.Elem)
	case *types.Slice:
		return "[]" + mangleTypeName(v.Elem)
	case *types.Array:
		return fmt.Sprintf("[%d]%s", v.Len, mangleTypeName(v.Elem))
	default:
		return t.String()
	}
}
