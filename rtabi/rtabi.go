// Package rtabi names the external runtime procedures the core emits
// calls to but never defines itself. The emitter is responsible for resolving these
// names against the actual runtime support library.
package rtabi

// Names of the required external runtime procedures.
const (
	AllocAlign         = "alloc_align"
	MemCopy            = "__mem_copy"
	BoundsCheckError   = "__bounds_check_error"
	SliceExprError     = "__slice_expr_error"
	SubstringExprError = "__substring_expr_error"
	Assert             = "__assert"
	EnumToString       = "__enum_to_string"
	StartupRuntimeStub = "__$startup_runtime"
	TypeInfoData       = "__$type_info_data"
	TypeInfoDataMember = "__$type_info_data_member"
)

// Arity documents the fixed argument count of each instrumentation
// call site. Substring bounds checks always pass 6 arguments
// (file, line, col, low, high, max).
const (
	BoundsCheckErrorArgs   = 5 // file, line, col, index, len
	SliceExprErrorArgs     = 6 // file, line, col, low, high, max
	SubstringExprErrorArgs = 6 // file, line, col, low, high, max
	AssertArgs             = 4 // file, line, col, msg
	EnumToStringArgs       = 2 // type_info, value_i64
)
