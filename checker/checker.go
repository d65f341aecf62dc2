// Package checker declares the read-only tables the core consumes
// from the external semantic-analysis phase. The core never constructs these — it only reads through
// the interfaces here — so name resolution, type checking, and
// constant folding stay out of scope while the
// lowering code in package build still has something concrete to call.
package checker

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/types"
)

// Entity is a resolved declaration: a variable, constant, procedure,
// type name, or label. The core treats it as an opaque, comparable key
// (Module.values is keyed by Entity) plus a handful of read accessors
// lowering needs directly.
type Entity interface {
	Name() string
	Type() types.Type
	// Mangled is the external, package-qualified symbol name used for
	// Module.members and for Global/Proc linkage.
	Mangled() string
}

// Position is a source location, carried through to the runtime
// error-reporting calls emitted by bounds-check/assert/panic
// instrumentation and to internal-compiler-error messages.
type Position struct {
	File string
	Line int32
	Col  int32
}

// Mode classifies how an expression's value is known, mirroring the
// "mode" field of the checker's (type, mode, exact_value?) tuple.
type Mode int

const (
	ModeInvalid  Mode = iota
	ModeValue         // ordinary runtime value
	ModeVariable      // addressable l-value
	ModeConstant      // exact_value is populated; lowers directly to ssa.Const
	ModeType          // the expression names a type, not a value
	ModeBuiltin       // the expression names a builtin procedure
)

// ExactKind tags the variant held by an ExactValue.
type ExactKind int

const (
	ExactInvalid ExactKind = iota
	ExactBool
	ExactInt
	ExactFloat
	ExactString
	ExactCompound // const-foldable composite literal
	ExactNil      // the untyped nil literal
)

// ExactValue is the checker's folded constant, attached to constant
// expressions so build.BuildExpr can short-circuit straight to an
// ssa.Const.
type ExactValue struct {
	Kind  ExactKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Elems []ExactValue // ExactCompound
}

// ExprInfo is the checker's per-node annotation: resolved type, mode,
// and (if constant) exact value.
type ExprInfo struct {
	Type  types.Type
	Mode  Mode
	Exact *ExactValue
}

// Scope is the lexical scope an AST node was resolved in. The core
// only needs it to compute scope depth deltas for defer bookkeeping
// — it never itself resolves names through a Scope.
type Scope interface {
	Depth() int
	Parent() Scope
}

// File is a parsed source file, used only for debug-info file records.
type File struct {
	Name string
	Path string
}

// TypeInfoIndex is the dense index into the global type-info array the
// checker builds; -1 means "not present".
type TypeInfoIndex int

// Tables is the full read-only interface the core is handed once per
// compilation unit. An external checker package implements it; the
// core (package build) only ever calls these accessors.
type Tables interface {
	// Definitions resolves a declaration-site AST node to its Entity.
	Definitions(n ast.Node) (Entity, bool)
	// Uses resolves a use-site AST node (identifier, selector) to the
	// Entity it refers to.
	Uses(n ast.Node) (Entity, bool)
	// TypeOf returns the resolved type/mode/exact-value triple for an
	// expression node.
	TypeOf(n ast.Expr) ExprInfo
	// ScopeOf returns the lexical scope a statement or block opened.
	ScopeOf(n ast.Node) Scope
	// TypeInfoIndex returns the dense type_info_data index for t.
	TypeInfoIndex(t types.Type) (TypeInfoIndex, bool)
	// File returns the parsed file record for a file name, used for
	// debug-info emission.
	File(name string) (File, bool)
	// Target returns the pointer-width/endianness facts instruction
	// typing and GEP math are computed against.
	Target() *types.TargetInfo
}
