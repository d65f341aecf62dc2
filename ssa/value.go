// Package ssa implements the tagged-variant value/instruction
// model, the Module/Proc/Block data structures, and the CFG
// simplification and dominance passes that run once a procedure's body
// has been emitted by package build.
//
// Modeled on the historical SSA backend in cmd/internal/gc/ssa.go and
// cmd/internal/ssa (an early form of the real Go compiler's SSA
// package): this file plays the role ssa.Value played there, but
// models the closed tagged-variant set as a Go interface with one
// implementor per variant, the way golang.org/x/tools/go/ssa models
// Value/Instruction.
package ssa

import "github.com/ssalang/ssacore/types"

// Value is the root tagged variant: every SSA-level datum —
// constants, globals, parameters, and every instruction kind — fans
// out from this one interface so operand lists and Phi edges can hold
// a uniform reference type.
type Value interface {
	// Type projects the value's static type.
	Type() types.Type
	// Index is the register number assigned during finalization;
	// -1 before that.
	Index() int
	// SetIndexUnset resets the value to the not-yet-numbered state;
	// package build calls it on every value it constructs directly.
	SetIndexUnset()
	setIndex(int)
	valueTag()
}

type valueBase struct {
	idx int
}

func (v *valueBase) Index() int     { return v.idx }
func (v *valueBase) setIndex(i int) { v.idx = i }
func (*valueBase) valueTag()        {}

// SetIndexUnset resets a freshly constructed value to the
// not-yet-numbered state. Package build calls this on every instruction it
// constructs, since ssa's zero value for idx (0) would otherwise read
// as a valid register number before numberRegisters runs.
func (v *valueBase) SetIndexUnset() { v.idx = -1 }

// Referrable is implemented by the value kinds that own a growable
// referrers list populated during post-processing: Global, Param, a
// nested Proc, and the Local instruction.
type Referrable interface {
	Value
	Referrers() *[]Instruction
}

// Const is a compile-time literal carrying an exact numeric/string/
// bool/compound value folded by the external checker.
type Const struct {
	valueBase
	Typ   types.Type
	Exact ExactValue
}

func (c *Const) Type() types.Type { return c.Typ }

// ExactValue mirrors checker.ExactValue; duplicated here (rather than
// imported) so package ssa has no dependency on package checker — only
// package build, which sits between the two, imports both.
type ExactValue struct {
	Kind  ExactKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Elems []ExactValue
}

type ExactKind int

const (
	ExactInvalid ExactKind = iota
	ExactBool
	ExactInt
	ExactFloat
	ExactString
	ExactCompound
	ExactNil
)

// ConstSlice is a slice header over a synthesized backing global
// array — the representation of a const array/slice literal once it
// has been hoisted to module scope.
type ConstSlice struct {
	valueBase
	Typ     types.Type
	Backing *Global
	Len     int64
}

func (c *ConstSlice) Type() types.Type { return c.Typ }

// Nil is a typed null.
type Nil struct {
	valueBase
	Typ types.Type
}

func (n *Nil) Type() types.Type { return n.Typ }

// TypeName is a named-type reference value, produced when BuildExpr
// lowers a type expression in value position.
type TypeName struct {
	valueBase
	Name string
	Typ  types.Type
}

func (t *TypeName) Type() types.Type { return t.Typ }

// GlobalFlags are the linkage/storage flags a Global carries.
type GlobalFlags uint8

const (
	GlobalPrivate GlobalFlags = 1 << iota
	GlobalConstant
	GlobalThreadLocal
)

// Global is a module-scope entity: a package-level variable, a
// synthesized string/const-slice backing array, or (via Module.members)
// any other externally addressable symbol.
type Global struct {
	valueBase
	Name      string
	Typ       types.Type // pointer to the entity type
	Init      Value
	Flags     GlobalFlags
	referrers []Instruction
}

func (g *Global) Type() types.Type          { return g.Typ }
func (g *Global) Referrers() *[]Instruction { return &g.referrers }

// Param is a procedure parameter value, read via a Local+Store at
// procedure entry.
type Param struct {
	valueBase
	Parent    *Proc
	Name      string
	Typ       types.Type
	referrers []Instruction
}

func (p *Param) Type() types.Type          { return p.Typ }
func (p *Param) Referrers() *[]Instruction { return &p.referrers }
