package ssa

import "github.com/ssalang/ssacore/types"

// Instruction is any Value that lives in a Block's instruction list.
type Instruction interface {
	Value
	Block() *Block
	setBlock(*Block)
}

type instrBase struct {
	valueBase
	blk *Block
}

func (i *instrBase) Block() *Block     { return i.blk }
func (i *instrBase) setBlock(b *Block) { i.blk = b }

// voidType is returned by instructions with no result value (Store,
// ZeroInit, Br, Ret, Unreachable, NoOp, StartupRuntime, Comment).
var voidType types.Type = types.Void{}

// ---- Required instruction kinds ----

// Comment is a no-op annotation instruction; never has operands.
type Comment struct {
	instrBase
	Text string
}

func (*Comment) Type() types.Type { return voidType }

// Local declares a stack slot; always lives in Proc.DeclBlock. Its type is a pointer to the declared type. Local is
// one of the four referrer-owning value kinds.
type Local struct {
	instrBase
	Name      string
	Typ       *types.Pointer
	referrers []Instruction
}

func (l *Local) Type() types.Type          { return l.Typ }
func (l *Local) Referrers() *[]Instruction { return &l.referrers }

// ZeroInit zero-initializes the storage at Addr.
type ZeroInit struct {
	instrBase
	Addr Value
}

func (*ZeroInit) Type() types.Type { return voidType }

// Store writes Val to the storage at Addr.
type Store struct {
	instrBase
	Addr, Val Value
}

func (*Store) Type() types.Type { return voidType }

// Load reads the value pointed to by Addr. Typ is the dereferenced
// source type.
type Load struct {
	instrBase
	Addr Value
	Typ  types.Type
}

func (l *Load) Type() types.Type { return l.Typ }

// GetElementPtr computes a derived pointer from Base via Indices.
// struct_gep always supplies a leading zero index.
type GetElementPtr struct {
	instrBase
	Base    Value
	Indices []Value
	Typ     types.Type // stored result type
}

func (g *GetElementPtr) Type() types.Type { return g.Typ }

// ExtractValue projects field Index out of aggregate value Agg.
type ExtractValue struct {
	instrBase
	Agg   Value
	Index int
	Typ   types.Type
}

func (e *ExtractValue) Type() types.Type { return e.Typ }

// InsertValue returns a copy of Agg with field Index replaced by Elem.
// Its type is the aggregate type.
type InsertValue struct {
	instrBase
	Agg   Value
	Elem  Value
	Index int
}

func (i *InsertValue) Type() types.Type { return i.Agg.Type() }

// ConvKind is the Conv sub-kind table.
type ConvKind int

const (
	ConvTrunc ConvKind = iota
	ConvZext
	ConvFPTrunc
	ConvFPExt
	ConvFPToUI
	ConvFPToSI
	ConvUIToFP
	ConvSIToFP
	ConvPtrToInt
	ConvIntToPtr
	ConvBitcast
)

// Conv is a primitive representation-changing conversion, the target
// emit_conv lowers every non-identical conversion pair to
// after any higher-level repackaging (aggregate construction, field
// extraction) has been emitted separately.
type Conv struct {
	instrBase
	Sub ConvKind
	X   Value
	Typ types.Type
}

func (c *Conv) Type() types.Type { return c.Typ }

// Br is a (conditional or unconditional) branch terminator. Cond is
// nil for an unconditional branch; Targets has one entry for
// unconditional, two for conditional; a conditional branch records
// both edges.
type Br struct {
	instrBase
	Cond    Value
	Targets []*Block
}

func (*Br) Type() types.Type { return voidType }

// Ret is a return terminator; Results is empty, one, or (after
// tuple-materialization by buildReturn in build/stmt_assign.go) a
// single tuple-typed value.
type Ret struct {
	instrBase
	Results []Value
}

func (*Ret) Type() types.Type { return voidType }

// Select is a ternary value-select, used for min/max/abs builtins
// instead of branching.
type Select struct {
	instrBase
	Cond, T, F Value
	Typ        types.Type
}

func (s *Select) Type() types.Type { return s.Typ }

// Phi merges values along predecessor edges. Edges is positionally
// aligned with the owning Block's Preds.
type Phi struct {
	instrBase
	Edges []Value
	Typ   types.Type
}

func (p *Phi) Type() types.Type { return p.Typ }

// Unreachable marks a program point control flow can never reach
// (emitted after branch-statement jumps to give the block a
// terminator).
type Unreachable struct{ instrBase }

func (*Unreachable) Type() types.Type { return voidType }

// BinOp enumerates the primitive binary operators BinaryOp carries.
// AndNot is deliberately absent: emit_arith expands it to `x & (y xor
// -1)` rather than modeling it as its own opcode.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpQuo
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpCmpEq
	OpCmpNe
	OpCmpLt
	OpCmpLe
	OpCmpGt
	OpCmpGe
)

// BinaryOp is a primitive arithmetic/comparison/bitwise operation over
// same-typed operands. Pointer arithmetic is lowered to GetElementPtr
// instead.
type BinaryOp struct {
	instrBase
	Op   BinOp
	X, Y Value
	Typ  types.Type
}

func (b *BinaryOp) Type() types.Type { return b.Typ }

// Call invokes Callee (a Proc value, a Global of proc type, or — for
// the runtime error/assert helpers — a synthesized external symbol)
// with Args. For a tuple-returning call, Typ is the Tuple type and
// callers destructure with ExtractValue.
type Call struct {
	instrBase
	Callee Value
	Args   []Value
	Typ    types.Type
}

func (c *Call) Type() types.Type {
	if t, ok := c.Typ.(*types.Tuple); ok && len(t.Elems) == 1 {
		return t.Elems[0]
	}
	return c.Typ
}

// NoOp is a placeholder instruction with no effect and no operands.
type NoOp struct{ instrBase }

func (*NoOp) Type() types.Type { return voidType }

// ExtractElement reads lane Index out of vector Vec.
type ExtractElement struct {
	instrBase
	Vec, Index Value
	Typ        types.Type // element type of the vector
}

func (e *ExtractElement) Type() types.Type { return e.Typ }

// InsertElement writes Elem into lane Index of Vec, returning a new
// vector of Vec's type, used by the broadcast conversion and the
// vector literals' one-element broadcast shorthand.
type InsertElement struct {
	instrBase
	Vec, Elem, Index Value
}

func (i *InsertElement) Type() types.Type { return i.Vec.Type() }

// ShuffleVector permutes lanes of X (and optionally Y) by Mask,
// producing a vector of X's element type with len(Mask) lanes. Used directly by the swizzle builtin and by the broadcast
// conversion's all-zero mask.
type ShuffleVector struct {
	instrBase
	X, Y Value
	Mask []int64
	Typ  types.Type
}

func (s *ShuffleVector) Type() types.Type { return s.Typ }

// StartupRuntime calls the synthesized __$startup_runtime stub; emitted once, at the start of a program's entry procedure.
type StartupRuntime struct{ instrBase }

func (*StartupRuntime) Type() types.Type { return voidType }

// IsTerminator reports whether instr is one of the three terminator
// kinds.
func IsTerminator(instr Instruction) bool {
	switch instr.(type) {
	case *Br, *Ret, *Unreachable:
		return true
	}
	return false
}
