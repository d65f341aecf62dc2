package ssa

import (
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"github.com/dolthub/swiss"
	"github.com/google/uuid"

	"github.com/ssalang/ssacore/internal/arena"
	"github.com/ssalang/ssacore/types"
)

// Statement-state bit positions: bounds_check and
// no_bounds_check are mutually exclusive, saved and restored around
// any AST node carrying its own override. Modeled as a bitset.BitSet
// of width 2 rather than a hand-rolled mask.
const (
	bitBoundsCheck = iota
	bitNoBoundsCheck
)

// StmtState is a saved/restored snapshot of the module's statement
// flags, returned by Module.PushStmtState and consumed by
// Module.PopStmtState.
type StmtState struct {
	snapshot *bitset.BitSet
}

// Module owns every SSA value for a compilation unit. Its arena outlives the lowering and post-processing
// passes: values are never individually freed.
type Module struct {
	procsArena  arena.Arena[Proc]
	blockArena  arena.Arena[Block]
	globalArena arena.Arena[Global]
	constArena  arena.Arena[Const]

	// values resolves a declaration's opaque checker.Entity to its
	// SSA representative. A builtin map rather
	// than swiss: entity keys are interface values, which swiss's
	// comparable type parameter cannot hold.
	values map[any]Value
	// members is the mangled-name lookup table:
	// "__str$<hex>", "__csba$<hex>", "parent.child-<guid>".
	members *swiss.Map[string, Value]
	// typeNames is the mangled type-name table.
	typeNames *swiss.Map[string, string]
	// interned deduplicates synthesized string-literal globals by
	// content, so identical literals share one "__str$<hex>" backing
	// array.
	interned *swiss.Map[string, *Global]

	// Procs is the ordered list of procedures scheduled for body
	// generation.
	Procs []*Proc

	target *types.TargetInfo

	stringCounter uint64
	sliceCounter  uint64

	stmtState *bitset.BitSet

	// DebugInfo is nil unless the module was created with debug-info
	// emission enabled.
	DebugInfo *DebugInfoNode
}

// NewModule constructs an empty Module targeting the given
// architecture facts, with bounds-checking enabled by default; source
// constructs carrying an explicit #no_bounds_check override it
// locally.
func NewModule(target *types.TargetInfo, emitDebugInfo bool) *Module {
	m := &Module{
		values:    make(map[any]Value, 64),
		members:   swiss.NewMap[string, Value](64),
		typeNames: swiss.NewMap[string, string](64),
		interned:  swiss.NewMap[string, *Global](64),
		target:    target,
		stmtState: bitset.New(2),
	}
	m.stmtState.Set(bitBoundsCheck)
	if emitDebugInfo {
		m.DebugInfo = newDebugRoot()
	}
	return m
}

func (m *Module) Target() *types.TargetInfo { return m.target }

// ValueOf returns the SSA representative for a declaration entity, if
// one has been recorded.
func (m *Module) ValueOf(entity any) (Value, bool) {
	v, ok := m.values[entity]
	return v, ok
}

// SetValueOf records the SSA representative for a declaration entity.
func (m *Module) SetValueOf(entity any, v Value) { m.values[entity] = v }

// Member looks up a globally addressable top-level symbol by its
// mangled name.
func (m *Module) Member(mangled string) (Value, bool) { return m.members.Get(mangled) }

// SetMember records a globally addressable symbol.
func (m *Module) SetMember(mangled string, v Value) { m.members.Put(mangled, v) }

// TypeNameOf returns the mangled name for a type, computing and
// caching it on first use.
func (m *Module) TypeNameOf(t types.Type) string {
	key := t.String()
	if n, ok := m.typeNames.Get(key); ok {
		return n
	}
	n := mangleTypeName(t)
	m.typeNames.Put(key, n)
	return n
}

// NewProc allocates a fresh Proc from the module's arena and schedules
// it for body generation.
func (m *Module) NewProc(name string, sig *types.Proc, entity any) *Proc {
	p := m.procsArena.New()
	p.idx = -1
	p.Mod = m
	p.Name = name
	p.Sig = sig
	p.Entity = entity
	m.Procs = append(m.Procs, p)
	return p
}

// NewAnonProc names and schedules a nested lambda, mangling its name
// as "parent.child-<guid>".
func (m *Module) NewAnonProc(parent *Proc, sig *types.Proc) *Proc {
	name := parent.Name + "." + "lambda" + "-" + uuid.NewString()
	child := m.NewProc(name, sig, nil)
	parent.Children = append(parent.Children, child)
	return child
}

// NewGlobal allocates a module-scope Global.
func (m *Module) NewGlobal(name string, typ types.Type, flags GlobalFlags) *Global {
	g := m.globalArena.New()
	g.idx = -1
	g.Name = name
	g.Typ = &types.Pointer{Elem: typ}
	g.Flags = flags
	return g
}

// NewStringGlobal synthesizes a backing global for an interned string
// literal, named "__str$<hex>".
func (m *Module) NewStringGlobal(elemType types.Type, value string) *Global {
	n := atomic.AddUint64(&m.stringCounter, 1)
	g := m.NewGlobal(mangleHex("__str$", n), &types.Array{Elem: elemType, Len: int64(len(value))}, GlobalPrivate|GlobalConstant)
	m.SetMember(g.Name, g)
	return g
}

// InternString returns the backing global for a string literal,
// synthesizing it on first use and reusing it for every later literal
// with the same content.
func (m *Module) InternString(elemType types.Type, value string) *Global {
	if g, ok := m.interned.Get(value); ok {
		return g
	}
	g := m.NewStringGlobal(elemType, value)
	m.interned.Put(value, g)
	return g
}

// SetBoundsCheck overwrites the module's ambient statement-state: the embedder's initial configuration, before any per-node
// override pushes on top of it.
func (m *Module) SetBoundsCheck(enabled bool) {
	if enabled {
		m.stmtState.Set(bitBoundsCheck)
		m.stmtState.Clear(bitNoBoundsCheck)
	} else {
		m.stmtState.Set(bitNoBoundsCheck)
		m.stmtState.Clear(bitBoundsCheck)
	}
}

// NewConstSliceGlobal synthesizes a backing global for a constant
// slice/array literal, named "__csba$<hex>" (constant slice backing
// array).
func (m *Module) NewConstSliceGlobal(elemType types.Type, length int64) *Global {
	n := atomic.AddUint64(&m.sliceCounter, 1)
	g := m.NewGlobal(mangleHex("__csba$", n), &types.Array{Elem: elemType, Len: length}, GlobalPrivate|GlobalConstant)
	m.SetMember(g.Name, g)
	return g
}

// NewConst allocates a Const value.
func (m *Module) NewConst(t types.Type, exact ExactValue) *Const {
	c := m.constArena.New()
	c.idx = -1
	c.Typ = t
	c.Exact = exact
	return c
}

// PushStmtState saves the current bounds-check bits and applies the
// override an AST node carries, returning a token to restore with
// PopStmtState.
func (m *Module) PushStmtState(boundsCheck, noBoundsCheck bool) StmtState {
	snap := m.stmtState.Clone()
	if boundsCheck {
		m.stmtState.Set(bitBoundsCheck)
		m.stmtState.Clear(bitNoBoundsCheck)
	}
	if noBoundsCheck {
		m.stmtState.Set(bitNoBoundsCheck)
		m.stmtState.Clear(bitBoundsCheck)
	}
	return StmtState{snapshot: snap}
}

// PopStmtState restores a prior StmtState.
func (m *Module) PopStmtState(s StmtState) { m.stmtState = s.snapshot }

// BoundsCheckEnabled reports whether indexing/slicing instrumentation
// should be emitted at the current statement-state.
func (m *Module) BoundsCheckEnabled() bool {
	return !m.stmtState.Test(bitNoBoundsCheck)
}
