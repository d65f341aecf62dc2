package ssa

import "github.com/ssalang/ssacore/types"

// ProcFlags are the tag flags a Proc inherits from its declaration.
type ProcFlags uint16

const (
	ProcForeign ProcFlags = 1 << iota
	ProcBoundsCheck
	ProcNoBoundsCheck
	ProcInline
	ProcNoInline
	// ProcEntryPoint marks the program's entry procedure, whose body
	// starts with the synthesized __$startup_runtime call.
	ProcEntryPoint
)

// Proc is a procedure. It is itself a Value so
// nested lambdas can be referenced as operands (e.g. captured in a
// closure literal) the way Global and Param are.
type Proc struct {
	valueBase
	Mod      *Module
	Name     string
	Entity   any         // opaque checker.Entity, nil for anonymous lambdas
	Sig      *types.Proc // signature type
	Body     any         // opaque AST body, nil for foreign procedures
	Flags    ProcFlags
	LinkName string // foreign linkage name, if ProcForeign

	Children []*Proc // nested lambda procedures

	Blocks     []*Block
	DeclBlock  *Block
	EntryBlock *Block
	CurrBlock  *Block // mutable emission cursor

	defers  []DeferRecord
	targets *targetFrame

	scopeDepth int

	referrers []Instruction // populated by propagateReferrers with every instruction using this Proc as an operand

	params []*Param
}

func (p *Proc) Type() types.Type          { return p.Sig }
func (p *Proc) Referrers() *[]Instruction { return &p.referrers }

// Params returns the procedure's parameter values in declaration order.
func (p *Proc) Params() []*Param { return p.params }

// AddParam appends and returns a new parameter value.
func (p *Proc) AddParam(name string, typ types.Type) *Param {
	param := &Param{Parent: p, Name: name, Typ: typ}
	param.idx = -1
	p.params = append(p.params, param)
	return param
}

// DeferKind selects which payload a DeferRecord carries: an AST
// statement re-lowered on each unroll, or a cloned instruction
// template.
type DeferKind int

const (
	DeferNode DeferKind = iota
	DeferInstr
)

// DeferRecord is one pending defer:
// { kind, scope_index, originating_block, payload }.
type DeferRecord struct {
	Kind             DeferKind
	ScopeIndex       int
	OriginatingBlock *Block
	NodePayload      any         // AST statement, re-lowered on each unroll
	InstrPayload     Instruction // cloned instruction template
}

// PushDefer records a defer entry at the procedure's current scope
// depth.
func (p *Proc) PushDefer(rec DeferRecord) { p.defers = append(p.defers, rec) }

// Defers returns the full defer stack, outermost first.
func (p *Proc) Defers() []DeferRecord { return p.defers }

// PopDefersSince removes and returns, in LIFO (innermost-first) order,
// every defer entry recorded at or above scopeIndex — the set a scope
// exit must unroll.
func (p *Proc) PopDefersSince(scopeIndex int) []DeferRecord {
	cut := len(p.defers)
	for cut > 0 && p.defers[cut-1].ScopeIndex >= scopeIndex {
		cut--
	}
	popped := append([]DeferRecord(nil), p.defers[cut:]...)
	p.defers = p.defers[:cut]
	for i, j := 0, len(popped)-1; i < j; i, j = i+1, j-1 {
		popped[i], popped[j] = popped[j], popped[i]
	}
	return popped
}

// targetFrame is a singly linked stack of break/continue/fallthrough
// destinations, the same shape as the `targets` struct in
// golang.org/x/tools/go/ssa.
type targetFrame struct {
	tail         *targetFrame
	breakB       *Block
	continueB    *Block
	fallthroughB *Block
}

// PushTargets opens a new break/continue/fallthrough frame, e.g. when
// lowering a for/match statement.
// Either of continueB/fallthroughB may be nil where the construct
// doesn't support that jump.
func (p *Proc) PushTargets(breakB, continueB, fallthroughB *Block) {
	p.targets = &targetFrame{
		tail:         p.targets,
		breakB:       breakB,
		continueB:    continueB,
		fallthroughB: fallthroughB,
	}
}

// PopTargets closes the innermost break/continue/fallthrough frame.
func (p *Proc) PopTargets() {
	if p.targets != nil {
		p.targets = p.targets.tail
	}
}

// BreakTarget returns the block a bare break jumps to: the innermost
// frame with a non-nil break slot, or nil outside any breakable
// construct.
func (p *Proc) BreakTarget() *Block {
	for f := p.targets; f != nil; f = f.tail {
		if f.breakB != nil {
			return f.breakB
		}
	}
	return nil
}

// ContinueTarget returns the block a bare continue jumps to, walking
// past match frames (which carry no continue slot) to the enclosing
// loop, or nil.
func (p *Proc) ContinueTarget() *Block {
	for f := p.targets; f != nil; f = f.tail {
		if f.continueB != nil {
			return f.continueB
		}
	}
	return nil
}

// FallthroughTarget returns the block a fallthrough jumps to, or nil
// outside a match statement case.
func (p *Proc) FallthroughTarget() *Block {
	for f := p.targets; f != nil; f = f.tail {
		if f.fallthroughB != nil {
			return f.fallthroughB
		}
	}
	return nil
}

// ScopeDepth returns the procedure's current lexical scope depth.
func (p *Proc) ScopeDepth() int { return p.scopeDepth }

// EnterScope increments and returns the procedure's scope depth.
func (p *Proc) EnterScope() int {
	p.scopeDepth++
	return p.scopeDepth
}

// ExitScope decrements the procedure's scope depth.
func (p *Proc) ExitScope() { p.scopeDepth-- }

// NewBlock appends a fresh block to the procedure.
func (p *Proc) NewBlock(label string) *Block {
	b := p.Mod.blockArena.New()
	b.index = len(p.Blocks)
	b.Label = label
	b.Parent = p
	b.ScopeAt = p.scopeDepth
	p.Blocks = append(p.Blocks, b)
	return b
}

// AddEdge records a CFG edge from a to b, keeping Preds/Succs
// consistent.
func AddEdge(a, b *Block) {
	a.Succs = append(a.Succs, b)
	b.Preds = append(b.Preds, a)
}
