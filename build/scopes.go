package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
)

// ExitKind classifies how a lexical scope is being left, selecting
// which registered defers unroll.
type ExitKind int

const (
	// ExitDefault is an ordinary fall-off-the-end scope close: defers
	// registered at the closing depth unroll, provided the depth is
	// above the procedure level (depth-1 defers drain only at return).
	ExitDefault ExitKind = iota
	// ExitReturn is a scope closed by a return statement, which has
	// already unrolled every pending defer before its Ret.
	ExitReturn
	// ExitBranch is a scope closed by a break/continue/fallthrough; the
	// branch statement itself unrolled the defers above its target's
	// depth before jumping.
	ExitBranch
)

// OpenScope enters a new lexical scope, recording its depth for later
// defer-unrolling accounting.
func (b *Builder) OpenScope() int { return b.Proc.EnterScope() }

// CloseScope exits the current lexical scope. For ExitDefault at depth
// two or deeper, every defer registered at or above this depth unrolls
// now; depth-1 defers are procedure-level and drain only at return.
// An ExitReturn/ExitBranch close only pops the depth counter — the
// caller already unrolled the relevant defers before its terminator.
func (b *Builder) CloseScope(kind ExitKind) {
	depth := b.Proc.ScopeDepth()
	if kind == ExitDefault && depth > 1 {
		b.unrollDefers(depth)
	}
	b.Proc.ExitScope()
}

// unrollDefers replays every defer registered at or above scopeIndex,
// innermost first. The replayed code lands in its own fresh block named
// "defer", entered by fall-through from the current cursor when the
// cursor is still open.
func (b *Builder) unrollDefers(scopeIndex int) {
	recs := b.Proc.PopDefersSince(scopeIndex)
	if len(recs) == 0 {
		return
	}
	if b.Proc.CurrBlock != nil && b.Proc.CurrBlock.Terminator() == nil {
		deferB := b.Proc.NewBlock("defer")
		b.jump(deferB)
		b.startBlock(deferB)
	}
	for _, rec := range recs {
		switch rec.Kind {
		case ssa.DeferNode:
			// A deferred statement may itself register defers; each
			// unrolled copy gets its own scope frame so those drain
			// inside the copy.
			b.OpenScope()
			if call, ok := rec.NodePayload.(*ast.CallExpr); ok {
				b.buildCall(call)
			} else if stmt, ok := rec.NodePayload.(ast.Stmt); ok {
				b.buildStmt(stmt)
			}
			b.CloseScope(ExitDefault)
		case ssa.DeferInstr:
			if rec.InstrPayload != nil {
				b.emit(ssa.CloneInstr(rec.InstrPayload))
			}
		}
	}
}

// unrollDefersAbove replays only the defers registered strictly above
// depth — the set a break/continue/fallthrough must run before jumping
// out to a target block captured at that depth.
func (b *Builder) unrollDefersAbove(depth int) {
	b.unrollDefers(depth + 1)
}
