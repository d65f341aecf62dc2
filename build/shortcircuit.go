package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
)

// buildCond lowers a boolean-valued expression by threading it
// directly into a branch rather than materializing it as a value
// first where possible: &&/|| expand into nested branches, everything
// else falls back to BuildExpr plus a single condJump.
func (b *Builder) buildCond(e ast.Expr, truthy, falsy *ssa.Block) {
	if paren, ok := e.(*ast.ParenExpr); ok {
		b.buildCond(paren.X, truthy, falsy)
		return
	}
	if bin, ok := e.(*ast.BinaryExpr); ok {
		switch bin.Op {
		case ast.OpLAnd:
			mid := b.Proc.NewBlock("land.rhs")
			b.buildCond(bin.X, mid, falsy)
			b.startBlock(mid)
			b.buildCond(bin.Y, truthy, falsy)
			return
		case ast.OpLOr:
			mid := b.Proc.NewBlock("lor.rhs")
			b.buildCond(bin.X, truthy, mid)
			b.startBlock(mid)
			b.buildCond(bin.Y, truthy, falsy)
			return
		}
	}
	if un, ok := e.(*ast.UnaryExpr); ok && un.Op == ast.OpNot {
		b.buildCond(un.X, falsy, truthy)
		return
	}
	cond := b.BuildExpr(e)
	b.condJump(cond, truthy, falsy)
}

// buildBoolValue lowers a &&/|| expression to a materialized bool
// value via a diamond of blocks feeding a Phi, for contexts that need
// the value itself rather than a branch (e.g. `x := a && b`).
func (b *Builder) buildBoolValue(e ast.Expr) ssa.Value {
	bin, ok := e.(*ast.BinaryExpr)
	if !ok || (bin.Op != ast.OpLAnd && bin.Op != ast.OpLOr) {
		return b.BuildExpr(e)
	}

	truthy := b.Proc.NewBlock("sc.true")
	falsy := b.Proc.NewBlock("sc.false")
	join := b.Proc.NewBlock("sc.join")

	b.buildCond(e, truthy, falsy)

	b.startBlock(truthy)
	trueConst := b.Mod.NewConst(boolType, ssa.ExactValue{Kind: ssa.ExactBool, Bool: true})
	b.jump(join)

	b.startBlock(falsy)
	falseConst := b.Mod.NewConst(boolType, ssa.ExactValue{Kind: ssa.ExactBool, Bool: false})
	b.jump(join)

	b.startBlock(join)
	phi := &ssa.Phi{Edges: []ssa.Value{trueConst, falseConst}, Typ: boolType}
	b.emit(phi)
	return phi
}
