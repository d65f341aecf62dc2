package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

var assignOpTable = map[ast.AssignOp]ast.BinOp{
	ast.AddAssign: ast.OpAdd,
	ast.SubAssign: ast.OpSub,
	ast.MulAssign: ast.OpMul,
	ast.QuoAssign: ast.OpQuo,
	ast.RemAssign: ast.OpRem,
	ast.AndAssign: ast.OpAnd,
	ast.OrAssign:  ast.OpOr,
	ast.XorAssign: ast.OpXor,
}

// buildAssign lowers `lhs [op]= rhs`: a plain Assign
// stores the converted rhs directly; an op-assign reads the current
// lvalue, applies emitArith, and stores the result back. A single
// multi-result call on the rhs of a plain multi-target assignment is
// destructured field-by-field with ExtractValue.
func (b *Builder) buildAssign(n *ast.AssignStmt) {
	if n.Op != ast.Assign {
		op := assignOpTable[n.Op]
		lv := b.BuildAddr(n.Lhs[0])
		cur := &ssa.Load{Addr: lv.Addr, Typ: lv.Elem}
		b.emit(cur)
		rhs := b.BuildExpr(n.Rhs[0])
		rhs = b.emitConv(n.Rhs[0], rhs, b.exprType(n.Rhs[0]), lv.Elem)
		result := b.emitArith(n, op, cur, rhs, lv.Elem)
		st := &ssa.Store{Addr: lv.Addr, Val: result}
		b.emit(st)
		return
	}

	if len(n.Lhs) > 1 && len(n.Rhs) == 1 {
		b.buildDestructureAssign(n)
		return
	}

	for i, lhs := range n.Lhs {
		if id, ok := lhs.(*ast.Ident); ok && id.Name == "_" {
			b.BuildExpr(n.Rhs[i])
			continue
		}
		lv := b.BuildAddr(lhs)
		val := b.BuildExpr(n.Rhs[i])
		val = b.emitConv(n.Rhs[i], val, b.exprType(n.Rhs[i]), lv.Elem)
		st := &ssa.Store{Addr: lv.Addr, Val: val}
		b.emit(st)
	}
}

// buildDestructureAssign lowers `a, b = f()` where f returns a tuple
// of len(Lhs) results.
func (b *Builder) buildDestructureAssign(n *ast.AssignStmt) {
	agg := b.BuildExpr(n.Rhs[0])
	tup, ok := types.Underlying(b.exprType(n.Rhs[0])).(*types.Tuple)
	if !ok {
		b.ice(n, "multi-target assignment rhs is not a tuple-valued call")
	}
	if len(n.Lhs) > len(tup.Elems) {
		b.ice(n, "assignment targets exceed tuple arity")
	}
	// A target count shorter than the tuple arity discards the trailing
	// results: their extracts are emitted dead, never stored.
	for i, elemType := range tup.Elems {
		ev := &ssa.ExtractValue{Agg: agg, Index: i, Typ: elemType}
		b.emit(ev)
		if i >= len(n.Lhs) {
			continue
		}
		lhs := n.Lhs[i]
		if id, ok := lhs.(*ast.Ident); ok && id.Name == "_" {
			continue
		}
		lv := b.BuildAddr(lhs)
		val := b.emitConv(n, ev, elemType, lv.Elem)
		st := &ssa.Store{Addr: lv.Addr, Val: val}
		b.emit(st)
	}
}

// buildReturn lowers a return statement: every defer
// registered anywhere in the procedure unrolls, innermost first,
// before the Ret terminator is emitted; 0/1/N results are packed into
// a single tuple-typed value when N > 1.
func (b *Builder) buildReturn(n *ast.ReturnStmt) {
	var declared []types.Type
	if b.Proc.Sig != nil {
		declared = b.Proc.Sig.Results
	}
	results := make([]ssa.Value, len(n.Results))
	for i, e := range n.Results {
		v := b.BuildExpr(e)
		if i < len(declared) {
			v = b.emitConv(e, v, b.exprType(e), declared[i])
		}
		results[i] = v
	}
	b.unrollDefers(0)
	if len(results) > 1 {
		elemTypes := make([]types.Type, len(results))
		for i := range results {
			if i < len(declared) {
				elemTypes[i] = declared[i]
			} else {
				elemTypes[i] = b.exprType(n.Results[i])
			}
		}
		tup := &types.Tuple{Elems: elemTypes}
		local := b.NewLocal("", tup)
		for i, v := range results {
			gep := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(i))}, Typ: &types.Pointer{Elem: elemTypes[i]}}
			b.emit(gep)
			b.emit(&ssa.Store{Addr: gep, Val: v})
		}
		load := &ssa.Load{Addr: local, Typ: tup}
		b.emit(load)
		results = []ssa.Value{load}
	}
	ret := &ssa.Ret{Results: results}
	b.emit(ret)
	b.Proc.CurrBlock = nil
}

// buildDefer lowers `defer f(...)`: the call is not
// emitted now, it is recorded on the procedure's defer stack at the
// current scope depth and re-lowered at each unrolling site.
func (b *Builder) buildDefer(n *ast.DeferStmt) {
	b.Proc.PushDefer(ssa.DeferRecord{
		Kind:             ssa.DeferNode,
		ScopeIndex:       b.Proc.ScopeDepth(),
		OriginatingBlock: b.Proc.CurrBlock,
		NodePayload:      n.Call,
	})
}

// buildBranch lowers break/continue/fallthrough: defers
// registered since the target construct's scope unroll first, then
// control jumps to the resolved target block.
func (b *Builder) buildBranch(n *ast.BranchStmt) {
	var target *ssa.Block
	switch n.Kind {
	case ast.Break:
		target = b.Proc.BreakTarget()
	case ast.Continue:
		target = b.Proc.ContinueTarget()
	case ast.Fallthrough:
		target = b.Proc.FallthroughTarget()
	}
	if target == nil {
		b.ice(n, "branch statement has no enclosing target")
		return
	}
	// Only defers registered in scopes strictly inside the target
	// block's captured depth run before the jump.
	b.unrollDefersAbove(target.ScopeAt)
	b.jump(target)
	b.Proc.CurrBlock = nil
}
