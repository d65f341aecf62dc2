package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/rtabi"
	"github.com/ssalang/ssacore/ssa"
)

// emitBoundsCheck emits the index-bounds instrumentation:
// unless the surrounding statement-state has no_bounds_check, emit a
// conditional call to __bounds_check_error when idx is outside
// [0, length). Lowered as a branch to a cold error block rather than a
// Select, since the error call never returns control to the fast path.
func (b *Builder) emitBoundsCheck(n ast.Node, idx, length ssa.Value) {
	if !b.Mod.BoundsCheckEnabled() {
		return
	}
	inBounds := b.Proc.NewBlock("bc.ok")
	bad := b.Proc.NewBlock("bc.fail")

	ltZero := &ssa.BinaryOp{Op: ssa.OpCmpLt, X: idx, Y: b.intConst(0), Typ: boolType}
	b.emit(ltZero)
	geLen := &ssa.BinaryOp{Op: ssa.OpCmpGe, X: idx, Y: length, Typ: boolType}
	b.emit(geLen)
	bad2 := &ssa.BinaryOp{Op: ssa.OpOr, X: ltZero, Y: geLen, Typ: boolType}
	b.emit(bad2)
	b.condJump(bad2, bad, inBounds)

	b.startBlock(bad)
	b.callRuntime(n, rtabi.BoundsCheckError, rtabi.BoundsCheckErrorArgs, idx, length)
	unreachable := &ssa.Unreachable{}
	b.emit(unreachable)

	b.startBlock(inBounds)
}

// emitSliceCheck implements the __slice_expr_error instrumentation for
// `x[low:high:max]`, always passing the standardized
// 6-argument shape (file, line, col, low, high, max) per rtabi's arity
// shape regardless of caller.
func (b *Builder) emitSliceCheck(n ast.Node, low, high, max ssa.Value) {
	if !b.Mod.BoundsCheckEnabled() {
		return
	}
	ok := b.Proc.NewBlock("sc.ok")
	bad := b.Proc.NewBlock("sc.fail")

	invalid := &ssa.BinaryOp{Op: ssa.OpCmpGt, X: low, Y: high, Typ: boolType}
	b.emit(invalid)
	invalid2 := &ssa.BinaryOp{Op: ssa.OpCmpGt, X: high, Y: max, Typ: boolType}
	b.emit(invalid2)
	anyBad := &ssa.BinaryOp{Op: ssa.OpOr, X: invalid, Y: invalid2, Typ: boolType}
	b.emit(anyBad)
	b.condJump(anyBad, bad, ok)

	b.startBlock(bad)
	b.callRuntime(n, rtabi.SliceExprError, rtabi.SliceExprErrorArgs, low, high, max)
	b.emit(&ssa.Unreachable{})

	b.startBlock(ok)
}

// emitSubstringCheck is emitSliceCheck's __substring_expr_error
// counterpart for string slicing.
func (b *Builder) emitSubstringCheck(n ast.Node, low, high, max ssa.Value) {
	if !b.Mod.BoundsCheckEnabled() {
		return
	}
	ok := b.Proc.NewBlock("ssc.ok")
	bad := b.Proc.NewBlock("ssc.fail")

	invalid := &ssa.BinaryOp{Op: ssa.OpCmpGt, X: low, Y: high, Typ: boolType}
	b.emit(invalid)
	invalid2 := &ssa.BinaryOp{Op: ssa.OpCmpGt, X: high, Y: max, Typ: boolType}
	b.emit(invalid2)
	anyBad := &ssa.BinaryOp{Op: ssa.OpOr, X: invalid, Y: invalid2, Typ: boolType}
	b.emit(anyBad)
	b.condJump(anyBad, bad, ok)

	b.startBlock(bad)
	b.callRuntime(n, rtabi.SubstringExprError, rtabi.SubstringExprErrorArgs, low, high, max)
	b.emit(&ssa.Unreachable{})

	b.startBlock(ok)
}

// callRuntime emits a call to one of rtabi's named external runtime
// procedures, padding file/line/col ahead of the supplied trailing
// arguments up to the documented arity.
func (b *Builder) callRuntime(n ast.Node, name string, arity int, trailing ...ssa.Value) ssa.Value {
	p := n.Pos()
	file := b.Mod.NewStringGlobal(stringByteType, p.File)
	args := []ssa.Value{
		file,
		b.intConst(int64(p.Line)),
		b.intConst(int64(p.Col)),
	}
	args = append(args, trailing...)
	for len(args) < arity {
		args = append(args, b.intConst(0))
	}
	callee := b.externProc(name)
	call := &ssa.Call{Callee: callee, Args: args, Typ: voidTypeVal}
	b.emit(call)
	return call
}

// externProc resolves (creating on first use) a Global standing in for
// a named external runtime procedure rtabi declares but the core never
// defines itself.
func (b *Builder) externProc(name string) ssa.Value {
	if v, ok := b.Mod.Member(name); ok {
		return v
	}
	g := b.Mod.NewGlobal(name, voidTypeVal, ssa.GlobalPrivate)
	b.Mod.SetMember(name, g)
	return g
}
