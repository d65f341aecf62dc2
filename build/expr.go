package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/checker"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// BuildExpr is the r-value lowering dispatch. A
// constant expression short-circuits straight to ssa.Const from the
// checker's folded exact value;
// everything else walks the AST shape and emits the corresponding
// instruction sequence. Modeled on cmd/internal/gc/ssa.go's
// `(*ssaState).expr` switch.
func (b *Builder) BuildExpr(e ast.Expr) ssa.Value {
	info := b.Tables.TypeOf(e)
	if info.Mode == checker.ModeConstant && info.Exact != nil {
		switch info.Exact.Kind {
		case checker.ExactNil:
			return &ssa.Nil{Typ: info.Type}
		case checker.ExactString:
			// String literals lower through a synthesized interned
			// backing global rather than an inline constant.
			g := b.Mod.InternString(stringByteType, info.Exact.Str)
			cs := &ssa.ConstSlice{Typ: info.Type, Backing: g, Len: int64(len(info.Exact.Str))}
			cs.SetIndexUnset()
			return cs
		case checker.ExactCompound:
			if sl, ok := types.Underlying(info.Type).(*types.Slice); ok {
				g := b.Mod.NewConstSliceGlobal(sl.Elem, int64(len(info.Exact.Elems)))
				cs := &ssa.ConstSlice{Typ: info.Type, Backing: g, Len: int64(len(info.Exact.Elems))}
				cs.SetIndexUnset()
				return cs
			}
		}
		return b.Mod.NewConst(info.Type, convertExact(*info.Exact))
	}

	switch n := e.(type) {
	case *ast.Ident:
		return b.buildIdentRead(n, info.Type)
	case *ast.NilLit:
		return &ssa.Nil{Typ: info.Type}
	case *ast.BasicLit:
		b.ice(n, "non-constant basic literal")
	case *ast.ParenExpr:
		return b.BuildExpr(n.X)
	case *ast.UnaryExpr:
		return b.buildUnary(n, info.Type)
	case *ast.BinaryExpr:
		return b.buildBinary(n, info.Type)
	case *ast.CallExpr:
		return b.buildCall(n)
	case *ast.IndexExpr:
		return b.buildIndexRead(n)
	case *ast.SliceExpr:
		return b.buildSlice(n)
	case *ast.SelectorExpr:
		lv := b.BuildAddr(n)
		load := &ssa.Load{Addr: lv.Addr, Typ: lv.Elem}
		b.emit(load)
		return load
	case *ast.CompositeLit:
		return b.buildComposite(n, info.Type)
	case *ast.TypeExpr:
		return &ssa.TypeName{Name: n.Name, Typ: info.Type}
	}
	b.ice(e, "unsupported expression shape")
	return nil
}

func convertExact(e checker.ExactValue) ssa.ExactValue {
	elems := make([]ssa.ExactValue, len(e.Elems))
	for i, c := range e.Elems {
		elems[i] = convertExact(c)
	}
	return ssa.ExactValue{
		Kind:  ssa.ExactKind(e.Kind),
		Int:   e.Int,
		Float: e.Float,
		Bool:  e.Bool,
		Str:   e.Str,
		Elems: elems,
	}
}

// buildIdentRead reads a variable through its backing Local/Global, or
// resolves a direct reference to a procedure/global-constant value.
func (b *Builder) buildIdentRead(n *ast.Ident, t types.Type) ssa.Value {
	ent, ok := b.Tables.Uses(n)
	if !ok {
		b.ice(n, "unresolved identifier %q", n.Name)
	}
	if v, ok := b.Mod.ValueOf(ent); ok {
		switch vv := v.(type) {
		case *ssa.Proc:
			return vv
		case *ssa.Global:
			// A Global's Value is the pointer to its storage; an r-value
			// read goes through a Load the same way a local's does.
			load := &ssa.Load{Addr: vv, Typ: t}
			b.emit(load)
			return load
		case *ssa.Const, *ssa.ConstSlice:
			return vv
		}
	}
	if local, ok := b.vars[ent]; ok {
		load := &ssa.Load{Addr: local, Typ: t}
		b.emit(load)
		return load
	}
	b.ice(n, "identifier %q has no bound value", n.Name)
	return nil
}

func (b *Builder) buildUnary(n *ast.UnaryExpr, t types.Type) ssa.Value {
	switch n.Op {
	case ast.OpAddrOf:
		lv := b.BuildAddr(n.X)
		return lv.Addr
	case ast.OpDeref:
		addr := b.BuildExpr(n.X)
		load := &ssa.Load{Addr: addr, Typ: t}
		b.emit(load)
		return load
	case ast.OpNot:
		x := b.BuildExpr(n.X)
		truth := b.Mod.NewConst(boolType, ssa.ExactValue{Kind: ssa.ExactBool, Bool: true})
		xorOp := &ssa.BinaryOp{Op: ssa.OpXor, X: x, Y: truth, Typ: boolType}
		b.emit(xorOp)
		return xorOp
	case ast.OpNeg:
		x := b.BuildExpr(n.X)
		zero := b.Mod.NewConst(t, ssa.ExactValue{Kind: ssa.ExactInt, Int: 0})
		sub := &ssa.BinaryOp{Op: ssa.OpSub, X: zero, Y: x, Typ: t}
		b.emit(sub)
		return sub
	case ast.OpBitNot:
		x := b.BuildExpr(n.X)
		allOnes := b.Mod.NewConst(t, ssa.ExactValue{Kind: ssa.ExactInt, Int: -1})
		xorOp := &ssa.BinaryOp{Op: ssa.OpXor, X: x, Y: allOnes, Typ: t}
		b.emit(xorOp)
		return xorOp
	}
	b.ice(n, "unsupported unary operator")
	return nil
}

func (b *Builder) buildBinary(n *ast.BinaryExpr, t types.Type) ssa.Value {
	if n.Op == ast.OpLAnd || n.Op == ast.OpLOr {
		return b.buildBoolValue(n)
	}
	// A node carrying its own bounds-check override shadows the ambient
	// statement-state for the duration of its lowering; nodes without
	// one inherit the surrounding state untouched.
	if n.NoBoundsChk {
		save := b.Mod.PushStmtState(false, true)
		defer b.Mod.PopStmtState(save)
	}
	x := b.BuildExpr(n.X)
	y := b.BuildExpr(n.Y)
	resultType := t
	if n.Op >= ast.OpEq {
		resultType = b.exprType(n.X)
	}
	return b.emitArith(n, n.Op, x, y, resultType)
}

func (b *Builder) buildIndexRead(n *ast.IndexExpr) ssa.Value {
	lv := b.BuildAddr(n)
	if lv.IsVectorLane() {
		ee := &ssa.ExtractElement{Vec: lv.VectorAddr, Index: lv.LaneIndex, Typ: lv.Elem}
		b.emit(ee)
		return ee
	}
	load := &ssa.Load{Addr: lv.Addr, Typ: lv.Elem}
	b.emit(load)
	return load
}

// buildSlice lowers `x[low:high:max]`, instrumenting the slice-bounds
// or substring-bounds error depending on SliceExpr.Substring.
func (b *Builder) buildSlice(n *ast.SliceExpr) ssa.Value {
	base := b.BuildAddr(n.X)
	sliceType, isSlice := types.Underlying(base.Elem).(*types.Slice)
	arrType, isArr := types.Underlying(base.Elem).(*types.Array)

	var elemType types.Type
	var ptr ssa.Value
	var length ssa.Value
	switch {
	case isSlice:
		elemType = sliceType.Elem
		ptr = b.loadSliceField(base, 0, &types.Pointer{Elem: elemType})
		length = b.loadSliceField(base, 1, i64Type)
	case isArr:
		elemType = arrType.Elem
		ptr = base.Addr
		length = b.intConst(arrType.Len)
	default:
		b.ice(n, "slice base is neither slice nor array")
	}

	low := b.intConst(0)
	if n.Low != nil {
		low = b.BuildExpr(n.Low)
	}
	high := length
	if n.High != nil {
		high = b.BuildExpr(n.High)
	}
	max := length
	if n.Max != nil {
		max = b.BuildExpr(n.Max)
	}

	if n.Substring {
		b.emitSubstringCheck(n, low, high, max)
	} else {
		b.emitSliceCheck(n, low, high, max)
	}

	gep := &ssa.GetElementPtr{Base: ptr, Indices: []ssa.Value{low}, Typ: &types.Pointer{Elem: elemType}}
	b.emit(gep)

	newLen := &ssa.BinaryOp{Op: ssa.OpSub, X: high, Y: low, Typ: i64Type}
	b.emit(newLen)
	newCap := &ssa.BinaryOp{Op: ssa.OpSub, X: max, Y: low, Typ: i64Type}
	b.emit(newCap)

	resultType := &types.Slice{Elem: elemType}
	hdr := b.NewLocal("", resultType)
	ptrField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: &types.Pointer{Elem: elemType}}}
	b.emit(ptrField)
	b.emit(&ssa.Store{Addr: ptrField, Val: gep})
	lenField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(lenField)
	b.emit(&ssa.Store{Addr: lenField, Val: newLen})
	capField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(2)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(capField)
	b.emit(&ssa.Store{Addr: capField, Val: newCap})

	load := &ssa.Load{Addr: hdr, Typ: resultType}
	b.emit(load)
	return load
}
