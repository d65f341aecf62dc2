package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/checker"
	"github.com/ssalang/ssacore/rtabi"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// builtinTypeInfo lowers `type_info(T)` to a load of T's entry in the
// global type_info_data array.
func (b *Builder) builtinTypeInfo(n *ast.CallExpr) ssa.Value {
	te, ok := n.Args[0].(*ast.TypeExpr)
	if !ok {
		b.ice(n, "type_info argument must name a type")
	}
	t := b.resolveTypeExpr(te)
	idx, ok := b.Tables.TypeInfoIndex(t)
	if !ok {
		b.ice(n, "type %q has no type_info entry", te.Name)
	}
	table := b.externProc(rtabi.TypeInfoData)
	gep := &ssa.GetElementPtr{Base: table, Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(idx))}, Typ: anyPtrType}
	b.emit(gep)
	load := &ssa.Load{Addr: gep, Typ: anyType}
	b.emit(load)
	return load
}

// builtinTypeInfoOfVal lowers `type_info_of_val(x)` to the type_info
// lookup for x's static type.
func (b *Builder) builtinTypeInfoOfVal(n *ast.CallExpr) ssa.Value {
	t := b.exprType(n.Args[0])
	idx, ok := b.Tables.TypeInfoIndex(t)
	if !ok {
		b.ice(n, "value's type has no type_info entry")
	}
	table := b.externProc(rtabi.TypeInfoData)
	gep := &ssa.GetElementPtr{Base: table, Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(idx))}, Typ: anyPtrType}
	b.emit(gep)
	load := &ssa.Load{Addr: gep, Typ: anyType}
	b.emit(load)
	return load
}

// builtinNew lowers `new(T)` to a call into the external alloc_align
// allocator followed by an inttoptr to ^T.
func (b *Builder) builtinNew(n *ast.CallExpr) ssa.Value {
	te, ok := n.Args[0].(*ast.TypeExpr)
	if !ok {
		b.ice(n, "new argument must name a type")
	}
	t := b.resolveTypeExpr(te)
	raw := b.callAllocAlign(t.Size(b.Opts.Target), t.Align(b.Opts.Target))
	return b.emitConv(n, raw, rawptrType, &types.Pointer{Elem: t})
}

// builtinNewSlice lowers `new_slice(T, len, cap?)`: a 0 <= len <= cap
// bounds check, a backing allocation sized cap*sizeof(T) via
// alloc_align, and a synthesized slice header.
func (b *Builder) builtinNewSlice(n *ast.CallExpr) ssa.Value {
	te, ok := n.Args[0].(*ast.TypeExpr)
	if !ok {
		b.ice(n, "new_slice argument must name a type")
	}
	elemType := b.resolveTypeExpr(te)
	length := b.BuildExpr(n.Args[1])
	capacity := length
	if len(n.Args) > 2 {
		capacity = b.BuildExpr(n.Args[2])
	}
	b.emitNewSliceBoundsCheck(n, length, capacity)

	elemSize := elemType.Size(b.Opts.Target)
	byteLen := &ssa.BinaryOp{Op: ssa.OpMul, X: capacity, Y: b.intConst(elemSize), Typ: i64Type}
	b.emit(byteLen)
	raw := b.callAllocAlignDynamic(byteLen, b.intConst(elemType.Align(b.Opts.Target)))
	backing := b.emitConv(n, raw, rawptrType, &types.Pointer{Elem: elemType})

	sliceType := &types.Slice{Elem: elemType}
	hdr := b.NewLocal("", sliceType)

	ptrField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: &types.Pointer{Elem: elemType}}}
	b.emit(ptrField)
	st1 := &ssa.Store{Addr: ptrField, Val: backing}
	b.emit(st1)

	lenField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(lenField)
	st2 := &ssa.Store{Addr: lenField, Val: length}
	b.emit(st2)

	capField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(2)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(capField)
	st3 := &ssa.Store{Addr: capField, Val: capacity}
	b.emit(st3)

	load := &ssa.Load{Addr: hdr, Typ: sliceType}
	b.emit(load)
	return load
}

// emitNewSliceBoundsCheck instruments new_slice's "0 <= len <= cap"
// precondition, routing through the same cold-block-plus-
// runtime-call idiom as emitBoundsCheck/emitSliceCheck.
func (b *Builder) emitNewSliceBoundsCheck(n ast.Node, length, capacity ssa.Value) {
	if !b.Mod.BoundsCheckEnabled() {
		return
	}
	ok := b.Proc.NewBlock("ns.ok")
	bad := b.Proc.NewBlock("ns.fail")

	ltZero := &ssa.BinaryOp{Op: ssa.OpCmpLt, X: length, Y: b.intConst(0), Typ: boolType}
	b.emit(ltZero)
	gtCap := &ssa.BinaryOp{Op: ssa.OpCmpGt, X: length, Y: capacity, Typ: boolType}
	b.emit(gtCap)
	anyBad := &ssa.BinaryOp{Op: ssa.OpOr, X: ltZero, Y: gtCap, Typ: boolType}
	b.emit(anyBad)
	b.condJump(anyBad, bad, ok)

	b.startBlock(bad)
	b.callRuntime(n, rtabi.Assert, rtabi.AssertArgs)
	b.emit(&ssa.Unreachable{})

	b.startBlock(ok)
}

// callAllocAlign emits a call to the external alloc_align(size, align)
// runtime procedure, returning its rawptr result.
func (b *Builder) callAllocAlign(size, align int64) ssa.Value {
	return b.callAllocAlignDynamic(b.intConst(size), b.intConst(align))
}

// callAllocAlignDynamic is callAllocAlign's variant for a runtime-
// computed size (new_slice's cap*sizeof(T)).
func (b *Builder) callAllocAlignDynamic(size, align ssa.Value) ssa.Value {
	callee := b.externProc(rtabi.AllocAlign)
	call := &ssa.Call{Callee: callee, Args: []ssa.Value{size, align}, Typ: rawptrType}
	b.emit(call)
	return call
}

// builtinAssert lowers `assert(cond)` to the __assert instrumentation
// call. Asserts are never suppressed by no_bounds_check.
func (b *Builder) builtinAssert(n *ast.CallExpr) ssa.Value {
	cond := b.BuildExpr(n.Args[0])
	ok := b.Proc.NewBlock("assert.ok")
	fail := b.Proc.NewBlock("assert.fail")
	b.condJump(cond, ok, fail)

	b.startBlock(fail)
	var text []ssa.Value
	if p, isParen := n.Args[0].(*ast.ParenExpr); isParen && p.Text != "" {
		text = append(text, b.Mod.InternString(stringByteType, p.Text))
	}
	b.callRuntime(n, rtabi.Assert, rtabi.AssertArgs, text...)
	b.emit(&ssa.Unreachable{})

	b.startBlock(ok)
	return nil
}

// builtinPanic lowers `panic(msg)` as an unconditional call into the
// assert runtime helper followed by Unreachable.
func (b *Builder) builtinPanic(n *ast.CallExpr) ssa.Value {
	var msg []ssa.Value
	if len(n.Args) > 0 {
		msg = append(msg, b.BuildExpr(n.Args[0]))
	}
	b.callRuntime(n, rtabi.Assert, rtabi.AssertArgs, msg...)
	b.emit(&ssa.Unreachable{})
	return nil
}

// builtinCopy lowers `copy(dst, src)` to a __mem_copy call over
// min(len_dst, len_src) * elem_size bytes.
func (b *Builder) builtinCopy(n *ast.CallExpr) ssa.Value {
	dstLv := b.BuildAddr(n.Args[0])
	srcLv := b.BuildAddr(n.Args[1])
	sliceType, ok := types.Underlying(dstLv.Elem).(*types.Slice)
	if !ok {
		b.ice(n, "copy argument is not a slice")
	}
	dstPtr := b.loadSliceField(dstLv, 0, &types.Pointer{Elem: sliceType.Elem})
	srcPtr := b.loadSliceField(srcLv, 0, &types.Pointer{Elem: sliceType.Elem})
	dstLen := b.loadSliceField(dstLv, 1, i64Type)
	srcLen := b.loadSliceField(srcLv, 1, i64Type)

	shorter := &ssa.BinaryOp{Op: ssa.OpCmpLt, X: dstLen, Y: srcLen, Typ: boolType}
	b.emit(shorter)
	n_ := &ssa.Select{Cond: shorter, T: dstLen, F: srcLen, Typ: i64Type}
	b.emit(n_)
	elemSize := b.intConst(sliceType.Elem.Size(b.Opts.Target))
	nBytes := &ssa.BinaryOp{Op: ssa.OpMul, X: n_, Y: elemSize, Typ: i64Type}
	b.emit(nBytes)

	callee := b.externProc(rtabi.MemCopy)
	call := &ssa.Call{Callee: callee, Args: []ssa.Value{dstPtr, srcPtr, nBytes}, Typ: voidTypeVal}
	b.emit(call)
	return n_
}

// builtinAppend lowers `append(^slice, item)`: a
// compare-and-branch on len < cap; in the able block, __mem_copy one
// element into ptr+len and increment len; return the success boolean.
func (b *Builder) builtinAppend(n *ast.CallExpr) ssa.Value {
	slicePtr := b.BuildExpr(n.Args[0])
	ptrType, ok := types.Underlying(b.exprType(n.Args[0])).(*types.Pointer)
	if !ok {
		b.ice(n, "append argument is not a pointer to slice")
	}
	sliceType, ok := types.Underlying(ptrType.Elem).(*types.Slice)
	if !ok {
		b.ice(n, "append argument does not point to a slice")
	}
	elem := b.BuildExpr(n.Args[1])
	elem = b.emitConv(n.Args[1], elem, b.exprType(n.Args[1]), sliceType.Elem)

	lv := LValue{Addr: slicePtr, Elem: sliceType}
	elemPtrType := &types.Pointer{Elem: sliceType.Elem}
	ptrField := &ssa.GetElementPtr{Base: slicePtr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: elemPtrType}}
	b.emit(ptrField)
	backing := &ssa.Load{Addr: ptrField, Typ: elemPtrType}
	b.emit(backing)
	length := b.loadSliceField(lv, 1, i64Type)
	capacity := b.loadSliceField(lv, 2, i64Type)

	able := b.Proc.NewBlock("append.able")
	full := b.Proc.NewBlock("append.full")
	join := b.Proc.NewBlock("append.join")

	canGrow := &ssa.BinaryOp{Op: ssa.OpCmpLt, X: length, Y: capacity, Typ: boolType}
	b.emit(canGrow)
	b.condJump(canGrow, able, full)

	b.startBlock(able)
	dst := &ssa.GetElementPtr{Base: backing, Indices: []ssa.Value{length}, Typ: elemPtrType}
	b.emit(dst)
	tmp := b.NewLocal("", sliceType.Elem)
	b.emit(&ssa.Store{Addr: tmp, Val: elem})
	elemSize := b.intConst(sliceType.Elem.Size(b.Opts.Target))
	callee := b.externProc(rtabi.MemCopy)
	b.emit(&ssa.Call{Callee: callee, Args: []ssa.Value{dst, tmp, elemSize}, Typ: voidTypeVal})
	newLen := &ssa.BinaryOp{Op: ssa.OpAdd, X: length, Y: b.intConst(1), Typ: i64Type}
	b.emit(newLen)
	lenField := &ssa.GetElementPtr{Base: slicePtr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(lenField)
	b.emit(&ssa.Store{Addr: lenField, Val: newLen})
	trueConst := b.Mod.NewConst(boolType, ssa.ExactValue{Kind: ssa.ExactBool, Bool: true})
	b.jump(join)

	b.startBlock(full)
	falseConst := b.Mod.NewConst(boolType, ssa.ExactValue{Kind: ssa.ExactBool, Bool: false})
	b.jump(join)

	b.startBlock(join)
	phi := &ssa.Phi{Edges: []ssa.Value{trueConst, falseConst}, Typ: boolType}
	b.emit(phi)
	return phi
}

// builtinSwizzle lowers `swizzle(v, i0, i1, ...)` to a ShuffleVector
// with a constant-folded lane mask.
func (b *Builder) builtinSwizzle(n *ast.CallExpr) ssa.Value {
	v := b.BuildExpr(n.Args[0])
	mask := make([]int64, 0, len(n.Args)-1)
	for _, a := range n.Args[1:] {
		info := b.Tables.TypeOf(a)
		if info.Exact == nil {
			b.ice(a, "swizzle lane index must be constant")
		}
		mask = append(mask, info.Exact.Int)
	}
	vecType, ok := types.Underlying(b.exprType(n.Args[0])).(*types.Vector)
	if !ok {
		b.ice(n, "swizzle argument is not a vector")
	}
	result := &types.Vector{Elem: vecType.Elem, Lanes: int64(len(mask))}
	shuf := &ssa.ShuffleVector{X: v, Mask: mask, Typ: result}
	b.emit(shuf)
	return shuf
}

// builtinSlicePtr lowers `slice_ptr(s)` to a load of the slice
// header's backing-pointer field.
func (b *Builder) builtinSlicePtr(n *ast.CallExpr) ssa.Value {
	lv := b.BuildAddr(n.Args[0])
	sliceType, ok := types.Underlying(lv.Elem).(*types.Slice)
	if !ok {
		b.ice(n, "slice_ptr argument is not a slice")
	}
	return b.loadSliceField(lv, 0, &types.Pointer{Elem: sliceType.Elem})
}

// builtinMin/builtinMax lower to a Select rather than a branch.
func (b *Builder) builtinMin(n *ast.CallExpr) ssa.Value { return b.selectCmp(n, ssa.OpCmpLt) }
func (b *Builder) builtinMax(n *ast.CallExpr) ssa.Value { return b.selectCmp(n, ssa.OpCmpGt) }

func (b *Builder) selectCmp(n *ast.CallExpr, op ssa.BinOp) ssa.Value {
	x := b.BuildExpr(n.Args[0])
	y := b.BuildExpr(n.Args[1])
	t := b.exprType(n.Args[0])
	cmp := &ssa.BinaryOp{Op: op, X: x, Y: y, Typ: boolType}
	b.emit(cmp)
	sel := &ssa.Select{Cond: cmp, T: x, F: y, Typ: t}
	b.emit(sel)
	return sel
}

// builtinAbs lowers `abs(x)` to a Select between x and its negation.
func (b *Builder) builtinAbs(n *ast.CallExpr) ssa.Value {
	x := b.BuildExpr(n.Args[0])
	t := b.exprType(n.Args[0])
	zero := b.Mod.NewConst(t, ssa.ExactValue{Kind: ssa.ExactInt, Int: 0})
	neg := &ssa.BinaryOp{Op: ssa.OpSub, X: zero, Y: x, Typ: t}
	b.emit(neg)
	cmp := &ssa.BinaryOp{Op: ssa.OpCmpLt, X: x, Y: zero, Typ: boolType}
	b.emit(cmp)
	sel := &ssa.Select{Cond: cmp, T: neg, F: x, Typ: t}
	b.emit(sel)
	return sel
}

// builtinEnumToString lowers `enum_to_string(x)` to the
// __enum_to_string runtime call.
func (b *Builder) builtinEnumToString(n *ast.CallExpr) ssa.Value {
	x := b.BuildExpr(n.Args[0])
	t := b.exprType(n.Args[0])
	idx, _ := b.Tables.TypeInfoIndex(t)
	tinfo := b.builtinTypeInfoFor(idx)
	asI64 := b.emitConv(n.Args[0], x, t, i64Type)
	callee := b.externProc(rtabi.EnumToString)
	call := &ssa.Call{Callee: callee, Args: []ssa.Value{tinfo, asI64}, Typ: stringType}
	b.emit(call)
	return call
}

func (b *Builder) builtinTypeInfoFor(idx checker.TypeInfoIndex) ssa.Value {
	table := b.externProc(rtabi.TypeInfoData)
	gep := &ssa.GetElementPtr{Base: table, Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(idx))}, Typ: anyPtrType}
	b.emit(gep)
	load := &ssa.Load{Addr: gep, Typ: anyType}
	b.emit(load)
	return load
}

// builtinPtrOffset/builtinPtrSub are the supplemented builtin
// spellings of pointer arithmetic, lowered through the same
// ptrArith/ptrDiff emitters as the `ptr + i` and `p - q` operator forms.
func (b *Builder) builtinPtrOffset(n *ast.CallExpr) ssa.Value {
	ptr := b.BuildExpr(n.Args[0])
	idx := b.BuildExpr(n.Args[1])
	t := b.exprType(n)
	return b.ptrArith(ast.OpAdd, ptr, idx, t)
}

func (b *Builder) builtinPtrSub(n *ast.CallExpr) ssa.Value {
	a := b.BuildExpr(n.Args[0])
	bv := b.BuildExpr(n.Args[1])
	elem := i64Type
	if pt, ok := types.Underlying(b.exprType(n.Args[0])).(*types.Pointer); ok {
		elem = pt.Elem
	}
	return b.ptrDiff(a, bv, elem, i64Type)
}

var anyType types.Type = types.Any{}
var anyPtrType types.Type = &types.Pointer{Elem: types.Any{}}
var stringType types.Type = types.NewBasic(types.String, "string")
var rawptrType types.Type = types.NewBasic(types.Rawptr, "rawptr")
