package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/rtabi"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// emitConv is the implicit-conversion table: given a value
// already lowered to its source type, produce (possibly emitting a
// Conv instruction) a value of dst. Identical types are a no-op.
// Modeled on the trunc/zext/fptrunc/... dispatch table cmd/compile's
// SSA backend builds for Go's own numeric conversions, generalized to
// this language's conversion set. Constant operands get no special
// case: a Const is not re-materialized as a new constant of dst, it
// goes through the same Conv-emitting paths as any other value.
func (b *Builder) emitConv(n ast.Node, v ssa.Value, src, dst types.Type) ssa.Value {
	if types.Identical(src, dst) {
		return v
	}

	if _, isNil := v.(*ssa.Nil); isNil {
		return &ssa.Nil{Typ: dst}
	}

	if m, ok := types.Underlying(dst).(*types.Maybe); ok {
		return b.maybeWrap(n, v, src, m, dst)
	}

	srcB, srcIsBasic := types.Underlying(src).(*types.Basic)
	dstB, dstIsBasic := types.Underlying(dst).(*types.Basic)

	if srcB != nil && srcB.K == types.Bool && dstB != nil && dstB.IsInteger() {
		return b.conv(ssa.ConvZext, v, dst)
	}
	if dstB != nil && dstB.K == types.Bool && srcB != nil && srcB.IsInteger() {
		zero := b.Mod.NewConst(src, ssa.ExactValue{Kind: ssa.ExactInt, Int: 0})
		ne := &ssa.BinaryOp{Op: ssa.OpCmpNe, X: v, Y: zero, Typ: boolType}
		b.emit(ne)
		return ne
	}

	if _, ok := types.Underlying(src).(*types.Pointer); ok {
		if _, ok := types.Underlying(dst).(*types.Pointer); ok {
			return b.conv(ssa.ConvBitcast, v, dst)
		}
	}
	if dstB != nil && dstB.K == types.Rawptr {
		if _, ok := types.Underlying(src).(*types.Pointer); ok {
			return b.conv(ssa.ConvPtrToInt, v, dst)
		}
	}
	if srcB != nil && srcB.K == types.Rawptr {
		if _, ok := types.Underlying(dst).(*types.Pointer); ok {
			return b.conv(ssa.ConvIntToPtr, v, dst)
		}
	}
	if _, srcProc := types.Underlying(src).(*types.Proc); srcProc {
		if _, dstProc := types.Underlying(dst).(*types.Proc); dstProc {
			return b.conv(ssa.ConvBitcast, v, dst)
		}
		if _, dstPtr := types.Underlying(dst).(*types.Pointer); dstPtr {
			return b.conv(ssa.ConvBitcast, v, dst)
		}
	}
	if _, srcPtr := types.Underlying(src).(*types.Pointer); srcPtr {
		if _, dstProc := types.Underlying(dst).(*types.Proc); dstProc {
			return b.conv(ssa.ConvBitcast, v, dst)
		}
	}

	if srcIsBasic && dstIsBasic {
		return b.convBasic(srcB, dstB, v, dst)
	}

	if union, ok := types.Underlying(dst).(*types.Union); ok {
		return b.unionHeader(v, src, dst, union)
	}

	if field, path, ok := findFieldOfType(src, dst); ok {
		return b.deepFieldExtract(v, src, field, path)
	}

	if vec, ok := types.Underlying(dst).(*types.Vector); ok {
		if types.Identical(src, vec.Elem) {
			return b.broadcast(v, vec)
		}
	}

	if b.isByteSliceString(src, dst) {
		return b.repackSliceString(v, src, dst)
	}

	if _, isAny := dst.(types.Any); isAny {
		return b.buildAnyValue(v, src)
	}

	b.ice(n, "unsupported conversion from %s to %s", src.String(), dst.String())
	return v
}

// maybeWrap converts the payload to the element type, then
// constructs the maybe(T) {value, true}
// aggregate through a spilled local the same way unionHeader builds a
// union's {payload, tag} pair.
func (b *Builder) maybeWrap(n ast.Node, v ssa.Value, src types.Type, m *types.Maybe, dst types.Type) ssa.Value {
	inner := b.emitConv(n, v, src, m.Elem)
	local := b.NewLocal("", dst)
	valField := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: m.Elem}}
	b.emit(valField)
	b.emit(&ssa.Store{Addr: valField, Val: inner})
	okField := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: boolType}}
	b.emit(okField)
	present := b.Mod.NewConst(boolType, ssa.ExactValue{Kind: ssa.ExactBool, Bool: true})
	b.emit(&ssa.Store{Addr: okField, Val: present})
	load := &ssa.Load{Addr: local, Typ: dst}
	b.emit(load)
	return load
}

// findFieldOfType handles structural-subtype polymorphism: if dst
// equals a field of the (possibly
// pointer-unwrapped) source struct, return that field's type and the
// GEP index path to reach it, searching embedded fields depth-first.
func findFieldOfType(src, dst types.Type) (types.Type, []int, bool) {
	st, ok := types.Underlying(types.Deref(src)).(*types.Struct)
	if !ok {
		return nil, nil, false
	}
	for i, f := range st.Fields {
		if types.Identical(f.Type, dst) {
			return f.Type, []int{i}, true
		}
	}
	for i, f := range st.Fields {
		if _, ok := types.Underlying(f.Type).(*types.Struct); ok {
			if ft, path, ok := findFieldOfType(f.Type, dst); ok {
				return ft, append([]int{i}, path...), true
			}
		}
	}
	return nil, nil, false
}

// deepFieldExtract walks path, GEP-then-Load'ing through a spilled
// copy of agg one field at a time.
func (b *Builder) deepFieldExtract(agg ssa.Value, aggType types.Type, fieldType types.Type, path []int) ssa.Value {
	local := b.NewLocal("", aggType)
	b.emit(&ssa.Store{Addr: local, Val: agg})
	addr := ssa.Value(local)
	cur := aggType
	for _, idx := range path {
		st := types.Underlying(types.Deref(cur)).(*types.Struct)
		f := st.Fields[idx]
		gep := &ssa.GetElementPtr{Base: addr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(idx))}, Typ: &types.Pointer{Elem: f.Type}}
		b.emit(gep)
		addr = gep
		cur = f.Type
	}
	load := &ssa.Load{Addr: addr, Typ: fieldType}
	b.emit(load)
	return load
}

// unionHeader constructs the union's {payload, tag} header for a
// child value converted to its parent union type.
func (b *Builder) unionHeader(v ssa.Value, src, dst types.Type, union *types.Union) ssa.Value {
	tagIdx := union.TagIndex(src)
	if tagIdx < 0 {
		tagIdx = 0
	}
	local := b.NewLocal("", dst)
	payload := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: src}}
	b.emit(payload)
	b.emit(&ssa.Store{Addr: payload, Val: v})
	tagField := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(tagField)
	b.emit(&ssa.Store{Addr: tagField, Val: b.intConst(int64(tagIdx))})
	load := &ssa.Load{Addr: local, Typ: dst}
	b.emit(load)
	return load
}

// isByteSliceString reports whether (src, dst) is the byte-slice<->string
// conversion pair.
func (b *Builder) isByteSliceString(src, dst types.Type) bool {
	isStr := func(t types.Type) bool {
		bt, ok := types.Underlying(t).(*types.Basic)
		return ok && bt.K == types.String
	}
	isByteSlice := func(t types.Type) bool {
		sl, ok := types.Underlying(t).(*types.Slice)
		if !ok {
			return false
		}
		bt, ok := types.Underlying(sl.Elem).(*types.Basic)
		return ok && bt.K == types.Uint8
	}
	return (isStr(src) && isByteSlice(dst)) || (isByteSlice(src) && isStr(dst))
}

// repackSliceString converts between byte slices and strings by
// element-pointer + length repackaging: it spills the source header
// and rebuilding the destination header field-by-field (both are
// {ptr, len, ...} layouts, see types.Basic.Size for string and
// types.Slice.Size).
func (b *Builder) repackSliceString(v ssa.Value, src, dst types.Type) ssa.Value {
	srcLocal := b.NewLocal("", src)
	b.emit(&ssa.Store{Addr: srcLocal, Val: v})

	byteType := types.NewBasic(types.Uint8, "u8")
	ptrField := &ssa.GetElementPtr{Base: srcLocal, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: &types.Pointer{Elem: byteType}}}
	b.emit(ptrField)
	ptr := &ssa.Load{Addr: ptrField, Typ: &types.Pointer{Elem: byteType}}
	b.emit(ptr)
	lenField := &ssa.GetElementPtr{Base: srcLocal, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(lenField)
	length := &ssa.Load{Addr: lenField, Typ: i64Type}
	b.emit(length)

	dstLocal := b.NewLocal("", dst)
	dstPtrField := &ssa.GetElementPtr{Base: dstLocal, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: &types.Pointer{Elem: byteType}}}
	b.emit(dstPtrField)
	b.emit(&ssa.Store{Addr: dstPtrField, Val: ptr})
	dstLenField := &ssa.GetElementPtr{Base: dstLocal, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(dstLenField)
	b.emit(&ssa.Store{Addr: dstLenField, Val: length})

	load := &ssa.Load{Addr: dstLocal, Typ: dst}
	b.emit(load)
	return load
}

// buildAnyValue materializes a value into the universal any
// container, {type_info_ptr, data_ptr}. The data pointer always spills v to a
// synthesized local here: emitConv only sees the already-lowered
// value, not the LValue BuildAddr would have produced for an
// addressable source, so reusing an existing load-address
// is left to callers that already hold an
// LValue (see BuildExpr's *ast.SelectorExpr case, which loads through
// BuildAddr directly rather than routing through here).
func (b *Builder) buildAnyValue(v ssa.Value, src types.Type) ssa.Value {
	idx, _ := b.Tables.TypeInfoIndex(src)
	table := b.externProc(rtabi.TypeInfoData)
	tiGep := &ssa.GetElementPtr{Base: table, Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(idx))}, Typ: anyPtrType}
	b.emit(tiGep)
	tiLoad := &ssa.Load{Addr: tiGep, Typ: anyType}
	b.emit(tiLoad)

	data := b.NewLocal("", src)
	b.emit(&ssa.Store{Addr: data, Val: v})

	local := b.NewLocal("", types.Any{})
	tiField := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: anyType}}
	b.emit(tiField)
	b.emit(&ssa.Store{Addr: tiField, Val: tiLoad})
	dataField := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: &types.Pointer{Elem: src}}}
	b.emit(dataField)
	b.emit(&ssa.Store{Addr: dataField, Val: data})

	load := &ssa.Load{Addr: local, Typ: types.Any{}}
	b.emit(load)
	return load
}

func (b *Builder) convBasic(srcB, dstB *types.Basic, v ssa.Value, dst types.Type) ssa.Value {
	switch {
	case srcB.IsInteger() && dstB.IsInteger():
		if dstB.Size(b.Opts.Target) < srcB.Size(b.Opts.Target) {
			return b.conv(ssa.ConvTrunc, v, dst)
		}
		if dstB.Size(b.Opts.Target) > srcB.Size(b.Opts.Target) {
			return b.conv(ssa.ConvZext, v, dst)
		}
		return b.conv(ssa.ConvBitcast, v, dst)
	case srcB.IsFloat() && dstB.IsFloat():
		if dstB.Size(b.Opts.Target) < srcB.Size(b.Opts.Target) {
			return b.conv(ssa.ConvFPTrunc, v, dst)
		}
		return b.conv(ssa.ConvFPExt, v, dst)
	case srcB.IsFloat() && dstB.IsInteger():
		if dstB.IsUnsigned() {
			return b.conv(ssa.ConvFPToUI, v, dst)
		}
		return b.conv(ssa.ConvFPToSI, v, dst)
	case srcB.IsInteger() && dstB.IsFloat():
		if srcB.IsUnsigned() {
			return b.conv(ssa.ConvUIToFP, v, dst)
		}
		return b.conv(ssa.ConvSIToFP, v, dst)
	}
	return b.conv(ssa.ConvBitcast, v, dst)
}

func (b *Builder) conv(kind ssa.ConvKind, v ssa.Value, dst types.Type) ssa.Value {
	c := &ssa.Conv{Sub: kind, X: v, Typ: dst}
	b.emit(c)
	return c
}

// broadcast lowers the vector-broadcast conversion shorthand (a scalar
// used where a vector is expected splats across every lane) via an
// InsertElement into lane 0 followed by an all-zero-mask
// ShuffleVector, the same two-instruction idiom LLVM-style backends
// use for a splat.
func (b *Builder) broadcast(v ssa.Value, vec *types.Vector) ssa.Value {
	base := b.Mod.NewConst(vec, ssa.ExactValue{})
	ins := &ssa.InsertElement{Vec: base, Elem: v, Index: b.intConst(0)}
	b.emit(ins)
	mask := make([]int64, vec.Lanes)
	shuf := &ssa.ShuffleVector{X: ins, Mask: mask, Typ: vec}
	b.emit(shuf)
	return shuf
}
