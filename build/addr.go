package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// LValue is the address-plus-type pair BuildAddr produces.
// The common case is a single pointer Value; vectorElem additionally
// carries the lane index for `vec[i] = x`, which has no single
// addressable GEP result (a vector lane isn't individually
// addressable memory) and instead needs a read-modify-InsertElement-
// write sequence at the assignment site.
type LValue struct {
	Addr       ssa.Value // nil for the vector-lane case
	Elem       types.Type
	VectorAddr ssa.Value // set only for a vector-lane LValue
	LaneIndex  ssa.Value
}

// IsVectorLane reports whether this LValue addresses a single lane of
// a vector rather than ordinary memory.
func (lv LValue) IsVectorLane() bool { return lv.Addr == nil && lv.VectorAddr != nil }

// BuildAddr lowers an expression used in l-value position: the target
// of an assignment, the operand of &x, or the receiver of a method-
// style selector chain.
func (b *Builder) BuildAddr(e ast.Expr) LValue {
	switch n := e.(type) {
	case *ast.Ident:
		return b.addrIdent(n)
	case *ast.SelectorExpr:
		return b.addrSelector(n)
	case *ast.IndexExpr:
		return b.addrIndex(n)
	case *ast.UnaryExpr:
		if n.Op == ast.OpDeref {
			addr := b.BuildExpr(n.X)
			return LValue{Addr: addr, Elem: types.Deref(types.Underlying(b.exprType(n.X)))}
		}
	case *ast.ParenExpr:
		return b.BuildAddr(n.X)
	}
	b.ice(e, "expression is not addressable")
	return LValue{}
}

func (b *Builder) addrIdent(n *ast.Ident) LValue {
	ent, ok := b.Tables.Uses(n)
	if !ok {
		b.ice(n, "unresolved identifier %q", n.Name)
	}
	if v, ok := b.Mod.ValueOf(ent); ok {
		if g, ok := v.(*ssa.Global); ok {
			return LValue{Addr: g, Elem: ent.Type()}
		}
	}
	local, ok := b.vars[ent]
	if !ok {
		b.ice(n, "identifier %q has no bound storage", n.Name)
	}
	return LValue{Addr: local, Elem: ent.Type()}
}

// addrSelector lowers `x.Field`, chaining struct_gep computations
// through nested selectors.
func (b *Builder) addrSelector(n *ast.SelectorExpr) LValue {
	base := b.BuildAddr(n.X)
	st, ok := types.Underlying(base.Elem).(*types.Struct)
	if !ok {
		if tup, ok := types.Underlying(base.Elem).(*types.Tuple); ok {
			st = &types.Struct{Fields: tupleFields(tup)}
		} else {
			b.ice(n, "selector base is not a struct")
		}
	}
	idx, ok := st.FieldIndex(n.Sel)
	if !ok {
		b.ice(n, "unknown field %q", n.Sel)
	}
	fieldType := st.Fields[idx].Type
	gep := &ssa.GetElementPtr{
		Base:    base.Addr,
		Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(idx))},
		Typ:     &types.Pointer{Elem: fieldType},
	}
	b.emit(gep)
	return LValue{Addr: gep, Elem: fieldType}
}

func tupleFields(t *types.Tuple) []types.Field {
	fields := make([]types.Field, len(t.Elems))
	for i, e := range t.Elems {
		fields[i] = types.Field{Type: e}
	}
	return fields
}

// addrIndex lowers `x[i]`, distinguishing array/slice addressing
// (ordinary GEP, with an optional bounds check) from vector addressing
// (no single addressable lane).
func (b *Builder) addrIndex(n *ast.IndexExpr) LValue {
	base := b.BuildAddr(n.X)
	idx := b.BuildExpr(n.Index)

	switch u := types.Underlying(base.Elem).(type) {
	case *types.Array:
		b.emitBoundsCheck(n, idx, b.arrayLen(u))
		gep := &ssa.GetElementPtr{
			Base:    base.Addr,
			Indices: []ssa.Value{b.int32Const(0), idx},
			Typ:     &types.Pointer{Elem: u.Elem},
		}
		b.emit(gep)
		return LValue{Addr: gep, Elem: u.Elem}
	case *types.Slice:
		ptr := b.loadSliceField(base, 0, &types.Pointer{Elem: u.Elem})
		length := b.loadSliceField(base, 1, i64Type)
		b.emitBoundsCheck(n, idx, length)
		gep := &ssa.GetElementPtr{
			Base:    ptr,
			Indices: []ssa.Value{idx},
			Typ:     &types.Pointer{Elem: u.Elem},
		}
		b.emit(gep)
		return LValue{Addr: gep, Elem: u.Elem}
	case *types.Vector:
		return LValue{VectorAddr: base.Addr, LaneIndex: idx, Elem: u.Elem}
	}
	b.ice(n, "indexing unsupported base type")
	return LValue{}
}

func (b *Builder) arrayLen(a *types.Array) ssa.Value {
	return b.intConst(a.Len)
}

// loadSliceField reads the ptr(0)/len(1)/cap(2) header field out of a
// slice lvalue.
func (b *Builder) loadSliceField(base LValue, index int, fieldType types.Type) ssa.Value {
	gep := &ssa.GetElementPtr{
		Base:    base.Addr,
		Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(index))},
		Typ:     &types.Pointer{Elem: fieldType},
	}
	b.emit(gep)
	load := &ssa.Load{Addr: gep, Typ: fieldType}
	b.emit(load)
	return load
}

var (
	i64Type types.Type = types.NewBasic(types.Int64, "int64")
	i32Type types.Type = types.NewBasic(types.Int32, "int32")
)

func (b *Builder) intConst(v int64) ssa.Value {
	return b.Mod.NewConst(i64Type, ssa.ExactValue{Kind: ssa.ExactInt, Int: v})
}

// int32Const is the index width struct_gep uses: a leading zero plus
// 32-bit field indices, the LLVM legacy convention.
// Dynamic element indices stay 64-bit.
func (b *Builder) int32Const(v int64) ssa.Value {
	return b.Mod.NewConst(i32Type, ssa.ExactValue{Kind: ssa.ExactInt, Int: v})
}

// exprType is a thin wrapper over the checker's TypeOf for expression
// nodes that BuildAddr needs the static type of without a full lowering.
func (b *Builder) exprType(e ast.Expr) types.Type {
	return b.Tables.TypeOf(e).Type
}
