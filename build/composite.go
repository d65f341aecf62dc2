package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// buildComposite lowers a `T{...}` composite literal: a
// Local of T's type, zero-initialized (already done by NewLocal), then
// one Store per element — by position or by field name — followed by
// a Load to hand back the materialized value. Constant composites are
// instead expected to have been folded to ssa.ConstSlice/ssa.Const by
// the checker before lowering reaches here; this path covers the
// general, partially-dynamic case.
func (b *Builder) buildComposite(n *ast.CompositeLit, t types.Type) ssa.Value {
	switch u := types.Underlying(t).(type) {
	case *types.Struct:
		return b.buildStructComposite(n, t, u)
	case *types.Array:
		return b.buildArrayComposite(n, t, u)
	case *types.Vector:
		return b.buildVectorComposite(n, t, u)
	case *types.Union:
		return b.buildUnionComposite(n, t, u)
	}
	b.ice(n, "composite literal of unsupported type")
	return nil
}

func (b *Builder) buildStructComposite(n *ast.CompositeLit, t types.Type, st *types.Struct) ssa.Value {
	local := b.NewLocal("", t)
	for i, el := range n.Elems {
		idx := i
		if el.Name != "" {
			fi, ok := st.FieldIndex(el.Name)
			if !ok {
				b.ice(n, "unknown field %q", el.Name)
			}
			idx = fi
		}
		field := st.Fields[idx]
		val := b.BuildExpr(el.Value)
		val = b.emitConv(el.Value, val, b.exprType(el.Value), field.Type)
		gep := &ssa.GetElementPtr{
			Base:    local,
			Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(idx))},
			Typ:     &types.Pointer{Elem: field.Type},
		}
		b.emit(gep)
		store := &ssa.Store{Addr: gep, Val: val}
		b.emit(store)
	}
	load := &ssa.Load{Addr: local, Typ: t}
	b.emit(load)
	return load
}

func (b *Builder) buildArrayComposite(n *ast.CompositeLit, t types.Type, arr *types.Array) ssa.Value {
	local := b.NewLocal("", t)
	for i, el := range n.Elems {
		val := b.BuildExpr(el.Value)
		val = b.emitConv(el.Value, val, b.exprType(el.Value), arr.Elem)
		gep := &ssa.GetElementPtr{
			Base:    local,
			Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(i))},
			Typ:     &types.Pointer{Elem: arr.Elem},
		}
		b.emit(gep)
		store := &ssa.Store{Addr: gep, Val: val}
		b.emit(store)
	}
	load := &ssa.Load{Addr: local, Typ: t}
	b.emit(load)
	return load
}

// buildVectorComposite additionally recognizes the one-element literal
// shorthand (`#[4]f32{x}` broadcasts x across every lane)
// by routing through the same InsertElement/ShuffleVector idiom
// emitConv's broadcast path uses.
func (b *Builder) buildVectorComposite(n *ast.CompositeLit, t types.Type, vec *types.Vector) ssa.Value {
	if len(n.Elems) == 1 {
		val := b.BuildExpr(n.Elems[0].Value)
		return b.broadcast(val, vec)
	}
	base := b.Mod.NewConst(t, ssa.ExactValue{})
	cur := ssa.Value(base)
	for i, el := range n.Elems {
		val := b.BuildExpr(el.Value)
		val = b.emitConv(el.Value, val, b.exprType(el.Value), vec.Elem)
		ins := &ssa.InsertElement{Vec: cur, Elem: val, Index: b.intConst(int64(i))}
		b.emit(ins)
		cur = ins
	}
	return cur
}

// buildUnionComposite lowers `U{field: x}` by storing the payload
// (raw_union access, reusing the struct_gep machinery against an
// implicit {payload, tag} pair) and a constant tag.
func (b *Builder) buildUnionComposite(n *ast.CompositeLit, t types.Type, u *types.Union) ssa.Value {
	local := b.NewLocal("", t)
	if len(n.Elems) != 1 {
		b.ice(n, "union literal must set exactly one variant")
	}
	el := n.Elems[0]
	tagIdx := 0
	if el.Name != "" {
		for i, v := range u.Variants {
			if v.String() == el.Name {
				tagIdx = i
			}
		}
	}
	variant := u.Variants[tagIdx]
	val := b.BuildExpr(el.Value)
	val = b.emitConv(el.Value, val, b.exprType(el.Value), variant)

	payload := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: variant}}
	b.emit(payload)
	store := &ssa.Store{Addr: payload, Val: val}
	b.emit(store)

	tagField := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(tagField)
	tagStore := &ssa.Store{Addr: tagField, Val: b.intConst(int64(tagIdx))}
	b.emit(tagStore)

	load := &ssa.Load{Addr: local, Typ: t}
	b.emit(load)
	return load
}
