package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/checker"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// builtinNames is the set of identifier names BuildExpr's CallExpr
// case special-cases instead of resolving to a callable Proc/Global.
var builtinNames = map[string]func(*Builder, *ast.CallExpr) ssa.Value{
	"type_info":        (*Builder).builtinTypeInfo,
	"type_info_of_val": (*Builder).builtinTypeInfoOfVal,
	"new":              (*Builder).builtinNew,
	"new_slice":        (*Builder).builtinNewSlice,
	"assert":           (*Builder).builtinAssert,
	"panic":            (*Builder).builtinPanic,
	"copy":             (*Builder).builtinCopy,
	"append":           (*Builder).builtinAppend,
	"swizzle":          (*Builder).builtinSwizzle,
	"slice_ptr":        (*Builder).builtinSlicePtr,
	"min":              (*Builder).builtinMin,
	"max":              (*Builder).builtinMax,
	"abs":              (*Builder).builtinAbs,
	"enum_to_string":   (*Builder).builtinEnumToString,
	"ptr_offset":       (*Builder).builtinPtrOffset,
	"ptr_sub":          (*Builder).builtinPtrSub,
}

// buildCall dispatches a CallExpr to either a builtin handler or
// general procedure-call lowering, distinguished by the resolved
// mode of the callee identifier.
func (b *Builder) buildCall(n *ast.CallExpr) ssa.Value {
	if id, ok := n.Fun.(*ast.Ident); ok {
		if info := b.Tables.TypeOf(id); info.Mode == checker.ModeBuiltin {
			if fn, ok := builtinNames[id.Name]; ok {
				return fn(b, n)
			}
		}
	}
	return b.buildOrdinaryCall(n)
}

// buildOrdinaryCall lowers a call to a resolved procedure value,
// converting each argument to its declared parameter type, passing a
// trailing "..." spread through unchanged or packing excess positional
// arguments into a freshly built variadic slice, and — for a multi-result callee used as a single
// expression — returning the Call's Tuple-typed value directly
// (destructuring happens at the assignment site, see stmt_assign.go).
func (b *Builder) buildOrdinaryCall(n *ast.CallExpr) ssa.Value {
	callee := b.BuildExpr(n.Fun)
	sig := b.calleeSig(n.Fun)

	args := make([]ssa.Value, 0, len(n.Args))
	fixed := len(sig.Params)
	if sig.Variadic {
		fixed--
	}
	for i := 0; i < fixed && i < len(n.Args); i++ {
		v := b.BuildExpr(n.Args[i])
		args = append(args, b.emitConv(n.Args[i], v, b.exprType(n.Args[i]), sig.Params[i]))
	}
	if sig.Variadic {
		args = append(args, b.packVariadic(n, sig))
	}

	resultType := resultTypeOf(sig)
	call := &ssa.Call{Callee: callee, Args: args, Typ: resultType}
	b.emit(call)
	return call
}

func resultTypeOf(sig *types.Proc) types.Type {
	switch len(sig.Results) {
	case 0:
		return types.Void{}
	case 1:
		return sig.Results[0]
	default:
		return &types.Tuple{Elems: sig.Results}
	}
}

func (b *Builder) calleeSig(fun ast.Expr) *types.Proc {
	t := b.exprType(fun)
	if sig, ok := t.(*types.Proc); ok {
		return sig
	}
	b.ice(fun, "callee is not a procedure type")
	return &types.Proc{}
}

// packVariadic builds the synthesized trailing array argument for a
// variadic call: a direct pass-through if the source used "...", else
// a freshly materialized array of the excess positional arguments.
func (b *Builder) packVariadic(n *ast.CallExpr, sig *types.Proc) ssa.Value {
	elemType := sig.Params[len(sig.Params)-1]
	if slice, ok := types.Underlying(elemType).(*types.Slice); ok {
		elemType = slice.Elem
	}

	fixed := len(sig.Params) - 1
	trailing := n.Args[fixed:]

	if n.HasSpread && len(trailing) == 1 {
		return b.BuildExpr(trailing[0])
	}

	arrType := &types.Array{Elem: elemType, Len: int64(len(trailing))}
	local := b.NewLocal("", arrType)
	for i, arg := range trailing {
		v := b.BuildExpr(arg)
		v = b.emitConv(arg, v, b.exprType(arg), elemType)
		gep := &ssa.GetElementPtr{
			Base:    local,
			Indices: []ssa.Value{b.int32Const(0), b.int32Const(int64(i))},
			Typ:     &types.Pointer{Elem: elemType},
		}
		b.emit(gep)
		st := &ssa.Store{Addr: gep, Val: v}
		b.emit(st)
	}

	// The callee sees a slice, not the raw array: build a header over
	// the synthesized array and pass the loaded header.
	count := b.intConst(int64(len(trailing)))
	first := &ssa.GetElementPtr{Base: local, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: elemType}}
	b.emit(first)
	sliceType := &types.Slice{Elem: elemType}
	hdr := b.NewLocal("", sliceType)
	ptrField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: &types.Pointer{Elem: elemType}}}
	b.emit(ptrField)
	b.emit(&ssa.Store{Addr: ptrField, Val: first})
	lenField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(lenField)
	b.emit(&ssa.Store{Addr: lenField, Val: count})
	capField := &ssa.GetElementPtr{Base: hdr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(2)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(capField)
	b.emit(&ssa.Store{Addr: capField, Val: count})

	load := &ssa.Load{Addr: hdr, Typ: sliceType}
	b.emit(load)
	return load
}
