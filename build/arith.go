package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

var binOpTable = map[ast.BinOp]ssa.BinOp{
	ast.OpAdd: ssa.OpAdd,
	ast.OpSub: ssa.OpSub,
	ast.OpMul: ssa.OpMul,
	ast.OpQuo: ssa.OpQuo,
	ast.OpRem: ssa.OpRem,
	ast.OpAnd: ssa.OpAnd,
	ast.OpOr:  ssa.OpOr,
	ast.OpXor: ssa.OpXor,
	ast.OpShl: ssa.OpShl,
	ast.OpShr: ssa.OpShr,
	ast.OpEq:  ssa.OpCmpEq,
	ast.OpNe:  ssa.OpCmpNe,
	ast.OpLt:  ssa.OpCmpLt,
	ast.OpLe:  ssa.OpCmpLe,
	ast.OpGt:  ssa.OpCmpGt,
	ast.OpGe:  ssa.OpCmpGe,
}

// emitArith lowers a primitive
// binary operator over two already-lowered, same-typed operands.
// Pointer arithmetic (`ptr +/- i`, the supplemented ptr_offset
// builtin) is lowered through GetElementPtr instead of BinaryOp,
// pointer difference (`p - q`, the ptr_sub builtin) through ptrDiff,
// and AndNot is expanded to `x & (y xor -1)` rather than modeled as its
// own opcode.
func (b *Builder) emitArith(n ast.Node, op ast.BinOp, x, y ssa.Value, resultType types.Type) ssa.Value {
	xPtr, xIsPtr := types.Underlying(x.Type()).(*types.Pointer)
	_, yIsPtr := types.Underlying(y.Type()).(*types.Pointer)

	if op == ast.OpSub && xIsPtr && yIsPtr {
		return b.ptrDiff(x, y, xPtr.Elem, resultType)
	}
	if _, ok := types.Underlying(resultType).(*types.Pointer); ok {
		if op == ast.OpAdd && !xIsPtr && yIsPtr {
			// integer + pointer commutes onto the pointer operand.
			x, y = y, x
		}
		if op == ast.OpAdd || op == ast.OpSub {
			return b.ptrArith(op, x, y, resultType)
		}
	}

	if op == ast.OpAndNot {
		allOnes := b.Mod.NewConst(resultType, ssa.ExactValue{Kind: ssa.ExactInt, Int: -1})
		notY := &ssa.BinaryOp{Op: ssa.OpXor, X: y, Y: allOnes, Typ: resultType}
		b.emit(notY)
		and := &ssa.BinaryOp{Op: ssa.OpAnd, X: x, Y: notY, Typ: resultType}
		b.emit(and)
		return and
	}

	ssaOp, ok := binOpTable[op]
	if !ok {
		b.ice(n, "unsupported binary operator")
	}
	isCmp := ssaOp >= ssa.OpCmpEq
	typ := resultType
	if isCmp {
		typ = boolType
	}
	bop := &ssa.BinaryOp{Op: ssaOp, X: x, Y: y, Typ: typ}
	b.emit(bop)
	return bop
}

// ptrArith lowers `ptr +/- i` to a GetElementPtr with a single
// (possibly negated) index, also the supplemented ptr_offset
// builtin's underlying instruction.
func (b *Builder) ptrArith(op ast.BinOp, x, y ssa.Value, resultType types.Type) ssa.Value {
	idx := y
	if op == ast.OpSub {
		neg := &ssa.BinaryOp{Op: ssa.OpSub, X: b.intConst(0), Y: y, Typ: i64Type}
		b.emit(neg)
		idx = neg
	}
	gep := &ssa.GetElementPtr{Base: x, Indices: []ssa.Value{idx}, Typ: resultType}
	b.emit(gep)
	return gep
}

// ptrDiff lowers `a - b` over two pointers: the integer address
// difference divided by the element size.
func (b *Builder) ptrDiff(x, y ssa.Value, elem types.Type, resultType types.Type) ssa.Value {
	xi := b.conv(ssa.ConvPtrToInt, x, resultType)
	yi := b.conv(ssa.ConvPtrToInt, y, resultType)
	diff := &ssa.BinaryOp{Op: ssa.OpSub, X: xi, Y: yi, Typ: resultType}
	b.emit(diff)
	size := elem.Size(b.Opts.Target)
	if size <= 1 {
		return diff
	}
	quo := &ssa.BinaryOp{Op: ssa.OpQuo, X: diff, Y: b.Mod.NewConst(resultType, ssa.ExactValue{Kind: ssa.ExactInt, Int: size}), Typ: resultType}
	b.emit(quo)
	return quo
}
