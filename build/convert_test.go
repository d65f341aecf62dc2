package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// newConvHarness hand-builds just enough procedure state for emitConv
// to emit into, without running the whole BuildProcedure pipeline.
func newConvHarness() *Builder {
	tb := newFakeTables()
	b, mod := newTestBuilder(tb)
	p := mod.NewProc("conv", &types.Proc{}, nil)
	p.DeclBlock = p.NewBlock("decl")
	p.EntryBlock = p.NewBlock("entry")
	p.CurrBlock = p.EntryBlock
	b.Proc = p
	return b
}

var (
	tI32 = types.NewBasic(types.Int32, "i32")
	tI64 = types.NewBasic(types.Int64, "i64")
	tU64 = types.NewBasic(types.Uint64, "u64")
	tF32 = types.NewBasic(types.Float32, "f32")
	tF64 = types.NewBasic(types.Float64, "f64")
)

func dummyNode() ast.Node { return &ast.Ident{Name: "conv"} }

func constOf(b *Builder, tt types.Type) ssa.Value {
	return b.Mod.NewConst(tt, ssa.ExactValue{Kind: ssa.ExactInt, Int: 1})
}

func TestEmitConvScalarTable(t *testing.T) {
	cases := []struct {
		name string
		src  types.Type
		dst  types.Type
		want ssa.ConvKind
	}{
		{"int widen", tI32, tI64, ssa.ConvZext},
		{"int narrow", tI64, tI32, ssa.ConvTrunc},
		{"bool to int", tBool, tI64, ssa.ConvZext},
		{"float widen", tF32, tF64, ssa.ConvFPExt},
		{"float narrow", tF64, tF32, ssa.ConvFPTrunc},
		{"float to signed", tF64, tI64, ssa.ConvFPToSI},
		{"float to unsigned", tF64, tU64, ssa.ConvFPToUI},
		{"signed to float", tI64, tF64, ssa.ConvSIToFP},
		{"unsigned to float", tU64, tF64, ssa.ConvUIToFP},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newConvHarness()
			got := b.emitConv(dummyNode(), constOf(b, tc.src), tc.src, tc.dst)
			conv, ok := got.(*ssa.Conv)
			require.True(t, ok, "expected a Conv instruction")
			assert.Equal(t, tc.want, conv.Sub)
			assert.Equal(t, tc.dst, conv.Typ)
		})
	}
}

func TestEmitConvIdenticalPassThrough(t *testing.T) {
	b := newConvHarness()
	v := constOf(b, tI64)
	got := b.emitConv(dummyNode(), v, tI64, types.NewBasic(types.Int64, "i64"))
	assert.Equal(t, ssa.Value(v), got, "identical types convert to themselves")
	assert.Empty(t, b.Proc.EntryBlock.Instrs(), "no instruction for a no-op conversion")
}

func TestEmitConvIntToBool(t *testing.T) {
	b := newConvHarness()
	got := b.emitConv(dummyNode(), constOf(b, tI64), tI64, tBool)
	cmp, ok := got.(*ssa.BinaryOp)
	require.True(t, ok, "integer to bool compares against zero")
	assert.Equal(t, ssa.OpCmpNe, cmp.Op)
}

func TestEmitConvNilRetypes(t *testing.T) {
	b := newConvHarness()
	srcT := &types.Pointer{Elem: tI32}
	dstT := &types.Pointer{Elem: tI64}
	got := b.emitConv(dummyNode(), &ssa.Nil{Typ: srcT}, srcT, dstT)
	n, ok := got.(*ssa.Nil)
	require.True(t, ok)
	assert.Equal(t, types.Type(dstT), n.Typ)
}

func TestEmitConvPointerBitcast(t *testing.T) {
	b := newConvHarness()
	srcT := &types.Pointer{Elem: tI32}
	dstT := &types.Pointer{Elem: tI64}
	got := b.emitConv(dummyNode(), constOf(b, srcT), srcT, dstT)
	conv, ok := got.(*ssa.Conv)
	require.True(t, ok)
	assert.Equal(t, ssa.ConvBitcast, conv.Sub)
}

func TestEmitConvMaybeWraps(t *testing.T) {
	b := newConvHarness()
	dstT := &types.Maybe{Elem: tI64}
	got := b.emitConv(dummyNode(), constOf(b, tI64), tI64, dstT)
	load, ok := got.(*ssa.Load)
	require.True(t, ok, "maybe construction hands back the loaded aggregate")
	assert.Equal(t, types.Type(dstT), load.Typ)

	// The {value, true} construction stores both fields.
	stores := 0
	for _, instr := range b.Proc.EntryBlock.Instrs() {
		if _, ok := instr.(*ssa.Store); ok {
			stores++
		}
	}
	assert.Equal(t, 2, stores)
}

func TestEmitConvBroadcast(t *testing.T) {
	b := newConvHarness()
	vec := &types.Vector{Elem: tF32, Lanes: 4}
	got := b.emitConv(dummyNode(), constOf(b, tF32), tF32, vec)
	shuf, ok := got.(*ssa.ShuffleVector)
	require.True(t, ok, "a scalar broadcasts via InsertElement plus ShuffleVector")
	assert.Len(t, shuf.Mask, 4)
	for _, lane := range shuf.Mask {
		assert.Zero(t, lane, "broadcast uses the all-zero mask")
	}
}
