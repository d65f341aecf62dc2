package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// OperandsOf returns exactly the values appearing
// in an instruction's payload, in payload-field order; the no-operand
// kinds return nothing.
func TestOperandsOfFieldOrder(t *testing.T) {
	m := newTestModule()
	v1 := m.NewConst(i32, ExactValue{Kind: ExactInt, Int: 1})
	v2 := m.NewConst(i32, ExactValue{Kind: ExactInt, Int: 2})
	v3 := m.NewConst(i32, ExactValue{Kind: ExactInt, Int: 3})

	tests := []struct {
		name  string
		instr Instruction
		want  []Value
	}{
		{"store", &Store{Addr: v1, Val: v2}, []Value{v1, v2}},
		{"load", &Load{Addr: v1, Typ: i32}, []Value{v1}},
		{"zeroinit", &ZeroInit{Addr: v1}, []Value{v1}},
		{"gep", &GetElementPtr{Base: v1, Indices: []Value{v2, v3}}, []Value{v1, v2, v3}},
		{"extractvalue", &ExtractValue{Agg: v1, Index: 0, Typ: i32}, []Value{v1}},
		{"insertvalue", &InsertValue{Agg: v1, Elem: v2, Index: 0}, []Value{v1, v2}},
		{"conv", &Conv{Sub: ConvZext, X: v1, Typ: i32}, []Value{v1}},
		{"select", &Select{Cond: v1, T: v2, F: v3, Typ: i32}, []Value{v1, v2, v3}},
		{"phi", &Phi{Edges: []Value{v1, v2}, Typ: i32}, []Value{v1, v2}},
		{"binop", &BinaryOp{Op: OpAdd, X: v1, Y: v2, Typ: i32}, []Value{v1, v2}},
		{"call", &Call{Callee: v1, Args: []Value{v2, v3}}, []Value{v1, v2, v3}},
		{"ret", &Ret{Results: []Value{v1}}, []Value{v1}},
		{"condbr", &Br{Cond: v1, Targets: nil}, []Value{v1}},
		{"extractelement", &ExtractElement{Vec: v1, Index: v2, Typ: i32}, []Value{v1, v2}},
		{"insertelement", &InsertElement{Vec: v1, Elem: v2, Index: v3}, []Value{v1, v2, v3}},
		{"shuffle2", &ShuffleVector{X: v1, Y: v2}, []Value{v1, v2}},
		{"shuffle1", &ShuffleVector{X: v1}, []Value{v1}},

		{"br", &Br{Targets: nil}, nil},
		{"local", &Local{Name: "x"}, nil},
		{"comment", &Comment{Text: "note"}, nil},
		{"noop", &NoOp{}, nil},
		{"unreachable", &Unreachable{}, nil},
		{"startup", &StartupRuntime{}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := OperandsOf(tc.instr)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

// CloneInstr must hand back a distinct instruction with the same
// operands and no block, so a defer template can replay into several
// blocks without violating single-ownership.
func TestCloneInstrDetached(t *testing.T) {
	m := newTestModule()
	v1 := m.NewConst(i32, ExactValue{Kind: ExactInt, Int: 1})
	v2 := m.NewConst(i32, ExactValue{Kind: ExactInt, Int: 2})

	p := m.NewProc("host", simpleSig(), nil)
	blk := p.NewBlock("entry")
	orig := &Store{Addr: v1, Val: v2}
	orig.SetIndexUnset()
	blk.Append(orig)

	clone := CloneInstr(orig)
	if clone == Instruction(orig) {
		t.Fatal("clone must be a fresh instruction")
	}
	assert.Nil(t, clone.Block())
	assert.Equal(t, OperandsOf(orig), OperandsOf(clone))
	assert.Equal(t, -1, clone.Index())
}
