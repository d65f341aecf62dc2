package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// After finalization every instruction with a
// usable result carries a unique, strictly positive register index;
// void instructions stay unnumbered.
func TestRegisterNumbering(t *testing.T) {
	m := newTestModule()
	p := m.NewProc("numbered", simpleSig(), nil)
	p.DeclBlock = p.NewBlock("decl")
	entry := p.NewBlock("entry")
	p.EntryBlock = entry

	c := m.NewConst(i32, ExactValue{Kind: ExactInt, Int: 5})
	add := &BinaryOp{Op: OpAdd, X: c, Y: c, Typ: i32}
	add.SetIndexUnset()
	entry.Append(add)
	mul := &BinaryOp{Op: OpMul, X: add, Y: c, Typ: i32}
	mul.SetIndexUnset()
	entry.Append(mul)
	ret := &Ret{Results: []Value{mul}}
	ret.SetIndexUnset()
	entry.Append(ret)

	EndProcedureBody(p)

	seen := make(map[int]bool)
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instrs() {
			if instr.Type() == voidType {
				assert.Equal(t, -1, instr.Index(), "void instructions stay unnumbered")
				continue
			}
			idx := instr.Index()
			assert.Greater(t, idx, 0, "register ids are strictly positive")
			assert.False(t, seen[idx], "register ids are unique")
			seen[idx] = true
		}
	}
	assert.NotEmpty(t, seen)
}

// Re-numbering from a fresh counter is idempotent: the assignment only
// depends on final block/instruction order.
func TestRegisterNumberingIdempotent(t *testing.T) {
	m := newTestModule()
	p := buildLinearProc(m)
	EndProcedureBody(p)

	first := make(map[Instruction]int)
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instrs() {
			first[instr] = instr.Index()
		}
	}
	numberRegisters(p)
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instrs() {
			assert.Equal(t, first[instr], instr.Index())
		}
	}
}
