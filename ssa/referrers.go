package ssa

// propagateReferrers fills the def-use back-edges: for every
// instruction in every block, enumerate its operands; for
// each operand whose value kind maintains a referrers list (Global,
// Param, nested Proc, Local — see Referrable), push the instruction
// onto that list. Run once per end_procedure_body, after reachability
// pruning and block fusion have settled the final instruction set, so
// referrer lists never reference a dead instruction.
func propagateReferrers(f *Proc) {
	for _, b := range f.Blocks {
		for _, instr := range b.instrs {
			for _, op := range OperandsOf(instr) {
				if r, ok := op.(Referrable); ok {
					list := r.Referrers()
					*list = append(*list, instr)
				}
			}
		}
	}
}
