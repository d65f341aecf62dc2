package ssa

// liftLocals is the mem-to-register promotion pass: a later pass may
// promote Local/Load/Store triples to pure Phi-based SSA values. It
// is declared here, in the pipeline's natural slot, so that pass has
// a place to live, but is intentionally not called from
// EndProcedureBody yet.
//
// Modeled on the dominance-frontier phi-insertion approach in
// golang.org/x/tools/go/ssa/lift.go (Cytron, Ferrante, Rosen, Wegman,
// Zadeck): the intended policy, once implemented, is per local l:
//
//   - if l is never loaded, delete it and its stores;
//   - if l is never stored, replace every load with a Nil of l's
//     element type;
//   - if l is stored exactly once, replace every dominated load with
//     the stored value directly;
//   - otherwise, insert a Phi at each block in l's dominance frontier
//     and rewrite loads/stores to reference Phi edges instead of the
//     stack slot.
func liftLocals(f *Proc) {
	_ = f
}
