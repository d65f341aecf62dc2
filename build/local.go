package build

import (
	"github.com/ssalang/ssacore/checker"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// NewLocal creates a stack slot: a Local
// declaration always lives in Proc.DeclBlock (invariant 3), regardless
// of which block is currently open, immediately followed by a
// ZeroInit emitted at the *current* emission cursor so the zeroing
// happens in program order even though the slot itself is hoisted.
func (b *Builder) NewLocal(name string, elemType types.Type) *ssa.Local {
	local := &ssa.Local{Name: name, Typ: &types.Pointer{Elem: elemType}}
	local.SetIndexUnset()
	b.Proc.DeclBlock.Append(local)

	zi := &ssa.ZeroInit{Addr: local}
	b.emit(zi)
	return local
}

// bindVar records local as the addressable storage for entity, so
// later Ident reads/writes resolve through it.
func (b *Builder) bindVar(entity checker.Entity, local *ssa.Local) {
	b.vars[entity] = local
}
