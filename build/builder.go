package build

import (
	"github.com/sirupsen/logrus"

	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/checker"
	"github.com/ssalang/ssacore/internal/ice"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// Builder drives the lowering of one procedure body, the way
// ssaState does for one Go function in cmd/internal/gc. A fresh
// Builder is created per procedure; Module state (the arenas, the
// entity/value tables) lives on the shared *ssa.Module instead.
type Builder struct {
	Mod    *ssa.Module
	Tables checker.Tables
	Opts   Options
	log    *logrus.Entry

	Proc *ssa.Proc

	// vars maps a local variable's Entity to the Local instruction that
	// holds its address, the read side of NewLocal's decl_block/entry
	// split.
	vars map[checker.Entity]*ssa.Local
}

// NewBuilder constructs a Builder for lowering procedure bodies into
// mod, reading semantic facts from tables. The module's ambient
// statement-state starts out per opts.BoundsCheck.
func NewBuilder(mod *ssa.Module, tables checker.Tables, opts Options) *Builder {
	mod.SetBoundsCheck(opts.BoundsCheck)
	return &Builder{
		Mod:    mod,
		Tables: tables,
		Opts:   opts,
		log:    opts.logger().WithField("pass", "build"),
		vars:   make(map[checker.Entity]*ssa.Local),
	}
}

// ParamDecl pairs a declared parameter's source name with its resolved
// Entity, so reads of the parameter inside the body resolve to the
// backing Local bindParams creates. Entity may be nil for an unnamed
// or unused parameter.
type ParamDecl struct {
	Name   string
	Entity checker.Entity
}

// pos converts an ast.Pos to the ice package's leaf Position type.
func pos(p ast.Pos) ice.Position {
	return ice.Position{File: p.File, Line: p.Line, Col: p.Col}
}

// ice raises an internal-compiler-error at n's source position. Used
// for shapes the checker should have already ruled out.
func (b *Builder) ice(n ast.Node, format string, args ...any) {
	ice.Raise(pos(n.Pos()), format, args...)
}

// BuildProcedure lowers one procedure's full body: parameter/local
// setup, statement-list lowering, and final-return padding, then runs
// ssa.EndProcedureBody's CFG post-processing pipeline. A foreign procedure (body linked externally by name) gets no
// blocks at all. params/body come from the external checker/parser
// front-end (package ast).
func (b *Builder) BuildProcedure(proc *ssa.Proc, params []ParamDecl, body *ast.BlockStmt) {
	b.Proc = proc
	b.vars = make(map[checker.Entity]*ssa.Local)

	if proc.Flags&ssa.ProcForeign != 0 {
		b.log.WithField("proc", proc.Name).Debug("skipping foreign procedure body")
		return
	}
	b.log.WithField("proc", proc.Name).Debug("lowering procedure body")

	proc.DeclBlock = proc.NewBlock("decl")
	proc.EntryBlock = proc.NewBlock("entry")
	proc.CurrBlock = proc.EntryBlock

	if proc.Flags&ssa.ProcEntryPoint != 0 {
		b.emit(&ssa.StartupRuntime{})
	}

	b.bindParams(proc, params)

	if body != nil {
		b.recordDebugInfo(proc, body)
		// The body itself is scope depth 1, the procedure level: defers
		// registered here drain only at return.
		b.OpenScope()
		b.buildStmtList(body.List)
		b.CloseScope(ExitDefault)
	}

	b.padImplicitReturn(proc)

	ssa.EndProcedureBody(proc)
}

// bindParams creates one ssa.Param plus a backing Local per declared
// parameter, storing the incoming Param value through it so every
// subsequent read goes through a Load the same way a local variable
// would.
func (b *Builder) bindParams(proc *ssa.Proc, params []ParamDecl) {
	if proc.Sig == nil {
		return
	}
	for i, t := range proc.Sig.Params {
		var decl ParamDecl
		if i < len(params) {
			decl = params[i]
		}
		param := proc.AddParam(decl.Name, t)
		local := b.NewLocal(decl.Name, t)
		st := &ssa.Store{Addr: local, Val: param}
		b.emit(st)
		if decl.Entity != nil {
			b.bindVar(decl.Entity, local)
		}
	}
}

// recordDebugInfo appends this procedure's entry (and its file's, once)
// to the module debug-info tree when Options.EmitDebugInfo enabled it.
func (b *Builder) recordDebugInfo(proc *ssa.Proc, body *ast.BlockStmt) {
	di := b.Mod.DebugInfo
	if di == nil || !b.Opts.EmitDebugInfo {
		return
	}
	p := body.Pos()
	if f, ok := b.Tables.File(p.File); ok {
		seen := false
		for _, c := range di.Children {
			if c.Kind == ssa.DebugFile && c.Name == f.Name {
				seen = true
				break
			}
		}
		if !seen {
			di.AddFile(f.Name)
		}
	}
	di.AddProcedure(proc.Name, int(p.Line))
}

// padImplicitReturn appends a bare Ret to the current block if control
// can still fall off the end of the body.
// Pending procedure-level defers drain first, exactly as an explicit
// bare return would drain them.
func (b *Builder) padImplicitReturn(proc *ssa.Proc) {
	if proc.CurrBlock == nil || proc.CurrBlock.Terminator() != nil {
		return
	}
	b.unrollDefers(0)
	ret := &ssa.Ret{}
	b.emit(ret)
}

// emit appends instr to the procedure's current block, silently
// dropping it if the block is already terminated.
func (b *Builder) emit(instr ssa.Instruction) {
	cur := b.Proc.CurrBlock
	if cur == nil || cur.Terminator() != nil {
		return
	}
	instr.SetIndexUnset()
	cur.Append(instr)
}

// startBlock makes blk the emission cursor.
func (b *Builder) startBlock(blk *ssa.Block) { b.Proc.CurrBlock = blk }

// jump closes the current block with an unconditional branch to
// target, wiring the CFG edge.
func (b *Builder) jump(target *ssa.Block) {
	cur := b.Proc.CurrBlock
	if cur == nil || cur.Terminator() != nil {
		return
	}
	br := &ssa.Br{Targets: []*ssa.Block{target}}
	b.emit(br)
	ssa.AddEdge(cur, target)
}

// condJump closes the current block with a conditional branch.
func (b *Builder) condJump(cond ssa.Value, thenB, elseB *ssa.Block) {
	cur := b.Proc.CurrBlock
	if cur == nil || cur.Terminator() != nil {
		return
	}
	br := &ssa.Br{Cond: cond, Targets: []*ssa.Block{thenB, elseB}}
	b.emit(br)
	ssa.AddEdge(cur, thenB)
	ssa.AddEdge(cur, elseB)
}

// boolType is the fixed ssa-facing representation of a condition
// value; emit_conv always normalizes comparison/logical results to it.
var boolType types.Type = types.NewBasic(types.Bool, "bool")

// stringByteType is the element type of a synthesized string backing
// global.
var stringByteType types.Type = types.NewBasic(types.Uint8, "u8")

// voidTypeVal is the placeholder result type for calls to external
// runtime procedures that never return a usable value.
var voidTypeVal types.Type = types.Void{}
