// Package build lowers a checked AST into ssa.Module/ssa.Proc form:
// the procedure builder, expression and address lowering, and
// statement lowering. It is the integration point
// between package ast's input surface, package checker's read-only
// semantic tables, and package ssa's data model.
//
// Modeled on cmd/internal/gc/ssa.go's ssaState/buildssa split: a
// Builder here plays the role ssaState played there, and emit plays
// the role s.expr/s.stmt played in feeding the current block.
package build

import (
	"github.com/sirupsen/logrus"

	"github.com/ssalang/ssacore/types"
)

// Options configures a lowering run.
// Mirrors the small-struct-of-knobs shape cmd/internal/gc threads
// through its compiler phases, rather than a
// long positional-argument builder function.
type Options struct {
	// Target carries pointer-width/endianness facts GEP math and
	// conversion typing need.
	Target *types.TargetInfo
	// EmitDebugInfo gates ssa.Module.DebugInfo population.
	EmitDebugInfo bool
	// BoundsCheck is the module's initial statement-state; a
	// BinaryExpr with NoBoundsChk set overrides it locally by pushing
	// and popping the module statement-state around its own lowering.
	BoundsCheck bool
	// Logger receives pass-boundary and per-procedure trace entries.
	// Defaults to logrus.StandardLogger() if nil.
	Logger *logrus.Logger
}

func (o *Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}
