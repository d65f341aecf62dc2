package ssa

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// WriteFunc dumps a procedure's CFG and instructions in a readable
// textual form, for debug tracing between passes. Modeled on
// golang.org/x/tools/go/ssa's print.go conventions — one line per
// instruction, block labels as headers, operands rendered with a
// "%N" register prefix ("%name" for parameters, "@name" for globals
// and procedures). Colorized with fatih/color
// when the destination is a terminal; color.NoColor (set by the
// library itself via isatty detection) falls back to plain text.
func WriteFunc(w io.Writer, f *Proc) {
	label := color.New(color.FgCyan, color.Bold)
	kind := color.New(color.FgYellow)

	fmt.Fprintf(w, "proc %s%s\n", f.Name, signatureSuffix(f))
	for _, b := range f.Blocks {
		label.Fprintf(w, "%s:\n", blockLabel(b))
		if len(b.Preds) > 0 {
			fmt.Fprintf(w, "    ; preds = %s\n", joinBlocks(b.Preds))
		}
		for _, instr := range b.instrs {
			fmt.Fprint(w, "    ")
			if instr.Index() >= 0 {
				fmt.Fprintf(w, "%%%d = ", instr.Index())
			}
			kind.Fprintf(w, "%s", instrName(instr))
			rest := instrOperandString(instr)
			if rest != "" {
				fmt.Fprintf(w, " %s", rest)
			}
			fmt.Fprintln(w)
		}
	}
}

func signatureSuffix(f *Proc) string {
	if f.Sig == nil {
		return "()"
	}
	return f.Sig.String()
}

func blockLabel(b *Block) string {
	if b.Label != "" {
		return fmt.Sprintf("%s.%d", b.Label, b.index)
	}
	return fmt.Sprintf("b%d", b.index)
}

func joinBlocks(bs []*Block) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = blockLabel(b)
	}
	return strings.Join(parts, ", ")
}

func instrName(instr Instruction) string {
	switch instr.(type) {
	case *Comment:
		return "comment"
	case *Local:
		return "local"
	case *ZeroInit:
		return "zeroinit"
	case *Store:
		return "store"
	case *Load:
		return "load"
	case *GetElementPtr:
		return "gep"
	case *ExtractValue:
		return "extractvalue"
	case *InsertValue:
		return "insertvalue"
	case *Conv:
		return "conv"
	case *Br:
		return "br"
	case *Ret:
		return "ret"
	case *Select:
		return "select"
	case *Phi:
		return "phi"
	case *Unreachable:
		return "unreachable"
	case *BinaryOp:
		return "binop"
	case *Call:
		return "call"
	case *NoOp:
		return "nop"
	case *ExtractElement:
		return "extractelement"
	case *InsertElement:
		return "insertelement"
	case *ShuffleVector:
		return "shufflevector"
	case *StartupRuntime:
		return "startup_runtime"
	default:
		return "?"
	}
}

func instrOperandString(instr Instruction) string {
	switch v := instr.(type) {
	case *Br:
		if v.Cond == nil {
			return blockLabel(v.Targets[0])
		}
		return fmt.Sprintf("%s, %s, %s", valueString(v.Cond), blockLabel(v.Targets[0]), blockLabel(v.Targets[1]))
	case *Local:
		return v.Name
	case *Comment:
		return v.Text
	default:
		ops := OperandsOf(instr)
		if len(ops) == 0 {
			return ""
		}
		parts := make([]string, len(ops))
		for i, o := range ops {
			parts[i] = valueString(o)
		}
		return strings.Join(parts, ", ")
	}
}

func valueString(v Value) string {
	switch x := v.(type) {
	case *Const:
		return fmt.Sprintf("const<%v>", x.Exact)
	case *ConstSlice:
		return fmt.Sprintf("@%s[0:%d]", x.Backing.Name, x.Len)
	case *TypeName:
		return "type " + x.Name
	case *Global:
		return "@" + x.Name
	case *Param:
		return "%" + x.Name
	case *Proc:
		return "@" + x.Name
	case *Nil:
		return "nil"
	case nil:
		return "<nil>"
	default:
		if v.Index() >= 0 {
			return fmt.Sprintf("%%%d", v.Index())
		}
		return "<unnamed>"
	}
}
