package codegen

import "strings"

// Serialize renders instrs as assembly text, resolving each BranchTarget
// against the Label it names ("resolved when the result is
// serialized to assembly text").
func Serialize(instrs []GeneratedInstr) string {
	var b strings.Builder
	for _, in := range instrs {
		if in.Label != "" {
			b.WriteString(in.Label)
			b.WriteString(":\n")
			continue
		}
		b.WriteString(" ")
		b.WriteString(in.Instr)
		if in.BranchTarget != "" {
			if in.Instr != "" {
				b.WriteString(" ")
			}
			b.WriteString(in.BranchTarget)
		}
		if in.Comment != "" {
			b.WriteString(" ; ")
			b.WriteString(in.Comment)
		}
		b.WriteString("\n")
	}
	return b.String()
}
