package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vdbhatt/rtl-transpiler/internal/ir"
)

// Generator renders one entity (with its optional architecture) into target
// dialect text. Generation is a pure function of the entity: it never fails
// on untranslatable constructs, which degrade to commented passthrough.
type Generator struct {
	dialect Dialect
	indent  string
}

// New creates a generator for the given dialect with four-space indentation.
func New(dialect Dialect) *Generator {
	return &Generator{dialect: dialect, indent: "    "}
}

// NewWithIndent creates a generator with a custom indent unit.
func NewWithIndent(dialect Dialect, indent string) *Generator {
	return &Generator{dialect: dialect, indent: indent}
}

// Generate renders the complete module.
func (g *Generator) Generate(entity *ir.Entity) (string, error) {
	if entity == nil || entity.Name == "" {
		return "", errors.New("cannot generate module for unnamed entity")
	}

	// Verilog needs wire/reg discrimination: any output port or internal
	// signal assigned inside a process body must be declared reg.
	procedural := map[string]bool{}
	if g.dialect == Verilog {
		procedural = proceduralTargets(entity)
	}

	var b strings.Builder
	g.writeHeader(&b, entity, procedural)
	if entity.Architecture != nil {
		g.writeArchitecture(&b, entity.Architecture, procedural)
	}
	b.WriteString("endmodule\n")

	return b.String(), nil
}

// PortDeclarations renders the ports as standalone declaration lines in
// the Verilog-2001 non-ANSI style, separate from the module header.
func (g *Generator) PortDeclarations(entity *ir.Entity) string {
	var b strings.Builder
	for _, port := range entity.Ports {
		b.WriteString(g.indent)
		fmt.Fprintf(&b, "%s %s %s;\n", directionKeyword(port.Direction), g.dialect.typeDecl(port.Type, false), port.Name)
	}
	return b.String()
}

// proceduralTargets pre-scans all process bodies for assignment targets:
// the text before a non-blocking assignment operator names the signal.
func proceduralTargets(entity *ir.Entity) map[string]bool {
	targets := map[string]bool{}
	if entity.Architecture == nil {
		return targets
	}
	for _, proc := range entity.Architecture.Processes {
		for _, line := range strings.Split(proc.Body, "\n") {
			trimmed := strings.TrimSpace(line)
			if pos := strings.Index(trimmed, " <="); pos >= 0 {
				targets[strings.TrimSpace(trimmed[:pos])] = true
			}
		}
	}
	return targets
}

func (g *Generator) writeHeader(b *strings.Builder, entity *ir.Entity, procedural map[string]bool) {
	fmt.Fprintf(b, "module %s (\n", entity.Name)

	for i, port := range entity.Ports {
		reg := procedural[port.Name] && (port.Direction == ir.Out || port.Direction == ir.Buffer)
		b.WriteString(g.indent)
		fmt.Fprintf(b, "%s %s %s", directionKeyword(port.Direction), g.dialect.typeDecl(port.Type, reg), port.Name)
		if i < len(entity.Ports)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}

	b.WriteString(");\n")
}

func (g *Generator) writeArchitecture(b *strings.Builder, arch *ir.Architecture, procedural map[string]bool) {
	if len(arch.Signals) > 0 {
		b.WriteByte('\n')
		for _, sig := range arch.Signals {
			b.WriteString(g.indent)
			fmt.Fprintf(b, "%s %s;\n", g.dialect.typeDecl(sig.Type, procedural[sig.Name]), sig.Name)
		}
	}

	for _, proc := range arch.Processes {
		b.WriteByte('\n')
		g.writeProcess(b, &proc)
	}

	for _, stmt := range arch.ConcurrentStatements {
		b.WriteByte('\n')
		b.WriteString(g.indent)
		b.WriteString(g.convertConcurrent(stmt))
		b.WriteByte('\n')
	}
}

// writeProcess renders one process as a procedural block. A process is
// sequential when its sensitivity list mentions a clock or an edge function;
// everything else is combinational.
func (g *Generator) writeProcess(b *strings.Builder, proc *ir.Process) {
	b.WriteString(g.indent)
	if isSequential(proc) {
		b.WriteString(g.dialect.seqBlock(strings.Join(edgeList(proc), " or ")))
	} else {
		b.WriteString(g.dialect.combBlock())
	}
	b.WriteByte('\n')

	b.WriteString(g.translateBody(proc.Body))

	b.WriteString(g.indent)
	b.WriteString("end\n")
}

func isSequential(proc *ir.Process) bool {
	for _, s := range proc.SensitivityList {
		if strings.Contains(s, "clk") || strings.Contains(s, "clock") ||
			strings.Contains(s, "rising_edge") || strings.Contains(s, "falling_edge") {
			return true
		}
	}
	return false
}

// edgeList builds the sensitivity edges: posedge for clocks, posedge or
// negedge for resets depending on polarity, defaulting to posedge clk when
// no clock-like entry exists.
func edgeList(proc *ir.Process) []string {
	var clocks, resets []string

	for _, sig := range proc.SensitivityList {
		switch {
		case strings.Contains(sig, "clk") || strings.Contains(sig, "clock"):
			clocks = append(clocks, "posedge "+sig)
		case strings.Contains(sig, "reset") || strings.Contains(sig, "rst"):
			if resetActiveHigh(proc.Body, sig) {
				resets = append(resets, "posedge "+sig)
			} else {
				resets = append(resets, "negedge "+sig)
			}
		}
	}

	if len(clocks) == 0 {
		clocks = []string{"posedge clk"}
	}
	return append(clocks, resets...)
}

// resetActiveHigh scans the process body for an equality comparison of the
// reset against a high literal in VHDL syntax.
func resetActiveHigh(body, sig string) bool {
	return strings.Contains(body, sig+" = '1'") || strings.Contains(body, sig+` = "1"`)
}
