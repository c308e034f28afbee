// Package gen renders IR entities as Verilog or SystemVerilog modules.
// One algorithmic skeleton serves both dialects; only leaf-level keyword and
// type-rendering choices differ.
package gen

import (
	"fmt"
	"strings"

	"github.com/vdbhatt/rtl-transpiler/internal/ir"
)

// Dialect selects the target rendering.
type Dialect int

const (
	// Verilog renders wire/reg declarations and plain always blocks.
	Verilog Dialect = iota
	// SystemVerilog renders unified logic declarations, always_ff and
	// always_comb blocks, and unique case statements.
	SystemVerilog
)

// ParseDialect maps a config/CLI name to a dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verilog", "v":
		return Verilog, nil
	case "systemverilog", "sv", "":
		return SystemVerilog, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q", s)
	}
}

func (d Dialect) String() string {
	if d == Verilog {
		return "verilog"
	}
	return "systemverilog"
}

// Ext is the conventional output file extension.
func (d Dialect) Ext() string {
	if d == Verilog {
		return ".v"
	}
	return ".sv"
}

// netKeyword is the declaration keyword for continuously driven nets.
func (d Dialect) netKeyword() string {
	if d == Verilog {
		return "wire"
	}
	return "logic"
}

// regKeyword is the declaration keyword for procedurally assigned signals.
// SystemVerilog's logic covers both cases, so no promotion is needed there.
func (d Dialect) regKeyword() string {
	if d == Verilog {
		return "reg"
	}
	return "logic"
}

func (d Dialect) seqBlock(edges string) string {
	if d == Verilog {
		return fmt.Sprintf("always @(%s) begin", edges)
	}
	return fmt.Sprintf("always_ff @(%s) begin", edges)
}

func (d Dialect) combBlock() string {
	if d == Verilog {
		return "always @(*) begin"
	}
	return "always_comb begin"
}

func (d Dialect) caseOpen() string {
	if d == Verilog {
		return "case ("
	}
	return "unique case ("
}

// directionKeyword maps a port mode to the target direction keyword.
// Buffer has no output-with-readback equivalent and collapses to output.
func directionKeyword(dir ir.PortDirection) string {
	switch dir {
	case ir.In:
		return "input"
	case ir.Out:
		return "output"
	case ir.InOut:
		return "inout"
	case ir.Buffer:
		return "output"
	default:
		return "input"
	}
}

// typeDecl renders a type's declaration keywords. reg promotes the net
// keyword for procedurally assigned signals; it has no effect for
// SystemVerilog.
func (d Dialect) typeDecl(t ir.Type, reg bool) string {
	kw := d.netKeyword()
	if reg {
		kw = d.regKeyword()
	}

	switch t.Kind {
	case ir.StdLogic, ir.Bit, ir.Boolean:
		return kw
	case ir.StdLogicVector, ir.BitVector:
		return fmt.Sprintf("%s %s", kw, t.Range.Bracket())
	case ir.Signed:
		return fmt.Sprintf("%s signed %s", kw, t.Range.Bracket())
	case ir.Unsigned:
		return fmt.Sprintf("%s %s", kw, t.Range.Bracket())
	case ir.Integer:
		return fmt.Sprintf("%s signed [31:0]", kw)
	case ir.Natural, ir.Positive:
		return fmt.Sprintf("%s [31:0]", kw)
	case ir.Custom:
		// Unrecognized types degrade to a plain declaration with the
		// original name kept visible in a comment.
		return fmt.Sprintf("%s /* %s */", kw, t.Name)
	default:
		return kw
	}
}
