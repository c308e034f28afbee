package gen

import (
	"fmt"
	"regexp"
	"strings"
)

// hexLiteralRe matches VHDL hex literals: x"FF" becomes 8'hFF.
var hexLiteralRe = regexp.MustCompile(`x"([0-9A-Fa-f]+)"`)

// castPrefixes are conversion-function wrappers deleted during translation.
// Longest first, so nested casts strip before their inner calls.
var castPrefixes = []string{
	"std_logic_vector(unsigned(",
	"std_logic_vector(signed(",
	"std_logic_vector(",
	"unsigned(",
	"signed(",
	"to_unsigned(",
	"to_signed(",
}

// bodyState is the per-process translation state threaded through the
// line-by-line fold over the body text.
type bodyState struct {
	indentLevel       int
	inCase            bool
	caseBranchHasStmt bool
}

// translateBody converts raw VHDL procedural statements into the target
// dialect, line by line. Unsupported forms pass through rather than fail.
func (g *Generator) translateBody(body string) string {
	var b strings.Builder
	state := bodyState{}
	baseIndent := g.indent + g.indent

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}

		// The edge guard is already encoded in the sensitivity-derived
		// edge list; drop the redundant if.
		if strings.HasPrefix(line, "if") &&
			(strings.Contains(line, "rising_edge") || strings.Contains(line, "falling_edge")) {
			continue
		}

		line = rewriteLiterals(line, g.dialect)
		line = g.translateCase(&b, &state, line, baseIndent)
		line = translateIf(line)
		line = rewriteOperators(line)
		line = g.stripCasts(line)
		line = rebalanceParens(line)

		controlFlow := isControlFlow(line)

		// endcase closes at the case header's level; closeCaseBranch already
		// handled the branch.
		if strings.HasPrefix(line, "end") && line != "endcase" && state.indentLevel > 0 {
			state.indentLevel--
		}

		b.WriteString(baseIndent + strings.Repeat(g.indent, state.indentLevel))
		b.WriteString(line)
		if !controlFlow && !strings.HasSuffix(line, ";") {
			b.WriteByte(';')
		}
		b.WriteByte('\n')

		if strings.Contains(line, "begin") {
			state.indentLevel++
		}
		if state.inCase && !controlFlow && strings.Contains(line, " <= ") {
			state.caseBranchHasStmt = true
		}
	}

	return b.String()
}

// rewriteLiterals applies the order-sensitive literal rewrites: hex
// literals first, then equality-to-bit-literal patterns before the generic
// bit-literal forms so comparison context wins, then the others-aggregate
// replication idiom.
func rewriteLiterals(line string, dialect Dialect) string {
	line = hexLiteralRe.ReplaceAllStringFunc(line, func(m string) string {
		digits := hexLiteralRe.FindStringSubmatch(m)[1]
		return fmt.Sprintf("%d'h%s", len(digits)*4, digits)
	})

	line = strings.ReplaceAll(line, "='1'", " == 1'b1")
	line = strings.ReplaceAll(line, "='0'", " == 1'b0")
	line = strings.ReplaceAll(line, " = '1'", " == 1'b1")
	line = strings.ReplaceAll(line, " = '0'", " == 1'b0")
	line = strings.ReplaceAll(line, "'1'", "1'b1")
	line = strings.ReplaceAll(line, "'0'", "1'b0")

	if dialect == SystemVerilog {
		line = strings.ReplaceAll(line, "(others => 1'b0)", "'0")
		line = strings.ReplaceAll(line, "(others => 1'b1)", "'1")
	} else {
		line = strings.ReplaceAll(line, "(others => 1'b0)", "8'b0")
		line = strings.ReplaceAll(line, "(others => 1'b1)", "8'b1")
	}

	return line
}

// translateCase handles case headers, when branches, and end case. Before
// opening a new branch (or closing the case) it emits the pending end for
// the previous branch, so each non-empty branch closes exactly once.
func (g *Generator) translateCase(b *strings.Builder, state *bodyState, line, baseIndent string) string {
	switch {
	case strings.HasPrefix(line, "case ") && strings.Contains(line, " is"):
		line = strings.ReplaceAll(line, " is", "")
		line = strings.Replace(line, "case ", g.dialect.caseOpen(), 1)
		if !strings.HasSuffix(line, ")") {
			line += ")"
		}
		state.inCase = true
		state.caseBranchHasStmt = false

	case strings.HasPrefix(line, "when "):
		g.closeCaseBranch(b, state, baseIndent)
		if end := strings.Index(line, " =>"); end >= 0 {
			line = caseLabel(strings.TrimSpace(line[5:end]))
		}

	case line == "end case" || line == "end case;":
		g.closeCaseBranch(b, state, baseIndent)
		line = "endcase"
		state.inCase = false
	}

	return line
}

// closeCaseBranch emits the pending end for an open case branch, once and
// only if the branch accumulated a statement.
func (g *Generator) closeCaseBranch(b *strings.Builder, state *bodyState, baseIndent string) {
	if !state.inCase || !state.caseBranchHasStmt {
		return
	}
	if state.indentLevel > 0 {
		state.indentLevel--
	}
	b.WriteString(baseIndent + strings.Repeat(g.indent, state.indentLevel) + "end\n")
	state.caseBranchHasStmt = false
}

// caseLabel renders a when-branch value: others maps to default, a quoted
// binary literal maps to a sized literal, anything else is an identifier.
func caseLabel(value string) string {
	if value == "others" {
		return "default: begin"
	}
	if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		bits := strings.Trim(value, `"`)
		return fmt.Sprintf("%d'b%s: begin", len(bits), bits)
	}
	return value + ": begin"
}

// translateIf rewrites if/elsif/else/end if into begin/end form, inserting
// the parenthesis and begin tokens the source syntax lacks.
func translateIf(line string) string {
	switch {
	case strings.HasPrefix(line, "if ") || strings.HasPrefix(line, "if("):
		return "if " + guardCondition(strings.TrimPrefix(line, "if")) + " begin"

	case strings.HasPrefix(line, "elsif ") || strings.HasPrefix(line, "elsif("):
		// An elsif on the edge function collapses: the edge is already in
		// the block header.
		if strings.Contains(line, "rising_edge") || strings.Contains(line, "falling_edge") {
			return "end else begin"
		}
		return "end else if " + guardCondition(strings.TrimPrefix(line, "elsif")) + " begin"

	case line == "else":
		line = "end else begin"

	case line == "end if" || line == "end if;":
		line = "end"
	}

	return line
}

// guardCondition extracts the condition of an if/elsif line and returns it
// fully parenthesized.
func guardCondition(rest string) string {
	cond := strings.TrimSpace(rest)
	cond = strings.TrimSuffix(cond, ";")
	cond = strings.TrimSuffix(strings.TrimSpace(cond), " then")
	cond = strings.TrimSuffix(strings.TrimSpace(cond), "then")
	cond = strings.TrimSpace(cond)
	if enclosed(cond) {
		return cond
	}
	return "(" + cond + ")"
}

// enclosed reports whether s is one parenthesized group: the opening paren
// closes only at the final character.
func enclosed(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}

func rewriteOperators(line string) string {
	line = strings.ReplaceAll(line, " and ", " & ")
	line = strings.ReplaceAll(line, " or ", " | ")
	line = strings.ReplaceAll(line, " xor ", " ^ ")
	line = strings.ReplaceAll(line, " not ", " ~")
	return line
}

// stripCasts deletes conversion-function wrappers. SystemVerilog keeps an
// integer cast as int'(...); Verilog drops it entirely.
func (g *Generator) stripCasts(line string) string {
	for _, prefix := range castPrefixes {
		line = strings.ReplaceAll(line, prefix, "")
	}
	if g.dialect == SystemVerilog {
		line = strings.ReplaceAll(line, "to_integer(", "int'(")
	} else {
		line = strings.ReplaceAll(line, "to_integer(", "")
	}
	return line
}

// rebalanceParens strips trailing unmatched closing parentheses left behind
// by cast stripping, rightmost first, until the counts agree.
func rebalanceParens(line string) string {
	diff := strings.Count(line, ")") - strings.Count(line, "(")
	for diff > 0 {
		pos := strings.LastIndex(line, ")")
		if pos < 0 {
			break
		}
		line = line[:pos] + line[pos+1:]
		diff--
	}
	return line
}

// isControlFlow reports whether the line is structural and must not get a
// statement terminator.
func isControlFlow(line string) bool {
	return strings.Contains(line, "begin") ||
		(strings.HasPrefix(line, "end") && !strings.HasPrefix(line, "endcase")) ||
		line == "else" ||
		strings.HasSuffix(line, ":") ||
		strings.HasPrefix(line, "case") ||
		strings.HasPrefix(line, "unique case") ||
		line == "endcase"
}

// convertConcurrent rewrites a concurrent statement into a continuous
// assignment. A selected assignment has no single-line equivalent and is
// emitted as a commented TODO block rather than silently dropped.
func (g *Generator) convertConcurrent(stmt string) string {
	out := stmt
	out = strings.ReplaceAll(out, "std_logic_vector(", "")
	out = strings.ReplaceAll(out, "unsigned(", "")
	out = strings.ReplaceAll(out, "signed(", "")
	out = rebalanceParens(out)

	if strings.Contains(out, "with ") && strings.Contains(out, " select") {
		return fmt.Sprintf("// TODO: translate 'with...select' to a %s case statement:\n%s// %s",
			g.dialect, g.indent, strings.ReplaceAll(out, "\n", "\n"+g.indent+"// "))
	}

	if strings.Contains(out, " when ") && strings.Contains(out, " else ") {
		if ternary, ok := conditionalAssign(out); ok {
			return ternary
		}
	}

	out = strings.ReplaceAll(out, " <= ", " = ")
	out = rewriteOperators(out)
	out = strings.ReplaceAll(out, "'1'", "1'b1")
	out = strings.ReplaceAll(out, "'0'", "1'b0")

	if strings.Contains(out, " = ") && !strings.HasPrefix(out, "assign ") {
		out = fmt.Sprintf("assign %s;", strings.TrimSuffix(out, ";"))
	}

	return out
}

// conditionalAssign rewrites "target <= v1 when cond else v2" into a
// ternary continuous assignment, translating the condition's equality
// operator and literals on the way.
func conditionalAssign(stmt string) (string, bool) {
	parts := strings.SplitN(stmt, " <= ", 2)
	if len(parts) != 2 {
		return "", false
	}
	target := strings.TrimSpace(parts[0])
	rest := parts[1]

	whenPos := strings.Index(rest, " when ")
	elsePos := strings.Index(rest, " else ")
	if whenPos < 0 || elsePos < 0 || elsePos < whenPos {
		return "", false
	}

	value1 := strings.TrimSpace(rest[:whenPos])
	condition := strings.TrimSpace(rest[whenPos+6 : elsePos])
	value2 := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest[elsePos+6:]), ";"))

	condition = strings.ReplaceAll(condition, " = ", " == ")
	condition = rewriteBinaryLiterals(condition)
	condition = strings.ReplaceAll(condition, "'1'", "1'b1")
	condition = strings.ReplaceAll(condition, "'0'", "1'b0")
	if !enclosed(condition) {
		condition = "(" + condition + ")"
	}

	value1 = strings.ReplaceAll(strings.ReplaceAll(value1, "'1'", "1'b1"), "'0'", "1'b0")
	value2 = strings.ReplaceAll(strings.ReplaceAll(value2, "'1'", "1'b1"), "'0'", "1'b0")

	return fmt.Sprintf("assign %s = %s ? %s : %s;", target, condition, value1, value2), true
}

// rewriteBinaryLiterals replaces quoted binary strings like "0010" with
// sized literals like 4'b0010. Quoted text that is not pure binary is kept.
func rewriteBinaryLiterals(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '"' {
			b.WriteByte(s[i])
			continue
		}
		end := strings.IndexByte(s[i+1:], '"')
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		bits := s[i+1 : i+1+end]
		if bits != "" && strings.Trim(bits, "01") == "" {
			fmt.Fprintf(&b, "%d'b%s", len(bits), bits)
		} else {
			b.WriteString(s[i : i+2+end])
		}
		i += end + 1
	}
	return b.String()
}
