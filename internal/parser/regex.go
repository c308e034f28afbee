package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vdbhatt/rtl-transpiler/internal/ir"
)

// RegexParser is the grammar-free lifting strategy. It trades precision for
// zero dependence on the tree-sitter runtime and must stay behaviorally
// consistent with the tree lifter at the IR boundary.
type RegexParser struct{}

// NewRegexParser creates a regex-based lifter.
func NewRegexParser() *RegexParser {
	return &RegexParser{}
}

// ParseEntities lifts every entity declaration matched in the source text.
// Structural errors skip the offending entity and are joined into the
// returned error; the remaining entities still lift.
func (p *RegexParser) ParseEntities(source string) ([]ir.Entity, error) {
	var entities []ir.Entity
	var errs []error

	for _, m := range entityRe.FindAllStringSubmatch(source, -1) {
		entityText := m[0]
		name := m[1]

		entity, err := p.liftEntity(name, entityText)
		if err != nil {
			errs = append(errs, fmt.Errorf("entity %s: %w", name, err))
			continue
		}

		if arch, err := p.liftArchitecture(source, name); err == nil {
			entity.Architecture = arch
		}

		entities = append(entities, entity)
	}

	return entities, errors.Join(errs...)
}

func (p *RegexParser) liftEntity(name, entityText string) (ir.Entity, error) {
	entity := ir.Entity{Name: name}

	if m := genericClauseRe.FindStringSubmatch(entityText); m != nil {
		generics, err := p.liftGenerics(m[1])
		if err != nil {
			return ir.Entity{}, err
		}
		entity.Generics = generics
	}

	// Strip any generic clause so its text cannot shadow the port clause.
	portText := genericClauseRe.ReplaceAllString(entityText, "")
	if m := portClauseRe.FindStringSubmatch(portText); m != nil {
		ports, err := p.liftPorts(m[1])
		if err != nil {
			return ir.Entity{}, err
		}
		entity.Ports = ports
	}

	return entity, nil
}

func (p *RegexParser) liftGenerics(genericsText string) ([]ir.Generic, error) {
	var generics []ir.Generic

	for _, decl := range strings.Split(genericsText, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}

		m := genericDeclRe.FindStringSubmatch(decl)
		if m == nil {
			continue
		}
		typeName := strings.TrimSpace(m[2])
		if typeName == "" {
			return nil, fmt.Errorf("%w: %q", ErrMissingGenericType, decl)
		}
		defaultValue := strings.TrimSpace(m[3])

		for _, name := range splitIdentifiers(m[1]) {
			generics = append(generics, ir.Generic{
				Name:    name,
				Type:    typeName,
				Default: defaultValue,
			})
		}
	}

	return generics, nil
}

func (p *RegexParser) liftPorts(portsText string) ([]ir.Port, error) {
	var ports []ir.Port

	for _, decl := range strings.Split(portsText, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}

		m := portDeclRe.FindStringSubmatch(decl)
		if m == nil {
			continue
		}

		direction, ok := ir.ParseDirection(m[2])
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPortDirection, m[2])
		}

		typeText := strings.TrimSpace(m[3])
		if typeText == "" {
			return nil, fmt.Errorf("%w: %q", ErrMissingPortType, decl)
		}
		portType, err := parseTypeText(typeText)
		if err != nil {
			return nil, err
		}

		for _, name := range splitIdentifiers(m[1]) {
			ports = append(ports, ir.Port{Name: name, Direction: direction, Type: portType})
		}
	}

	return ports, nil
}

// parseTypeText resolves a textual type such as "std_logic" or
// "std_logic_vector(7 downto 0)" the same way the tree lifter resolves a
// subtype indication.
func parseTypeText(typeText string) (ir.Type, error) {
	text := strings.ToLower(strings.TrimSpace(typeText))

	switch text {
	case "std_logic", "std_ulogic":
		return ir.ScalarType(ir.StdLogic), nil
	case "bit":
		return ir.ScalarType(ir.Bit), nil
	case "integer":
		return ir.ScalarType(ir.Integer), nil
	case "natural":
		return ir.ScalarType(ir.Natural), nil
	case "positive":
		return ir.ScalarType(ir.Positive), nil
	case "boolean":
		return ir.ScalarType(ir.Boolean), nil
	}

	if m := vectorRe.FindStringSubmatch(text); m != nil {
		left, leftFell, err := resolveTextBound(m[2])
		if err != nil {
			return ir.Type{}, err
		}
		right, rightFell, err := resolveTextBound(m[4])
		if err != nil {
			return ir.Type{}, err
		}
		r := ir.VectorRange{
			Left:     left,
			Right:    right,
			Downto:   strings.EqualFold(m[3], "downto"),
			Fallback: leftFell || rightFell,
		}

		switch m[1] {
		case "std_logic_vector":
			return ir.VectorType(ir.StdLogicVector, r), nil
		case "bit_vector":
			return ir.VectorType(ir.BitVector, r), nil
		case "signed":
			return ir.VectorType(ir.Signed, r), nil
		case "unsigned":
			return ir.VectorType(ir.Unsigned, r), nil
		default:
			return ir.CustomType(m[1], &r), nil
		}
	}

	return ir.CustomType(text, nil), nil
}

// resolveTextBound mirrors the tree lifter's bound resolution, fallback
// heuristic included.
func resolveTextBound(text string) (value int, fellBack bool, err error) {
	text = strings.TrimSpace(text)
	if v, perr := strconv.Atoi(text); perr == nil {
		return v, false, nil
	}
	if strings.Contains(text, "-") && len(text) < 20 {
		return fallbackRangeBound, true, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnresolvableRange, text)
}

func (p *RegexParser) liftArchitecture(source, entityName string) (*ir.Architecture, error) {
	re, err := archRe(entityName)
	if err != nil {
		return nil, err
	}
	m := re.FindStringSubmatch(archRegion(source, entityName))
	if m == nil {
		return nil, fmt.Errorf("no architecture for entity %s", entityName)
	}

	arch := ir.Architecture{Name: m[1]}
	declarations := m[2]
	body := m[3]

	signals, err := p.liftSignals(declarations)
	if err != nil {
		return nil, err
	}
	arch.Signals = signals
	arch.Processes = p.liftProcesses(body)
	arch.ConcurrentStatements = p.liftConcurrent(body)

	return &arch, nil
}

// archRegion narrows the source to the first architecture header naming
// entityName, ending where the next architecture header starts. Without the
// bound, the body match would run on into a later architecture.
func archRegion(source, entityName string) string {
	headers := archHeaderRe.FindAllStringSubmatchIndex(source, -1)
	for i, h := range headers {
		if !strings.EqualFold(source[h[2]:h[3]], entityName) {
			continue
		}
		end := len(source)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		return source[h[0]:end]
	}
	return source
}

func (p *RegexParser) liftSignals(declarations string) ([]ir.Signal, error) {
	var signals []ir.Signal

	for _, m := range signalRe.FindAllStringSubmatch(declarations, -1) {
		sigType, err := parseTypeText(m[2])
		if err != nil {
			return nil, err
		}
		for _, name := range splitIdentifiers(m[1]) {
			signals = append(signals, ir.Signal{Name: name, Type: sigType})
		}
	}

	return signals, nil
}

func (p *RegexParser) liftProcesses(body string) []ir.Process {
	var processes []ir.Process

	for _, m := range processRe.FindAllStringSubmatch(body, -1) {
		proc := ir.Process{
			Label: m[1],
			Body:  strings.TrimSpace(m[3]),
		}
		for _, s := range strings.Split(m[2], ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				proc.SensitivityList = append(proc.SensitivityList, s)
			}
		}
		processes = append(processes, proc)
	}

	return processes
}

// liftConcurrent removes process blocks and treats what remains of the
// statement part as semicolon-separated concurrent statements.
func (p *RegexParser) liftConcurrent(body string) []string {
	var statements []string

	rest := processRe.ReplaceAllString(body, "")
	for _, stmt := range strings.Split(rest, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" && !strings.HasPrefix(stmt, "--") {
			statements = append(statements, stmt)
		}
	}

	return statements
}

func splitIdentifiers(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
