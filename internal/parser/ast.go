package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/vdbhatt/rtl-transpiler/internal/ir"
)

// concurrentKinds are the node kinds that represent the different forms of
// concurrent signal assignment in the grammar. Collected as raw text.
var concurrentKinds = []string{
	"concurrent_signal_assignment_statement",
	"simple_concurrent_signal_assignment",
	"conditional_signal_assignment",
	"selected_signal_assignment",
}

// ASTParser lifts entities out of the tree-sitter syntax tree.
type ASTParser struct {
	ts *TreeSitter
}

// NewASTParser creates a tree-sitter based lifter.
func NewASTParser() *ASTParser {
	return &ASTParser{ts: NewTreeSitter()}
}

// ParseEntities parses the source and lifts every entity declaration found.
// A structural error in one entity skips that entity but does not abort the
// unit; all per-entity errors are joined into the returned error alongside
// the entities that did lift.
func (p *ASTParser) ParseEntities(source string) ([]ir.Entity, error) {
	src := []byte(source)
	tree, err := p.ts.Parse(src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	var entities []ir.Entity
	var errs []error

	for _, entityNode := range FindAll(root, "entity_declaration") {
		entity, err := p.liftEntity(entityNode, root, src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entities = append(entities, entity)
	}

	return entities, errors.Join(errs...)
}

func (p *ASTParser) liftEntity(entityNode, root *sitter.Node, src []byte) (ir.Entity, error) {
	nameNode := FindChild(entityNode, "identifier")
	if nameNode == nil {
		return ir.Entity{}, ErrMissingEntityName
	}
	name := NodeText(nameNode, src)

	entity := ir.Entity{Name: name}

	if genericClause := findClause(entityNode, "generic_clause"); genericClause != nil {
		generics, err := p.liftGenerics(genericClause, src)
		if err != nil {
			return ir.Entity{}, fmt.Errorf("entity %s: %w", name, err)
		}
		entity.Generics = generics
	}

	// Absence of a port clause is not an error: zero ports.
	if portClause := findClause(entityNode, "port_clause"); portClause != nil {
		ports, err := p.liftPorts(portClause, src)
		if err != nil {
			return ir.Entity{}, fmt.Errorf("entity %s: %w", name, err)
		}
		entity.Ports = ports
	}

	// Bind the first architecture whose "of <entity>" reference matches.
	// A mismatching architecture is skipped, not fatal.
	for _, archNode := range FindAll(root, "architecture_body") {
		arch, err := p.liftArchitecture(archNode, name, src)
		if err != nil {
			continue
		}
		entity.Architecture = &arch
		break
	}

	return entity, nil
}

// findClause looks for a clause under the entity header first, then directly
// under the entity node; grammars differ in where they nest the clauses.
func findClause(entityNode *sitter.Node, kind string) *sitter.Node {
	if header := FindChild(entityNode, "entity_header"); header != nil {
		if c := FindChild(header, kind); c != nil {
			return c
		}
	}
	return FindChild(entityNode, kind)
}

func (p *ASTParser) liftGenerics(genericClause *sitter.Node, src []byte) ([]ir.Generic, error) {
	var generics []ir.Generic

	decls := FindChildren(genericClause, "interface_constant_declaration")
	if list := FindChild(genericClause, "generic_interface_list"); list != nil {
		decls = FindChildren(list, "interface_constant_declaration")
	}

	for _, decl := range decls {
		identifiers := declIdentifiers(decl, src)
		if len(identifiers) == 0 {
			continue
		}

		subtype := FindChild(decl, "subtype_indication")
		if subtype == nil {
			return nil, fmt.Errorf("%w: generic %s", ErrMissingGenericType, identifiers[0])
		}
		typeName := genericTypeName(subtype, src)

		var defaultValue string
		if expr := FindChild(decl, "expression"); expr != nil {
			defaultValue = NodeText(expr, src)
		}

		// VHDL allows comma-grouped identifiers sharing one type and
		// default; expand to one Generic per identifier.
		for _, id := range identifiers {
			generics = append(generics, ir.Generic{
				Name:    id,
				Type:    typeName,
				Default: defaultValue,
			})
		}
	}

	return generics, nil
}

func (p *ASTParser) liftPorts(portClause *sitter.Node, src []byte) ([]ir.Port, error) {
	var ports []ir.Port

	for _, decl := range FindChildren(portClause, "signal_interface_declaration") {
		identifiers := declIdentifiers(decl, src)
		if len(identifiers) == 0 {
			continue
		}

		modeNode := FindChild(decl, "mode")
		if modeNode == nil {
			return nil, fmt.Errorf("%w: port %s has no mode", ErrInvalidPortDirection, identifiers[0])
		}
		modeText := NodeText(modeNode, src)
		direction, ok := ir.ParseDirection(modeText)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPortDirection, modeText)
		}

		subtype := FindChild(decl, "subtype_indication")
		if subtype == nil {
			return nil, fmt.Errorf("%w: port %s", ErrMissingPortType, identifiers[0])
		}
		portType, err := p.resolveType(subtype, src)
		if err != nil {
			return nil, fmt.Errorf("port %s: %w", identifiers[0], err)
		}

		// One Port per identifier, identifier order preserved.
		for _, id := range identifiers {
			ports = append(ports, ir.Port{Name: id, Direction: direction, Type: portType})
		}
	}

	return ports, nil
}

// declIdentifiers extracts the names of an interface or signal declaration's
// identifier list, in declaration order.
func declIdentifiers(decl *sitter.Node, src []byte) []string {
	list := FindChild(decl, "identifier_list")
	if list == nil {
		return nil
	}
	var names []string
	for _, id := range FindChildren(list, "identifier") {
		names = append(names, NodeText(id, src))
	}
	return names
}

// resolveType maps a subtype_indication node to an IR type. Known scalar
// names map directly; names with an index constraint become vector variants;
// anything unrecognized becomes a Custom type and never fails.
func (p *ASTParser) resolveType(subtype *sitter.Node, src []byte) (ir.Type, error) {
	typeName := strings.ToLower(baseTypeName(subtype, src))

	switch typeName {
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

	if constraint := indexConstraint(subtype); constraint != nil {
		r, err := p.resolveRange(constraint, src)
		if err != nil {
			return ir.Type{}, err
		}
		switch typeName {
		case "std_logic_vector":
			return ir.VectorType(ir.StdLogicVector, r), nil
		case "bit_vector":
			return ir.VectorType(ir.BitVector, r), nil
		case "signed":
			return ir.VectorType(ir.Signed, r), nil
		case "unsigned":
			return ir.VectorType(ir.Unsigned, r), nil
		default:
			// Keep the range on the custom type for diagnostics.
			return ir.CustomType(typeName, &r), nil
		}
	}

	return ir.CustomType(typeName, nil), nil
}

// genericTypeName keeps the full subtype text, matching the regex lifter,
// which records a generic's type verbatim.
func genericTypeName(subtype *sitter.Node, src []byte) string {
	return NodeText(subtype, src)
}

func baseTypeName(subtype *sitter.Node, src []byte) string {
	if mark := FindChild(subtype, "type_mark"); mark != nil {
		if simple := FindChild(mark, "simple_name"); simple != nil {
			return NodeText(simple, src)
		}
		return NodeText(mark, src)
	}
	if id := FindChild(subtype, "identifier"); id != nil {
		return NodeText(id, src)
	}
	return NodeText(subtype, src)
}

func indexConstraint(subtype *sitter.Node) *sitter.Node {
	if array := FindChild(subtype, "array_constraint"); array != nil {
		if idx := FindChild(array, "index_constraint"); idx != nil {
			return idx
		}
		return array
	}
	return FindChild(subtype, "index_constraint")
}

// resolveRange extracts the two bound expressions of a descending or
// ascending range and resolves each to an integer.
func (p *ASTParser) resolveRange(constraint *sitter.Node, src []byte) (ir.VectorRange, error) {
	if desc := FindChild(constraint, "descending_range"); desc != nil {
		return p.resolveBounds(desc, true, src)
	}
	if asc := FindChild(constraint, "ascending_range"); asc != nil {
		return p.resolveBounds(asc, false, src)
	}
	return ir.VectorRange{}, fmt.Errorf("%w: no range in index constraint", ErrUnresolvableRange)
}

func (p *ASTParser) resolveBounds(rangeNode *sitter.Node, downto bool, src []byte) (ir.VectorRange, error) {
	exprs := FindChildren(rangeNode, "simple_expression")
	if len(exprs) < 2 {
		return ir.VectorRange{}, fmt.Errorf("%w: %q", ErrUnresolvableRange, NodeText(rangeNode, src))
	}

	left, leftFell, err := p.resolveBound(exprs[0], src)
	if err != nil {
		return ir.VectorRange{}, err
	}
	right, rightFell, err := p.resolveBound(exprs[1], src)
	if err != nil {
		return ir.VectorRange{}, err
	}

	return ir.VectorRange{
		Left:     left,
		Right:    right,
		Downto:   downto,
		Fallback: leftFell || rightFell,
	}, nil
}

// resolveBound parses an integer bound. Literals parse directly. A bound
// that is a generic-dependent expression such as WIDTH-1 cannot be evaluated
// without expression semantics; a short expression containing a minus takes
// the documented fallback constant instead of failing the entity.
func (p *ASTParser) resolveBound(expr *sitter.Node, src []byte) (value int, fellBack bool, err error) {
	if lit := FindChild(expr, "integer_decimal"); lit != nil {
		v, perr := strconv.Atoi(NodeText(lit, src))
		if perr != nil {
			return 0, false, fmt.Errorf("%w: %q", ErrUnresolvableRange, NodeText(lit, src))
		}
		return v, false, nil
	}

	text := strings.TrimSpace(NodeText(expr, src))
	if v, perr := strconv.Atoi(text); perr == nil {
		return v, false, nil
	}
	if strings.Contains(text, "-") && len(text) < 20 {
		return fallbackRangeBound, true, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnresolvableRange, text)
}

func (p *ASTParser) liftArchitecture(archNode *sitter.Node, entityName string, src []byte) (ir.Architecture, error) {
	identifiers := FindChildren(archNode, "identifier")
	if len(identifiers) == 0 {
		return ir.Architecture{}, errors.New("architecture missing name")
	}
	archName := NodeText(identifiers[0], src)

	referenced, err := referencedEntity(archNode, identifiers, src)
	if err != nil {
		return ir.Architecture{}, err
	}
	if referenced != entityName {
		return ir.Architecture{}, fmt.Errorf("architecture %s is for entity %s", archName, referenced)
	}

	arch := ir.Architecture{Name: archName}

	if declPart := FindChild(archNode, "declarative_part"); declPart != nil {
		signals, err := p.liftSignals(declPart, src)
		if err != nil {
			return ir.Architecture{}, err
		}
		arch.Signals = signals
	}

	if stmtPart := FindChild(archNode, "concurrent_statement_part"); stmtPart != nil {
		arch.Processes = p.liftProcesses(stmtPart, src)
		arch.ConcurrentStatements = liftConcurrent(stmtPart, src)
	}

	return arch, nil
}

// referencedEntity extracts the entity name from the "of <entity>" clause.
// The second identifier child is the usual shape; fall back to text parsing
// for grammars that hide the reference behind other node kinds.
func referencedEntity(archNode *sitter.Node, identifiers []*sitter.Node, src []byte) (string, error) {
	if len(identifiers) >= 2 {
		return NodeText(identifiers[1], src), nil
	}

	text := NodeText(archNode, src)
	ofPos := strings.Index(text, " of ")
	if ofPos < 0 {
		return "", errors.New("architecture missing 'of' clause")
	}
	isPos := strings.Index(text[ofPos:], " is")
	if isPos < 0 {
		return "", errors.New("architecture missing 'is' keyword")
	}
	return strings.TrimSpace(text[ofPos+4 : ofPos+isPos]), nil
}

func (p *ASTParser) liftSignals(declPart *sitter.Node, src []byte) ([]ir.Signal, error) {
	var signals []ir.Signal

	for _, decl := range FindAll(declPart, "signal_declaration") {
		identifiers := declIdentifiers(decl, src)
		if len(identifiers) == 0 {
			continue
		}

		subtype := FindChild(decl, "subtype_indication")
		if subtype == nil {
			return nil, fmt.Errorf("signal %s: missing type", identifiers[0])
		}
		sigType, err := p.resolveType(subtype, src)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", identifiers[0], err)
		}

		for _, id := range identifiers {
			signals = append(signals, ir.Signal{Name: id, Type: sigType})
		}
	}

	return signals, nil
}

func (p *ASTParser) liftProcesses(stmtPart *sitter.Node, src []byte) []ir.Process {
	var processes []ir.Process

	for _, procNode := range FindAll(stmtPart, "process_statement") {
		var proc ir.Process

		if label := FindChild(procNode, "label"); label != nil {
			proc.Label = strings.TrimSuffix(strings.TrimSpace(NodeText(label, src)), ":")
		}

		if sens := FindChild(procNode, "sensitivity_list"); sens != nil {
			seen := map[string]bool{}
			for _, n := range FindChildren(sens, "simple_name") {
				name := NodeText(n, src)
				if !seen[name] {
					seen[name] = true
					proc.SensitivityList = append(proc.SensitivityList, name)
				}
			}
			for _, n := range FindChildren(sens, "identifier") {
				name := NodeText(n, src)
				if !seen[name] {
					seen[name] = true
					proc.SensitivityList = append(proc.SensitivityList, name)
				}
			}
		}

		if body := FindChild(procNode, "sequence_of_statements"); body != nil {
			proc.Body = NodeText(body, src)
		}

		processes = append(processes, proc)
	}

	return processes
}

// liftConcurrent collects concurrent assignment text fragments across the
// alternative node kinds, deduplicated, in encounter order.
func liftConcurrent(stmtPart *sitter.Node, src []byte) []string {
	var statements []string
	seen := map[string]bool{}

	for _, kind := range concurrentKinds {
		for _, node := range FindAll(stmtPart, kind) {
			text := strings.TrimSpace(NodeText(node, src))
			if text != "" && !seen[text] {
				seen[text] = true
				statements = append(statements, text)
			}
		}
	}

	return statements
}
