// Package parser lifts VHDL source text into the IR. Two strategies
// implement the same contract: a tree-sitter lifter working on the concrete
// syntax tree, and a regex lifter that needs no grammar at all. Either can
// be swapped in without touching the generators.
package parser

import (
	"errors"

	"github.com/vdbhatt/rtl-transpiler/internal/ir"
)

// EntityParser is the lifting contract: source text in, owned IR out.
type EntityParser interface {
	ParseEntities(source string) ([]ir.Entity, error)
}

// Lifting failures. Structural errors abort the offending entity; grammar
// and syntax errors abort the whole unit.
var (
	// ErrGrammar means the underlying parser produced no tree at all.
	ErrGrammar = errors.New("vhdl grammar produced no syntax tree")

	// ErrSyntax means a tree was produced but contains error nodes.
	// Lifting refuses malformed trees rather than guessing.
	ErrSyntax = errors.New("vhdl source contains syntax errors")

	ErrMissingEntityName    = errors.New("entity declaration missing name")
	ErrInvalidPortDirection = errors.New("invalid port direction")
	ErrMissingPortType      = errors.New("port declaration missing type")
	ErrMissingGenericType   = errors.New("generic declaration missing type")
	ErrUnresolvableRange    = errors.New("unresolvable vector range bound")
)

// fallbackRangeBound substitutes for a range bound that is a non-literal
// expression such as WIDTH-1. Generic expressions are not evaluated; the
// substituted range is marked Fallback in the IR so reviewers can find it.
const fallbackRangeBound = 7

// Strategy names accepted by the config and CLI layers.
const (
	StrategyAST   = "ast"
	StrategyRegex = "regex"
)

// New returns the parser for the named strategy, defaulting to the
// tree-sitter lifter.
func New(strategy string) (EntityParser, error) {
	switch strategy {
	case StrategyRegex:
		return NewRegexParser(), nil
	case StrategyAST, "":
		return NewASTParser(), nil
	default:
		return nil, errors.New("unknown parse strategy: " + strategy)
	}
}
