package parser

import (
	"context"
	"fmt"

	tree_sitter_vhdl "github.com/jpt13653903/tree-sitter-vhdl/bindings/go"
	sitter "github.com/smacker/go-tree-sitter"
)

// TreeSitter wraps a tree-sitter parser configured for the VHDL grammar.
// A parser instance is not safe for concurrent use; create one per
// goroutine if parsing in parallel.
type TreeSitter struct {
	parser *sitter.Parser
}

// NewTreeSitter creates a parser with the VHDL language loaded.
func NewTreeSitter() *TreeSitter {
	p := sitter.NewParser()
	p.SetLanguage(sitter.NewLanguage(tree_sitter_vhdl.Language()))
	return &TreeSitter{parser: p}
}

// Parse turns source text into a concrete syntax tree. A nil tree from the
// language binding is a grammar failure; a tree containing error nodes is a
// syntax error. Both refuse downstream lifting.
func (t *TreeSitter) Parse(source []byte) (*sitter.Tree, error) {
	tree, err := t.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGrammar, err)
	}
	if tree == nil {
		return nil, ErrGrammar
	}
	if tree.RootNode().HasError() {
		tree.Close()
		return nil, ErrSyntax
	}
	return tree, nil
}

// The four query primitives below are sufficient for all lifting logic.

// NodeText extracts the exact source span of a node.
func NodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(source)
}

// FindChild returns the first direct child with the given kind, or nil.
func FindChild(n *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == kind {
			return c
		}
	}
	return nil
}

// FindChildren returns all direct children with the given kind, in order.
func FindChildren(n *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == kind {
			out = append(out, c)
		}
	}
	return out
}

// FindAll returns every node of the given kind in the subtree rooted at n,
// including n itself, in pre-order.
func FindAll(n *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Type() == kind {
			out = append(out, node)
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(n)
	return out
}
