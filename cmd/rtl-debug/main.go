// rtl-debug dumps the tree-sitter syntax tree of a VHDL file. Useful when a
// lift goes wrong: the node kinds shown here are exactly what the lifter
// matches on.
package main

import (
	"context"
	"fmt"
	"os"

	tree_sitter_vhdl "github.com/jpt13653903/tree-sitter-vhdl/bindings/go"
	"github.com/m1gwings/treedrawer/tree"
	sitter "github.com/smacker/go-tree-sitter"
)

const maxLeafText = 24

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: rtl-debug <file.vhd>")
		os.Exit(1)
	}

	source, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(sitter.NewLanguage(tree_sitter_vhdl.Language()))

	parsed, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || parsed == nil {
		fmt.Fprintf(os.Stderr, "Error: grammar produced no tree: %v\n", err)
		os.Exit(1)
	}
	defer parsed.Close()

	root := parsed.RootNode()
	if root.HasError() {
		fmt.Fprintln(os.Stderr, "Warning: tree contains syntax errors")
	}

	drawn := tree.NewTree(tree.NodeString(label(root, source)))
	addChildren(drawn, root, source)
	fmt.Println(drawn)
}

// addChildren mirrors the syntax tree into the drawable tree, named nodes
// only. Anonymous nodes are punctuation and keywords; they add noise.
func addChildren(drawn *tree.Tree, node *sitter.Node, source []byte) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		sub := drawn.AddChild(tree.NodeString(label(child, source)))
		addChildren(sub, child, source)
	}
}

// label renders a node kind, with the source text appended for leaves.
func label(node *sitter.Node, source []byte) string {
	if node.NamedChildCount() > 0 {
		return node.Type()
	}
	text := node.Content(source)
	if len(text) > maxLeafText {
		text = text[:maxLeafText] + "..."
	}
	return fmt.Sprintf("%s %q", node.Type(), text)
}
