package parser

import "regexp"

var (
	// Pattern: entity <name> is ... end [entity] [<name>];
	entityRe = regexp.MustCompile(`(?is)entity\s+(\w+)\s+is.*?end\s+(?:entity\s+)?(?:\w+\s*)?;`)

	// Pattern: port ( ... ); greedy to the closing of the port clause
	portClauseRe = regexp.MustCompile(`(?is)port\s*\((.*)\)\s*;`)

	// Pattern: generic ( ... );
	genericClauseRe = regexp.MustCompile(`(?is)generic\s*\((.*?)\)\s*;`)

	// Pattern: name1, name2 : direction type
	portDeclRe = regexp.MustCompile(`(?i)^\s*([\w,\s]+)\s*:\s*(\w+)\s+(.+)$`)

	// Pattern: name1, name2 : type [:= default]
	genericDeclRe = regexp.MustCompile(`(?i)^\s*([\w,\s]+)\s*:\s*([^:=]+?)\s*(?::=\s*(.+))?$`)

	// Pattern: <base>(<left> downto|to <right>)
	vectorRe = regexp.MustCompile(`(?i)^(\w+)\s*\(\s*(.+?)\s+(downto|to)\s+(.+?)\s*\)$`)

	// Pattern: signal name1, name2 : type;
	signalRe = regexp.MustCompile(`(?i)signal\s+([\w,\s]+?)\s*:\s*([^;]+);`)

	// Pattern: [label :] process(sensitivity) [is] begin ... end process;
	processRe = regexp.MustCompile(`(?is)(?:(\w+)\s*:\s*)?process\s*\(([^)]*)\)(?:\s+is)?\s+begin\s+(.*?)\s+end\s+process\s*;`)

	// Pattern: architecture <name> of <entity> is; header only, used to
	// bound each architecture's region before the body match runs.
	archHeaderRe = regexp.MustCompile(`(?i)\barchitecture\s+\w+\s+of\s+(\w+)\s+is\b`)
)

// archRe builds the architecture pattern for one entity:
// architecture <name> of <entity> is <decls> begin <body> end [architecture] [<name>];
func archRe(entityName string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?is)architecture\s+(\w+)\s+of\s+` +
		regexp.QuoteMeta(entityName) +
		`\s+is(.*?)begin(.*)end\s+(?:architecture\s+)?(?:\w+\s*)?;`)
}
