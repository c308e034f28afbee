package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/vdbhatt/rtl-transpiler/internal/ir"
)

func TestASTLiftCounter(t *testing.T) {
	entities, err := NewASTParser().ParseEntities(counterSource)
	if err != nil {
		t.Fatalf("ParseEntities: %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}

	e := entities[0]
	if e.Name != "counter" {
		t.Fatalf("expected entity counter, got %q", e.Name)
	}
	if len(e.Generics) != 1 || e.Generics[0].Name != "WIDTH" {
		t.Fatalf("expected generic WIDTH, got %+v", e.Generics)
	}
	if len(e.Ports) != 4 {
		t.Fatalf("expected 4 ports, got %d: %+v", len(e.Ports), e.Ports)
	}

	count := e.Ports[3]
	if count.Name != "count" || count.Direction != ir.Out {
		t.Fatalf("unexpected port 3: %+v", count)
	}
	if count.Type.Kind != ir.StdLogicVector || count.Type.Range == nil {
		t.Fatalf("expected vector type, got %+v", count.Type)
	}
	if count.Type.Range.Left != 7 || count.Type.Range.Right != 0 || !count.Type.Range.Downto {
		t.Fatalf("expected 7 downto 0, got %+v", count.Type.Range)
	}

	arch := e.Architecture
	if arch == nil {
		t.Fatalf("expected lifted architecture")
	}
	if arch.Name != "rtl" {
		t.Fatalf("expected architecture rtl, got %q", arch.Name)
	}
	if len(arch.Signals) != 1 || arch.Signals[0].Name != "count_int" {
		t.Fatalf("expected signal count_int, got %+v", arch.Signals)
	}
	if len(arch.Processes) != 1 {
		t.Fatalf("expected 1 process, got %d", len(arch.Processes))
	}
	proc := arch.Processes[0]
	if len(proc.SensitivityList) != 2 {
		t.Fatalf("expected 2 sensitivity entries, got %v", proc.SensitivityList)
	}
	if !strings.Contains(proc.Body, "count_int") {
		t.Fatalf("process body missing statement: %q", proc.Body)
	}
	if len(arch.ConcurrentStatements) != 1 {
		t.Fatalf("expected 1 concurrent statement, got %v", arch.ConcurrentStatements)
	}
}

func TestASTSyntaxErrorRefusesLift(t *testing.T) {
	_, err := NewASTParser().ParseEntities("entity broken is port ( a : in ;")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
}

func TestASTEntityWithoutPorts(t *testing.T) {
	entities, err := NewASTParser().ParseEntities("entity testbench is\nend entity testbench;\n")
	if err != nil {
		t.Fatalf("ParseEntities: %v", err)
	}
	if len(entities) != 1 || entities[0].Name != "testbench" {
		t.Fatalf("expected entity testbench, got %+v", entities)
	}
	if len(entities[0].Ports) != 0 {
		t.Fatalf("expected no ports, got %+v", entities[0].Ports)
	}
}

func TestASTExpressionBoundFallsBack(t *testing.T) {
	source := `
entity param is
    generic (
        WIDTH : integer := 8
    );
    port (
        data : in std_logic_vector(WIDTH-1 downto 0)
    );
end entity param;
`
	entities, err := NewASTParser().ParseEntities(source)
	if err != nil {
		t.Fatalf("ParseEntities: %v", err)
	}
	r := entities[0].Ports[0].Type.Range
	if r == nil {
		t.Fatalf("expected a range")
	}
	if r.Left != 7 || !r.Fallback {
		t.Fatalf("expected fallback bound 7 with flag set, got %+v", r)
	}
	if r.Right != 0 || !r.Downto {
		t.Fatalf("expected literal right bound 0 downto, got %+v", r)
	}
}

func TestASTMultipleIdentifiersPerDecl(t *testing.T) {
	source := `
entity gates is
    port (
        a, b, c : in  std_logic;
        y       : out std_logic
    );
end entity gates;
`
	entities, err := NewASTParser().ParseEntities(source)
	if err != nil {
		t.Fatalf("ParseEntities: %v", err)
	}
	want := []string{"a", "b", "c", "y"}
	ports := entities[0].Ports
	if len(ports) != len(want) {
		t.Fatalf("expected %d ports, got %d: %+v", len(want), len(ports), ports)
	}
	for i, name := range want {
		if ports[i].Name != name {
			t.Fatalf("port %d: expected %s, got %s", i, name, ports[i].Name)
		}
	}
}

// The two strategies must agree at the IR boundary for well-formed input.
func TestStrategyParity(t *testing.T) {
	ast, err := NewASTParser().ParseEntities(counterSource)
	if err != nil {
		t.Fatalf("ast: %v", err)
	}
	rx, err := NewRegexParser().ParseEntities(counterSource)
	if err != nil {
		t.Fatalf("regex: %v", err)
	}

	if len(ast) != len(rx) {
		t.Fatalf("entity count mismatch: ast %d, regex %d", len(ast), len(rx))
	}
	a, r := ast[0], rx[0]
	if a.Name != r.Name {
		t.Fatalf("name mismatch: %q vs %q", a.Name, r.Name)
	}
	if len(a.Ports) != len(r.Ports) {
		t.Fatalf("port count mismatch: %d vs %d", len(a.Ports), len(r.Ports))
	}
	for i := range a.Ports {
		ap, rp := a.Ports[i], r.Ports[i]
		if ap.Name != rp.Name || ap.Direction != rp.Direction || ap.Type.Kind != rp.Type.Kind {
			t.Fatalf("port %d mismatch: %+v vs %+v", i, ap, rp)
		}
	}
	if len(a.Generics) != len(r.Generics) || a.Generics[0].Name != r.Generics[0].Name {
		t.Fatalf("generic mismatch: %+v vs %+v", a.Generics, r.Generics)
	}
	if (a.Architecture == nil) != (r.Architecture == nil) {
		t.Fatalf("architecture presence mismatch")
	}
	if a.Architecture.Name != r.Architecture.Name {
		t.Fatalf("architecture name mismatch: %q vs %q", a.Architecture.Name, r.Architecture.Name)
	}
	if len(a.Architecture.Processes) != len(r.Architecture.Processes) {
		t.Fatalf("process count mismatch")
	}
}

func TestASTFirstArchitectureWins(t *testing.T) {
	source := `
entity mux is
    port ( a, b : in std_logic; y : out std_logic );
end entity;

architecture rtl of mux is
begin
    y <= a;
end architecture rtl;

architecture alt of mux is
    signal tmp : std_logic;
begin
    y <= b;
end architecture alt;
`
	entities, err := NewASTParser().ParseEntities(source)
	if err != nil {
		t.Fatalf("ParseEntities: %v", err)
	}
	arch := entities[0].Architecture
	if arch == nil {
		t.Fatalf("expected an architecture, got none")
	}
	if arch.Name != "rtl" {
		t.Fatalf("expected first architecture rtl to bind, got %q", arch.Name)
	}
	if len(arch.Signals) != 0 {
		t.Fatalf("expected no signals from the unbound architecture, got %+v", arch.Signals)
	}
	if len(arch.ConcurrentStatements) != 1 {
		t.Fatalf("expected 1 concurrent statement, got %v", arch.ConcurrentStatements)
	}
	if !strings.Contains(arch.ConcurrentStatements[0], "y <= a") {
		t.Fatalf("expected body of the first architecture, got %q", arch.ConcurrentStatements[0])
	}
}

func TestASTMismatchedArchitectureSkipped(t *testing.T) {
	source := `
entity alpha is
    port ( a : in std_logic; y : out std_logic );
end entity;

architecture rtl of beta is
begin
    y <= '0';
end architecture rtl;

architecture rtl of alpha is
begin
    y <= a;
end architecture rtl;
`
	entities, err := NewASTParser().ParseEntities(source)
	if err != nil {
		t.Fatalf("ParseEntities: %v", err)
	}
	if len(entities) != 1 || entities[0].Name != "alpha" {
		t.Fatalf("expected entity alpha, got %+v", entities)
	}
	arch := entities[0].Architecture
	if arch == nil {
		t.Fatalf("expected alpha to bind its own architecture")
	}
	if len(arch.ConcurrentStatements) != 1 || !strings.Contains(arch.ConcurrentStatements[0], "y <= a") {
		t.Fatalf("expected alpha's body, got %v", arch.ConcurrentStatements)
	}
}
