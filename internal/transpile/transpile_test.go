package transpile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vdbhatt/rtl-transpiler/internal/config"
	"github.com/vdbhatt/rtl-transpiler/internal/gen"
)

const counterVHDL = `
library ieee;
use ieee.std_logic_1164.all;

entity counter is
    port (
        clk   : in  std_logic;
        reset : in  std_logic;
        count : out std_logic_vector(7 downto 0)
    );
end entity counter;

architecture rtl of counter is
begin
    process(clk, reset)
    begin
        if reset = '1' then
            count <= (others => '0');
        elsif rising_edge(clk) then
            count <= count + 1;
        end if;
    end process;
end architecture rtl;
`

func regexRunner(t *testing.T) *Runner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Strategy = "regex"
	r, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	return r
}

func writeVHDL(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRunSingleFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "counter.vhd")
	writeVHDL(t, src, counterVHDL)

	r := regexRunner(t)
	result, err := r.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Files) != 1 {
		t.Fatalf("expected 1 file, got %+v", result.Files)
	}
	if result.Entities != 1 {
		t.Fatalf("expected 1 entity, got %d", result.Entities)
	}

	out := filepath.Join(root, "counter.sv")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "module counter (") {
		t.Fatalf("expected module counter, got:\n%s", text)
	}
	if !strings.Contains(text, "always_ff @(posedge clk or posedge reset) begin") {
		t.Fatalf("expected sequential block, got:\n%s", text)
	}
}

func TestRunDirectory(t *testing.T) {
	root := t.TempDir()
	writeVHDL(t, filepath.Join(root, "rtl", "counter.vhd"), counterVHDL)
	writeVHDL(t, filepath.Join(root, "rtl", "inv.vhd"), `
entity inv is
    port ( a : in std_logic; y : out std_logic );
end entity;

architecture rtl of inv is
begin
    y <= not a;
end architecture;
`)

	r := regexRunner(t)
	result, err := r.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 files, got %+v", result.Files)
	}
	if result.Entities != 2 {
		t.Fatalf("expected 2 entities, got %d", result.Entities)
	}

	for _, name := range []string{"counter.sv", "inv.sv"} {
		if _, err := os.Stat(filepath.Join(root, "rtl", name)); err != nil {
			t.Fatalf("expected output %s: %v", name, err)
		}
	}
}

func TestRunVerilogDialect(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "counter.vhd")
	writeVHDL(t, src, counterVHDL)

	r := regexRunner(t)
	r.Dialect = gen.Verilog

	if _, err := r.Run(context.Background(), src); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "counter.v"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "output reg [7:0] count") {
		t.Fatalf("expected reg promotion in Verilog, got:\n%s", text)
	}
}

func TestRunOutputDirOverride(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "generated")
	src := filepath.Join(root, "counter.vhd")
	writeVHDL(t, src, counterVHDL)

	r := regexRunner(t)
	r.OutputDir = outDir

	if _, err := r.Run(context.Background(), src); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "counter.sv")); err != nil {
		t.Fatalf("expected output in %s: %v", outDir, err)
	}
}

func TestRunEmitIR(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "counter.vhd")
	writeVHDL(t, src, counterVHDL)

	r := regexRunner(t)
	r.EmitIR = true

	if _, err := r.Run(context.Background(), src); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "counter.ir.json"))
	if err != nil {
		t.Fatalf("expected IR dump: %v", err)
	}
	if !strings.Contains(string(data), `"name": "counter"`) {
		t.Fatalf("IR dump missing entity, got:\n%s", data)
	}
}

func TestRunReportsReviewViolations(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "buf.vhd")
	writeVHDL(t, src, `
entity buf is
    port ( q : buffer std_logic );
end entity;
`)

	r := regexRunner(t)
	result, err := r.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	found := false
	for _, v := range result.Violations {
		if v.Rule == "buffer_port_collapsed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected buffer_port_collapsed, got %+v", result.Violations)
	}
	if result.Summary.TotalViolations == 0 {
		t.Fatalf("expected non-zero summary, got %+v", result.Summary)
	}
}

func TestRunSeverityOverride(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "buf.vhd")
	writeVHDL(t, src, `
entity buf is
    port ( q : buffer std_logic );
end entity;
`)

	cfg := config.DefaultConfig()
	cfg.Strategy = "regex"
	cfg.Review.Rules["buffer_port_collapsed"] = "error"
	r, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}

	result, err := r.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary.Errors == 0 {
		t.Fatalf("expected severity override to count as error, got %+v", result.Summary)
	}
}

func TestRunSkipsOversizedFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "big.vhd")
	writeVHDL(t, src, counterVHDL)

	cfg := config.DefaultConfig()
	cfg.Strategy = "regex"
	cfg.Sources.MaxFileSize = 8
	r, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}

	result, err := r.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Files) != 1 || !result.Files[0].Skipped {
		t.Fatalf("expected skip outcome, got %+v", result.Files)
	}
	if _, err := os.Stat(filepath.Join(root, "big.sv")); err == nil {
		t.Fatalf("oversized file must not produce output")
	}
}

func TestRunEnforcesAllowedFolders(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "sim", "tb.vhd")
	writeVHDL(t, src, counterVHDL)

	cfg := config.DefaultConfig()
	cfg.Strategy = "regex"
	cfg.Sources.AllowedFolders = []string{filepath.Join(root, "rtl")}
	r, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}

	result, err := r.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Files) != 1 || !result.Files[0].Skipped {
		t.Fatalf("expected skip outside allowed folders, got %+v", result.Files)
	}
}

func TestRunToleratesBadFile(t *testing.T) {
	root := t.TempDir()
	writeVHDL(t, filepath.Join(root, "good.vhd"), counterVHDL)
	writeVHDL(t, filepath.Join(root, "bad.vhd"), "this is not vhdl at all")

	r := regexRunner(t)
	result, err := r.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Entities != 1 {
		t.Fatalf("expected the good file to transpile, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(root, "good.sv")); err != nil {
		t.Fatalf("expected good.sv: %v", err)
	}
}

func TestRunRejectsNonSourceFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "readme.txt")
	writeVHDL(t, src, "hello")

	r := regexRunner(t)
	if _, err := r.Run(context.Background(), src); err == nil {
		t.Fatalf("expected error for non-VHDL file argument")
	}
}
