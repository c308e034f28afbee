package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
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

func TestRtlTranspileE2E(t *testing.T) {
	repoRoot := findRepoRoot(t)
	bin := buildTranspileBinary(t, repoRoot)

	home := t.TempDir()
	env := append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
	)

	work := t.TempDir()
	src := filepath.Join(work, "counter.vhd")
	if err := os.WriteFile(src, []byte(counterVHDL), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	for _, tc := range []struct {
		dialect string
		output  string
		want    string
	}{
		{"systemverilog", "counter.sv", "always_ff @(posedge clk or posedge reset) begin"},
		{"verilog", "counter.v", "always @(posedge clk or posedge reset) begin"},
	} {
		t.Run(tc.dialect, func(t *testing.T) {
			cmd := exec.Command(bin, "-dialect", tc.dialect, src)
			cmd.Dir = work
			cmd.Env = env
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			if err := cmd.Run(); err != nil {
				t.Fatalf("rtl-transpile failed: %v\nstderr:\n%s", err, stderr.String())
			}

			data, err := os.ReadFile(filepath.Join(work, tc.output))
			if err != nil {
				t.Fatalf("reading %s: %v", tc.output, err)
			}
			text := string(data)
			if !strings.Contains(text, "module counter (") {
				t.Fatalf("expected module counter, got:\n%s", text)
			}
			if !strings.Contains(text, tc.want) {
				t.Fatalf("expected %q, got:\n%s", tc.want, text)
			}
		})
	}
}

func TestRtlTranspileE2E_RegexStrategy(t *testing.T) {
	repoRoot := findRepoRoot(t)
	bin := buildTranspileBinary(t, repoRoot)

	work := t.TempDir()
	src := filepath.Join(work, "inv.vhd")
	source := `
entity inv is
    port ( a : in std_logic; y : out std_logic );
end entity;

architecture rtl of inv is
begin
    y <= not a;
end architecture;
`
	if err := os.WriteFile(src, []byte(source), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cmd := exec.Command(bin, "-strategy", "regex", src)
	cmd.Dir = work
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("rtl-transpile failed: %v\nstderr:\n%s", err, stderr.String())
	}

	data, err := os.ReadFile(filepath.Join(work, "inv.sv"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "assign y = ~a;") {
		t.Fatalf("expected continuous assignment, got:\n%s", data)
	}
}

func buildTranspileBinary(t *testing.T, repoRoot string) string {
	t.Helper()
	binDir := t.TempDir()
	binPath := filepath.Join(binDir, "rtl-transpile")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/rtl-transpile")
	cmd.Dir = repoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build rtl-transpile failed: %v\n%s", err, string(out))
	}
	return binPath
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("repo root not found from %s", start)
		}
		dir = parent
	}
}
