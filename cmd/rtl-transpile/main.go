// rtl-transpile lifts VHDL entities into a language-neutral IR and emits
// Verilog or SystemVerilog.
//
// The pipeline:
//  1. Tree-sitter (or the regex fallback) parses VHDL source
//  2. The lifter builds owned IR values from the syntax tree
//  3. The CUE validator enforces the IR contract (crash on drift)
//  4. OPA review rules flag every degraded translation
//  5. The generator renders the requested dialect
//
// Translation is best-effort where the languages disagree; run with -v to
// see what was degraded and why.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vdbhatt/rtl-transpiler/internal/config"
	"github.com/vdbhatt/rtl-transpiler/internal/gen"
	"github.com/vdbhatt/rtl-transpiler/internal/transpile"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "init" {
		runInit()
		return
	}

	var (
		dialectFlag  = flag.String("dialect", "", "output dialect: verilog or systemverilog")
		strategyFlag = flag.String("strategy", "", "lifting strategy: ast or regex")
		outputFlag   = flag.String("o", "", "output directory (default: next to each source)")
		configFlag   = flag.String("c", "", "config file path")
		emitIRFlag   = flag.Bool("emit-ir", false, "also write the lifted IR as JSON")
		verboseFlag  = flag.Bool("v", false, "verbose output")
	)
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg, err := loadConfig(*configFlag, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *dialectFlag != "" {
		cfg.Dialect = *dialectFlag
	}
	if *strategyFlag != "" {
		cfg.Strategy = *strategyFlag
	}

	runner, err := transpile.NewWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	runner.OutputDir = *outputFlag
	runner.EmitIR = *emitIRFlag
	runner.Verbose = *verboseFlag

	result, err := runner.Run(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	report(result, runner.Dialect)

	if len(result.Errors) > 0 || result.Summary.Errors > 0 {
		os.Exit(1)
	}
}

func loadConfig(configPath, rootPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	cfg, err := config.Load(rootPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v (using defaults)\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

func report(result *transpile.Result, dialect gen.Dialect) {
	generated := 0
	for _, f := range result.Files {
		if f.Skipped {
			fmt.Printf("  skip %s (%s)\n", f.Source, f.Reason)
			continue
		}
		fmt.Printf("  %s -> %s\n", f.Source, f.Output)
		generated++
	}
	fmt.Printf("Transpiled %d entities from %d files to %s\n", result.Entities, generated, dialect)

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "FAILED %s: %s\n", e.File, e.Message)
	}

	if result.Summary.TotalViolations > 0 {
		fmt.Printf("\nReview findings (%d):\n", result.Summary.TotalViolations)
		for _, v := range result.Violations {
			fmt.Printf("  [%s] %s: %s: %s\n", v.Severity, v.File, v.Rule, v.Message)
		}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: rtl-transpile [command] [options] <path>

Commands:
  init              Create an rtl_transpile.json configuration file
  <path>            Transpile a VHDL file or directory

Options:
  -dialect <name>   Output dialect: verilog or systemverilog (default: systemverilog)
  -strategy <name>  Lifting strategy: ast or regex (default: ast)
  -o <dir>          Output directory (default: next to each source file)
  -emit-ir          Also write the lifted IR as JSON next to each output
  -c <file>         Config file path
  -v                Verbose output
  -h                Show this help message

Configuration:
  rtl-transpile looks for configuration in:
    1. ./rtl_transpile.json
    2. ./.rtl_transpile.json
    3. ~/.config/rtl_transpile/config.json

  Run 'rtl-transpile init' to create a default configuration file.`)
}

func runInit() {
	configPath := "rtl_transpile.json"

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Output dialect and indentation")
	fmt.Println("  - Source include/exclude patterns and allowed folders")
	fmt.Println("  - Review rule severities")
}
