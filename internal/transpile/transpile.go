// Package transpile drives the whole pipeline: discover sources, lift each
// file to IR, validate the IR contract, evaluate review rules, generate the
// target dialect, and write the results.
//
// The runner tolerates per-file failures. One malformed file is reported
// and skipped; the rest of the tree still transpiles.
package transpile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vdbhatt/rtl-transpiler/internal/config"
	"github.com/vdbhatt/rtl-transpiler/internal/gen"
	"github.com/vdbhatt/rtl-transpiler/internal/ir"
	"github.com/vdbhatt/rtl-transpiler/internal/parser"
	"github.com/vdbhatt/rtl-transpiler/internal/policy"
	"github.com/vdbhatt/rtl-transpiler/internal/validator"
)

// Runner owns the per-run pipeline state.
type Runner struct {
	// Configuration loaded from rtl_transpile.json
	Config *config.Config

	// Dialect overrides the config when set by a CLI flag
	Dialect gen.Dialect

	// OutputDir overrides the config when set by a CLI flag
	OutputDir string

	// EmitIR additionally writes the lifted IR as JSON next to each output
	EmitIR bool

	// Verbose output
	Verbose bool

	// Optional parser override (for tests)
	parserFactory func() (parser.EntityParser, error)
}

// FileOutcome is the per-file record in a Result.
type FileOutcome struct {
	Source   string `json:"source"`
	Output   string `json:"output,omitempty"`
	Entities int    `json:"entities"`
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Result is the structured outcome of one run.
type Result struct {
	Files      []FileOutcome      `json:"files"`
	Violations []policy.Violation `json:"violations"`
	Summary    policy.Summary     `json:"summary"`
	Entities   int                `json:"entities"`
	Errors     []FileError        `json:"errors,omitempty"`
}

// FileError records a file that failed to lift or generate.
type FileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// New creates a Runner with default configuration.
func New() *Runner {
	return &Runner{
		Config:  config.DefaultConfig(),
		Dialect: gen.SystemVerilog,
	}
}

// NewWithConfig creates a Runner with the given configuration.
func NewWithConfig(cfg *config.Config) (*Runner, error) {
	dialect, err := gen.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return &Runner{
		Config:  cfg,
		Dialect: dialect,
	}, nil
}

func (r *Runner) newParser() (parser.EntityParser, error) {
	if r.parserFactory != nil {
		return r.parserFactory()
	}
	return parser.New(r.Config.Strategy)
}

// Run transpiles rootPath, a VHDL file or a directory tree.
func (r *Runner) Run(ctx context.Context, rootPath string) (*Result, error) {
	if r.Config == nil {
		cfg, err := config.Load(rootPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		r.Config = cfg
	}

	files, err := r.findSources(rootPath)
	if err != nil {
		return nil, fmt.Errorf("scanning sources: %w", err)
	}
	if r.Verbose {
		fmt.Fprintf(os.Stderr, "Found %d VHDL files\n", len(files))
	}

	val, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("schema validator: %w", err)
	}
	engine, err := policy.New()
	if err != nil {
		return nil, fmt.Errorf("review rules: %w", err)
	}

	result := &Result{}
	var wg sync.WaitGroup
	outcomeChan := make(chan FileOutcome, len(files))
	violationChan := make(chan []policy.Violation, len(files))
	errChan := make(chan FileError, len(files))

	for _, file := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			outcome, violations, err := r.transpileFile(ctx, f, val, engine)
			if err != nil {
				errChan <- FileError{File: f, Message: err.Error()}
				return
			}
			outcomeChan <- outcome
			if len(violations) > 0 {
				violationChan <- violations
			}
		}(file)
	}

	wg.Wait()
	close(outcomeChan)
	close(violationChan)
	close(errChan)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for outcome := range outcomeChan {
		result.Files = append(result.Files, outcome)
		result.Entities += outcome.Entities
	}
	for violations := range violationChan {
		result.Violations = append(result.Violations, violations...)
	}
	for fileErr := range errChan {
		result.Errors = append(result.Errors, fileErr)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Source < result.Files[j].Source
	})
	sort.Slice(result.Violations, func(i, j int) bool {
		if result.Violations[i].File != result.Violations[j].File {
			return result.Violations[i].File < result.Violations[j].File
		}
		return result.Violations[i].Rule < result.Violations[j].Rule
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].File < result.Errors[j].File
	})

	for _, v := range result.Violations {
		if !r.Config.IsRuleEnabled(v.Rule) {
			continue
		}
		switch r.Config.GetRuleSeverity(v.Rule, v.Severity) {
		case "error":
			result.Summary.Errors++
		case "warning":
			result.Summary.Warnings++
		default:
			result.Summary.Info++
		}
		result.Summary.TotalViolations++
	}

	return result, nil
}

// transpileFile runs one file through the full pipeline.
func (r *Runner) transpileFile(ctx context.Context, path string, val *validator.Validator, engine *policy.Engine) (FileOutcome, []policy.Violation, error) {
	if !r.Config.IsAllowedPath(path) {
		return FileOutcome{Source: path, Skipped: true, Reason: "outside allowed folders"}, nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return FileOutcome{}, nil, err
	}
	if info.Size() > r.Config.Sources.MaxFileSize {
		return FileOutcome{Source: path, Skipped: true, Reason: fmt.Sprintf("file exceeds %d bytes", r.Config.Sources.MaxFileSize)}, nil, nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return FileOutcome{}, nil, err
	}

	p, err := r.newParser()
	if err != nil {
		return FileOutcome{}, nil, err
	}

	entities, liftErr := p.ParseEntities(string(source))
	if len(entities) == 0 {
		if liftErr != nil {
			return FileOutcome{}, nil, liftErr
		}
		return FileOutcome{Source: path, Skipped: true, Reason: "no entities found"}, nil, nil
	}
	if liftErr != nil && r.Verbose {
		fmt.Fprintf(os.Stderr, "%s: partial lift: %v\n", path, liftErr)
	}

	if err := val.Validate(entities); err != nil {
		return FileOutcome{}, nil, fmt.Errorf("lifted IR violates contract: %w", err)
	}

	review, err := engine.Evaluate(ctx, policy.Input{File: path, Entities: entities})
	if err != nil {
		return FileOutcome{}, nil, fmt.Errorf("review: %w", err)
	}

	outPath, err := r.writeOutput(path, entities)
	if err != nil {
		return FileOutcome{}, nil, err
	}

	if r.EmitIR || r.Config.EmitIR {
		if err := r.writeIR(outPath, entities); err != nil {
			return FileOutcome{}, nil, err
		}
	}

	if r.Verbose {
		fmt.Fprintf(os.Stderr, "%s -> %s (%d entities)\n", path, outPath, len(entities))
	}

	return FileOutcome{Source: path, Output: outPath, Entities: len(entities)}, review.Violations, nil
}

// writeOutput generates all entities of one source file into a single
// output file, in lift order.
func (r *Runner) writeOutput(sourcePath string, entities []ir.Entity) (string, error) {
	g := gen.NewWithIndent(r.Dialect, strings.Repeat(" ", r.Config.Indent))

	var modules []string
	for i := range entities {
		text, err := g.Generate(&entities[i])
		if err != nil {
			return "", fmt.Errorf("entity %s: %w", entities[i].Name, err)
		}
		modules = append(modules, text)
	}

	outPath := r.outputPath(sourcePath)
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	if err := os.WriteFile(outPath, []byte(strings.Join(modules, "\n")), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", outPath, err)
	}
	return outPath, nil
}

// writeIR dumps the lifted entities as JSON next to the generated output.
func (r *Runner) writeIR(outPath string, entities []ir.Entity) error {
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	irPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".ir.json"
	if err := os.WriteFile(irPath, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", irPath, err)
	}
	return nil
}

func (r *Runner) outputPath(sourcePath string) string {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	name := base + r.Dialect.Ext()

	dir := r.OutputDir
	if dir == "" {
		dir = r.Config.OutputDir
	}
	if dir == "" {
		dir = filepath.Dir(sourcePath)
	}
	return filepath.Join(dir, name)
}

// findSources resolves rootPath to the list of files to transpile. A file
// argument is taken as-is; a directory is expanded via the configured
// include patterns, falling back to a plain extension walk.
func (r *Runner) findSources(rootPath string) ([]string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !r.Config.IsSourceFile(rootPath) {
			return nil, fmt.Errorf("%s is not a VHDL source file", rootPath)
		}
		return []string{rootPath}, nil
	}

	files, err := r.Config.ResolveSources(rootPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		files, err = walkSources(rootPath, r.Config)
		if err != nil {
			return nil, err
		}
	}

	var kept []string
	for _, f := range files {
		if !r.Config.ShouldIgnoreFile(f) {
			kept = append(kept, f)
		}
	}
	sort.Strings(kept)
	return kept, nil
}

func walkSources(root string, cfg *config.Config) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if cfg.IsSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}
