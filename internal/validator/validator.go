// Package validator is the contract guard between the lifting strategies
// and everything downstream. Two independent lifters produce the same IR;
// if either drifts from the schema, the generators and review rules start
// working on silently-wrong data. Validation fails loudly instead:
// "field not allowed" points at the exact drift, no guessing.
//
// When validation fails, fix the lifter or the schema, never the caller.
package validator

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed ir_schema.cue
var schemaFS embed.FS

// Validator validates lifted IR against the CUE schema contract.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New creates a new Validator with the embedded CUE schema
func New() (*Validator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := schemaFS.ReadFile("ir_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// Validate checks that the lifted design conforms to the CUE schema.
// Returns nil if valid, or a detailed error explaining what failed.
func (v *Validator) Validate(design interface{}) error {
	jsonBytes, err := json.Marshal(design)
	if err != nil {
		return fmt.Errorf("marshaling design to JSON: %w", err)
	}
	return v.ValidateJSON(jsonBytes)
}

// ValidateJSON validates JSON bytes directly against the schema
func (v *Validator) ValidateJSON(jsonBytes []byte) error {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling data as CUE: %w", dataValue.Err())
	}

	designDef := v.schema.LookupPath(cue.ParsePath("#Design"))
	if designDef.Err() != nil {
		return fmt.Errorf("looking up #Design definition: %w", designDef.Err())
	}

	unified := designDef.Unify(dataValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// ValidationErrors returns detailed information about all validation errors
func (v *Validator) ValidationErrors(design interface{}) []string {
	jsonBytes, err := json.Marshal(design)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}

	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return []string{fmt.Sprintf("compile error: %v", dataValue.Err())}
	}

	designDef := v.schema.LookupPath(cue.ParsePath("#Design"))
	if designDef.Err() != nil {
		return []string{fmt.Sprintf("schema lookup error: %v", designDef.Err())}
	}

	unified := designDef.Unify(dataValue)
	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}
