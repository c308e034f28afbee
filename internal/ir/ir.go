// Package ir is the language-neutral intermediate representation shared by
// every lifting strategy and every code generator. Values are fully owned:
// once an Entity is built, the syntax tree it was lifted from can be dropped.
package ir

import (
	"fmt"
	"strings"
)

// PortDirection is the VHDL port mode.
type PortDirection string

const (
	In     PortDirection = "in"
	Out    PortDirection = "out"
	InOut  PortDirection = "inout"
	Buffer PortDirection = "buffer"
)

// ParseDirection maps a VHDL mode keyword (case-insensitive) to a direction.
// Returns false for anything that is not in/out/inout/buffer.
func ParseDirection(s string) (PortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return In, true
	case "out":
		return Out, true
	case "inout":
		return InOut, true
	case "buffer":
		return Buffer, true
	default:
		return "", false
	}
}

// TypeKind discriminates the VHDL type variants the transpiler models.
type TypeKind string

const (
	StdLogic       TypeKind = "std_logic"
	StdLogicVector TypeKind = "std_logic_vector"
	Bit            TypeKind = "bit"
	BitVector      TypeKind = "bit_vector"
	Integer        TypeKind = "integer"
	Natural        TypeKind = "natural"
	Positive       TypeKind = "positive"
	Boolean        TypeKind = "boolean"
	Signed         TypeKind = "signed"
	Unsigned       TypeKind = "unsigned"
	Custom         TypeKind = "custom"
)

// VectorRange is the bit-width descriptor of a multi-bit type.
// Downto records the declared bound order; Bracket always renders the
// canonical [msb:lsb] form regardless of declaration orientation.
type VectorRange struct {
	Left   int  `json:"left"`
	Right  int  `json:"right"`
	Downto bool `json:"downto"`

	// Fallback marks a range whose bound could not be evaluated and was
	// substituted with a heuristic constant.
	Fallback bool `json:"fallback,omitempty"`
}

// Bracket renders the range in [msb:lsb] form. An ascending declaration
// ("0 to 7") flips so both orientations of the same physical span agree.
func (r VectorRange) Bracket() string {
	if r.Downto {
		return fmt.Sprintf("[%d:%d]", r.Left, r.Right)
	}
	return fmt.Sprintf("[%d:%d]", r.Right, r.Left)
}

// Type is a VHDL port or signal type. Range is set for the vector kinds,
// and kept on Custom types when one was resolved, for diagnostics.
type Type struct {
	Kind  TypeKind     `json:"kind"`
	Range *VectorRange `json:"range,omitempty"`
	Name  string       `json:"name,omitempty"` // original name for Custom
}

// IsVector reports whether the type carries a bit range.
func (t Type) IsVector() bool {
	switch t.Kind {
	case StdLogicVector, BitVector, Signed, Unsigned:
		return true
	}
	return false
}

// ScalarType returns a Type with no range.
func ScalarType(kind TypeKind) Type {
	return Type{Kind: kind}
}

// VectorType returns a vector Type carrying the given range.
func VectorType(kind TypeKind, r VectorRange) Type {
	return Type{Kind: kind, Range: &r}
}

// CustomType returns a Custom Type preserving the original type name.
func CustomType(name string, r *VectorRange) Type {
	return Type{Kind: Custom, Name: name, Range: r}
}

// Port is one entry of an entity port list. Slice order is semantically
// significant: it fixes the generated module's port order.
type Port struct {
	Name      string        `json:"name"`
	Direction PortDirection `json:"direction"`
	Type      Type          `json:"type"`
}

// Generic is an entity generic. The type and default value are kept as
// opaque text; generic expressions are not evaluated.
type Generic struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
}

// Signal is an architecture-internal signal declaration.
type Signal struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Process is a VHDL process: a sensitivity list plus the raw procedural
// body text, translated statement by statement at generation time.
type Process struct {
	Label           string   `json:"label,omitempty"`
	SensitivityList []string `json:"sensitivity_list"`
	Body            string   `json:"body"`
}

// Architecture is the implementation body bound to one entity.
type Architecture struct {
	Name                 string    `json:"name"`
	Signals              []Signal  `json:"signals"`
	Processes            []Process `json:"processes"`
	ConcurrentStatements []string  `json:"concurrent_statements"`
}

// Entity is one VHDL entity declaration with its optional architecture.
type Entity struct {
	Name         string        `json:"name"`
	Ports        []Port        `json:"ports"`
	Generics     []Generic     `json:"generics"`
	Architecture *Architecture `json:"architecture,omitempty"`
}
