// Package spec describes the structure of a step record and holds the
// tensor values that conform to it.
//
// A Spec is a tree. Leaves declare an element type and a fixed shape,
// groups hold an ordered list of named children. Values travel as a
// Record: one Tensor per leaf, in the depth-first order Flatten reports.
package spec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSpec indicates a malformed spec tree.
	ErrInvalidSpec = errors.New("invalid spec")
	// ErrSpecMismatch indicates a value that does not conform to its spec.
	ErrSpecMismatch = errors.New("spec mismatch")
)

// TensorSpec describes one leaf of a Spec. Name is the dotted path of the
// leaf inside its tree once flattened.
type TensorSpec struct {
	Name  string `json:"name" yaml:"name" cbor:"1,keyasint"`
	DType DType  `json:"dtype" yaml:"dtype" cbor:"2,keyasint"`
	Shape []int  `json:"shape" yaml:"shape" cbor:"3,keyasint"`
}

// NumElements returns the product of the shape dims.
func (t TensorSpec) NumElements() int {
	return numElements(t.Shape)
}

// ByteSize returns the number of bytes one value of this leaf occupies.
func (t TensorSpec) ByteSize() int {
	return t.NumElements() * t.DType.Size()
}

// Spec is one node of a structured spec. A node with Fields is a group;
// otherwise it is a leaf described by DType and Shape.
type Spec struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty" cbor:"1,keyasint,omitempty"`
	DType  DType  `json:"dtype,omitempty" yaml:"dtype,omitempty" cbor:"2,keyasint,omitempty"`
	Shape  []int  `json:"shape,omitempty" yaml:"shape,omitempty" cbor:"3,keyasint,omitempty"`
	Fields []Spec `json:"fields,omitempty" yaml:"fields,omitempty" cbor:"4,keyasint,omitempty"`
}

// Leaf returns a leaf node.
func Leaf(name string, dtype DType, shape ...int) Spec {
	if shape == nil {
		shape = []int{}
	}
	return Spec{Name: name, DType: dtype, Shape: shape}
}

// Group returns a group node holding fields in order.
func Group(name string, fields ...Spec) Spec {
	return Spec{Name: name, Fields: fields}
}

// IsLeaf reports whether s declares a tensor rather than a group.
func (s Spec) IsLeaf() bool {
	return len(s.Fields) == 0
}

// Validate checks the tree for structural errors.
func (s Spec) Validate() error {
	return s.validate(s.Name)
}

func (s Spec) validate(path string) error {
	if s.IsLeaf() {
		if !s.DType.Valid() {
			return fmt.Errorf("%w: leaf %q has no valid dtype", ErrInvalidSpec, displayPath(path))
		}
		for _, dim := range s.Shape {
			if dim < 0 {
				return fmt.Errorf("%w: leaf %q has negative dim in shape %v", ErrInvalidSpec, displayPath(path), s.Shape)
			}
		}
		return nil
	}
	if s.DType != Invalid || len(s.Shape) > 0 {
		return fmt.Errorf("%w: group %q must not declare dtype or shape", ErrInvalidSpec, displayPath(path))
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, field := range s.Fields {
		if field.Name == "" {
			return fmt.Errorf("%w: unnamed field in group %q", ErrInvalidSpec, displayPath(path))
		}
		if seen[field.Name] {
			return fmt.Errorf("%w: duplicate field %q in group %q", ErrInvalidSpec, field.Name, displayPath(path))
		}
		seen[field.Name] = true
		if err := field.validate(joinPath(path, field.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Flatten returns the leaves of s in depth-first order. The root name is
// not part of the leaf paths, so a single-leaf spec flattens to one leaf
// carrying the root name.
func (s Spec) Flatten() []TensorSpec {
	if s.IsLeaf() {
		return []TensorSpec{{Name: s.Name, DType: s.DType, Shape: cloneShape(s.Shape)}}
	}
	var leaves []TensorSpec
	for _, field := range s.Fields {
		field.flatten(field.Name, &leaves)
	}
	return leaves
}

func (s Spec) flatten(path string, out *[]TensorSpec) {
	if s.IsLeaf() {
		*out = append(*out, TensorSpec{Name: path, DType: s.DType, Shape: cloneShape(s.Shape)})
		return
	}
	for _, field := range s.Fields {
		field.flatten(joinPath(path, field.Name), out)
	}
}

// Index returns the position of the leaf at path within Flatten.
func (s Spec) Index(path string) (int, bool) {
	for i, leaf := range s.Flatten() {
		if leaf.Name == path {
			return i, true
		}
	}
	return -1, false
}

// Compatible reports whether s and other have the same tree shape, field
// names, leaf shapes and leaf dtypes.
func (s Spec) Compatible(other Spec) bool {
	if s.IsLeaf() != other.IsLeaf() {
		return false
	}
	if s.IsLeaf() {
		return s.DType == other.DType && equalShape(s.Shape, other.Shape)
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i].Name != other.Fields[i].Name || !s.Fields[i].Compatible(other.Fields[i]) {
			return false
		}
	}
	return true
}

// RecordBytes returns the number of bytes one record of s occupies.
func (s Spec) RecordBytes() int {
	total := 0
	for _, leaf := range s.Flatten() {
		total += leaf.ByteSize()
	}
	return total
}

func (s Spec) String() string {
	leaves := s.Flatten()
	parts := make([]string, len(leaves))
	for i, leaf := range leaves {
		parts[i] = fmt.Sprintf("%s:%s%v", leaf.Name, leaf.DType, leaf.Shape)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

func numElements(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneShape(shape []int) []int {
	out := make([]int, len(shape))
	copy(out, shape)
	return out
}
