package spec

import (
	"fmt"
	"strings"
)

// DType is the element type of a tensor leaf.
type DType uint8

const (
	Invalid DType = iota
	Float32
	Float64
	Int32
	Int64
	Uint8
	Bool
)

var dtypeNames = map[DType]string{
	Float32: "float32",
	Float64: "float64",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Bool:    "bool",
}

// Size returns the width of one element in bytes, or 0 for Invalid.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8, Bool:
		return 1
	default:
		return 0
	}
}

// Valid reports whether d names a known element type.
func (d DType) Valid() bool {
	return d.Size() > 0
}

func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dtype(%d)", uint8(d))
}

// ParseDType converts a name such as "float32" into a DType.
func ParseDType(name string) (DType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d, n := range dtypeNames {
		if n == name {
			return d, nil
		}
	}
	return Invalid, fmt.Errorf("%w: unknown dtype %q", ErrInvalidSpec, name)
}

// MarshalText implements encoding.TextMarshaler.
func (d DType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: cannot marshal %s", ErrInvalidSpec, d)
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DType) UnmarshalText(text []byte) error {
	parsed, err := ParseDType(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
