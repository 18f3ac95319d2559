package spec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Tensor is a dense row-major value. Data holds the elements encoded
// little-endian, DType.Size() bytes each.
type Tensor struct {
	DType DType  `json:"dtype" cbor:"1,keyasint"`
	Shape []int  `json:"shape" cbor:"2,keyasint"`
	Data  []byte `json:"data" cbor:"3,keyasint"`
}

// Zeros returns a zero-valued tensor of the given type and shape.
func Zeros(dtype DType, shape ...int) Tensor {
	return Tensor{
		DType: dtype,
		Shape: cloneShape(shape),
		Data:  make([]byte, numElements(shape)*dtype.Size()),
	}
}

// NumElements returns the number of elements in t.
func (t Tensor) NumElements() int {
	return numElements(t.Shape)
}

// Validate checks that Data is consistent with DType and Shape.
func (t Tensor) Validate() error {
	if !t.DType.Valid() {
		return fmt.Errorf("%w: tensor has invalid dtype %s", ErrSpecMismatch, t.DType)
	}
	for _, dim := range t.Shape {
		if dim < 0 {
			return fmt.Errorf("%w: tensor has negative dim in shape %v", ErrSpecMismatch, t.Shape)
		}
	}
	if want := t.NumElements() * t.DType.Size(); len(t.Data) != want {
		return fmt.Errorf("%w: tensor %s%v carries %d bytes, want %d", ErrSpecMismatch, t.DType, t.Shape, len(t.Data), want)
	}
	return nil
}

// Equal reports whether t and other hold identical values.
func (t Tensor) Equal(other Tensor) bool {
	return t.DType == other.DType && equalShape(t.Shape, other.Shape) && bytes.Equal(t.Data, other.Data)
}

// Index returns a copy of the i-th slice of t along its leading axis.
func (t Tensor) Index(i int) Tensor {
	if len(t.Shape) == 0 {
		panic("spec: Index on scalar tensor")
	}
	if i < 0 || i >= t.Shape[0] {
		panic(fmt.Sprintf("spec: index %d out of range for leading dim %d", i, t.Shape[0]))
	}
	inner := t.Shape[1:]
	stride := numElements(inner) * t.DType.Size()
	data := make([]byte, stride)
	copy(data, t.Data[i*stride:(i+1)*stride])
	return Tensor{DType: t.DType, Shape: cloneShape(inner), Data: data}
}

// Stack joins tensors of identical dtype and shape along a new leading axis.
func Stack(tensors []Tensor) (Tensor, error) {
	if len(tensors) == 0 {
		return Tensor{}, fmt.Errorf("%w: nothing to stack", ErrSpecMismatch)
	}
	first := tensors[0]
	stride := len(first.Data)
	data := make([]byte, 0, stride*len(tensors))
	for i, t := range tensors {
		if t.DType != first.DType || !equalShape(t.Shape, first.Shape) {
			return Tensor{}, fmt.Errorf("%w: cannot stack %s%v with %s%v at position %d",
				ErrSpecMismatch, t.DType, t.Shape, first.DType, first.Shape, i)
		}
		data = append(data, t.Data...)
	}
	shape := append([]int{len(tensors)}, first.Shape...)
	return Tensor{DType: first.DType, Shape: shape, Data: data}, nil
}

// FromFloat32s builds a float32 tensor. len(values) must match shape.
func FromFloat32s(shape []int, values []float32) Tensor {
	t := newChecked(Float32, shape, len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(t.Data[i*4:], math.Float32bits(v))
	}
	return t
}

// FromFloat64s builds a float64 tensor.
func FromFloat64s(shape []int, values []float64) Tensor {
	t := newChecked(Float64, shape, len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(t.Data[i*8:], math.Float64bits(v))
	}
	return t
}

// FromInt32s builds an int32 tensor.
func FromInt32s(shape []int, values []int32) Tensor {
	t := newChecked(Int32, shape, len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(t.Data[i*4:], uint32(v))
	}
	return t
}

// FromInt64s builds an int64 tensor.
func FromInt64s(shape []int, values []int64) Tensor {
	t := newChecked(Int64, shape, len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(t.Data[i*8:], uint64(v))
	}
	return t
}

// FromUint8s builds a uint8 tensor.
func FromUint8s(shape []int, values []uint8) Tensor {
	t := newChecked(Uint8, shape, len(values))
	copy(t.Data, values)
	return t
}

// FromBools builds a bool tensor.
func FromBools(shape []int, values []bool) Tensor {
	t := newChecked(Bool, shape, len(values))
	for i, v := range values {
		if v {
			t.Data[i] = 1
		}
	}
	return t
}

// Scalar builds a rank-0 tensor from v, converted to dtype.
func Scalar(dtype DType, v float64) Tensor {
	t := Zeros(dtype)
	t.set(0, v)
	return t
}

func newChecked(dtype DType, shape []int, n int) Tensor {
	if numElements(shape) != n {
		panic(fmt.Sprintf("spec: %d values do not fill shape %v", n, shape))
	}
	return Zeros(dtype, shape...)
}

// Float32s decodes a float32 tensor.
func (t Tensor) Float32s() []float32 {
	t.mustBe(Float32)
	out := make([]float32, t.NumElements())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.Data[i*4:]))
	}
	return out
}

// Float64s decodes a float64 tensor.
func (t Tensor) Float64s() []float64 {
	t.mustBe(Float64)
	out := make([]float64, t.NumElements())
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(t.Data[i*8:]))
	}
	return out
}

// Int32s decodes an int32 tensor.
func (t Tensor) Int32s() []int32 {
	t.mustBe(Int32)
	out := make([]int32, t.NumElements())
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(t.Data[i*4:]))
	}
	return out
}

// Int64s decodes an int64 tensor.
func (t Tensor) Int64s() []int64 {
	t.mustBe(Int64)
	out := make([]int64, t.NumElements())
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(t.Data[i*8:]))
	}
	return out
}

// Uint8s returns a copy of a uint8 tensor's elements.
func (t Tensor) Uint8s() []uint8 {
	t.mustBe(Uint8)
	out := make([]uint8, len(t.Data))
	copy(out, t.Data)
	return out
}

// Bools decodes a bool tensor.
func (t Tensor) Bools() []bool {
	t.mustBe(Bool)
	out := make([]bool, len(t.Data))
	for i, b := range t.Data {
		out[i] = b != 0
	}
	return out
}

// AsFloat64s widens every element of t to float64, whatever its dtype.
// Int64 values beyond 2^53 lose precision.
func (t Tensor) AsFloat64s() []float64 {
	out := make([]float64, t.NumElements())
	for i := range out {
		out[i] = t.at(i)
	}
	return out
}

func (t Tensor) at(i int) float64 {
	switch t.DType {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(t.Data[i*4:])))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(t.Data[i*8:]))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(t.Data[i*4:])))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(t.Data[i*8:])))
	case Uint8:
		return float64(t.Data[i])
	case Bool:
		if t.Data[i] != 0 {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("spec: unsupported dtype %s", t.DType))
	}
}

func (t Tensor) set(i int, v float64) {
	switch t.DType {
	case Float32:
		binary.LittleEndian.PutUint32(t.Data[i*4:], math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(t.Data[i*8:], math.Float64bits(v))
	case Int32:
		binary.LittleEndian.PutUint32(t.Data[i*4:], uint32(int64(v)))
	case Int64:
		binary.LittleEndian.PutUint64(t.Data[i*8:], uint64(int64(v)))
	case Uint8:
		t.Data[i] = uint8(int64(v))
	case Bool:
		if v != 0 {
			t.Data[i] = 1
		} else {
			t.Data[i] = 0
		}
	default:
		panic(fmt.Sprintf("spec: unsupported dtype %s", t.DType))
	}
}

// Fill overwrites every element of t with values produced by fn, converted
// to t's dtype. Integer dtypes truncate toward zero and then wrap modulo
// their width, so 1003 stored as uint8 reads back as 235.
func (t Tensor) Fill(fn func(i int) float64) {
	for i := 0; i < t.NumElements(); i++ {
		t.set(i, fn(i))
	}
}

func (t Tensor) mustBe(dtype DType) {
	if t.DType != dtype {
		panic(fmt.Sprintf("spec: tensor is %s, not %s", t.DType, dtype))
	}
}
