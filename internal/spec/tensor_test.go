package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensor_TypedRoundTrip(t *testing.T) {
	f32 := FromFloat32s([]int{3}, []float32{1, 2.5, -3})
	assert.Equal(t, []float32{1, 2.5, -3}, f32.Float32s())
	require.NoError(t, f32.Validate())

	i64 := FromInt64s([]int{2}, []int64{-7, 1 << 40})
	assert.Equal(t, []int64{-7, 1 << 40}, i64.Int64s())

	b := FromBools([]int{2}, []bool{true, false})
	assert.Equal(t, []bool{true, false}, b.Bools())
	assert.Equal(t, []float64{1, 0}, b.AsFloat64s())

	i32 := FromInt32s([]int{2, 2}, []int32{1, 2, 3, 4})
	assert.Equal(t, []float64{1, 2, 3, 4}, i32.AsFloat64s())
}

func TestTensor_ValidateRejectsShortData(t *testing.T) {
	bad := Tensor{DType: Float32, Shape: []int{2}, Data: make([]byte, 4)}
	assert.ErrorIs(t, bad.Validate(), ErrSpecMismatch)
}

func TestStackAndIndex(t *testing.T) {
	a := FromInt32s([]int{2}, []int32{1, 2})
	b := FromInt32s([]int{2}, []int32{3, 4})

	stacked, err := Stack([]Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, stacked.Shape)
	assert.Equal(t, []int32{1, 2, 3, 4}, stacked.Int32s())

	assert.True(t, stacked.Index(1).Equal(b))

	_, err = Stack([]Tensor{a, FromInt32s([]int{3}, []int32{1, 2, 3})})
	assert.ErrorIs(t, err, ErrSpecMismatch)
}

func TestScalarAndFill(t *testing.T) {
	s := Scalar(Int64, 42)
	assert.Empty(t, s.Shape)
	assert.Equal(t, []int64{42}, s.Int64s())

	z := Zeros(Float64, 2, 2)
	z.Fill(func(i int) float64 { return float64(i) * 0.5 })
	assert.Equal(t, []float64{0, 0.5, 1, 1.5}, z.Float64s())
}

func TestFill_WrapsNarrowIntegers(t *testing.T) {
	u := Zeros(Uint8, 3)
	u.Fill(func(i int) float64 { return []float64{1003, 255.9, -1}[i] })
	assert.Equal(t, []uint8{235, 255, 255}, u.Uint8s())

	n := Zeros(Int32, 2)
	n.Fill(func(i int) float64 { return []float64{1<<32 + 7, -(1<<31 + 1)}[i] })
	assert.Equal(t, []int32{7, 1<<31 - 1}, n.Int32s())
}

func TestCheckRecord(t *testing.T) {
	s := stepSpec()
	rec := Zero(s)
	require.NoError(t, CheckRecord(s, rec))

	batch, err := StackRecords([]Record{rec, rec, rec})
	require.NoError(t, err)
	require.NoError(t, CheckRecord(s, batch, 3))
	assert.ErrorIs(t, CheckRecord(s, batch, 2), ErrSpecMismatch)
	assert.ErrorIs(t, CheckRecord(s, rec[:2]), ErrSpecMismatch)

	wrongType := Zero(s)
	wrongType[0] = Zeros(Float64, 3)
	assert.ErrorIs(t, CheckRecord(s, wrongType), ErrSpecMismatch)

	camera, ok := batch.Get(s, "observation.camera")
	require.True(t, ok)
	assert.Equal(t, []int{3, 3, 2}, camera.Shape)
	assert.True(t, batch.Index(1).Equal(rec))
}
