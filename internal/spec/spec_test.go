package spec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepSpec() Spec {
	return Group("step",
		Leaf("action", Float32, 3),
		Group("observation",
			Leaf("lidar", Float32, 5),
			Leaf("camera", Float32, 3, 2),
		),
	)
}

func TestSpec_Flatten(t *testing.T) {
	leaves := stepSpec().Flatten()
	require.Len(t, leaves, 3)

	assert.Equal(t, "action", leaves[0].Name)
	assert.Equal(t, "observation.lidar", leaves[1].Name)
	assert.Equal(t, "observation.camera", leaves[2].Name)
	assert.Equal(t, []int{3, 2}, leaves[2].Shape)
	assert.Equal(t, 24, leaves[2].ByteSize())
	assert.Equal(t, 12+20+24, stepSpec().RecordBytes())

	idx, ok := stepSpec().Index("observation.camera")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = stepSpec().Index("observation")
	assert.False(t, ok)
}

func TestSpec_FlattenSingleLeaf(t *testing.T) {
	leaves := Leaf("action", Int32).Flatten()
	require.Len(t, leaves, 1)
	assert.Equal(t, "action", leaves[0].Name)
	assert.Empty(t, leaves[0].Shape)
	assert.Equal(t, 4, leaves[0].ByteSize())
}

func TestSpec_Validate(t *testing.T) {
	require.NoError(t, stepSpec().Validate())

	cases := map[string]Spec{
		"missing dtype":   Leaf("x", Invalid, 2),
		"negative dim":    Leaf("x", Float32, -1),
		"duplicate field": Group("g", Leaf("a", Int32), Leaf("a", Int32)),
		"unnamed field":   Group("g", Leaf("", Int32)),
		"empty group":     Group("g", Group("inner")),
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Validate(), ErrInvalidSpec)
		})
	}
}

func TestSpec_Compatible(t *testing.T) {
	assert.True(t, stepSpec().Compatible(stepSpec()))

	otherShape := Group("step",
		Leaf("action", Float32, 4),
		Group("observation", Leaf("lidar", Float32, 5), Leaf("camera", Float32, 3, 2)),
	)
	assert.False(t, stepSpec().Compatible(otherShape))

	otherType := Group("step",
		Leaf("action", Float64, 3),
		Group("observation", Leaf("lidar", Float32, 5), Leaf("camera", Float32, 3, 2)),
	)
	assert.False(t, stepSpec().Compatible(otherType))

	otherTree := Group("step",
		Leaf("action", Float32, 3),
		Leaf("lidar", Float32, 5),
		Leaf("camera", Float32, 3, 2),
	)
	assert.False(t, stepSpec().Compatible(otherTree))
}

func TestParseYAML(t *testing.T) {
	doc := []byte(`
name: step
fields:
  - {name: action, dtype: float32, shape: [3]}
  - name: observation
    fields:
      - {name: lidar, dtype: float32, shape: [5]}
      - {name: camera, dtype: float32, shape: [3, 2]}
`)
	s, err := ParseYAML(doc)
	require.NoError(t, err)
	assert.True(t, s.Compatible(stepSpec()))

	out, err := MarshalYAML(s)
	require.NoError(t, err)
	again, err := ParseYAML(out)
	require.NoError(t, err)
	assert.True(t, again.Compatible(s))
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte(`{name: x, dtype: complex64}`))
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = ParseYAML([]byte(`name: x`))
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestDType_JSON(t *testing.T) {
	data, err := json.Marshal(TensorSpec{Name: "reward", DType: Float64, Shape: []int{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"reward","dtype":"float64","shape":[]}`, string(data))

	var decoded TensorSpec
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Float64, decoded.DType)
}
