package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/cartridge/replay/internal/spec"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(Name)
	require.NotNil(t, c)
	assert.Equal(t, Name, c.Name())
}

func TestCodec_Record(t *testing.T) {
	type envelope struct {
		Items spec.Record `cbor:"1,keyasint"`
		Spec  spec.Spec   `cbor:"2,keyasint"`
	}
	in := envelope{
		Items: spec.Record{
			spec.FromFloat32s([]int{2}, []float32{0.5, -1}),
			spec.FromBools([]int{}, []bool{true}),
		},
		Spec: spec.Group("step", spec.Leaf("x", spec.Float32, 2), spec.Leaf("done", spec.Bool)),
	}

	data, err := Codec{}.Marshal(&in)
	require.NoError(t, err)

	var out envelope
	require.NoError(t, Codec{}.Unmarshal(data, &out))
	assert.True(t, out.Items.Equal(in.Items))
	assert.True(t, out.Spec.Compatible(in.Spec))
}

func TestCodec_ProtoMessages(t *testing.T) {
	data, err := Codec{}.Marshal(wrapperspb.String("replay"))
	require.NoError(t, err)

	out := &wrapperspb.StringValue{}
	require.NoError(t, Codec{}.Unmarshal(data, out))
	assert.Equal(t, "replay", out.GetValue())
}
