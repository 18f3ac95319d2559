// Package codec registers the gRPC codec the replay service speaks.
//
// Request and response structs travel as CBOR. Values that are protobuf
// messages (health checks, reflection) keep their protobuf encoding, so a
// server can force this codec without breaking the standard services.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// Name is the content-subtype clients select with grpc.CallContentSubtype.
const Name = "cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: build cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 24,
		MaxMapPairs:      1 << 20,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: build cbor decoder: %v", err))
	}
	encoding.RegisterCodec(Codec{})
}

// Codec implements encoding.Codec.
type Codec struct{}

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return encMode.Marshal(v)
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return decMode.Unmarshal(data, v)
}

// Name implements encoding.Codec.
func (Codec) Name() string {
	return Name
}
