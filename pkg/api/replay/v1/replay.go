// Package replayv1 defines the messages and gRPC service of the replay
// API. Messages are plain structs carried by the cbor codec registered in
// internal/codec; clients must select it with
// grpc.CallContentSubtype(codec.Name) or WithDefaultCallOptions.
package replayv1

import (
	"github.com/cartridge/replay/internal/spec"
)

// GetSpecRequest asks for the buffer layout.
type GetSpecRequest struct{}

// SpecResponse describes the buffer layout.
type SpecResponse struct {
	DataSpec  spec.Spec `cbor:"1,keyasint"`
	BatchSize uint32    `cbor:"2,keyasint"`
	Capacity  uint32    `cbor:"3,keyasint"` // 0 means unbounded
}

// AddBatchRequest carries one record per row, each leaf shaped
// [batch_size] + leaf shape.
type AddBatchRequest struct {
	Items spec.Record `cbor:"1,keyasint"`
}

// AddBatchResponse reports the id the batch was written at.
type AddBatchResponse struct {
	LastId int64 `cbor:"1,keyasint"`
}

// SampleRequest mirrors storage.SampleConfig.
type SampleRequest struct {
	SampleBatchSize uint32 `cbor:"1,keyasint"`
	NumSteps        uint32 `cbor:"2,keyasint"`
	Unstacked       bool   `cbor:"3,keyasint"`
	Row             *int32 `cbor:"4,keyasint,omitempty"`
}

// SampleResponse carries the sampled records and their sampling metadata.
type SampleResponse struct {
	Items         []spec.Record `cbor:"1,keyasint"`
	Ids           []int64       `cbor:"2,keyasint"`
	Rows          []int32       `cbor:"3,keyasint"`
	Probabilities []float64     `cbor:"4,keyasint"`
}

// SampleStreamRequest opens a server stream of samples. Count == 0 streams
// until the client cancels.
type SampleStreamRequest struct {
	Config *SampleRequest `cbor:"1,keyasint"`
	Count  uint32         `cbor:"2,keyasint"`
}

// GatherAllRequest asks for the full history.
type GatherAllRequest struct{}

// GatherAllResponse holds every valid record, leaves shaped
// [batch_size, valid_count] + leaf shape.
type GatherAllResponse struct {
	Items      spec.Record `cbor:"1,keyasint"`
	ValidCount uint32      `cbor:"2,keyasint"`
}

// GetRequest addresses one stored record.
type GetRequest struct {
	Row int32 `cbor:"1,keyasint"`
	Id  int64 `cbor:"2,keyasint"`
}

// GetResponse holds one record.
type GetResponse struct {
	Item spec.Record `cbor:"1,keyasint"`
}

// ClearRequest empties the buffer.
type ClearRequest struct {
	ClearAllVariables bool `cbor:"1,keyasint"`
}

// ClearResponse is empty.
type ClearResponse struct{}

// GetStatsRequest asks for buffer statistics.
type GetStatsRequest struct{}

// StatsResponse reports buffer statistics.
type StatsResponse struct {
	BatchSize    uint32   `cbor:"1,keyasint"`
	Capacity     uint32   `cbor:"2,keyasint"`
	ValidCounts  []uint32 `cbor:"3,keyasint"`
	LastIds      []int64  `cbor:"4,keyasint"`
	TotalAdded   uint64   `cbor:"5,keyasint"`
	StorageBytes uint64   `cbor:"6,keyasint"`
}
