package replayv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// This is a compile-time assertion to ensure that this file is compatible
// with the grpc package it is being compiled against.
const _ = grpc.SupportPackageIsVersion7

const (
	Replay_GetSpec_FullMethodName      = "/replay.v1.Replay/GetSpec"
	Replay_AddBatch_FullMethodName     = "/replay.v1.Replay/AddBatch"
	Replay_Sample_FullMethodName       = "/replay.v1.Replay/Sample"
	Replay_SampleStream_FullMethodName = "/replay.v1.Replay/SampleStream"
	Replay_GatherAll_FullMethodName    = "/replay.v1.Replay/GatherAll"
	Replay_Get_FullMethodName          = "/replay.v1.Replay/Get"
	Replay_Clear_FullMethodName        = "/replay.v1.Replay/Clear"
	Replay_GetStats_FullMethodName     = "/replay.v1.Replay/GetStats"
)

// ReplayClient is the client API for Replay service.
type ReplayClient interface {
	GetSpec(ctx context.Context, in *GetSpecRequest, opts ...grpc.CallOption) (*SpecResponse, error)
	AddBatch(ctx context.Context, in *AddBatchRequest, opts ...grpc.CallOption) (*AddBatchResponse, error)
	Sample(ctx context.Context, in *SampleRequest, opts ...grpc.CallOption) (*SampleResponse, error)
	SampleStream(ctx context.Context, in *SampleStreamRequest, opts ...grpc.CallOption) (Replay_SampleStreamClient, error)
	GatherAll(ctx context.Context, in *GatherAllRequest, opts ...grpc.CallOption) (*GatherAllResponse, error)
	Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error)
	Clear(ctx context.Context, in *ClearRequest, opts ...grpc.CallOption) (*ClearResponse, error)
	GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*StatsResponse, error)
}

type replayClient struct {
	cc grpc.ClientConnInterface
}

// NewReplayClient wraps cc. Calls still need the cbor content subtype.
func NewReplayClient(cc grpc.ClientConnInterface) ReplayClient {
	return &replayClient{cc}
}

func (c *replayClient) GetSpec(ctx context.Context, in *GetSpecRequest, opts ...grpc.CallOption) (*SpecResponse, error) {
	out := new(SpecResponse)
	err := c.cc.Invoke(ctx, Replay_GetSpec_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) AddBatch(ctx context.Context, in *AddBatchRequest, opts ...grpc.CallOption) (*AddBatchResponse, error) {
	out := new(AddBatchResponse)
	err := c.cc.Invoke(ctx, Replay_AddBatch_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) Sample(ctx context.Context, in *SampleRequest, opts ...grpc.CallOption) (*SampleResponse, error) {
	out := new(SampleResponse)
	err := c.cc.Invoke(ctx, Replay_Sample_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) SampleStream(ctx context.Context, in *SampleStreamRequest, opts ...grpc.CallOption) (Replay_SampleStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &Replay_ServiceDesc.Streams[0], Replay_SampleStream_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &replaySampleStreamClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Replay_SampleStreamClient receives samples from a SampleStream call.
type Replay_SampleStreamClient interface {
	Recv() (*SampleResponse, error)
	grpc.ClientStream
}

type replaySampleStreamClient struct {
	grpc.ClientStream
}

func (x *replaySampleStreamClient) Recv() (*SampleResponse, error) {
	m := new(SampleResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *replayClient) GatherAll(ctx context.Context, in *GatherAllRequest, opts ...grpc.CallOption) (*GatherAllResponse, error) {
	out := new(GatherAllResponse)
	err := c.cc.Invoke(ctx, Replay_GatherAll_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	out := new(GetResponse)
	err := c.cc.Invoke(ctx, Replay_Get_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) Clear(ctx context.Context, in *ClearRequest, opts ...grpc.CallOption) (*ClearResponse, error) {
	out := new(ClearResponse)
	err := c.cc.Invoke(ctx, Replay_Clear_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *replayClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	out := new(StatsResponse)
	err := c.cc.Invoke(ctx, Replay_GetStats_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplayServer is the server API for Replay service.
// All implementations must embed UnimplementedReplayServer
// for forward compatibility
type ReplayServer interface {
	GetSpec(context.Context, *GetSpecRequest) (*SpecResponse, error)
	AddBatch(context.Context, *AddBatchRequest) (*AddBatchResponse, error)
	Sample(context.Context, *SampleRequest) (*SampleResponse, error)
	SampleStream(*SampleStreamRequest, Replay_SampleStreamServer) error
	GatherAll(context.Context, *GatherAllRequest) (*GatherAllResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Clear(context.Context, *ClearRequest) (*ClearResponse, error)
	GetStats(context.Context, *GetStatsRequest) (*StatsResponse, error)
	mustEmbedUnimplementedReplayServer()
}

// UnimplementedReplayServer must be embedded to have forward compatible implementations.
type UnimplementedReplayServer struct{}

func (UnimplementedReplayServer) GetSpec(context.Context, *GetSpecRequest) (*SpecResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSpec not implemented")
}
func (UnimplementedReplayServer) AddBatch(context.Context, *AddBatchRequest) (*AddBatchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AddBatch not implemented")
}
func (UnimplementedReplayServer) Sample(context.Context, *SampleRequest) (*SampleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Sample not implemented")
}
func (UnimplementedReplayServer) SampleStream(*SampleStreamRequest, Replay_SampleStreamServer) error {
	return status.Errorf(codes.Unimplemented, "method SampleStream not implemented")
}
func (UnimplementedReplayServer) GatherAll(context.Context, *GatherAllRequest) (*GatherAllResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GatherAll not implemented")
}
func (UnimplementedReplayServer) Get(context.Context, *GetRequest) (*GetResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedReplayServer) Clear(context.Context, *ClearRequest) (*ClearResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Clear not implemented")
}
func (UnimplementedReplayServer) GetStats(context.Context, *GetStatsRequest) (*StatsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetStats not implemented")
}
func (UnimplementedReplayServer) mustEmbedUnimplementedReplayServer() {}

// RegisterReplayServer registers srv on s.
func RegisterReplayServer(s grpc.ServiceRegistrar, srv ReplayServer) {
	s.RegisterService(&Replay_ServiceDesc, srv)
}

func _Replay_GetSpec_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetSpecRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).GetSpec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Replay_GetSpec_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).GetSpec(ctx, req.(*GetSpecRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_AddBatch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AddBatchRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).AddBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Replay_AddBatch_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).AddBatch(ctx, req.(*AddBatchRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_Sample_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SampleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).Sample(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Replay_Sample_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).Sample(ctx, req.(*SampleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_SampleStream_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(SampleStreamRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ReplayServer).SampleStream(m, &replaySampleStreamServer{stream})
}

// Replay_SampleStreamServer sends samples on a SampleStream call.
type Replay_SampleStreamServer interface {
	Send(*SampleResponse) error
	grpc.ServerStream
}

type replaySampleStreamServer struct {
	grpc.ServerStream
}

func (x *replaySampleStreamServer) Send(m *SampleResponse) error {
	return x.ServerStream.SendMsg(m)
}

func _Replay_GatherAll_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GatherAllRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).GatherAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Replay_GatherAll_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).GatherAll(ctx, req.(*GatherAllRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Replay_Get_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).Get(ctx, req.(*GetRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_Clear_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClearRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).Clear(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Replay_Clear_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).Clear(ctx, req.(*ClearRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Replay_GetStats_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetStatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReplayServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Replay_GetStats_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReplayServer).GetStats(ctx, req.(*GetStatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Replay_ServiceDesc is the grpc.ServiceDesc for Replay service.
var Replay_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "replay.v1.Replay",
	HandlerType: (*ReplayServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSpec",
			Handler:    _Replay_GetSpec_Handler,
		},
		{
			MethodName: "AddBatch",
			Handler:    _Replay_AddBatch_Handler,
		},
		{
			MethodName: "Sample",
			Handler:    _Replay_Sample_Handler,
		},
		{
			MethodName: "GatherAll",
			Handler:    _Replay_GatherAll_Handler,
		},
		{
			MethodName: "Get",
			Handler:    _Replay_Get_Handler,
		},
		{
			MethodName: "Clear",
			Handler:    _Replay_Clear_Handler,
		},
		{
			MethodName: "GetStats",
			Handler:    _Replay_GetStats_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SampleStream",
			Handler:       _Replay_SampleStream_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "replay/v1/replay.proto",
}
