package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "predicates.v1.RuleService"

// Full method names.
const (
	MethodEvaluate    = "/" + ServiceName + "/Evaluate"
	MethodEvaluateAll = "/" + ServiceName + "/EvaluateAll"
	MethodTest        = "/" + ServiceName + "/Test"
	MethodListRules   = "/" + ServiceName + "/ListRules"
	MethodReloadRules = "/" + ServiceName + "/ReloadRules"
)

// RuleServiceServer is the server API for predicates.v1.RuleService.
//
// Messages are google.protobuf.Struct so documents of any shape travel
// without a generated schema:
//
//	Evaluate     {rule: string, document: {...}}     -> {rule, matched, error?}
//	EvaluateAll  {document: {...}}                   -> {results: [{rule, matched, error?}]}
//	Test         {definition: {rule: {...}}, document: {...}} -> {matched}
//	ListRules    {}                                  -> {rules: [string]}
//	ReloadRules  {}                                  -> {count: number}
type RuleServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Test(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReloadRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRuleServiceServer registers srv with s.
func RegisterRuleServiceServer(s grpc.ServiceRegistrar, srv RuleServiceServer) {
	s.RegisterService(&RuleServiceDesc, srv)
}

// RuleServiceDesc describes predicates.v1.RuleService for grpc.Server.
var RuleServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RuleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(MethodEvaluate, RuleServiceServer.Evaluate)},
		{MethodName: "EvaluateAll", Handler: unaryHandler(MethodEvaluateAll, RuleServiceServer.EvaluateAll)},
		{MethodName: "Test", Handler: unaryHandler(MethodTest, RuleServiceServer.Test)},
		{MethodName: "ListRules", Handler: unaryHandler(MethodListRules, RuleServiceServer.ListRules)},
		{MethodName: "ReloadRules", Handler: unaryHandler(MethodReloadRules, RuleServiceServer.ReloadRules)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "predicates/v1/rule_service.proto",
}

type unaryMethod func(RuleServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a Struct-to-Struct method to grpc.MethodHandler,
// routing through the server's interceptor chain.
func unaryHandler(fullMethod string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RuleServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RuleServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RuleServiceClient is the client API for predicates.v1.RuleService.
type RuleServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRuleServiceClient creates a client over cc.
func NewRuleServiceClient(cc grpc.ClientConnInterface) *RuleServiceClient {
	return &RuleServiceClient{cc: cc}
}

func (c *RuleServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate calls RuleService.Evaluate.
func (c *RuleServiceClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodEvaluate, in, opts...)
}

// EvaluateAll calls RuleService.EvaluateAll.
func (c *RuleServiceClient) EvaluateAll(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodEvaluateAll, in, opts...)
}

// Test calls RuleService.Test.
func (c *RuleServiceClient) Test(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodTest, in, opts...)
}

// ListRules calls RuleService.ListRules.
func (c *RuleServiceClient) ListRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListRules, in, opts...)
}

// ReloadRules calls RuleService.ReloadRules.
func (c *RuleServiceClient) ReloadRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodReloadRules, in, opts...)
}
