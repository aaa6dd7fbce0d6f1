package grpcserver

import (
	"context"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "billing.v1.BillingService"

// RPC method names.
const (
	MethodGetConfig               = "GetConfig"
	MethodListPlans               = "ListPlans"
	MethodCreateCheckoutSession   = "CreateCheckoutSession"
	MethodCompleteCheckoutSession = "CompleteCheckoutSession"
	MethodGetSubscription         = "GetSubscription"
	MethodCancelSubscription      = "CancelSubscription"
	MethodReceiveWebhook          = "ReceiveWebhook"
)

// FullMethod returns the "/service/method" path of an RPC.
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// BillingServiceServer is the server API. Requests and responses are
// google.protobuf.Struct JSON objects, except the webhook, which takes the raw
// provider body.
type BillingServiceServer interface {
	GetConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPlans(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCheckoutSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteCheckoutSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSubscription(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelSubscription(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReceiveWebhook(context.Context, *httpbody.HttpBody) (*structpb.Struct, error)
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }

func newHTTPBody() *httpbody.HttpBody { return new(httpbody.HttpBody) }

func unaryHandler[Req proto.Message](method string, newReq func() Req, call func(BillingServiceServer, context.Context, Req) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BillingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BillingServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes BillingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BillingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodGetConfig, Handler: unaryHandler(MethodGetConfig, newStruct, BillingServiceServer.GetConfig)},
		{MethodName: MethodListPlans, Handler: unaryHandler(MethodListPlans, newStruct, BillingServiceServer.ListPlans)},
		{MethodName: MethodCreateCheckoutSession, Handler: unaryHandler(MethodCreateCheckoutSession, newStruct, BillingServiceServer.CreateCheckoutSession)},
		{MethodName: MethodCompleteCheckoutSession, Handler: unaryHandler(MethodCompleteCheckoutSession, newStruct, BillingServiceServer.CompleteCheckoutSession)},
		{MethodName: MethodGetSubscription, Handler: unaryHandler(MethodGetSubscription, newStruct, BillingServiceServer.GetSubscription)},
		{MethodName: MethodCancelSubscription, Handler: unaryHandler(MethodCancelSubscription, newStruct, BillingServiceServer.CancelSubscription)},
		{MethodName: MethodReceiveWebhook, Handler: unaryHandler(MethodReceiveWebhook, newHTTPBody, BillingServiceServer.ReceiveWebhook)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "billing/v1/billing.proto",
}

// Register adds srv to s.
func Register(s grpc.ServiceRegistrar, srv BillingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
