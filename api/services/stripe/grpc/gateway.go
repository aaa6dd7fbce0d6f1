package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxWebhookBody bounds webhook payloads read into memory.
const maxWebhookBody = 1 << 20

// HeaderMatcher forwards the webhook signature header to gRPC metadata in
// addition to the default permanent headers.
func HeaderMatcher(key string) (string, bool) {
	if strings.EqualFold(key, "Stripe-Signature") {
		return SignatureMetadataKey, true
	}
	return runtime.DefaultHeaderMatcher(key)
}

type route struct {
	method  string
	pattern string
	rpc     string
	call    func(ctx context.Context, srv BillingServiceServer, r *http.Request, in runtime.Marshaler, params map[string]string) (proto.Message, error)
}

var routes = []route{
	{http.MethodGet, "/api/config", MethodGetConfig, func(ctx context.Context, srv BillingServiceServer, _ *http.Request, _ runtime.Marshaler, _ map[string]string) (proto.Message, error) {
		return srv.GetConfig(ctx, &structpb.Struct{})
	}},
	{http.MethodGet, "/api/plans", MethodListPlans, func(ctx context.Context, srv BillingServiceServer, _ *http.Request, _ runtime.Marshaler, _ map[string]string) (proto.Message, error) {
		return srv.ListPlans(ctx, &structpb.Struct{})
	}},
	{http.MethodPost, "/api/checkout-sessions", MethodCreateCheckoutSession, func(ctx context.Context, srv BillingServiceServer, r *http.Request, in runtime.Marshaler, _ map[string]string) (proto.Message, error) {
		req, err := decodeStruct(r, in)
		if err != nil {
			return nil, err
		}
		return srv.CreateCheckoutSession(ctx, req)
	}},
	{http.MethodPost, "/api/checkout-sessions/{id}/complete", MethodCompleteCheckoutSession, func(ctx context.Context, srv BillingServiceServer, _ *http.Request, _ runtime.Marshaler, params map[string]string) (proto.Message, error) {
		return srv.CompleteCheckoutSession(ctx, withID(params))
	}},
	{http.MethodGet, "/api/subscriptions/{id}", MethodGetSubscription, func(ctx context.Context, srv BillingServiceServer, _ *http.Request, _ runtime.Marshaler, params map[string]string) (proto.Message, error) {
		return srv.GetSubscription(ctx, withID(params))
	}},
	{http.MethodPost, "/api/subscriptions/{id}/cancel", MethodCancelSubscription, func(ctx context.Context, srv BillingServiceServer, _ *http.Request, _ runtime.Marshaler, params map[string]string) (proto.Message, error) {
		return srv.CancelSubscription(ctx, withID(params))
	}},
	{http.MethodPost, "/api/webhooks/stripe", MethodReceiveWebhook, func(ctx context.Context, srv BillingServiceServer, r *http.Request, _ runtime.Marshaler, _ map[string]string) (proto.Message, error) {
		data, err := readWebhookBody(r)
		if err != nil {
			return nil, err
		}
		return srv.ReceiveWebhook(ctx, &httpbody.HttpBody{ContentType: r.Header.Get("Content-Type"), Data: data})
	}},
}

// RegisterGateway binds the BillingService RPCs to HTTP routes on mux,
// calling srv in-process.
func RegisterGateway(ctx context.Context, mux *runtime.ServeMux, srv BillingServiceServer) error {
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, handler(mux, srv, rt)); err != nil {
			return fmt.Errorf("registering %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	return nil
}

func handler(mux *runtime.ServeMux, srv BillingServiceServer, rt route) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		inbound, outbound := runtime.MarshalerForRequest(mux, r)
		annotated, err := runtime.AnnotateIncomingContext(ctx, mux, r, FullMethod(rt.rpc), runtime.WithHTTPPathPattern(rt.pattern))
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}
		resp, err := rt.call(annotated, srv, r, inbound, params)
		annotated = runtime.NewServerMetadataContext(annotated, runtime.ServerMetadata{})
		if err != nil {
			runtime.HTTPError(annotated, mux, outbound, w, r, err)
			return
		}
		runtime.ForwardResponseMessage(annotated, mux, outbound, w, r, resp)
	}
}

// readWebhookBody rejects bodies over maxWebhookBody rather than truncating them.
func readWebhookBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, status.Errorf(codes.ResourceExhausted, "webhook body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, status.Errorf(codes.InvalidArgument, "reading body: %v", err)
	}
	return data, nil
}

func decodeStruct(r *http.Request, m runtime.Marshaler) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if err := m.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, status.Errorf(codes.InvalidArgument, "decoding body: %v", err)
	}
	return req, nil
}

func withID(params map[string]string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id": structpb.NewStringValue(params["id"]),
	}}
}
