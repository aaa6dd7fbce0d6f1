package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	stripeapp "github.com/realityinspector/auto-hyperflask/api/services/stripe/app"
)

// SignatureMetadataKey carries the provider's webhook signature header.
const SignatureMetadataKey = "stripe-signature"

// Server implements BillingServiceServer on top of the app facade.
type Server struct {
	svc stripeapp.Service
}

var _ BillingServiceServer = (*Server)(nil)

func New(svc stripeapp.Service) *Server { return &Server{svc: svc} }

func (s *Server) GetConfig(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.svc.Config())
}

func (s *Server) ListPlans(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(map[string]any{"plans": s.svc.Plans()})
}

func (s *Server) CreateCheckoutSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := stripeapp.CheckoutRequest{
		CustomerEmail: field(in, "customer_email"),
		PriceID:       field(in, "price_id"),
		SuccessURL:    field(in, "success_url"),
		CancelURL:     field(in, "cancel_url"),
		Mode:          field(in, "mode"),
	}
	session, err := s.svc.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(session)
}

func (s *Server) CompleteCheckoutSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := field(in, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	session, err := s.svc.CompleteMockCheckout(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(session)
}

func (s *Server) GetSubscription(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sub, err := s.svc.GetSubscription(ctx, field(in, "id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(sub)
}

func (s *Server) CancelSubscription(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sub, err := s.svc.CancelSubscription(ctx, field(in, "id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(sub)
}

// ReceiveWebhook verifies and applies a provider webhook. The signature
// header travels as SignatureMetadataKey metadata.
func (s *Server) ReceiveWebhook(ctx context.Context, in *httpbody.HttpBody) (*structpb.Struct, error) {
	sig := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(SignatureMetadataKey); len(v) > 0 {
			sig = v[0]
		}
	}
	event, err := s.svc.ConstructWebhookEvent(in.GetData(), sig)
	if err != nil {
		slog.Warn("webhook rejected", "error", err)
		return nil, toStatus(err)
	}
	res, err := s.svc.HandleWebhookEvent(ctx, event)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{
		"received":   true,
		"event_id":   res.EventID,
		"event_type": res.EventType,
		"outcome":    res.Outcome,
	})
}

// toStatus maps app errors to gRPC status codes; grpc-gateway turns those
// into HTTP statuses.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, stripeapp.ErrDisabled), errors.Is(err, stripeapp.ErrNotMockMode):
		code = codes.FailedPrecondition
	case errors.Is(err, stripeapp.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, stripeapp.ErrBadRequest), errors.Is(err, stripeapp.ErrBadEvent), errors.Is(err, stripeapp.ErrSignatureInvalid):
		code = codes.InvalidArgument
	case errors.Is(err, stripeapp.ErrGateway):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	if code == codes.Internal {
		slog.Error("internal error", "error", err)
	}
	return status.Error(code, err.Error())
}

// toStruct converts v's JSON form into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding response: %v", err))
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding response: %v", err))
	}
	return out, nil
}

// field returns the string value of key, or "" when absent or not a string.
func field(in *structpb.Struct, key string) string {
	v, ok := in.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}
