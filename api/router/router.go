package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	grpcserver "github.com/realityinspector/auto-hyperflask/api/services/stripe/grpc"
)

// NewRouter returns the central HTTP router for the API. The BillingService
// RPCs are served under /api through grpc-gateway.
func NewRouter(ctx context.Context, srv grpcserver.BillingServiceServer) (http.Handler, error) {
	mux := runtime.NewServeMux(runtime.WithIncomingHeaderMatcher(grpcserver.HeaderMatcher))
	if err := grpcserver.RegisterGateway(ctx, mux, srv); err != nil {
		return nil, fmt.Errorf("failed to register grpc-gateway: %w", err)
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle("/api/*", mux)

	return r, nil
}
