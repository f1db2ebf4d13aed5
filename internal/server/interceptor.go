package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/biodata-tracker/internal/common"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "x-request-id"

// RequestIDInterceptor tags every call with a request id, reusing the
// caller's when it sent one, and logs the outcome.
func RequestIDInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := incomingRequestID(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		log := common.LoggerFrom(ctx, logger)
		attrs := []any{"method", info.FullMethod, "code", code.String(), "elapsed_ms", time.Since(start).Milliseconds()}
		if err != nil {
			log.Warn("grpc.request.failed", append(attrs, "error", err)...)
		} else {
			log.Info("grpc.request", attrs...)
		}
		return resp, err
	}
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(RequestIDHeader); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
