package interceptors

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/nutrition-store/internal/pkg/interceptors/constants"
)

// WithRequestID stores the request ID and idempotency key in ctx. A missing
// request ID gets a fresh one.
func WithRequestID(ctx context.Context, requestID, idempotencyKey string) context.Context {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
	if idempotencyKey != "" {
		ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
	}
	return ctx
}

// RequestIDFromContext returns the request ID set by WithRequestID, falling
// back to incoming gRPC metadata.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
		return id
	}
	return GetMetadataValue(ctx, constants.HeaderXRequestId)
}

func IdempotencyKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(constants.ContextKeyIdempotencyKey).(string); ok {
		return key
	}
	return GetMetadataValue(ctx, constants.HeaderXIdempotencyKey)
}

// UnaryServerInterceptor copies x-request-id and x-idempotency-key from the
// incoming metadata into the context and echoes the request ID back in the
// response header.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx = WithRequestID(ctx,
			GetMetadataValue(ctx, constants.HeaderXRequestId),
			GetMetadataValue(ctx, constants.HeaderXIdempotencyKey),
		)
		_ = grpc.SetHeader(ctx, metadata.Pairs(constants.HeaderXRequestId, RequestIDFromContext(ctx)))
		return handler(ctx, req)
	}
}

// ContextWithPropagatedID appends the request ID and idempotency key to the
// outgoing metadata.
func ContextWithPropagatedID(ctx context.Context) context.Context {
	ctx = metadata.AppendToOutgoingContext(ctx, constants.HeaderXRequestId, RequestIDFromContext(ctx))
	if key := IdempotencyKeyFromContext(ctx); key != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, constants.HeaderXIdempotencyKey, key)
	}
	return ctx
}

func GetMetadataValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(key); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}
