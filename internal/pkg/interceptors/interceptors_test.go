package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/nutrition-store/internal/pkg/interceptors/constants"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestUnaryServerInterceptorCopiesMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		constants.HeaderXRequestId, "req-1",
		constants.HeaderXIdempotencyKey, "idem-1",
	))

	var gotID, gotKey string
	_, err := UnaryServerInterceptor()(ctx, nil, info, func(ctx context.Context, _ interface{}) (interface{}, error) {
		gotID = RequestIDFromContext(ctx)
		gotKey = IdempotencyKeyFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", gotID)
	assert.Equal(t, "idem-1", gotKey)
}

func TestUnaryServerInterceptorGeneratesRequestID(t *testing.T) {
	var gotID string
	_, err := UnaryServerInterceptor()(context.Background(), nil, info, func(ctx context.Context, _ interface{}) (interface{}, error) {
		gotID = RequestIDFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Len(t, gotID, 36)
}

func TestTraceServerInterceptorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	resp, err := TraceServerInterceptor()(context.Background(), "req", info, func(context.Context, interface{}) (interface{}, error) {
		return "resp", boom
	})
	assert.Equal(t, "resp", resp)
	assert.ErrorIs(t, err, boom)
}

func TestContextWithPropagatedID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-9", "idem-9")
	md, ok := metadata.FromOutgoingContext(ContextWithPropagatedID(ctx))
	require.True(t, ok)
	assert.Equal(t, []string{"req-9"}, md.Get(constants.HeaderXRequestId))
	assert.Equal(t, []string{"idem-9"}, md.Get(constants.HeaderXIdempotencyKey))
}
