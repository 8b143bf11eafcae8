package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/nutrition-store/internal/pkg/interceptors"
	"github.com/jcmexdev/nutrition-store/internal/pkg/interceptors/constants"
)

// AttachTracingMetadata stores chi's request ID and the X-Idempotency-Key
// header in the context and echoes the request ID back. Run it after
// middleware.RequestID.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(constants.HeaderXIdempotencyKey)

		ctx := interceptors.WithRequestID(r.Context(), requestID, idempotencyKey)
		w.Header().Set(constants.HeaderXRequestId, interceptors.RequestIDFromContext(ctx))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Trace opens a server span per request, continuing a W3C traceparent sent
// by the caller.
func Trace(next http.Handler) http.Handler {
	tracer := otel.Tracer("store-service/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status_code", ww.Status()))
	})
}
