// Package middleware provides HTTP middleware for the device API.
package middleware

import (
	"net"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/ssdsim/internal/logger"
	"github.com/marmos91/ssdsim/internal/telemetry"
)

// RequestContext attaches a logger.LogContext and a server span to every
// request. It must run after chi's RequestID and RealIP middleware.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			clientIP = host
		}

		ctx, span := telemetry.StartSpan(r.Context(), "http "+r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				telemetry.ClientIP(clientIP),
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			))
		defer span.End()

		lc := logger.NewLogContext(clientIP).
			WithRequestID(chimw.GetReqID(ctx)).
			WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		ctx = logger.WithContext(ctx, lc)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", ww.Status()))
		if ww.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(ww.Status()))
		}
	})
}

// RequestLogger logs request start at DEBUG and completion at INFO.
// Request fields come from the LogContext set by RequestContext.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		logger.DebugCtx(ctx, "API request started",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
		)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		args := []any{
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(status),
			"bytes", ww.BytesWritten(),
			logger.DurationMs(logger.Duration(start)),
		}
		if status >= http.StatusInternalServerError {
			logger.WarnCtx(ctx, "API request failed", args...)
			return
		}
		logger.InfoCtx(ctx, "API request completed", args...)
	})
}
