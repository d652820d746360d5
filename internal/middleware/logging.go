package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// tableScoped is implemented by requests that operate on a single table.
type tableScoped interface {
	TableCode() string
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with the table it touched and the calling bar, when known. Failures the
// caller can fix are logged as warnings; the rest as errors.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			attrs := []any{"procedure", req.Spec().Procedure}
			if scoped, ok := req.Any().(tableScoped); ok && scoped.TableCode() != "" {
				attrs = append(attrs, "table", scoped.TableCode())
			}
			if bar := GetBar(ctx); bar != "" {
				attrs = append(attrs, "bar", bar)
			}

			resp, err := next(ctx, req)

			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
			if err == nil {
				slog.Info("RPC ok", attrs...)
				return resp, nil
			}

			status := connect.CodeOf(err)
			attrs = append(attrs, "status", status.String())
			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				attrs = append(attrs, "error", connectErr.Message())
			} else {
				attrs = append(attrs, "error", err)
			}

			if serverFault(status) {
				slog.Error("RPC failed", attrs...)
			} else {
				slog.Warn("RPC rejected", attrs...)
			}
			return resp, err
		}
	}
}

func serverFault(code connect.Code) bool {
	switch code {
	case connect.CodeInternal, connect.CodeUnavailable, connect.CodeUnknown, connect.CodeDataLoss:
		return true
	}
	return false
}
