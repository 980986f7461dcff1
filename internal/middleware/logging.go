package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs one line per RPC: procedure, caller, duration, and
// the canonical code on failure. It runs inside RequireAuth on protected
// chains, so the caller's user id is already on the context; pre-auth
// procedures log an empty user_id.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx),
				"duration", time.Since(start).Round(time.Microsecond),
			}
			if err != nil {
				slog.Warn("RPC failed", append(attrs, "code", connect.CodeOf(err), "error", err)...)
				return resp, err
			}
			slog.Info("RPC done", attrs...)
			return resp, err
		}
	}
}
