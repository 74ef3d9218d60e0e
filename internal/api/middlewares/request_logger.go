package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey struct{}

// requestInfo is filled in by inner middlewares and read once the request ends.
type requestInfo struct {
	user string
}

func setUser(ctx context.Context, id string) {
	if info, ok := ctx.Value(ctxKey{}).(*requestInfo); ok {
		info.user = id
	}
}

// RequestLogger logs one line per request with status, size and latency, plus
// the user_id when JWTMiddleware ran inside it.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := &requestInfo{}
			r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, info))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				fields := []zap.Field{
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				}
				if info.user != "" {
					fields = append(fields, zap.String("user_id", info.user))
				}
				logger.Info("http request", fields...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
