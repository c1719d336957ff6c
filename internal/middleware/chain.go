package middleware

import (
	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/auth"
)

// Interceptors returns the server interceptor chain: metrics outermost, then
// auth, then logging. Logging runs inside auth so log lines carry the owner.
func Interceptors(jwtManager *auth.JWTManager, metrics *Metrics, public ...string) connect.HandlerOption {
	return connect.WithInterceptors(
		metrics.Interceptor(),
		RequireAuth(jwtManager, public...),
		LoggingInterceptor(),
	)
}
