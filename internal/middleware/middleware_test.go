package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/rpc"
)

const (
	whoAmIProcedure = "/test.v1.TestService/WhoAmI"
	publicProcedure = "/test.v1.TestService/Public"
)

type whoAmIResponse struct {
	UserID string `json:"user_id"`
}

func whoAmI(ctx context.Context, req *connect.Request[struct{}]) (*connect.Response[whoAmIResponse], error) {
	if req.Header().Get("X-Fail") != "" {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("nope"))
	}
	return connect.NewResponse(&whoAmIResponse{UserID: GetUserID(ctx)}), nil
}

type harness struct {
	jwt     *auth.JWTManager
	metrics *Metrics
	url     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		jwt:     auth.NewJWTManager("secret", time.Hour),
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	opts := []connect.HandlerOption{
		rpc.WithJSON(),
		Interceptors(h.jwt, h.metrics, publicProcedure),
	}

	mux := http.NewServeMux()
	mux.Handle(whoAmIProcedure, connect.NewUnaryHandler(whoAmIProcedure, whoAmI, opts...))
	mux.Handle(publicProcedure, connect.NewUnaryHandler(publicProcedure, whoAmI, opts...))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	h.url = srv.URL
	return h
}

func (h *harness) call(t *testing.T, procedure, authHeader string, fail bool) (string, error) {
	t.Helper()
	c := connect.NewClient[struct{}, whoAmIResponse](http.DefaultClient, h.url+procedure, rpc.WithJSON())
	req := connect.NewRequest(&struct{}{})
	if authHeader != "" {
		req.Header().Set("Authorization", authHeader)
	}
	if fail {
		req.Header().Set("X-Fail", "1")
	}
	resp, err := c.CallUnary(context.Background(), req)
	if err != nil {
		return "", err
	}
	return resp.Msg.UserID, nil
}

func TestRequireAuth(t *testing.T) {
	h := newHarness(t)
	token, err := h.jwt.Generate("user-7", "")
	require.NoError(t, err)

	tests := []struct {
		name       string
		procedure  string
		authHeader string
		wantUser   string
		wantCode   connect.Code
	}{
		{name: "valid token", procedure: whoAmIProcedure, authHeader: "Bearer " + token, wantUser: "user-7"},
		{name: "lowercase scheme", procedure: whoAmIProcedure, authHeader: "bearer " + token, wantUser: "user-7"},
		{name: "missing token", procedure: whoAmIProcedure, wantCode: connect.CodeUnauthenticated},
		{name: "wrong scheme", procedure: whoAmIProcedure, authHeader: "Basic abc", wantCode: connect.CodeUnauthenticated},
		{name: "bad token", procedure: whoAmIProcedure, authHeader: "Bearer junk", wantCode: connect.CodeUnauthenticated},
		{name: "public anonymous", procedure: publicProcedure},
		{name: "public with token", procedure: publicProcedure, authHeader: "Bearer " + token, wantUser: "user-7"},
		{name: "public with bad token", procedure: publicProcedure, authHeader: "Bearer junk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := h.call(t, tt.procedure, tt.authHeader, false)
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, user)
		})
	}
}

func TestMetricsInterceptor(t *testing.T) {
	h := newHarness(t)

	h.call(t, publicProcedure, "", false)
	h.call(t, publicProcedure, "", false)
	h.call(t, publicProcedure, "", true)
	h.call(t, whoAmIProcedure, "", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.requests.WithLabelValues(publicProcedure, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.requests.WithLabelValues(publicProcedure, "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.requests.WithLabelValues(whoAmIProcedure, "unauthenticated")))
	assert.Equal(t, 3, testutil.CollectAndCount(h.metrics.requests))
}

func TestLoggingInterceptor_LogsOwner(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := newHarness(t)
	token, err := h.jwt.Generate("user-9", "")
	require.NoError(t, err)

	_, err = h.call(t, whoAmIProcedure, "Bearer "+token, false)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"user_id":"user-9"`)

	buf.Reset()
	_, err = h.call(t, whoAmIProcedure, "Bearer "+token, true)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"msg":"RPC error"`)
	assert.Contains(t, buf.String(), `"user_id":"user-9"`)
}
