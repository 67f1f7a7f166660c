package grpc

import (
	"context"
	"testing"
	"time"

	api "github.com/dmitrijs2005/gophdrive/internal/api/hierarchy"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer(secret string) *GRPCServer {
	return NewGRPCServer("", nopLogger{}, nil, nil, secret)
}

func TestInterceptor_Ping_AllowsWithoutToken(t *testing.T) {
	s := newTestServer("secret")

	info := &grpc.UnaryServerInfo{FullMethod: api.MethodPing}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_MissingToken(t *testing.T) {
	s := newTestServer("secret")

	for _, method := range []string{api.MethodCreateFolder, api.MethodListChildren, api.MethodGetUploadParams, "/other.Service/Any"} {
		info := &grpc.UnaryServerInfo{FullMethod: method}

		h := func(ctx context.Context, req interface{}) (interface{}, error) {
			t.Fatal("handler should not be called when token missing")
			return nil, nil
		}

		_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("%s: expected Unauthenticated, got %v", method, status.Code(err))
		}
		if status.Convert(err).Message() != "missing token" {
			t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
		}
	}
}

func TestInterceptor_InvalidToken(t *testing.T) {
	s := newTestServer("secret")

	expired, err := auth.GenerateToken("user-1", []byte("secret"), -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	foreign, err := auth.GenerateToken("user-1", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	for _, token := range []string{"not-a-valid-jwt", expired, foreign} {
		md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
		ctx := metadata.NewIncomingContext(context.Background(), md)
		info := &grpc.UnaryServerInfo{FullMethod: api.MethodMove}

		h := func(ctx context.Context, req interface{}) (interface{}, error) {
			t.Fatal("handler should not be called for invalid token")
			return nil, nil
		}

		_, err := s.accessTokenInterceptor(ctx, nil, info, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
		}
	}
}

func TestInterceptor_ValidToken_SetsUserID(t *testing.T) {
	secret := "super-secret"
	s := newTestServer(secret)

	userID := "user-123"
	token, err := auth.GenerateToken(userID, []byte(secret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: api.MethodDelete}

	var gotFromCtx any
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		gotFromCtx = ctx.Value(UserIDKey)
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(ctx, nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if gotFromCtx != userID {
		t.Fatalf("user id not propagated in context: got %v want %v", gotFromCtx, userID)
	}
}

func TestInterceptor_HealthIsPublic(t *testing.T) {
	s := newTestServer("secret")

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	h := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	if _, err := s.accessTokenInterceptor(context.Background(), nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
