package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type fakeResolver map[string]error

func (f fakeResolver) CurrentSubject(_ context.Context, token string) (string, error) {
	if err, ok := f[token]; ok {
		return "", err
	}
	if token == "good" {
		return "alice", nil
	}
	return "", common.ErrInvalidToken
}

// helper to build server
func newTestServer() *GRPCServer {
	return &GRPCServer{
		logger:   logging.Nop{},
		resolver: fakeResolver{"expired": common.ErrTokenExpired, "broken": errors.New("db down")},
	}
}

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, token))
}

func TestInterceptor_HealthAllowedWithoutToken(t *testing.T) {
	s := newTestServer()

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	handlerCalled := false

	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled || resp != "ok" {
		t.Fatalf("handler not reached: called=%v resp=%v", handlerCalled, resp)
	}
}

func TestInterceptor_MissingToken(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/" + AuthServiceName + "/Me"}

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}
}

func TestInterceptor_ValidTokenStoresSubject(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/" + AuthServiceName + "/Me"}

	for _, tok := range []string{"good", "Bearer good", "bearer  good"} {
		var got string
		h := func(ctx context.Context, req any) (any, error) {
			got, _ = SubjectFromContext(ctx)
			return nil, nil
		}
		if _, err := s.accessTokenInterceptor(withToken(tok), nil, info, h); err != nil {
			t.Fatalf("token %q: unexpected error: %v", tok, err)
		}
		if got != "alice" {
			t.Fatalf("token %q: subject=%q, want alice", tok, got)
		}
	}
}

func TestInterceptor_FailuresAreGeneric(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/" + AuthServiceName + "/Me"}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	}

	_, errExpired := s.accessTokenInterceptor(withToken("expired"), nil, info, h)
	_, errForged := s.accessTokenInterceptor(withToken("forged"), nil, info, h)

	if status.Code(errExpired) != codes.Unauthenticated || status.Code(errForged) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v / %v", errExpired, errForged)
	}
	if status.Convert(errExpired).Message() != status.Convert(errForged).Message() {
		t.Fatal("expired and forged tokens must be indistinguishable")
	}

	_, errBroken := s.accessTokenInterceptor(withToken("broken"), nil, info, h)
	if status.Code(errBroken) != codes.Internal {
		t.Fatalf("want Internal, got %v", errBroken)
	}
}

func TestRequestIDInterceptor(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/x/y"}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "rid-1"))
	var got string
	_, _ = s.requestIDInterceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		got = logging.RequestID(ctx)
		return nil, nil
	})
	if got != "rid-1" {
		t.Fatalf("request id = %q, want rid-1", got)
	}

	_, _ = s.requestIDInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		got = logging.RequestID(ctx)
		return nil, nil
	})
	if got == "" {
		t.Fatal("a request id must be generated")
	}
}

func TestToStatus_EveryKind(t *testing.T) {
	for _, k := range common.Kinds() {
		err := toStatus(&common.AuthError{Kind: k})
		if status.Code(err) == codes.OK || status.Code(err) == codes.Unknown {
			t.Fatalf("kind %s has no status", k)
		}
	}
	if status.Code(toStatus(common.ErrPrincipalNotFound)) != codes.Unauthenticated {
		t.Fatal("principal not found must surface as unauthenticated")
	}
}

func TestSubjectFromContext_Empty(t *testing.T) {
	if _, ok := SubjectFromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a subject")
	}
}

func TestInterceptor_PublicAuthMethodsSkipToken(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/" + AuthServiceName + "/Refresh"}

	called := false
	_, err := s.accessTokenInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		called = true
		_, ok := SubjectFromContext(ctx)
		assert.False(t, ok)
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
