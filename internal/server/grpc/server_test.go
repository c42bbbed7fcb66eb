package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

// startServer runs a server on a free port and returns a client connection
// plus a stop function that cancels Run and waits for it.
func startServer(t *testing.T, auth AuthAPI) (*grpc.ClientConn, func() error) {
	t.Helper()
	addr := freeAddr(t)
	srv := NewGRPCServer(addr, logging.Nop{}, auth)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	stop := func() error {
		_ = conn.Close()
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(3 * time.Second):
			t.Fatal("server did not stop within timeout after context cancel")
			return nil
		}
	}
	return conn, stop
}

func callCtx(t *testing.T, token string) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	return ctx
}

func TestRun_ServesHealthAndStopsOnCancel(t *testing.T) {
	conn, stop := startServer(t, newFakeAuth())

	for _, service := range []string{"", AuthServiceName} {
		resp, err := grpc_health_v1.NewHealthClient(conn).Check(callCtx(t, ""),
			&grpc_health_v1.HealthCheckRequest{Service: service}, grpc.WaitForReady(true))
		require.NoError(t, err)
		assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus(), service)
	}

	require.NoError(t, stop(), "Run returned error on graceful stop")
}

func TestAuthService_GuardedMethodsNeedAccessToken(t *testing.T) {
	conn, stop := startServer(t, newFakeAuth())
	defer func() { _ = stop() }()

	out := &structpb.Struct{}
	err := conn.Invoke(callCtx(t, ""), "/"+AuthServiceName+"/Me", &emptypb.Empty{}, out, grpc.WaitForReady(true))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = conn.Invoke(callCtx(t, "forged"), "/"+AuthServiceName+"/LogoutAll", &emptypb.Empty{}, out, grpc.WaitForReady(true))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	require.NoError(t, conn.Invoke(callCtx(t, "good"), "/"+AuthServiceName+"/Me", &emptypb.Empty{}, out, grpc.WaitForReady(true)))
	assert.Equal(t, "alice", out.GetFields()["username"].GetStringValue())

	require.NoError(t, conn.Invoke(callCtx(t, "good"), "/"+AuthServiceName+"/LogoutAll", &emptypb.Empty{}, out, grpc.WaitForReady(true)))
	assert.Equal(t, float64(2), out.GetFields()["revoked"].GetNumberValue())
}

func TestAuthService_PublicMethodsWithoutToken(t *testing.T) {
	fa := newFakeAuth()
	conn, stop := startServer(t, fa)
	defer func() { _ = stop() }()

	in, err := structpb.NewStruct(map[string]any{"username": "alice", "password": "pw"})
	require.NoError(t, err)
	out := &structpb.Struct{}
	require.NoError(t, conn.Invoke(callCtx(t, ""), "/"+AuthServiceName+"/Login", in, out, grpc.WaitForReady(true)))
	assert.Equal(t, "good", out.GetFields()["access_token"].GetStringValue())
	assert.Equal(t, "bearer", out.GetFields()["token_type"].GetStringValue())
	assert.Equal(t, float64(1800), out.GetFields()["expires_in"].GetNumberValue())

	in, err = structpb.NewStruct(map[string]any{"refresh_token": "r1"})
	require.NoError(t, err)
	require.NoError(t, conn.Invoke(callCtx(t, ""), "/"+AuthServiceName+"/Refresh", in, out, grpc.WaitForReady(true)))
	assert.Equal(t, "r2", out.GetFields()["refresh_token"].GetStringValue())

	require.NoError(t, conn.Invoke(callCtx(t, ""), "/"+AuthServiceName+"/Logout", in, &emptypb.Empty{}, grpc.WaitForReady(true)))
	assert.Equal(t, []string{"r1"}, fa.loggedOut)
}

func TestRun_ListenError(t *testing.T) {
	srv := NewGRPCServer("bad-address", logging.Nop{}, newFakeAuth())
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
