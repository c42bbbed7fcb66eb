package grpc

import (
	"context"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/dmitrijs2005/myplanner/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthServiceName is the fully qualified name of the authentication service.
const AuthServiceName = "myplanner.v1.Auth"

// AuthAPI is the part of services.AuthService the gRPC boundary needs.
type AuthAPI interface {
	SubjectResolver
	Login(ctx context.Context, subject, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, subject string) (int64, error)
	AccessTTLSeconds() int64
}

// AuthServer is the handler contract of myplanner.v1.Auth. Messages are
// well-known protobuf types: requests and replies are google.protobuf.Struct
// objects keyed like the HTTP JSON bodies.
type AuthServer interface {
	Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Refresh(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Logout(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
	Me(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	LogoutAll(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

// publicMethods are reachable without an access token.
var publicMethods = map[string]bool{
	"/" + AuthServiceName + "/Login":   true,
	"/" + AuthServiceName + "/Refresh": true,
	"/" + AuthServiceName + "/Logout":  true,
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Login", newStruct, AuthServer.Login),
		unaryMethod("Refresh", newStruct, AuthServer.Refresh),
		unaryMethod("Logout", newStruct, AuthServer.Logout),
		unaryMethod("Me", newEmpty, AuthServer.Me),
		unaryMethod("LogoutAll", newEmpty, AuthServer.LogoutAll),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAuthServer registers srv as myplanner.v1.Auth on s.
func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&authServiceDesc, srv)
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty    { return &emptypb.Empty{} }

// unaryMethod builds a method descriptor that decodes Req, runs the
// interceptor chain and dispatches to call.
func unaryMethod[Req, Resp proto.Message](name string, newReq func() Req,
	call func(AuthServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {

	fullMethod := "/" + AuthServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServer), ctx, req.(Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AuthHandler serves myplanner.v1.Auth on top of the authentication flow.
type AuthHandler struct {
	auth   AuthAPI
	logger logging.Logger
}

func NewAuthHandler(a AuthAPI, l logging.Logger) *AuthHandler {
	return &AuthHandler{auth: a, logger: l}
}

func (h *AuthHandler) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pair, err := h.auth.Login(ctx, stringField(in, "username"), stringField(in, "password"))
	if err != nil {
		return nil, h.fail(ctx, "login", err)
	}
	return h.tokens(ctx, pair)
}

func (h *AuthHandler) Refresh(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pair, err := h.auth.Refresh(ctx, stringField(in, "refresh_token"))
	if err != nil {
		return nil, h.fail(ctx, "refresh", err)
	}
	return h.tokens(ctx, pair)
}

// Logout is idempotent; an unknown or empty token is not an error.
func (h *AuthHandler) Logout(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	if err := h.auth.Logout(ctx, stringField(in, "refresh_token")); err != nil {
		return nil, h.fail(ctx, "logout", err)
	}
	return &emptypb.Empty{}, nil
}

func (h *AuthHandler) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	subject, ok := SubjectFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "could not validate credentials")
	}
	return h.reply(ctx, map[string]any{"username": subject})
}

func (h *AuthHandler) LogoutAll(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	subject, ok := SubjectFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "could not validate credentials")
	}
	n, err := h.auth.LogoutAll(ctx, subject)
	if err != nil {
		return nil, h.fail(ctx, "logout_all", err)
	}
	return h.reply(ctx, map[string]any{"revoked": n})
}

func (h *AuthHandler) tokens(ctx context.Context, pair *services.TokenPair) (*structpb.Struct, error) {
	return h.reply(ctx, map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
		"expires_in":    h.auth.AccessTTLSeconds(),
	})
}

func (h *AuthHandler) reply(ctx context.Context, m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		h.logger.Error(ctx, "encode reply", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (h *AuthHandler) fail(ctx context.Context, op string, err error) error {
	if common.KindOf(err) == common.KindInternal {
		h.logger.Error(ctx, op+" failed", "error", err)
	}
	return toStatus(err)
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}
