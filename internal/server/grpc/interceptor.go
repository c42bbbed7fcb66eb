package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthPrefix = "/grpc.health.v1.Health/"

type ctxKey string

const subjectKey ctxKey = "subject"

// SubjectFromContext returns the subject stored by the access token
// interceptor.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok && s != ""
}

func (s *GRPCServer) requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := firstMetadata(ctx, strings.ToLower(common.RequestIDHeaderName))
	if id == "" {
		id = uuid.NewString()
	}
	return handler(logging.WithRequestID(ctx, id), req)
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if strings.HasPrefix(info.FullMethod, healthPrefix) || publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	accessToken := strings.TrimSpace(firstMetadata(ctx, common.AccessTokenHeaderName))
	if scheme, token, found := strings.Cut(accessToken, " "); found && strings.EqualFold(scheme, "Bearer") {
		accessToken = strings.TrimSpace(token)
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "could not validate credentials")
	}

	subject, err := s.resolver.CurrentSubject(ctx, accessToken)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, subjectKey, subject), req)
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// toStatus maps an error kind to a gRPC status with the same public
// messages as the HTTP boundary.
func toStatus(err error) error {
	switch common.KindOf(err) {
	case common.KindInternal:
		return status.Error(codes.Internal, "internal error")
	case common.KindWeakPassword:
		return status.Error(codes.InvalidArgument, "password does not meet the policy")
	case common.KindDuplicateSubject:
		return status.Error(codes.AlreadyExists, "username already registered")
	case common.KindInvalidCredentials, common.KindInvalidToken, common.KindTokenExpired:
		return status.Error(codes.Unauthenticated, "could not validate credentials")
	case common.KindInvalidOrRevokedToken, common.KindPrincipalNotFound:
		return status.Error(codes.Unauthenticated, "invalid or expired refresh token")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
