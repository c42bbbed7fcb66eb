package rest

import (
	"context"

	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/dmitrijs2005/myplanner/internal/server/services"
	"github.com/stretchr/testify/mock"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) CurrentSubject(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockAuth) Register(ctx context.Context, subject, password string) (string, error) {
	args := m.Called(ctx, subject, password)
	return args.String(0), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, subject, password string) (*services.TokenPair, error) {
	args := m.Called(ctx, subject, password)
	pair, _ := args.Get(0).(*services.TokenPair)
	return pair, args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, token string) (*services.TokenPair, error) {
	args := m.Called(ctx, token)
	pair, _ := args.Get(0).(*services.TokenPair)
	return pair, args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAuth) LogoutAll(ctx context.Context, subject string) (int64, error) {
	args := m.Called(ctx, subject)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuth) AccessTTLSeconds() int64 { return 1800 }
func (m *mockAuth) RefreshTTLSeconds() int  { return 604800 }

type mockTasks struct{ mock.Mock }

func (m *mockTasks) Create(ctx context.Context, subject string, t *models.Task) (*models.Task, error) {
	args := m.Called(ctx, subject, t)
	out, _ := args.Get(0).(*models.Task)
	return out, args.Error(1)
}

func (m *mockTasks) Get(ctx context.Context, subject, id string) (*models.Task, error) {
	args := m.Called(ctx, subject, id)
	out, _ := args.Get(0).(*models.Task)
	return out, args.Error(1)
}

func (m *mockTasks) List(ctx context.Context, subject string) ([]*models.Task, error) {
	args := m.Called(ctx, subject)
	out, _ := args.Get(0).([]*models.Task)
	return out, args.Error(1)
}

func (m *mockTasks) SetCompleted(ctx context.Context, subject, id string, completed bool) error {
	return m.Called(ctx, subject, id, completed).Error(0)
}

func (m *mockTasks) Delete(ctx context.Context, subject, id string) error {
	return m.Called(ctx, subject, id).Error(0)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) Get(ctx context.Context, subject string) (*models.Settings, error) {
	args := m.Called(ctx, subject)
	out, _ := args.Get(0).(*models.Settings)
	return out, args.Error(1)
}

type mockPinger struct{ mock.Mock }

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
