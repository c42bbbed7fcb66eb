package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/settings"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/myplanner/internal/server/tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records the identities it ran as and filters the fake
// repositories by them, standing in for row-level security.
type fakeRunner struct {
	ran []tenancy.ExecutionContext
	err error
}

func (r *fakeRunner) For(subject string) tenancy.ExecutionContext {
	return tenancy.ExecutionContext{Subject: subject, Role: "authenticated"}
}

func (r *fakeRunner) Run(ctx context.Context, ec tenancy.ExecutionContext, fn func(ctx context.Context, q dbx.DBTX) error) error {
	if ec.Subject == "" {
		return tenancy.ErrNoSubject
	}
	r.ran = append(r.ran, ec)
	if r.err != nil {
		return r.err
	}
	return fn(withSubject(ctx, ec.Subject), nil)
}

type subjectKey struct{}

func withSubject(ctx context.Context, s string) context.Context {
	return context.WithValue(ctx, subjectKey{}, s)
}

func subjectOf(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}

type fakeTasks struct {
	rows []*models.Task
}

func (f *fakeTasks) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	t.ID = "t" + string(rune('0'+len(f.rows)))
	t.TenantID = subjectOf(ctx)
	f.rows = append(f.rows, t)
	return t, nil
}

func (f *fakeTasks) GetByID(ctx context.Context, id string) (*models.Task, error) {
	for _, t := range f.rows {
		if t.ID == id && t.TenantID == subjectOf(ctx) {
			return t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTasks) List(ctx context.Context) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range f.rows {
		if t.TenantID == subjectOf(ctx) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) SetCompleted(ctx context.Context, id string, completed bool) error {
	t, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	t.Completed = completed
	return nil
}

func (f *fakeTasks) Delete(ctx context.Context, id string) error {
	for i, t := range f.rows {
		if t.ID == id && t.TenantID == subjectOf(ctx) {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

type fakeSettingsRepo struct {
	created   map[string]*models.Settings
	createErr error
}

func (f *fakeSettingsRepo) CreateDefaults(ctx context.Context, s *models.Settings) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.created[subjectOf(ctx)]; !ok {
		f.created[subjectOf(ctx)] = s
	}
	return nil
}

func (f *fakeSettingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	s, ok := f.created[subjectOf(ctx)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

type fakeTenantStores struct {
	tasks    *fakeTasks
	settings *fakeSettingsRepo
}

func (f *fakeTenantStores) Tasks(dbx.DBTX) tasks.Repository       { return f.tasks }
func (f *fakeTenantStores) Settings(dbx.DBTX) settings.Repository { return f.settings }

func newTenantFixture() (*fakeRunner, *fakeTenantStores) {
	return &fakeRunner{}, &fakeTenantStores{
		tasks:    &fakeTasks{},
		settings: &fakeSettingsRepo{created: map[string]*models.Settings{}},
	}
}

func TestTaskService_RunsAsSubject(t *testing.T) {
	r, st := newTenantFixture()
	svc := NewTaskService(r, st, logging.Nop{})
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", &models.Task{Title: "  Dentist  "})
	require.NoError(t, err)
	assert.Equal(t, "Dentist", created.Title)

	list, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Get(ctx, "bob", created.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, svc.SetCompleted(ctx, "bob", created.ID, true), common.ErrorNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "bob", created.ID), common.ErrorNotFound)

	require.NoError(t, svc.SetCompleted(ctx, "alice", created.ID, true))
	got, err := svc.Get(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NoError(t, svc.Delete(ctx, "alice", created.ID))

	for _, ec := range r.ran {
		assert.Equal(t, "authenticated", ec.Role)
	}
}

func TestTaskService_Create_Validation(t *testing.T) {
	r, st := newTenantFixture()
	svc := NewTaskService(r, st, logging.Nop{})

	for _, title := range []string{"", "   ", strings.Repeat("x", MaxTitleLength+1)} {
		_, err := svc.Create(context.Background(), "alice", &models.Task{Title: title})
		require.ErrorIs(t, err, ErrInvalidTask)
	}
	assert.Empty(t, r.ran, "invalid input must not reach storage")
}

func TestTaskService_RunnerError(t *testing.T) {
	r, st := newTenantFixture()
	r.err = errors.New("tenant bind error")
	svc := NewTaskService(r, st, logging.Nop{})

	_, err := svc.List(context.Background(), "alice")
	require.Error(t, err)

	_, err = svc.List(context.Background(), "")
	require.ErrorIs(t, err, tenancy.ErrNoSubject)
}

func TestSettingsService(t *testing.T) {
	r, st := newTenantFixture()
	svc := NewSettingsService(r, st, "#7A5BFF")
	ctx := context.Background()

	require.NoError(t, svc.InitDefaults(ctx, "alice"))
	s, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "it", s.Language)
	assert.Equal(t, "light", s.Theme)
	assert.Equal(t, "#7A5BFF", s.AccentColor)

	var _ SettingsInitializer = svc
}

func TestSettingsService_GetCreatesMissingDefaults(t *testing.T) {
	r, st := newTenantFixture()
	svc := NewSettingsService(r, st, "#112233")
	ctx := context.Background()

	// registration failed to create the row
	require.NotContains(t, st.settings.created, "bob")

	s, err := svc.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "#112233", s.AccentColor)
	assert.Contains(t, st.settings.created, "bob")
	assert.NotContains(t, st.settings.created, "alice", "defaults are created for the caller only")

	again, err := svc.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestSettingsService_GetFailsWhenDefaultsCannotBeCreated(t *testing.T) {
	r, st := newTenantFixture()
	st.settings.createErr = common.ErrorInternal
	svc := NewSettingsService(r, st, "#7A5BFF")

	_, err := svc.Get(context.Background(), "carol")
	require.ErrorIs(t, err, common.ErrorInternal)
}
