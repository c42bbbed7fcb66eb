package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/settings"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/myplanner/internal/server/tenancy"
)

// MaxTitleLength matches the tasks.title column.
const MaxTitleLength = 200

var ErrInvalidTask = errors.New("invalid task")

// TenantRunner runs a unit of work bound to a principal. *tenancy.Binder
// implements it.
type TenantRunner interface {
	For(subject string) tenancy.ExecutionContext
	Run(ctx context.Context, ec tenancy.ExecutionContext, fn func(ctx context.Context, q dbx.DBTX) error) error
}

type TenantStores interface {
	Tasks(db dbx.DBTX) tasks.Repository
	Settings(db dbx.DBTX) settings.Repository
}

// TaskService is the tenant-scoped task API. Every call runs as subject;
// the database decides which rows that principal may see.
type TaskService struct {
	runner TenantRunner
	stores TenantStores
	logger logging.Logger
}

func NewTaskService(r TenantRunner, s TenantStores, logger logging.Logger) *TaskService {
	return &TaskService{runner: r, stores: s, logger: logger.With("module", "task_service")}
}

func (s *TaskService) Create(ctx context.Context, subject string, t *models.Task) (*models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" || utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return nil, fmt.Errorf("%w: title must be 1..%d characters", ErrInvalidTask, MaxTitleLength)
	}

	var out *models.Task
	err := s.runner.Run(ctx, s.runner.For(subject), func(ctx context.Context, q dbx.DBTX) error {
		var err error
		out, err = s.stores.Tasks(q).Create(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TaskService) Get(ctx context.Context, subject, id string) (*models.Task, error) {
	var out *models.Task
	err := s.runner.Run(ctx, s.runner.For(subject), func(ctx context.Context, q dbx.DBTX) error {
		var err error
		out, err = s.stores.Tasks(q).GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *TaskService) List(ctx context.Context, subject string) ([]*models.Task, error) {
	var out []*models.Task
	err := s.runner.Run(ctx, s.runner.For(subject), func(ctx context.Context, q dbx.DBTX) error {
		var err error
		out, err = s.stores.Tasks(q).List(ctx)
		return err
	})
	return out, err
}

func (s *TaskService) SetCompleted(ctx context.Context, subject, id string, completed bool) error {
	return s.runner.Run(ctx, s.runner.For(subject), func(ctx context.Context, q dbx.DBTX) error {
		return s.stores.Tasks(q).SetCompleted(ctx, id, completed)
	})
}

func (s *TaskService) Delete(ctx context.Context, subject, id string) error {
	return s.runner.Run(ctx, s.runner.For(subject), func(ctx context.Context, q dbx.DBTX) error {
		return s.stores.Tasks(q).Delete(ctx, id)
	})
}

// SettingsService owns user_settings. It is the SettingsInitializer used
// at registration.
type SettingsService struct {
	runner      TenantRunner
	stores      TenantStores
	accentColor string
}

func NewSettingsService(r TenantRunner, s TenantStores, accentColor string) *SettingsService {
	return &SettingsService{runner: r, stores: s, accentColor: accentColor}
}

func (s *SettingsService) InitDefaults(ctx context.Context, subject string) error {
	return s.runner.Run(ctx, s.runner.For(subject), func(ctx context.Context, q dbx.DBTX) error {
		return s.stores.Settings(q).CreateDefaults(ctx, models.DefaultSettings("", s.accentColor))
	})
}

// Get returns the principal's settings, creating the defaults first when
// registration did not manage to.
func (s *SettingsService) Get(ctx context.Context, subject string) (*models.Settings, error) {
	var out *models.Settings
	err := s.runner.Run(ctx, s.runner.For(subject), func(ctx context.Context, q dbx.DBTX) error {
		repo := s.stores.Settings(q)

		var err error
		out, err = repo.Get(ctx)
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if err := repo.CreateDefaults(ctx, models.DefaultSettings("", s.accentColor)); err != nil {
			return fmt.Errorf("create default settings: %w", err)
		}
		out, err = repo.Get(ctx)
		return err
	})
	return out, err
}
