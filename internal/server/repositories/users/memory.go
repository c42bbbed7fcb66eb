package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps principals in process memory. It is used by tests
// and by the in-memory repository manager.
type MemoryRepository struct {
	mu        sync.RWMutex
	byID      map[string]models.Principal
	bySubject map[string]string
	now       func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:      make(map[string]models.Principal),
		bySubject: make(map[string]string),
		now:       time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bySubject[p.Subject]; ok {
		return nil, common.ErrDuplicateSubject
	}

	p.ID = uuid.NewString()
	p.CreatedAt = r.now()
	r.byID[p.ID] = *p
	r.bySubject[p.Subject] = p.ID

	return p, nil
}

func (r *MemoryRepository) GetBySubject(ctx context.Context, subject string) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySubject[subject]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p := r.byID[id]
	return &p, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

// LockByID only checks existence; callers serialize through dbx.SerialRunner.
func (r *MemoryRepository) LockByID(ctx context.Context, id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes a principal. The SQL schema cascades this to tokens and
// tenant rows; the in-memory store only drops the principal.
func (r *MemoryRepository) Delete(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.byID[id]; ok {
		delete(r.bySubject, p.Subject)
		delete(r.byID, id)
	}
}
