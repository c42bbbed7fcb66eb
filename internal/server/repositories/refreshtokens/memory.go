package refreshtokens

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/google/uuid"
)

var errDuplicateHash = errors.New("refresh token hash already stored")

// MemoryRepository is a mutex-guarded Repository. Every method is atomic
// on its own, which makes MarkReplaced a true compare-and-swap.
type MemoryRepository struct {
	mu     sync.Mutex
	byHash map[string]*models.RefreshToken
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byHash: make(map[string]*models.RefreshToken),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, t *models.RefreshToken) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byHash[t.TokenHash]; ok {
		return nil, errDuplicateHash
	}
	t.ID = uuid.NewString()
	t.CreatedAt = r.now()
	stored := *t
	r.byHash[t.TokenHash] = &stored
	return t, nil
}

func (r *MemoryRepository) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *t
	if t.ReplacedByHash != nil {
		h := *t.ReplacedByHash
		out.ReplacedByHash = &h
	}
	return &out, nil
}

func (r *MemoryRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[tokenHash]
	if !ok {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

func (r *MemoryRepository) RevokeAllOf(ctx context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, t := range r.byHash {
		if t.OwnerID == ownerID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) MarkReplaced(ctx context.Context, oldHash, newHash, ownerID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byHash[oldHash]
	if !ok || t.OwnerID != ownerID || !t.IsValid(now) {
		return false, nil
	}
	t.Revoked = true
	t.ReplacedByHash = &newHash
	return true, nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for h, t := range r.byHash {
		if t.ExpiresAt.Before(now) {
			delete(r.byHash, h)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHash)
}
