// Package memory provides an in-process portfolio store
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/models"
)

// Store keeps portfolios in a map. Updates to one owner are serialized by a
// per-owner lock; different owners proceed in parallel.
type Store struct {
	mu         sync.RWMutex
	portfolios map[string]*models.Portfolio
	owners     map[string]*sync.Mutex
	logger     *common.Logger
	now        func() time.Time
}

// NewStore creates an empty store.
func NewStore(logger *common.Logger) *Store {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Store{
		portfolios: make(map[string]*models.Portfolio),
		owners:     make(map[string]*sync.Mutex),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Store) ownerLock(owner string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.owners[owner]
	if !ok {
		l = &sync.Mutex{}
		s.owners[owner] = l
	}
	return l
}

// lockOwner acquires the owner's lock. Delete drops the lock entry, so a
// waiter that wakes on a lock no longer in the map retries on the current one.
func (s *Store) lockOwner(owner string) *sync.Mutex {
	for {
		l := s.ownerLock(owner)
		l.Lock()
		s.mu.RLock()
		current := s.owners[owner]
		s.mu.RUnlock()
		if current == l {
			return l
		}
		l.Unlock()
	}
}

func (s *Store) Create(ctx context.Context, p *models.Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.lockOwner(p.Owner)
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.portfolios[p.Owner]; exists {
		return fmt.Errorf("portfolio %s: %w", p.Owner, common.ErrConflict)
	}
	stored := p.Clone()
	stored.Version = 1
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	s.portfolios[p.Owner] = stored
	p.Version = stored.Version
	return nil
}

func (s *Store) Get(ctx context.Context, owner string) (*models.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.portfolios[owner]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]*models.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Portfolio, 0, len(s.portfolios))
	for _, p := range s.portfolios {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner < out[j].Owner })
	return out, nil
}

func (s *Store) Delete(ctx context.Context, owner string) (*models.Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lock := s.lockOwner(owner)
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners, owner)
	p, ok := s.portfolios[owner]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(s.portfolios, owner)
	return p, nil
}

// Update runs fn on a private copy while holding the owner's lock and swaps
// the copy in only if fn succeeds.
func (s *Store) Update(ctx context.Context, owner string, fn interfaces.UpdateFunc) (*models.Portfolio, error) {
	lock := s.lockOwner(owner)
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	current, ok := s.portfolios[owner]
	if !ok {
		delete(s.owners, owner)
	}
	s.mu.Unlock()
	if !ok {
		return nil, common.ErrNotFound
	}

	snapshot := current.Clone()
	if err := fn(snapshot); err != nil {
		return nil, err
	}
	snapshot.Owner = owner
	snapshot.Version = current.Version + 1

	s.mu.Lock()
	s.portfolios[owner] = snapshot
	s.mu.Unlock()

	return snapshot.Clone(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

var _ interfaces.PortfolioStore = (*Store)(nil)
