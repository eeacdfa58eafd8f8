// Package memory provides process-local repositories for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

// Store keeps every table behind one lock so cross-table reads stay consistent.
type Store struct {
	mu     sync.RWMutex
	users  map[string]domain.User
	tasks  map[string]domain.Task
	prefs  map[string]domain.Preferences
	subs   map[string]domain.Subscription
	now    func() time.Time
	seqNum int64
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]domain.User),
		tasks: make(map[string]domain.Task),
		prefs: make(map[string]domain.Preferences),
		subs:  make(map[string]domain.Subscription),
		now:   time.Now,
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Tasks() repository.TaskRepository { return taskRepo{s} }
func (s *Store) Preferences() repository.PreferenceRepository { return prefRepo{s} }
func (s *Store) Subscriptions() repository.SubscriptionCache { return subCache{s} }

// tick returns a strictly increasing timestamp so created_at ordering is stable.
func (s *Store) tick() time.Time {
	s.seqNum++
	return s.now().Add(time.Duration(s.seqNum) * time.Nanosecond)
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r userRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, domain.ErrUserExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.s.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	out := *user
	return &out, nil
}

func (r userRepo) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Image != nil {
		img := *patch.Image
		u.Image = &img
	}
	u.UpdatedAt = r.s.tick()
	r.s.users[id] = u
	return &u, nil
}

func (r userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

type taskRepo struct{ s *Store }

func (r taskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (r taskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Task, 0)
	for _, t := range r.s.tasks {
		if t.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Task{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r taskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[task.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.s.tick()
	task.CreatedAt, task.UpdatedAt = now, now
	r.s.tasks[task.ID] = *task
	out := *task
	return &out, nil
}

func (r taskRepo) Update(_ context.Context, id, ownerID string, patch domain.TaskPatch) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	patch.Apply(&t, r.s.tick())
	r.s.tasks[id] = t
	return &t, nil
}

func (r taskRepo) Delete(_ context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r taskRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tasks {
		if t.UserID == ownerID {
			delete(r.s.tasks, id)
			n++
		}
	}
	return n, nil
}

type prefRepo struct{ s *Store }

func (r prefRepo) GetByUserID(_ context.Context, userID string) (*domain.Preferences, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.prefs[userID]
	if !ok {
		return nil, domain.ErrPreferencesNotFound
	}
	return &p, nil
}

func (r prefRepo) GetOrCreate(_ context.Context, userID string) (*domain.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.ensurePrefs(userID)
	return &p, nil
}

func (r prefRepo) Upsert(_ context.Context, userID string, patch domain.PreferencesPatch) (*domain.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.ensurePrefs(userID)
	patch.Apply(&p)
	p.UpdatedAt = r.s.tick()
	r.s.prefs[userID] = p
	return &p, nil
}

func (r prefRepo) UpdateBilling(_ context.Context, userID string, state domain.BillingState) (*domain.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.ensurePrefs(userID)
	if state.Plan == "" {
		state.Plan = domain.PlanFree
	}
	state.Apply(&p)
	p.UpdatedAt = r.s.tick()
	r.s.prefs[userID] = p
	return &p, nil
}

func (r prefRepo) ListBillingDue(_ context.Context, cutoff time.Time, limit int) ([]domain.Preferences, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Preferences
	for _, p := range r.s.prefs {
		if p.StripeSubscriptionID == nil || p.StripeCurrentPeriodEnd == nil {
			continue
		}
		if p.StripeSubscriptionStatus != nil && *p.StripeSubscriptionStatus == domain.SubscriptionStatusCanceled {
			continue
		}
		if p.StripeCurrentPeriodEnd.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StripeCurrentPeriodEnd.Before(*out[j].StripeCurrentPeriodEnd) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r prefRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.prefs, userID)
	return nil
}

// ensurePrefs must be called with the write lock held.
func (s *Store) ensurePrefs(userID string) domain.Preferences {
	if p, ok := s.prefs[userID]; ok {
		return p
	}
	p := domain.DefaultPreferences(userID)
	p.ID = uuid.NewString()
	now := s.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	s.prefs[userID] = p
	return p
}

type subCache struct{ s *Store }

func (c subCache) Get(_ context.Context, userID string) (*domain.Subscription, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	sub, ok := c.s.subs[userID]
	if !ok {
		return nil, domain.ErrNoSubscription
	}
	return &sub, nil
}

func (c subCache) Set(_ context.Context, userID string, sub *domain.Subscription) error {
	if sub == nil {
		return domain.ErrInvalidPayload
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.subs[userID] = *sub
	return nil
}

func (c subCache) Invalidate(_ context.Context, userID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	delete(c.s.subs, userID)
	return nil
}
