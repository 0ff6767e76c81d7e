package memory

import (
	"context"
	"sort"
	"sync"

	"payapi/internal/model"
	"payapi/internal/storage"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]model.User)}
}

func (s *UserStore) Insert(ctx context.Context, user *model.User) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	users := make([]model.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, s.users[id])
	}
	return users, nil
}
