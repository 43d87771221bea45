package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kjannette/goldsight-backend/internal/models"
)

// MemoryModelStore keeps the library in process memory. It is lost on restart.
type MemoryModelStore struct {
	mu   sync.RWMutex
	data map[string]models.SavedModel
}

func NewMemoryModelStore() *MemoryModelStore {
	return &MemoryModelStore{data: make(map[string]models.SavedModel)}
}

func (s *MemoryModelStore) Save(_ context.Context, m *models.SavedModel) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	cp := *m
	cp.Forecast.Points = models.ClonePoints(m.Forecast.Points)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[m.ID] = cp
	return nil
}

func (s *MemoryModelStore) List(_ context.Context, limit int) ([]models.SavedModel, error) {
	s.mu.RLock()
	out := make([]models.SavedModel, 0, len(s.data))
	for _, m := range s.data {
		out = append(out, copyModel(m))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryModelStore) Get(_ context.Context, id string) (*models.SavedModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyModel(m)
	return &cp, nil
}

func (s *MemoryModelStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}

func (s *MemoryModelStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

func copyModel(m models.SavedModel) models.SavedModel {
	m.Forecast.Points = models.ClonePoints(m.Forecast.Points)
	return m
}
