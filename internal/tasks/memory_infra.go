package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/Vovarama1992/doc_parser/internal/ports"
)

// MemoryRepo — хранилище на один процесс. Для нескольких
// worker-процессов нужен PostgresRepo (общий DATABASE_URL).
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[string]ports.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: make(map[string]ports.Task)}
}

func (r *MemoryRepo) Create(_ context.Context, t ports.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (ports.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return ports.Task{}, ports.ErrTaskNotFound
	}
	return t, nil
}

func (r *MemoryRepo) Update(_ context.Context, t ports.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return ports.ErrTaskNotFound
	}
	r.tasks[t.ID] = t
	return nil
}

func (r *MemoryRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, t := range r.tasks {
		if t.CreatedAt.Before(before) {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed, nil
}
