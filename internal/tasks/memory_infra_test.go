package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/Vovarama1992/doc_parser/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoCRUD(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrTaskNotFound)

	task := ports.Task{
		ID:        "t1",
		Status:    ports.TaskPending,
		Meta:      ports.TaskMeta{Name: "a.pdf", Size: 10, MimeType: "application/pdf"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, ports.TaskPending, got.Status)
	assert.Equal(t, "a.pdf", got.Meta.Name)

	got.Status = ports.TaskSuccess
	got.Content = "# md"
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, ports.TaskSuccess, got.Status)
	assert.Equal(t, "# md", got.Content)

	err = repo.Update(ctx, ports.Task{ID: "missing"})
	assert.ErrorIs(t, err, ports.ErrTaskNotFound)
}

func TestMemoryRepoDeleteExpired(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, ports.Task{ID: "old", CreatedAt: time.Now().Add(-3 * time.Hour)}))
	require.NoError(t, repo.Create(ctx, ports.Task{ID: "new", CreatedAt: time.Now()}))

	n, err := repo.DeleteExpired(ctx, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Get(ctx, "old")
	assert.ErrorIs(t, err, ports.ErrTaskNotFound)
	_, err = repo.Get(ctx, "new")
	assert.NoError(t, err)
}
