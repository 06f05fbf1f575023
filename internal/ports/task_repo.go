package ports

import (
	"context"
	"errors"
	"time"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskSuccess    TaskStatus = "success"
	TaskError      TaskStatus = "error"
)

// DTO метаданных файла в ответе статуса
type TaskMeta struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Pages    string `json:"pages"` // число, "Unknown" или ""
}

// DTO задачи конвертации
type Task struct {
	ID        string     `json:"task_id"`
	Status    TaskStatus `json:"status"`
	Meta      TaskMeta   `json:"metadata"`
	Content   string     `json:"content,omitempty"`
	Error     string     `json:"error,omitempty"`
	ErrorKind FaultKind  `json:"error_kind,omitempty"`
	CreatedAt time.Time  `json:"-"`
}

// Хранилище задач. Memory для одного процесса, Postgres — общее
// между worker-процессами.
type TaskRepo interface {
	Create(ctx context.Context, t Task) error
	Get(ctx context.Context, id string) (Task, error)
	Update(ctx context.Context, t Task) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
