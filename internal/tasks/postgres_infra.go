package tasks

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Vovarama1992/doc_parser/internal/ports"
)

// PostgresRepo — общее хранилище задач для пула worker-процессов:
// poll может прийти не в тот процесс, который принял upload.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) (*PostgresRepo, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS conversion_tasks (
			id         TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			meta_name  TEXT NOT NULL DEFAULT '',
			meta_size  BIGINT NOT NULL DEFAULT 0,
			meta_mime  TEXT NOT NULL DEFAULT '',
			meta_pages TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL DEFAULT '',
			error      TEXT NOT NULL DEFAULT '',
			error_kind TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{db: db}, nil
}

func (r *PostgresRepo) Create(ctx context.Context, t ports.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversion_tasks (id, status, meta_name, meta_size, meta_mime, meta_pages, content, error, error_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.Status, t.Meta.Name, t.Meta.Size, t.Meta.MimeType, t.Meta.Pages, t.Content, t.Error, t.ErrorKind, t.CreatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (ports.Task, error) {
	var t ports.Task
	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, meta_name, meta_size, meta_mime, meta_pages, content, error, error_kind, created_at
		FROM conversion_tasks
		WHERE id = $1
	`, id).Scan(
		&t.ID,
		&t.Status,
		&t.Meta.Name,
		&t.Meta.Size,
		&t.Meta.MimeType,
		&t.Meta.Pages,
		&t.Content,
		&t.Error,
		&t.ErrorKind,
		&t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Task{}, ports.ErrTaskNotFound
	}
	return t, err
}

func (r *PostgresRepo) Update(ctx context.Context, t ports.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversion_tasks
		SET status = $2, meta_name = $3, meta_size = $4, meta_mime = $5, meta_pages = $6,
		    content = $7, error = $8, error_kind = $9
		WHERE id = $1
	`, t.ID, t.Status, t.Meta.Name, t.Meta.Size, t.Meta.MimeType, t.Meta.Pages, t.Content, t.Error, t.ErrorKind)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrTaskNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM conversion_tasks WHERE created_at < $1
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
