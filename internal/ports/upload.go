package ports

import (
	"context"
	"io"
	"os"
)

// Artifact — временный файл под директорией загрузок.
// Ровно один на запрос; владелец обязан вызвать Remove на любом пути выхода.
type Artifact struct {
	Path     string
	Name     string // исходное имя файла (после sanitize)
	MimeType string
	Size     int64
}

func (a Artifact) Remove() error {
	if a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Uploader — приём файла в директорию загрузок.
type Uploader interface {
	SaveUpload(id string, r io.Reader, filename, contentType string) (Artifact, *Fault)
	FetchURL(ctx context.Context, id, rawURL string) (Artifact, *Fault)
}
