package domain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/doc_parser/internal/ports"
)

type archiveService struct {
	client ports.S3Client
}

func NewArchiveService(client ports.S3Client) ports.ArchiveService {
	return &archiveService{client: client}
}

// ObjectKey — путь в бакете: <дата>/<task_id>/<имя>.md
func (s *archiveService) ObjectKey(taskID, filename string) string {
	date := time.Now().Format("2006-01-02")
	clean := filepath.Base(filename)
	if ext := filepath.Ext(clean); ext != "" {
		clean = strings.TrimSuffix(clean, ext)
	}
	return fmt.Sprintf("%s/%s/%s.md", date, taskID, clean)
}

func (s *archiveService) SaveMarkdown(ctx context.Context, taskID, filename, markdown string) (string, error) {
	if taskID == "" {
		return "", fmt.Errorf("taskID required")
	}

	key := s.ObjectKey(taskID, filename)

	return s.client.PutObject(ctx, key, strings.NewReader(markdown), int64(len(markdown)), "text/markdown")
}
