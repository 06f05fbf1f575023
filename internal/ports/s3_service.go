package ports

import "context"

// ArchiveService складывает сконвертированный markdown в бакет.
// Включается только при заданном S3_ENDPOINT; ошибки архива не
// роняют запрос.
type ArchiveService interface {
	ObjectKey(taskID, filename string) string
	SaveMarkdown(ctx context.Context, taskID, filename, markdown string) (string, error)
}
