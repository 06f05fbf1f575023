package upload

import "strings"

// Форматы, которые умеет markitdown. Всё остальное отсекается до конвертации.
var supportedMimeTypes = map[string]bool{
	// документы
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/msword": true,

	// изображения
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/tiff": true,

	// аудио
	"audio/mpeg": true,
	"audio/wav":  true,
	"audio/ogg":  true,
	"audio/webm": true,

	// текст
	"text/plain":       true,
	"text/html":        true,
	"text/csv":         true,
	"application/json": true,
	"application/xml":  true,
	"text/xml":         true,
	"text/markdown":    true,

	// электронные книги и архивы
	"application/epub+zip":         true,
	"application/zip":              true,
	"application/x-zip-compressed": true,

	// eml
	"message/rfc822": true,
}

// normalizeMime отрезает параметры вида "; charset=utf-8".
func normalizeMime(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func IsSupportedMime(ct string) bool {
	return supportedMimeTypes[normalizeMime(ct)]
}
