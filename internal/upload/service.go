package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/doc_parser/internal/ports"
	"github.com/dustin/go-humanize"
)

const downloadTimeout = 30 * time.Second

type Service struct {
	dir     string
	maxSize int64
	client  *http.Client
}

func NewService(dir string, maxSize int64) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Service{
		dir:     dir,
		maxSize: maxSize,
		client:  &http.Client{Timeout: downloadTimeout},
	}, nil
}

func (s *Service) Dir() string { return s.dir }

// SaveUpload пишет поток в <dir>/<id>_<имя>. Проверки: MIME из allow-list,
// размер не больше лимита. При любой ошибке частичный файл удаляется.
func (s *Service) SaveUpload(id string, r io.Reader, filename, contentType string) (ports.Artifact, *ports.Fault) {
	if !IsSupportedMime(contentType) {
		return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput,
			fmt.Sprintf("unsupported file type: %s", contentType), nil)
	}

	name := sanitizeFilename(filename)
	if name == "" {
		return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput, "no file selected", nil)
	}

	dst := filepath.Join(s.dir, id+"_"+name)
	size, err := s.writeCapped(dst, r)
	if err != nil {
		_ = os.Remove(dst)
		if err == errTooLarge {
			return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput,
				fmt.Sprintf("file exceeds size limit of %s", humanize.IBytes(uint64(s.maxSize))), nil)
		}
		return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput, "failed to read upload", err)
	}

	log.Printf("[upload] saved %s (%s, %s) id=%s", name, contentType, humanize.IBytes(uint64(size)), id)

	return ports.Artifact{
		Path:     dst,
		Name:     name,
		MimeType: normalizeMime(contentType),
		Size:     size,
	}, nil
}

// FetchURL скачивает файл по ссылке в директорию загрузок.
// Content-Type и размер проверяются до и во время скачивания.
func (s *Service) FetchURL(ctx context.Context, id, rawURL string) (ports.Artifact, *ports.Fault) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput, "invalid url format", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput, "invalid url", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return ports.Artifact{}, ports.NewFault(ports.FaultConversion, "failed to download file", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Artifact{}, ports.NewFault(ports.FaultConversion,
			fmt.Sprintf("failed to download file: status %d", resp.StatusCode), nil)
	}

	contentType := normalizeMime(resp.Header.Get("Content-Type"))
	if contentType != "" && !IsSupportedMime(contentType) {
		return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput,
			fmt.Sprintf("unsupported file type: %s", contentType), nil)
	}
	if resp.ContentLength > s.maxSize {
		return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput,
			fmt.Sprintf("file exceeds size limit of %s", humanize.IBytes(uint64(s.maxSize))), nil)
	}

	name := sanitizeFilename(filepath.Base(req.URL.Path))
	if name == "" {
		name = "downloaded_file"
	}

	dst := filepath.Join(s.dir, id+"_"+name)
	size, err := s.writeCapped(dst, resp.Body)
	if err != nil {
		_ = os.Remove(dst)
		if err == errTooLarge {
			return ports.Artifact{}, ports.NewFault(ports.FaultInvalidInput,
				fmt.Sprintf("file exceeds size limit of %s", humanize.IBytes(uint64(s.maxSize))), nil)
		}
		return ports.Artifact{}, ports.NewFault(ports.FaultConversion, "failed to download file", err)
	}

	log.Printf("[upload] downloaded %s (%s, %s) id=%s", rawURL, contentType, humanize.IBytes(uint64(size)), id)

	return ports.Artifact{
		Path:     dst,
		Name:     name,
		MimeType: contentType,
		Size:     size,
	}, nil
}

// Sweep удаляет из директории загрузок файлы старше порога.
// Подстраховка от утечек после убитых воркеров.
func (s *Service) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		log.Printf("[upload] sweep removed %d stale files", removed)
	}
	return removed, nil
}

var errTooLarge = fmt.Errorf("file too large")

func (s *Service) writeCapped(dst string, r io.Reader) (int64, error) {
	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	// maxSize+1: лишний байт означает превышение лимита
	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return n, err
	}
	if n > s.maxSize {
		return n, errTooLarge
	}
	return n, nil
}

// sanitizeFilename оставляет только базовое имя без управляющих символов.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 32, r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
