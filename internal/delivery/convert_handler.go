package delivery

import (
	"net/http"
	"path"
	"strings"

	"github.com/Vovarama1992/doc_parser/internal/ports"
	"github.com/Vovarama1992/doc_parser/internal/tasks"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

type ConvertHandler struct {
	uploader ports.Uploader
	taskSvc  *tasks.Service
	maxBody  int64
	log      *logger.ZapLogger
}

func NewConvertHandler(uploader ports.Uploader, taskSvc *tasks.Service, maxFileSize int64, zl *logger.ZapLogger) *ConvertHandler {
	return &ConvertHandler{
		uploader: uploader,
		taskSvc:  taskSvc,
		// запас на multipart-обвязку поверх лимита самого файла
		maxBody: maxFileSize + (10 << 20),
		log:     zl,
	}
}

// POST /convert — синхронная конвертация, ответ с markdown в теле.
func (h *ConvertHandler) ConvertSync(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r)
}

// POST /api/v1/upload/parse — то же самое, но задача остаётся
// доступной для /api/v1/parse/{task_id}.
func (h *ConvertHandler) UploadParseSync(w http.ResponseWriter, r *http.Request) {
	h.runSync(w, r)
}

func (h *ConvertHandler) runSync(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	t, src, fault := h.extractSource(w, r, id)
	if fault != nil {
		respondFault(w, fault)
		return
	}

	done := h.taskSvc.RunSync(r.Context(), t, src)

	if done.Status == ports.TaskError {
		respondFault(w, ports.NewFault(done.ErrorKind, done.Error, nil))
		return
	}

	respondData(w, "conversion completed", map[string]any{
		"task_id":  done.ID,
		"status":   done.Status,
		"metadata": done.Meta,
		"content":  done.Content,
	})
}

// POST /api/v1/upload — асинхронный приём, ответ сразу с task_id.
func (h *ConvertHandler) UploadAsync(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	t, src, fault := h.extractSource(w, r, id)
	if fault != nil {
		respondFault(w, fault)
		return
	}

	if err := h.taskSvc.Submit(r.Context(), t, src); err != nil {
		if src.Artifact != nil {
			_ = src.Artifact.Remove()
		}
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "failed to register task " + id,
			Service: "doc_parser",
			Error:   err,
		})
		respondFault(w, ports.NewFault(ports.FaultConversion, "failed to register task", err))
		return
	}

	respondData(w, "file accepted, processing", map[string]any{
		"task_id":  id,
		"status":   ports.TaskPending,
		"metadata": t.Meta,
	})
}

// GET /api/v1/parse/{task_id}
func (h *ConvertHandler) ParseStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "task_id")

	t, err := h.taskSvc.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, envelope{
			Code:    http.StatusNotFound,
			Message: "task not found",
		})
		return
	}

	respondData(w, "ok", map[string]any{
		"task_id":  t.ID,
		"status":   t.Status,
		"metadata": t.Meta,
		"content":  t.Content,
		"error":    t.Error,
	})
}

// extractSource принимает либо multipart-файл, либо JSON {"url": ...}.
func (h *ConvertHandler) extractSource(w http.ResponseWriter, r *http.Request, id string) (ports.Task, tasks.Source, *ports.Fault) {
	opts := parseOptions(r)
	t := ports.Task{ID: id}

	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return t, tasks.Source{}, ports.NewFault(ports.FaultInvalidInput,
				"file too large or invalid form", err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			return t, tasks.Source{}, ports.NewFault(ports.FaultInvalidInput, "missing file field", err)
		}
		defer file.Close()

		if header.Filename == "" {
			return t, tasks.Source{}, ports.NewFault(ports.FaultInvalidInput, "no file selected", nil)
		}

		art, fault := h.uploader.SaveUpload(id, file, header.Filename, header.Header.Get("Content-Type"))
		if fault != nil {
			return t, tasks.Source{}, fault
		}

		t.Meta = ports.TaskMeta{Name: art.Name, Size: art.Size, MimeType: art.MimeType}
		return t, tasks.Source{Artifact: &art, Opts: opts}, nil
	}

	if strings.HasPrefix(contentType, "application/json") {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return t, tasks.Source{}, ports.NewFault(ports.FaultInvalidInput, "invalid json", err)
		}
		if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
			return t, tasks.Source{}, ports.NewFault(ports.FaultInvalidInput, "invalid url format", nil)
		}

		t.Meta = ports.TaskMeta{Name: path.Base(req.URL)}
		return t, tasks.Source{URL: req.URL, Opts: opts}, nil
	}

	return t, tasks.Source{}, ports.NewFault(ports.FaultInvalidInput,
		"request must contain 'file' (multipart/form-data) or 'url' (json)", nil)
}

// Опции приходят только в query (?use_llm=true&llm_model=...),
// тело не трогаем до установки лимита на размер.
func parseOptions(r *http.Request) ports.Options {
	q := r.URL.Query()
	return ports.Options{
		UseLLM:        strings.EqualFold(q.Get("use_llm"), "true"),
		EnablePlugins: strings.EqualFold(q.Get("enable_plugins"), "true"),
		LLMModel:      q.Get("llm_model"),
	}
}
