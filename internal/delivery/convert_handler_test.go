package delivery

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/Vovarama1992/doc_parser/internal/ports"
	"github.com/Vovarama1992/doc_parser/internal/tasks"
	"github.com/Vovarama1992/doc_parser/internal/upload"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDispatcher struct {
	res   ports.Result
	fault *ports.Fault
}

func (s *stubDispatcher) Dispatch(_ context.Context, _ string, _ ports.Artifact, _ ports.Options) (ports.Result, *ports.Fault) {
	return s.res, s.fault
}

type testEnv struct {
	router    chi.Router
	uploadDir string
	taskSvc   *tasks.Service
}

func newTestEnv(t *testing.T, d ports.Dispatcher) *testEnv {
	t.Helper()

	dir := t.TempDir()
	uploadSvc, err := upload.NewService(dir, 1<<20)
	require.NoError(t, err)

	taskSvc := tasks.NewService(tasks.NewMemoryRepo(), uploadSvc, d, 2, 5*time.Second, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	taskSvc.Start(ctx)

	base, _ := zap.NewDevelopment()
	zl := logger.NewZapLogger(base.Sugar())

	r := chi.NewRouter()
	RegisterRoutes(r, NewConvertHandler(uploadSvc, taskSvc, 1<<20, zl))

	return &testEnv{router: r, uploadDir: dir, taskSvc: taskSvc}
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func decodeEnvelope(t *testing.T, body io.Reader) (int, string, map[string]any) {
	t.Helper()
	var env struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env.Code, env.Message, env.Data
}

func TestConvertSyncHappyPath(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{res: ports.Result{Markdown: "# converted", Pages: 1}})

	body, ct := multipartBody(t, "file", "doc.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	code, _, data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, 200, code)
	assert.Equal(t, "# converted", data["content"])
	assert.Equal(t, string(ports.TaskSuccess), data["status"])

	// артефакт не должен пережить запрос
	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertSyncMissingFile(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertSyncUnsupportedMimeRejected(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{res: ports.Result{Markdown: "should not happen"}})

	body, ct := multipartBody(t, "file", "app.exe", "application/x-msdownload", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected upload must not leave files")
}

func TestConvertSyncUnsupportedFormatFrom415(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{
		fault: ports.NewFault(ports.FaultUnsupportedFormat, "file could not be parsed", nil),
	})

	body, ct := multipartBody(t, "file", "broken.pdf", "application/pdf", []byte("not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	_, _, data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, string(ports.FaultUnsupportedFormat), data["error_kind"])
}

func TestConvertSyncMissingCredential(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{
		fault: ports.NewFault(ports.FaultMissingCredential, "llm-assisted conversion is not configured on this server", nil),
	})

	body, ct := multipartBody(t, "file", "pic.png", "image/png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/convert?use_llm=true", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	_, msg, data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "server configuration error", msg)
	assert.Equal(t, string(ports.FaultMissingCredential), data["error_kind"])
	assert.NotContains(t, msg, "OPENAI")
}

func TestConvertSyncTimeoutMapsTo504(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{
		fault: ports.NewFault(ports.FaultTimeout, "conversion timed out", nil),
	})

	body, ct := multipartBody(t, "file", "slow.pdf", "application/pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestUploadAsyncAndPoll(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{res: ports.Result{Markdown: "async result"}})

	body, ct := multipartBody(t, "file", "doc.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("PK..."))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, _, data := decodeEnvelope(t, rec.Body)
	taskID, _ := data["task_id"].(string)
	require.NotEmpty(t, taskID)
	assert.Equal(t, string(ports.TaskPending), data["status"])

	deadline := time.After(2 * time.Second)
	for {
		pollReq := httptest.NewRequest(http.MethodGet, "/api/v1/parse/"+taskID, nil)
		pollRec := httptest.NewRecorder()
		env.router.ServeHTTP(pollRec, pollReq)
		require.Equal(t, http.StatusOK, pollRec.Code)

		_, _, pollData := decodeEnvelope(t, pollRec.Body)
		if pollData["status"] == string(ports.TaskSuccess) {
			assert.Equal(t, "async result", pollData["content"])
			break
		}
		select {
		case <-deadline:
			t.Fatalf("task %s never finished: %v", taskID, pollData["status"])
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestUploadAsyncByURLAccepted(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello from upstream"))
	}))
	t.Cleanup(upstream.Close)

	env := newTestEnv(t, &stubDispatcher{res: ports.Result{Markdown: "url result"}})

	payload, _ := json.Marshal(map[string]string{"url": upstream.URL + "/file.txt"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, _, data := decodeEnvelope(t, rec.Body)
	taskID, _ := data["task_id"].(string)
	require.NotEmpty(t, taskID)

	deadline := time.After(2 * time.Second)
	for {
		pollReq := httptest.NewRequest(http.MethodGet, "/api/v1/parse/"+taskID, nil)
		pollRec := httptest.NewRecorder()
		env.router.ServeHTTP(pollRec, pollReq)
		_, _, pollData := decodeEnvelope(t, pollRec.Body)
		if pollData["status"] == string(ports.TaskSuccess) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("url task never finished: %v", pollData["status"])
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestUploadAsyncInvalidURL(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{})

	payload, _ := json.Marshal(map[string]string{"url": "ftp://example.com/doc.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseStatusUnknownTask(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parse/does-not-exist", nil)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadParseSyncKeepsTaskPollable(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{res: ports.Result{Markdown: "sync md"}})

	body, ct := multipartBody(t, "file", "doc.txt", "text/plain", []byte("text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/parse", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, _, data := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "sync md", data["content"])

	taskID, _ := data["task_id"].(string)
	pollReq := httptest.NewRequest(http.MethodGet, "/api/v1/parse/"+taskID, nil)
	pollRec := httptest.NewRecorder()
	env.router.ServeHTTP(pollRec, pollReq)
	assert.Equal(t, http.StatusOK, pollRec.Code)
}

func TestRequestWithoutBodyKinds(t *testing.T) {
	env := newTestEnv(t, &stubDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/convert", nil)
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
