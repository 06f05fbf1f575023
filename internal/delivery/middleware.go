package delivery

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/xid"
)

// GzipBody распаковывает тело запроса при Content-Encoding: gzip.
func GzipBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") == "gzip" {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}
			defer zr.Close()
			r.Body = zr
			r.Header.Del("Content-Encoding")
			r.ContentLength = -1
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// RequestLogger вешает X-Request-ID и пишет строку на каждый запрос.
func RequestLogger(zl *logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := xid.New().String()
			w.Header().Set("X-Request-ID", rid)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			zl.Log(logger.LogEntry{
				Level: "info",
				Message: fmt.Sprintf("%s %s -> %d (%s) rid=%s",
					r.Method, r.URL.Path, rec.status, time.Since(start), rid),
				Service: "doc_parser",
			})
		})
	}
}
