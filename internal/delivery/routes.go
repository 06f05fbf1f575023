package delivery

import (
	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, h *ConvertHandler) {
	r.Route("/", func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			GzipBody,
		)

		// --- синхронная конвертация ---
		pr.Post("/convert", h.ConvertSync)

		// --- асинхронный API ---
		pr.Post("/api/v1/upload", h.UploadAsync)
		pr.Get("/api/v1/parse/{task_id}", h.ParseStatus)
		pr.Post("/api/v1/upload/parse", h.UploadParseSync)
	})
}
