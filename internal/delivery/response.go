package delivery

import (
	"net/http"

	"github.com/Vovarama1992/doc_parser/internal/ports"
	json "github.com/goccy/go-json"
)

// Единый конверт ответа: {"code": ..., "message": ..., "data": ...}
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func respondData(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Message: message, Data: data})
}

func respondFault(w http.ResponseWriter, f *ports.Fault) {
	status := faultStatus(f.Kind)
	msg := f.Message
	if f.Kind == ports.FaultMissingCredential {
		// проблема деплоя, не клиента; деталей наружу не даём
		msg = "server configuration error"
	}
	writeJSON(w, status, envelope{
		Code:    status,
		Message: msg,
		Data:    map[string]any{"error_kind": f.Kind},
	})
}

func faultStatus(kind ports.FaultKind) int {
	switch kind {
	case ports.FaultInvalidInput:
		return http.StatusBadRequest
	case ports.FaultUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case ports.FaultMissingCredential:
		return http.StatusInternalServerError
	case ports.FaultConversion:
		return http.StatusBadGateway
	case ports.FaultTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
