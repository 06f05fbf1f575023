package ports

import "context"

// Классификация ошибок конвертации. Kind определяет HTTP-статус в delivery.
type FaultKind string

const (
	FaultInvalidInput      FaultKind = "invalid_input"
	FaultUnsupportedFormat FaultKind = "unsupported_format"
	FaultMissingCredential FaultKind = "missing_credential"
	FaultConversion        FaultKind = "conversion_error"
	FaultTimeout           FaultKind = "timeout"
)

// Fault — структурированная ошибка, безопасная для клиента.
// Message уходит в ответ, Err — только в логи.
type Fault struct {
	Kind    FaultKind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

func (f *Fault) Unwrap() error { return f.Err }

func NewFault(kind FaultKind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// Опции конвертации, приходят из query/form параметров запроса.
type Options struct {
	UseLLM        bool
	LLMModel      string
	EnablePlugins bool
}

// Результат успешной конвертации.
type Result struct {
	Markdown string
	Pages    int // 0 — не определено (не PDF или не удалось посчитать)
}

// Converter — обёртка над внешней утилитой конвертации.
type Converter interface {
	ConvertToMarkdown(ctx context.Context, path string, opts Options) (string, error)
}

// PageCounter считает страницы PDF до запуска конвертации.
type PageCounter interface {
	Count(path string) (int, error)
}

// ImageDescriber — LLM-описание изображений (use_llm=true).
type ImageDescriber interface {
	DescribeImage(ctx context.Context, path, mimeType, model string) (string, error)
}

// Dispatcher — точка входа конвейера конвертации.
// id — идентификатор запроса/задачи, используется для ключа архива.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, art Artifact, opts Options) (Result, *Fault)
}
