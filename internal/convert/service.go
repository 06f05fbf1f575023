package convert

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Vovarama1992/doc_parser/internal/error_notificator"
	"github.com/Vovarama1992/doc_parser/internal/ports"
)

type Service struct {
	conv        ports.Converter
	pages       ports.PageCounter
	describer   ports.ImageDescriber // nil — LLM не сконфигурирован
	archive     ports.ArchiveService // nil — архив выключен
	notifier    error_notificator.Notificator
	maxPDFPages int
	llmModel    string // модель по умолчанию
}

func NewService(
	conv ports.Converter,
	pages ports.PageCounter,
	describer ports.ImageDescriber,
	archive ports.ArchiveService,
	notifier error_notificator.Notificator,
	maxPDFPages int,
	llmModel string,
) *Service {
	return &Service{
		conv:        conv,
		pages:       pages,
		describer:   describer,
		archive:     archive,
		notifier:    notifier,
		maxPDFPages: maxPDFPages,
		llmModel:    llmModel,
	}
}

// Dispatch гоняет артефакт через конвейер: проверка страниц PDF,
// markitdown, опциональное LLM-описание, опциональный архив.
// Артефакт НЕ удаляет — это обязанность вызывающего.
func (s *Service) Dispatch(ctx context.Context, id string, art ports.Artifact, opts ports.Options) (ports.Result, *ports.Fault) {
	// проверка креденшела до любых внешних вызовов
	if opts.UseLLM && s.describer == nil {
		return ports.Result{}, ports.NewFault(ports.FaultMissingCredential,
			"llm-assisted conversion is not configured on this server", nil)
	}

	var res ports.Result

	if art.MimeType == "application/pdf" {
		count, err := s.pages.Count(art.Path)
		if err != nil {
			// не смогли посчитать — не валим запрос, markitdown решит сам
			log.Printf("[convert] page count failed for %s: %v", art.Name, err)
		} else {
			res.Pages = count
			if count > s.maxPDFPages {
				return ports.Result{}, ports.NewFault(ports.FaultInvalidInput,
					fmt.Sprintf("document has %d pages, limit is %d", count, s.maxPDFPages), nil)
			}
		}
	}

	md, err := s.conv.ConvertToMarkdown(ctx, art.Path, opts)
	if err != nil {
		fault := classify(ctx, err)
		s.notifyFailure(ctx, art, fault)
		return ports.Result{}, fault
	}

	if opts.UseLLM && strings.HasPrefix(art.MimeType, "image/") {
		model := opts.LLMModel
		if model == "" {
			model = s.llmModel
		}
		desc, derr := s.describer.DescribeImage(ctx, art.Path, art.MimeType, model)
		if derr != nil {
			fault := classify(ctx, fmt.Errorf("llm description: %w", derr))
			s.notifyFailure(ctx, art, fault)
			return ports.Result{}, fault
		}
		if desc != "" {
			md = md + "\n\n# Description\n\n" + desc
		}
	}

	res.Markdown = md

	if s.archive != nil {
		if url, aerr := s.archive.SaveMarkdown(ctx, id, art.Name, md); aerr != nil {
			log.Printf("[convert] archive failed for %s: %v", art.Name, aerr)
		} else {
			log.Printf("[convert] archived %s -> %s", art.Name, url)
		}
	}

	return res, nil
}

func (s *Service) notifyFailure(ctx context.Context, art ports.Artifact, fault *ports.Fault) {
	if s.notifier == nil || fault.Kind != ports.FaultConversion {
		return
	}
	_ = s.notifier.Notify(ctx, fault,
		fmt.Sprintf("conversion failed: %s (%s)", art.Name, art.MimeType))
}

// classify переводит ошибку конвертера в Fault.
func classify(ctx context.Context, err error) *ports.Fault {
	if ctx.Err() == context.DeadlineExceeded {
		return ports.NewFault(ports.FaultTimeout, "conversion timed out", err)
	}
	var f *ports.Fault
	if errors.As(err, &f) {
		return f
	}
	return ports.NewFault(ports.FaultConversion, "conversion failed", err)
}
