package ai

import "context"

type Service interface {
	// DescribeImage возвращает текстовое описание изображения через LLM.
	// model — модель из запроса (llm_model) либо дефолт из конфига.
	DescribeImage(ctx context.Context, path, mimeType, model string) (string, error)
}
