package convert

import "github.com/pdfcpu/pdfcpu/pkg/api"

// PdfcpuPageCounter считает страницы без полного разбора документа.
type PdfcpuPageCounter struct{}

func NewPdfcpuPageCounter() *PdfcpuPageCounter {
	return &PdfcpuPageCounter{}
}

func (c *PdfcpuPageCounter) Count(path string) (int, error) {
	return api.PageCountFile(path)
}
