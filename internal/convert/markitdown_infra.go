package convert

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/Vovarama1992/doc_parser/internal/ports"
)

// Маркеры ошибок формата в stderr у markitdown
var unsupportedMarkers = []string{
	"UnsupportedFormatException",
	"FileConversionException",
	"MissingDependencyException",
}

type MarkitdownConverter struct {
	bin string
}

// NewMarkitdownConverter находит исполняемый файл markitdown.
// bin из конфига; пустое значение — поиск в PATH и типовых местах.
func NewMarkitdownConverter(bin string) (*MarkitdownConverter, error) {
	if bin == "" {
		bin = "markitdown"
	}
	if !strings.Contains(bin, "/") {
		if found, err := exec.LookPath(bin); err == nil {
			return &MarkitdownConverter{bin: found}, nil
		}
		for _, p := range []string{"/usr/local/bin/markitdown", "/usr/bin/markitdown", "/opt/homebrew/bin/markitdown"} {
			if _, err := os.Stat(p); err == nil {
				return &MarkitdownConverter{bin: p}, nil
			}
		}
		return nil, fmt.Errorf("markitdown binary not found (pip install markitdown)")
	}
	if _, err := os.Stat(bin); err != nil {
		return nil, fmt.Errorf("markitdown binary not found at %s: %w", bin, err)
	}
	return &MarkitdownConverter{bin: bin}, nil
}

func (c *MarkitdownConverter) ConvertToMarkdown(ctx context.Context, path string, opts ports.Options) (string, error) {
	args := []string{path}
	if opts.EnablePlugins {
		args = append(args, "--use-plugins")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Printf("[markitdown] converting %s", path)

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ports.NewFault(ports.FaultTimeout, "conversion timed out", ctx.Err())
		}

		errText := stderr.String()
		for _, marker := range unsupportedMarkers {
			if strings.Contains(errText, marker) {
				return "", ports.NewFault(ports.FaultUnsupportedFormat,
					"file could not be parsed", fmt.Errorf("markitdown: %s", lastLine(errText)))
			}
		}
		return "", ports.NewFault(ports.FaultConversion,
			"conversion failed", fmt.Errorf("markitdown: %w: %s", err, lastLine(errText)))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", ports.NewFault(ports.FaultConversion,
			"converter produced empty output", nil)
	}

	log.Printf("[markitdown] done %s, %d bytes of markdown", path, len(out))
	return out, nil
}

// lastLine — в stderr питоновский traceback, само исключение в конце
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
