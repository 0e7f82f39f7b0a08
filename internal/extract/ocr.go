package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// TesseractOCR shells out to the tesseract CLI, piping the image on stdin.
type TesseractOCR struct {
	Binary   string
	Language string
	Timeout  time.Duration
}

// NewTesseractOCR applies defaults for empty settings.
func NewTesseractOCR(binary, language string, timeout time.Duration) *TesseractOCR {
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TesseractOCR{Binary: binary, Language: language, Timeout: timeout}
}

// Recognize implements OCR.
func (t *TesseractOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errors.New("empty image")
	}
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Binary, "stdin", "stdout", "-l", t.Language)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("tesseract timed out after %s: %w", t.Timeout, ctx.Err())
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
