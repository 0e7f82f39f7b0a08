// Package extract turns stored document bytes into plain text for AI validation.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

type fileOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// OCR recognises text in an image.
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".gif":  {},
}

// Extractor dispatches on file extension. Failures are logged and yield empty text.
type Extractor struct {
	files  fileOpener
	ocr    OCR
	logger *zap.Logger
}

// New builds an Extractor. A nil ocr disables image recognition.
func New(files fileOpener, ocr OCR, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{files: files, ocr: ocr, logger: logger}
}

// Extract reads fileRef and returns its plain text. formatHint (usually the original
// filename) selects the format; fileRef's own extension is used when the hint has none.
func (e *Extractor) Extract(ctx context.Context, fileRef, formatHint string) (text string) {
	ext := strings.ToLower(filepath.Ext(formatHint))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(fileRef))
	}
	log := e.logger.With(zap.String("file", fileRef), zap.String("format", ext))

	defer func() {
		if r := recover(); r != nil {
			log.Error("text extraction panicked", zap.Any("panic", r))
			text = ""
		}
	}()

	if !supported(ext) {
		return ""
	}

	data, err := e.read(ctx, fileRef)
	if err != nil {
		log.Warn("text extraction failed", zap.Error(err))
		return ""
	}

	switch {
	case ext == ".pdf":
		text, err = extractPDF(data, log)
	case ext == ".docx":
		text, err = extractDOCX(data)
	case ext == ".txt" || ext == ".text":
		text = strings.ToValidUTF8(string(data), string(utf8.RuneError))
	default:
		text, err = e.recognize(ctx, data)
	}
	if err != nil {
		log.Warn("text extraction failed", zap.Error(err))
		return ""
	}
	return text
}

func supported(ext string) bool {
	switch ext {
	case ".pdf", ".docx", ".txt", ".text":
		return true
	}
	_, ok := imageExtensions[ext]
	return ok
}

func (e *Extractor) read(ctx context.Context, fileRef string) ([]byte, error) {
	if e.files == nil {
		return nil, errors.New("file store not configured")
	}
	body, err := e.files.Open(ctx, fileRef)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fileRef, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileRef, err)
	}
	return data, nil
}

func (e *Extractor) recognize(ctx context.Context, data []byte) (string, error) {
	if e.ocr == nil {
		return "", errors.New("ocr not configured")
	}
	text, err := e.ocr.Recognize(ctx, data)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// extractPDF concatenates page text in order, skipping pages the parser cannot read.
func extractPDF(data []byte, log *zap.Logger) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var buf strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		pageText, err := pageText(reader, i)
		if err != nil {
			log.Debug("skipping unreadable pdf page", zap.Int("page", i), zap.Error(err))
			continue
		}
		buf.WriteString(pageText)
	}
	return strings.TrimSpace(buf.String()), nil
}

func pageText(reader *pdf.Reader, index int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", index, r)
		}
	}()
	page := reader.Page(index)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", index)
	}
	return page.GetPlainText(nil)
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("docx: word/document.xml not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
