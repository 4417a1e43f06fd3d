package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/docubrain/ragdex/internal/domain"
)

// textExtensions are file types read as plain UTF-8 text.
var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".json":     true,
	".log":      true,
	".html":     true,
	".xml":      true,
	".yaml":     true,
	".yml":      true,
}

// Parse extracts plain text from raw document bytes, dispatching on
// the file name's extension. Unsupported types and unreadable content
// return ErrParse.
func Parse(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case ext == ".pdf":
		return parsePDF(name, data)
	case textExtensions[ext]:
		return parseText(name, data)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrParse, ext)
	}
}

func parsePDF(name string, data []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf %s: %v", domain.ErrParse, name, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf %s: %v", domain.ErrParse, name, err)
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract pdf text from %s: %v", domain.ErrParse, name, err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("%w: read extracted text from %s: %v", domain.ErrParse, name, err)
	}

	text = sanitize(buf.String())
	if text == "" {
		return "", fmt.Errorf("%w: no extractable text in %s", domain.ErrParse, name)
	}
	return text, nil
}

func parseText(name string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrParse, name)
	}
	text := sanitize(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrParse, name)
	}
	return text, nil
}

// sanitize strips NUL bytes and non-printing controls that some PDF
// extractors emit, keeping common whitespace.
func sanitize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}
