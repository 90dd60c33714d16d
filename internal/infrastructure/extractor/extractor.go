package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

const maxUploadBytes = 20 << 20

// Extractor picks the abstract out of an uploaded text, HTML/XML or PDF file.
type Extractor struct {
	maxBytes int64
}

func New() *Extractor {
	return &Extractor{maxBytes: maxUploadBytes}
}

func (e *Extractor) ExtractAbstract(ctx context.Context, filename string, body io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(body, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > e.maxBytes {
		return "", domain.InvalidInputf("extract abstract", "file exceeds %d bytes", e.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var text string
	switch {
	case isPDF(filename, raw):
		text, err = pdfText(raw)
		if err != nil {
			return "", err
		}
	case utf8.Valid(raw):
		text = StripMarkup(string(raw))
	default:
		return "", domain.InvalidInputf("extract abstract", "unsupported binary format: %s", filename)
	}

	abstract := AbstractSection(text)
	if abstract == "" {
		return "", domain.InvalidInputf("extract abstract", "no text found in %s", filename)
	}
	return abstract, nil
}

func isPDF(filename string, raw []byte) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf") || bytes.HasPrefix(raw, []byte("%PDF-"))
}

var (
	abstractHeading = regexp.MustCompile(`(?i)\babstract\b[\s:.\-]*`)
	sectionEnd      = regexp.MustCompile(`(?i)\b(keywords?|key words|introduction|1\.?\s+introduction|background and aims|references)\b\s*[:.\-]?`)
)

// maxAbstractRunes bounds the fallback when no abstract heading is present.
const maxAbstractRunes = 3000

// AbstractSection returns the text between an "Abstract" heading and the next
// section heading. Without a heading the leading text is returned.
func AbstractSection(text string) string {
	text = collapseSpace(text)
	if text == "" {
		return ""
	}
	if loc := abstractHeading.FindStringIndex(text); loc != nil {
		body := text[loc[1]:]
		if end := sectionEnd.FindStringIndex(body); end != nil && end[0] > 0 {
			body = body[:end[0]]
		}
		if body = strings.TrimSpace(body); body != "" {
			return truncate(body, maxAbstractRunes)
		}
	}
	return truncate(text, maxAbstractRunes)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
