package extractor

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

func TestStripMarkupKeepsInlineTextTogether(t *testing.T) {
	got := StripMarkup(`<p>Levels of H<sub>2</sub>O &amp; CO<sub>2</sub> rose.</p><p>Second <i>paragraph</i>.</p><script>x()</script>`)
	want := "Levels of H2O & CO2 rose. Second paragraph."
	if got != want {
		t.Fatalf("StripMarkup() = %q, want %q", got, want)
	}
}

func TestStripMarkupPlainTextOnlyCollapsesSpace(t *testing.T) {
	if got := StripMarkup("  a\n\tb  "); got != "a b" {
		t.Fatalf("StripMarkup() = %q", got)
	}
}

func TestAbstractSectionBetweenHeadings(t *testing.T) {
	text := "A Trial of Statins\nJ Smith\nAbstract: Statins reduced mortality by 20% in 4000 patients. Keywords: statins, mortality\n1. Introduction ..."
	got := AbstractSection(text)
	if got != "Statins reduced mortality by 20% in 4000 patients." {
		t.Fatalf("AbstractSection() = %q", got)
	}
}

func TestAbstractSectionWithoutHeading(t *testing.T) {
	if got := AbstractSection("Just a claim about drugs."); got != "Just a claim about drugs." {
		t.Fatalf("AbstractSection() = %q", got)
	}
}

func TestExtractAbstractFromHTML(t *testing.T) {
	body := `<html><body><h2>Abstract</h2><p>Aspirin lowered the risk of stroke.</p><h2>Introduction</h2><p>...</p></body></html>`
	got, err := New().ExtractAbstract(context.Background(), "paper.html", strings.NewReader(body))
	if err != nil {
		t.Fatalf("ExtractAbstract() error = %v", err)
	}
	if got != "Aspirin lowered the risk of stroke." {
		t.Fatalf("ExtractAbstract() = %q", got)
	}
}

func TestExtractAbstractRejectsBinary(t *testing.T) {
	_, err := New().ExtractAbstract(context.Background(), "blob.bin", bytes.NewReader([]byte{0xff, 0xfe, 0x00, 0x81}))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExtractAbstractRejectsMalformedPDF(t *testing.T) {
	_, err := New().ExtractAbstract(context.Background(), "paper.pdf", strings.NewReader("%PDF-1.4 garbage"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExtractAbstractRejectsOversizedUpload(t *testing.T) {
	e := &Extractor{maxBytes: 8}
	_, err := e.ExtractAbstract(context.Background(), "a.txt", strings.NewReader("0123456789"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
